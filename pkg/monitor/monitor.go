// Package monitor exposes a running render session over WebSocket.
//
// The daemon side runs a [Server] that pushes one [Frame] per interval
// to every attached client: the current engine status plus any journal
// events recorded since the previous push. The read side of each
// connection only consumes pings; clients never steer the stream.
//
// The CLI side uses [Dial] and ranges over [Client.Frames]:
//
//	c, err := monitor.Dial(ctx, "ws://127.0.0.1:7979/monitor")
//	if err != nil {
//		return err
//	}
//	defer c.Close()
//	for frame, err := range c.Frames() {
//		if err != nil {
//			return err
//		}
//		draw(frame)
//	}
package monitor

import (
	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/journal"
	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/jsontime"
	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/render"
)

// Frame is one monitor push: a status snapshot and the journal events
// recorded since the previous frame. The first frame on a connection
// carries the most recent tail of the session's journal.
type Frame struct {
	Time   jsontime.Milli  `json:"time"`
	Status render.Status   `json:"status"`
	Events []journal.Event `json:"events,omitempty"`
}

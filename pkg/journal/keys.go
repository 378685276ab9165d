package journal

import (
	"fmt"

	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/kv"
)

// sessionKey builds the KV key for a session metadata record.
// Format: "journal" + "session" + {id}
func sessionKey(id string) kv.Key {
	return kv.Key{"journal", "session", id}
}

// sessionPrefix returns the prefix for listing all sessions.
func sessionPrefix() kv.Key {
	return kv.Key{"journal", "session"}
}

// eventKey builds the KV key for one event. The sequence number is zero
// padded so lexicographic key order matches numeric order.
// Format: "journal" + "event" + {id} + {seq}
func eventKey(id string, seq uint64) kv.Key {
	return kv.Key{"journal", "event", id, fmt.Sprintf("%010d", seq)}
}

// eventPrefix returns the prefix for listing all events of a session.
func eventPrefix(id string) kv.Key {
	return kv.Key{"journal", "event", id}
}

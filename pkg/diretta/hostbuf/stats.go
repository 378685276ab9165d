package hostbuf

// Stats are the manager's lifetime counters.
//
// BaseMoves counts grants whose view landed at a different base address
// than the previous grant. OnlineGrows counts reallocations that
// happened while the stream clock was running; a climbing value means
// the configured policy is fighting the workload.
type Stats struct {
	Acquires    uint64 `json:"acquires"`
	Releases    uint64 `json:"releases"`
	Grows       uint64 `json:"grows"`
	OnlineGrows uint64 `json:"online_grows"`
	BaseMoves   uint64 `json:"base_moves"`
	Errors      uint64 `json:"errors"`
}

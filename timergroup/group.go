// Package timergroup names the arbiter timer groups the hub schedules
// and releases. A Group is the key scheduler.TimerAsync groups timers
// under, so an outstanding wait can be found and cancelled by kind
// without tracking individual timer handles.
package timergroup

type Group uint8

const (
	GroupInvalid Group = 0

	// GroupFuseHandshake bounds how long a reliable-exchange round trip
	// for a single Fuse handshake may take before the socket is closed.
	GroupFuseHandshake Group = 1

	// GroupLogSweep paces the CommitEngine's periodic re-scan of the
	// log, so that acks arriving without a triggering receive (e.g. a
	// stub-only ack) still eventually get re-evaluated for commit.
	GroupLogSweep Group = 2
)

func (g Group) String() string {
	switch g {
	case GroupInvalid:
		return "Invalid Group"
	case GroupFuseHandshake:
		return "Fuse Handshake Wait"
	case GroupLogSweep:
		return "Log Sweep Wait"
	default:
		return "Unknown Group"
	}
}

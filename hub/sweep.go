package hub

import (
	"github.com/Meander-Cloud/go-schedule/scheduler"

	"github.com/Meander-Cloud/go-club/timergroup"
)

// scheduleLogSweep arms the periodic re-scan of spec.md §4.9: acks can
// arrive without a triggering receive (a vote-only frame that doesn't
// itself unblock the scanning entry), so the CommitEngine is also run
// on a timer, not only from onRecv's step 9. Self-rescheduling, the
// same idiom the teacher's election package uses for its wait timers
// rather than a recurring scheduler primitive.
func (h *Hub) scheduleLogSweep() {
	h.arb.Scheduler().ProcessSync(
		&scheduler.ScheduleAsyncEvent[timergroup.Group]{
			AsyncVariant: scheduler.TimerAsync(
				true,
				[]timergroup.Group{timergroup.GroupLogSweep},
				h.cfg.LogSweepInterval,
				func() {
					// invoked on arbiter goroutine
					h.logSweep()
				},
				nil,
			),
		},
	)
}

// invoked on arbiter goroutine
func (h *Hub) logSweep() {
	if h.destroyed() {
		return
	}

	h.runCommitEngine()
	h.scheduleLogSweep()
}

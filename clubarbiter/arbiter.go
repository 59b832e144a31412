// Package clubarbiter provides the single-threaded cooperative event
// loop the hub runs on. All hub state is single-owner: mutation only
// ever happens inside a closure dispatched onto the arbiter goroutine,
// so the hub itself never takes a lock.
package clubarbiter

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Meander-Cloud/go-schedule/scheduler"

	"github.com/Meander-Cloud/go-club/timergroup"
)

const (
	DefaultEventChannelLength uint16 = 1024
)

type Options struct {
	EventChannelLength uint16
	LogPrefix          string
	LogDebug           bool
}

type Arbiter struct {
	o       *Options
	s       *scheduler.Scheduler[timergroup.Group]
	eventpl sync.Pool
	eventch chan *event
}

func NewArbiter(o *Options) *Arbiter {
	eventChannelLength := o.EventChannelLength
	if eventChannelLength == 0 {
		eventChannelLength = DefaultEventChannelLength
	}
	if o.LogPrefix == "" {
		o.LogPrefix = "Arbiter"
	}

	a := &Arbiter{
		o: o,
		s: scheduler.NewScheduler[timergroup.Group](
			&scheduler.Options{
				LogPrefix: o.LogPrefix,
				LogDebug:  o.LogDebug,
			},
		),
		eventpl: sync.Pool{
			New: func() any {
				return newEvent()
			},
		},
		eventch: make(chan *event, eventChannelLength),
	}

	// add eventch
	a.s.ProcessAsync(
		&scheduler.ScheduleAsyncEvent[timergroup.Group]{
			AsyncVariant: scheduler.NewAsyncVariant(
				false,
				nil,
				a.eventch,
				func(_ *scheduler.Scheduler[timergroup.Group], _ *scheduler.AsyncVariant[timergroup.Group], recv interface{}) {
					a.handle(recv)
				},
				func(_ *scheduler.Scheduler[timergroup.Group], v *scheduler.AsyncVariant[timergroup.Group]) {
					log.Printf("%s: eventch released, select count: %d", o.LogPrefix, v.SelectCount)
				},
			),
		},
	)

	// ownership of internal state is transferred to scheduler goroutine
	a.s.RunAsync()

	return a
}

func (a *Arbiter) Shutdown() {
	a.s.Shutdown() // wait
}

func (a *Arbiter) Scheduler() *scheduler.Scheduler[timergroup.Group] {
	return a.s
}

func (a *Arbiter) getEvent() *event {
	evtAny := a.eventpl.Get()
	evt, ok := evtAny.(*event)
	if !ok {
		err := fmt.Errorf("%s: failed to cast event, evtAny=%#v", a.o.LogPrefix, evtAny)
		log.Printf("%s", err.Error())
		panic(err)
	}
	return evt
}

func (a *Arbiter) returnEvent(evt *event) {
	// recycle event
	evt.reset()
	a.eventpl.Put(evt)
}

// scheduler goroutine
func (a *Arbiter) handle(recv interface{}) {
	evt, ok := recv.(*event)
	if !ok {
		log.Printf("%s: failed to cast event, recv=%#v", a.o.LogPrefix, recv)
		return
	}
	defer a.returnEvent(evt)

	t1 := time.Now().UTC()

	func() {
		defer func() {
			rec := recover()
			if rec != nil {
				log.Printf(
					"%s: functor recovered from panic: %+v",
					a.o.LogPrefix,
					rec,
				)
			}
		}()
		evt.f()
	}()

	t2 := time.Now().UTC()

	// log event lifecycle
	log.Printf(
		"%s: event goQueueWait=%dus, evtFuncElapsed=%dus",
		a.o.LogPrefix,
		t1.Sub(evt.t0).Microseconds(),
		t2.Sub(t1).Microseconds(),
	)
}

// any goroutine
func (a *Arbiter) Dispatch(f func()) error {
	evt := a.getEvent()
	evt.f = f
	evt.t0 = time.Now().UTC()

	select {
	case a.eventch <- evt:
	default:
		err := fmt.Errorf("%s: failed to push to eventch", a.o.LogPrefix)
		log.Printf("%s", err.Error())

		a.returnEvent(evt)
		return err
	}

	return nil
}

package hub

import (
	"sync"
	"sync/atomic"

	"github.com/Meander-Cloud/go-club/wire"
)

// ReceiveFunc handles a committed UserData delivery or an inbound
// unreliable frame.
type ReceiveFunc func(origin wire.UUID, payload []byte)

// MembershipFunc handles an on_insert/on_remove delta.
type MembershipFunc func(ids wire.UUIDSet)

// DirectConnectFunc handles the on_direct_connect hook, spec.md §9.3.
type DirectConnectFunc func(id wire.UUID)

// membershipSlot and receiveSlot/directConnectSlot each implement the
// destroy-guard mechanism of spec.md §4.11: a callback invocation
// takes ownership of the function value (so a concurrent Set from
// another goroutine can't race with a reinstall happening from
// inside the callback itself), invokes it, then restores the original
// only if the callback did not reinstall a replacement on itself
// mid-call. Invoke always returns whether the hub was destroyed
// during the call, observed via the shared alive flag.
type membershipSlot struct {
	mutex sync.Mutex
	fn    MembershipFunc
}

func (s *membershipSlot) Set(fn MembershipFunc) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.fn = fn
}

func (s *membershipSlot) Invoke(alive *atomic.Bool, ids wire.UUIDSet) (destroyed bool) {
	s.mutex.Lock()
	fn := s.fn
	s.fn = nil
	s.mutex.Unlock()

	if fn != nil {
		fn(ids)
	}

	s.mutex.Lock()
	if s.fn == nil {
		s.fn = fn
	}
	s.mutex.Unlock()

	return !alive.Load()
}

type receiveSlot struct {
	mutex sync.Mutex
	fn    ReceiveFunc
}

func (s *receiveSlot) Set(fn ReceiveFunc) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.fn = fn
}

func (s *receiveSlot) Invoke(alive *atomic.Bool, origin wire.UUID, payload []byte) (destroyed bool) {
	s.mutex.Lock()
	fn := s.fn
	s.fn = nil
	s.mutex.Unlock()

	if fn != nil {
		fn(origin, payload)
	}

	s.mutex.Lock()
	if s.fn == nil {
		s.fn = fn
	}
	s.mutex.Unlock()

	return !alive.Load()
}

type directConnectSlot struct {
	mutex sync.Mutex
	fn    DirectConnectFunc
}

func (s *directConnectSlot) Set(fn DirectConnectFunc) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.fn = fn
}

func (s *directConnectSlot) Invoke(alive *atomic.Bool, id wire.UUID) (destroyed bool) {
	s.mutex.Lock()
	fn := s.fn
	s.fn = nil
	s.mutex.Unlock()

	if fn != nil {
		fn(id)
	}

	s.mutex.Lock()
	if s.fn == nil {
		s.fn = fn
	}
	s.mutex.Unlock()

	return !alive.Load()
}

// CallbackBroker holds the five registered user callbacks (spec.md
// §4.11) and runs each one under the destroy-guard above.
type CallbackBroker struct {
	alive *atomic.Bool

	onInsert             membershipSlot
	onRemove             membershipSlot
	onReceive            receiveSlot
	onReceiveUnreliable  receiveSlot
	onDirectConnect      directConnectSlot
}

func NewCallbackBroker(alive *atomic.Bool) *CallbackBroker {
	return &CallbackBroker{alive: alive}
}

func (b *CallbackBroker) SetOnInsert(fn MembershipFunc)            { b.onInsert.Set(fn) }
func (b *CallbackBroker) SetOnRemove(fn MembershipFunc)            { b.onRemove.Set(fn) }
func (b *CallbackBroker) SetOnReceive(fn ReceiveFunc)              { b.onReceive.Set(fn) }
func (b *CallbackBroker) SetOnReceiveUnreliable(fn ReceiveFunc)    { b.onReceiveUnreliable.Set(fn) }
func (b *CallbackBroker) SetOnDirectConnect(fn DirectConnectFunc)  { b.onDirectConnect.Set(fn) }

// RunOnInsert etc. return true iff the callback destroyed the hub;
// callers (the CommitEngine, the Dispatcher) must abort remaining
// work when true.
func (b *CallbackBroker) RunOnInsert(ids wire.UUIDSet) bool {
	if len(ids) == 0 {
		return b.alive.Load() == false
	}
	return b.onInsert.Invoke(b.alive, ids)
}

func (b *CallbackBroker) RunOnRemove(ids wire.UUIDSet) bool {
	if len(ids) == 0 {
		return b.alive.Load() == false
	}
	return b.onRemove.Invoke(b.alive, ids)
}

func (b *CallbackBroker) RunOnReceive(origin wire.UUID, payload []byte) bool {
	return b.onReceive.Invoke(b.alive, origin, payload)
}

func (b *CallbackBroker) RunOnReceiveUnreliable(origin wire.UUID, payload []byte) bool {
	return b.onReceiveUnreliable.Invoke(b.alive, origin, payload)
}

func (b *CallbackBroker) RunOnDirectConnect(id wire.UUID) bool {
	return b.onDirectConnect.Invoke(b.alive, id)
}

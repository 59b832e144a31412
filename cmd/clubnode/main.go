package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Meander-Cloud/go-club/clubarbiter"
	"github.com/Meander-Cloud/go-club/config"
	"github.com/Meander-Cloud/go-club/hub"
	"github.com/Meander-Cloud/go-club/transport"
	"github.com/Meander-Cloud/go-club/wire"
)

// UserCallback logs every hub event, the same role the teacher's
// UserCallback plays for LeaderElected/LeaderRevoked.
type UserCallback struct {
	LogPrefix string
}

func (uc *UserCallback) OnInsert(ids wire.UUIDSet) {
	log.Printf("%s: OnInsert: %v", uc.LogPrefix, ids.Slice())
}

func (uc *UserCallback) OnRemove(ids wire.UUIDSet) {
	log.Printf("%s: OnRemove: %v", uc.LogPrefix, ids.Slice())
}

func (uc *UserCallback) OnReceive(origin wire.UUID, payload []byte) {
	log.Printf("%s: OnReceive: origin=%s, payload=%q", uc.LogPrefix, origin.String(), payload)
}

func (uc *UserCallback) OnReceiveUnreliable(origin wire.UUID, payload []byte) {
	log.Printf("%s: OnReceiveUnreliable: origin=%s, payload=%q", uc.LogPrefix, origin.String(), payload)
}

func (uc *UserCallback) OnDirectConnect(id wire.UUID) {
	log.Printf("%s: OnDirectConnect: %s", uc.LogPrefix, id.String())
}

// runNode wires one club node: listen on selfAddress, dial every
// address in peerAddressList that sorts after selfAddress, and run
// until a signal arrives.
// Mirrors the teacher's test1()'s instance/peer-list wiring, adapted
// from election.NewElection's single-shot construction to a Hub whose
// arbiter is built here (ambient-stack wiring, SPEC_FULL §8.4).
func runNode(logPrefix string, selfAddress string, peerAddressList []string) {
	uc := &UserCallback{LogPrefix: logPrefix}

	arb := clubarbiter.NewArbiter(
		&clubarbiter.Options{
			EventChannelLength: config.EventChannelLength,
			LogPrefix:          logPrefix,
			LogDebug:           false,
		},
	)

	h, err := hub.New(
		&config.Config{
			LogPrefix: logPrefix,
			LogDebug:  false,
		},
		arb,
	)
	if err != nil {
		log.Printf("%s: hub.New failed: %s", logPrefix, err.Error())
		return
	}
	h.OnInsert(uc.OnInsert)
	h.OnRemove(uc.OnRemove)
	h.OnReceive(uc.OnReceive)
	h.OnReceiveUnreliable(uc.OnReceiveUnreliable)
	h.OnDirectConnect(uc.OnDirectConnect)

	log.Printf("%s: self=%s, listening on %s", logPrefix, h.Self().String(), selfAddress)

	listener, err := transport.Listen(selfAddress, &transport.TCPOptions{LogPrefix: logPrefix})
	if err != nil {
		log.Printf("%s: listen %s failed: %s", logPrefix, selfAddress, err.Error())
		return
	}
	go acceptLoop(logPrefix, listener, h)

	// dial only the peers that sort after self, so each pair connects
	// exactly once (the higher-addressed node always accepts instead)
	for _, address := range peerAddressList {
		if address > selfAddress {
			dialPeer(logPrefix, address, h)
		}
	}

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigch // wait
	log.Printf("%s: received signal %s, exiting", logPrefix, sig.String())

	listener.Close()
	h.Close()
}

func acceptLoop(logPrefix string, listener *transport.TCPListener, h *hub.Hub) {
	for {
		socket, err := listener.Accept()
		if err != nil {
			log.Printf("%s: accept loop ending: %s", logPrefix, err.Error())
			return
		}

		h.Fuse(socket, func(err error, peer wire.UUID) {
			if err != nil {
				log.Printf("%s: inbound fuse from %s failed: %s", logPrefix, socket.RemoteDescriptor(), err.Error())
				return
			}
			log.Printf("%s: fused with inbound peer=%s", logPrefix, peer.String())
		})
	}
}

func dialPeer(logPrefix string, address string, h *hub.Hub) {
	socket, err := transport.Dial(address, &transport.TCPOptions{LogPrefix: logPrefix})
	if err != nil {
		log.Printf("%s: dial %s failed: %s", logPrefix, address, err.Error())
		return
	}

	h.Fuse(socket, func(err error, peer wire.UUID) {
		if err != nil {
			log.Printf("%s: outbound fuse to %s failed: %s", logPrefix, address, err.Error())
			return
		}
		log.Printf("%s: fused with outbound peer=%s", logPrefix, peer.String())
	})
}

func test1() {
	if len(os.Args) <= 1 {
		log.Printf("test1: must specify instance 1/2/3")
		return
	}

	switch os.Args[1] {
	case "1":
		runNode("test1-A", "localhost:8911", []string{"localhost:8912", "localhost:8913"})
	case "2":
		runNode("test1-B", "localhost:8912", []string{"localhost:8911", "localhost:8913"})
	case "3":
		runNode("test1-C", "localhost:8913", []string{"localhost:8911", "localhost:8912"})
	default:
		log.Printf("test1: must specify instance 1/2/3")
	}
}

func main() {
	// enable microsecond and file line logging
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	test1()
}

package config

import (
	"fmt"
	"log"
	"time"
)

const (
	// defaults for when not provided in Config
	EventChannelLength   uint16        = 1024
	FuseHandshakeTimeout time.Duration = time.Second * 5
	LogSweepInterval     time.Duration = time.Second * 3
	UnreliableMaxPayload uint32        = 16384 // 16 KB, mirrors net/tcp/protocol's maxPayloadLen
)

// Config holds the hub's own knobs: the two timer groups the arbiter
// schedules (fuse handshake timeout, and the periodic log/seen sweep
// that re-evaluates the CommitEngine even when no new frame arrives
// to trigger it). Event-loop sizing is the caller's own concern, set
// on clubarbiter.Options when the *clubarbiter.Arbiter passed to
// hub.New is constructed, before Config ever comes into play.
type Config struct {
	FuseHandshakeTimeout time.Duration
	LogSweepInterval     time.Duration

	LogPrefix string
	LogDebug  bool
}

func (c *Config) Validate() error {
	if c == nil {
		err := fmt.Errorf("nil config")
		log.Printf("%s", err.Error())
		return err
	}

	if c.LogPrefix == "" {
		err := fmt.Errorf("invalid LogPrefix=%s", c.LogPrefix)
		log.Printf("%s", err.Error())
		return err
	}

	if c.FuseHandshakeTimeout == 0 {
		c.FuseHandshakeTimeout = FuseHandshakeTimeout
	}

	if c.LogSweepInterval == 0 {
		c.LogSweepInterval = LogSweepInterval
	}

	return nil
}

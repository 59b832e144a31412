package hub

import (
	"github.com/Meander-Cloud/go-club/clublog"
	"github.com/Meander-Cloud/go-club/wire"
)

// runCommitEngine scans the log and advances the commit cursor
// subject to causality and quorum, spec.md §4.9. Only ever one
// invocation is active at a time: it runs synchronously on the
// arbiter goroutine, called at the tail of every handler (spec.md
// §4.6 step 9, §4.5 step 5, §4.8's Fuse/UserData branches).
func (h *Hub) runCommitEngine() {
	if h.destroyed() {
		return
	}

	live := h.configs.CurrentMembers()

	var hf *clublog.LogEntry
	var hfID wire.MessageId
	for _, s := range h.log.Reversed() {
		if s.Entry.IsFuse() && s.Entry.AckedByQuorum() {
			hf, hfID = s.Entry, s.ID
			break
		}
	}
	if hf != nil {
		live = hf.Quorum
	}

	for _, s := range h.log.Ascending() {
		id, e := s.ID, s.Entry

		if e.IsFuse() {
			if hf == nil {
				break // no commitable fuse: stop
			}
			if id.Less(hfID) {
				if !e.AckedByQuorumUnder(live) {
					// concurrent loser: advance last_committed past it
					// and erase it. spec.md §9 open question 1: this
					// may also erase a fuse that causally precedes hf;
					// preserved as specified, see DESIGN.md.
					h.log.LastCommitted = id
					h.log.LastCommitOp = e.Message.Originator()
					h.log.Erase(id)
					continue
				}
				// acked under the chosen live set: this earlier fuse
				// is a consistent ancestor of hf, not a loser — falls
				// through to commit below.
			} else if !id.Equal(hfID) {
				break // e is later than the chosen fuse
			}
			// id == hfID, or id < hfID and acked under live: commit.
		} else {
			if !e.AckedByQuorumUnder(live) {
				break
			}
		}

		if !h.predecessorCausallyOK(e) {
			break
		}

		if id.Equal(hfID) {
			hf = nil
		}
		if e.IsFuse() {
			h.log.LastFuseCommit = id
		}
		h.log.LastCommitted = id
		h.log.LastCommitOp = e.Message.Originator()
		h.seen.SeenEverythingUpTo(id)
		h.log.Erase(id)

		destroyed := h.commit(id, e)
		if destroyed {
			return
		}
	}
}

// predecessorCausallyOK implements spec.md §4.9's causal-predecessor
// verification: pick the greatest predecessor p with p.id ==
// last_committed OR config_id(e) known to this node's ConfigStore. If
// no such p exists, there is nothing to gate on and the entry falls
// through to commit, hub.cpp:556-574's reverse-iterator loop running
// off the end without ever entering its guarded check. Otherwise the
// chosen p must be either last_committed itself or strictly after
// last_fuse_commit, or the entry is not yet committable.
func (h *Hub) predecessorCausallyOK(e *clublog.LogEntry) bool {
	if len(e.Predecessors) == 0 {
		return true
	}

	configKnown := h.configs.Contains(e.Message.GetHeader().ConfigID)

	var chosen wire.MessageId
	found := false
	for _, p := range e.Predecessors {
		if p.Equal(h.log.LastCommitted) || configKnown {
			if !found || chosen.Less(p) {
				chosen = p
				found = true
			}
		}
	}
	if !found {
		return true
	}

	if !chosen.Equal(h.log.LastCommitted) && chosen.LessOrEqual(h.log.LastFuseCommit) {
		return false
	}
	return true
}

// commit dispatches a committing entry by variant, spec.md §4.9's
// commit(e). Returns whether a user callback destroyed the hub.
func (h *Hub) commit(id wire.MessageId, e *clublog.LogEntry) bool {
	switch {
	case e.IsFuse():
		return h.onCommitFuse(id, e)
	case e.IsUserData():
		return h.commitUserData(e)
	default:
		// PortOffer commit is reserved, spec.md §9.2.
		return h.destroyed()
	}
}

func (h *Hub) commitUserData(e *clublog.LogEntry) bool {
	u := e.Message.UserData

	_, known := h.nodes.Get(u.Header.Originator)
	if !known && u.Header.Originator != h.self {
		return h.destroyed()
	}
	return h.callbacks.RunOnReceive(u.Header.Originator, u.Payload)
}

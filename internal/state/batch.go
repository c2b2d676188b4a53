package state

import (
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/bridge"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/logging"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/uiloop"
)

// Coordinator runs batch accept/reject over the pending set. The set of
// acted-on ids is snapshotted at the moment of invocation; transfers
// arriving while the command is in flight are left for the user. The UI
// is updated once per batch, when the engine acknowledges.
type Coordinator struct {
	store  *Store
	loop   uiloop.Loop
	log    *logging.Logger
	submit func(bridge.Command) error
}

// NewCoordinator wires a coordinator to the store and command submitter.
func NewCoordinator(store *Store, loop uiloop.Loop, log *logging.Logger, submit func(bridge.Command) error) *Coordinator {
	if log == nil {
		log = logging.Nop()
	}
	return &Coordinator{store: store, loop: loop, log: log, submit: submit}
}

// AcceptAll accepts every transfer pending right now. Returns the
// snapshotted ids, or an error if the command queue rejected the submit.
// With an empty pending set it does nothing.
func (c *Coordinator) AcceptAll() ([]string, error) {
	return c.run(true)
}

// RejectAll rejects every transfer pending right now, mirroring AcceptAll.
func (c *Coordinator) RejectAll() ([]string, error) {
	return c.run(false)
}

func (c *Coordinator) run(accept bool) ([]string, error) {
	ids := c.store.PendingIDs()
	if len(ids) == 0 {
		return nil, nil
	}
	done := func(results map[string]error) {
		for id, err := range results {
			if err != nil {
				c.log.Error().Err(err).Str("transfer_id", id).Bool("accept", accept).Msg("batch decision failed for transfer")
			}
		}
		c.loop.Post(func() { c.store.ResolveBatch(ids, accept) })
	}
	var cmd bridge.Command
	if accept {
		cmd = bridge.AcceptAll{IDs: ids, Done: done}
	} else {
		cmd = bridge.RejectAll{IDs: ids, Done: done}
	}
	if err := c.submit(cmd); err != nil {
		return nil, err
	}
	return ids, nil
}

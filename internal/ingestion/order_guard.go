package ingestion

import (
	"errors"
	"fmt"

	"MarketGraph/internal/event"
)

// ErrStaleOrder marks an event at or before the high-water mark that
// the deduplicator did not recognize. The upstream indexer emits logs
// in chain order, so a non-duplicate regression means the message is a
// replay from before the dedup horizon and must not reach the core.
var ErrStaleOrder = errors.New("chain order regression")

// ChainOrderGuard enforces the (block, txIndex, logIndex) total order
// over events admitted to the core.
// Not thread-safe; only accessed from the single-threaded shell loop.
type ChainOrderGuard struct {
	initialized bool
	last        event.Order
}

func NewChainOrderGuard() *ChainOrderGuard {
	return &ChainOrderGuard{}
}

// Validate checks that o is strictly after the high-water mark. The
// first event is always admitted.
func (g *ChainOrderGuard) Validate(o event.Order) error {
	if !g.initialized {
		return nil
	}
	if o.Compare(g.last) <= 0 {
		return fmt.Errorf("%w: got (%d,%d,%d), high-water (%d,%d,%d)",
			ErrStaleOrder,
			o.Block, o.TxIndex, o.LogIndex,
			g.last.Block, g.last.TxIndex, g.last.LogIndex)
	}
	return nil
}

// Advance moves the high-water mark to o after the event was applied.
func (g *ChainOrderGuard) Advance(o event.Order) {
	g.last = o
	g.initialized = true
}

// Restore seeds the high-water mark from a snapshot.
func (g *ChainOrderGuard) Restore(o event.Order) {
	g.last = o
	g.initialized = true
}

// Last returns the high-water mark and whether one has been set.
func (g *ChainOrderGuard) Last() (event.Order, bool) {
	return g.last, g.initialized
}

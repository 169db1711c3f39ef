package selection

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

// Registry holds the strategies available to session creation. It is built
// once at startup and injected wherever selection happens; the map is never
// mutated afterwards, so lookups are safe from any goroutine.
type Registry struct {
	strategies map[StrategyKind]Strategy
}

// NewRegistry wires the default and adaptive strategies against the given
// question source. A nil rng gets a time-seeded one; tests pass a fixed seed
// for deterministic selections.
func NewRegistry(source QuestionSource, rng *rand.Rand, logger *slog.Logger) *Registry {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	// Each strategy gets an independent generator derived from the seed so
	// two strategies never contend on one rand.Rand.
	return &Registry{
		strategies: map[StrategyKind]Strategy{
			StrategyDefault:  NewDefaultStrategy(source, rand.New(rand.NewSource(rng.Int63())), logger),
			StrategyAdaptive: NewAdaptiveStrategy(source, rand.New(rand.NewSource(rng.Int63())), logger),
		},
	}
}

// Get returns the strategy registered for kind.
func (r *Registry) Get(kind StrategyKind) (Strategy, error) {
	strategy, ok := r.strategies[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown strategy %q", ErrInvalidCriteria, kind)
	}
	return strategy, nil
}

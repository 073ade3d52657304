package builder

import (
	"context"

	"github.com/roextract/debpack/internal/logger"
)

// state is the pipeline's position in its lifecycle. Every working state
// passes through stateCleaningUp before reaching a terminal state; cleanup
// is a mandatory waypoint, not a terminal state itself.
type state string

const (
	stateResolving   state = "resolving"
	stateStaging     state = "staging"
	stateNormalizing state = "normalizing"
	stateArchiving   state = "archiving"
	stateInstalling  state = "installing"
	stateCleaningUp  state = "cleaning-up"
	stateDone        state = "done"
	stateFailed      state = "failed"
)

// setState records and logs a pipeline state transition.
func (b *builder) setState(ctx context.Context, next state) {
	b.state = next
	logger.DebugKV(ctx, "Pipeline state changed", "state", string(next))
}

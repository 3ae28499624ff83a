package reconcile

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/opencall-dev/opencall-cli/internal/model"
)

// Gateway is the persistence boundary the engine commits through. An
// opportunity and its change events are one atomic unit: the gateway must
// commit both or neither.
type Gateway interface {
	CommitOpportunity(ctx context.Context, o *model.Opportunity, events []model.ChangeEvent) error
}

// Persist commits every opportunity the run touched, each together with
// its change events. A gateway failure marks the run partially applied:
// the affected ids are reported in the summary for whole retry next run,
// never silently dropped.
func Persist(ctx context.Context, gw Gateway, res *Result) error {
	for _, o := range res.TouchedOpportunities() {
		if err := gw.CommitOpportunity(ctx, o, res.Changes[o.ID]); err != nil {
			res.Summary.Uncommitted = append(res.Summary.Uncommitted, o.ID)
			zap.L().Error("reconcile: commit failed",
				zap.String("opportunity_id", o.ID),
				zap.Error(err),
			)
		}
	}
	if n := len(res.Summary.Uncommitted); n > 0 {
		return eris.Errorf("reconcile: %d opportunities not committed", n)
	}
	return nil
}

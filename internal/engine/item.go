package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ShayCichocki/handover/internal/session"
	"github.com/ShayCichocki/handover/pkg/models"
)

// ItemRoute is the routing outcome of one sub-workflow pass.
type ItemRoute string

const (
	RouteContinue ItemRoute = "continue"
	RouteDone     ItemRoute = "done"
)

// ItemState is the scratch state of one per-item sub-workflow run. Only
// Output fans in to the parent; the pass counters never leak upward
// because scalar fields cannot be merged from concurrent writers.
type ItemState struct {
	Item       models.SourceItem
	PassNumber int
	MaxPasses  int
	Previous   []models.ItemReport
	Output     session.ItemOutput
}

// ItemStageFunc executes one pass over an item. Implementations append
// the produced report to both Previous (so the next pass sees the full
// prior-report list, in pass order) and Output, and advance PassNumber.
type ItemStageFunc func(ctx context.Context, it *ItemState) error

// ItemRouteFunc decides whether another pass should run.
type ItemRouteFunc func(it *ItemState) ItemRoute

// FanOut turns one stage into N parallel sub-workflow runs, one per
// item. Fan-in is implicit: the engine waits for every run to finish
// and merges their outputs through the append reducer.
type FanOut struct {
	// Prepare emits the independent initial states, one per item.
	Prepare func(st *session.State) []*ItemState
	// Run is the sub-workflow's single pass step.
	Run ItemStageFunc
	// Route is checked before each pass; RouteDone ends the run.
	Route ItemRouteFunc
}

// runFanOut executes every item sub-workflow concurrently and merges
// their output projections in item order.
func (e *Engine) runFanOut(ctx context.Context, stage *Stage, st *session.State) (*session.Update, error) {
	runs := stage.FanOut.Prepare(st)
	outputs := make([]session.ItemOutput, len(runs))

	g, ctx := errgroup.WithContext(ctx)
	for i, it := range runs {
		g.Go(func() error {
			for stage.FanOut.Route(it) == RouteContinue {
				if err := stage.FanOut.Run(ctx, it); err != nil {
					return fmt.Errorf("item %s pass %d: %w", it.Item.ID, it.PassNumber, err)
				}
			}
			outputs[i] = it.Output
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	upd := &session.Update{}
	for _, out := range outputs {
		upd.ItemReports = append(upd.ItemReports, out.Reports...)
	}
	return upd, nil
}

package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/orbitforge/hablayout/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rackLayout(count int) *model.Layout {
	l := model.NewLayout()
	l.Habitat = model.NewCubeHabitat(5, 5, 5)
	for i := 0; i < count; i++ {
		l.Modules = append(l.Modules, boxModule("rack", 0.7, 5, 1))
	}
	return &l
}

// testOptimizer pins a single zero-margin strategy so placement counts
// are predictable.
func testOptimizer() *Optimizer {
	o := NewOptimizer(nil)
	o.Strategies = []model.Strategy{looseTestStrategy()}
	return o
}

func removeAllDecider() DecisionFunc {
	return func(ctx context.Context, overflow []model.Overflow, candidates []model.Module, attempt int) (Decision, error) {
		return Decision{RemoveAll: true}, nil
	}
}

func TestOptimize_NoOverflowAcceptsFirstAttempt(t *testing.T) {
	layout := rackLayout(3)
	o := testOptimizer()

	res, err := o.Optimize(context.Background(), layout, nil)

	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.Equal(t, model.StateAccepted, res.State)
	assert.Len(t, res.Placements, 3)
	assert.Empty(t, res.Removed)
	assert.Equal(t, 1, res.Attempts)

	// placements are written back into the layout
	for _, m := range layout.Modules {
		p, ok := res.Placements[m.ID]
		require.True(t, ok)
		assert.Equal(t, p.X, m.X)
		assert.Equal(t, p.Y, m.Y)
		assert.Equal(t, p.Z, m.Z)
	}
}

func TestOptimize_RemoveAllResolvesOverflow(t *testing.T) {
	// Ten racks of which only seven fit on the floor row.
	layout := rackLayout(10)
	o := testOptimizer()

	res, err := o.Optimize(context.Background(), layout, removeAllDecider())

	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.Equal(t, model.StateAccepted, res.State)
	assert.Len(t, res.Placements, 7)
	assert.Len(t, res.Removed, 3)
	assert.Empty(t, res.Infeasible)
	assert.Equal(t, 3, res.ReasonSummary[model.ReasonSpaceExhausted])
	assert.Len(t, layout.Modules, 7)
}

func TestOptimize_NoSilentLoss(t *testing.T) {
	layout := rackLayout(10)
	layout.Modules = append(layout.Modules, boxModule("oversize", 9, 9, 1))
	total := len(layout.Modules)
	o := testOptimizer()

	res, err := o.Optimize(context.Background(), layout, removeAllDecider())

	require.NoError(t, err)
	assert.Equal(t, total, len(res.Placements)+len(res.Removed)+len(res.Infeasible))
	require.Len(t, res.Infeasible, 1)
	assert.Equal(t, model.ReasonFootprintExceeds, res.Infeasible[0].Reason)
	// infeasible modules stay in the layout, unplaced
	assert.Len(t, layout.Modules, len(res.Placements)+1)
}

func TestOptimize_CancelRestoresSnapshot(t *testing.T) {
	layout := rackLayout(10)
	before := model.CloneModules(layout.Modules)
	o := testOptimizer()

	decide := func(ctx context.Context, overflow []model.Overflow, candidates []model.Module, attempt int) (Decision, error) {
		return Decision{Cancel: true}, nil
	}
	res, err := o.Optimize(context.Background(), layout, decide)

	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Equal(t, model.StateCanceled, res.State)
	assert.Equal(t, before, layout.Modules)

	// canceling again from a fresh call is just as clean
	res, err = o.Optimize(context.Background(), layout, decide)
	require.NoError(t, err)
	assert.Equal(t, model.StateCanceled, res.State)
	assert.Equal(t, before, layout.Modules)
}

func TestOptimize_SingleRemovalLoop(t *testing.T) {
	layout := rackLayout(9)
	o := testOptimizer()

	var prompts []int
	decide := func(ctx context.Context, overflow []model.Overflow, candidates []model.Module, attempt int) (Decision, error) {
		prompts = append(prompts, len(overflow))
		return Decision{ModuleID: overflow[0].Module.ID}, nil
	}

	res, err := o.Optimize(context.Background(), layout, decide)

	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.Len(t, res.Placements, 7)
	assert.Len(t, res.Removed, 2)
	// the overflow set shrinks strictly on every prompt
	assert.Equal(t, []int{2, 1}, prompts)
	assert.Equal(t, 3, res.Attempts)
}

func TestOptimize_NoDeciderFailsFast(t *testing.T) {
	layout := rackLayout(10)
	before := model.CloneModules(layout.Modules)
	o := testOptimizer()

	res, err := o.Optimize(context.Background(), layout, nil)

	assert.ErrorIs(t, err, ErrNoDecisionMaker)
	assert.Nil(t, res)
	assert.Equal(t, before, layout.Modules, "failure must not drop modules")
}

func TestOptimize_UnknownModuleDecision(t *testing.T) {
	layout := rackLayout(10)
	before := model.CloneModules(layout.Modules)
	o := testOptimizer()

	decide := func(ctx context.Context, overflow []model.Overflow, candidates []model.Module, attempt int) (Decision, error) {
		return Decision{ModuleID: "no-such-id"}, nil
	}
	res, err := o.Optimize(context.Background(), layout, decide)

	assert.ErrorIs(t, err, ErrDecisionUnknownModule)
	assert.Nil(t, res)
	assert.Equal(t, before, layout.Modules)
}

func TestOptimize_ReentrantCallRejected(t *testing.T) {
	layout := rackLayout(10)
	o := testOptimizer()

	inDecision := make(chan struct{})
	release := make(chan struct{})
	decide := func(ctx context.Context, overflow []model.Overflow, candidates []model.Module, attempt int) (Decision, error) {
		close(inDecision)
		<-release
		return Decision{RemoveAll: true}, nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := o.Optimize(context.Background(), layout, decide)
		assert.NoError(t, err)
	}()

	<-inDecision
	_, err := o.Optimize(context.Background(), rackLayout(1), nil)
	assert.ErrorIs(t, err, ErrOptimizeInFlight)

	close(release)
	wg.Wait()
}

func TestOptimize_ContextCancellation(t *testing.T) {
	layout := rackLayout(10)
	before := model.CloneModules(layout.Modules)
	o := testOptimizer()

	ctx, cancel := context.WithCancel(context.Background())
	decide := func(ctx context.Context, overflow []model.Overflow, candidates []model.Module, attempt int) (Decision, error) {
		cancel()
		return Decision{ModuleID: overflow[0].Module.ID}, nil
	}

	res, err := o.Optimize(ctx, layout, decide)

	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Equal(t, model.StateCanceled, res.State)
	assert.Equal(t, before, layout.Modules)
}

func TestOptimize_EmptyPlaceableSetAcceptsEmptyLayout(t *testing.T) {
	layout := model.NewLayout()
	layout.Habitat = model.NewCubeHabitat(2, 2, 2)
	layout.Modules = []model.Module{boxModule("oversize", 5, 5, 5)}
	o := testOptimizer()

	res, err := o.Optimize(context.Background(), &layout, nil)

	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.Empty(t, res.Placements)
	require.Len(t, res.Infeasible, 1)
}

func TestCompareStrategies_ReportsEveryStrategy(t *testing.T) {
	habitat := model.NewCylinderHabitat(4, 14)
	var modules []model.Module
	for i := 0; i < 5; i++ {
		modules = append(modules, boxModule("storage", 2, 2, 2))
	}

	reports := CompareStrategies(habitat, modules, nil, nil)

	require.Len(t, reports, len(model.DefaultStrategies()))
	for _, r := range reports {
		assert.Equal(t, 5, r.PlacedCount, "strategy %s", r.Strategy.Name)
		assert.Zero(t, r.OverflowCount)
		assert.Greater(t, r.FillPercent, 0.0)
	}
}

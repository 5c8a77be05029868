package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/orbitforge/hablayout/internal/geometry"
	"github.com/orbitforge/hablayout/internal/logging"
	"github.com/orbitforge/hablayout/internal/model"
)

var (
	// ErrOptimizeInFlight is returned for a re-entrant optimize call
	// while one is already running on the same optimizer.
	ErrOptimizeInFlight = errors.New("optimize already in flight")
	// ErrNoDecisionMaker is returned when residual overflow needs a
	// decision but no decision maker was supplied. It is not retryable
	// without one.
	ErrNoDecisionMaker = errors.New("residual overflow requires a decision maker")
	// ErrDecisionUnknownModule is returned when a decision names a
	// module id that is not in the current layout.
	ErrDecisionUnknownModule = errors.New("decision names an unknown module")
)

// Decision is one answer from the decision maker: remove a single module,
// remove every module in the current overflow set, or cancel the session.
type Decision struct {
	ModuleID  string
	RemoveAll bool
	Cancel    bool
}

// DecisionFunc resolves residual overflow. It receives the current
// overflow set, the full working module list, and the 1-based attempt
// number. It may take arbitrarily long; the session honors ctx while
// waiting only through the func's own cooperation.
type DecisionFunc func(ctx context.Context, overflow []model.Overflow, candidates []model.Module, attempt int) (Decision, error)

// Optimizer runs the strategy ladder over a layout and drives the
// overflow-resolution session. One optimize call at a time; concurrent
// calls are rejected with ErrOptimizeInFlight.
type Optimizer struct {
	Strategies []model.Strategy
	Lookup     SizeLookup
	Log        logging.Logger

	mu sync.Mutex
}

// NewOptimizer returns an optimizer with the built-in strategy ladder.
func NewOptimizer(log logging.Logger) *Optimizer {
	if log == nil {
		log = logging.Noop()
	}
	return &Optimizer{Strategies: model.DefaultStrategies(), Log: log}
}

// selectBest runs every strategy in ladder order and keeps the winner:
// the first with zero overflow, otherwise fewest overflow modules with
// overflow volume as the tie break.
func (o *Optimizer) selectBest(b geometry.Bounds, candidates []Candidate) model.PackResult {
	strategies := o.Strategies
	if len(strategies) == 0 {
		strategies = model.DefaultStrategies()
	}
	var best model.PackResult
	for i, strat := range strategies {
		res := Pack(b, candidates, strat)
		if len(res.Overflow) == 0 {
			return res
		}
		if i == 0 || len(res.Overflow) < len(best.Overflow) ||
			(len(res.Overflow) == len(best.Overflow) && res.OverflowVolume < best.OverflowVolume) {
			best = res
		}
	}
	return best
}

// Optimize packs the layout's modules into its habitat. Infeasible
// modules are excluded up front with a reason and stay in the layout;
// space-exhausted overflow is resolved through decide. On accept the
// clamped placements are written back into the layout's modules and
// removed modules are deleted from it; on cancel the layout is restored
// to the exact pre-call snapshot. The layout is never mutated before the
// session finalizes.
func (o *Optimizer) Optimize(ctx context.Context, layout *model.Layout, decide DecisionFunc) (*model.OptimizeResult, error) {
	if !o.mu.TryLock() {
		return nil, ErrOptimizeInFlight
	}
	defer o.mu.Unlock()

	log := o.Log
	if log == nil {
		log = logging.Noop()
	}

	snapshot := model.CloneModules(layout.Modules)
	working := model.CloneModules(layout.Modules)
	bounds := geometry.ResolveBounds(layout.Habitat)

	var removed []model.Module
	reasons := make(map[model.Reason]int)
	attempt := 0

	for {
		if err := ctx.Err(); err != nil {
			layout.Modules = snapshot
			return canceledResult(snapshot, reasons, attempt), err
		}

		candidates, infeasible := o.partition(layout.Habitat, working)
		for _, inf := range infeasible {
			log.Debug("module infeasible",
				logging.String("module", inf.Module.ID),
				logging.String("reason", string(inf.Reason)))
		}

		best := o.selectBest(bounds, candidates)
		attempt++
		log.Info("packing attempt",
			logging.Int("attempt", attempt),
			logging.String("strategy", best.Strategy),
			logging.Int("placed", len(best.Placements)),
			logging.Int("overflow", len(best.Overflow)))

		if len(best.Overflow) == 0 {
			return o.accept(layout, working, removed, infeasible, best, reasons, attempt), nil
		}

		if decide == nil {
			layout.Modules = snapshot
			return nil, ErrNoDecisionMaker
		}
		d, err := decide(ctx, best.Overflow, model.CloneModules(working), attempt)
		if err != nil {
			layout.Modules = snapshot
			return nil, err
		}
		if d.Cancel {
			layout.Modules = snapshot
			log.Info("optimize canceled", logging.Int("attempt", attempt))
			return canceledResult(snapshot, reasons, attempt), nil
		}
		if d.RemoveAll {
			drop := make(map[string]model.Reason, len(best.Overflow))
			for _, ov := range best.Overflow {
				drop[ov.Module.ID] = ov.Reason
			}
			working = removeModules(working, drop, &removed, reasons)
			continue
		}
		reason, ok := overflowReason(best.Overflow, d.ModuleID)
		if !ok {
			if !containsModule(working, d.ModuleID) {
				layout.Modules = snapshot
				return nil, ErrDecisionUnknownModule
			}
			// A non-overflowing module may still be sacrificed to make
			// room; it carries the residual reason.
			reason = model.ReasonSpaceExhausted
		}
		working = removeModules(working, map[string]model.Reason{d.ModuleID: reason}, &removed, reasons)
	}
}

// partition splits the working set into placeable candidates and
// infeasible exclusions.
func (o *Optimizer) partition(habitat model.Habitat, working []model.Module) ([]Candidate, []model.Overflow) {
	var candidates []Candidate
	var infeasible []model.Overflow
	for _, m := range working {
		f := CheckModuleFeasibility(habitat, m, o.Lookup)
		if !f.OK {
			infeasible = append(infeasible, model.Overflow{Module: m, Reason: f.Reason})
			continue
		}
		candidates = append(candidates, NewCandidate(m, o.Lookup))
	}
	return candidates, infeasible
}

// accept finalizes a zero-overflow attempt: clamp placements, write them
// back into the caller-visible module list, drop removed modules, and
// assemble the result.
func (o *Optimizer) accept(layout *model.Layout, working []model.Module, removed []model.Module, infeasible []model.Overflow, best model.PackResult, reasons map[model.Reason]int, attempt int) *model.OptimizeResult {
	bounds := geometry.ResolveBounds(layout.Habitat)
	for id, p := range best.Placements {
		c, half := geometry.ClampToDirection(bounds,
			geometry.Vec3{X: p.X, Y: p.Y, Z: p.Z},
			geometry.Vec3{X: p.W / 2, Y: p.D / 2, Z: p.H / 2})
		p.X, p.Y, p.Z = c.X, c.Y, c.Z
		p.W, p.D, p.H = half.X*2, half.Y*2, half.Z*2
		best.Placements[id] = p
	}

	final := make([]model.Module, 0, len(working))
	for _, m := range working {
		if p, ok := best.Placements[m.ID]; ok {
			m.X, m.Y, m.Z = p.X, p.Y, p.Z
			m.W, m.D, m.H = p.W, p.D, p.H
		}
		final = append(final, m)
	}
	layout.Modules = final

	for _, inf := range infeasible {
		reasons[inf.Reason]++
	}

	res := &model.OptimizeResult{
		Accepted:      true,
		State:         model.StateAccepted,
		Strategy:      best.Strategy,
		Placements:    best.Placements,
		Removed:       removed,
		Infeasible:    infeasible,
		Overlaps:      FindOverlaps(best.Placements),
		ReasonSummary: reasons,
		Modules:       model.CloneModules(final),
		Attempts:      attempt,
	}
	layout.Result = res
	return res
}

func canceledResult(snapshot []model.Module, reasons map[model.Reason]int, attempt int) *model.OptimizeResult {
	return &model.OptimizeResult{
		Accepted:      false,
		State:         model.StateCanceled,
		Placements:    map[string]model.Placement{},
		ReasonSummary: reasons,
		Modules:       model.CloneModules(snapshot),
		Attempts:      attempt,
	}
}

func overflowReason(overflow []model.Overflow, id string) (model.Reason, bool) {
	for _, ov := range overflow {
		if ov.Module.ID == id {
			return ov.Reason, true
		}
	}
	return "", false
}

func containsModule(modules []model.Module, id string) bool {
	for _, m := range modules {
		if m.ID == id {
			return true
		}
	}
	return false
}

// removeModules drops the listed ids from working, recording each into
// removed with its reason tallied.
func removeModules(working []model.Module, drop map[string]model.Reason, removed *[]model.Module, reasons map[model.Reason]int) []model.Module {
	kept := working[:0]
	for _, m := range working {
		if reason, ok := drop[m.ID]; ok {
			*removed = append(*removed, m)
			reasons[reason]++
			continue
		}
		kept = append(kept, m)
	}
	return kept
}

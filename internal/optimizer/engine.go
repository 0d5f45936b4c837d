package optimizer

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ignite/adpilot/internal/gads"
)

// MutationService is the outbound mutation interface the engine depends on.
// *gads.Client satisfies it. SupportsPartialFailure is the capability flag
// deciding whether per-operation outcomes can be attributed back to actions;
// when false a batch is strictly all-or-nothing.
type MutationService interface {
	Mutate(ctx context.Context, customerID string, ops []gads.MutateOperation, validateOnly bool) (*gads.MutateResult, error)
	SupportsPartialFailure() bool
}

// EngineConfig carries the execution-controller configuration sourced from
// the environment.
type EngineConfig struct {
	CustomerID string

	// ValidateOnly forces dry-run mode: the full action set is computed
	// and the batch described, but nothing is ever submitted.
	ValidateOnly bool

	// AllowedCallers is the allow-list for apply mode. Irrelevant while
	// ValidateOnly is set.
	AllowedCallers []string

	// LookbackDays is the historical window queried per invocation.
	LookbackDays int
}

// Engine orchestrates one optimization run end-to-end: query, aggregate,
// evaluate, build mutations, and (in apply mode) submit. Each invocation is
// self-contained; independent invocations are safe to run in parallel.
type Engine struct {
	adapter *Adapter
	mutator MutationService
	cfg     EngineConfig
	now     func() time.Time
}

// NewEngine builds the engine around injected query and mutation services.
// Clients are constructed once at process start; the engine never creates
// its own.
func NewEngine(queries QueryService, mutator MutationService, cfg EngineConfig) *Engine {
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 30
	}
	return &Engine{
		adapter: NewAdapter(queries, cfg.CustomerID),
		mutator: mutator,
		cfg:     cfg,
		now:     time.Now,
	}
}

// ValidateOnly reports whether the engine runs in dry-run mode.
func (e *Engine) ValidateOnly() bool {
	return e.cfg.ValidateOnly
}

// CallerAllowed checks the apply-mode allow-list.
func (e *Engine) CallerAllowed(caller string) bool {
	for _, c := range e.cfg.AllowedCallers {
		if c == caller {
			return true
		}
	}
	return false
}

// Optimize runs the full pipeline for one request. It always returns the
// uniform response envelope: validation and access failures yield
// success=false without running the pipeline; query degradation yields
// success=true with notes; mutation failure yields success=false.
func (e *Engine) Optimize(ctx context.Context, caller string, req Request) Response {
	if req.OptimizationType == "" {
		return Response{Success: false, Error: "optimizationType is required"}
	}
	if !req.OptimizationType.Valid() {
		return Response{Success: false, Error: fmt.Sprintf("invalid optimizationType %q", req.OptimizationType)}
	}
	if !e.cfg.ValidateOnly && !e.CallerAllowed(caller) {
		return Response{Success: false, Error: fmt.Sprintf("caller %q is not authorized for apply mode", caller)}
	}

	window := e.window()
	in, notes := e.collect(ctx, req)

	evaluator := NewEvaluator(req.Settings)
	actions := evaluator.Evaluate(req.OptimizationType, in)

	var applied []Action
	var recommendations []Recommendation
	for _, a := range actions {
		if a.Executable {
			applied = append(applied, a)
		} else {
			recommendations = append(recommendations, a)
		}
	}

	notes = append(notes, e.resolveLabels(ctx, applied)...)

	ops, origin := BuildMutations(e.cfg.CustomerID, applied)
	log.Printf("[Engine] %s run: window %s..%s, %d actions (%d executable, %d ops), %d recommendations",
		req.OptimizationType, window.From, window.To, len(actions), len(applied), len(ops), len(recommendations))

	if e.cfg.ValidateOnly {
		notes = append(notes, fmt.Sprintf("dry run: %d operations computed, none submitted", len(ops)))
	} else if len(ops) > 0 {
		result, err := e.mutator.Mutate(ctx, e.cfg.CustomerID, ops, false)
		if err != nil {
			// Mutation failure is fatal to the run; surface verbatim.
			return Response{Success: false, Error: fmt.Sprintf("mutation service rejected batch: %v", err)}
		}
		attributeResults(applied, origin, result, e.mutator.SupportsPartialFailure())
	}

	return Response{
		Success: true,
		Optimizations: &Optimizations{
			Applied:         ensureActions(applied),
			Recommendations: ensureActions(recommendations),
			Summary: Summary{
				TotalChanges:        len(ops),
				ExpectedImprovement: expectedImprovement(actions),
				RiskLevel:           riskLevel(len(ops)),
			},
			Notes: notes,
		},
	}
}

// window computes the inclusive query window ending yesterday (the current
// day is always partial and would skew ratios).
func (e *Engine) window() DateRange {
	end := e.now().AddDate(0, 0, -1)
	start := end.AddDate(0, 0, -(e.cfg.LookbackDays - 1))
	return DateRange{
		From: start.Format("2006-01-02"),
		To:   end.Format("2006-01-02"),
	}
}

// collect fetches and aggregates every granularity the optimization type
// needs. Query failures surface only as notes; the maps are always valid.
func (e *Engine) collect(ctx context.Context, req Request) (EvaluationInput, []string) {
	var in EvaluationInput
	var notes []string
	window := e.window()

	rows, note := e.adapter.FetchRows(ctx, ScopeCampaign, req.CampaignID, window)
	if note != "" {
		notes = append(notes, note)
	}
	in.Campaigns = Aggregate(rows, CampaignKey)

	t := req.OptimizationType
	if t == OptimizeKeywords || t == OptimizeBids || t == OptimizeAll {
		rows, note = e.adapter.FetchRows(ctx, ScopeKeyword, req.CampaignID, window)
		if note != "" {
			notes = append(notes, note)
		}
		in.Keywords = Aggregate(rows, KeywordKey)
	}
	if t == OptimizeAds || t == OptimizeAll {
		rows, note = e.adapter.FetchRows(ctx, ScopeAd, req.CampaignID, window)
		if note != "" {
			notes = append(notes, note)
		}
		in.Ads = Aggregate(rows, AdKey)
	}

	in.Totals = AccountTotals(in.Campaigns)
	return in, notes
}

// resolveLabels fills in the resource name for every label action, querying
// the account once per distinct label. Actions whose label cannot be resolved
// keep an empty resource name and produce no operation; the failure surfaces
// as a note.
func (e *Engine) resolveLabels(ctx context.Context, applied []Action) []string {
	var notes []string
	resolved := make(map[string]string)
	for i := range applied {
		if applied[i].Type != ActionLabel || applied[i].Label == "" {
			continue
		}
		name := applied[i].Label
		res, seen := resolved[name]
		if !seen {
			var err error
			res, err = e.adapter.ResolveLabel(ctx, name)
			if err != nil {
				log.Printf("[Engine] label %q lookup failed: %v", name, err)
				notes = append(notes, fmt.Sprintf("label %q lookup failed (%v); label actions skipped", name, err))
			} else if res == "" {
				notes = append(notes, fmt.Sprintf("label %q does not exist in the account; label actions skipped", name))
			}
			resolved[name] = res
		}
		applied[i].LabelResource = res
	}
	return notes
}

// attributeResults maps per-operation outcomes back onto the originating
// actions. Without partial-failure support a returned result means the whole
// batch applied.
func attributeResults(applied []Action, origin []int, result *gads.MutateResult, partial bool) {
	for i := range applied {
		applied[i].Applied = true
	}
	if !partial || result == nil {
		return
	}
	for opIdx, actionIdx := range origin {
		if msg, failed := result.Failed(opIdx); failed {
			applied[actionIdx].Applied = false
			applied[actionIdx].Error = msg
		}
	}
}

// riskLevel is derived mechanically from batch size.
func riskLevel(operations int) string {
	if operations > 10 {
		return RiskMedium
	}
	return RiskLow
}

// expectedImprovement builds the human-readable summary line from the action
// mix.
func expectedImprovement(actions []Action) string {
	var cuts, scales, hygiene int
	for _, a := range actions {
		switch a.Type {
		case ActionPause, ActionArchive, ActionBidDecrease, ActionNegativeKeyword:
			cuts++
		case ActionBidIncrease, ActionBudgetIncrease, ActionBiddingStrategy:
			scales++
		case ActionLabel:
			hygiene++
		}
	}
	switch {
	case cuts == 0 && scales == 0 && hygiene == 0:
		return "No changes recommended; account is within thresholds"
	case cuts > 0 && scales > 0:
		return fmt.Sprintf("Reduced wasted spend (%d cuts) and improved volume allocation (%d scaling changes)", cuts, scales)
	case cuts > 0:
		return fmt.Sprintf("Reduced wasted spend from %d underperforming entities", cuts)
	case scales > 0:
		return fmt.Sprintf("Improved volume and budget allocation across %d entities", scales)
	default:
		return fmt.Sprintf("Flagged %d entities for review", hygiene)
	}
}

// ensureActions keeps JSON output as [] instead of null for empty lists.
func ensureActions(a []Action) []Action {
	if a == nil {
		return []Action{}
	}
	return a
}

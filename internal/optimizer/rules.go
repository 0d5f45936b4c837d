package optimizer

import "fmt"

// Default rule thresholds. Settings fields override these per invocation.
const (
	defaultMaxCpcIncrease = 20.0 // percent
	defaultMinCpcDecrease = 10.0 // percent
	defaultPauseCTR       = 1.0  // percent
	defaultPauseConvRate  = 1.0  // percent
	defaultPauseCPA       = 50.0 // currency units

	zeroTrafficMinImpressions = 500
	lowQualityMaxScore        = 3
	lowQualityMinClicks       = 10
	lowCTRMinImprCampaign     = 200
	lowCTRMinImprKeyword      = 100
	highPerfMinImpressions    = 50
	highPerfMinCTR            = 3.0
	highPerfMinClicks         = 5
	underutilizedMaxPct       = 60.0
	underutilizedMinImpr      = 1000
	highCostMinCPC            = 2.0
	highCostMaxConversions    = 2.0
	highCostMinClicks         = 50
	targetCPAMultiplier       = 10.0
	targetCPAFloor            = 20.0
	scaleWinnerMinUtilPct     = 90.0
	scaleWinnerMinConvRate    = 2.0
	scaleWinnerMinCost        = 100.0
	budgetIncreaseFactor      = 1.2
	highCPAAdMinClicks        = 100
	underperformingMinCost    = 200.0
	underperformingMaxCPA     = 100.0

	underperformingLabel = "underperforming"
)

// DefaultSettings returns the engine default thresholds.
func DefaultSettings() Settings {
	return Settings{
		MaxCpcIncrease: defaultMaxCpcIncrease,
		MinCpcDecrease: defaultMinCpcDecrease,
		PauseThreshold: &PauseThreshold{
			CTR:            defaultPauseCTR,
			ConversionRate: defaultPauseConvRate,
			CPA:            defaultPauseCPA,
		},
	}
}

// MergeSettings overlays caller-supplied settings on the defaults. Zero-valued
// numeric fields keep the default; PauseLowPerforming and AddNegativeKeywords
// are taken from the caller as-is.
func MergeSettings(s *Settings) Settings {
	merged := DefaultSettings()
	if s == nil {
		return merged
	}
	if s.MaxCpcIncrease > 0 {
		merged.MaxCpcIncrease = s.MaxCpcIncrease
	}
	if s.MinCpcDecrease > 0 {
		merged.MinCpcDecrease = s.MinCpcDecrease
	}
	merged.PauseLowPerforming = s.PauseLowPerforming
	merged.AddNegativeKeywords = s.AddNegativeKeywords
	if s.PauseThreshold != nil {
		if s.PauseThreshold.CTR > 0 {
			merged.PauseThreshold.CTR = s.PauseThreshold.CTR
		}
		if s.PauseThreshold.ConversionRate > 0 {
			merged.PauseThreshold.ConversionRate = s.PauseThreshold.ConversionRate
		}
		if s.PauseThreshold.CPA > 0 {
			merged.PauseThreshold.CPA = s.PauseThreshold.CPA
		}
	}
	return merged
}

// Evaluator applies the fixed rule library to aggregated entity metrics.
// Rules are independent and stateless: every rule is evaluated, a single
// entity may trigger several, and no rule vetoes another. Evaluation order
// is fixed (rule by rule, entities in sorted key order) so identical inputs
// always produce an identical action list.
type Evaluator struct {
	settings Settings
}

// NewEvaluator builds an evaluator with the caller settings merged over the
// defaults.
func NewEvaluator(s *Settings) *Evaluator {
	return &Evaluator{settings: MergeSettings(s)}
}

// EvaluationInput carries all aggregated granularities for one run. Maps may
// be nil when the optimization type did not require that granularity.
type EvaluationInput struct {
	Campaigns map[string]*EntityMetrics
	Keywords  map[string]*EntityMetrics
	Ads       map[string]*EntityMetrics
	Totals    EntityMetrics
}

// Evaluate runs the rule groups selected by optType and returns the combined
// action list in deterministic order.
func (e *Evaluator) Evaluate(optType OptimizationType, in EvaluationInput) []Action {
	var actions []Action

	runBids := optType == OptimizeBids || optType == OptimizeAll
	runKeywords := optType == OptimizeKeywords || optType == OptimizeAll
	runAds := optType == OptimizeAds || optType == OptimizeAll
	runBudget := optType == OptimizeBudget || optType == OptimizeAll
	runTargeting := optType == OptimizeTargeting || optType == OptimizeAll

	if runKeywords {
		actions = append(actions, e.zeroTrafficKeywords(in.Keywords)...)
		actions = append(actions, e.lowQualityKeywords(in.Keywords)...)
	}
	if runBids {
		actions = append(actions, e.lowCTRCampaigns(in.Campaigns)...)
		actions = append(actions, e.lowCTRKeywords(in.Keywords)...)
		actions = append(actions, e.highPerformerKeywords(in.Keywords)...)
		actions = append(actions, e.highCostLowConversions(in.Campaigns)...)
	}
	if runBudget {
		actions = append(actions, e.budgetUnderutilized(in.Campaigns)...)
		actions = append(actions, e.scaleWinners(in.Campaigns)...)
		actions = append(actions, e.underperformingCampaigns(in.Campaigns)...)
	}
	if runAds {
		actions = append(actions, e.highCPAAds(in.Ads)...)
	}
	if runKeywords || runTargeting {
		actions = append(actions, e.negativeKeywords(in.Campaigns)...)
	}

	return actions
}

// zeroTrafficKeywords recommends pausing keywords with significant
// impressions and no clicks at all.
func (e *Evaluator) zeroTrafficKeywords(keywords map[string]*EntityMetrics) []Action {
	var actions []Action
	for _, k := range SortedKeys(keywords) {
		m := keywords[k]
		if m.Impressions >= zeroTrafficMinImpressions && m.Clicks == 0 {
			actions = append(actions, Action{
				Type:        ActionPause,
				EntityType:  EntityKeyword,
				EntityID:    m.CriterionID,
				EntityName:  m.KeywordText,
				Reason:      "Keyword receives impressions but no clicks",
				Evidence:    fmt.Sprintf("%d impressions, %d clicks", m.Impressions, m.Clicks),
				Impact:      ImpactNegative,
				Executable:  false,
				CampaignID:  m.CampaignID,
				AdGroupID:   m.AdGroupID,
				CriterionID: m.CriterionID,
			})
		}
	}
	return actions
}

// lowQualityKeywords archives keywords with a poor quality score that keep
// spending clicks without converting.
func (e *Evaluator) lowQualityKeywords(keywords map[string]*EntityMetrics) []Action {
	var actions []Action
	for _, k := range SortedKeys(keywords) {
		m := keywords[k]
		if m.QualityScore == 0 || m.Clicks < lowQualityMinClicks {
			continue
		}
		poorCreative := m.CreativeQuality == "BELOW_AVERAGE"
		if m.QualityScore <= lowQualityMaxScore || (m.Conversions == 0 && poorCreative) {
			actions = append(actions, Action{
				Type:        ActionArchive,
				EntityType:  EntityKeyword,
				EntityID:    m.CriterionID,
				EntityName:  m.KeywordText,
				Reason:      "Low quality score with no conversion payoff",
				Evidence:    fmt.Sprintf("quality score %d, %d clicks, %.0f conversions", m.QualityScore, m.Clicks, m.Conversions),
				Impact:      ImpactNegative,
				Executable:  true,
				CampaignID:  m.CampaignID,
				AdGroupID:   m.AdGroupID,
				CriterionID: m.CriterionID,
			})
		}
	}
	return actions
}

// lowCTRCampaigns flags campaigns with decent volume but CTR below the pause
// threshold. Campaigns pause outright when pauseLowPerforming is enabled;
// otherwise the pause is surfaced as a recommendation.
func (e *Evaluator) lowCTRCampaigns(campaigns map[string]*EntityMetrics) []Action {
	var actions []Action
	for _, k := range SortedKeys(campaigns) {
		m := campaigns[k]
		if m.Impressions >= lowCTRMinImprCampaign && m.CTR < e.settings.PauseThreshold.CTR {
			actions = append(actions, Action{
				Type:       ActionPause,
				EntityType: EntityCampaign,
				EntityID:   m.CampaignID,
				EntityName: m.CampaignName,
				Reason:     fmt.Sprintf("CTR below %.2f%% threshold at meaningful volume", e.settings.PauseThreshold.CTR),
				Evidence:   fmt.Sprintf("%d impressions, CTR %.2f%%", m.Impressions, m.CTR),
				Impact:     ImpactNegative,
				Executable: e.settings.PauseLowPerforming,
				CampaignID: m.CampaignID,
			})
		}
	}
	return actions
}

// lowCTRKeywords handles the keyword-level variant: pause when the toggle is
// enabled, otherwise recommend a bid reduction.
func (e *Evaluator) lowCTRKeywords(keywords map[string]*EntityMetrics) []Action {
	var actions []Action
	for _, k := range SortedKeys(keywords) {
		m := keywords[k]
		if m.Impressions < lowCTRMinImprKeyword || m.CTR >= e.settings.PauseThreshold.CTR {
			continue
		}
		a := Action{
			EntityType:  EntityKeyword,
			EntityID:    m.CriterionID,
			EntityName:  m.KeywordText,
			Evidence:    fmt.Sprintf("%d impressions, CTR %.2f%%", m.Impressions, m.CTR),
			Impact:      ImpactNegative,
			CampaignID:  m.CampaignID,
			AdGroupID:   m.AdGroupID,
			CriterionID: m.CriterionID,
		}
		if e.settings.PauseLowPerforming {
			a.Type = ActionPause
			a.Reason = fmt.Sprintf("CTR below %.2f%% threshold, pausing low performers enabled", e.settings.PauseThreshold.CTR)
			a.Executable = true
		} else {
			a.Type = ActionBidDecrease
			a.Reason = fmt.Sprintf("CTR below %.2f%% threshold, reduce bid to limit spend", e.settings.PauseThreshold.CTR)
			a.BidChangePct = e.settings.MinCpcDecrease
			a.NewBid = m.AverageCPC * (1 - e.settings.MinCpcDecrease/100)
		}
		actions = append(actions, a)
	}
	return actions
}

// highPerformerKeywords recommends bid increases for keywords with strong CTR
// whose reach looks bid-limited.
func (e *Evaluator) highPerformerKeywords(keywords map[string]*EntityMetrics) []Action {
	var actions []Action
	for _, k := range SortedKeys(keywords) {
		m := keywords[k]
		if m.Impressions >= highPerfMinImpressions && m.CTR >= highPerfMinCTR && m.Clicks >= highPerfMinClicks {
			actions = append(actions, Action{
				Type:         ActionBidIncrease,
				EntityType:   EntityKeyword,
				EntityID:     m.CriterionID,
				EntityName:   m.KeywordText,
				Reason:       "Strong CTR with limited reach, bid up for more volume",
				Evidence:     fmt.Sprintf("%d impressions, CTR %.2f%%, %d clicks", m.Impressions, m.CTR, m.Clicks),
				Impact:       ImpactPositive,
				Executable:   false,
				CampaignID:   m.CampaignID,
				AdGroupID:    m.AdGroupID,
				CriterionID:  m.CriterionID,
				BidChangePct: e.settings.MaxCpcIncrease,
				NewBid:       m.AverageCPC * (1 + e.settings.MaxCpcIncrease/100),
			})
		}
	}
	return actions
}

// budgetUnderutilized switches campaigns that cannot spend their budget to a
// volume-maximizing bidding strategy.
func (e *Evaluator) budgetUnderutilized(campaigns map[string]*EntityMetrics) []Action {
	var actions []Action
	for _, k := range SortedKeys(campaigns) {
		m := campaigns[k]
		if m.Budget > 0 && m.BudgetUtilization < underutilizedMaxPct && m.Impressions > underutilizedMinImpr {
			actions = append(actions, Action{
				Type:       ActionBiddingStrategy,
				EntityType: EntityCampaign,
				EntityID:   m.CampaignID,
				EntityName: m.CampaignName,
				Reason:     "Budget underutilized, switch to maximize clicks for volume",
				Evidence:   fmt.Sprintf("budget utilization %.1f%%, %d impressions", m.BudgetUtilization, m.Impressions),
				Impact:     ImpactNeutral,
				Executable: true,
				CampaignID: m.CampaignID,
				Strategy:   "MAXIMIZE_CLICKS",
			})
		}
	}
	return actions
}

// highCostLowConversions moves expensive, non-converting campaigns onto
// target-CPA bidding at 10x the current CPC, floored at $20.
func (e *Evaluator) highCostLowConversions(campaigns map[string]*EntityMetrics) []Action {
	var actions []Action
	for _, k := range SortedKeys(campaigns) {
		m := campaigns[k]
		if m.AverageCPC > highCostMinCPC && m.Conversions < highCostMaxConversions && m.Clicks > highCostMinClicks {
			target := m.AverageCPC * targetCPAMultiplier
			if target < targetCPAFloor {
				target = targetCPAFloor
			}
			actions = append(actions, Action{
				Type:       ActionBiddingStrategy,
				EntityType: EntityCampaign,
				EntityID:   m.CampaignID,
				EntityName: m.CampaignName,
				Reason:     "High cost per click with almost no conversions, switch to target CPA",
				Evidence:   fmt.Sprintf("average CPC $%.2f, %.0f conversions, %d clicks", m.AverageCPC, m.Conversions, m.Clicks),
				Impact:     ImpactNeutral,
				Executable: true,
				CampaignID: m.CampaignID,
				Strategy:   "TARGET_CPA",
				TargetCPA:  target,
			})
		}
	}
	return actions
}

// scaleWinners raises the daily budget 20% on campaigns that convert well and
// are pressed against their budget.
func (e *Evaluator) scaleWinners(campaigns map[string]*EntityMetrics) []Action {
	var actions []Action
	for _, k := range SortedKeys(campaigns) {
		m := campaigns[k]
		if m.BudgetUtilization > scaleWinnerMinUtilPct && m.ConversionRate > scaleWinnerMinConvRate && m.Cost > scaleWinnerMinCost {
			actions = append(actions, Action{
				Type:       ActionBudgetIncrease,
				EntityType: EntityCampaign,
				EntityID:   m.CampaignID,
				EntityName: m.CampaignName,
				Reason:     "Winner constrained by budget, increase daily budget 20%",
				Evidence:   fmt.Sprintf("budget utilization %.1f%%, conversion rate %.2f%%, cost $%.2f", m.BudgetUtilization, m.ConversionRate, m.Cost),
				Impact:     ImpactPositive,
				Executable: true,
				CampaignID: m.CampaignID,
				BudgetID:   m.BudgetID,
				NewBudget:  m.Budget * budgetIncreaseFactor,
			})
		}
	}
	return actions
}

// highCPAAds pauses ads whose acquisitions cost more than the configured CPA
// pause threshold at real click volume.
func (e *Evaluator) highCPAAds(ads map[string]*EntityMetrics) []Action {
	var actions []Action
	for _, k := range SortedKeys(ads) {
		m := ads[k]
		if m.Conversions > 0 && m.Clicks >= highCPAAdMinClicks && m.Cost/m.Conversions > e.settings.PauseThreshold.CPA {
			actions = append(actions, Action{
				Type:       ActionPause,
				EntityType: EntityAd,
				EntityID:   m.AdID,
				EntityName: m.AdGroupName,
				Reason:     "Cost per acquisition too high for this ad",
				Evidence:   fmt.Sprintf("CPA $%.2f, %d clicks, %.0f conversions", m.Cost/m.Conversions, m.Clicks, m.Conversions),
				Impact:     ImpactNegative,
				Executable: true,
				CampaignID: m.CampaignID,
				AdGroupID:  m.AdGroupID,
			})
		}
	}
	return actions
}

// underperformingCampaigns attaches the "underperforming" label to campaigns
// converting at an unsustainable cost.
func (e *Evaluator) underperformingCampaigns(campaigns map[string]*EntityMetrics) []Action {
	var actions []Action
	for _, k := range SortedKeys(campaigns) {
		m := campaigns[k]
		if m.Conversions > 0 && m.Cost > underperformingMinCost && m.Cost/m.Conversions > underperformingMaxCPA {
			actions = append(actions, Action{
				Type:       ActionLabel,
				EntityType: EntityCampaign,
				EntityID:   m.CampaignID,
				EntityName: m.CampaignName,
				Reason:     "Campaign converts at unsustainable cost",
				Evidence:   fmt.Sprintf("cost $%.2f, CPA $%.2f", m.Cost, m.Cost/m.Conversions),
				Impact:     ImpactNeutral,
				Executable: true,
				CampaignID: m.CampaignID,
				Label:      underperformingLabel,
			})
		}
	}
	return actions
}

// negativeKeywords injects the caller-requested negative keywords as broad
// match criteria at campaign scope.
func (e *Evaluator) negativeKeywords(campaigns map[string]*EntityMetrics) []Action {
	if len(e.settings.AddNegativeKeywords) == 0 {
		return nil
	}
	var actions []Action
	for _, k := range SortedKeys(campaigns) {
		m := campaigns[k]
		for _, kw := range e.settings.AddNegativeKeywords {
			actions = append(actions, Action{
				Type:       ActionNegativeKeyword,
				EntityType: EntityCampaign,
				EntityID:   m.CampaignID,
				EntityName: m.CampaignName,
				Reason:     "Caller-requested negative keyword",
				Evidence:   fmt.Sprintf("negative keyword %q", kw),
				Impact:     ImpactNeutral,
				Executable: true,
				CampaignID: m.CampaignID,
				Keyword:    kw,
				MatchType:  "BROAD",
			})
		}
	}
	return actions
}

package optimizer

// OptimizationType selects which rule groups an invocation evaluates.
type OptimizationType string

const (
	OptimizeBids      OptimizationType = "BIDS"
	OptimizeKeywords  OptimizationType = "KEYWORDS"
	OptimizeAds       OptimizationType = "ADS"
	OptimizeTargeting OptimizationType = "TARGETING"
	OptimizeBudget    OptimizationType = "BUDGET"
	OptimizeAll       OptimizationType = "ALL"
)

// Valid reports whether t is one of the accepted optimization types.
func (t OptimizationType) Valid() bool {
	switch t {
	case OptimizeBids, OptimizeKeywords, OptimizeAds, OptimizeTargeting, OptimizeBudget, OptimizeAll:
		return true
	}
	return false
}

// EntityType is the level an action targets.
type EntityType string

const (
	EntityCampaign EntityType = "CAMPAIGN"
	EntityAdGroup  EntityType = "AD_GROUP"
	EntityKeyword  EntityType = "KEYWORD"
	EntityAd       EntityType = "AD"
)

// ActionType enumerates the mutation intents the rule evaluator can emit.
type ActionType string

const (
	ActionPause           ActionType = "PAUSE"
	ActionArchive         ActionType = "ARCHIVE"
	ActionBidIncrease     ActionType = "BID_INCREASE"
	ActionBidDecrease     ActionType = "BID_DECREASE"
	ActionBudgetIncrease  ActionType = "BUDGET_INCREASE"
	ActionLabel           ActionType = "LABEL"
	ActionBiddingStrategy ActionType = "BIDDING_STRATEGY"
	ActionNegativeKeyword ActionType = "NEGATIVE_KEYWORD"
)

// Impact classifies an action for reporting only; it never affects execution.
type Impact string

const (
	ImpactPositive Impact = "POSITIVE"
	ImpactNegative Impact = "NEGATIVE"
	ImpactNeutral  Impact = "NEUTRAL"
)

// MetricRow is one raw observation for a single entity on a single date,
// produced only by the query adapter. Monetary fields are in micros.
type MetricRow struct {
	CampaignID   string
	CampaignName string
	AdGroupID    string
	AdGroupName  string
	AdID         string
	KeywordText  string
	MatchType    string
	CriterionID  string
	Date         string

	Impressions     int64
	Clicks          int64
	CostMicros      int64
	Conversions     float64
	ConversionValue float64

	// Quality indicators; zero values mean "not present".
	QualityScore    int
	CreativeQuality string

	// Daily budget in micros, constant for the campaign.
	BudgetMicros int64
	BudgetID     string
}

// EntityMetrics is the per-entity summary for the whole requested window.
// Counters are summed across rows; every ratio below is recomputed from the
// summed counters after aggregation, never averaged across rows.
type EntityMetrics struct {
	CampaignID   string `json:"campaignId"`
	CampaignName string `json:"campaignName"`
	AdGroupID    string `json:"adGroupId,omitempty"`
	AdGroupName  string `json:"adGroupName,omitempty"`
	AdID         string `json:"adId,omitempty"`
	KeywordText  string `json:"keywordText,omitempty"`
	MatchType    string `json:"matchType,omitempty"`
	CriterionID  string `json:"criterionId,omitempty"`
	BudgetID     string `json:"budgetId,omitempty"`

	Impressions     int64   `json:"impressions"`
	Clicks          int64   `json:"clicks"`
	Cost            float64 `json:"cost"`
	Conversions     float64 `json:"conversions"`
	ConversionValue float64 `json:"conversionValue"`

	CTR            float64 `json:"ctr"`            // percent
	AverageCPC     float64 `json:"averageCpc"`     // currency units
	ConversionRate float64 `json:"conversionRate"` // percent
	CPA            float64 `json:"cpa"`
	ROAS           float64 `json:"roas"`

	Budget            float64 `json:"budget"`            // daily budget, currency units
	BudgetUtilization float64 `json:"budgetUtilization"` // percent of budget consumed over the window

	QualityScore    int    `json:"qualityScore,omitempty"`
	CreativeQuality string `json:"creativeQuality,omitempty"`
}

// Action is a decided mutation intent. Actions with Executable=false are
// surfaced to the caller as recommendations and never submitted.
type Action struct {
	Type       ActionType `json:"type"`
	EntityType EntityType `json:"entityType"`
	EntityID   string     `json:"entityId"`
	EntityName string     `json:"entityName"`
	Reason     string     `json:"reason"`
	Evidence   string     `json:"evidence"`
	Impact     Impact     `json:"impact"`
	Executable bool       `json:"-"`

	// Identifiers needed to resolve the external resource.
	CampaignID  string `json:"campaignId,omitempty"`
	AdGroupID   string `json:"adGroupId,omitempty"`
	CriterionID string `json:"criterionId,omitempty"`
	BudgetID    string `json:"budgetId,omitempty"`

	// Mutation parameters, populated per action type.
	BidChangePct float64 `json:"bidChangePct,omitempty"` // BID_INCREASE / BID_DECREASE, percent
	NewBid       float64 `json:"newBid,omitempty"`       // resulting bid, currency units
	NewBudget    float64 `json:"newBudget,omitempty"`    // BUDGET_INCREASE, currency units
	Strategy     string  `json:"strategy,omitempty"`     // BIDDING_STRATEGY
	TargetCPA    float64 `json:"targetCpa,omitempty"`    // BIDDING_STRATEGY with TARGET_CPA
	Label        string  `json:"label,omitempty"`        // LABEL, display name
	Keyword      string  `json:"keyword,omitempty"`      // NEGATIVE_KEYWORD
	MatchType    string  `json:"matchType,omitempty"`    // NEGATIVE_KEYWORD

	// LabelResource is the label's resource name, resolved from the account
	// before mutations are built. Empty when the label could not be resolved.
	LabelResource string `json:"labelResource,omitempty"`

	// Set by the execution controller after submission.
	Applied bool   `json:"applied"`
	Error   string `json:"error,omitempty"`
}

// Recommendation is an Action surfaced to the caller without being executed.
type Recommendation = Action

// PauseThreshold carries the per-metric cutoffs for the pause rules.
type PauseThreshold struct {
	CTR            float64 `json:"ctr,omitempty"`            // percent
	ConversionRate float64 `json:"conversionRate,omitempty"` // percent
	CPA            float64 `json:"cpa,omitempty"`            // currency units
}

// Settings are the caller-supplied overrides for the rule evaluator.
// Zero-valued fields fall back to the defaults in DefaultSettings.
type Settings struct {
	MaxCpcIncrease      float64         `json:"maxCpcIncrease,omitempty"` // percent
	MinCpcDecrease      float64         `json:"minCpcDecrease,omitempty"` // percent
	PauseLowPerforming  bool            `json:"pauseLowPerforming,omitempty"`
	PauseThreshold      *PauseThreshold `json:"pauseThreshold,omitempty"`
	AddNegativeKeywords []string        `json:"addNegativeKeywords,omitempty"`
}

// Request is the invocation envelope accepted by the execution controller.
type Request struct {
	CampaignID       string           `json:"campaignId,omitempty"`
	OptimizationType OptimizationType `json:"optimizationType"`
	Settings         *Settings        `json:"settings,omitempty"`
}

// Summary is the mechanical rollup attached to every successful report.
type Summary struct {
	TotalChanges        int    `json:"totalChanges"`
	ExpectedImprovement string `json:"expectedImprovement"`
	RiskLevel           string `json:"riskLevel"`
}

// Optimizations is the payload of a successful run.
type Optimizations struct {
	Applied         []Action         `json:"applied"`
	Recommendations []Recommendation `json:"recommendations"`
	Summary         Summary          `json:"summary"`

	// Diagnostic notes, e.g. when the query adapter degraded to an empty
	// row set. Informational only; the run still counts as successful.
	Notes []string `json:"notes,omitempty"`
}

// Response is the uniform envelope for both dry-run and apply outcomes.
type Response struct {
	Success       bool           `json:"success"`
	Optimizations *Optimizations `json:"optimizations,omitempty"`
	Error         string         `json:"error,omitempty"`
}

const (
	RiskLow    = "LOW"
	RiskMedium = "MEDIUM"
	RiskHigh   = "HIGH"
)

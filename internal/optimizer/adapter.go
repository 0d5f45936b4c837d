package optimizer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/ignite/adpilot/internal/gads"
)

// QueryService is the outbound query interface the adapter depends on.
// *gads.Client satisfies it.
type QueryService interface {
	Search(ctx context.Context, customerID, query string) ([]json.RawMessage, error)
}

// QueryScope selects the entity granularity of a metrics query.
type QueryScope string

const (
	ScopeCampaign QueryScope = "campaign"
	ScopeKeyword  QueryScope = "keyword"
	ScopeAd       QueryScope = "ad"
)

// DateRange is the inclusive historical window of a query, formatted
// YYYY-MM-DD.
type DateRange struct {
	From string
	To   string
}

// Adapter issues filtered, dated queries against the ads query service and
// normalizes the results into flat MetricRow lists. Query failures degrade:
// a failed primary query is retried once as a simplified structural query,
// and if that also fails the adapter returns an empty list plus a diagnostic
// note so the rest of the pipeline always receives a valid collection.
type Adapter struct {
	queries    QueryService
	customerID string
}

// NewAdapter creates a query adapter bound to one customer account.
func NewAdapter(q QueryService, customerID string) *Adapter {
	return &Adapter{queries: q, customerID: customerID}
}

// FetchRows returns the metric rows for the scope, window and optional
// campaign filter. The returned note is non-empty when the adapter degraded.
func (a *Adapter) FetchRows(ctx context.Context, scope QueryScope, campaignID string, window DateRange) ([]MetricRow, string) {
	query := buildQuery(scope, campaignID, window)

	raw, err := a.queries.Search(ctx, a.customerID, query)
	if err != nil {
		log.Printf("[QueryAdapter] %s query failed, retrying simplified: %v", scope, err)

		fallback := buildStructuralQuery(scope, campaignID)
		raw, err = a.queries.Search(ctx, a.customerID, fallback)
		if err != nil {
			log.Printf("[QueryAdapter] %s fallback query failed: %v", scope, err)
			return nil, fmt.Sprintf("%s query failed after fallback (%v); continuing with no rows", scope, err)
		}
	}

	rows := make([]MetricRow, 0, len(raw))
	for _, msg := range raw {
		var sr gads.SearchRow
		if err := json.Unmarshal(msg, &sr); err != nil {
			// Malformed row; drop it and keep aggregating.
			continue
		}
		rows = append(rows, toMetricRow(sr))
	}
	return rows, ""
}

// ResolveLabel looks up the resource name of an account label by its display
// name. Returns "" when no label with that name exists.
func (a *Adapter) ResolveLabel(ctx context.Context, name string) (string, error) {
	query := fmt.Sprintf("SELECT label.resource_name, label.id, label.name FROM label WHERE label.name = '%s'", name)

	raw, err := a.queries.Search(ctx, a.customerID, query)
	if err != nil {
		return "", err
	}
	for _, msg := range raw {
		var sr gads.SearchRow
		if err := json.Unmarshal(msg, &sr); err != nil {
			continue
		}
		if sr.Label.ResourceName != "" {
			return sr.Label.ResourceName, nil
		}
	}
	return "", nil
}

// buildQuery assembles the GAQL statement for a scope.
func buildQuery(scope QueryScope, campaignID string, window DateRange) string {
	var sb strings.Builder
	sb.WriteString("SELECT ")

	fields := []string{
		"campaign.id", "campaign.name", "campaign.status",
		"campaign_budget.id", "campaign_budget.amount_micros",
		"metrics.impressions", "metrics.clicks", "metrics.cost_micros",
		"metrics.conversions", "metrics.conversions_value",
		"segments.date",
	}
	from := "campaign"

	switch scope {
	case ScopeKeyword:
		fields = append(fields,
			"ad_group.id", "ad_group.name",
			"ad_group_criterion.criterion_id",
			"ad_group_criterion.keyword.text",
			"ad_group_criterion.keyword.match_type",
			"ad_group_criterion.quality_info.quality_score",
			"ad_group_criterion.quality_info.creative_quality_score",
		)
		from = "keyword_view"
	case ScopeAd:
		fields = append(fields,
			"ad_group.id", "ad_group.name",
			"ad_group_ad.ad.id",
		)
		from = "ad_group_ad"
	}

	sb.WriteString(strings.Join(fields, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(from)
	sb.WriteString(fmt.Sprintf(" WHERE segments.date BETWEEN '%s' AND '%s'", window.From, window.To))
	sb.WriteString(" AND campaign.status = 'ENABLED'")
	if campaignID != "" {
		sb.WriteString(fmt.Sprintf(" AND campaign.id = %s", campaignID))
	}
	return sb.String()
}

// buildStructuralQuery is the simplified fallback: structural fields only, no
// metrics or date clause.
func buildStructuralQuery(scope QueryScope, campaignID string) string {
	fields := []string{"campaign.id", "campaign.name", "campaign.status"}
	from := "campaign"

	switch scope {
	case ScopeKeyword:
		fields = append(fields,
			"ad_group.id",
			"ad_group_criterion.criterion_id",
			"ad_group_criterion.keyword.text",
			"ad_group_criterion.keyword.match_type",
		)
		from = "keyword_view"
	case ScopeAd:
		fields = append(fields, "ad_group.id", "ad_group_ad.ad.id")
		from = "ad_group_ad"
	}

	q := fmt.Sprintf("SELECT %s FROM %s WHERE campaign.status = 'ENABLED'", strings.Join(fields, ", "), from)
	if campaignID != "" {
		q += fmt.Sprintf(" AND campaign.id = %s", campaignID)
	}
	return q
}

// toMetricRow flattens a search row. The ads API encodes int64 metrics as
// strings; unparseable values become 0.
func toMetricRow(sr gads.SearchRow) MetricRow {
	return MetricRow{
		CampaignID:      sr.Campaign.ID,
		CampaignName:    sr.Campaign.Name,
		AdGroupID:       sr.AdGroup.ID,
		AdGroupName:     sr.AdGroup.Name,
		AdID:            sr.AdGroupAd.Ad.ID,
		KeywordText:     sr.AdGroupCriterion.Keyword.Text,
		MatchType:       sr.AdGroupCriterion.Keyword.MatchType,
		CriterionID:     sr.AdGroupCriterion.CriterionID,
		Date:            sr.Segments.Date,
		Impressions:     parseInt64(sr.Metrics.Impressions),
		Clicks:          parseInt64(sr.Metrics.Clicks),
		CostMicros:      parseInt64(sr.Metrics.CostMicros),
		Conversions:     sr.Metrics.Conversions,
		ConversionValue: sr.Metrics.ConversionsValue,
		QualityScore:    sr.AdGroupCriterion.QualityInfo.QualityScore,
		CreativeQuality: sr.AdGroupCriterion.QualityInfo.CreativeQualityScore,
		BudgetMicros:    parseInt64(sr.CampaignBudget.AmountMicros),
		BudgetID:        sr.CampaignBudget.ID,
	}
}

func parseInt64(s string) int64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

package optimizer

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueryService struct {
	queries   []string
	responses [][]json.RawMessage
	errs      []error
	calls     int
}

func (f *fakeQueryService) Search(_ context.Context, _ string, query string) ([]json.RawMessage, error) {
	f.queries = append(f.queries, query)
	i := f.calls
	f.calls++
	var rows []json.RawMessage
	var err error
	if i < len(f.responses) {
		rows = f.responses[i]
	}
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return rows, err
}

func rawRows(rows ...string) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(rows))
	for _, r := range rows {
		out = append(out, json.RawMessage(r))
	}
	return out
}

func TestFetchRows_FlattensSearchRows(t *testing.T) {
	svc := &fakeQueryService{
		responses: [][]json.RawMessage{rawRows(`{
			"campaign": {"id": "100", "name": "Brand", "status": "ENABLED"},
			"campaignBudget": {"id": "7", "amountMicros": "50000000"},
			"adGroup": {"id": "200", "name": "Core"},
			"adGroupCriterion": {
				"criterionId": "300",
				"keyword": {"text": "running shoes", "matchType": "EXACT"},
				"qualityInfo": {"qualityScore": 8, "creativeQualityScore": "ABOVE_AVERAGE"}
			},
			"metrics": {
				"impressions": "1200",
				"clicks": "48",
				"costMicros": "36000000",
				"conversions": 3.5,
				"conversionsValue": 210.0
			},
			"segments": {"date": "2026-08-01"}
		}`)},
	}

	a := NewAdapter(svc, "1234567890")
	rows, note := a.FetchRows(context.Background(), ScopeKeyword, "", DateRange{From: "2026-08-01", To: "2026-08-28"})

	require.Empty(t, note)
	require.Len(t, rows, 1)

	r := rows[0]
	assert.Equal(t, "100", r.CampaignID)
	assert.Equal(t, "Brand", r.CampaignName)
	assert.Equal(t, "200", r.AdGroupID)
	assert.Equal(t, "300", r.CriterionID)
	assert.Equal(t, "running shoes", r.KeywordText)
	assert.Equal(t, "EXACT", r.MatchType)
	assert.Equal(t, int64(1200), r.Impressions)
	assert.Equal(t, int64(48), r.Clicks)
	assert.Equal(t, int64(36000000), r.CostMicros)
	assert.Equal(t, 3.5, r.Conversions)
	assert.Equal(t, 8, r.QualityScore)
	assert.Equal(t, "ABOVE_AVERAGE", r.CreativeQuality)
	assert.Equal(t, int64(50000000), r.BudgetMicros)
	assert.Equal(t, "7", r.BudgetID)
	assert.Equal(t, "2026-08-01", r.Date)
}

func TestFetchRows_UnparseableMetricBecomesZero(t *testing.T) {
	svc := &fakeQueryService{
		responses: [][]json.RawMessage{rawRows(`{
			"campaign": {"id": "100"},
			"metrics": {"impressions": "not-a-number", "clicks": "5"}
		}`)},
	}

	a := NewAdapter(svc, "1234567890")
	rows, note := a.FetchRows(context.Background(), ScopeCampaign, "", DateRange{From: "2026-08-01", To: "2026-08-28"})

	require.Empty(t, note)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(0), rows[0].Impressions)
	assert.Equal(t, int64(5), rows[0].Clicks)
}

func TestFetchRows_MalformedRowDropped(t *testing.T) {
	svc := &fakeQueryService{
		responses: [][]json.RawMessage{rawRows(
			`{"campaign": {"id": "100"}}`,
			`"not an object"`,
			`{"campaign": {"id": "101"}}`,
		)},
	}

	a := NewAdapter(svc, "1234567890")
	rows, note := a.FetchRows(context.Background(), ScopeCampaign, "", DateRange{From: "2026-08-01", To: "2026-08-28"})

	require.Empty(t, note)
	require.Len(t, rows, 2)
	assert.Equal(t, "100", rows[0].CampaignID)
	assert.Equal(t, "101", rows[1].CampaignID)
}

func TestFetchRows_FallbackAfterPrimaryFailure(t *testing.T) {
	svc := &fakeQueryService{
		errs: []error{errors.New("UNRECOGNIZED_FIELD"), nil},
		responses: [][]json.RawMessage{nil, rawRows(
			`{"campaign": {"id": "100", "name": "Brand"}}`,
		)},
	}

	a := NewAdapter(svc, "1234567890")
	rows, note := a.FetchRows(context.Background(), ScopeCampaign, "55", DateRange{From: "2026-08-01", To: "2026-08-28"})

	require.Empty(t, note)
	require.Len(t, rows, 1)
	require.Len(t, svc.queries, 2)

	assert.Contains(t, svc.queries[0], "segments.date BETWEEN")
	assert.Contains(t, svc.queries[0], "campaign.id = 55")
	assert.NotContains(t, svc.queries[1], "segments.date")
	assert.NotContains(t, svc.queries[1], "metrics.")
	assert.Contains(t, svc.queries[1], "campaign.id = 55")
}

func TestFetchRows_DoubleFailureDegradesWithNote(t *testing.T) {
	svc := &fakeQueryService{
		errs: []error{errors.New("boom"), errors.New("still down")},
	}

	a := NewAdapter(svc, "1234567890")
	rows, note := a.FetchRows(context.Background(), ScopeKeyword, "", DateRange{From: "2026-08-01", To: "2026-08-28"})

	assert.Nil(t, rows)
	assert.Contains(t, note, "keyword query failed after fallback")
	assert.Contains(t, note, "still down")
	assert.Equal(t, 2, svc.calls)
}

func TestResolveLabel_ReturnsResourceName(t *testing.T) {
	svc := &fakeQueryService{
		responses: [][]json.RawMessage{rawRows(
			`{"label": {"resourceName": "customers/1234567890/labels/42", "id": "42", "name": "underperforming"}}`,
		)},
	}

	a := NewAdapter(svc, "1234567890")
	res, err := a.ResolveLabel(context.Background(), "underperforming")

	require.NoError(t, err)
	assert.Equal(t, "customers/1234567890/labels/42", res)
	require.Len(t, svc.queries, 1)
	assert.Contains(t, svc.queries[0], "FROM label")
	assert.Contains(t, svc.queries[0], "label.name = 'underperforming'")
}

func TestResolveLabel_MissingLabel(t *testing.T) {
	svc := &fakeQueryService{}

	a := NewAdapter(svc, "1234567890")
	res, err := a.ResolveLabel(context.Background(), "underperforming")

	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestResolveLabel_QueryError(t *testing.T) {
	svc := &fakeQueryService{errs: []error{errors.New("boom")}}

	a := NewAdapter(svc, "1234567890")
	res, err := a.ResolveLabel(context.Background(), "underperforming")

	require.Error(t, err)
	assert.Empty(t, res)
}

func TestBuildQuery_ScopeShapes(t *testing.T) {
	window := DateRange{From: "2026-08-01", To: "2026-08-28"}

	campaign := buildQuery(ScopeCampaign, "", window)
	assert.True(t, strings.Contains(campaign, "FROM campaign "))
	assert.Contains(t, campaign, "campaign_budget.amount_micros")
	assert.Contains(t, campaign, "campaign.status = 'ENABLED'")
	assert.NotContains(t, campaign, "ad_group_criterion")

	keyword := buildQuery(ScopeKeyword, "", window)
	assert.Contains(t, keyword, "FROM keyword_view")
	assert.Contains(t, keyword, "ad_group_criterion.quality_info.quality_score")
	assert.Contains(t, keyword, "ad_group_criterion.keyword.match_type")

	ad := buildQuery(ScopeAd, "", window)
	assert.Contains(t, ad, "FROM ad_group_ad")
	assert.Contains(t, ad, "ad_group_ad.ad.id")
}

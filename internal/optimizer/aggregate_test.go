package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate_RatiosRecomputedFromSums(t *testing.T) {
	// Two rows for the same campaign: CTRs of 1% and 3% individually. The
	// aggregate must be 8/300 = 2.666%, not the 2% average of the rows.
	rows := []MetricRow{
		{CampaignID: "1", CampaignName: "Brand", Impressions: 100, Clicks: 2, CostMicros: 50_000_000},
		{CampaignID: "1", CampaignName: "Brand", Impressions: 200, Clicks: 6, CostMicros: 70_000_000},
	}

	buckets := Aggregate(rows, CampaignKey)
	require.Len(t, buckets, 1)

	m := buckets["1"]
	assert.Equal(t, int64(300), m.Impressions)
	assert.Equal(t, int64(8), m.Clicks)
	assert.InDelta(t, 120.0, m.Cost, 0.001)
	assert.InDelta(t, 2.6666, m.CTR, 0.001)
	assert.InDelta(t, 15.0, m.AverageCPC, 0.001) // 120 / 8
}

func TestAggregate_ZeroDivisionYieldsZero(t *testing.T) {
	rows := []MetricRow{
		{CampaignID: "1", CampaignName: "Empty"},
	}

	m := Aggregate(rows, CampaignKey)["1"]
	require.NotNil(t, m)
	assert.Zero(t, m.CTR)
	assert.Zero(t, m.AverageCPC)
	assert.Zero(t, m.ConversionRate)
	assert.Zero(t, m.CPA)
	assert.Zero(t, m.ROAS)
	assert.Zero(t, m.BudgetUtilization)
	assert.False(t, m.CTR < 0)
}

func TestAggregate_SkipsRowsMissingRequiredIdentifier(t *testing.T) {
	rows := []MetricRow{
		{CampaignID: "1", AdGroupID: "10", KeywordText: "shoes", MatchType: "EXACT", Clicks: 5},
		{CampaignID: "1", AdGroupID: "10", Clicks: 100},    // no keyword text, dropped
		{CampaignID: "1", KeywordText: "socks", Clicks: 7}, // no ad group, dropped
	}

	buckets := Aggregate(rows, KeywordKey)
	require.Len(t, buckets, 1)
	assert.Equal(t, int64(5), buckets["1|10|shoes|EXACT"].Clicks)
}

func TestAggregate_SeparateKeywordBucketsByMatchType(t *testing.T) {
	rows := []MetricRow{
		{CampaignID: "1", AdGroupID: "10", KeywordText: "shoes", MatchType: "EXACT", Clicks: 5},
		{CampaignID: "1", AdGroupID: "10", KeywordText: "shoes", MatchType: "BROAD", Clicks: 3},
	}

	buckets := Aggregate(rows, KeywordKey)
	assert.Len(t, buckets, 2)
}

func TestAggregate_BudgetTakenOnceAndConverted(t *testing.T) {
	rows := []MetricRow{
		{CampaignID: "1", BudgetMicros: 50_000_000, BudgetID: "b1", CostMicros: 30_000_000},
		{CampaignID: "1", BudgetMicros: 50_000_000, BudgetID: "b1", CostMicros: 10_000_000},
	}

	m := Aggregate(rows, CampaignKey)["1"]
	assert.InDelta(t, 50.0, m.Budget, 0.001)
	assert.Equal(t, "b1", m.BudgetID)
	assert.InDelta(t, 80.0, m.BudgetUtilization, 0.001) // 40 of 50
}

func TestAggregate_AdGranularity(t *testing.T) {
	rows := []MetricRow{
		{CampaignID: "1", AdGroupID: "10", AdID: "100", Impressions: 1000, Clicks: 20},
		{CampaignID: "1", AdGroupID: "10", AdID: "100", Impressions: 500, Clicks: 10},
		{CampaignID: "1", AdGroupID: "10", AdID: "200", Impressions: 100, Clicks: 1},
		{CampaignID: "1", AdGroupID: "10"}, // no ad id, dropped
	}

	buckets := Aggregate(rows, AdKey)
	require.Len(t, buckets, 2)
	assert.Equal(t, int64(30), buckets["1|10|100"].Clicks)
	assert.InDelta(t, 2.0, buckets["1|10|100"].CTR, 0.001)
}

func TestAccountTotals(t *testing.T) {
	campaigns := map[string]*EntityMetrics{
		"1": {Impressions: 100, Clicks: 10, Cost: 50, Conversions: 2, Budget: 20},
		"2": {Impressions: 300, Clicks: 30, Cost: 150, Conversions: 4, Budget: 40},
	}

	totals := AccountTotals(campaigns)
	assert.Equal(t, int64(400), totals.Impressions)
	assert.Equal(t, int64(40), totals.Clicks)
	assert.InDelta(t, 200.0, totals.Cost, 0.001)
	assert.InDelta(t, 10.0, totals.CTR, 0.001)
	assert.InDelta(t, 5.0, totals.AverageCPC, 0.001)
}

func TestSortedKeys_Deterministic(t *testing.T) {
	buckets := map[string]*EntityMetrics{"b": {}, "a": {}, "c": {}}
	assert.Equal(t, []string{"a", "b", "c"}, SortedKeys(buckets))
}

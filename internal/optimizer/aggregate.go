package optimizer

import "sort"

// KeyFunc builds the aggregation key for a row at a particular granularity.
// It returns ok=false when the row is missing an identifier the granularity
// requires; such rows are skipped, not defaulted.
type KeyFunc func(r MetricRow) (key string, ok bool)

// CampaignKey aggregates at campaign granularity.
func CampaignKey(r MetricRow) (string, bool) {
	if r.CampaignID == "" {
		return "", false
	}
	return r.CampaignID, true
}

// KeywordKey aggregates at keyword granularity: campaign + ad group +
// keyword text + match type.
func KeywordKey(r MetricRow) (string, bool) {
	if r.CampaignID == "" || r.AdGroupID == "" || r.KeywordText == "" {
		return "", false
	}
	return r.CampaignID + "|" + r.AdGroupID + "|" + r.KeywordText + "|" + r.MatchType, true
}

// AdKey aggregates at ad granularity: campaign + ad group + ad id.
func AdKey(r MetricRow) (string, bool) {
	if r.CampaignID == "" || r.AdGroupID == "" || r.AdID == "" {
		return "", false
	}
	return r.CampaignID + "|" + r.AdGroupID + "|" + r.AdID, true
}

// Aggregate groups rows by the given key and reduces them into one
// EntityMetrics per distinct key. Raw counters accumulate by addition; once
// all rows are consumed every derived ratio is recomputed per bucket from the
// accumulated counters. Averaging per-row ratios would bias toward low-volume
// rows and is deliberately not done.
func Aggregate(rows []MetricRow, key KeyFunc) map[string]*EntityMetrics {
	buckets := make(map[string]*EntityMetrics)

	for _, r := range rows {
		k, ok := key(r)
		if !ok {
			continue
		}

		m, exists := buckets[k]
		if !exists {
			m = &EntityMetrics{
				CampaignID:   r.CampaignID,
				CampaignName: r.CampaignName,
				AdGroupID:    r.AdGroupID,
				AdGroupName:  r.AdGroupName,
				AdID:         r.AdID,
				KeywordText:  r.KeywordText,
				MatchType:    r.MatchType,
				CriterionID:  r.CriterionID,
			}
			buckets[k] = m
		}

		m.Impressions += r.Impressions
		m.Clicks += r.Clicks
		m.Cost += MicrosToCurrency(r.CostMicros)
		m.Conversions += r.Conversions
		m.ConversionValue += r.ConversionValue

		// Budget and quality indicators are constant for the entity;
		// take them from any row that carries them.
		if r.BudgetMicros > 0 && m.Budget == 0 {
			m.Budget = MicrosToCurrency(r.BudgetMicros)
			m.BudgetID = r.BudgetID
		}
		if r.QualityScore > 0 && m.QualityScore == 0 {
			m.QualityScore = r.QualityScore
		}
		if r.CreativeQuality != "" && m.CreativeQuality == "" {
			m.CreativeQuality = r.CreativeQuality
		}
	}

	for _, m := range buckets {
		finalize(m)
	}

	return buckets
}

// finalize recomputes the derived ratios from the summed counters.
func finalize(m *EntityMetrics) {
	m.CTR = SafePercent(float64(m.Clicks), float64(m.Impressions))
	m.AverageCPC = SafeRatio(m.Cost, float64(m.Clicks))
	m.ConversionRate = SafePercent(m.Conversions, float64(m.Clicks))
	m.CPA = SafeRatio(m.Cost, m.Conversions)
	m.ROAS = SafeRatio(m.ConversionValue, m.Cost)
	m.BudgetUtilization = SafePercent(m.Cost, m.Budget)
}

// AccountTotals sums raw counters across all campaign buckets and derives
// account-level ratios from the sums.
func AccountTotals(campaigns map[string]*EntityMetrics) EntityMetrics {
	var total EntityMetrics
	for _, m := range campaigns {
		total.Impressions += m.Impressions
		total.Clicks += m.Clicks
		total.Cost += m.Cost
		total.Conversions += m.Conversions
		total.ConversionValue += m.ConversionValue
		total.Budget += m.Budget
	}
	finalize(&total)
	return total
}

// SortedKeys returns the bucket keys in lexical order so that downstream
// evaluation is deterministic regardless of map iteration order.
func SortedKeys(buckets map[string]*EntityMetrics) []string {
	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

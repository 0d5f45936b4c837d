package optimizer

import (
	"fmt"

	"github.com/ignite/adpilot/internal/gads"
)

// BuildMutations translates executable actions into mutation operations. It
// returns the operations in input order plus, for each operation, the index
// of the action it came from, so per-operation outcomes can be attributed
// back after submission. Actions that cannot be resolved to a resource
// (missing identifiers) produce no operation.
func BuildMutations(customerID string, actions []Action) ([]gads.MutateOperation, []int) {
	ops := make([]gads.MutateOperation, 0, len(actions))
	origin := make([]int, 0, len(actions))

	for i, a := range actions {
		op, ok := buildMutation(customerID, a)
		if !ok {
			continue
		}
		ops = append(ops, op)
		origin = append(origin, i)
	}
	return ops, origin
}

func buildMutation(customerID string, a Action) (gads.MutateOperation, bool) {
	switch a.Type {
	case ActionPause:
		return buildPause(customerID, a)

	case ActionArchive:
		if a.AdGroupID == "" || a.CriterionID == "" {
			return gads.MutateOperation{}, false
		}
		return gads.MutateOperation{
			AdGroupCriterionOperation: &gads.AdGroupCriterionOperation{
				Remove: criterionResource(customerID, a.AdGroupID, a.CriterionID),
			},
		}, true

	case ActionBidIncrease, ActionBidDecrease:
		if a.AdGroupID == "" || a.CriterionID == "" || a.NewBid <= 0 {
			return gads.MutateOperation{}, false
		}
		return gads.MutateOperation{
			AdGroupCriterionOperation: &gads.AdGroupCriterionOperation{
				Update: &gads.AdGroupCriterionUpdate{
					ResourceName: criterionResource(customerID, a.AdGroupID, a.CriterionID),
					CpcBidMicros: CurrencyToMicros(a.NewBid),
				},
				UpdateMask: "cpc_bid_micros",
			},
		}, true

	case ActionBudgetIncrease:
		if a.BudgetID == "" || a.NewBudget <= 0 {
			return gads.MutateOperation{}, false
		}
		return gads.MutateOperation{
			CampaignBudgetOperation: &gads.CampaignBudgetOperation{
				Update: &gads.CampaignBudgetUpdate{
					ResourceName: fmt.Sprintf("customers/%s/campaignBudgets/%s", customerID, a.BudgetID),
					AmountMicros: CurrencyToMicros(a.NewBudget),
				},
				UpdateMask: "amount_micros",
			},
		}, true

	case ActionBiddingStrategy:
		return buildBiddingStrategy(customerID, a)

	case ActionLabel:
		if a.CampaignID == "" || a.LabelResource == "" {
			return gads.MutateOperation{}, false
		}
		return gads.MutateOperation{
			CampaignLabelOperation: &gads.CampaignLabelOperation{
				Create: &gads.CampaignLabelCreate{
					Campaign: campaignResource(customerID, a.CampaignID),
					Label:    a.LabelResource,
				},
			},
		}, true

	case ActionNegativeKeyword:
		if a.CampaignID == "" || a.Keyword == "" {
			return gads.MutateOperation{}, false
		}
		return gads.MutateOperation{
			CampaignCriterionOperation: &gads.CampaignCriterionOperation{
				Create: &gads.CampaignCriterionCreate{
					Campaign: campaignResource(customerID, a.CampaignID),
					Negative: true,
					Keyword: gads.KeywordInfo{
						Text:      a.Keyword,
						MatchType: a.MatchType,
					},
				},
			},
		}, true
	}

	return gads.MutateOperation{}, false
}

func buildPause(customerID string, a Action) (gads.MutateOperation, bool) {
	switch a.EntityType {
	case EntityCampaign:
		if a.CampaignID == "" {
			return gads.MutateOperation{}, false
		}
		return gads.MutateOperation{
			CampaignOperation: &gads.CampaignOperation{
				Update: &gads.CampaignUpdate{
					ResourceName: campaignResource(customerID, a.CampaignID),
					Status:       "PAUSED",
				},
				UpdateMask: "status",
			},
		}, true

	case EntityKeyword:
		if a.AdGroupID == "" || a.CriterionID == "" {
			return gads.MutateOperation{}, false
		}
		return gads.MutateOperation{
			AdGroupCriterionOperation: &gads.AdGroupCriterionOperation{
				Update: &gads.AdGroupCriterionUpdate{
					ResourceName: criterionResource(customerID, a.AdGroupID, a.CriterionID),
					Status:       "PAUSED",
				},
				UpdateMask: "status",
			},
		}, true

	case EntityAd:
		if a.AdGroupID == "" || a.EntityID == "" {
			return gads.MutateOperation{}, false
		}
		return gads.MutateOperation{
			AdGroupAdOperation: &gads.AdGroupAdOperation{
				Update: &gads.AdGroupAdUpdate{
					ResourceName: fmt.Sprintf("customers/%s/adGroupAds/%s~%s", customerID, a.AdGroupID, a.EntityID),
					Status:       "PAUSED",
				},
				UpdateMask: "status",
			},
		}, true
	}
	return gads.MutateOperation{}, false
}

func buildBiddingStrategy(customerID string, a Action) (gads.MutateOperation, bool) {
	if a.CampaignID == "" {
		return gads.MutateOperation{}, false
	}
	update := &gads.CampaignUpdate{
		ResourceName: campaignResource(customerID, a.CampaignID),
	}
	var mask string

	switch a.Strategy {
	case "MAXIMIZE_CLICKS":
		update.MaximizeClicks = &struct{}{}
		mask = "maximize_clicks"
	case "TARGET_CPA":
		if a.TargetCPA <= 0 {
			return gads.MutateOperation{}, false
		}
		update.TargetCpa = &gads.TargetCpaSpec{TargetCpaMicros: CurrencyToMicros(a.TargetCPA)}
		mask = "target_cpa.target_cpa_micros"
	default:
		return gads.MutateOperation{}, false
	}

	return gads.MutateOperation{
		CampaignOperation: &gads.CampaignOperation{
			Update:     update,
			UpdateMask: mask,
		},
	}, true
}

func campaignResource(customerID, campaignID string) string {
	return fmt.Sprintf("customers/%s/campaigns/%s", customerID, campaignID)
}

func criterionResource(customerID, adGroupID, criterionID string) string {
	return fmt.Sprintf("customers/%s/adGroupCriteria/%s~%s", customerID, adGroupID, criterionID)
}

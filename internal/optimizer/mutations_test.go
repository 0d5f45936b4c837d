package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCustomerID = "1234567890"

func TestBuildMutations_PauseVariants(t *testing.T) {
	actions := []Action{
		{Type: ActionPause, EntityType: EntityCampaign, CampaignID: "100"},
		{Type: ActionPause, EntityType: EntityKeyword, AdGroupID: "200", CriterionID: "300"},
		{Type: ActionPause, EntityType: EntityAd, EntityID: "999", AdGroupID: "200"},
	}

	ops, origin := BuildMutations(testCustomerID, actions)
	require.Len(t, ops, 3)
	assert.Equal(t, []int{0, 1, 2}, origin)

	require.NotNil(t, ops[0].CampaignOperation)
	assert.Equal(t, "customers/1234567890/campaigns/100", ops[0].CampaignOperation.Update.ResourceName)
	assert.Equal(t, "PAUSED", ops[0].CampaignOperation.Update.Status)
	assert.Equal(t, "status", ops[0].CampaignOperation.UpdateMask)

	require.NotNil(t, ops[1].AdGroupCriterionOperation)
	assert.Equal(t, "customers/1234567890/adGroupCriteria/200~300", ops[1].AdGroupCriterionOperation.Update.ResourceName)
	assert.Equal(t, "PAUSED", ops[1].AdGroupCriterionOperation.Update.Status)

	require.NotNil(t, ops[2].AdGroupAdOperation)
	assert.Equal(t, "customers/1234567890/adGroupAds/200~999", ops[2].AdGroupAdOperation.Update.ResourceName)
}

func TestBuildMutations_ArchiveRemovesCriterion(t *testing.T) {
	ops, _ := BuildMutations(testCustomerID, []Action{
		{Type: ActionArchive, EntityType: EntityKeyword, AdGroupID: "200", CriterionID: "300"},
	})

	require.Len(t, ops, 1)
	require.NotNil(t, ops[0].AdGroupCriterionOperation)
	assert.Equal(t, "customers/1234567890/adGroupCriteria/200~300", ops[0].AdGroupCriterionOperation.Remove)
	assert.Nil(t, ops[0].AdGroupCriterionOperation.Update)
}

func TestBuildMutations_BidChangeSetsMicros(t *testing.T) {
	ops, _ := BuildMutations(testCustomerID, []Action{
		{Type: ActionBidIncrease, EntityType: EntityKeyword, AdGroupID: "200", CriterionID: "300", NewBid: 2.4},
		{Type: ActionBidDecrease, EntityType: EntityKeyword, AdGroupID: "200", CriterionID: "301", NewBid: 0.9},
	})

	require.Len(t, ops, 2)
	assert.Equal(t, int64(2400000), ops[0].AdGroupCriterionOperation.Update.CpcBidMicros)
	assert.Equal(t, "cpc_bid_micros", ops[0].AdGroupCriterionOperation.UpdateMask)
	assert.Equal(t, int64(900000), ops[1].AdGroupCriterionOperation.Update.CpcBidMicros)
}

func TestBuildMutations_BudgetIncrease(t *testing.T) {
	ops, _ := BuildMutations(testCustomerID, []Action{
		{Type: ActionBudgetIncrease, EntityType: EntityCampaign, CampaignID: "100", BudgetID: "7", NewBudget: 60},
	})

	require.Len(t, ops, 1)
	require.NotNil(t, ops[0].CampaignBudgetOperation)
	assert.Equal(t, "customers/1234567890/campaignBudgets/7", ops[0].CampaignBudgetOperation.Update.ResourceName)
	assert.Equal(t, int64(60000000), ops[0].CampaignBudgetOperation.Update.AmountMicros)
	assert.Equal(t, "amount_micros", ops[0].CampaignBudgetOperation.UpdateMask)
}

func TestBuildMutations_BiddingStrategies(t *testing.T) {
	ops, _ := BuildMutations(testCustomerID, []Action{
		{Type: ActionBiddingStrategy, EntityType: EntityCampaign, CampaignID: "100", Strategy: "MAXIMIZE_CLICKS"},
		{Type: ActionBiddingStrategy, EntityType: EntityCampaign, CampaignID: "101", Strategy: "TARGET_CPA", TargetCPA: 30},
	})

	require.Len(t, ops, 2)
	require.NotNil(t, ops[0].CampaignOperation.Update.MaximizeClicks)
	assert.Equal(t, "maximize_clicks", ops[0].CampaignOperation.UpdateMask)

	require.NotNil(t, ops[1].CampaignOperation.Update.TargetCpa)
	assert.Equal(t, int64(30000000), ops[1].CampaignOperation.Update.TargetCpa.TargetCpaMicros)
	assert.Equal(t, "target_cpa.target_cpa_micros", ops[1].CampaignOperation.UpdateMask)
}

func TestBuildMutations_LabelAndNegativeKeyword(t *testing.T) {
	ops, _ := BuildMutations(testCustomerID, []Action{
		{Type: ActionLabel, EntityType: EntityCampaign, CampaignID: "100", Label: "underperforming", LabelResource: "customers/1234567890/labels/42"},
		{Type: ActionNegativeKeyword, EntityType: EntityCampaign, CampaignID: "100", Keyword: "free", MatchType: "BROAD"},
	})

	require.Len(t, ops, 2)
	require.NotNil(t, ops[0].CampaignLabelOperation)
	assert.Equal(t, "customers/1234567890/campaigns/100", ops[0].CampaignLabelOperation.Create.Campaign)
	assert.Equal(t, "customers/1234567890/labels/42", ops[0].CampaignLabelOperation.Create.Label)

	require.NotNil(t, ops[1].CampaignCriterionOperation)
	create := ops[1].CampaignCriterionOperation.Create
	assert.True(t, create.Negative)
	assert.Equal(t, "free", create.Keyword.Text)
	assert.Equal(t, "BROAD", create.Keyword.MatchType)
}

func TestBuildMutations_UnresolvableActionsSkipped(t *testing.T) {
	actions := []Action{
		{Type: ActionPause, EntityType: EntityCampaign, CampaignID: "100"},
		{Type: ActionPause, EntityType: EntityKeyword, AdGroupID: "", CriterionID: "300"},                     // missing ad group
		{Type: ActionBidIncrease, EntityType: EntityKeyword, AdGroupID: "200", CriterionID: "301", NewBid: 0}, // no bid
		{Type: ActionBiddingStrategy, EntityType: EntityCampaign, CampaignID: "102", Strategy: "UNKNOWN"},
		{Type: ActionLabel, EntityType: EntityCampaign, CampaignID: "104", Label: "underperforming"}, // never resolved
		{Type: ActionNegativeKeyword, EntityType: EntityCampaign, CampaignID: "103", Keyword: "spam", MatchType: "BROAD"},
	}

	ops, origin := BuildMutations(testCustomerID, actions)
	require.Len(t, ops, 2)
	assert.Equal(t, []int{0, 5}, origin)
	assert.NotNil(t, ops[0].CampaignOperation)
	assert.NotNil(t, ops[1].CampaignCriterionOperation)
}

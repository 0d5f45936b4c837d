package gads

import (
	"encoding/json"
	"fmt"
)

// SearchResponse is the page envelope returned by googleAds:search.
type SearchResponse struct {
	Results       []json.RawMessage `json:"results"`
	NextPageToken string            `json:"nextPageToken,omitempty"`
}

// SearchRow is a GAQL result row. Only the attributes selected by the query
// are populated; everything else is left at its zero value.
type SearchRow struct {
	Campaign         Campaign         `json:"campaign"`
	CampaignBudget   CampaignBudget   `json:"campaignBudget"`
	AdGroup          AdGroup          `json:"adGroup"`
	AdGroupCriterion AdGroupCriterion `json:"adGroupCriterion"`
	AdGroupAd        AdGroupAd        `json:"adGroupAd"`
	Label            Label            `json:"label"`
	Metrics          Metrics          `json:"metrics"`
	Segments         Segments         `json:"segments"`
}

// Label represents an account label attribute set.
type Label struct {
	ResourceName string `json:"resourceName"`
	ID           string `json:"id"`
	Name         string `json:"name"`
}

// Campaign represents a campaign attribute set.
type Campaign struct {
	ResourceName        string `json:"resourceName"`
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Status              string `json:"status"`
	BiddingStrategyType string `json:"biddingStrategyType"`
	CampaignBudget      string `json:"campaignBudget"` // resource name string
}

// CampaignBudget represents a campaign budget attribute set.
type CampaignBudget struct {
	ResourceName string `json:"resourceName"`
	ID           string `json:"id"`
	AmountMicros string `json:"amountMicros"`
}

// AdGroup represents an ad group attribute set.
type AdGroup struct {
	ResourceName string `json:"resourceName"`
	ID           string `json:"id"`
	Name         string `json:"name"`
	Status       string `json:"status"`
	CpcBidMicros string `json:"cpcBidMicros"`
}

// AdGroupCriterion represents a keyword criterion.
type AdGroupCriterion struct {
	ResourceName string `json:"resourceName"`
	CriterionID  string `json:"criterionId"`
	Status       string `json:"status"`
	Negative     bool   `json:"negative"`
	Keyword      struct {
		Text      string `json:"text"`
		MatchType string `json:"matchType"`
	} `json:"keyword"`
	QualityInfo struct {
		QualityScore         int    `json:"qualityScore"`
		CreativeQualityScore string `json:"creativeQualityScore"`
	} `json:"qualityInfo"`
	CpcBidMicros string `json:"cpcBidMicros"`
}

// AdGroupAd represents an ad within an ad group.
type AdGroupAd struct {
	ResourceName string `json:"resourceName"`
	Status       string `json:"status"`
	Ad           struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"ad"`
}

// Metrics holds performance metrics returned by GAQL.
// Integer fields are returned as strings by the Google Ads API.
type Metrics struct {
	Impressions      string  `json:"impressions"`
	Clicks           string  `json:"clicks"`
	CostMicros       string  `json:"costMicros"`
	Conversions      float64 `json:"conversions"`
	ConversionsValue float64 `json:"conversionsValue"`
}

// Segments holds segmentation attributes (one row per date when selected).
type Segments struct {
	Date string `json:"date"`
}

// MutateOperation is a single create/update/remove instruction targeting one
// resource. Exactly one of the operation fields is set.
type MutateOperation struct {
	CampaignOperation          *CampaignOperation          `json:"campaignOperation,omitempty"`
	CampaignBudgetOperation    *CampaignBudgetOperation    `json:"campaignBudgetOperation,omitempty"`
	CampaignCriterionOperation *CampaignCriterionOperation `json:"campaignCriterionOperation,omitempty"`
	CampaignLabelOperation     *CampaignLabelOperation     `json:"campaignLabelOperation,omitempty"`
	AdGroupCriterionOperation  *AdGroupCriterionOperation  `json:"adGroupCriterionOperation,omitempty"`
	AdGroupAdOperation         *AdGroupAdOperation         `json:"adGroupAdOperation,omitempty"`
}

// CampaignOperation updates campaign attributes (status, bidding strategy).
type CampaignOperation struct {
	Update     *CampaignUpdate `json:"update,omitempty"`
	UpdateMask string          `json:"updateMask,omitempty"`
}

// CampaignUpdate is the sparse campaign update payload.
type CampaignUpdate struct {
	ResourceName   string         `json:"resourceName"`
	Status         string         `json:"status,omitempty"`
	MaximizeClicks *struct{}      `json:"maximizeClicks,omitempty"`
	TargetCpa      *TargetCpaSpec `json:"targetCpa,omitempty"`
}

// TargetCpaSpec configures target-CPA bidding.
type TargetCpaSpec struct {
	TargetCpaMicros int64 `json:"targetCpaMicros,string"`
}

// CampaignBudgetOperation updates a campaign budget.
type CampaignBudgetOperation struct {
	Update     *CampaignBudgetUpdate `json:"update,omitempty"`
	UpdateMask string                `json:"updateMask,omitempty"`
}

// CampaignBudgetUpdate is the sparse budget update payload.
type CampaignBudgetUpdate struct {
	ResourceName string `json:"resourceName"`
	AmountMicros int64  `json:"amountMicros,string"`
}

// CampaignCriterionOperation creates campaign-scope criteria (negative
// keywords).
type CampaignCriterionOperation struct {
	Create *CampaignCriterionCreate `json:"create,omitempty"`
}

// CampaignCriterionCreate is the negative-keyword create payload.
type CampaignCriterionCreate struct {
	Campaign string      `json:"campaign"`
	Negative bool        `json:"negative"`
	Keyword  KeywordInfo `json:"keyword"`
}

// KeywordInfo describes a keyword criterion.
type KeywordInfo struct {
	Text      string `json:"text"`
	MatchType string `json:"matchType"`
}

// CampaignLabelOperation attaches a label to a campaign.
type CampaignLabelOperation struct {
	Create *CampaignLabelCreate `json:"create,omitempty"`
}

// CampaignLabelCreate is the label-attach payload.
type CampaignLabelCreate struct {
	Campaign string `json:"campaign"`
	Label    string `json:"label"`
}

// AdGroupCriterionOperation updates or removes a keyword criterion.
type AdGroupCriterionOperation struct {
	Update     *AdGroupCriterionUpdate `json:"update,omitempty"`
	Remove     string                  `json:"remove,omitempty"`
	UpdateMask string                  `json:"updateMask,omitempty"`
}

// AdGroupCriterionUpdate is the sparse criterion update payload.
type AdGroupCriterionUpdate struct {
	ResourceName string `json:"resourceName"`
	Status       string `json:"status,omitempty"`
	CpcBidMicros int64  `json:"cpcBidMicros,string,omitempty"`
}

// AdGroupAdOperation updates an ad (status changes only).
type AdGroupAdOperation struct {
	Update     *AdGroupAdUpdate `json:"update,omitempty"`
	UpdateMask string           `json:"updateMask,omitempty"`
}

// AdGroupAdUpdate is the sparse ad update payload.
type AdGroupAdUpdate struct {
	ResourceName string `json:"resourceName"`
	Status       string `json:"status,omitempty"`
}

// MutateRequest is the googleAds:mutate request body.
type MutateRequest struct {
	MutateOperations []MutateOperation `json:"mutateOperations"`
	PartialFailure   bool              `json:"partialFailure,omitempty"`
	ValidateOnly     bool              `json:"validateOnly,omitempty"`
}

// MutateResponse is the googleAds:mutate response body.
type MutateResponse struct {
	MutateOperationResponses []MutateOperationResponse `json:"mutateOperationResponses"`
	PartialFailureError      *Status                   `json:"partialFailureError,omitempty"`
}

// MutateOperationResponse carries the resource name of one applied operation.
type MutateOperationResponse struct {
	CampaignResult          *ResourceResult `json:"campaignResult,omitempty"`
	CampaignBudgetResult    *ResourceResult `json:"campaignBudgetResult,omitempty"`
	CampaignCriterionResult *ResourceResult `json:"campaignCriterionResult,omitempty"`
	CampaignLabelResult     *ResourceResult `json:"campaignLabelResult,omitempty"`
	AdGroupCriterionResult  *ResourceResult `json:"adGroupCriterionResult,omitempty"`
	AdGroupAdResult         *ResourceResult `json:"adGroupAdResult,omitempty"`
}

// ResourceResult is the per-operation resource name envelope.
type ResourceResult struct {
	ResourceName string `json:"resourceName"`
}

// Status is the google.rpc.Status error payload.
type Status struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Details []json.RawMessage `json:"details,omitempty"`
}

// MutateResult is the normalized outcome of a mutate call: resource names in
// operation order plus, when the API reported partial failures, the error
// message per failed operation index.
type MutateResult struct {
	ResourceNames []string
	OpErrors      map[int]string
}

// Failed reports whether the operation at index i failed.
func (r *MutateResult) Failed(i int) (string, bool) {
	msg, ok := r.OpErrors[i]
	return msg, ok
}

// APIError is a non-2xx response from the Google Ads API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("google ads API error (status %d): %s", e.StatusCode, e.Body)
}

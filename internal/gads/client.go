package gads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/ignite/adpilot/internal/pkg/httpretry"
)

const (
	defaultBaseURL    = "https://googleads.googleapis.com"
	defaultAPIVersion = "v17"

	// Hard cap on search pagination so a bad pageToken loop can never
	// run away.
	maxSearchPages = 20
)

// Config holds the credentials and knobs for the Google Ads API client.
type Config struct {
	BaseURL         string
	APIVersion      string
	DeveloperToken  string
	ClientID        string
	ClientSecret    string
	RefreshToken    string
	LoginCustomerID string
	Timeout         time.Duration
	MaxRetries      int

	// PartialFailure advertises whether mutate batches are submitted with
	// partial-failure reporting. When false, a batch is all-or-nothing.
	PartialFailure bool
}

// Client is the Google Ads API client. It serves both the query service
// (googleAds:search) and the mutation service (googleAds:mutate). Construct
// it once at process start and inject it; it is safe for concurrent use.
type Client struct {
	baseURL         string
	apiVersion      string
	developerToken  string
	loginCustomerID string
	partialFailure  bool
	httpClient      httpretry.HTTPDoer
}

// NewClient creates a Google Ads API client using the OAuth2 refresh-token
// flow. The token source caches and refreshes access tokens internally.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = defaultAPIVersion
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.google.com/o/oauth2/auth",
			TokenURL: "https://oauth2.googleapis.com/token",
		},
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{
		Timeout: cfg.Timeout,
	})
	authClient := oauth2.NewClient(ctx, oauthCfg.TokenSource(ctx, &oauth2.Token{
		RefreshToken: cfg.RefreshToken,
	}))
	authClient.Timeout = cfg.Timeout

	return &Client{
		baseURL:         cfg.BaseURL,
		apiVersion:      cfg.APIVersion,
		developerToken:  cfg.DeveloperToken,
		loginCustomerID: cfg.LoginCustomerID,
		partialFailure:  cfg.PartialFailure,
		httpClient:      httpretry.NewRetryClient(authClient, cfg.MaxRetries),
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing).
func (c *Client) SetHTTPClient(client httpretry.HTTPDoer) {
	c.httpClient = client
}

// SupportsPartialFailure reports whether mutate batches carry per-operation
// outcomes. Callers must treat batches as all-or-nothing when this is false.
func (c *Client) SupportsPartialFailure() bool {
	return c.partialFailure
}

// doRequest performs an authenticated request to the Google Ads API.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body interface{}) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	reqURL := fmt.Sprintf("%s/%s/%s", c.baseURL, c.apiVersion, endpoint)

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("developer-token", c.developerToken)
	if c.loginCustomerID != "" {
		req.Header.Set("login-customer-id", c.loginCustomerID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, nil
}

// Search runs a GAQL query against the given customer account and returns the
// raw result rows across all pages.
func (c *Client) Search(ctx context.Context, customerID, query string) ([]json.RawMessage, error) {
	var all []json.RawMessage
	pageToken := ""

	for page := 0; page < maxSearchPages; page++ {
		request := map[string]string{"query": query}
		if pageToken != "" {
			request["pageToken"] = pageToken
		}

		respBody, err := c.doRequest(ctx, http.MethodPost,
			fmt.Sprintf("customers/%s/googleAds:search", customerID), request)
		if err != nil {
			return nil, err
		}

		results, next, err := normalizeSearchPayload(respBody)
		if err != nil {
			return nil, err
		}
		all = append(all, results...)

		if next == "" {
			break
		}
		pageToken = next
	}

	return all, nil
}

// normalizeSearchPayload flattens the result payload shapes the API has been
// observed to return: the standard {results, nextPageToken} envelope, a bare
// array of rows, and the streaming shape (an array of page envelopes).
func normalizeSearchPayload(data []byte) (results []json.RawMessage, nextPageToken string, err error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, "", nil
	}

	if trimmed[0] == '{' {
		var page SearchResponse
		if err := json.Unmarshal(trimmed, &page); err != nil {
			return nil, "", fmt.Errorf("failed to parse search response: %w", err)
		}
		return page.Results, page.NextPageToken, nil
	}

	// Array payload: either bare rows or a stream of page envelopes.
	var chunks []json.RawMessage
	if err := json.Unmarshal(trimmed, &chunks); err != nil {
		return nil, "", fmt.Errorf("failed to parse search response: %w", err)
	}
	for _, chunk := range chunks {
		inner := bytes.TrimSpace(chunk)
		if len(inner) > 0 && inner[0] == '{' {
			var page SearchResponse
			if err := json.Unmarshal(inner, &page); err == nil && page.Results != nil {
				results = append(results, page.Results...)
				continue
			}
		}
		results = append(results, chunk)
	}
	return results, "", nil
}

// Mutate submits a batch of operations for the given customer account.
// With validateOnly set the API checks the batch without applying it.
// When partial failure is enabled, per-operation errors are decoded into
// MutateResult.OpErrors; otherwise any failure is returned as an error for
// the whole batch.
func (c *Client) Mutate(ctx context.Context, customerID string, ops []MutateOperation, validateOnly bool) (*MutateResult, error) {
	if len(ops) == 0 {
		return &MutateResult{}, nil
	}

	request := MutateRequest{
		MutateOperations: ops,
		PartialFailure:   c.partialFailure,
		ValidateOnly:     validateOnly,
	}

	respBody, err := c.doRequest(ctx, http.MethodPost,
		fmt.Sprintf("customers/%s/googleAds:mutate", customerID), request)
	if err != nil {
		return nil, err
	}

	var response MutateResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return nil, fmt.Errorf("failed to parse mutate response: %w", err)
	}

	result := &MutateResult{
		ResourceNames: make([]string, 0, len(response.MutateOperationResponses)),
	}
	for _, op := range response.MutateOperationResponses {
		result.ResourceNames = append(result.ResourceNames, op.resourceName())
	}

	if response.PartialFailureError != nil {
		result.OpErrors = parsePartialFailure(response.PartialFailureError)
		if len(result.OpErrors) == 0 {
			// Failure reported but unattributable; treat as batch-wide.
			return nil, fmt.Errorf("mutate partial failure: %s", response.PartialFailureError.Message)
		}
	}

	return result, nil
}

func (r MutateOperationResponse) resourceName() string {
	for _, res := range []*ResourceResult{
		r.CampaignResult, r.CampaignBudgetResult, r.CampaignCriterionResult,
		r.CampaignLabelResult, r.AdGroupCriterionResult, r.AdGroupAdResult,
	} {
		if res != nil {
			return res.ResourceName
		}
	}
	return ""
}

// googleAdsFailure is the detail payload inside a partial failure status.
type googleAdsFailure struct {
	Errors []struct {
		Message  string `json:"message"`
		Location struct {
			FieldPathElements []struct {
				FieldName string `json:"fieldName"`
				Index     int    `json:"index"`
			} `json:"fieldPathElements"`
		} `json:"location"`
	} `json:"errors"`
}

// parsePartialFailure extracts per-operation error messages keyed by the
// failing operation's index in the submitted batch.
func parsePartialFailure(status *Status) map[int]string {
	opErrors := make(map[int]string)
	for _, detail := range status.Details {
		var failure googleAdsFailure
		if err := json.Unmarshal(detail, &failure); err != nil {
			continue
		}
		for _, e := range failure.Errors {
			for _, fp := range e.Location.FieldPathElements {
				if fp.FieldName == "mutate_operations" || fp.FieldName == "mutateOperations" {
					opErrors[fp.Index] = e.Message
				}
			}
		}
	}
	return opErrors
}

// Package salesforce implements the SourceClient and AuthClient ports against
// the Salesforce REST API.
package salesforce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/ksuzuki/salesync/internal/domain/model"
	"github.com/ksuzuki/salesync/internal/domain/port/driven"
)

// apiVersion is the Salesforce REST API version all data calls are pinned to.
const apiVersion = "v59.0"

// Compile-time interface satisfaction checks.
var (
	_ driven.SourceClient        = (*Client)(nil)
	_ driven.SourceClientFactory = (*Factory)(nil)
)

// Factory builds per-connection clients over a shared HTTP transport stack:
//  1. httpcache (ETag-based conditional request caching, helps the repeated
//     per-run describe calls)
//  2. net/http client with a 30-second timeout as a safety net alongside
//     context cancellation
type Factory struct {
	httpClient *http.Client
}

// NewFactory creates a Factory with the production transport stack.
func NewFactory() *Factory {
	return &Factory{
		httpClient: &http.Client{
			Transport: httpcache.NewMemoryCacheTransport(),
			Timeout:   30 * time.Second,
		},
	}
}

// NewFactoryWithHTTPClient creates a Factory over a custom http.Client.
// Intended for testing against an httptest server.
func NewFactoryWithHTTPClient(httpClient *http.Client) *Factory {
	return &Factory{httpClient: httpClient}
}

// ClientFor returns a SourceClient bound to the connection's instance and token.
func (f *Factory) ClientFor(conn model.Connection) driven.SourceClient {
	return &Client{
		httpClient:  f.httpClient,
		instanceURL: strings.TrimRight(conn.InstanceURL, "/"),
		accessToken: conn.AccessToken,
	}
}

// Client is a read-only Salesforce REST client for a single account.
type Client struct {
	httpClient  *http.Client
	instanceURL string
	accessToken string
}

// describeResponse is the subset of the sobject describe payload we consume.
type describeResponse struct {
	Fields []struct {
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"fields"`
}

// queryResponse is one page of a SOQL query result.
type queryResponse struct {
	TotalSize      int               `json:"totalSize"`
	Done           bool              `json:"done"`
	NextRecordsURL string            `json:"nextRecordsUrl"`
	Records        []model.RawRecord `json:"records"`
}

// apiError is one element of the error payload Salesforce returns on non-2xx.
type apiError struct {
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode"`
}

// Describe returns the object type's field schema, fetched fresh on every call.
func (c *Client) Describe(ctx context.Context, objectName string) ([]model.FieldDescriptor, error) {
	endpoint := fmt.Sprintf("%s/services/data/%s/sobjects/%s/describe", c.instanceURL, apiVersion, url.PathEscape(objectName))

	var resp describeResponse
	if err := c.getJSON(ctx, endpoint, objectName, &resp); err != nil {
		return nil, err
	}

	fields := make([]model.FieldDescriptor, 0, len(resp.Fields))
	for _, f := range resp.Fields {
		fields = append(fields, model.FieldDescriptor{Name: f.Name, SourceType: f.Type})
	}

	return fields, nil
}

// Query returns every non-deleted record modified inside the window, following
// nextRecordsUrl until the source reports the result set complete. Any page
// failure fails the whole call; partial result sets are never returned.
func (c *Client) Query(ctx context.Context, objectName string, fields []string, window model.FetchWindow) ([]model.RawRecord, error) {
	soql := BuildQuery(objectName, fields, window)
	endpoint := fmt.Sprintf("%s/services/data/%s/query?q=%s", c.instanceURL, apiVersion, url.QueryEscape(soql))

	var all []model.RawRecord
	for {
		var page queryResponse
		if err := c.getJSON(ctx, endpoint, objectName, &page); err != nil {
			return nil, err
		}

		all = append(all, page.Records...)

		if page.Done || page.NextRecordsURL == "" {
			break
		}
		endpoint = c.instanceURL + page.NextRecordsURL
	}

	if all == nil {
		all = []model.RawRecord{}
	}

	return all, nil
}

// getJSON performs one authenticated GET and decodes the JSON response,
// mapping HTTP failures onto the sync error taxonomy: 404 means the object
// type is unknown to the account, everything else (including expired or
// invalid tokens, which surface as 401) is a source availability failure.
func (c *Client) getJSON(ctx context.Context, endpoint, objectName string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return model.NewSyncError(model.ErrKindSourceUnavailable, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.NewSyncError(model.ErrKindSourceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return model.NewSyncError(model.ErrKindObjectNotFound,
			fmt.Errorf("object %q: %s", objectName, readAPIError(resp.Body)))
	case resp.StatusCode != http.StatusOK:
		return model.NewSyncError(model.ErrKindSourceUnavailable,
			fmt.Errorf("status %d: %s", resp.StatusCode, readAPIError(resp.Body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return model.NewSyncError(model.ErrKindSourceUnavailable, fmt.Errorf("decode response: %w", err))
	}

	return nil
}

// readAPIError extracts the first message from a Salesforce error payload,
// falling back to the raw body when it doesn't parse.
func readAPIError(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(raw) == 0 {
		return "no error detail"
	}

	var errs []apiError
	if err := json.Unmarshal(raw, &errs); err == nil && len(errs) > 0 {
		return fmt.Sprintf("%s (%s)", errs[0].Message, errs[0].ErrorCode)
	}

	return string(raw)
}

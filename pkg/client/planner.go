package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"asiops/internal/planner"
	"asiops/pkg/model"
)

// PlannerClient talks to a running planner service.
type PlannerClient struct {
	httpClient *HttpClient
}

func NewPlannerClient(baseURL string) *PlannerClient {
	return &PlannerClient{
		httpClient: NewHttpClient(baseURL),
	}
}

// Snapshot returns the raw YAML snapshot for the given range.
func (c *PlannerClient) Snapshot(ctx context.Context, mode, anchor string) ([]byte, error) {
	resp, err := c.httpClient.GET(ctx, "/api/v1/planner/snapshot?"+rangeQuery(mode, anchor))
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("snapshot request failed: %s", GetErrorMessage(resp))
	}
	return resp.Body, nil
}

// EOT runs a server-side scan, which stamps first sight, and returns the
// candidates.
func (c *PlannerClient) EOT(ctx context.Context) ([]planner.EOTCandidate, error) {
	resp, err := c.httpClient.GET(ctx, "/api/v1/planner/eot")
	if err != nil {
		return nil, err
	}
	var candidates []planner.EOTCandidate
	if err := decodeData(resp, &candidates); err != nil {
		return nil, err
	}
	return candidates, nil
}

func (c *PlannerClient) DecideEOT(ctx context.Context, bookingID string, decision model.EOTDecision) (*model.Booking, error) {
	resp, err := c.httpClient.POST(ctx, "/api/v1/bookings/id/"+url.PathEscape(bookingID)+"/eot", decision)
	if err != nil {
		return nil, err
	}
	var booking model.Booking
	if err := decodeData(resp, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func rangeQuery(mode, anchor string) string {
	q := url.Values{}
	if mode != "" {
		q.Set("mode", mode)
	}
	if anchor != "" {
		q.Set("anchor", anchor)
	}
	return q.Encode()
}

func decodeData(resp *Response, target any) error {
	if !resp.OK() {
		return fmt.Errorf("request failed: %s", GetErrorMessage(resp))
	}

	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := resp.DecodeJSON(&wrapper); err != nil {
		return fmt.Errorf("could not decode response wrapper: %w", err)
	}
	if err := json.Unmarshal(wrapper.Data, target); err != nil {
		return fmt.Errorf("could not decode response data: %w", err)
	}
	return nil
}

package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/upb/model-orchestrator/services"
	"github.com/upb/model-orchestrator/services/catalog"
)

// HTTPClient calls providers over their HTTP endpoints. Each profile carries
// its own base URL; the request and response bodies use a small unified JSON
// envelope so heterogeneous backends plug in behind the same shape.
type HTTPClient struct {
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTPClient. The http.Client carries no timeout
// of its own; per-attempt deadlines come from the dispatch context.
func NewHTTPClient() *HTTPClient {
	return &HTTPClient{
		httpClient: &http.Client{},
	}
}

type invokeRequest struct {
	Task      string            `json:"task"`
	AssetKind string            `json:"asset_kind"`
	Payload   []byte            `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

type invokeResponse struct {
	Data            []byte   `json:"data"`
	ConfidenceScore *float64 `json:"confidence_score,omitempty"`
}

type invokeErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

// Call executes one attempt against the profile's endpoint
func (c *HTTPClient) Call(ctx context.Context, profile *catalog.ProviderProfile, inv *Invocation) (*ProviderResponse, error) {
	if profile.Endpoint == "" {
		return nil, services.WrapProvider(
			fmt.Sprintf("provider %s has no endpoint configured", profile.Name), nil)
	}

	reqBody, err := json.Marshal(invokeRequest{
		Task:      string(inv.Task),
		AssetKind: string(inv.AssetKind),
		Payload:   inv.Payload,
		Metadata:  inv.Metadata,
	})
	if err != nil {
		return nil, services.WrapInternal("failed to marshal provider request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, profile.Endpoint+"/invoke", bytes.NewReader(reqBody))
	if err != nil {
		return nil, services.WrapInternal("failed to create provider request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, services.WrapError(services.ErrorTypeProvider,
				fmt.Sprintf("provider %s attempt timed out after %v", profile.Name, time.Since(start)), ctx.Err())
		}
		return nil, services.WrapProvider(
			fmt.Sprintf("provider %s request failed", profile.Name), err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, services.WrapProvider(
			fmt.Sprintf("provider %s response read failed", profile.Name), err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, c.handleErrorResponse(profile, httpResp.StatusCode, respBody)
	}

	var parsed invokeResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, services.WrapProvider(
			fmt.Sprintf("provider %s returned malformed response", profile.Name), err)
	}

	confidence := profile.AccuracyScore
	if parsed.ConfidenceScore != nil {
		confidence = *parsed.ConfidenceScore
	}

	return &ProviderResponse{
		Data:            parsed.Data,
		ConfidenceScore: confidence,
	}, nil
}

func (c *HTTPClient) handleErrorResponse(profile *catalog.ProviderProfile, statusCode int, body []byte) error {
	var errResp invokeErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
		return services.WrapProvider(
			fmt.Sprintf("provider %s returned status %d", profile.Name, statusCode), nil)
	}
	return services.WrapProvider(
		fmt.Sprintf("provider %s: %s", profile.Name, errResp.Error.Message), nil)
}

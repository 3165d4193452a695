package dispatch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upb/model-orchestrator/services"
	"github.com/upb/model-orchestrator/services/catalog"
)

func endpointProfile(endpoint string) *catalog.ProviderProfile {
	return &catalog.ProviderProfile{
		Name:                "remote",
		Tier:                catalog.TierPrimary,
		CostPerUnit:         0.001,
		AvgLatencyMs:        100,
		AccuracyScore:       0.88,
		Availability:        0.99,
		SupportedTasks:      []catalog.TaskKind{catalog.TaskCaptioning},
		SupportedAssetKinds: []catalog.AssetKind{catalog.AssetImage},
		Endpoint:            endpoint,
	}
}

func TestHTTPClient_Call(t *testing.T) {
	confidence := 0.93
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/invoke", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req invokeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "captioning", req.Task)
		assert.Equal(t, "image", req.AssetKind)
		assert.Equal(t, []byte("image bytes"), req.Payload)

		_ = json.NewEncoder(w).Encode(invokeResponse{
			Data:            []byte("a red bicycle"),
			ConfidenceScore: &confidence,
		})
	}))
	defer srv.Close()

	client := NewHTTPClient()
	resp, err := client.Call(context.Background(), endpointProfile(srv.URL), &Invocation{
		Task:      catalog.TaskCaptioning,
		AssetKind: catalog.AssetImage,
		Payload:   []byte("image bytes"),
	})

	require.NoError(t, err)
	assert.Equal(t, []byte("a red bicycle"), resp.Data)
	assert.InDelta(t, 0.93, resp.ConfidenceScore, 1e-9)
}

func TestHTTPClient_Call_ConfidenceFallsBackToProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(invokeResponse{Data: []byte("tags")})
	}))
	defer srv.Close()

	client := NewHTTPClient()
	resp, err := client.Call(context.Background(), endpointProfile(srv.URL), &Invocation{
		Task: catalog.TaskCaptioning, AssetKind: catalog.AssetImage, Payload: []byte("x"),
	})

	require.NoError(t, err)
	assert.InDelta(t, 0.88, resp.ConfidenceScore, 1e-9)
}

func TestHTTPClient_Call_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","code":"capacity"}}`))
	}))
	defer srv.Close()

	client := NewHTTPClient()
	_, err := client.Call(context.Background(), endpointProfile(srv.URL), &Invocation{
		Task: catalog.TaskCaptioning, AssetKind: catalog.AssetImage, Payload: []byte("x"),
	})

	require.Error(t, err)
	assert.True(t, services.IsProviderError(err))
	assert.Contains(t, err.Error(), "overloaded")
}

func TestHTTPClient_Call_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	client := NewHTTPClient()
	_, err := client.Call(context.Background(), endpointProfile(srv.URL), &Invocation{
		Task: catalog.TaskCaptioning, AssetKind: catalog.AssetImage, Payload: []byte("x"),
	})

	require.Error(t, err)
	assert.True(t, services.IsProviderError(err))
}

func TestHTTPClient_Call_NoEndpoint(t *testing.T) {
	client := NewHTTPClient()
	_, err := client.Call(context.Background(), endpointProfile(""), &Invocation{
		Task: catalog.TaskCaptioning, AssetKind: catalog.AssetImage, Payload: []byte("x"),
	})

	require.Error(t, err)
	assert.True(t, services.IsProviderError(err))
}

func TestHTTPClient_Call_ContextTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The server only observes the client disconnect (and cancels the
		// request context) once the request body has been consumed.
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	client := NewHTTPClient()
	_, err := client.Call(ctx, endpointProfile(srv.URL), &Invocation{
		Task: catalog.TaskCaptioning, AssetKind: catalog.AssetImage, Payload: []byte("x"),
	})

	require.Error(t, err)
	assert.True(t, services.IsProviderError(err))
	assert.Contains(t, err.Error(), "timed out")
}

package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datalens-ai/datalens/pkg/channels/gochannel"
	"github.com/datalens-ai/datalens/pkg/config"
	"github.com/datalens-ai/datalens/pkg/eventbus"
	"github.com/datalens-ai/datalens/pkg/protocol"
	"github.com/datalens-ai/datalens/pkg/registry"
	"github.com/datalens-ai/datalens/pkg/routing"
	"github.com/datalens-ai/datalens/pkg/store"
	"github.com/datalens-ai/datalens/pkg/testutil"
	"github.com/datalens-ai/datalens/pkg/web"
	"github.com/datalens-ai/datalens/pkg/workflow"
)

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)

	reg := registry.NewRegistry(slog.Default())
	reg.RegisterDefaultNodes()

	deps := protocol.Dependencies{
		DocumentStore: &testutil.FakeDocumentStore{Documents: testutil.Corpus(10)},
		Reranker:      &testutil.FakeReranker{},
		QueryEngine:   &testutil.FakeQueryEngine{},
		Generator:     &testutil.FakeGenerator{Fragments: testutil.WordStream("A short answer.")},
		Routing:       routing.NewHybridRouter(config.Default().Routing),
	}

	engine, err := workflow.NewEngine(slog.Default(), store.NewMemoryStore(), bus, reg, deps, config.Default())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = engine.Close(t.Context())
		_ = bus.Close()
	})

	return NewAPI(slog.Default(), engine).App()
}

func TestAPI_RootEndpoint(t *testing.T) {
	app := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "DataLens API", string(body))
}

func TestAPI_Liveness(t *testing.T) {
	app := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "OK", string(body))
}

func TestAPI_SubmitQueryRoute(t *testing.T) {
	app := setupTestApp(t)

	payload, err := json.Marshal(web.SubmitQueryRequest{
		Query: "what is our return policy",
		DataSources: web.DataSourcesRequest{
			HasDocuments: true,
		},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/queries", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	var accepted web.SubmitQueryResponse

	err = json.NewDecoder(resp.Body).Decode(&accepted)
	require.NoError(t, err)
	assert.NotEmpty(t, accepted.ExecutionID)
}

func TestAPI_ListExecutions_Empty(t *testing.T) {
	app := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/executions", nil)
	req.Header.Set("Accept", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var listing web.ListExecutionsResponse

	err = json.NewDecoder(resp.Body).Decode(&listing)
	require.NoError(t, err)
	assert.Empty(t, listing.Executions)
	assert.Zero(t, listing.TotalCount)
}

func TestAPI_GetExecution_NotFound(t *testing.T) {
	app := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/executions/exec-missing", nil)
	req.Header.Set("Accept", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_CORS_Headers(t *testing.T) {
	app := setupTestApp(t)

	req := httptest.NewRequest(http.MethodOptions, "/executions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

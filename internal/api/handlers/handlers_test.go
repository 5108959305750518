package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/agentx/charsoup/internal/arbitration"
	"github.com/agentx/charsoup/internal/detector"
	"github.com/agentx/charsoup/internal/langindex"
	"github.com/agentx/charsoup/internal/model"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func testDeps(t *testing.T) *Deps {
	t.Helper()
	const numBuckets, numClasses = 64, 2
	weights := make([]int8, numBuckets*numClasses)
	for b := 0; b < numBuckets; b++ {
		weights[b*numClasses+0] = 5
	}
	m, err := model.New(numBuckets, numClasses, []string{"eng", "deu"}, []float32{1, 1}, []float32{0, 0}, weights, model.LoadOptions{})
	require.NoError(t, err)

	catalog, err := langindex.NewCatalog(m.Labels())
	require.NoError(t, err)
	t.Cleanup(func() { _ = catalog.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return &Deps{
		Model:          m,
		Catalog:        catalog,
		DetectorConfig: detector.DefaultConfig(),
		ArbitrationCfg: arbitration.DefaultConfig(),
		Logger:         logger,
	}
}

func TestDetectReturnsRankedResults(t *testing.T) {
	app := fiber.New()
	deps := testDeps(t)
	app.Post("/v1/detect", Detect(deps))

	payload, err := json.Marshal(detectRequest{Text: "hello world this is a test sentence"})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/v1/detect", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out detectResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.Results)
}

func TestDetectRejectsMalformedBody(t *testing.T) {
	app := fiber.New()
	deps := testDeps(t)
	app.Post("/v1/detect", Detect(deps))

	req := httptest.NewRequest("POST", "/v1/detect", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestArbitrateReturnsDecisionID(t *testing.T) {
	app := fiber.New()
	deps := testDeps(t)
	app.Post("/v1/arbitrate", Arbitrate(deps))

	payload, err := json.Marshal(arbitrateRequest{
		Candidates: map[string]string{"a": "hello there", "b": "hello there"},
		Default:    "a",
	})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/v1/arbitrate", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out arbitrateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Equal(t, "unanimous", out.Outcome)
	require.NotEmpty(t, out.DecisionID)
}

func TestLanguagesListsAllWithoutQuery(t *testing.T) {
	app := fiber.New()
	deps := testDeps(t)
	app.Get("/v1/languages", Languages(deps))

	req := httptest.NewRequest("GET", "/v1/languages", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out languagesResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.ElementsMatch(t, []string{"eng", "deu"}, out.Languages)
}

func TestLanguagesFiltersByQuery(t *testing.T) {
	app := fiber.New()
	deps := testDeps(t)
	app.Get("/v1/languages", Languages(deps))

	req := httptest.NewRequest("GET", "/v1/languages?q=eng", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out languagesResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Contains(t, out.Languages, "eng")
}

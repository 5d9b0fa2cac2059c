package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"recipe-importer/internal/api/handlers/health"
	"recipe-importer/internal/core/ai/queue"
	"recipe-importer/internal/core/catalog"
	"recipe-importer/internal/core/recipe"
	"recipe-importer/internal/infrastructure/config"
	"recipe-importer/internal/pkg/common"
	"recipe-importer/internal/store/memory"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEstimator struct {
	calls atomic.Int32
	err   error
}

func (s *stubEstimator) Estimate(ctx context.Context, name, summary string) (*recipe.NutritionResult, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return &recipe.NutritionResult{Calories: 210, ProteinGrams: 5, FatGrams: 2, CarbohydrateGrams: 40}, nil
}

type testServer struct {
	router    *gin.Engine
	store     *memory.Store
	estimator *stubEstimator
	queue     *queue.Manager
}

func testConfig() *config.Config {
	return &config.Config{
		App:         config.AppConfig{Version: "test"},
		Server:      config.ServerConfig{MaxBodyBytes: 1 << 20},
		Import:      config.ImportConfig{CommitTimeout: time.Second, MaxRows: 3},
		DedupWindow: time.Minute,
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	est := &stubEstimator{}
	q := queue.NewManager(config.EnrichmentConfig{
		Workers:         1,
		QueueSize:       10,
		EstimateTimeout: time.Second,
		UpdateTimeout:   time.Second,
	}, est, store)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = q.Close(ctx)
	})

	opts := recipe.ImporterOptions{DuplicatePolicy: catalog.DuplicateLastWins, CommitTimeout: cfg.Import.CommitTimeout}
	router := SetupRouter(cfg, Dependencies{
		Importer:  recipe.NewImporter(store, store, q, opts),
		Recipes:   recipe.NewRecipeService(store, store, q, opts),
		Catalog:   catalog.NewService(store, catalog.DuplicateLastWins),
		Estimator: est,
		Queue:     q,
		ReadyChecks: map[string]health.Check{
			"store": func(ctx context.Context) error { return nil },
		},
	})
	return &testServer{router: router, store: store, estimator: est, queue: q}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) seedCatalog(t *testing.T) {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/ingredients/batch", gin.H{"ingredients": []gin.H{
		{"name": "Tomato", "unit": "g", "costPerUnit": 0.005},
		{"name": "Onion", "unit": "unit", "costPerUnit": 0.3},
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res catalog.BatchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.True(t, res.Success)
	require.Equal(t, 2, res.Count)
}

func decodeImport(t *testing.T, w *httptest.ResponseRecorder) recipe.ImportResult {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res recipe.ImportResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func TestImportRecipesEndToEnd(t *testing.T) {
	s := newTestServer(t, testConfig())
	s.seedCatalog(t)

	w := s.do(t, http.MethodPost, "/api/v1/recipes/import", gin.H{"recipes": []gin.H{
		{"name": "Tomato Soup", "prepTime": 20, "instructions": "Boil everything for 20 minutes.", "ingredientsString": "Tomato:500:g;Onion:1:unit", "dietaryTags": "vegan, quick"},
		{"name": "Salad", "instructions": "short", "ingredientsString": "Lettuce:1:head"},
	}})
	res := decodeImport(t, w)

	assert.True(t, res.Success)
	assert.Equal(t, 1, res.ImportedCount)
	assert.Equal(t, 1, res.ErrorCount)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 1, res.Errors[0].RowIndex)
	assert.Equal(t, "Salad", res.Errors[0].RecipeName)
	assert.Equal(t, []string{
		"instructions are required and must be at least 10 characters",
		"Ingredient 'Lettuce' not found in catalog",
	}, res.Errors[0].Errors)

	assert.Eventually(t, func() bool { return s.queue.Status().Succeeded == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), s.estimator.calls.Load())
}

func TestImportRecipesTooManyRows(t *testing.T) {
	s := newTestServer(t, testConfig())
	rows := make([]gin.H, 4)
	for i := range rows {
		rows[i] = gin.H{"name": "Row"}
	}

	w := s.do(t, http.MethodPost, "/api/v1/recipes/import", gin.H{"recipes": rows})
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	var resp common.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, common.ErrCodeTooLarge, resp.Code)
}

func TestImportRecipesMalformedBody(t *testing.T) {
	s := newTestServer(t, testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/recipes/import", bytes.NewBufferString(`{"recipes": [`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportRecipesCSV(t *testing.T) {
	s := newTestServer(t, testConfig())
	s.seedCatalog(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "recipes.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("Name,Instructions,IngredientsString,PrepTime\n" +
		"Tomato Soup,Boil everything for 20 minutes.,Tomato:500:g;Onion:1:unit,20\n" +
		",,,\n" +
		",Too short,,abc\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/recipes/import/csv", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	res := decodeImport(t, w)
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.ImportedCount)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 1, res.Errors[0].RowIndex)
	assert.Equal(t, "Row 4", res.Errors[0].RecipeName)
}

func TestImportRecipesCSVRequiresFile(t *testing.T) {
	s := newTestServer(t, testConfig())
	w := s.do(t, http.MethodPost, "/api/v1/recipes/import/csv", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateAndGetRecipe(t *testing.T) {
	s := newTestServer(t, testConfig())
	s.seedCatalog(t)

	w := s.do(t, http.MethodGet, "/api/v1/ingredients", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Ingredients []catalog.Entry `json:"ingredients"`
		Count       int             `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Equal(t, 2, list.Count)
	tomatoID := list.Ingredients[0].ID

	w = s.do(t, http.MethodPost, "/api/v1/recipes", gin.H{
		"name":         "Roast Tomatoes",
		"instructions": "Roast at 200C for 30 minutes.",
		"ingredients":  []gin.H{{"ingredientId": tomatoID, "quantity": 400, "unit": "g"}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created recipe.CreateResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.InDelta(t, 2.0, created.Cost, 1e-9)

	assert.Eventually(t, func() bool {
		w := s.do(t, http.MethodGet, "/api/v1/recipes/"+created.RecipeID, nil)
		if w.Code != http.StatusOK {
			return false
		}
		var rec recipe.Record
		return json.Unmarshal(w.Body.Bytes(), &rec) == nil && rec.NutritionalInfo != nil
	}, time.Second, 10*time.Millisecond)
}

func TestCreateRecipeValidationFailure(t *testing.T) {
	s := newTestServer(t, testConfig())
	w := s.do(t, http.MethodPost, "/api/v1/recipes", gin.H{"name": "ab"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp common.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, common.ErrCodeValidation, resp.Code)
	assert.Contains(t, resp.Details, "name is required and must be at least 3 characters")
}

func TestGetUnknownRecipe(t *testing.T) {
	s := newTestServer(t, testConfig())
	w := s.do(t, http.MethodGet, "/api/v1/recipes/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNutritionEstimate(t *testing.T) {
	s := newTestServer(t, testConfig())

	w := s.do(t, http.MethodPost, "/api/v1/nutrition/estimate", gin.H{
		"recipeName":        "Tomato Soup",
		"ingredientSummary": "500g Tomato; 1unit Onion",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res recipe.NutritionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.InDelta(t, 210.0, res.Calories, 1e-9)

	w = s.do(t, http.MethodPost, "/api/v1/nutrition/estimate", gin.H{"recipeName": "Tomato Soup"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDuplicatePostRejected(t *testing.T) {
	s := newTestServer(t, testConfig())
	body := gin.H{"recipes": []gin.H{}}

	first := s.do(t, http.MethodPost, "/api/v1/recipes/import", body)
	assert.Equal(t, http.StatusOK, first.Code)

	second := s.do(t, http.MethodPost, "/api/v1/recipes/import", body)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestBodySizeLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Server.MaxBodyBytes = 16
	s := newTestServer(t, cfg)

	w := s.do(t, http.MethodPost, "/api/v1/recipes/import", gin.H{"recipes": []gin.H{{"name": "Tomato Soup"}}})
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, testConfig())

	w := s.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp health.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "test", resp.Version)
	require.NotNil(t, resp.Queue)
	assert.Equal(t, 1, resp.Queue.Workers)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/ready", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/live", nil).Code)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.queue.Close(ctx))
	assert.Equal(t, http.StatusServiceUnavailable, s.do(t, http.MethodGet, "/ready", nil).Code)
}

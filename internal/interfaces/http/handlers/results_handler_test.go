package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantio/plotproof/internal/application/session"
	"github.com/verdantio/plotproof/internal/infrastructure/monitoring/logging"
)

type stubCanceler struct{ called bool }

func (s *stubCanceler) CancelInFlight() { s.called = true }

func resultsRouter(store session.Store, canceler Canceler) *gin.Engine {
	h := NewResultsHandler(store, canceler, nil, logging.NewNopLogger())
	r := gin.New()
	r.GET("/api/analysis-results", h.Get)
	r.DELETE("/api/analysis-results", h.Delete)
	return r
}

func TestResultsGetReturnsSavedPlots(t *testing.T) {
	store := newMemoryStore()
	token, _, err := seedSession(store)
	require.NoError(t, err)

	r := resultsRouter(store, nil)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/api/analysis-results?token="+string(token)+"&intent=map-return", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Count int `json:"count"`
		Plots []struct {
			PlotID  string `json:"plotId"`
			GFWLoss *bool  `json:"gfwLoss"`
		} `json:"plots"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	require.Len(t, resp.Plots, 2)
	assert.Equal(t, "P1", resp.Plots[0].PlotID)
	require.NotNil(t, resp.Plots[0].GFWLoss)
	assert.False(t, *resp.Plots[0].GFWLoss)
}

func TestResultsGetRequiresIntent(t *testing.T) {
	store := newMemoryStore()
	token, _, err := seedSession(store)
	require.NoError(t, err)

	r := resultsRouter(store, nil)
	for _, intent := range []string{"", "curiosity"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet,
			"/api/analysis-results?token="+string(token)+"&intent="+intent, nil)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, "intent %q", intent)
	}
}

func TestResultsGetUnknownToken(t *testing.T) {
	r := resultsRouter(newMemoryStore(), nil)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/api/analysis-results?token=nope&intent=map-return", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResultsDeleteClearsSessionAndCancelsInFlight(t *testing.T) {
	store := newMemoryStore()
	token, _, err := seedSession(store)
	require.NoError(t, err)

	canceler := &stubCanceler{}
	r := resultsRouter(store, canceler)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete,
		"/api/analysis-results?token="+string(token), nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, canceler.called, "clearing must abort in-flight classification")

	_, err = store.Restore(context.Background(), token, session.IntentMapReturn)
	assert.Error(t, err, "cleared session must not be restorable")
}

func TestResultsDeleteRequiresToken(t *testing.T) {
	r := resultsRouter(newMemoryStore(), nil)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/analysis-results", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

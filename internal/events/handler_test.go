package events

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*gin.Engine, *Repo) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	repo := newTestRepo(t)
	r := gin.New()
	NewHandler(repo).RegisterRoutes(r.Group("/api/events"))
	return r, repo
}

type listResponse struct {
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
	Items  []json.RawMessage `json:"items"`
}

func getList(t *testing.T, r *gin.Engine, path string) listResponse {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var out listResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHandler_ListReportsEffectivePage(t *testing.T) {
	r, repo := newTestRouter(t)
	ctx := context.Background()
	for i := 0; i < 30; i++ {
		_, _, err := repo.Upsert(ctx, candidate(i, "Johannesburg", "Music"))
		require.NoError(t, err)
	}

	t.Run("oversized limit clamps to the default", func(t *testing.T) {
		out := getList(t, r, "/api/events?limit=1000")
		assert.Equal(t, 20, out.Limit, "reported limit must match the query run")
		assert.Len(t, out.Items, 20)
		assert.Equal(t, 30, out.Total)
	})

	t.Run("negative offset clamps to zero", func(t *testing.T) {
		out := getList(t, r, "/api/events?limit=5&offset=-3")
		assert.Equal(t, 0, out.Offset)
		assert.Equal(t, 5, out.Limit)
		assert.Len(t, out.Items, 5)
	})

	t.Run("in-range values pass through", func(t *testing.T) {
		out := getList(t, r, "/api/events?limit=25&offset=25")
		assert.Equal(t, 25, out.Limit)
		assert.Equal(t, 25, out.Offset)
		assert.Len(t, out.Items, 5)
	})
}

func TestHandler_GetByID(t *testing.T) {
	r, repo := newTestRouter(t)
	stored, _, err := repo.Upsert(context.Background(), candidate(1, "Pretoria", "Nightlife"))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/events/%d", stored.ID), nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/events/999999", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/events/abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

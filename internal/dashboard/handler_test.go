package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legaldocs-backend/internal/documents"
)

type stubSource struct {
	docs []documents.Document
	err  error
}

func (s stubSource) List(ctx context.Context, filter documents.ListFilter) ([]documents.Document, error) {
	return s.docs, s.err
}

func newTestRouter(src Source) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(src)
	h.Now = func() time.Time { return time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC) }
	r := gin.New()
	h.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestAnalyticsHandler(t *testing.T) {
	r := newTestRouter(stubSource{docs: sampleDocs()})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/analytics", nil))
	require.Equal(t, http.StatusOK, resp.Code)

	var body Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 5, body.Metrics.TotalDocuments)
	assert.Len(t, body.ByFileType, 4)
	assert.Len(t, body.Charts, 7)
	assert.Equal(t, "2025-03-05T00:00:00Z", body.GeneratedAt.Format(time.RFC3339))
}

func TestAnalyticsHandlerError(t *testing.T) {
	r := newTestRouter(stubSource{err: errors.New("disk gone")})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/analytics", nil))
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Contains(t, resp.Body.String(), "internal_error")
}

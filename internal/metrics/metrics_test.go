package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouterServesMetrics(t *testing.T) {
	PartsSent.WithLabelValues("image_path", "sent").Inc()
	CatalogSize.Set(3)

	rec := httptest.NewRecorder()
	NewRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `emoticonbot_parts_sent_total{kind="image_path",status="sent"}`)
	assert.Contains(t, body, "emoticonbot_catalog_size 3")
}

func TestRouterUnknownPath(t *testing.T) {
	rec := httptest.NewRecorder()
	NewRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

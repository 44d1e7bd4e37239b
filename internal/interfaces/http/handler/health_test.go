package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/heraerp/platform/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		db         Pinger
		wantStatus int
		wantDB     string
	}{
		{"database up", pingFunc(func(context.Context) error { return nil }), http.StatusOK, "up"},
		{"database down", pingFunc(func(context.Context) error { return errors.New("refused") }), http.StatusServiceUnavailable, "down"},
		{"no database", nil, http.StatusServiceUnavailable, "down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.db, "1.2.3")
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

			h.Health(c)

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			data := resp.Data.(map[string]any)
			assert.Equal(t, tt.wantDB, data["database"])
			assert.Equal(t, "1.2.3", data["version"])
			assert.NotEmpty(t, data["go_version"])
		})
	}
}

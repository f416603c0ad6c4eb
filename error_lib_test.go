package blogboot

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestApiError_New(t *testing.T) {
	err := ErrCategoryNotFound.New("Sports")

	assert.Equal(t, "Category 'Sports' not found", err.Message)
	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.True(t, errors.Is(err, ErrCategoryNotFound))
	assert.False(t, errors.Is(err, ErrPostNotFound))
	assert.True(t, errors.Is(fmt.Errorf("wrapped: %w", err), ErrCategoryNotFound))
}

func sendWith(reporter *ErrorReporter, err error) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/api/posts", nil)
	reporter.Send(c, err)
	return w
}

func TestErrorReporter_Send(t *testing.T) {
	t.Run("api error keeps its status", func(t *testing.T) {
		w := sendWith(NewErrorReporter(nil, true), ErrForbidden.New("update"))
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.JSONEq(t, `{"success":false,"error":"Not authorized to update this post","error_code":"FORBIDDEN"}`, w.Body.String())
	})

	t.Run("duplicate key becomes 400", func(t *testing.T) {
		dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key"}}}
		w := sendWith(NewErrorReporter(nil, true), dup)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "DUPLICATE_KEY")
	})

	t.Run("unexpected error is logged and hidden in production", func(t *testing.T) {
		core, logs := observer.New(zap.ErrorLevel)
		w := sendWith(NewErrorReporter(zap.New(core), true), errors.New("socket closed"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"success":false,"error":"Server Error","error_code":"INTERNAL_SERVER_ERROR"}`, w.Body.String())
		assert.Equal(t, 1, logs.Len())
	})

	t.Run("unexpected error is detailed outside production", func(t *testing.T) {
		w := sendWith(NewErrorReporter(nil, false), errors.New("socket closed"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "socket closed", resp.Error)
		assert.Contains(t, resp.Stack, "goroutine ")
		assert.Contains(t, resp.Stack, "(*ErrorReporter).Send")
	})
}

func explodingHandler(*gin.Context) {
	panic("boom")
}

func TestGinRecovery_StackOutsideProduction(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(GinRecovery(zap.NewNop(), NewErrorReporter(nil, false)))
	engine.GET("/explode", explodingHandler)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/explode", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "panic: boom", resp.Error)
	assert.Contains(t, resp.Stack, "explodingHandler")
}

package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmaops/backend/internal/domain/shared"
	"github.com/pharmaops/backend/internal/interfaces/http/dto"
	"github.com/pharmaops/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestGetRequestID(t *testing.T) {
	t.Run("context value wins over header", func(t *testing.T) {
		c, _ := newTestContext(t)
		c.Set(RequestIDKey, "ctx-id")
		c.Request.Header.Set(RequestIDKey, "header-id")

		assert.Equal(t, "ctx-id", getRequestID(c))
	})

	t.Run("header fallback", func(t *testing.T) {
		c, _ := newTestContext(t)
		c.Request.Header.Set(RequestIDKey, "header-id")

		assert.Equal(t, "header-id", getRequestID(c))
	})

	t.Run("empty when unset", func(t *testing.T) {
		c, _ := newTestContext(t)
		assert.Empty(t, getRequestID(c))
	})
}

func TestGetUserID(t *testing.T) {
	t.Run("parses the JWT claim", func(t *testing.T) {
		want := uuid.New()
		c, _ := newTestContext(t)
		c.Set(middleware.JWTUserIDKey, want.String())

		got, err := getUserID(c)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("missing claim", func(t *testing.T) {
		c, _ := newTestContext(t)
		_, err := getUserID(c)
		assert.Error(t, err)
	})

	t.Run("malformed claim", func(t *testing.T) {
		c, _ := newTestContext(t)
		c.Set(middleware.JWTUserIDKey, "not-a-uuid")
		_, err := getUserID(c)
		assert.Error(t, err)
	})
}

func TestBaseHandler_SuccessResponses(t *testing.T) {
	h := &BaseHandler{}

	t.Run("Success", func(t *testing.T) {
		c, w := newTestContext(t)
		h.Success(c, map[string]string{"code": "483921"})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, decodeResponse(t, w).Success)
	})

	t.Run("SuccessWithMeta", func(t *testing.T) {
		c, w := newTestContext(t)
		h.SuccessWithMeta(c, []string{"a", "b"}, 100, 1, 10)

		resp := decodeResponse(t, w)
		assert.True(t, resp.Success)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(100), resp.Meta.Total)
	})

	t.Run("Created", func(t *testing.T) {
		c, w := newTestContext(t)
		h.Created(c, map[string]string{"id": "123"})

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.True(t, decodeResponse(t, w).Success)
	})

	t.Run("NoContent", func(t *testing.T) {
		router := gin.New()
		router.DELETE("/holds/:id", func(c *gin.Context) { h.NoContent(c) })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/holds/1", nil))

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.Bytes())
	})
}

func TestBaseHandler_ErrorHelpers(t *testing.T) {
	h := &BaseHandler{}

	cases := map[string]struct {
		call       func(*gin.Context)
		wantStatus int
		wantCode   string
	}{
		"BadRequest":      {func(c *gin.Context) { h.BadRequest(c, "bad") }, http.StatusBadRequest, dto.ErrCodeBadRequest},
		"NotFound":        {func(c *gin.Context) { h.NotFound(c, "missing") }, http.StatusNotFound, dto.ErrCodeNotFound},
		"Unauthorized":    {func(c *gin.Context) { h.Unauthorized(c, "no auth") }, http.StatusUnauthorized, dto.ErrCodeUnauthorized},
		"Forbidden":       {func(c *gin.Context) { h.Forbidden(c, "denied") }, http.StatusForbidden, dto.ErrCodeForbidden},
		"Conflict":        {func(c *gin.Context) { h.Conflict(c, "conflict") }, http.StatusConflict, dto.ErrCodeConflict},
		"InternalError":   {func(c *gin.Context) { h.InternalError(c, "boom") }, http.StatusInternalServerError, dto.ErrCodeInternal},
		"TooManyRequests": {func(c *gin.Context) { h.TooManyRequests(c, "slow down") }, http.StatusTooManyRequests, dto.ErrCodeRateLimited},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			c, w := newTestContext(t)
			tc.call(c)

			assert.Equal(t, tc.wantStatus, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tc.wantCode, resp.Error.Code)
		})
	}
}

func TestBaseHandler_ErrorCarriesRequestID(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(t)
	c.Set(RequestIDKey, "req-123")

	h.BadRequest(c, "bad")

	assert.Equal(t, "req-123", decodeResponse(t, w).Error.RequestID)
}

func TestBaseHandler_ErrorWithCode(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(t)

	h.ErrorWithCode(c, dto.ErrCodeFeatureDisabled, "reconciliation disabled for this pharmacy")

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, dto.ErrCodeFeatureDisabled, decodeResponse(t, w).Error.Code)
}

func TestBaseHandler_UnprocessableEntity(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(t)

	h.UnprocessableEntity(c, dto.ErrCodeBusinessRule, "hold already claimed")

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, dto.ErrCodeBusinessRule, decodeResponse(t, w).Error.Code)
}

func TestBaseHandler_ValidationError(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(t)
	c.Set(RequestIDKey, "req-456")

	h.ValidationError(c, []dto.ValidationDetail{
		{Field: "short_code", Message: "must be 6 digits"},
		{Field: "quantity", Message: "required"},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-456", resp.Error.RequestID)
	assert.Len(t, resp.Error.Details, 2)
}

func TestBaseHandler_HandleError(t *testing.T) {
	h := &BaseHandler{}

	t.Run("nil writes nothing", func(t *testing.T) {
		c, w := newTestContext(t)
		h.HandleError(c, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.Bytes())
	})

	t.Run("maps domain errors to status codes", func(t *testing.T) {
		cases := []struct {
			err        error
			wantStatus int
			wantCode   string
		}{
			{shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
			{shared.ErrAlreadyExists, http.StatusConflict, dto.ErrCodeAlreadyExists},
			{shared.ErrInvalidInput, http.StatusBadRequest, dto.ErrCodeInvalidInput},
			{shared.ErrConcurrencyConflict, http.StatusConflict, dto.ErrCodeConcurrencyConflict},
			{shared.ErrUnauthorized, http.StatusUnauthorized, dto.ErrCodeUnauthorized},
			{shared.ErrForbidden, http.StatusForbidden, dto.ErrCodeForbidden},
			{shared.ErrInvalidState, http.StatusUnprocessableEntity, dto.ErrCodeInvalidState},
			{shared.ErrFeatureDisabled, http.StatusUnprocessableEntity, dto.ErrCodeFeatureDisabled},
			{shared.ErrMissingContext, http.StatusUnauthorized, dto.ErrCodeUnauthorized},
			{shared.ErrScopeUnresolvable, http.StatusForbidden, dto.ErrCodeScopeUnresolvable},
		}

		for _, tc := range cases {
			c, w := newTestContext(t)
			h.HandleError(c, tc.err)

			assert.Equal(t, tc.wantStatus, w.Code, "err=%v", tc.err)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tc.wantCode, resp.Error.Code)
		}
	})

	t.Run("unwraps wrapped domain errors", func(t *testing.T) {
		c, w := newTestContext(t)
		h.HandleError(c, fmt.Errorf("loading hold: %w", shared.ErrNotFound))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, dto.ErrCodeNotFound, decodeResponse(t, w).Error.Code)
	})

	t.Run("unknown errors become opaque 500s", func(t *testing.T) {
		c, w := newTestContext(t)
		h.HandleError(c, assert.AnError)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeInternal, resp.Error.Code)
		assert.Equal(t, "An unexpected error occurred", resp.Error.Message)
	})

	t.Run("includes request ID", func(t *testing.T) {
		c, w := newTestContext(t)
		c.Set(RequestIDKey, "req-err")
		h.HandleError(c, shared.ErrNotFound)

		assert.Equal(t, "req-err", decodeResponse(t, w).Error.RequestID)
	})
}

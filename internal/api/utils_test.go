package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-korea-tour-explorer/internal/api/tourapi"
)

func TestTourAPIErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", &tourapi.Error{Kind: tourapi.KindNotFound}, http.StatusNotFound},
		{"rate limited", &tourapi.Error{Kind: tourapi.KindRateLimited, StatusCode: 429}, http.StatusTooManyRequests},
		{"validation", &tourapi.Error{Kind: tourapi.KindValidation, Message: "keyword is required"}, http.StatusBadRequest},
		{"config", &tourapi.Error{Kind: tourapi.KindConfig}, http.StatusInternalServerError},
		{"api", &tourapi.Error{Kind: tourapi.KindAPI, StatusCode: 500}, http.StatusBadGateway},
		{"transport", &tourapi.Error{Kind: tourapi.KindTransport}, http.StatusBadGateway},
		{"plain error", errors.New("boom"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := TourAPIErrorStatus(tt.err)
			assert.Equal(t, tt.status, status)
			assert.NotEmpty(t, msg)
		})
	}

	_, msg := TourAPIErrorStatus(&tourapi.Error{Kind: tourapi.KindValidation, Message: "keyword is required"})
	assert.Equal(t, "keyword is required", msg)

	_, msg = TourAPIErrorStatus(fmt.Errorf("listing: %w", &tourapi.Error{Kind: tourapi.KindTransport, Err: errors.New("dial tcp")}))
	assert.Equal(t, "Tourism API is unreachable", msg)
	_, msg = TourAPIErrorStatus(&tourapi.Error{Kind: tourapi.KindAPI, StatusCode: 400, Message: "bad"})
	assert.Equal(t, "Tourism API rejected the request", msg)
}

func TestTourAPIErrorResponse(t *testing.T) {
	l := slog.New(slog.NewTextHandler(io.Discard, nil))
	rr := httptest.NewRecorder()
	TourAPIErrorResponse(rr, httptest.NewRequest(http.MethodGet, "/", nil), l, &tourapi.Error{Kind: tourapi.KindRateLimited})

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("Retry-After"))
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), `"success":false`)
}

func TestDecodeJSONBody(t *testing.T) {
	type payload struct {
		Email string `json:"email"`
	}

	t.Run("valid", func(t *testing.T) {
		var p payload
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.c"}`))
		require.NoError(t, DecodeJSONBody(httptest.NewRecorder(), req, &p))
		assert.Equal(t, "a@b.c", p.Email)
	})

	t.Run("unknown field", func(t *testing.T) {
		var p payload
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
		assert.Error(t, DecodeJSONBody(httptest.NewRecorder(), req, &p))
	})

	t.Run("two values", func(t *testing.T) {
		var p payload
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.c"}{}`))
		err := DecodeJSONBody(httptest.NewRecorder(), req, &p)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "single JSON value")
	})
}

func TestValidationMessage(t *testing.T) {
	type q struct {
		Page int `validate:"gte=1"`
	}
	err := validator.New().Struct(q{Page: 0})
	assert.Equal(t, "invalid request: Page must satisfy gte=1", ValidationMessage(err))
	assert.Equal(t, "plain", ValidationMessage(errors.New("plain")))
}

func TestVerifyAudience(t *testing.T) {
	assert.True(t, VerifyAudience(nil, ""))
	assert.True(t, VerifyAudience(jwt.ClaimStrings{"a", "b"}, "b"))
	assert.False(t, VerifyAudience(jwt.ClaimStrings{"a"}, "b"))
}

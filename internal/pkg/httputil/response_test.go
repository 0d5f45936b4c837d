package httputil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONSetsContentType(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusCreated, map[string]int{"n": 1})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"n":1}`, rec.Body.String())
}

func TestErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusConflict, "already running")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"already running"}`, rec.Body.String())
}

func TestErrorCodeIncludesCode(t *testing.T) {
	rec := httptest.NewRecorder()
	ErrorCode(rec, http.StatusForbidden, "CALLER_DENIED", "not allowed")

	assert.JSONEq(t, `{"success":false,"error":"not allowed","code":"CALLER_DENIED"}`, rec.Body.String())
}

func TestInternalErrorHidesDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	InternalError(rec, assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
	assert.Contains(t, rec.Body.String(), "internal server error")
}

func TestDecode(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"ok"}`))
	rec := httptest.NewRecorder()

	require.True(t, Decode(rec, req, &dst))
	assert.Equal(t, "ok", dst.Name)
}

func TestDecode_InvalidJSON(t *testing.T) {
	var dst struct{}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	rec := httptest.NewRecorder()

	assert.False(t, Decode(rec, req, &dst))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

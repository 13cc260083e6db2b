package util

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestErrStorageWrapsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("close position: %w", ErrStorage("Failed to close position", cause))

	if !errors.Is(err, cause) {
		t.Error("cause not reachable through errors.Is")
	}
	appErr := GetAppError(err)
	if appErr == nil {
		t.Fatal("GetAppError returned nil")
	}
	if appErr.StatusCode != http.StatusInternalServerError || appErr.Code != ErrCodeStorage {
		t.Errorf("unexpected error: %+v", appErr)
	}
}

func TestStatusOf(t *testing.T) {
	if got := StatusOf(ErrBotNotFound()); got != http.StatusNotFound {
		t.Errorf("StatusOf(bot not found) = %d", got)
	}
	if got := StatusOf(ErrValidation("bad")); got != http.StatusBadRequest {
		t.Errorf("StatusOf(validation) = %d", got)
	}
	if got := StatusOf(errors.New("boom")); got != http.StatusInternalServerError {
		t.Errorf("StatusOf(plain) = %d", got)
	}
}

func TestSendErrorHidesInternalCause(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	SendError(c, ErrStorage("Failed to load trades", errors.New("pq: relation does not exist")))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Success || resp.Error == nil {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
	if resp.Error.Code != ErrCodeStorage || resp.Error.Message != "Failed to load trades" {
		t.Errorf("error = %+v", resp.Error)
	}
	if resp.Error.Details != nil {
		t.Errorf("details leaked: %v", resp.Error.Details)
	}
	if len(c.Errors) != 1 {
		t.Errorf("cause not attached to gin context")
	}
}

func TestSendErrorPlainErrorIsGeneric500(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	SendError(c, errors.New("secret detail"))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var resp Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error.Code != ErrCodeInternal || resp.Error.Message != "Internal server error" {
		t.Errorf("error = %+v", resp.Error)
	}
}

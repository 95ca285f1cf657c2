package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/law-makers/seocrawl/pkg/models"
	"github.com/rs/zerolog"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		want models.ErrorKind
	}{
		{NewEngineError(ErrCodeServerError, "boom", ErrServerError), models.ErrorKindServer},
		{NewEngineError(ErrCodeClientApp, "app", ErrClientAppError), models.ErrorKindClientApp},
		{NewEngineError(ErrCodeParseError, "parse", ErrParseError), models.ErrorKindExtraction},
		{NewEngineError(ErrCodeTimeout, "slow", ErrTimeout), models.ErrorKindFetch},
		{fmt.Errorf("wrapped: %w", NewEngineError(ErrCodeServerError, "boom", nil)), models.ErrorKindServer},
		{errors.New("plain"), models.ErrorKindFetch},
	}
	for _, tt := range tests {
		if got := ClassifyError(tt.err); got != tt.want {
			t.Errorf("ClassifyError(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestEngineErrorMatching(t *testing.T) {
	err := fmt.Errorf("page: %w", NewEngineError(ErrCodeServerError, "server returned an error status", ErrServerError).WithStatus(502))

	if !errors.Is(err, ErrServerError) {
		t.Error("Expected sentinel to match through the chain")
	}
	if !errors.Is(err, &EngineError{Code: ErrCodeServerError}) {
		t.Error("Expected code match")
	}
	if errors.Is(err, &EngineError{Code: ErrCodeTimeout}) {
		t.Error("Unexpected match on a different code")
	}
	if StatusOf(err) != 502 {
		t.Errorf("StatusOf = %d, want 502", StatusOf(err))
	}
	if StatusOf(errors.New("x")) != 0 {
		t.Error("Expected 0 status for plain errors")
	}
	if !strings.Contains(err.Error(), "(status 502)") {
		t.Errorf("Expected status in message, got %q", err.Error())
	}
}

func TestWrapTransportError(t *testing.T) {
	timeout := WrapTransportError("https://example.com/", context.DeadlineExceeded)
	if timeout.Code != ErrCodeTimeout || !timeout.IsRetryable() || !errors.Is(timeout, ErrTimeout) {
		t.Errorf("Unexpected timeout error: %+v", timeout)
	}

	refused := WrapTransportError("https://example.com/", errors.New("connection refused"))
	if refused.Code != ErrCodeNetworkError || !refused.IsRetryable() {
		t.Errorf("Unexpected network error: %+v", refused)
	}
	if refused.Details["url"] != "https://example.com/" {
		t.Errorf("Expected url detail, got %v", refused.Details)
	}
}

func TestLogErrorEmbedsDetails(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	err := NewEngineError(ErrCodeServerError, "server returned an error status", ErrServerError).
		WithStatus(503).
		WithDetail("url", "https://example.com/down")
	LogError(logger.Warn(), fmt.Errorf("visit: %w", err)).Msg("failed")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if line["code"] != "SERVER_ERROR" || line["status"] != float64(503) || line["url"] != "https://example.com/down" {
		t.Errorf("Unexpected log fields: %v", line)
	}

	buf.Reset()
	LogError(logger.Warn(), errors.New("plain")).Msg("failed")
	if strings.Contains(buf.String(), `"code"`) {
		t.Errorf("Plain errors should not carry a code: %s", buf.String())
	}
}

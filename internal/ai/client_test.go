package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func chatResponse(content string) string {
	body, _ := json.Marshal(map[string]any{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"model":  DefaultModel,
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})
	return string(body)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*OpenAIClient, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c := NewOpenAIClient(Config{APIKey: "test", BaseURL: srv.URL + "/v1", Timeout: 5 * time.Second}, nil)
	c.sleep = func(context.Context, time.Duration) error { return nil }
	return c, &calls
}

func TestNewOpenAIClientWithoutKey(t *testing.T) {
	if c := NewOpenAIClient(Config{}, nil); c != nil {
		t.Fatalf("expected nil client without api key")
	}
	if c := NewClient(Config{APIKey: "  "}, nil); c != nil {
		t.Fatalf("expected nil interface without api key, got %T", c)
	}
}

func TestStructuredDecodesPayload(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req["model"] != DefaultReasoningModel {
			t.Errorf("expected reasoning model, got %v", req["model"])
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, chatResponse(`{"daily_goal":4,"focus":"deep work","tips":["one","two"]}`))
	})

	var out GoalSuggestion
	err := c.Structured(testContext(t), Request{Reasoning: true, Schema: "goal_suggestion", Messages: []Message{User("hi")}}, &out)
	if err != nil {
		t.Fatalf("structured call: %v", err)
	}
	if out.DailyGoal != 4 || out.Focus != "deep work" || len(out.Tips) != 2 {
		t.Fatalf("unexpected payload %+v", out)
	}
	if atomic.LoadInt32(calls) != 1 {
		t.Fatalf("expected one call, got %d", *calls)
	}
}

func TestStructuredRetriesTransientFailures(t *testing.T) {
	var n int32
	c, calls := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if atomic.AddInt32(&n, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"error":{"message":"slow down","type":"rate_limit"}}`)
			return
		}
		fmt.Fprint(w, chatResponse(`{"message":"go","tone":"calm"}`))
	})

	var out Motivation
	if err := c.Structured(testContext(t), Request{Schema: "motivation"}, &out); err != nil {
		t.Fatalf("structured call: %v", err)
	}
	if out.Message != "go" || atomic.LoadInt32(calls) != 2 {
		t.Fatalf("expected success on second attempt, got %+v after %d calls", out, *calls)
	}
}

func TestStructuredGivesUpAfterMaxAttempts(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":{"message":"boom","type":"server_error"}}`)
	})

	var out Motivation
	err := c.Structured(testContext(t), Request{Schema: "motivation"}, &out)
	var aiErr *Error
	if !errors.As(err, &aiErr) || aiErr.Kind != KindTransient {
		t.Fatalf("expected transient error, got %v", err)
	}
	if got := atomic.LoadInt32(calls); got != DefaultMaxAttempts {
		t.Fatalf("expected %d attempts, got %d", DefaultMaxAttempts, got)
	}
}

func TestStructuredFailsFastOnRejection(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"bad schema","type":"invalid_request_error"}}`)
	})

	var out Motivation
	err := c.Structured(testContext(t), Request{Schema: "motivation"}, &out)
	var aiErr *Error
	if !errors.As(err, &aiErr) || aiErr.Kind != KindRejected {
		t.Fatalf("expected rejected error, got %v", err)
	}
	if atomic.LoadInt32(calls) != 1 {
		t.Fatalf("rejected requests must not be retried, got %d calls", *calls)
	}
}

func TestStructuredEmptyContent(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, chatResponse(""))
	})
	var out Motivation
	err := c.Structured(testContext(t), Request{}, &out)
	var aiErr *Error
	if !errors.As(err, &aiErr) || aiErr.Kind != KindEmpty {
		t.Fatalf("expected empty error, got %v", err)
	}
}

func TestStructuredRequiresPointer(t *testing.T) {
	c, calls := newTestClient(t, func(http.ResponseWriter, *http.Request) {})
	err := c.Structured(testContext(t), Request{}, Motivation{})
	var aiErr *Error
	if !errors.As(err, &aiErr) || aiErr.Kind != KindInvalid {
		t.Fatalf("expected invalid error, got %v", err)
	}
	if atomic.LoadInt32(calls) != 0 {
		t.Fatalf("no request expected")
	}
}

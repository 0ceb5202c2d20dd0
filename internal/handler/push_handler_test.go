package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/gcmpush/internal/domain"
	"github.com/kursadbilgin/gcmpush/internal/observability"
	"github.com/kursadbilgin/gcmpush/internal/provider"
	"github.com/kursadbilgin/gcmpush/internal/transport"
	"go.uber.org/zap"
)

type stubPushService struct {
	sendFn func(ctx context.Context, req domain.MulticastRequest) (*provider.MulticastResult, error)
}

func (s *stubPushService) SendMulticast(ctx context.Context, req domain.MulticastRequest) (*provider.MulticastResult, error) {
	return s.sendFn(ctx, req)
}

func newPushTestApp(t *testing.T, svc PushService) *fiber.App {
	t.Helper()

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(zap.NewNop()),
	})

	RegisterHealthRoutes(app, observability.NewMetrics())
	if err := RegisterPushRoutes(app, svc); err != nil {
		t.Fatalf("RegisterPushRoutes() error = %v", err)
	}

	return app
}

func performRequest(t *testing.T, app *fiber.App, method string, path string, body string, headers map[string]string) (*http.Response, []byte) {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	_ = resp.Body.Close()

	return resp, respBody
}

func TestRegisterPushRoutesRequiresService(t *testing.T) {
	t.Parallel()

	if err := RegisterPushRoutes(fiber.New(), nil); err == nil {
		t.Fatal("expected error for nil service")
	}
}

func TestPushHandlerSendMulticastSuccess(t *testing.T) {
	t.Parallel()

	var got domain.MulticastRequest
	var gotRequestID string
	svc := &stubPushService{
		sendFn: func(ctx context.Context, req domain.MulticastRequest) (*provider.MulticastResult, error) {
			got = req
			gotRequestID, _ = observability.RequestIDFromContext(ctx)
			return &provider.MulticastResult{
				Success:     1,
				Failure:     1,
				MulticastID: 42,
				Results: []provider.DeliveryResult{
					{RegistrationID: "reg-a", MessageID: "1:01"},
					{RegistrationID: "reg-b", Error: "NotRegistered"},
				},
				Response: map[string]any{"success": 1, "failure": 1},
			}, nil
		},
	}
	app := newPushTestApp(t, svc)

	body := `{"apiKey":"project-key","registrationIds":["reg-a","reg-b"],"data":{"message":"hi"},"dryRun":true}`
	resp, respBody := performRequest(t, app, http.MethodPost, "/v1/push/multicast", body, map[string]string{
		fiber.HeaderXRequestID: "req-42",
	})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, string(respBody))
	}
	if resp.Header.Get(fiber.HeaderXRequestID) != "req-42" {
		t.Fatalf("X-Request-ID = %q, want req-42", resp.Header.Get(fiber.HeaderXRequestID))
	}
	if gotRequestID != "req-42" {
		t.Fatalf("request id in context = %q, want req-42", gotRequestID)
	}

	if got.APIKey != "project-key" || !got.DryRun || len(got.RegistrationIDs) != 2 {
		t.Fatalf("request = %#v, want decoded multicast request", got)
	}
	data, ok := got.Content.(map[string]any)
	if !ok || data["message"] != "hi" {
		t.Fatalf("content = %#v, want message=hi", got.Content)
	}

	var parsed map[string]any
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if parsed["success"] != float64(1) || parsed["failure"] != float64(1) {
		t.Fatalf("success/failure = %v/%v, want 1/1", parsed["success"], parsed["failure"])
	}
	if parsed["multicastId"] != float64(42) {
		t.Fatalf("multicastId = %v, want 42", parsed["multicastId"])
	}
	results, ok := parsed["results"].([]any)
	if !ok || len(results) != 2 {
		t.Fatalf("results = %#v, want 2 entries", parsed["results"])
	}
	second, _ := results[1].(map[string]any)
	if second["registrationId"] != "reg-b" || second["error"] != "NotRegistered" {
		t.Fatalf("results[1] = %#v, want reg-b NotRegistered", second)
	}
	if _, ok := parsed["response"].(map[string]any); !ok {
		t.Fatalf("response = %#v, want raw gateway response object", parsed["response"])
	}
}

func TestPushHandlerGeneratesRequestID(t *testing.T) {
	t.Parallel()

	svc := &stubPushService{
		sendFn: func(ctx context.Context, req domain.MulticastRequest) (*provider.MulticastResult, error) {
			return &provider.MulticastResult{Response: map[string]any{}}, nil
		},
	}
	app := newPushTestApp(t, svc)

	body := `{"apiKey":"k","registrationIds":["reg-a"],"data":"hello"}`
	resp, _ := performRequest(t, app, http.MethodPost, "/v1/push/multicast", body, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if strings.TrimSpace(resp.Header.Get(fiber.HeaderXRequestID)) == "" {
		t.Fatal("expected generated X-Request-ID header")
	}
}

func TestPushHandlerErrorMapping(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantError  string
	}{
		{
			name:       "validation push error",
			body:       `{"apiKey":"","registrationIds":["reg-a"],"data":"x"}`,
			err:        &provider.PushError{Kind: provider.KindValidation, Code: http.StatusBadRequest, Message: "invalid multicast request", Cause: fmt.Errorf("%w: api_key is required.", domain.ErrValidation)},
			wantStatus: fiber.StatusBadRequest,
			wantError:  "api_key is required.",
		},
		{
			name:       "operation push error",
			body:       `{"apiKey":"k","registrationIds":["reg-a","reg-b"],"data":"x"}`,
			err:        &provider.PushError{Kind: provider.KindOperation, Code: http.StatusInternalServerError, Message: "failed to send push data. registration_ids = [reg-a,reg-b]"},
			wantStatus: fiber.StatusInternalServerError,
			wantError:  "registration_ids = [reg-a,reg-b]",
		},
		{
			name:       "malformed body",
			body:       `{"apiKey":`,
			wantStatus: fiber.StatusBadRequest,
			wantError:  "invalid request body",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc := &stubPushService{
				sendFn: func(ctx context.Context, req domain.MulticastRequest) (*provider.MulticastResult, error) {
					return nil, tc.err
				},
			}
			app := newPushTestApp(t, svc)

			resp, respBody := performRequest(t, app, http.MethodPost, "/v1/push/multicast", tc.body, nil)
			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("status = %d, want %d, body=%s", resp.StatusCode, tc.wantStatus, string(respBody))
			}

			var parsed map[string]string
			if err := json.Unmarshal(respBody, &parsed); err != nil {
				t.Fatalf("json unmarshal error = %v", err)
			}
			if !strings.Contains(parsed["error"], tc.wantError) {
				t.Fatalf("error = %q, want to contain %q", parsed["error"], tc.wantError)
			}
		})
	}
}

func TestHealthRoutes(t *testing.T) {
	t.Parallel()

	app := newPushTestApp(t, &stubPushService{})

	resp, body := performRequest(t, app, http.MethodGet, "/livez", "", nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("livez status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(string(body), `"ok"`) {
		t.Fatalf("livez body = %s, want status ok", string(body))
	}

	resp, body = performRequest(t, app, http.MethodGet, "/metrics", "", nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("metrics status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(string(body), "go_goroutines") {
		t.Fatalf("metrics body missing go collector output")
	}
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/kursadbilgin/gcmpush/internal/domain"
	"github.com/kursadbilgin/gcmpush/internal/provider"
)

type recordingProvider struct {
	calls  int
	gotReq domain.MulticastRequest
}

func (p *recordingProvider) SendMulticast(ctx context.Context, req domain.MulticastRequest) (*provider.MulticastResult, error) {
	p.calls++
	p.gotReq = req
	if err := req.Validate(); err != nil {
		return nil, &provider.PushError{Kind: provider.KindValidation, Code: 400, Message: "invalid multicast request", Cause: err}
	}
	return &provider.MulticastResult{
		Success:  len(req.RegistrationIDs),
		Response: map[string]any{"success": len(req.RegistrationIDs)},
	}, nil
}

func useProvider(t *testing.T, p provider.Provider) {
	t.Helper()

	original := newProvider
	newProvider = func() (provider.Provider, error) { return p, nil }
	t.Cleanup(func() { newProvider = original })
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func TestSendCommandPrintsResult(t *testing.T) {
	t.Setenv("GCM_API_KEY", "env-key")
	t.Setenv("LOG_LEVEL", "error")
	stub := &recordingProvider{}
	useProvider(t, stub)

	out, err := runCLI(t, "send", "--to", "reg-a", "--to", "reg-b", "--data", `{"message":"hi"}`, "--dry-run")
	if err != nil {
		t.Fatalf("send error = %v", err)
	}

	if stub.gotReq.APIKey != "env-key" {
		t.Fatalf("APIKey = %q, want env-key from environment", stub.gotReq.APIKey)
	}
	if !stub.gotReq.DryRun {
		t.Fatal("DryRun should be true")
	}
	if got := strings.Join(stub.gotReq.RegistrationIDs, ","); got != "reg-a,reg-b" {
		t.Fatalf("RegistrationIDs = %q, want reg-a,reg-b", got)
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if parsed["success"] != float64(2) {
		t.Fatalf("success = %v, want 2", parsed["success"])
	}
}

func TestSendCommandFlagOverridesEnvironmentKey(t *testing.T) {
	t.Setenv("GCM_API_KEY", "env-key")
	t.Setenv("LOG_LEVEL", "error")
	stub := &recordingProvider{}
	useProvider(t, stub)

	if _, err := runCLI(t, "send", "--api-key", "flag-key", "--to", "reg-a", "--data", `"ping"`); err != nil {
		t.Fatalf("send error = %v", err)
	}
	if stub.gotReq.APIKey != "flag-key" {
		t.Fatalf("APIKey = %q, want flag-key", stub.gotReq.APIKey)
	}
}

func TestSendCommandRejectsEmptyData(t *testing.T) {
	t.Setenv("GCM_API_KEY", "env-key")
	t.Setenv("LOG_LEVEL", "error")
	useProvider(t, &recordingProvider{})

	_, err := runCLI(t, "send", "--to", "reg-a")
	if err == nil {
		t.Fatal("expected error for missing data")
	}
	if !provider.IsValidation(err) {
		t.Fatalf("error = %v, want validation error", err)
	}
	if !strings.Contains(err.Error(), "content is required.") {
		t.Fatalf("error = %q, want content violation", err.Error())
	}
}

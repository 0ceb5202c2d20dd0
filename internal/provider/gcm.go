package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/kursadbilgin/gcmpush/internal/domain"
)

const (
	GCMEndpoint    = "https://gcm-http.googleapis.com/gcm/send"
	DefaultTimeout = 5 * time.Second
	maxRedirects   = 10
)

var _ Provider = (*GCMProvider)(nil)

type gcmRequest struct {
	RegistrationIDs []string `json:"registration_ids"`
	Data            any      `json:"data"`
	DryRun          bool     `json:"dry_run"`
}

// GCMProvider sends multicast pushes to the GCM HTTP gateway. It keeps no
// per-call state and is safe for concurrent use.
type GCMProvider struct {
	client   *resty.Client
	endpoint string
}

func NewGCMProvider() (*GCMProvider, error) {
	client := resty.New()
	client.SetTimeout(DefaultTimeout)

	return NewGCMProviderWithClient(client)
}

func NewGCMProviderWithClient(client *resty.Client) (*GCMProvider, error) {
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(DefaultTimeout)
	}
	client.SetRetryCount(0)
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(maxRedirects))

	return &GCMProvider{
		client:   client,
		endpoint: GCMEndpoint,
	}, nil
}

// SendMulticast validates req, posts it to the gateway once and summarizes the
// response. Every failure is a *PushError.
func (p *GCMProvider) SendMulticast(ctx context.Context, req domain.MulticastRequest) (*MulticastResult, error) {
	if p == nil || p.client == nil {
		return nil, fmt.Errorf("provider is not initialized")
	}
	if err := req.Validate(); err != nil {
		return nil, newValidationError(err)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	response, err := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", "key="+req.APIKey).
		SetBody(gcmRequest{
			RegistrationIDs: req.RegistrationIDs,
			Data:            req.Content,
			DryRun:          req.DryRun,
		}).
		Post(p.endpoint)
	if err != nil {
		return nil, newOperationError(sendFailureMessage(req), 0, err)
	}
	if response == nil {
		return nil, newOperationError(sendFailureMessage(req), 0, errors.New("gateway returned empty response"))
	}

	if !response.IsSuccess() {
		statusCode := response.StatusCode()
		return nil, newOperationError(
			sendFailureMessage(req),
			statusCode,
			fmt.Errorf("gateway returned status %d", statusCode),
		)
	}

	body := response.Body()
	decoded, err := decodeResponse(body)
	if err != nil {
		return nil, newOperationError(fmt.Sprintf("json decode error. response = [%s]", string(body)), 0, err)
	}

	return &MulticastResult{
		Success:      countField(decoded, "success"),
		Failure:      countField(decoded, "failure"),
		CanonicalIDs: countField(decoded, "canonical_ids"),
		MulticastID:  intField(decoded, "multicast_id"),
		Results:      deliveryResults(req.RegistrationIDs, decoded["results"]),
		Response:     decoded,
	}, nil
}

func sendFailureMessage(req domain.MulticastRequest) string {
	return fmt.Sprintf("failed to send push data. registration_ids = [%s]", req.JoinedRegistrationIDs())
}

func decodeResponse(body []byte) (map[string]any, error) {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	var decoded map[string]any
	if err := decoder.Decode(&decoded); err != nil {
		return nil, err
	}
	if decoder.More() {
		return nil, errors.New("unexpected data after response object")
	}
	if decoded == nil {
		return nil, errors.New("response is null")
	}

	return decoded, nil
}

// countField reads a non-negative count; absent or malformed values are 0.
func countField(m map[string]any, key string) int {
	n := intField(m, key)
	if n < 0 {
		return 0
	}
	return int(n)
}

func intField(m map[string]any, key string) int64 {
	switch v := m[key].(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
		if f, err := v.Float64(); err == nil {
			return int64(f)
		}
	case float64:
		return int64(v)
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return n
		}
	}
	return 0
}

func stringField(m map[string]any, key string) string {
	value, _ := m[key].(string)
	return value
}

// deliveryResults pairs the gateway's results array with the recipients by index.
func deliveryResults(registrationIDs []string, raw any) []DeliveryResult {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}

	results := make([]DeliveryResult, 0, len(items))
	for idx, item := range items {
		entry, _ := item.(map[string]any)

		result := DeliveryResult{
			MessageID:               stringField(entry, "message_id"),
			CanonicalRegistrationID: stringField(entry, "registration_id"),
			Error:                   stringField(entry, "error"),
		}
		if idx < len(registrationIDs) {
			result.RegistrationID = registrationIDs[idx]
		}
		results = append(results, result)
	}

	return results
}

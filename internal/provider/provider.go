package provider

import (
	"context"

	"github.com/kursadbilgin/gcmpush/internal/domain"
)

// Provider is the outbound multicast delivery port.
type Provider interface {
	SendMulticast(ctx context.Context, req domain.MulticastRequest) (*MulticastResult, error)
}

// MulticastResult summarizes a gateway response. Response holds the decoded
// body as returned by the gateway.
type MulticastResult struct {
	Success      int
	Failure      int
	CanonicalIDs int
	MulticastID  int64
	Results      []DeliveryResult
	Response     map[string]any
}

// DeliveryResult is the gateway outcome for one registration ID.
type DeliveryResult struct {
	RegistrationID          string `json:"registration_id"`
	MessageID               string `json:"message_id,omitempty"`
	CanonicalRegistrationID string `json:"canonical_registration_id,omitempty"`
	Error                   string `json:"error,omitempty"`
}

// Delivered reports whether the gateway accepted this recipient.
func (r DeliveryResult) Delivered() bool {
	return r.Error == "" && r.MessageID != ""
}

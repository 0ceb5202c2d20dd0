package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/kursadbilgin/gcmpush/internal/domain"
	"github.com/kursadbilgin/gcmpush/internal/observability"
	"github.com/kursadbilgin/gcmpush/internal/provider"
)

type PushService interface {
	SendMulticast(ctx context.Context, req domain.MulticastRequest) (*provider.MulticastResult, error)
}

type PushHandler struct {
	service PushService
}

func NewPushHandler(service PushService) (*PushHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("push service is required")
	}
	return &PushHandler{service: service}, nil
}

func RegisterPushRoutes(router fiber.Router, service PushService) error {
	h, err := NewPushHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/push/multicast", h.SendMulticast)

	return nil
}

type multicastRequest struct {
	APIKey          string   `json:"apiKey"`
	RegistrationIDs []string `json:"registrationIds"`
	Data            any      `json:"data"`
	DryRun          bool     `json:"dryRun"`
}

type multicastResponse struct {
	Success      int                      `json:"success"`
	Failure      int                      `json:"failure"`
	CanonicalIDs int                      `json:"canonicalIds"`
	MulticastID  int64                    `json:"multicastId,omitempty"`
	Results      []deliveryResultResponse `json:"results,omitempty"`
	Response     map[string]any           `json:"response"`
}

type deliveryResultResponse struct {
	RegistrationID          string `json:"registrationId"`
	MessageID               string `json:"messageId,omitempty"`
	CanonicalRegistrationID string `json:"canonicalRegistrationId,omitempty"`
	Error                   string `json:"error,omitempty"`
}

func (h *PushHandler) SendMulticast(c *fiber.Ctx) error {
	var req multicastRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	requestID := requestCorrelationID(c)
	c.Set(fiber.HeaderXRequestID, requestID)
	ctx := observability.WithRequestID(c.UserContext(), requestID)

	result, err := h.service.SendMulticast(ctx, domain.MulticastRequest{
		APIKey:          req.APIKey,
		RegistrationIDs: req.RegistrationIDs,
		Content:         req.Data,
		DryRun:          req.DryRun,
	})
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toMulticastResponse(result))
}

func requestCorrelationID(c *fiber.Ctx) string {
	if value := strings.TrimSpace(c.Get(fiber.HeaderXRequestID)); value != "" {
		return value
	}
	if value, ok := c.Locals("requestid").(string); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return uuid.NewString()
}

func toMulticastResponse(result *provider.MulticastResult) multicastResponse {
	if result == nil {
		return multicastResponse{}
	}

	results := make([]deliveryResultResponse, 0, len(result.Results))
	for _, r := range result.Results {
		results = append(results, deliveryResultResponse{
			RegistrationID:          r.RegistrationID,
			MessageID:               r.MessageID,
			CanonicalRegistrationID: r.CanonicalRegistrationID,
			Error:                   r.Error,
		})
	}

	return multicastResponse{
		Success:      result.Success,
		Failure:      result.Failure,
		CanonicalIDs: result.CanonicalIDs,
		MulticastID:  result.MulticastID,
		Results:      results,
		Response:     result.Response,
	}
}

func toHTTPError(err error) error {
	var pushErr *provider.PushError
	switch {
	case errors.As(err, &pushErr):
		return fiber.NewError(provider.StatusCode(err), err.Error())
	case errors.Is(err, domain.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return err
	}
}

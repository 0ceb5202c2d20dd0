package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kursadbilgin/gcmpush/internal/config"
	"github.com/kursadbilgin/gcmpush/internal/domain"
	"github.com/kursadbilgin/gcmpush/internal/observability"
	"github.com/kursadbilgin/gcmpush/internal/provider"
	"github.com/kursadbilgin/gcmpush/internal/service"
	"github.com/spf13/cobra"
)

// newProvider is swapped in tests.
var newProvider = func() (provider.Provider, error) {
	return provider.NewGCMProvider()
}

type sendOutput struct {
	Success      int                       `json:"success"`
	Failure      int                       `json:"failure"`
	CanonicalIDs int                       `json:"canonical_ids"`
	MulticastID  int64                     `json:"multicast_id,omitempty"`
	Results      []provider.DeliveryResult `json:"results,omitempty"`
	Response     map[string]any            `json:"response"`
}

func newSendCmd() *cobra.Command {
	var (
		apiKey          string
		registrationIDs []string
		data            string
		dryRun          bool
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send one push payload to up to 1000 registration IDs",
		Example: `  gcmpush send --to reg-1 --to reg-2 --data '{"message":"hello"}'
  GCM_API_KEY=... gcmpush send --to reg-1 --data '"ping"' --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if strings.TrimSpace(apiKey) == "" {
				apiKey = cfg.GCMAPIKey
			}

			logger, err := observability.NewLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			gcm, err := newProvider()
			if err != nil {
				return fmt.Errorf("failed to initialize gcm provider: %w", err)
			}
			pushService, err := service.NewPushService(gcm, logger)
			if err != nil {
				return err
			}

			result, err := pushService.SendMulticast(cmd.Context(), domain.MulticastRequest{
				APIKey:          apiKey,
				RegistrationIDs: registrationIDs,
				Content:         json.RawMessage(data),
				DryRun:          dryRun,
			})
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(sendOutput{
				Success:      result.Success,
				Failure:      result.Failure,
				CanonicalIDs: result.CanonicalIDs,
				MulticastID:  result.MulticastID,
				Results:      result.Results,
				Response:     result.Response,
			})
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "GCM project API key (defaults to $GCM_API_KEY)")
	cmd.Flags().StringArrayVar(&registrationIDs, "to", nil, "registration ID to deliver to (repeatable)")
	cmd.Flags().StringVar(&data, "data", "", "JSON payload sent as the data field")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "ask the gateway to validate without delivering")

	return cmd
}

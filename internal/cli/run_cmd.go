package cli

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/haytac/emoticon-bot/internal/app"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Starts the chat bot",
		Long: `Starts listening for Telegram messages. Each message is answered by the chat model;
emoticon markers in the answer are replaced by image sends. SIGHUP rescans the images directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if AppCfg == nil {
				return fmt.Errorf("configuration not loaded for run")
			}
			application, err := app.NewApplication(AppCfg)
			if err != nil {
				log.Error().Err(err).Msg("Failed to initialize application")
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			return application.Run(cmd.Context())
		},
	}
}

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haytac/emoticon-bot/internal/app"
	"github.com/haytac/emoticon-bot/internal/logging"
)

// NewPromptCmd creates the 'prompt' command, which prints the prompt sent to the model.
func NewPromptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prompt [message]",
		Short: "Print the prompt sequence the model would receive for a message",
		RunE: func(cmd *cobra.Command, args []string) error {
			if AppCfg == nil {
				return fmt.Errorf("configuration not loaded for prompt")
			}
			plugin, err := app.BuildPlugin(AppCfg, nil)
			if err != nil {
				return err
			}
			message := strings.Join(args, " ")
			if message == "" {
				message = "Hello!"
			}

			worker := app.NewChatWorker(plugin, nil, nil, nil, AppCfg.SystemPrompt, logging.Component("prompt"))
			out := cmd.OutOrStdout()
			for i, msg := range worker.BuildPrompt(cmd.Context(), "cli", message) {
				fmt.Fprintf(out, "[%d] %s: %s\n", i, msg.Role, msg.Content)
			}
			return nil
		},
	}
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haytac/emoticon-bot/internal/proxy"
)

// NewProxyCmd creates the 'proxy' command and its subcommands.
func NewProxyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proxy",
		Short: "Inspect the outbound proxy used for Telegram and the chat model",
	}
	cmd.AddCommand(newProxyShowCmd())
	cmd.AddCommand(newProxyValidateCmd())
	return cmd
}

func newProxyShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the configured proxy",
		RunE: func(cmd *cobra.Command, args []string) error {
			if AppCfg == nil {
				return fmt.Errorf("configuration not loaded for proxy show")
			}
			p := AppCfg.Telegram.Proxy
			out := cmd.OutOrStdout()
			if !p.Enabled() {
				fmt.Fprintln(out, "No proxy configured.")
				return nil
			}
			auth := "no"
			if p.Username != "" {
				auth = "yes"
			}
			fmt.Fprintf(out, "Type: %s, Address: %s, Auth: %s\n", p.Type, p.Address, auth)
			return nil
		},
	}
}

func newProxyValidateCmd() *cobra.Command {
	var targetURL string

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate connectivity through the configured proxy",
		RunE: func(cmd *cobra.Command, args []string) error {
			if AppCfg == nil {
				return fmt.Errorf("configuration not loaded for proxy validate")
			}
			p := AppCfg.Telegram.Proxy
			if !p.Enabled() {
				return fmt.Errorf("no proxy configured (set telegram.proxy.address)")
			}

			validator := proxy.NewDefaultProxyValidator(proxy.NewHTTPClientFactory(0))
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Validating proxy %s (%s) against target %s...\n", p.Address, p.Type, targetURL)
			if err := validator.Validate(cmd.Context(), &p, targetURL); err != nil {
				fmt.Fprintf(out, "Validation failed: %v\n", err)
				return err
			}
			fmt.Fprintln(out, "Proxy validation successful.")
			return nil
		},
	}
	validateCmd.Flags().StringVar(&targetURL, "target-url", proxy.DefaultValidationTarget, "URL to test proxy connectivity against")
	return validateCmd
}

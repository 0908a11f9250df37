package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haytac/emoticon-bot/internal/app"
	"github.com/haytac/emoticon-bot/internal/emoticon"
	"github.com/haytac/emoticon-bot/pkg/interfaces"
)

// NewResolveCmd creates the 'resolve' command, which shows what a model reply would send.
func NewResolveCmd() *cobra.Command {
	var (
		platform string
		policy   string
	)
	cmd := &cobra.Command{
		Use:   "resolve <text>",
		Short: "Resolve emoticon markers in text and print the resulting sends",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if AppCfg == nil {
				return fmt.Errorf("configuration not loaded for resolve")
			}
			plugin, err := app.BuildPlugin(AppCfg, nil)
			if err != nil {
				return err
			}
			if policy == "" {
				policy = AppCfg.ResponsePolicy
			}
			pol, err := emoticon.ParsePolicy(policy)
			if err != nil {
				return err
			}

			res := plugin.Resolve(strings.Join(args, " "))
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "text: %q\n", res.Text)
			for _, name := range res.Unresolved {
				fmt.Fprintf(out, "unresolved: %s\n", name)
			}
			if !res.Resolved() {
				fmt.Fprintln(out, "no emoticons resolved; the reply would be sent unchanged")
				return nil
			}

			dest := interfaces.Destination{Platform: platform}
			matches := res.Matches
			if pol == emoticon.PolicyFirst {
				matches = matches[:1]
			}
			settings := plugin.Settings()
			for _, m := range matches {
				part := emoticon.ImagePart(m, dest, settings)
				target := part.Path
				if part.Kind == interfaces.PartImageURL {
					target = part.URL
				}
				fmt.Fprintf(out, "send %s: %s (%s)\n", part.Kind, target, m.Name)
			}
			if res.Text != "" {
				fmt.Fprintf(out, "send text: %q\n", res.Text)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&platform, "platform", "telegram", "platform type used to pick URL or path delivery")
	cmd.Flags().StringVar(&policy, "policy", "", "response policy: first or all (default from config)")
	return cmd
}

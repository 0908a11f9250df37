package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haytac/emoticon-bot/internal/app"
)

// NewCatalogCmd creates the 'catalog' command.
func NewCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "catalog",
		Short:   "Inspect the emoticon catalog",
		Aliases: []string{"emoticons"},
	}
	cmd.AddCommand(newCatalogListCmd())
	return cmd
}

func newCatalogListCmd() *cobra.Command {
	var rescan bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List emoticons found in the images directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			if AppCfg == nil {
				return fmt.Errorf("configuration not loaded for catalog list")
			}
			plugin, err := app.BuildPlugin(AppCfg, nil)
			if err != nil {
				return err
			}
			if rescan {
				if err := plugin.Reload(); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			catalog := plugin.Catalog()
			if catalog.Len() == 0 {
				fmt.Fprintf(out, "No emoticons found in %s.\n", catalog.Dir())
				return nil
			}
			fmt.Fprintf(out, "Emoticons in %s (%d):\n", catalog.Dir(), catalog.Len())
			for _, name := range catalog.Names() {
				entry, _ := catalog.Lookup(name)
				fmt.Fprintf(out, "  %s -> %s\n", plugin.Syntax().Format(name), entry.File)
			}
			return nil
		},
	}
	listCmd.Flags().BoolVar(&rescan, "rescan", false, "rescan the images directory after the initial load")
	return listCmd
}

package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/haytac/emoticon-bot/internal/config"
	"github.com/haytac/emoticon-bot/internal/logging"
)

var (
	cfgFile string
	envFile string
	dryRun  bool
	AppCfg  *config.AppConfig // populated in PersistentPreRunE
)

// RootCmd is the emoticon-bot command tree.
var RootCmd = NewRootCmd()

// NewRootCmd builds the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "emoticon-bot",
		Short: "A Telegram chat bot whose model replies can carry emoticon images.",
		Long: `emoticon-bot relays Telegram chats to an OpenAI-compatible chat model. The model is told
which emoticon images exist and may reference them with markers such as %smile%; the bot
strips the markers and sends the matching images alongside the text.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("error loading env file %s: %w", envFile, err)
			}

			loadedCfg, err := config.LoadConfig(cfgFile)
			if err != nil {
				return fmt.Errorf("error loading config: %w", err)
			}
			AppCfg = loadedCfg
			AppCfg.DryRun = dryRun

			logging.Setup(AppCfg.Log)
			log.Debug().Str("images_dir", AppCfg.ImagesDir).Str("settings_path", AppCfg.SettingsPath).Msg("Configuration loaded")
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml, $HOME/.emoticon-bot/config.yaml)")
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config")
	root.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "log replies instead of sending them")

	root.AddCommand(NewRunCmd())
	root.AddCommand(NewCatalogCmd())
	root.AddCommand(NewResolveCmd())
	root.AddCommand(NewPromptCmd())
	root.AddCommand(NewHistoryCmd())
	root.AddCommand(NewDbCmd())
	root.AddCommand(NewProxyCmd())
	return root
}

// Execute runs RootCmd and exits non-zero on error.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		logging.Close()
		os.Exit(1)
	}
	logging.Close()
}

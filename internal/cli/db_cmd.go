package cli

import (
	"bufio"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/haytac/emoticon-bot/internal/database"
)

// NewDbCmd creates the 'db' command for database operations.
func NewDbCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Manage the delivery history database (SQLite)",
	}
	cmd.AddCommand(newDbBackupCmd())
	cmd.AddCommand(newDbRestoreCmd())
	return cmd
}

func openDatabase() (*database.DB, error) {
	if AppCfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	if AppCfg.DatabasePath == "" {
		return nil, fmt.Errorf("database_path is not configured")
	}
	db, err := database.Connect(AppCfg.DatabasePath, true)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func newDbBackupCmd() *cobra.Command {
	var outputPath string
	backupCmd := &cobra.Command{
		Use:   "backup",
		Short: "Backup the SQLite database",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			target := outputPath
			if target == "" {
				dbDir := filepath.Dir(AppCfg.DatabasePath)
				dbName := filepath.Base(AppCfg.DatabasePath)
				timestamp := time.Now().Format("20060102-150405")
				target = filepath.Join(dbDir, fmt.Sprintf("%s-backup-%s.db", dbName, timestamp))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Backing up database from '%s' to '%s'...\n", AppCfg.DatabasePath, target)
			if err := db.Backup(cmd.Context(), target); err != nil {
				return fmt.Errorf("database backup failed: %w", err)
			}
			fmt.Fprintln(out, "Database backup successful.")
			return nil
		},
	}
	backupCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output path for the backup file (default: [db_dir]/[db_name]-backup-[timestamp].db)")
	return backupCmd
}

func newDbRestoreCmd() *cobra.Command {
	var yes bool
	restoreCmd := &cobra.Command{
		Use:   "restore <backup_file_path>",
		Short: "Restore the SQLite database from a backup file (WARNING: Overwrites current DB)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputPath := args[0]
			db, err := openDatabase()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !yes {
				fmt.Fprintf(out, "WARNING: This will overwrite the current database at '%s' with the backup from '%s'.\n", AppCfg.DatabasePath, inputPath)
				fmt.Fprint(out, "Are you sure you want to continue? (yes/no): ")
				confirm, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if strings.TrimSpace(confirm) != "yes" {
					db.Close()
					fmt.Fprintln(out, "Restore cancelled.")
					return nil
				}
			}

			fmt.Fprintln(out, "Restoring database...")
			if err := db.Restore(inputPath); err != nil {
				return fmt.Errorf("database restore failed: %w", err)
			}
			fmt.Fprintln(out, "Database restore successful. Please restart the bot if it is running.")
			return nil
		},
	}
	restoreCmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return restoreCmd
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haytac/emoticon-bot/internal/database"
)

// NewHistoryCmd creates the 'history' command for the delivery log.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect sends made on behalf of the emoticon plugin",
	}
	cmd.AddCommand(newHistoryListCmd())
	cmd.AddCommand(newHistoryStatsCmd())
	return cmd
}

func newHistoryListCmd() *cobra.Command {
	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the most recent deliveries",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			deliveries, err := database.NewDeliveryStore(db).ListRecent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("failed to list deliveries: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(deliveries) == 0 {
				fmt.Fprintln(out, "No deliveries recorded.")
				return nil
			}
			for _, d := range deliveries {
				name := "-"
				if d.Emoticon != nil {
					name = *d.Emoticon
				}
				fmt.Fprintf(out, "ID: %d, Time: %s, Chat: %s/%s, Emoticon: %s, Mode: %s, Status: %s",
					d.ID, d.CreatedAt.Format("2006-01-02 15:04:05"), d.Platform, d.ConversationID, name, d.Mode, d.Status)
				if d.Error != nil {
					fmt.Fprintf(out, ", Error: %s", *d.Error)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	listCmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of deliveries to show")
	return listCmd
}

func newHistoryStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show how often each emoticon was sent",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			counts, err := database.NewDeliveryStore(db).CountByEmoticon(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to count deliveries: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(counts) == 0 {
				fmt.Fprintln(out, "No emoticons sent yet.")
				return nil
			}
			for _, c := range counts {
				fmt.Fprintf(out, "%s: %d\n", c.Emoticon, c.Count)
			}
			return nil
		},
	}
}

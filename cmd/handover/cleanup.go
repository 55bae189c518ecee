package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	cleanupDays    int
	cleanupSession string
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Purge old finished sessions",
	Long: `Remove finished sessions and their artifacts from the database.

Only completed, failed, and canceled sessions are purged; running and
suspended sessions are always kept. The retention window defaults to
the storage.retention_days config value.

Examples:
  handover cleanup                     # purge per the configured retention
  handover cleanup --days 7            # purge finished sessions older than a week
  handover cleanup --session hs_ab12   # delete one session outright`,
	RunE: runCleanup,
}

func init() {
	cleanupCmd.Flags().IntVar(&cleanupDays, "days", 0, "Retention in days (0 = use config)")
	cleanupCmd.Flags().StringVar(&cleanupSession, "session", "", "Delete a single session by ID")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	if cleanupSession != "" {
		if err := a.db.DeleteSession(cleanupSession); err != nil {
			return err
		}
		a.signals.Clear(cleanupSession)
		fmt.Printf("Deleted session %s.\n", cleanupSession)
		return nil
	}

	days := cleanupDays
	if days <= 0 {
		days = a.cfg.Storage.RetentionDays
	}

	count, err := a.db.PurgeOldSessions(time.Duration(days) * 24 * time.Hour)
	if err != nil {
		return err
	}
	fmt.Printf("Purged %d finished session(s) older than %d days.\n", count, days)
	return nil
}

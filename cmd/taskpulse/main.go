// TaskPulse daemon - background task notification service
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/taskpulse/taskpulse/internal/api"
	"github.com/taskpulse/taskpulse/internal/holiday"
	"github.com/taskpulse/taskpulse/internal/listener"
	"github.com/taskpulse/taskpulse/internal/logging"
	"github.com/taskpulse/taskpulse/internal/notify"
	"github.com/taskpulse/taskpulse/internal/scheduler"
	"github.com/taskpulse/taskpulse/internal/storage"
)

var (
	dataDir     string
	port        int
	holidayFile string
	logLevel    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "taskpulse",
		Short: "TaskPulse - task reports, reminders and daily todos",
		RunE:  runDaemon,
	}

	home, _ := os.UserHomeDir()
	defaultDataDir := filepath.Join(home, ".taskpulse")

	rootCmd.Flags().StringVar(&dataDir, "data-dir", defaultDataDir, "Data directory")
	rootCmd.Flags().IntVar(&port, "port", 8080, "HTTP server port")
	rootCmd.Flags().StringVar(&holidayFile, "holiday-file", "", "Holiday calendar YAML (built-in calendar if empty)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runDaemon(cmd *cobra.Command, args []string) error {
	logging.SetLevel(logging.ParseLevel(logLevel))
	log := logging.WithField("component", "daemon")

	log.Info("starting TaskPulse daemon")

	// Open database
	dbPath := filepath.Join(dataDir, "taskpulse.db")
	db, err := storage.Open(storage.Config{Path: dbPath})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	settings := storage.NewSettingsStore(db)

	// Holiday calendar
	calendar := holiday.Default()
	if holidayFile != "" {
		calendar, err = holiday.LoadFile(holidayFile)
		if err != nil {
			return fmt.Errorf("load holiday calendar: %w", err)
		}
		log.Info("holiday calendar loaded from %s", holidayFile)
	}

	notifier := notify.NewService(db)
	sched := scheduler.NewScheduler()

	lst := listener.NewService(settings, notifier, calendar, sched,
		logging.WithField("component", "listener"))
	if err := lst.Start(); err != nil {
		return fmt.Errorf("register listener loops: %w", err)
	}
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	if userID := settings.Get(storage.KeyUserID, ""); userID != "" {
		log.Info("user: %s", userID)
	} else {
		log.Warn("no user configured yet - set one via PUT /api/v1/settings")
	}

	// Create and start API server
	server := api.New(api.Config{
		Port:     port,
		DB:       db,
		Settings: settings,
		Notifier: notifier,
		Listener: lst,
		Sched:    sched,
	})

	// Handle shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		log.Info("shutting down")
		sched.Stop()
		server.Stop(context.Background())
	}()

	// Start server (blocks)
	log.Info("listening on http://localhost:%d", port)
	return server.Start()
}

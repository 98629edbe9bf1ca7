package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"evs-comms/backend/internal/config"
	"evs-comms/backend/internal/logging"
	"evs-comms/backend/internal/repository"
	"evs-comms/backend/internal/services"
	"evs-comms/backend/pkg/models"
)

// sampleMessages is a typical morning on the EVS channel.
var sampleMessages = []models.MessageInput{
	{Sender: "Maria Lopez", Content: "Good morning team, starting rounds on floor 3."},
	{Sender: "Dr. Chen", Content: "Urgent: spill in room 302, please clean up ASAP"},
	{Sender: "James Park", Content: "Need to restock supplies in the ICU by 2pm"},
	{Sender: "Maria Lopez", Content: "Room 302 also needs fresh linens after discharge"},
	{Sender: "Nurse Patel", Content: "Emergency: biohazard cleanup required in room 305"},
	{Sender: "Supervisor Kim", Content: "Reminder: please empty the trash on floor 2 before the routine inspection"},
}

func main() {
	var envFile string

	cmd := &cobra.Command{
		Use:          "evs-seed",
		Short:        "Create the task schema and replay sample EVS messages",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return seed(cmd.Context(), envFile)
		},
	}
	cmd.Flags().StringVar(&envFile, "env", "", "path to .env file")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func seed(ctx context.Context, envFile string) error {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := logging.NewLogger(cfg.Logging.Debug)
	defer func() { _ = logger.Sync() }()

	tasks, closeTasks, err := repository.OpenTaskStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open task store: %w", err)
	}
	defer closeTasks()
	logger.Info("Task schema ready", "driver", cfg.Tasks.Driver)

	svc, err := services.NewCommunicationService(tasks, services.CannedCompleter{}, nil, logger, services.Options{})
	if err != nil {
		return err
	}

	for _, in := range sampleMessages {
		msg, err := svc.ProcessMessage(ctx, in)
		if err != nil {
			return fmt.Errorf("failed to process message from %s: %w", in.Sender, err)
		}
		logger.Info("Replayed message",
			"id", msg.ID,
			"priority", msg.Priority,
			"tasks", len(msg.ExtractedTasks),
			"workflows", msg.WorkflowTriggers,
		)
	}

	created, err := svc.Tasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}
	coverage, err := svc.CoverageRequests(ctx)
	if err != nil {
		return fmt.Errorf("failed to list coverage requests: %w", err)
	}
	logger.Info("Seeding complete", "tasks", len(created), "coverage_requests", len(coverage))
	return nil
}

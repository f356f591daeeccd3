package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dennissolver/LaunchReady-sub000/pkg/database"
	"github.com/dennissolver/LaunchReady-sub000/pkg/discovery"
	"github.com/dennissolver/LaunchReady-sub000/pkg/models"
	"github.com/dennissolver/LaunchReady-sub000/pkg/repositories"
	"github.com/dennissolver/LaunchReady-sub000/pkg/services"
)

var discoverFlags struct {
	project  string
	file     string
	summary  string
	operator string
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Run a discovery pass for a project from the shell",
	Long: "Classifies the transcript from --file (or stdin) plus an optional --summary,\n" +
		"reconciles the Findings into the project's protection items and records\n" +
		"an evidence event with source \"cli\". Ownership is not checked.",
	RunE: runDiscover,
}

func init() {
	f := discoverCmd.Flags()
	f.StringVarP(&discoverFlags.project, "project", "p", "", "Project ID (required)")
	f.StringVarP(&discoverFlags.file, "file", "f", "", "Transcript file (stdin when omitted)")
	f.StringVar(&discoverFlags.summary, "summary", "", "Conversation summary")
	f.StringVar(&discoverFlags.operator, "operator", os.Getenv("USER"), "Operator recorded on the evidence event")

	_ = discoverCmd.MarkFlagRequired("project")
}

func runDiscover(cmd *cobra.Command, _ []string) error {
	projectID, err := uuid.Parse(discoverFlags.project)
	if err != nil {
		return fmt.Errorf("invalid --project: %w", err)
	}

	transcript := ""
	if discoverFlags.file != "" || discoverFlags.summary == "" {
		transcript, err = readText("", discoverFlags.file, cmd.InOrStdin())
		if err != nil {
			return err
		}
	}
	if transcript == "" && discoverFlags.summary == "" {
		return errors.New("no transcript or summary to process")
	}

	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	db, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	scopes := services.WithProvenanceWrapper(services.NewTenantContextFunc(db), models.SourceCLI, discoverFlags.operator)
	itemRepo := repositories.NewProtectionItemRepository()
	projectService := services.NewProjectService(repositories.NewProjectRepository(), logger)
	reconciler := services.NewReconciler(itemRepo, database.NewTenantScopeProvider(db), services.ReconcilerOptions{
		Parallelism:    cfg.Discovery.Parallelism,
		FuzzyNameMatch: cfg.Discovery.FuzzyNameMatch,
	}, logger)
	discoveryService := services.NewDiscoveryService(
		projectService,
		discovery.NewClassifier(nil),
		reconciler,
		services.NewSessionLogger(repositories.NewEvidenceRepository(), logger),
		scopes,
		services.DiscoveryOptions{CompleteOnEmpty: cfg.Discovery.CompleteOnEmpty},
		logger,
	)

	outcome, err := discoveryService.Process(ctx, &models.DiscoveryRequest{
		ProjectID:  projectID,
		Transcript: transcript,
		Summary:    discoverFlags.summary,
		Metadata:   map[string]interface{}{"operator": discoverFlags.operator},
		Source:     models.SourceCLI,
	})
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(outcome)
}

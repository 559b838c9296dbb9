package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-pipeline/internal/pipeline"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the full job pipeline once",
	Long: `Executes one pipeline run end-to-end: discovery -> import -> scoring -> selection -> tailoring -> PDF generation.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runPipelineCmd,
}

var (
	runConfigPath  string
	runSearchTerm  string
	runLocation    string
	runSources     []string
	runTopN        int
	runMinScore    float64
	runForce       bool
	runProfilePath string
	runAPIKey      string
	runDatabaseURL string
	runVerbose     bool
)

func init() {
	runCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	runCommand.Flags().StringVarP(&runSearchTerm, "search", "s", "", "Search term for job discovery")
	runCommand.Flags().StringVarP(&runLocation, "location", "l", "", "Location filter for job discovery")
	runCommand.Flags().StringSliceVar(&runSources, "sources", nil, "Job sources to crawl (e.g. indeed,linkedin)")
	runCommand.Flags().IntVar(&runTopN, "top-n", 0, "Maximum candidates to process")
	runCommand.Flags().Float64Var(&runMinScore, "min-score", 0, "Minimum suitability score for selection")
	runCommand.Flags().BoolVar(&runForce, "force", false, "Regenerate tailored content even when cached")
	runCommand.Flags().StringVarP(&runProfilePath, "profile", "p", "", "Path to candidate profile JSON")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print detailed debug information")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	runCommand.Flags().StringVar(&runAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	runCommand.Flags().StringVar(&runDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(runCommand)
}

func runPipelineCmd(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfigFile(runConfigPath)
	if err != nil {
		return err
	}

	// Only override config values when the flag was explicitly set.
	if cmd.Flags().Changed("profile") {
		cfg.ProfilePath = runProfilePath
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = runAPIKey
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = runDatabaseURL
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = runVerbose
	}

	overrides := pipeline.Overrides{
		SearchTerm: runSearchTerm,
		Location:   runLocation,
		Sources:    runSources,
	}
	if cmd.Flags().Changed("top-n") {
		overrides.TopN = &runTopN
	}
	if cmd.Flags().Changed("min-score") {
		overrides.MinScore = &runMinScore
	}
	if cmd.Flags().Changed("force") {
		overrides.Force = &runForce
	}

	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.engine.Start(ctx, overrides)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Run %s completed\n", result.RunID)
	fmt.Fprintf(os.Stdout, "  found:     %d\n", result.JobsFound)
	fmt.Fprintf(os.Stdout, "  imported:  %d (%d duplicates skipped)\n", result.JobsImported, result.JobsSkipped)
	fmt.Fprintf(os.Stdout, "  scored:    %d\n", result.JobsScored)
	fmt.Fprintf(os.Stdout, "  selected:  %d\n", result.CandidatesSelected)
	fmt.Fprintf(os.Stdout, "  processed: %d\n", result.JobsProcessed)
	for _, warning := range result.Warnings {
		fmt.Fprintf(os.Stdout, "  warning: %s\n", warning)
	}
	return nil
}

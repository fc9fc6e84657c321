package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aaronchenweb/apiscan/internal/report"
	"github.com/aaronchenweb/apiscan/internal/store"
	"github.com/aaronchenweb/apiscan/pkg/analyzer"
)

var (
	version = "1.0.0"

	// Global flags
	configFile string
	verbose    bool
	debug      bool

	// Analyze flags
	workers        int
	frameworkHint  string
	outputFile     string
	compactOutput  bool
	filesPerSecond float64
	noDedup        bool
	noHistory      bool

	// History flags
	historyDB    string
	historyLimit int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "apiscan",
		Short: "apiscan - Web API Source Auditor",
		Long: `apiscan - A heuristic auditor for web API source trees.

Scans Python web-API codebases, extracts route registrations, and scores
RESTful conventions, versioning discipline, and authentication hygiene.
Supports Flask, Django, and FastAPI routing styles.`,
		Version: version,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [root]",
		Short: "Analyze a source tree",
		Long:  "Analyze a source tree and produce a severity-scored API report.",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyze,
	}

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Work with stored reports",
	}

	historyListCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored reports",
		RunE:  runHistoryList,
	}

	historyShowCmd := &cobra.Command{
		Use:   "show [key]",
		Short: "Show a stored report",
		Long:  "Show a stored report by key. With no key, shows the most recent one.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runHistoryShow,
	}

	historyDeleteCmd := &cobra.Command{
		Use:   "delete [key]",
		Short: "Delete a stored report",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryDelete,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Debug mode")
	rootCmd.PersistentFlags().StringVar(&historyDB, "db", ".apiscan_history.db", "Report history database")

	// Analyze flags
	analyzeCmd.Flags().IntVarP(&workers, "workers", "w", 8, "Number of concurrent scan workers")
	analyzeCmd.Flags().StringVarP(&frameworkHint, "framework", "f", "", "Framework hint (flask, django, fastapi)")
	analyzeCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	analyzeCmd.Flags().BoolVar(&compactOutput, "compact", false, "Compact JSON output")
	analyzeCmd.Flags().Float64Var(&filesPerSecond, "rate-limit", 0, "File reads per second (0 = unlimited)")
	analyzeCmd.Flags().BoolVar(&noDedup, "no-dedup", false, "Disable duplicate-content filtering")
	analyzeCmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record the report in history")

	// History flags
	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum reports to list")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(historyCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	root := args[0]

	config := analyzer.DefaultConfig()
	if configFile != "" {
		fileConfig, err := analyzer.LoadFromFile(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config file: %w", err)
		}
		config = fileConfig
	}

	config.Root = root

	// Command-line flags take precedence over the config file.
	if cmd.Flags().Changed("workers") {
		config.Workers = workers
	}
	if cmd.Flags().Changed("framework") {
		config.Framework = frameworkHint
	}
	if cmd.Flags().Changed("rate-limit") {
		config.FilesPerSecond = filesPerSecond
	}
	if noDedup {
		config.NoDedup = true
	}
	if compactOutput {
		config.Output.Pretty = false
	}
	config.Verbose = verbose
	config.Debug = debug

	var out io.Writer = os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	a, err := analyzer.New(
		analyzer.WithConfig(config),
		analyzer.WithOutput(out),
	)
	if err != nil {
		return fmt.Errorf("failed to create analyzer: %w", err)
	}

	// Setup signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Fprintf(os.Stderr, "\nReceived interrupt signal, stopping...\n")
		cancel()
	}()

	startTime := time.Now()
	rep, err := a.Run(ctx)
	duration := time.Since(startTime)

	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	if rep == nil {
		return nil
	}

	if !noHistory {
		if err := saveToHistory(rep); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to record history: %v\n", err)
		}
	}

	if outputFile != "" || verbose {
		printSummary(rep, duration)
	}

	return nil
}

func saveToHistory(rep *report.AnalysisReport) error {
	hs, err := store.Open(historyDB)
	if err != nil {
		return err
	}
	defer hs.Close()

	_, err = hs.Save(rep)
	return err
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	hs, err := store.Open(historyDB)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer hs.Close()

	summaries, err := hs.List(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}
	if len(summaries) == 0 {
		fmt.Println("No stored reports.")
		return nil
	}

	fmt.Printf("%-22s %-10s %-6s %-7s %-8s %s\n",
		"KEY", "FRAMEWORK", "EPS", "ISSUES", "RESTFUL", "ROOT")
	for _, s := range summaries {
		fmt.Printf("%-22s %-10s %-6d %-7d %-8d %s\n",
			s.Key, s.Framework, s.Endpoints, s.Issues, s.RESTfulScore, s.Root)
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	hs, err := store.Open(historyDB)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer hs.Close()

	var rep *report.AnalysisReport
	if len(args) == 1 {
		rep, err = hs.Get(args[0])
	} else {
		var entry *store.Entry
		entry, err = hs.Latest()
		if entry != nil {
			rep = entry.Report
		}
	}
	if err != nil {
		return fmt.Errorf("failed to load report: %w", err)
	}

	printSummary(rep, rep.Stats.Duration)
	return nil
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	hs, err := store.Open(historyDB)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer hs.Close()

	if err := hs.Delete(args[0]); err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	fmt.Printf("Deleted %s\n", args[0])
	return nil
}

func printSummary(rep *report.AnalysisReport, duration time.Duration) {
	fmt.Fprintln(os.Stderr)
	fmt.Fprintf(os.Stderr, "Analysis Summary\n")
	fmt.Fprintf(os.Stderr, "----------------\n")
	fmt.Fprintf(os.Stderr, "Root:           %s\n", rep.Root)
	fmt.Fprintf(os.Stderr, "Framework:      %s\n", rep.Framework)
	fmt.Fprintf(os.Stderr, "Duration:       %v\n", duration.Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "Files Scanned:  %d\n", rep.Stats.FilesScanned)
	fmt.Fprintf(os.Stderr, "Endpoints:      %d\n", len(rep.Endpoints))
	fmt.Fprintf(os.Stderr, "Versioning:     %s\n", rep.Versioning.Scheme)
	fmt.Fprintf(os.Stderr, "Issues:         %d\n", len(rep.Issues))
	fmt.Fprintf(os.Stderr, "RESTful Score:  %d/100\n", rep.Scores.RESTful)
	fmt.Fprintf(os.Stderr, "Auth Score:     %d/100 (%s)\n", rep.Scores.Auth, rep.Scores.AuthGrade)

	if len(rep.Issues) > 0 {
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Top Issues:")
		count := 10
		if len(rep.Issues) < count {
			count = len(rep.Issues)
		}
		for i := 0; i < count; i++ {
			issue := rep.Issues[i]
			fmt.Fprintf(os.Stderr, "  [%s] %s (%s)\n", issue.Severity, issue.Description, issue.Location)
		}
		if len(rep.Issues) > 10 {
			fmt.Fprintf(os.Stderr, "  ... and %d more\n", len(rep.Issues)-10)
		}
	}
	fmt.Fprintln(os.Stderr)
}

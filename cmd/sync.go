package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"datasync/core/config"
	"datasync/core/database"
	"datasync/core/gateway"
	"datasync/core/logger"
	"datasync/core/storage"
	"datasync/core/sync"
	"datasync/feature/snapshot"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for sync run
	yesConfirm bool
	rotateLog  bool
)

// syncCmd is the parent command for all sync operations.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Compare and apply changes between the local snapshot and the remote table",
	Long: `Compare the local feature snapshot against the remote spatial table, review
the classified differences, and apply the approved changes.`,
}

// censusCmd takes both censuses without comparing.
var censusCmd = &cobra.Command{
	Use:   "census",
	Short: "Load both tables and report feature and key quality counts",
	RunE:  runCensus,
}

// compareCmd runs the compare pipeline and prints the grouped results.
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Upload the snapshot and run the remote comparison (report only)",
	Long: `Upload the local snapshot to staging and invoke the remote compare
procedure. Reports per-type counts; makes no change to the remote table.`,
	RunE: runCompare,
}

// runCmd runs compare and then applies the differences.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Compare and apply the approved changes to the remote table",
	Long: `Compare the local snapshot against the remote table and, after
confirmation, invoke the remote update procedure.

Rows classified empty, error or orphan are skipped by the remote update;
when any are present an explicit confirmation is required before the run.

Examples:
  # Report and apply with interactive confirmation
  datasync sync run

  # Apply with auto-confirm (non-interactive)
  datasync sync run --yes

  # Archive the previous run log before the run
  datasync sync run --rotate-log --yes`,
	RunE: runApply,
}

func init() {
	runCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm applying past warning rows (non-interactive)")
	runCmd.Flags().BoolVar(&rotateLog, "rotate-log", false, "Archive the previous run log before the run")

	syncCmd.AddCommand(censusCmd)
	syncCmd.AddCommand(compareCmd)
	syncCmd.AddCommand(runCmd)
	RootCmd.AddCommand(syncCmd)
}

// buildSession wires a sync session from configuration.
func buildSession() (*sync.Session, *zap.Logger, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to storage: %w", err)
	}

	gw := gateway.New(db, l, cfg.Sync.TimeoutSeconds)
	src := snapshot.NewSource(client, cfg.Storage.Bucket, cfg.Sync.SnapshotObject, l)

	session, err := sync.NewSession(cfg.Sync, cfg.Runlog, gw, db, src, client, cfg.Storage.Bucket, l)
	if err != nil {
		return nil, nil, err
	}
	return session, l, nil
}

func runCensus(cmd *cobra.Command, args []string) error {
	session, l, err := buildSession()
	if err != nil {
		return err
	}

	if err := session.Load(context.Background()); err != nil {
		return err
	}

	printCensus(l, session)
	return nil
}

func runCompare(cmd *cobra.Command, args []string) error {
	session, l, err := buildSession()
	if err != nil {
		return err
	}
	ctx := context.Background()

	l.Info("Loading tables")
	if err := session.Load(ctx); err != nil {
		return err
	}
	printCensus(l, session)

	l.Info("Comparing tables")
	result, err := session.Compare(ctx)
	if err != nil {
		return err
	}

	printCompareReport(l, result)
	return nil
}

func runApply(cmd *cobra.Command, args []string) error {
	session, l, err := buildSession()
	if err != nil {
		return err
	}
	ctx := context.Background()

	l.Info("Loading tables")
	if err := session.Load(ctx); err != nil {
		return err
	}
	printCensus(l, session)

	l.Info("Comparing tables")
	result, err := session.Compare(ctx)
	if err != nil {
		return err
	}
	printCompareReport(l, result)

	if result.Identical {
		l.Info("Tables are identical. Nothing to apply.")
		return nil
	}

	confirmed := true
	if sync.HasWarningTypes(result.Summaries) {
		l.Warn("Comparison contains empty, error or orphaned features; these rows will NOT be updated.")
		confirmed = confirmApply()
		if !confirmed {
			l.Warn("Run cancelled by user. No changes were made.")
			return nil
		}
	}

	l.Info("Applying changes...")
	outcome, err := session.Run(ctx, sync.ApplyOptions{
		Confirmed: confirmed,
		RotateLog: rotateLog,
	})
	if err != nil {
		return err
	}

	switch outcome.Outcome {
	case sync.OutcomeSuccess:
		l.Info(outcome.Message, zap.String("log", outcome.LogPath))
	default:
		l.Error(outcome.Message, zap.String("log", outcome.LogPath))
	}
	return nil
}

// printCensus reports the load results using the logger.
func printCensus(l *zap.Logger, session *sync.Session) {
	census := session.Census()
	if census == nil {
		return
	}
	l.Info("Table census",
		zap.Int64("local_features", census.Local.FeatureCount),
		zap.Int64("local_blank_keys", census.Local.BlankKeyCount),
		zap.Int64("local_duplicate_keys", census.Local.DuplicateKeyCount),
		zap.Int64("remote_features", census.Remote.FeatureCount),
		zap.Int64("remote_blank_keys", census.Remote.BlankKeyCount),
		zap.Int64("remote_duplicate_keys", census.Remote.DuplicateKeyCount),
	)
	for _, w := range session.Warnings() {
		l.Warn("Key quality warning", zap.String("warning", w))
	}
}

// printCompareReport prints the grouped comparison summary.
func printCompareReport(l *zap.Logger, result *sync.CompareResult) {
	if result.Identical {
		l.Info("Comparison report: tables are identical")
		return
	}

	l.Info("Comparison report",
		zap.Int("differences", len(result.Rows)),
		zap.Int("groups", len(result.Summaries)),
	)
	for _, s := range result.Summaries {
		l.Info("Result group",
			zap.String("type", s.ResultType),
			zap.String("description", s.Description),
			zap.Int("count", s.Count),
		)
	}
}

// confirmApply prompts the user for confirmation or uses the --yes flag.
func confirmApply() bool {
	if yesConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Print("\n⚠️  Type 'yes' to apply despite warning rows: ")
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(response)
	return response == "yes"
}

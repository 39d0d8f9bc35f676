package sync

import (
	"context"
	"errors"
	"strings"
	"sync"

	"datasync/core/database"
	"datasync/core/gateway"
	"datasync/core/runlog"
	"datasync/core/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// targetLocks serializes operations across sessions that aim at the same
// (schema, remote table) pair. Staging tables are scoped to the target, not
// the session, so concurrent runs against one target would corrupt each
// other's artifacts.
var targetLocks = struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}{locks: make(map[string]*sync.Mutex)}

func lockTarget(target string) *sync.Mutex {
	targetLocks.mu.Lock()
	l, ok := targetLocks.locks[target]
	if !ok {
		l = &sync.Mutex{}
		targetLocks.locks[target] = l
	}
	targetLocks.mu.Unlock()
	l.Lock()
	return l
}

// Engine owns the compare/apply run state machine for one session.
// At most one operation is in flight at a time; re-entrant calls are
// rejected with a busy error rather than queued.
type Engine struct {
	mu   sync.Mutex
	busy bool

	state RunState
	gw    gateway.Gateway
	db    *gorm.DB
	stage *StagingManager
	src   SnapshotSource
	log   *runlog.Writer

	logger *zap.Logger
	cfg    Config

	onStateChanged func(RunState)
	clearSelection func()

	features    []Feature
	census      *Census
	warnings    []string
	compare     *CompareResult
	lastOutcome Outcome
	lastMessage string
}

// Option configures an Engine.
type Option func(*Engine)

// WithStateObserver registers a callback invoked on every state transition.
// The callback must not call back into the engine.
func WithStateObserver(f func(RunState)) Option {
	return func(e *Engine) { e.onStateChanged = f }
}

// WithSelectionClearer registers the cosmetic hook that clears any local
// selection/highlight state before a compare.
func WithSelectionClearer(f func()) Option {
	return func(e *Engine) { e.clearSelection = f }
}

// NewEngine creates an engine for one sync target.
func NewEngine(gw gateway.Gateway, db *gorm.DB, src SnapshotSource, log *runlog.Writer, logger *zap.Logger, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		state:  StateIdle,
		gw:     gw,
		db:     db,
		stage:  NewStagingManager(gw, cfg, logger),
		src:    src,
		log:    log,
		logger: logger,
		cfg:    cfg,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the current run state.
func (e *Engine) State() RunState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Census returns the censuses of the last load, or nil before one.
func (e *Engine) Census() *Census {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.census
}

// Warnings returns the key quality warnings of the last load.
func (e *Engine) Warnings() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.warnings
}

// LastCompare returns the pending comparison result, or nil.
func (e *Engine) LastCompare() *CompareResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.compare
}

// LastOutcome returns the outcome and message of the last apply run.
func (e *Engine) LastOutcome() (Outcome, string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastOutcome, e.lastMessage
}

// setState must be called with e.mu held.
func (e *Engine) setState(s RunState) {
	e.state = s
	if e.onStateChanged != nil {
		e.onStateChanged(s)
	}
}

// begin rejects re-entrant calls and wrong-state entries, then transitions
// into the operation state.
func (e *Engine) begin(op RunState, allowed ...RunState) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.busy {
		return newError(KindBusy, nil, "an operation is already in progress")
	}
	ok := false
	for _, a := range allowed {
		if e.state == a {
			ok = true
			break
		}
	}
	if !ok {
		return newError(KindState, nil, "operation %s is not allowed from state %s", op, e.state)
	}

	e.busy = true
	e.setState(op)
	return nil
}

// transition changes state mid-operation.
func (e *Engine) transition(s RunState) {
	e.mu.Lock()
	e.setState(s)
	e.mu.Unlock()
}

// finish releases the busy flag and settles into the final state.
func (e *Engine) finish(s RunState) {
	e.mu.Lock()
	e.busy = false
	e.setState(s)
	e.mu.Unlock()
}

// kindFor classifies a gateway error, preserving timeouts.
func kindFor(err error, fallback Kind) Kind {
	if errors.Is(err, gateway.ErrTimedOut) {
		return KindTimedOut
	}
	return fallback
}

// LoadTables takes the local and remote censuses concurrently and stores the
// snapshot for the next compare. Both loads always run to completion; a
// failure in one does not cancel the other, and both results are inspected
// only after both finish. Any pending comparison result is discarded.
func (e *Engine) LoadTables(ctx context.Context) error {
	if err := e.begin(StateTablesLoading, StateIdle, StateTablesLoaded, StateCompared, StateApplied); err != nil {
		return err
	}

	var (
		features  []Feature
		local     TableCensus
		remote    TableCensus
		localErr  error
		remoteErr error
		wg        sync.WaitGroup
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		features, localErr = e.src.Load(ctx)
		if localErr == nil {
			local = takeLocalCensus(features)
		}
	}()
	go func() {
		defer wg.Done()
		remote, remoteErr = takeRemoteCensus(ctx, e.gw, e.cfg)
	}()
	wg.Wait()

	if localErr != nil || remoteErr != nil {
		e.finish(StateIdle)
		if localErr != nil && remoteErr != nil {
			return newError(KindLoad, errors.Join(localErr, remoteErr), "failed to load local and remote tables")
		}
		if localErr != nil {
			return newError(kindFor(localErr, KindLoad), localErr, "failed to load local snapshot")
		}
		return newError(kindFor(remoteErr, KindLoad), remoteErr, "failed to load remote table")
	}

	census := &Census{Local: local, Remote: remote}
	warnings := censusWarnings(census)

	e.mu.Lock()
	e.features = features
	e.census = census
	e.warnings = warnings
	e.compare = nil
	e.mu.Unlock()

	for _, w := range warnings {
		e.logger.Warn("Key quality warning", zap.String("warning", w))
	}
	e.logger.Info("Tables loaded",
		zap.Int64("local_features", local.FeatureCount),
		zap.Int64("remote_features", remote.FeatureCount))

	e.finish(StateTablesLoaded)
	return nil
}

// Compare uploads the snapshot to staging, invokes the remote compare
// procedure and aggregates its results. It is only allowed from the
// tables-loaded state and is idempotent: every run re-derives the result set
// from scratch and discards the previous one.
func (e *Engine) Compare(ctx context.Context) (*CompareResult, error) {
	if err := e.begin(StateComparing, StateTablesLoaded); err != nil {
		return nil, err
	}
	lock := lockTarget(e.cfg.Target())
	defer lock.Unlock()

	e.mu.Lock()
	features := e.features
	e.compare = nil
	e.mu.Unlock()

	// Cosmetic: drop any local selection before results replace it.
	if e.clearSelection != nil {
		e.clearSelection()
	}

	fail := func(err error) (*CompareResult, error) {
		e.finish(StateTablesLoaded)
		return nil, err
	}

	// Validate addressed columns before any destructive remote call so the
	// user sees which column is missing, not a generic failure.
	missing, err := database.MissingColumns(e.db, e.cfg.QualifiedRemote(), e.cfg.KeyColumn, e.cfg.SpatialColumn)
	if err != nil {
		return fail(newError(KindLoad, err, "could not inspect remote table %s", e.cfg.QualifiedRemote()))
	}
	if len(missing) > 0 {
		return fail(newError(KindLoad, nil, "remote table %s is missing column(s): %s",
			e.cfg.QualifiedRemote(), strings.Join(missing, ", ")))
	}

	if err := e.stage.PrepareForCompare(ctx, features); err != nil {
		return fail(err)
	}
	if err := e.stage.EnsureRemoteTable(ctx); err != nil {
		return fail(err)
	}

	err = e.gw.Execute(ctx, e.cfg.CompareProcedure,
		e.cfg.Schema,
		e.cfg.resultsTableName(),
		e.cfg.RemoteTable,
		e.cfg.KeyColumn,
		e.cfg.SpatialColumn,
	)
	if err != nil {
		return fail(newError(kindFor(err, KindComparison), err, "comparison procedure failed"))
	}

	results := e.cfg.QualifiedResults()
	if !e.gw.TableExists(ctx, results) {
		// The compare procedure reported success but produced no output;
		// treated as a hard failure.
		return fail(newError(KindComparison, nil, "results table %s was not produced by the comparison", results))
	}

	count := e.gw.RowCount(ctx, results)
	if count < 0 {
		return fail(newError(KindComparison, nil, "could not determine row count of results table %s", results))
	}

	result := &CompareResult{Summaries: []ResultSummary{}}
	if count == 0 {
		result.Identical = true
		e.logger.Info("Tables are identical", zap.String("target", e.cfg.Target()))
	} else {
		cols := e.cfg.ResultColumns
		raw, err := e.gw.QueryRows(ctx, results, cols.All(), []string{cols.Type, cols.Order})
		if err != nil {
			return fail(newError(kindFor(err, KindComparison), err, "failed to read results table %s", results))
		}
		result.Rows = parseComparisonRows(raw, cols)
		result.Summaries = Aggregate(result.Rows)
		e.logger.Info("Comparison completed",
			zap.Int("differences", len(result.Rows)),
			zap.Int("groups", len(result.Summaries)))
	}

	e.mu.Lock()
	e.compare = result
	e.mu.Unlock()

	e.finish(StateCompared)
	return result, nil
}

// ApplyOptions controls one apply run.
type ApplyOptions struct {
	// Confirmed indicates the user explicitly confirmed applying past the
	// empty/error/orphan warning gate. Without it the run aborts with no
	// side effects when warning types are pending.
	Confirmed bool

	// RotateLog archives the previous run log before the run.
	RotateLog bool
}

// Apply invokes the remote update procedure for a pending non-identical
// comparison, verifies the result, reloads both censuses and unconditionally
// cleans up staging artifacts. Procedure failures do not surface as errors;
// they are folded into the three-way outcome so the caller can pick severity
// and decide whether to surface the run log.
func (e *Engine) Apply(ctx context.Context, opts ApplyOptions) (*ApplyResult, error) {
	if err := e.begin(StateApplying, StateCompared); err != nil {
		return nil, err
	}
	lock := lockTarget(e.cfg.Target())
	defer lock.Unlock()

	e.mu.Lock()
	cmp := e.compare
	census := e.census
	e.mu.Unlock()

	if cmp == nil || cmp.Identical {
		e.finish(StateCompared)
		return nil, newError(KindState, nil, "there are no differences to apply")
	}

	// Hard gate: the update procedure silently skips empty/error/orphan
	// rows, so the user must acknowledge them before anything runs.
	if HasWarningTypes(cmp.Summaries) && !opts.Confirmed {
		e.finish(StateCompared)
		return nil, newError(KindConfirmation, nil,
			"comparison contains empty, error or orphaned features that will not be updated; explicit confirmation is required")
	}

	var rotated string
	if opts.RotateLog {
		var err error
		if rotated, err = e.log.Rotate(); err != nil {
			e.logger.Warn("Run log rotation failed", zap.Error(err))
		}
	}
	e.writeRunHeader(census, cmp)

	syncErrors := false

	err := e.gw.Execute(ctx, e.cfg.UpdateProcedure,
		e.cfg.Schema,
		e.cfg.RemoteTable,
		e.cfg.KeyColumn,
		e.cfg.SpatialColumn,
	)
	if err != nil {
		syncErrors = true
		e.logger.Error("Update procedure failed", zap.Error(err))
		e.logAppend("update procedure failed: %v", err)
	}

	// Defense against a partially executed procedure leaving no output:
	// absence of the remote table is a failure even after a reported success.
	if !e.gw.TableExists(ctx, e.cfg.QualifiedRemote()) {
		syncErrors = true
		e.logAppend("remote table %s missing after update", e.cfg.QualifiedRemote())
	}

	reloadErr := e.reloadCensus(ctx)
	if reloadErr != nil {
		e.logger.Error("Post-apply reload failed", zap.Error(reloadErr))
		e.logAppend("post-apply reload failed: %v", reloadErr)
	}

	// Cleanup always runs exactly once; its failure never changes the
	// outcome already determined by the apply path.
	e.transition(StateCleaningUp)
	if cerr := e.stage.Cleanup(ctx); cerr != nil {
		e.logger.Warn("Staging cleanup failed", zap.Error(cerr))
		e.logAppend("staging cleanup failed: %v", cerr)
	}

	outcome := OutcomeSuccess
	message := "sync completed successfully"
	switch {
	case syncErrors:
		outcome = OutcomeErrors
		message = "sync ended with errors"
	case reloadErr != nil:
		outcome = OutcomeUnexpected
		message = "sync ended unexpectedly"
	}
	e.logAppend("%s", message)

	e.mu.Lock()
	e.compare = nil
	e.lastOutcome = outcome
	e.lastMessage = message
	e.mu.Unlock()

	e.finish(StateApplied)
	return &ApplyResult{
		Outcome:    outcome,
		Message:    message,
		LogPath:    e.log.Path(),
		RotatedLog: rotated,
	}, nil
}

// reloadCensus refreshes both censuses after an apply so callers see the new
// counts. It re-enters the loading states internally before returning to the
// apply flow's bookkeeping.
func (e *Engine) reloadCensus(ctx context.Context) error {
	e.transition(StateTablesLoading)
	defer e.transition(StateApplying)

	var (
		features  []Feature
		local     TableCensus
		remote    TableCensus
		localErr  error
		remoteErr error
		wg        sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		features, localErr = e.src.Load(ctx)
		if localErr == nil {
			local = takeLocalCensus(features)
		}
	}()
	go func() {
		defer wg.Done()
		remote, remoteErr = takeRemoteCensus(ctx, e.gw, e.cfg)
	}()
	wg.Wait()

	if localErr != nil || remoteErr != nil {
		return errors.Join(localErr, remoteErr)
	}

	census := &Census{Local: local, Remote: remote}
	e.mu.Lock()
	e.features = features
	e.census = census
	e.warnings = censusWarnings(census)
	e.mu.Unlock()
	return nil
}

// writeRunHeader records pre-run counts and the full per-type breakdown so
// rows the update procedure excludes stay auditable.
func (e *Engine) writeRunHeader(census *Census, cmp *CompareResult) {
	e.logAppend("sync run started for %s", e.cfg.QualifiedRemote())
	if census != nil {
		e.logAppend("pre-run counts: local=%d remote=%d", census.Local.FeatureCount, census.Remote.FeatureCount)
	}
	for _, s := range cmp.Summaries {
		e.logAppend("%6d  %-12s %s", s.Count, s.ResultType, s.Description)
	}
}

func (e *Engine) logAppend(format string, args ...any) {
	if err := e.log.Append(format, args...); err != nil {
		e.logger.Warn("Run log write failed", zap.Error(err))
	}
}

// parseComparisonRows converts loosely typed result rows into the data model,
// honoring the configured column names.
func parseComparisonRows(raw []map[string]any, cols ResultColumns) []ComparisonRow {
	rows := make([]ComparisonRow, 0, len(raw))
	for _, record := range raw {
		row := ComparisonRow{
			ResultType:  utils.ToString(record[strings.ToLower(cols.Type)]),
			Description: utils.ToString(record[strings.ToLower(cols.Description)]),
		}
		if v, ok := record[strings.ToLower(cols.NewKey)]; ok && v != nil {
			s := utils.ToString(v)
			row.NewKey = &s
		}
		if v, ok := record[strings.ToLower(cols.OldKey)]; ok && v != nil {
			s := utils.ToString(v)
			row.OldKey = &s
		}
		if v, ok := record[strings.ToLower(cols.NewArea)]; ok && v != nil {
			f := utils.ToFloat(v)
			row.NewArea = &f
		}
		if v, ok := record[strings.ToLower(cols.OldArea)]; ok && v != nil {
			f := utils.ToFloat(v)
			row.OldArea = &f
		}
		rows = append(rows, row)
	}
	return rows
}

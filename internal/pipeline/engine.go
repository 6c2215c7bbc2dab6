package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultMaxIterations caps the number of files one run visits when the
// caller does not set RunOptions.MaxIterations.
const DefaultMaxIterations = 10000

// ErrEmptyResponse is reported when the model answers with blank text.
var ErrEmptyResponse = errors.New("llm returned an empty response")

type LLMClient interface {
	Chat(ctx context.Context, request LLMRequest) (LLMResponse, error)
}

type RunOptions struct {
	// Timeout bounds each model call. Zero disables the per-call deadline.
	Timeout time.Duration
	// MaxIterations stops the run after this many files. Zero means DefaultMaxIterations.
	MaxIterations int
	DryRun        bool
}

type Stage int

const (
	StageSelecting Stage = iota
	StageExtracting
	StageIdentifying
	StageGenerating
	StagePersisting
	StageAdvancing
	StageDone
)

var stageNames = map[Stage]string{
	StageSelecting:   "selecting",
	StageExtracting:  "extracting",
	StageIdentifying: "identifying",
	StageGenerating:  "generating",
	StagePersisting:  "persisting",
	StageAdvancing:   "advancing",
	StageDone:        "done",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Runner drives a Pipeline through its stages one file at a time.
type Runner struct {
	Client  LLMClient
	Options RunOptions
	Logger  *zap.Logger
	// OnTransition, when set, observes every stage change with the state as
	// it stands after the stage that just ran.
	OnTransition func(from Stage, to Stage, state State)
}

type execution struct {
	runner     Runner
	pipeline   Pipeline
	log        *zap.Logger
	state      State
	report     Report
	current    FileResult
	started    time.Time
	iterations int

	// interrupted is set when selection stopped because ctx was cancelled.
	interrupted error
}

// Run processes every selected file and returns the run report. Per-file
// failures are recorded in the report and never abort the run; only context
// cancellation does, in which case the partial report is returned with the error.
func (r Runner) Run(ctx context.Context, p Pipeline) (Report, error) {
	log := r.Logger
	if log == nil {
		log = zap.NewNop()
	}
	run := &execution{
		runner:   r,
		pipeline: p,
		log:      log.With(zap.String("pipeline", p.Name())),
		report:   newReport(p.Name(), r.Options.DryRun),
	}
	run.log = run.log.With(zap.String("run_id", run.report.RunID))

	stage := StageSelecting
	for stage != StageDone {
		if ctxErr := ctx.Err(); ctxErr != nil {
			run.abort(stage, ctxErr)
			return run.report, fmt.Errorf("run %s interrupted while %s: %w", p.Name(), stage, ctxErr)
		}
		next := run.step(ctx, stage)
		run.log.Debug("stage transition", zap.Stringer("from", stage), zap.Stringer("to", next), zap.Int("index", run.state.Index))
		if r.OnTransition != nil {
			r.OnTransition(stage, next, run.state)
		}
		stage = next
	}
	if run.interrupted != nil {
		run.abort(StageSelecting, run.interrupted)
		return run.report, fmt.Errorf("run %s interrupted while %s: %w", p.Name(), StageSelecting, run.interrupted)
	}

	run.report.FinishedAt = time.Now().UTC()
	run.log.Info("run finished",
		zap.Int("files", len(run.report.Files)),
		zap.Int("succeeded", run.report.Count(OutcomeSucceeded)),
		zap.Int("skipped", run.report.Count(OutcomeSkipped)),
		zap.Int("failed", run.report.Count(OutcomeFailed)),
		zap.Bool("truncated", run.report.Truncated))
	return run.report, nil
}

func (e *execution) step(ctx context.Context, stage Stage) Stage {
	switch stage {
	case StageSelecting:
		return e.selectFiles(ctx)
	case StageExtracting:
		return e.extract(ctx)
	case StageIdentifying:
		return e.identify(ctx)
	case StageGenerating:
		return e.generate(ctx)
	case StagePersisting:
		return e.persist(ctx)
	case StageAdvancing:
		return e.advance()
	default:
		return StageDone
	}
}

func (e *execution) selectFiles(ctx context.Context) Stage {
	files, err := e.pipeline.Select(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			e.interrupted = ctxErr
			return StageDone
		}
		e.log.Error("select files failed; nothing to process", zap.Error(err))
		files = nil
	}
	e.state = State{Files: files}
	if len(files) == 0 {
		e.log.Warn("no source files found")
		return StageDone
	}
	e.state.Filename = files[0]
	e.log.Info("files selected", zap.Int("count", len(files)))
	return StageExtracting
}

func (e *execution) extract(ctx context.Context) Stage {
	e.state.beginIteration()
	e.current = FileResult{Path: e.state.Filename}
	e.started = time.Now()

	code, err := e.pipeline.Extract(ctx, e.state.Filename)
	if err != nil {
		e.fail(StageExtracting, fmt.Errorf("read %s: %w", e.state.Filename, err))
		return StageAdvancing
	}
	e.state.Code = code
	return StageIdentifying
}

func (e *execution) identify(ctx context.Context) Stage {
	e.state.Functions = e.pipeline.Identify(ctx, e.state.Filename, e.state.Code)
	e.current.Functions = e.state.Functions
	e.log.Info("functions identified", zap.String("file", e.state.Filename), zap.Strings("functions", e.state.Functions))
	return StageGenerating
}

func (e *execution) generate(ctx context.Context) Stage {
	if strings.TrimSpace(e.state.Code) == "" || len(e.state.Functions) == 0 {
		e.state.Tests = ""
		e.current.Outcome = OutcomeSkipped
		e.current.Reason = "no functions identified"
		e.log.Info("skipping file without functions", zap.String("file", e.state.Filename))
		return StagePersisting
	}

	request, err := e.pipeline.Prompt(ctx, e.state.source())
	if err != nil {
		e.fail(StageGenerating, fmt.Errorf("build prompt: %w", err))
		return StagePersisting
	}

	callCtx := ctx
	cancel := func() {}
	if e.runner.Options.Timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, e.runner.Options.Timeout)
	}
	response, err := e.runner.Client.Chat(callCtx, request)
	cancel()
	if err != nil {
		e.fail(StageGenerating, fmt.Errorf("llm chat: %w", err))
		return StagePersisting
	}
	if strings.TrimSpace(response.RawText) == "" {
		e.fail(StageGenerating, ErrEmptyResponse)
		return StagePersisting
	}
	e.state.Tests = response.RawText
	e.log.Debug("tests generated", zap.String("file", e.state.Filename), zap.String("preview", truncate(response.RawText, 280)))
	return StagePersisting
}

func (e *execution) persist(ctx context.Context) Stage {
	if e.state.Tests == "" || e.state.Filename == "" {
		return StageAdvancing
	}
	result, err := e.pipeline.Persist(ctx, e.state.source(), e.state.Tests)
	if err != nil {
		e.fail(StagePersisting, err)
		return StageAdvancing
	}
	e.current.TestPath = result.Path
	e.current.Outcome = OutcomeSucceeded
	if result.Written {
		e.log.Info("tests saved", zap.String("file", e.state.Filename), zap.String("path", result.Path))
	} else {
		e.log.Info("tests not written (dry run)", zap.String("file", e.state.Filename), zap.String("path", result.Path))
	}
	return StageAdvancing
}

func (e *execution) advance() Stage {
	e.record()
	e.iterations++
	e.state.Index++

	if e.state.Index >= len(e.state.Files) {
		e.state.Filename = ""
		e.log.Info("all files processed")
		return StageDone
	}
	if e.iterations >= e.maxIterations() {
		e.state.Filename = ""
		e.report.Truncated = true
		e.log.Warn("iteration limit reached; stopping", zap.Int("limit", e.maxIterations()), zap.Int("remaining", len(e.state.Files)-e.state.Index))
		return StageDone
	}
	e.state.Filename = e.state.Files[e.state.Index]
	e.log.Info("next file", zap.String("file", e.state.Filename), zap.Int("index", e.state.Index))
	return StageExtracting
}

func (e *execution) maxIterations() int {
	if e.runner.Options.MaxIterations > 0 {
		return e.runner.Options.MaxIterations
	}
	return DefaultMaxIterations
}

func (e *execution) fail(stage Stage, err error) {
	e.current.Outcome = OutcomeFailed
	e.current.Stage = stage.String()
	e.current.Reason = err.Error()
	e.state.Tests = ""
	e.log.Error("file failed", zap.String("file", e.current.Path), zap.Stringer("stage", stage), zap.Error(err))
}

// abort closes out the file in flight, if any, before the run stops early.
func (e *execution) abort(stage Stage, err error) {
	switch stage {
	case StageIdentifying, StageGenerating, StagePersisting:
		e.fail(stage, err)
		e.record()
	case StageAdvancing:
		e.record()
	}
	e.report.FinishedAt = time.Now().UTC()
	e.log.Warn("run interrupted", zap.Stringer("stage", stage), zap.Error(err))
}

func (e *execution) record() {
	if e.current.Outcome == "" {
		e.current.Outcome = OutcomeSkipped
	}
	e.current.Duration = time.Since(e.started)
	e.report.Files = append(e.report.Files, e.current)
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}

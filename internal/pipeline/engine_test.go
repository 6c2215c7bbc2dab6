package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/temirov/testgen/internal/pipeline"
)

type fakeClient struct {
	responses map[string]string
	failures  map[string]error
	block     bool
	prompts   []string
}

func (f *fakeClient) Chat(ctx context.Context, req pipeline.LLMRequest) (pipeline.LLMResponse, error) {
	f.prompts = append(f.prompts, req.UserPrompt)
	if f.block {
		<-ctx.Done()
		return pipeline.LLMResponse{}, ctx.Err()
	}
	if err, ok := f.failures[req.UserPrompt]; ok {
		return pipeline.LLMResponse{}, err
	}
	if text, ok := f.responses[req.UserPrompt]; ok {
		return pipeline.LLMResponse{RawText: text}, nil
	}
	return pipeline.LLMResponse{RawText: "tests for " + req.UserPrompt}, nil
}

type fakePipeline struct {
	files       []string
	selectErr   error
	onSelect    func()
	contents    map[string]string
	extractErrs map[string]error
	persistErrs map[string]error

	extracted  []string
	identified []string
	prompted   []string
	persisted  map[string]string
}

func newFakePipeline(files ...string) *fakePipeline {
	contents := map[string]string{}
	for _, file := range files {
		contents[file] = "function " + strings.TrimSuffix(file, ".js") + "() {}"
	}
	return &fakePipeline{files: files, contents: contents, persisted: map[string]string{}}
}

func (p *fakePipeline) Name() string { return "fake" }
func (p *fakePipeline) Select(ctx context.Context) ([]string, error) {
	if p.onSelect != nil {
		p.onSelect()
	}
	return p.files, p.selectErr
}
func (p *fakePipeline) Extract(ctx context.Context, filename string) (string, error) {
	p.extracted = append(p.extracted, filename)
	if err := p.extractErrs[filename]; err != nil {
		return "", err
	}
	return p.contents[filename], nil
}
func (p *fakePipeline) Identify(ctx context.Context, filename string, code string) []string {
	p.identified = append(p.identified, filename+":"+code)
	if strings.HasPrefix(code, "function ") {
		return []string{strings.TrimSuffix(strings.TrimPrefix(code, "function "), "() {}")}
	}
	return nil
}
func (p *fakePipeline) Prompt(ctx context.Context, source pipeline.Source) (pipeline.LLMRequest, error) {
	p.prompted = append(p.prompted, source.Filename)
	return pipeline.LLMRequest{UserPrompt: source.Filename}, nil
}
func (p *fakePipeline) Persist(ctx context.Context, source pipeline.Source, tests string) (pipeline.PersistResult, error) {
	if err := p.persistErrs[source.Filename]; err != nil {
		return pipeline.PersistResult{}, err
	}
	p.persisted[source.Filename] = tests
	return pipeline.PersistResult{Path: "__tests__/" + source.Filename, Written: true}, nil
}

func newRunner(t *testing.T, client pipeline.LLMClient) pipeline.Runner {
	return pipeline.Runner{
		Client:  client,
		Options: pipeline.RunOptions{Timeout: time.Second},
		Logger:  zaptest.NewLogger(t),
	}
}

func TestRunner_VisitsEveryFileOnceInOrder(t *testing.T) {
	fp := newFakePipeline("a.js", "b.js", "c.js")
	runner := newRunner(t, &fakeClient{})

	var lastAdvance pipeline.State
	var doneTransitions int
	runner.OnTransition = func(from, to pipeline.Stage, state pipeline.State) {
		if state.Index < 0 || state.Index > len(state.Files) {
			t.Fatalf("cursor out of bounds: %d of %d", state.Index, len(state.Files))
		}
		if state.Index < len(state.Files) && state.Filename != state.Files[state.Index] {
			t.Fatalf("filename %q does not match files[%d]=%q", state.Filename, state.Index, state.Files[state.Index])
		}
		if to == pipeline.StageDone {
			doneTransitions++
			if from != pipeline.StageAdvancing {
				t.Fatalf("expected to stop from advancing, got %s", from)
			}
			lastAdvance = state
		}
	}

	report, err := runner.Run(context.Background(), fp)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := strings.Join(fp.extracted, ","); got != "a.js,b.js,c.js" {
		t.Fatalf("unexpected extraction order %s", got)
	}
	if doneTransitions != 1 || lastAdvance.Filename != "" || lastAdvance.Index != 3 {
		t.Fatalf("expected a single stop after the last file, got %+v (%d)", lastAdvance, doneTransitions)
	}
	if report.Count(pipeline.OutcomeSucceeded) != 3 {
		t.Fatalf("expected 3 successes, got %s", report.Summary())
	}
	if fp.persisted["b.js"] != "tests for b.js" {
		t.Fatalf("unexpected persisted content %q", fp.persisted["b.js"])
	}
	if report.RunID == "" || report.Pipeline != "fake" {
		t.Fatalf("report identity missing: %+v", report)
	}
}

func TestRunner_ZeroFilesStopsImmediately(t *testing.T) {
	fp := newFakePipeline()
	client := &fakeClient{}
	runner := newRunner(t, client)

	var transitions []string
	runner.OnTransition = func(from, to pipeline.Stage, state pipeline.State) {
		transitions = append(transitions, from.String()+"->"+to.String())
	}

	report, err := runner.Run(context.Background(), fp)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(fp.extracted) != 0 || len(fp.identified) != 0 || len(fp.prompted) != 0 || len(fp.persisted) != 0 || len(client.prompts) != 0 {
		t.Fatalf("expected no stage work, got extract=%v identify=%v prompt=%v persist=%v", fp.extracted, fp.identified, fp.prompted, fp.persisted)
	}
	if strings.Join(transitions, ",") != "selecting->done" {
		t.Fatalf("unexpected transitions %v", transitions)
	}
	if len(report.Files) != 0 {
		t.Fatalf("expected empty report, got %+v", report.Files)
	}
}

func TestRunner_SelectErrorMeansNothingToDo(t *testing.T) {
	fp := newFakePipeline("a.js")
	fp.selectErr = errors.New("boom")

	report, err := newRunner(t, &fakeClient{}).Run(context.Background(), fp)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(fp.extracted) != 0 || len(report.Files) != 0 {
		t.Fatalf("expected selection error to degrade to no work")
	}
}

func TestRunner_NoFunctionsSkipsGenerationAndPersistence(t *testing.T) {
	fp := newFakePipeline("a.js", "b.js")
	fp.contents["a.js"] = "module.exports = 42"
	client := &fakeClient{}

	report, err := newRunner(t, client).Run(context.Background(), fp)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, ok := fp.persisted["a.js"]; ok {
		t.Fatalf("expected no write for a file without functions")
	}
	if strings.Join(fp.prompted, ",") != "b.js" {
		t.Fatalf("expected only b.js to be prompted, got %v", fp.prompted)
	}
	if report.Files[0].Outcome != pipeline.OutcomeSkipped || report.Files[1].Outcome != pipeline.OutcomeSucceeded {
		t.Fatalf("unexpected outcomes %+v", report.Files)
	}
}

func TestRunner_ExtractFailureDoesNotLeakPreviousFile(t *testing.T) {
	fp := newFakePipeline("a.js", "b.js", "c.js")
	fp.extractErrs = map[string]error{"b.js": errors.New("permission denied")}

	report, err := newRunner(t, &fakeClient{}).Run(context.Background(), fp)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, entry := range fp.identified {
		if strings.HasPrefix(entry, "b.js:") {
			t.Fatalf("identify must not run for an unreadable file: %v", fp.identified)
		}
	}
	if _, ok := fp.persisted["b.js"]; ok {
		t.Fatalf("stale tests from a.js were persisted for b.js")
	}
	failed := report.Files[1]
	if failed.Outcome != pipeline.OutcomeFailed || failed.Stage != "extracting" || len(failed.Functions) != 0 {
		t.Fatalf("unexpected result for b.js: %+v", failed)
	}
	if report.Files[2].Outcome != pipeline.OutcomeSucceeded {
		t.Fatalf("expected c.js to be processed after failure")
	}
}

func TestRunner_ServiceFailureIsPerFile(t *testing.T) {
	fp := newFakePipeline("a.js", "b.js")
	client := &fakeClient{failures: map[string]error{"a.js": errors.New("connection refused")}}

	report, err := newRunner(t, client).Run(context.Background(), fp)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Files[0].Outcome != pipeline.OutcomeFailed || !strings.Contains(report.Files[0].Reason, "connection refused") {
		t.Fatalf("expected a.js failure, got %+v", report.Files[0])
	}
	if _, ok := fp.persisted["a.js"]; ok {
		t.Fatalf("nothing should be written for a failed generation")
	}
	if report.Files[1].Outcome != pipeline.OutcomeSucceeded {
		t.Fatalf("expected b.js to succeed, got %+v", report.Files[1])
	}
}

func TestRunner_EmptyResponseFails(t *testing.T) {
	fp := newFakePipeline("a.js")
	client := &fakeClient{responses: map[string]string{"a.js": "  \n"}}

	report, err := newRunner(t, client).Run(context.Background(), fp)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Files[0].Reason != pipeline.ErrEmptyResponse.Error() {
		t.Fatalf("expected empty response failure, got %+v", report.Files[0])
	}
}

func TestRunner_TimeoutIsPerFileFailure(t *testing.T) {
	fp := newFakePipeline("a.js", "b.js")
	runner := newRunner(t, &fakeClient{block: true})
	runner.Options.Timeout = 20 * time.Millisecond

	report, err := runner.Run(context.Background(), fp)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Count(pipeline.OutcomeFailed) != 2 {
		t.Fatalf("expected both files to time out, got %s", report.Summary())
	}
	if !strings.Contains(report.Files[0].Reason, context.DeadlineExceeded.Error()) {
		t.Fatalf("expected deadline error, got %q", report.Files[0].Reason)
	}
}

func TestRunner_PersistFailureIsPerFile(t *testing.T) {
	fp := newFakePipeline("a.js", "b.js")
	fp.persistErrs = map[string]error{"a.js": errors.New("read-only file system")}

	report, err := newRunner(t, &fakeClient{}).Run(context.Background(), fp)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Files[0].Stage != "persisting" || report.Files[1].Outcome != pipeline.OutcomeSucceeded {
		t.Fatalf("unexpected outcomes %+v", report.Files)
	}
}

func TestRunner_IterationCap(t *testing.T) {
	var files []string
	for index := 0; index < 5; index++ {
		files = append(files, fmt.Sprintf("f%d.js", index))
	}
	fp := newFakePipeline(files...)
	runner := newRunner(t, &fakeClient{})
	runner.Options.MaxIterations = 2

	report, err := runner.Run(context.Background(), fp)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.Truncated || len(report.Files) != 2 {
		t.Fatalf("expected truncation after 2 files, got truncated=%v files=%d", report.Truncated, len(report.Files))
	}
}

func TestRunner_CancelledContext(t *testing.T) {
	fp := newFakePipeline("a.js")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newRunner(t, &fakeClient{}).Run(ctx, fp)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(fp.extracted) != 0 {
		t.Fatalf("no file should be processed after cancellation")
	}
}

func TestRunner_CancellationDuringSelectionIsAnError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fp := newFakePipeline()
	fp.onSelect = cancel
	fp.selectErr = fmt.Errorf("walk /project: %w", context.Canceled)

	report, err := newRunner(t, &fakeClient{}).Run(ctx, fp)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation error, got %v", err)
	}
	if len(report.Files) != 0 || len(fp.extracted) != 0 {
		t.Fatalf("nothing should be processed, got %+v", report.Files)
	}
	if report.FinishedAt.IsZero() {
		t.Fatalf("interrupted report should be closed out")
	}
}

func TestRunner_SelectionFailureWithLiveContextIsAbsorbed(t *testing.T) {
	fp := newFakePipeline()
	fp.selectErr = errors.New("permission denied")

	report, err := newRunner(t, &fakeClient{}).Run(context.Background(), fp)
	if err != nil {
		t.Fatalf("selection failure should not abort the run: %v", err)
	}
	if len(report.Files) != 0 {
		t.Fatalf("expected no files, got %+v", report.Files)
	}
}

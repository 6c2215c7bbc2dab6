package pipeline

import "context"

// Pipeline supplies the per-stage behaviour the Runner sequences. A Runner
// calls Select once, then Extract, Identify, Prompt and Persist for each file
// in turn.
type Pipeline interface {
	Name() string
	Select(ctx context.Context) ([]string, error)
	Extract(ctx context.Context, filename string) (string, error)
	Identify(ctx context.Context, filename string, code string) []string
	Prompt(ctx context.Context, source Source) (LLMRequest, error)
	Persist(ctx context.Context, source Source, tests string) (PersistResult, error)
}

// Source is what one iteration knows about the file being processed.
type Source struct {
	Filename  string
	Code      string
	Functions []string
}

type PersistResult struct {
	Path    string
	Written bool
}

// LLMRequest is one generation call. A nil Temperature leaves the choice to
// the client's default and then the server's.
type LLMRequest struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  *float64
	Model        string
}

type LLMResponse struct {
	RawText string
}

// State is the record threaded through every stage of one run.
//
// Files is fixed after selection. Index only grows and stays within
// [0, len(Files)]. Filename equals Files[Index] while Index < len(Files) and
// is empty once the run is finished. Code, Functions and Tests belong to the
// current iteration and are cleared before the next file is extracted.
type State struct {
	Files     []string
	Index     int
	Filename  string
	Code      string
	Functions []string
	Tests     string
}

func (s *State) beginIteration() {
	s.Code = ""
	s.Functions = nil
	s.Tests = ""
}

func (s State) source() Source {
	return Source{Filename: s.Filename, Code: s.Code, Functions: s.Functions}
}

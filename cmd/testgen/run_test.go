package testgen_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temirov/testgen/cmd/testgen"
	"github.com/temirov/testgen/internal/pipeline"
)

const (
	apiKeyEnvironmentVariable = "TESTGEN_TEST_API_KEY"
	chatCompletionPath        = "/chat/completions"
	generatedTests            = "const { add, subtract } = require(\"../math\");\ntest(\"add\", () => expect(add(1, 2)).toBe(3));\n"
	configurationTemplate     = `service:
  provider: openai
  base_url: %s
  model: test-model
  api_key_env: ` + apiKeyEnvironmentVariable + `
logging:
  level: error
  format: json
defaults:
  timeout_seconds: 5
selection:
  strategy: walk
  root: %s
`
)

type projectFixture struct {
	root       string
	configPath string
	requests   *atomic.Int32
}

func newProjectFixture(t *testing.T, status int, reply string) projectFixture {
	t.Helper()

	var requestCount atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		requestCount.Add(1)
		if request.URL.Path != chatCompletionPath {
			http.NotFound(responseWriter, request)
			return
		}
		body, _ := io.ReadAll(request.Body)
		var payload map[string]any
		_ = json.Unmarshal(body, &payload)
		if payload["model"] != "test-model" {
			http.Error(responseWriter, "unexpected model", http.StatusBadRequest)
			return
		}
		responseWriter.Header().Set("Content-Type", "application/json")
		responseWriter.WriteHeader(status)
		_ = json.NewEncoder(responseWriter).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"role": "assistant", "content": reply}, "finish_reason": "stop"}},
		})
	}))
	t.Cleanup(server.Close)

	projectRoot := t.TempDir()
	writeFile(t, filepath.Join(projectRoot, "src", "math.js"), "function add(a, b) { return a + b; }\nconst subtract = (a, b) => a - b;\n")
	writeFile(t, filepath.Join(projectRoot, "src", "constants.js"), "module.exports = { PI: 3.14 };\n")
	writeFile(t, filepath.Join(projectRoot, "src", "__tests__", "legacy.test.js"), "old\n")
	writeFile(t, filepath.Join(projectRoot, "testgen.js"), "function main() {}\n")

	configPath := filepath.Join(t.TempDir(), "testgen.yaml")
	writeFile(t, configPath, fmt.Sprintf(configurationTemplate, server.URL, projectRoot))
	t.Setenv(apiKeyEnvironmentVariable, "test-key")

	return projectFixture{root: projectRoot, configPath: configPath, requests: &requestCount}
}

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCommand := testgen.NewRootCommand()
	rootCommand.SetOut(&stdout)
	rootCommand.SetErr(&stderr)
	rootCommand.SetArgs(args)
	err := rootCommand.Execute()
	return stdout.String(), err
}

func TestRunCommandWritesGeneratedTests(t *testing.T) {
	fixture := newProjectFixture(t, http.StatusOK, generatedTests)

	output, err := executeCommand(t, "run", "--config", fixture.configPath, "--format", "json")
	require.NoError(t, err)

	var report pipeline.Report
	require.NoError(t, json.Unmarshal([]byte(output), &report))
	assert.Equal(t, "walk", report.Strategy)
	require.Len(t, report.Files, 2)

	byPath := map[string]pipeline.FileResult{}
	for _, file := range report.Files {
		byPath[file.Path] = file
	}
	mathResult := byPath[filepath.Join(fixture.root, "src", "math.js")]
	assert.Equal(t, pipeline.OutcomeSucceeded, mathResult.Outcome)
	assert.Equal(t, []string{"add", "subtract"}, mathResult.Functions)
	assert.Equal(t, pipeline.OutcomeSkipped, byPath[filepath.Join(fixture.root, "src", "constants.js")].Outcome)

	written, readErr := os.ReadFile(filepath.Join(fixture.root, "src", "__tests__", "math.test.js"))
	require.NoError(t, readErr)
	assert.Equal(t, strings.TrimSpace(generatedTests), strings.TrimSpace(string(written)))
	assert.Equal(t, int32(1), fixture.requests.Load())

	_, statErr := os.Stat(filepath.Join(fixture.root, "src", "__tests__", "constants.test.js"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunCommandDryRunLeavesTreeUntouched(t *testing.T) {
	fixture := newProjectFixture(t, http.StatusOK, generatedTests)

	output, err := executeCommand(t, "run", "--config", fixture.configPath, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, output, "(dry run)")

	_, statErr := os.Stat(filepath.Join(fixture.root, "src", "__tests__", "math.test.js"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunCommandServiceFailureIsReportedNotFatal(t *testing.T) {
	fixture := newProjectFixture(t, http.StatusInternalServerError, "")

	output, err := executeCommand(t, "run", "--config", fixture.configPath)
	require.NoError(t, err)
	assert.Contains(t, output, "1 failed")

	_, strictErr := executeCommand(t, "run", "--config", fixture.configPath, "--strict")
	require.Error(t, strictErr)
	assert.Contains(t, strictErr.Error(), "1 of 2 files failed")
}

func TestRunCommandRejectsInvalidOverrides(t *testing.T) {
	fixture := newProjectFixture(t, http.StatusOK, generatedTests)

	_, err := executeCommand(t, "run", "--config", fixture.configPath, "--strategy", "random")
	require.Error(t, err)

	_, err = executeCommand(t, "run", "--config", fixture.configPath, "--model", " ")
	require.Error(t, err)
	assert.Equal(t, int32(0), fixture.requests.Load())
}

func TestRunCommandRequiresAPIKeyForOpenAI(t *testing.T) {
	fixture := newProjectFixture(t, http.StatusOK, generatedTests)
	t.Setenv(apiKeyEnvironmentVariable, "")

	_, err := executeCommand(t, "run", "--config", fixture.configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), apiKeyEnvironmentVariable)
}

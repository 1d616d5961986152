package cmd

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/meysamhadeli/codebro/chat_history"
	"github.com/meysamhadeli/codebro/code_analyzer"
	analyzerModels "github.com/meysamhadeli/codebro/code_analyzer/models"
	"github.com/meysamhadeli/codebro/code_writer"
	"github.com/meysamhadeli/codebro/config"
	"github.com/meysamhadeli/codebro/providers/models"
	"github.com/meysamhadeli/codebro/token_management"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeProvider struct {
	mu        sync.Mutex
	responses []string
	requests  [][]models.Message
}

func (p *fakeProvider) ChatCompletionRequest(ctx context.Context, messages []models.Message) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, messages)
	response := p.responses[0]
	p.responses = p.responses[1:]
	return response, nil
}

func (p *fakeProvider) Name() string  { return "xai" }
func (p *fakeProvider) Model() string { return "grok-3" }

func newTestDependencies(t *testing.T, root string, provider *fakeProvider) *RootDependencies {
	t.Helper()

	cfg := config.DefaultConfig
	logger := zaptest.NewLogger(t)

	analyzer, err := code_analyzer.NewCodeAnalyzer(root, cfg.ToSettings(), logger)
	require.NoError(t, err)

	deps := &RootDependencies{
		Cwd:             root,
		Config:          &cfg,
		Logger:          logger,
		Analyzer:        analyzer,
		Writer:          code_writer.NewCodeWriter(root, cfg.BackupDir, logger),
		Backups:         code_writer.NewBackupStore(root, cfg.BackupDir),
		TokenManagement: token_management.NewTokenManager(),
		ChatHistory:     chat_history.NewChatHistory(),
	}
	if provider != nil {
		deps.CurrentChatProvider = provider
	}
	return deps
}

func writeTestFile(t *testing.T, root string, relativePath string, content string) {
	t.Helper()
	fullPath := filepath.Join(root, filepath.FromSlash(relativePath))
	require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0755))
	require.NoError(t, os.WriteFile(fullPath, []byte(content), 0644))
}

func TestHandleMapCommand(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "package.json", `{"name":"demo"}`)
	writeTestFile(t, root, "src/app.ts", "let a;")
	writeTestFile(t, root, "node_modules/x/index.js", "x")
	deps := newTestDependencies(t, root, nil)

	var out bytes.Buffer
	require.NoError(t, handleMapCommand(&out, deps, false))
	assert.Equal(t, "package.json\nsrc/app.ts\n", out.String())

	out.Reset()
	require.NoError(t, handleMapCommand(&out, deps, true))
	lines := strings.Split(out.String(), "\n")
	assert.True(t, strings.HasPrefix(lines[0], "package.json"))
	assert.True(t, strings.HasPrefix(lines[1], "src/app.ts"))
	assert.Contains(t, out.String(), "2 files, 21 / 100000 characters")
}

func TestHandleAnalyzeCommand_SendsMapAndCoreFiles(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "package.json", `{"name":"demo"}`)
	writeTestFile(t, root, "src/app.ts", "let a;")

	provider := &fakeProvider{responses: []string{"Tech Stack: TypeScript\n\nPlan to make it runnable:\n1. Add an entry point\n"}}
	deps := newTestDependencies(t, root, provider)

	require.NoError(t, handleAnalyzeCommand(context.Background(), deps, false))

	require.Len(t, provider.requests, 1)
	request := provider.requests[0]
	require.Len(t, request, 3)
	assert.Equal(t, models.RoleSystem, request[0].Role)
	assert.Contains(t, request[0].Content, "You are grok-3, an expert AI developer. Context: "+analyzeContextHint+".")
	assert.Equal(t, models.RoleSystem, request[1].Role)
	assert.Equal(t, models.RoleUser, request[2].Role)
	assert.Contains(t, request[2].Content, "package.json\nsrc/app.ts")
	assert.Contains(t, request[2].Content, `{"name":"demo"}`)

	history := deps.ChatHistory.GetHistory()
	require.Len(t, history, 3)
	assert.Equal(t, models.RoleAssistant, history[2].Role)
}

func TestHandleAnalyzeCommand_EmptyProjectSkipsRequest(t *testing.T) {
	provider := &fakeProvider{}
	deps := newTestDependencies(t, t.TempDir(), provider)

	require.NoError(t, handleAnalyzeCommand(context.Background(), deps, true))
	assert.Empty(t, provider.requests)
}

func TestRunFixStep_AppliesAcceptedChange(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "src/app.ts", "const a = 1;\nconsole.log(a);\n")

	response := "Updating the log call.\n" +
		"---CODEBRO_FILE_CHANGE---\n" +
		"FILE: src/app.ts\n" +
		"ACTION: MODIFY\n" +
		"CONTENT:\n" +
		"```ts\n" +
		"const a = 1;\n" +
		"console.info(a);\n" +
		"```\n" +
		"---END_CODEBRO_FILE_CHANGE---\n"
	provider := &fakeProvider{responses: []string{response}}
	deps := newTestDependencies(t, root, provider)

	reader := bufio.NewReader(strings.NewReader("src/app.ts\ny\n"))
	require.NoError(t, runFixStep(context.Background(), deps, reader, "Use console.info"))

	content, err := os.ReadFile(filepath.Join(root, "src", "app.ts"))
	require.NoError(t, err)
	assert.Equal(t, "const a = 1;\nconsole.info(a);", string(content))

	backup, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(code_writer.DefaultBackupDir), "src", "app.ts.bak"))
	require.NoError(t, err)
	assert.Equal(t, "const a = 1;\nconsole.log(a);\n", string(backup))

	require.Len(t, provider.requests, 1)
	last := provider.requests[0][len(provider.requests[0])-1]
	assert.Contains(t, last.Content, "TARGET FILE: src/app.ts")
	assert.Contains(t, last.Content, "console.log(a);")
}

func TestRunFixStep_RejectedChangeLeavesFile(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "src/app.ts", "old\n")

	response := "---CODEBRO_FILE_CHANGE---\nFILE: src/app.ts\nACTION: MODIFY\nCONTENT:\n```\nnew\n```\n"
	provider := &fakeProvider{responses: []string{response}}
	deps := newTestDependencies(t, root, provider)

	reader := bufio.NewReader(strings.NewReader("src/app.ts\nn\n"))
	require.NoError(t, runFixStep(context.Background(), deps, reader, "Rewrite"))

	content, err := os.ReadFile(filepath.Join(root, "src", "app.ts"))
	require.NoError(t, err)
	assert.Equal(t, "old\n", string(content))
}

func TestReviewAndApplyChange_DetectsConcurrentEdit(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "a.txt", "one\n")
	deps := newTestDependencies(t, root, nil)

	original, ok := deps.Analyzer.ReadFile(root, "a.txt")
	require.True(t, ok)

	writeTestFile(t, root, "a.txt", "edited elsewhere\n")

	change := analyzerModels.CodeChange{File: "a.txt", Action: analyzerModels.ActionModify, Content: "two"}
	err := reviewAndApplyChange(deps, bufio.NewReader(strings.NewReader("y\n")), change, original)
	assert.ErrorIs(t, err, code_writer.ErrFileChanged)

	content, err := os.ReadFile(filepath.Join(root, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "edited elsewhere\n", string(content))
}

func TestHandleBackupsCommand(t *testing.T) {
	root := t.TempDir()
	deps := newTestDependencies(t, root, nil)

	var out bytes.Buffer
	require.NoError(t, handleBackupsCommand(&out, nil, deps, backupsOptions{}))
	assert.Contains(t, out.String(), "No backups found.")

	writeTestFile(t, root, "a.txt", "a")
	writeTestFile(t, root, "b.txt", "b")
	_, err := deps.Writer.Backup("a.txt")
	require.NoError(t, err)
	_, err = deps.Writer.Backup("b.txt")
	require.NoError(t, err)

	out.Reset()
	require.NoError(t, handleBackupsCommand(&out, nil, deps, backupsOptions{}))
	assert.Contains(t, out.String(), "a.txt.bak")
	assert.Contains(t, out.String(), "b.txt.bak")

	out.Reset()
	require.NoError(t, handleBackupsCommand(&out, nil, deps, backupsOptions{stats: true}))
	assert.Contains(t, out.String(), "Backed up Files: 2")

	out.Reset()
	require.NoError(t, handleBackupsCommand(&out, nil, deps, backupsOptions{clean: true, dryRun: true, maxAge: time.Hour, maxFiles: 1}))
	assert.Contains(t, out.String(), "Would remove 1 of 2 backups")

	entries, err := deps.Backups.List()
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	out.Reset()
	require.NoError(t, handleBackupsCommand(&out, bufio.NewReader(strings.NewReader("n\n")), deps, backupsOptions{clear: true}))
	assert.Contains(t, out.String(), "Backup removal cancelled.")

	require.NoError(t, handleBackupsCommand(&out, nil, deps, backupsOptions{clear: true, force: true}))
	entries, err = deps.Backups.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHandleOutlineCommand(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "main.go", "package main\n\nfunc main() {}\n")
	deps := newTestDependencies(t, root, nil)

	var out bytes.Buffer
	require.NoError(t, handleOutlineCommand(context.Background(), &out, deps, "main.go"))
	assert.Contains(t, out.String(), "  function: main\n")

	assert.Error(t, handleOutlineCommand(context.Background(), &out, deps, "missing.go"))
}

func TestHandleFixCommand_RunsRoadmapStep(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "package.json", `{"name":"demo"}`)

	roadmap := "Tech Stack: Node\n\nPlan to make it runnable:\n1. Create the server entry point\n"
	step := "---CODEBRO_FILE_CHANGE---\nFILE: server.js\nACTION: CREATE\nCONTENT:\n```js\nrequire('http').createServer().listen(3000);\n```\n"
	provider := &fakeProvider{responses: []string{roadmap, step}}
	deps := newTestDependencies(t, root, provider)

	reader := bufio.NewReader(strings.NewReader("plan\nstep 1\nserver.js\ny\nexit\n"))
	require.NoError(t, handleFixCommand(context.Background(), deps, reader))

	content, err := os.ReadFile(filepath.Join(root, "server.js"))
	require.NoError(t, err)
	assert.Equal(t, "require('http').createServer().listen(3000);", string(content))

	require.Len(t, provider.requests, 2)
	assert.Contains(t, provider.requests[0][0].Content, "Context: "+fixContextHint+".")
	assert.Contains(t, provider.requests[0][2].Content, `CORE FILE (package.json):
{"name":"demo"}`)
	assert.Contains(t, provider.requests[1][0].Content, "Context: Applying fix to server.js.")
	assert.Contains(t, provider.requests[1][len(provider.requests[1])-1].Content, "// New File")
}

func TestReviewAndApplyChange_CreatesEmptyFile(t *testing.T) {
	root := t.TempDir()
	deps := newTestDependencies(t, root, nil)

	change := analyzerModels.CodeChange{File: "pkg/__init__.py", Action: analyzerModels.ActionCreate, ContentPresent: true}
	require.NoError(t, reviewAndApplyChange(deps, bufio.NewReader(strings.NewReader("y\n")), change, nil))

	content, err := os.ReadFile(filepath.Join(root, "pkg", "__init__.py"))
	require.NoError(t, err)
	assert.Empty(t, content)
}

func TestHandleMapCommand_WarnsWhenBudgetExceedsInputWindow(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "package.json", `{"name":"demo"}`)
	deps := newTestDependencies(t, root, nil)

	var out bytes.Buffer
	require.NoError(t, handleMapCommand(&out, deps, true))
	assert.NotContains(t, out.String(), "input window")

	deps.Config.Scan.MaxTotalChars = 600000
	out.Reset()
	require.NoError(t, handleMapCommand(&out, deps, true))
	assert.Contains(t, out.String(), "about 150000 tokens, more than the 131072 token input window of grok-3")
}

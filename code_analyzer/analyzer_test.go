package code_analyzer

import (
	"testing"

	"github.com/meysamhadeli/codebro/code_analyzer/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixSystemPrompt_RendersMarkers(t *testing.T) {
	analyzer := newTestAnalyzer(t, t.TempDir(), DefaultSettings())

	prompt, err := analyzer.FixSystemPrompt()
	require.NoError(t, err)

	assert.Contains(t, prompt, "---CODEBRO_FILE_CHANGE---\nFILE: relative/path/to/file.ext\nACTION: CREATE | MODIFY | DELETE\nCONTENT:")
	assert.Contains(t, prompt, "PATCH:\n```diff")
	assert.Contains(t, prompt, "---END_CODEBRO_FILE_CHANGE---")
	assert.NotContains(t, prompt, "{{")
}

func TestFixSystemPrompt_CustomMarkersRoundTrip(t *testing.T) {
	settings := DefaultSettings()
	settings.Markers.FileChangeStart = "<<<CHANGE>>>"
	settings.Markers.FileKey = "PATH:"
	analyzer := newTestAnalyzer(t, t.TempDir(), settings)

	prompt, err := analyzer.FixSystemPrompt()
	require.NoError(t, err)
	assert.Contains(t, prompt, "<<<CHANGE>>>\nPATH: relative/path/to/file.ext")

	result := analyzer.ParseChanges("<<<CHANGE>>>\nPATH: a.ts\nACTION: DELETE\n")
	require.Len(t, result.Changes, 1)
	assert.Equal(t, "a.ts", result.Changes[0].File)
}

func TestAnalyzeSystemPrompt(t *testing.T) {
	analyzer := newTestAnalyzer(t, t.TempDir(), DefaultSettings())

	assert.NotEmpty(t, analyzer.AnalyzeSystemPrompt())
}

func TestGenerateAnalyzePrompt(t *testing.T) {
	analyzer := newTestAnalyzer(t, t.TempDir(), DefaultSettings())

	prompt := analyzer.GenerateAnalyzePrompt("package.json\nsrc/index.ts", []models.ScannedFile{
		{RelativePath: "package.json", Content: `{"name":"demo"}`},
	})

	assert.Contains(t, prompt, "Here is my project structure:\npackage.json\nsrc/index.ts")
	assert.Contains(t, prompt, "FILE: package.json\nCONTENT:\n```json\n{\"name\":\"demo\"}\n```")
	assert.Contains(t, prompt, "Analyze this and provide a plan.")
}

func TestGenerateDeepAnalyzePrompt(t *testing.T) {
	analyzer := newTestAnalyzer(t, t.TempDir(), DefaultSettings())

	prompt := analyzer.GenerateDeepAnalyzePrompt("a.ts\nb.py", []models.ScannedFile{
		{RelativePath: "a.ts", Content: "let a;"},
		{RelativePath: "b.py", Content: "b = 1"},
	})

	assert.Contains(t, prompt, "**File: a.ts**\n\n```typescript\nlet a;\n```\n---------\n\n**File: b.py**\n\n```python\nb = 1\n```")
}

func TestGenerateFixPrompts(t *testing.T) {
	analyzer := newTestAnalyzer(t, t.TempDir(), DefaultSettings())

	assert.Contains(t, analyzer.GenerateFixInitialPrompt("a.ts", nil), "CORE FILE (package.json):\nNot found")
	assert.Contains(t,
		analyzer.GenerateFixInitialPrompt("a.ts", &models.ScannedFile{Content: `{"name":"demo"}`}),
		"CORE FILE (package.json):\n{\"name\":\"demo\"}")

	assert.Equal(t,
		"Action: Create the entry point.\n\nTARGET FILE: src/main.ts\nCURRENT CONTENT:\n```\n// New File\n```",
		analyzer.GenerateStepPrompt("Create the entry point", "src/main.ts", nil))
	assert.Contains(t,
		analyzer.GenerateStepPrompt("Fix imports", "src/app.ts", &models.ScannedFile{Content: "import x"}),
		"CURRENT CONTENT:\n```\nimport x\n```")
}

func TestFenceLanguage(t *testing.T) {
	assert.Equal(t, "typescript", fenceLanguage("src/index.ts"))
	assert.Equal(t, "go", fenceLanguage("main.go"))
	assert.Equal(t, "json", fenceLanguage("package.json"))
	assert.Equal(t, "", fenceLanguage("data.zzqx"))
}

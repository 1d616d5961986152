package code_analyzer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/meysamhadeli/codebro/code_analyzer/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestAnalyzer(t *testing.T, root string, settings Settings) *CodeAnalyzer {
	t.Helper()
	analyzer, err := NewCodeAnalyzer(root, settings, zaptest.NewLogger(t))
	require.NoError(t, err)
	return analyzer.(*CodeAnalyzer)
}

func writeProjectFile(t *testing.T, root string, relativePath string, content string) {
	t.Helper()
	fullPath := filepath.Join(root, filepath.FromSlash(relativePath))
	require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0755))
	require.NoError(t, os.WriteFile(fullPath, []byte(content), 0644))
}

func relativePaths(files []models.ScannedFile) []string {
	paths := make([]string, 0, len(files))
	for _, file := range files {
		paths = append(paths, file.RelativePath)
	}
	return paths
}

// seedBudgetProject lays out files of 10, 10, 10 and 1 characters whose priorities are
// 200, 180, 180 and 0.
func seedBudgetProject(t *testing.T) string {
	root := t.TempDir()
	writeProjectFile(t, root, "package.json", `{"a":"bc"}`)
	writeProjectFile(t, root, "src/index.ts", "export {};")
	writeProjectFile(t, root, "src/util.ts", "x")
	writeProjectFile(t, root, "tsconfig.json", `{"b":"cd"}`)
	return root
}

func TestShallowScan_ListsSurvivingFiles(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "a.txt", "a")
	writeProjectFile(t, root, "b/c.txt", "c")
	writeProjectFile(t, root, ".hidden", "h")
	writeProjectFile(t, root, "node_modules/react/index.js", "r")
	writeProjectFile(t, root, "debug.log", "l")
	writeProjectFile(t, root, "b/logo.png", "p")

	analyzer := newTestAnalyzer(t, root, DefaultSettings())

	result, err := analyzer.ShallowScan(root)
	require.NoError(t, err)
	assert.Equal(t, ".hidden\na.txt\nb/c.txt", result)
}

func TestShallowScan_EmptyProject(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "node_modules/x.js", "x")

	analyzer := newTestAnalyzer(t, root, DefaultSettings())

	result, err := analyzer.ShallowScan(root)
	require.NoError(t, err)
	assert.Equal(t, NoFilesFound, result)
}

func TestShallowScan_UserIgnoreFile(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, ".codebro-ignore", "# generated code\ngenerated/\n*.secret\n")
	writeProjectFile(t, root, "generated/api.ts", "g")
	writeProjectFile(t, root, "key.secret", "s")
	writeProjectFile(t, root, "src/app.ts", "a")

	analyzer := newTestAnalyzer(t, root, DefaultSettings())

	result, err := analyzer.ShallowScan(root)
	require.NoError(t, err)
	assert.Equal(t, ".codebro-ignore\nsrc/app.ts", result)
}

func TestShallowScan_RootErrors(t *testing.T) {
	root := t.TempDir()
	analyzer := newTestAnalyzer(t, root, DefaultSettings())

	_, err := analyzer.ShallowScan(filepath.Join(root, "missing"))
	assert.Error(t, err)

	writeProjectFile(t, root, "file.txt", "x")
	_, err = analyzer.ShallowScan(filepath.Join(root, "file.txt"))
	assert.ErrorIs(t, err, ErrNotADirectory)

	_, err = analyzer.DeepScan(filepath.Join(root, "file.txt"))
	assert.ErrorIs(t, err, ErrNotADirectory)
}

func TestDeepScan_OrdersByPriorityWithStableTies(t *testing.T) {
	root := seedBudgetProject(t)
	analyzer := newTestAnalyzer(t, root, DefaultSettings())

	files, err := analyzer.DeepScan(root)
	require.NoError(t, err)

	assert.Equal(t, []string{"package.json", "src/index.ts", "tsconfig.json", "src/util.ts"}, relativePaths(files))
	assert.Equal(t, []int{200, 180, 180, 0}, []int{files[0].Priority, files[1].Priority, files[2].Priority, files[3].Priority})
	resolvedRoot, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(resolvedRoot, "package.json"), files[0].Path)
}

func TestDeepScan_StopsAtFirstOverflow(t *testing.T) {
	root := seedBudgetProject(t)
	settings := DefaultSettings()
	settings.MaxTotalChars = 25
	analyzer := newTestAnalyzer(t, root, settings)

	files, err := analyzer.DeepScan(root)
	require.NoError(t, err)

	// src/util.ts would still fit, but selection ends at tsconfig.json.
	assert.Equal(t, []string{"package.json", "src/index.ts"}, relativePaths(files))
}

func TestDeepScan_ExactBudgetIsAdmitted(t *testing.T) {
	root := seedBudgetProject(t)
	settings := DefaultSettings()
	settings.MaxTotalChars = 30
	analyzer := newTestAnalyzer(t, root, settings)

	files, err := analyzer.DeepScan(root)
	require.NoError(t, err)

	total := 0
	for _, file := range files {
		total += file.CharCount()
	}
	assert.Equal(t, 30, total)
	assert.Len(t, files, 3)
}

func TestDeepScan_CountsCharactersNotBytes(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "notes.md", "ééééé")
	settings := DefaultSettings()
	settings.MaxTotalChars = 5
	analyzer := newTestAnalyzer(t, root, settings)

	files, err := analyzer.DeepScan(root)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, 5, files[0].CharCount())
}

func TestDeepScan_SkipsBinaryAndLargeFiles(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "data.bin", "\x00\x01\x02")
	writeProjectFile(t, root, "latin1.txt", "caf\xe9")
	writeProjectFile(t, root, "bundle.js", strings.Repeat("a", 2048))
	writeProjectFile(t, root, "app.js", "console.log(1)")
	settings := DefaultSettings()
	settings.MaxFileSizeKB = 1
	analyzer := newTestAnalyzer(t, root, settings)

	files, err := analyzer.DeepScan(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"app.js"}, relativePaths(files))
}

func TestDeepScan_IsIdempotent(t *testing.T) {
	root := seedBudgetProject(t)
	analyzer := newTestAnalyzer(t, root, DefaultSettings())

	first, err := analyzer.DeepScan(root)
	require.NoError(t, err)
	second, err := analyzer.DeepScan(root)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestScan_SymlinkedRoot(t *testing.T) {
	parent := t.TempDir()
	realRoot := filepath.Join(parent, "project")
	writeProjectFile(t, realRoot, "package.json", `{"name":"demo"}`)
	writeProjectFile(t, realRoot, "src/app.ts", "let a;")
	link := filepath.Join(parent, "project-link")
	require.NoError(t, os.Symlink(realRoot, link))

	analyzer := newTestAnalyzer(t, link, DefaultSettings())

	result, err := analyzer.ShallowScan(link)
	require.NoError(t, err)
	assert.Equal(t, "package.json\nsrc/app.ts", result)

	files, err := analyzer.DeepScan(link)
	require.NoError(t, err)
	assert.Equal(t, []string{"package.json", "src/app.ts"}, relativePaths(files))

	resolvedRoot, err := filepath.EvalSymlinks(realRoot)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(resolvedRoot, "src", "app.ts"), files[1].Path)
}

func TestScan_SkipsUnreadableEntries(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "app.js", "console.log(1)")
	require.NoError(t, os.Symlink(filepath.Join(root, "missing.js"), filepath.Join(root, "broken.js")))

	analyzer := newTestAnalyzer(t, root, DefaultSettings())

	files, err := analyzer.DeepScan(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"app.js"}, relativePaths(files))
}

func TestScan_SkipsUnreadableDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}

	root := t.TempDir()
	writeProjectFile(t, root, "app.js", "console.log(1)")
	writeProjectFile(t, root, "locked/secret.js", "x")
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0))
	t.Cleanup(func() { _ = os.Chmod(locked, 0755) })

	analyzer := newTestAnalyzer(t, root, DefaultSettings())

	result, err := analyzer.ShallowScan(root)
	require.NoError(t, err)
	assert.Equal(t, "app.js", result)

	files, err := analyzer.DeepScan(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"app.js"}, relativePaths(files))
}

func TestShallowScan_IsIdempotent(t *testing.T) {
	root := seedBudgetProject(t)
	analyzer := newTestAnalyzer(t, root, DefaultSettings())

	first, err := analyzer.ShallowScan(root)
	require.NoError(t, err)
	second, err := analyzer.ShallowScan(root)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "package.json\nsrc/index.ts\nsrc/util.ts\ntsconfig.json", first)
}

func TestReadFile(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "src/index.ts", "export const a = 1;\n")
	writeProjectFile(t, root, "bad.txt", "\xff\xfe")
	analyzer := newTestAnalyzer(t, root, DefaultSettings())

	file, ok := analyzer.ReadFile(root, "src/index.ts")
	require.True(t, ok)
	assert.Equal(t, "src/index.ts", file.RelativePath)
	assert.Equal(t, "export const a = 1;\n", file.Content)
	assert.Equal(t, 180, file.Priority)
	assert.Equal(t, filepath.Join(root, "src", "index.ts"), file.Path)

	file, ok = analyzer.ReadFile(root, "src/missing.ts")
	assert.False(t, ok)
	assert.Nil(t, file)

	_, ok = analyzer.ReadFile(root, "bad.txt")
	assert.False(t, ok)

	_, ok = analyzer.ReadFile(root, "src")
	assert.False(t, ok)
}

func TestNewCodeAnalyzer_DetachesSettings(t *testing.T) {
	root := t.TempDir()
	settings := DefaultSettings()
	analyzer := newTestAnalyzer(t, root, settings)

	settings.IgnorePatterns[0] = "src"
	settings.KeyFiles[0] = "changed"

	assert.Equal(t, "node_modules", analyzer.settings.IgnorePatterns[0])
	assert.Equal(t, "package.json", analyzer.settings.KeyFiles[0])
}

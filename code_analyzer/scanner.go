package code_analyzer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/meysamhadeli/codebro/code_analyzer/models"
	"go.uber.org/zap"
)

// ErrNotADirectory is returned when a scan root exists but is a regular file.
var ErrNotADirectory = errors.New("project path is not a directory")

// ShallowScan lists every file under rootDir that survives the ignore rules, one relative path
// per line. File contents are never read.
func (analyzer *CodeAnalyzer) ShallowScan(rootDir string) (string, error) {
	var paths []string

	err := analyzer.walkProject(rootDir, func(_ string, relativePath string) {
		paths = append(paths, relativePath)
	})
	if err != nil {
		return "", err
	}

	if len(paths) == 0 {
		return NoFilesFound, nil
	}
	return strings.Join(paths, "\n"), nil
}

// DeepScan reads the surviving files and returns the highest priority ones whose combined
// character count fits in Settings.MaxTotalChars. Files that cannot be read, are too large or
// look binary are skipped.
func (analyzer *CodeAnalyzer) DeepScan(rootDir string) ([]models.ScannedFile, error) {
	var scannedFiles []models.ScannedFile
	maxFileSize := int64(analyzer.settings.MaxFileSizeKB) * 1024

	err := analyzer.walkProject(rootDir, func(path string, relativePath string) {
		fileInfo, err := os.Stat(path)
		if err != nil {
			analyzer.logger.Debug("skipping file", zap.String("file", relativePath), zap.Error(err))
			return
		}
		// Skip oversized files such as minified bundles
		if maxFileSize > 0 && fileInfo.Size() > maxFileSize {
			analyzer.logger.Debug("skipping large file", zap.String("file", relativePath), zap.Int64("size", fileInfo.Size()))
			return
		}

		content, err := os.ReadFile(path)
		if err != nil {
			analyzer.logger.Debug("skipping file", zap.String("file", relativePath), zap.Error(err))
			return
		}
		if isBinaryContent(content) {
			analyzer.logger.Debug("skipping binary file", zap.String("file", relativePath))
			return
		}

		scannedFiles = append(scannedFiles, models.ScannedFile{
			Path:         path,
			RelativePath: relativePath,
			Content:      string(content),
			Priority:     analyzer.scorer.PriorityOf(relativePath),
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(scannedFiles, func(i, j int) bool {
		return scannedFiles[i].Priority > scannedFiles[j].Priority
	})

	return selectWithinBudget(scannedFiles, analyzer.settings.MaxTotalChars), nil
}

// ReadFile reads a single project file. The boolean is false when the file cannot be read as
// text for any reason; callers treat that as a file that does not exist yet.
func (analyzer *CodeAnalyzer) ReadFile(rootDir string, relativePath string) (*models.ScannedFile, bool) {
	fullPath := relativePath
	if !filepath.IsAbs(fullPath) {
		fullPath = filepath.Join(rootDir, filepath.FromSlash(normalizePath(relativePath)))
	}
	if absPath, err := filepath.Abs(fullPath); err == nil {
		fullPath = absPath
	}

	content, err := os.ReadFile(fullPath)
	if err != nil {
		analyzer.logger.Debug("file not readable", zap.String("file", relativePath), zap.Error(err))
		return nil, false
	}
	if !utf8.Valid(content) {
		analyzer.logger.Debug("file is not valid utf-8", zap.String("file", relativePath))
		return nil, false
	}

	return &models.ScannedFile{
		Path:         fullPath,
		RelativePath: relativePath,
		Content:      string(content),
		Priority:     analyzer.scorer.PriorityOf(relativePath),
	}, true
}

// selectWithinBudget admits files in order until the first one that would overflow maxChars.
func selectWithinBudget(files []models.ScannedFile, maxChars int) []models.ScannedFile {
	var selected []models.ScannedFile
	currentTotalChars := 0

	for _, file := range files {
		size := file.CharCount()
		if currentTotalChars+size > maxChars {
			break
		}
		selected = append(selected, file)
		currentTotalChars += size
	}

	return selected
}

// isBinaryContent flags content that would decode with replacement characters or holds NUL bytes.
func isBinaryContent(content []byte) bool {
	if !utf8.Valid(content) {
		return true
	}
	text := string(content)
	return strings.ContainsRune(text, utf8.RuneError) || strings.IndexByte(text, 0) >= 0
}

// walkProject visits every non-ignored file below projectDir in lexical order, with paths under
// the symlink-resolved root. Only a failure to read the root itself is returned; unreadable
// entries further down are skipped.
func (analyzer *CodeAnalyzer) walkProject(projectDir string, visit func(path string, relativePath string)) error {
	// WalkDir does not descend into a symlinked root.
	rootDir, err := filepath.EvalSymlinks(projectDir)
	if err != nil {
		return fmt.Errorf("failed to read project directory %s: %w", projectDir, err)
	}
	rootInfo, err := os.Stat(rootDir)
	if err != nil {
		return fmt.Errorf("failed to read project directory %s: %w", projectDir, err)
	}
	if !rootInfo.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotADirectory, projectDir)
	}

	return filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == rootDir {
				return fmt.Errorf("failed to read project directory %s: %w", rootDir, err)
			}
			analyzer.logger.Debug("skipping unreadable entry", zap.String("path", path), zap.Error(err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if path == rootDir {
			return nil
		}

		relativePath, err := filepath.Rel(rootDir, path)
		if err != nil {
			return nil
		}
		relativePath = filepath.ToSlash(relativePath)

		if d.IsDir() {
			if analyzer.classifier.ShouldPruneDir(relativePath) {
				return filepath.SkipDir
			}
			return nil
		}

		if analyzer.classifier.ShouldIgnore(relativePath) {
			return nil
		}

		visit(path, relativePath)
		return nil
	})
}

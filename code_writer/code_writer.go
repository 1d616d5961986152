package code_writer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	analyzerModels "github.com/meysamhadeli/codebro/code_analyzer/models"
	"github.com/meysamhadeli/codebro/code_writer/contracts"
	"go.uber.org/zap"
)

var (
	// ErrFileChanged means the file on disk no longer matches what was shown to the model.
	ErrFileChanged = errors.New("file changed since it was read")
	// ErrOutsideRoot means a change targets a path that escapes the project directory.
	ErrOutsideRoot = errors.New("path escapes project root")
)

// DefaultBackupDir is where previous versions are kept, relative to the project root.
const DefaultBackupDir = ".codebro/backups"

// CodeWriter applies file changes inside Root, backing up whatever it overwrites.
type CodeWriter struct {
	Root      string
	BackupDir string
	logger    *zap.Logger
}

// NewCodeWriter creates a writer rooted at root. An empty backupDir uses DefaultBackupDir.
func NewCodeWriter(root string, backupDir string, logger *zap.Logger) contracts.ICodeWriter {
	if backupDir == "" {
		backupDir = DefaultBackupDir
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CodeWriter{Root: root, BackupDir: backupDir, logger: logger}
}

// resolve returns the absolute target path and its slash-separated path relative to Root.
func (w *CodeWriter) resolve(relativePath string) (string, string, error) {
	root, err := filepath.Abs(w.Root)
	if err != nil {
		return "", "", err
	}

	target := filepath.FromSlash(relativePath)
	if !filepath.IsAbs(target) {
		target = filepath.Join(root, target)
	}
	target = filepath.Clean(target)

	rel, err := filepath.Rel(root, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", "", fmt.Errorf("%s: %w", relativePath, ErrOutsideRoot)
	}
	return target, filepath.ToSlash(rel), nil
}

func (w *CodeWriter) backupRoot() string {
	if filepath.IsAbs(w.BackupDir) {
		return w.BackupDir
	}
	return filepath.Join(w.Root, w.BackupDir)
}

// Backup copies the current file to <BackupDir>/<relative path>.bak and returns the backup path.
// A missing source is not an error: there is nothing to back up and the path is empty.
func (w *CodeWriter) Backup(relativePath string) (string, error) {
	source, rel, err := w.resolve(relativePath)
	if err != nil {
		return "", err
	}

	content, err := os.ReadFile(source)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read %s for backup: %w", rel, err)
	}

	backupPath := filepath.Join(w.backupRoot(), filepath.FromSlash(rel)+".bak")
	if err := os.MkdirAll(filepath.Dir(backupPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	if err := os.WriteFile(backupPath, content, 0644); err != nil {
		return "", fmt.Errorf("failed to write backup for %s: %w", rel, err)
	}

	w.logger.Debug("backup written", zap.String("file", rel), zap.String("backup", backupPath))
	return backupPath, nil
}

// Write replaces the file through a temporary file in the same directory, creating parents.
func (w *CodeWriter) Write(relativePath string, content string) error {
	target, rel, err := w.resolve(relativePath)
	if err != nil {
		return err
	}

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", rel, err)
	}

	mode := os.FileMode(0644)
	if info, err := os.Stat(target); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(dir, ".codebro-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", rel, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", rel, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", rel, err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set mode on %s: %w", rel, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", rel, err)
	}

	w.logger.Debug("file written", zap.String("file", rel), zap.Int("bytes", len(content)))
	return nil
}

// Delete backs the file up, removes it, and removes its directory when that leaves it empty.
// It returns the backup path.
func (w *CodeWriter) Delete(relativePath string) (string, error) {
	target, rel, err := w.resolve(relativePath)
	if err != nil {
		return "", err
	}

	backupPath, err := w.Backup(rel)
	if err != nil {
		return "", err
	}

	if err := os.Remove(target); err != nil {
		return backupPath, fmt.Errorf("failed to delete %s: %w", rel, err)
	}

	root, _ := filepath.Abs(w.Root)
	dir := filepath.Dir(target)
	if dir != root {
		if entries, err := os.ReadDir(dir); err == nil && len(entries) == 0 {
			if err := os.Remove(dir); err != nil {
				w.logger.Debug("failed to remove empty directory", zap.String("dir", dir), zap.Error(err))
			}
		}
	}

	w.logger.Debug("file deleted", zap.String("file", rel), zap.String("backup", backupPath))
	return backupPath, nil
}

// ApplyPatch returns the file content with the unified diff applied. Nothing is written.
// A missing file is patched as empty content.
func (w *CodeWriter) ApplyPatch(relativePath string, patch string) (string, error) {
	target, rel, err := w.resolve(relativePath)
	if err != nil {
		return "", err
	}

	content, err := os.ReadFile(target)
	if err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to read %s: %w", rel, err)
	}

	patched, err := applyUnifiedDiff(string(content), patch)
	if err != nil {
		return "", fmt.Errorf("failed to patch %s: %w", rel, err)
	}
	return patched, nil
}

// VerifyUnchanged compares the file against a digest taken when it was read.
// An empty digest stands for a file that did not exist.
func (w *CodeWriter) VerifyUnchanged(relativePath string, digest string) error {
	target, rel, err := w.resolve(relativePath)
	if err != nil {
		return err
	}

	content, err := os.ReadFile(target)
	if err != nil {
		if os.IsNotExist(err) && digest == "" {
			return nil
		}
		if os.IsNotExist(err) {
			return fmt.Errorf("%s was removed: %w", rel, ErrFileChanged)
		}
		return fmt.Errorf("failed to read %s: %w", rel, err)
	}

	if digest == "" || analyzerModels.ContentDigest(string(content)) != digest {
		return fmt.Errorf("%s: %w", rel, ErrFileChanged)
	}
	return nil
}

// Preview computes the content a change would leave on disk, given the file's current content.
func (w *CodeWriter) Preview(change analyzerModels.CodeChange, original string) (string, error) {
	switch {
	case change.Action == analyzerModels.ActionDelete:
		return "", nil
	case change.HasContent():
		return change.Content, nil
	case change.HasPatch():
		patched, err := applyUnifiedDiff(original, change.Patch)
		if err != nil {
			return "", fmt.Errorf("failed to patch %s: %w", change.File, err)
		}
		return patched, nil
	default:
		return "", fmt.Errorf("%s: change carries neither content nor patch", change.File)
	}
}

// Apply backs up and then writes or deletes the change's file. It returns the backup path,
// empty when there was nothing to back up.
func (w *CodeWriter) Apply(change analyzerModels.CodeChange, newContent string) (string, error) {
	if change.Action == analyzerModels.ActionDelete {
		return w.Delete(change.File)
	}

	backupPath, err := w.Backup(change.File)
	if err != nil {
		return "", err
	}
	if err := w.Write(change.File, newContent); err != nil {
		return backupPath, err
	}
	return backupPath, nil
}

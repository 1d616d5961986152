package code_writer

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/meysamhadeli/codebro/code_writer/contracts"
	"github.com/meysamhadeli/codebro/code_writer/models"
)

// BackupStore inspects and prunes the backup directory written by CodeWriter.
type BackupStore struct {
	dir   string
	mutex sync.Mutex
}

// NewBackupStore manages the backup directory of the project at root.
// An empty backupDir uses DefaultBackupDir.
func NewBackupStore(root string, backupDir string) contracts.IBackupStore {
	if backupDir == "" {
		backupDir = DefaultBackupDir
	}
	if !filepath.IsAbs(backupDir) {
		backupDir = filepath.Join(root, backupDir)
	}
	return &BackupStore{dir: backupDir}
}

// List returns every backup, oldest first. A missing directory yields an empty list.
func (s *BackupStore) List() ([]models.BackupEntry, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.list()
}

func (s *BackupStore) list() ([]models.BackupEntry, error) {
	var entries []models.BackupEntry

	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == s.dir && os.IsNotExist(err) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".bak") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		rel, _ := filepath.Rel(s.dir, path)
		entries = append(entries, models.BackupEntry{
			Path:         path,
			RelativePath: filepath.ToSlash(rel),
			Size:         info.Size(),
			ModTime:      info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ModTime.Before(entries[j].ModTime)
	})
	return entries, nil
}

// Stats summarises the backup directory.
func (s *BackupStore) Stats() (models.BackupStats, error) {
	entries, err := s.List()
	if err != nil {
		return models.BackupStats{}, err
	}

	stats := models.BackupStats{Dir: s.dir, Files: len(entries)}
	for i, entry := range entries {
		stats.TotalSize += entry.Size
		if i == 0 {
			stats.OldestTime = entry.ModTime
		}
		stats.NewestTime = entry.ModTime
	}
	return stats, nil
}

// Cleanup removes backups older than MaxAge, then the oldest ones beyond MaxFiles.
func (s *BackupStore) Cleanup(options models.BackupCleanupOptions) (models.BackupCleanupResult, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entries, err := s.list()
	if err != nil {
		return models.BackupCleanupResult{}, err
	}

	result := models.BackupCleanupResult{FilesBefore: len(entries), DryRun: options.DryRun}

	// Phase 1: Remove by age
	var remaining []models.BackupEntry
	var toDelete []models.BackupEntry
	if options.MaxAge > 0 {
		cutoff := time.Now().Add(-options.MaxAge)
		for _, entry := range entries {
			if entry.ModTime.Before(cutoff) {
				toDelete = append(toDelete, entry)
				result.RemovedByAge++
			} else {
				remaining = append(remaining, entry)
			}
		}
	} else {
		remaining = entries
	}

	// Phase 2: Remove by file count (oldest first)
	if options.MaxFiles > 0 && len(remaining) > options.MaxFiles {
		excess := len(remaining) - options.MaxFiles
		toDelete = append(toDelete, remaining[:excess]...)
		result.RemovedByCount = excess
	}

	for _, entry := range toDelete {
		if !options.DryRun {
			if err := os.Remove(entry.Path); err != nil && !os.IsNotExist(err) {
				return result, fmt.Errorf("failed to remove backup %s: %w", entry.RelativePath, err)
			}
		}
		result.Removed = append(result.Removed, entry.RelativePath)
		result.FreedBytes += entry.Size
	}

	if !options.DryRun {
		s.pruneEmptyDirs()
	}
	return result, nil
}

// Clear removes the whole backup directory.
func (s *BackupStore) Clear() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("failed to clear backups: %w", err)
	}
	return nil
}

// pruneEmptyDirs removes directories left empty by Cleanup, deepest first.
func (s *BackupStore) pruneEmptyDirs() {
	var dirs []string
	_ = filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err == nil && d.IsDir() && path != s.dir {
			dirs = append(dirs, path)
		}
		return nil
	})
	for i := len(dirs) - 1; i >= 0; i-- {
		if entries, err := os.ReadDir(dirs[i]); err == nil && len(entries) == 0 {
			_ = os.Remove(dirs[i])
		}
	}
}

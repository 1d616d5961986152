package models

import "time"

// BackupEntry describes one file under the backup directory.
type BackupEntry struct {
	Path         string
	RelativePath string
	Size         int64
	ModTime      time.Time
}

// BackupStats summarises the backup directory.
type BackupStats struct {
	Dir        string
	Files      int
	TotalSize  int64
	OldestTime time.Time
	NewestTime time.Time
}

// BackupCleanupOptions defines which backups Cleanup removes. Zero values disable a rule.
type BackupCleanupOptions struct {
	MaxAge   time.Duration // Remove backups older than this
	MaxFiles int           // Keep at most this many backups, newest first
	DryRun   bool          // Only report what would be removed
}

// BackupCleanupResult reports what Cleanup removed or would remove.
type BackupCleanupResult struct {
	FilesBefore    int
	Removed        []string
	RemovedByAge   int
	RemovedByCount int
	FreedBytes     int64
	DryRun         bool
}

package contracts

import (
	analyzerModels "github.com/meysamhadeli/codebro/code_analyzer/models"
	"github.com/meysamhadeli/codebro/code_writer/models"
)

// ICodeWriter applies reviewed changes to the project tree.
type ICodeWriter interface {
	Backup(relativePath string) (string, error)
	Write(relativePath string, content string) error
	Delete(relativePath string) (string, error)
	ApplyPatch(relativePath string, patch string) (string, error)
	VerifyUnchanged(relativePath string, digest string) error
	Preview(change analyzerModels.CodeChange, original string) (string, error)
	Apply(change analyzerModels.CodeChange, newContent string) (string, error)
}

// IBackupStore manages the backup directory.
type IBackupStore interface {
	List() ([]models.BackupEntry, error)
	Stats() (models.BackupStats, error)
	Cleanup(options models.BackupCleanupOptions) (models.BackupCleanupResult, error)
	Clear() error
}

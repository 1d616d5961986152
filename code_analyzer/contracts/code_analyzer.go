package contracts

import (
	"context"

	"github.com/meysamhadeli/codebro/code_analyzer/models"
)

type ICodeAnalyzer interface {
	ShouldIgnore(relativePath string) bool
	PriorityOf(relativePath string) int
	ShallowScan(rootDir string) (string, error)
	DeepScan(rootDir string) ([]models.ScannedFile, error)
	ReadFile(rootDir string, relativePath string) (*models.ScannedFile, bool)
	ParseChanges(response string) models.ParseResult
	ParseRoadmap(response string) models.Roadmap
	Outline(ctx context.Context, filePath string, sourceCode []byte) ([]string, error)
	AnalyzeSystemPrompt() string
	FixSystemPrompt() (string, error)
	GenerateAnalyzePrompt(projectMap string, coreFiles []models.ScannedFile) string
	GenerateDeepAnalyzePrompt(projectMap string, files []models.ScannedFile) string
	GenerateFixInitialPrompt(projectMap string, packageJSON *models.ScannedFile) string
	GenerateStepPrompt(step string, targetFile string, file *models.ScannedFile) string
}

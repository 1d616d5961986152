package code_analyzer

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/meysamhadeli/codebro/code_analyzer/contracts"
	"github.com/meysamhadeli/codebro/code_analyzer/models"
	"github.com/meysamhadeli/codebro/embed_data"
	"github.com/meysamhadeli/codebro/utils"
	"go.uber.org/zap"
)

// CoreFiles are read individually by the analyze command to describe the project "brain".
var CoreFiles = []string{"package.json", "tsconfig.json", "vite.config.ts", "server.js"}

// CodeAnalyzer scans a project and interprets model responses about it.
type CodeAnalyzer struct {
	Cwd        string
	settings   Settings
	classifier *PathClassifier
	scorer     *PriorityScorer
	parser     *responseParser
	logger     *zap.Logger
}

// NewCodeAnalyzer initializes a CodeAnalyzer for the project at cwd. User ignore patterns from
// the project's .codebro-ignore file are added to the configured ignore list.
func NewCodeAnalyzer(cwd string, settings Settings, logger *zap.Logger) (contracts.ICodeAnalyzer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	settings = settings.clone()

	userPatterns, err := utils.GetIgnorePatterns(cwd)
	if err != nil {
		return nil, err
	}

	classifier, err := NewPathClassifier(settings.IgnorePatterns, append(append([]string(nil), settings.ExcludeDirs...), userPatterns...))
	if err != nil {
		return nil, fmt.Errorf("invalid ignore pattern in %s: %w", utils.IgnoreFileName, err)
	}

	return &CodeAnalyzer{
		Cwd:        cwd,
		settings:   settings,
		classifier: classifier,
		scorer:     NewPriorityScorer(settings.KeyFiles),
		parser:     newResponseParser(settings.Markers),
		logger:     logger,
	}, nil
}

func (analyzer *CodeAnalyzer) ShouldIgnore(relativePath string) bool {
	return analyzer.classifier.ShouldIgnore(relativePath)
}

func (analyzer *CodeAnalyzer) PriorityOf(relativePath string) int {
	return analyzer.scorer.PriorityOf(relativePath)
}

// ParseChanges extracts the file changes from a fix response.
func (analyzer *CodeAnalyzer) ParseChanges(response string) models.ParseResult {
	result := analyzer.parser.parse(response)
	for _, diagnostic := range result.Diagnostics {
		analyzer.logger.Debug("response segment diagnostic",
			zap.Int("segment", diagnostic.Segment),
			zap.String("reason", diagnostic.Reason),
			zap.String("excerpt", diagnostic.Excerpt))
	}
	return result
}

// AnalyzeSystemPrompt is the instruction for the one-shot project analysis.
func (analyzer *CodeAnalyzer) AnalyzeSystemPrompt() string {
	return string(embed_data.AnalyzePrompt)
}

// FixSystemPrompt is the instruction for the interactive fix session, including the markers the
// response parser expects.
func (analyzer *CodeAnalyzer) FixSystemPrompt() (string, error) {
	promptTemplate, err := template.New("fix").Parse(string(embed_data.FixPrompt))
	if err != nil {
		return "", fmt.Errorf("failed to parse fix prompt: %w", err)
	}

	var buffer bytes.Buffer
	if err := promptTemplate.Execute(&buffer, analyzer.settings.Markers); err != nil {
		return "", fmt.Errorf("failed to render fix prompt: %w", err)
	}
	return buffer.String(), nil
}

// GenerateAnalyzePrompt builds the user message for analyze: the project map plus whichever
// core files exist.
func (analyzer *CodeAnalyzer) GenerateAnalyzePrompt(projectMap string, coreFiles []models.ScannedFile) string {
	var coreContext strings.Builder
	for _, file := range coreFiles {
		coreContext.WriteString(fmt.Sprintf("%s %s\n%s\n```%s\n%s\n```\n\n",
			analyzer.settings.Markers.FileKey, file.RelativePath, analyzer.settings.Markers.ContentKey,
			fenceLanguage(file.RelativePath), file.Content))
	}

	return fmt.Sprintf("Here is my project structure:\n%s\n\nCORE CONFIGURATION:\n%s\nAnalyze this and provide a plan.",
		projectMap, coreContext.String())
}

// GenerateDeepAnalyzePrompt is GenerateAnalyzePrompt over a deep scan selection.
func (analyzer *CodeAnalyzer) GenerateDeepAnalyzePrompt(projectMap string, files []models.ScannedFile) string {
	codes := make([]string, 0, len(files))
	for _, file := range files {
		codes = append(codes, fmt.Sprintf("**File: %s**\n\n```%s\n%s\n```", file.RelativePath, fenceLanguage(file.RelativePath), file.Content))
	}

	return fmt.Sprintf("Here is my project structure:\n%s\n\n______\nPROJECT FILES (highest priority first):\n\n%s\n\n______\nAnalyze this and provide a plan.",
		projectMap, strings.Join(codes, "\n---------\n\n"))
}

// GenerateFixInitialPrompt opens a fix session with the map and package.json.
func (analyzer *CodeAnalyzer) GenerateFixInitialPrompt(projectMap string, packageJSON *models.ScannedFile) string {
	pkgContent := "Not found"
	if packageJSON != nil {
		pkgContent = packageJSON.Content
	}
	return fmt.Sprintf("PROJECT MAP:\n%s\n\nCORE FILE (package.json):\n%s\n\nAnalyze the project structure and provide a roadmap to fix it.",
		projectMap, pkgContent)
}

// GenerateStepPrompt asks for one roadmap step against a single target file. A nil file means
// the file does not exist yet.
func (analyzer *CodeAnalyzer) GenerateStepPrompt(step string, targetFile string, file *models.ScannedFile) string {
	content := "// New File"
	if file != nil {
		content = file.Content
	}
	return fmt.Sprintf("Action: %s.\n\nTARGET FILE: %s\nCURRENT CONTENT:\n```\n%s\n```", step, targetFile, content)
}

func fenceLanguage(relativePath string) string {
	if language := GetSupportedLanguage(relativePath); language != "" {
		return language
	}
	if language := utils.DetectLanguageFromPath(relativePath); language != "text" {
		return language
	}
	return ""
}

package code_analyzer

import (
	"path"
	"strings"
)

const (
	manifestPriority    = 200
	buildConfPriority   = 180
	keyFileBonus        = 100
	entryPointBonus     = 80
	defaultFilePriority = 0
)

// PriorityScorer ranks files so the ones that reveal the project's stack survive budget trimming.
type PriorityScorer struct {
	keyFiles map[string]struct{}
}

func NewPriorityScorer(keyFiles []string) *PriorityScorer {
	set := make(map[string]struct{}, len(keyFiles))
	for _, name := range keyFiles {
		set[name] = struct{}{}
	}
	return &PriorityScorer{keyFiles: set}
}

// PriorityOf scores a path by its base name only.
func (p *PriorityScorer) PriorityOf(relativePath string) int {
	baseName := path.Base(normalizePath(relativePath))

	switch baseName {
	case "package.json":
		return manifestPriority
	case "tsconfig.json", "vite.config.ts":
		return buildConfPriority
	}

	priority := defaultFilePriority
	if _, ok := p.keyFiles[baseName]; ok {
		priority += keyFileBonus
	}
	if strings.HasPrefix(baseName, "index.") || strings.HasPrefix(baseName, "main.") {
		priority += entryPointBonus
	}
	return priority
}

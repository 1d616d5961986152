package code_analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPriorityScorer_PriorityOf(t *testing.T) {
	scorer := NewPriorityScorer(DefaultKeyFiles)

	tests := []struct {
		path     string
		priority int
	}{
		{"package.json", 200},
		{"apps/web/package.json", 200},
		{"tsconfig.json", 180},
		{"vite.config.ts", 180},
		{"src/index.ts", 180},
		{"src\\index.js", 180},
		{"src/main.ts", 180},
		{"README.md", 100},
		{"server.js", 100},
		{"index.html", 80},
		{"cmd/main.go", 80},
		{"src/utils.ts", 0},
		{"src/reindex.ts", 0},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.priority, scorer.PriorityOf(tt.path))
		})
	}
}

func TestPriorityScorer_CustomKeyFiles(t *testing.T) {
	scorer := NewPriorityScorer([]string{"go.mod"})

	assert.Equal(t, 100, scorer.PriorityOf("go.mod"))
	assert.Equal(t, 0, scorer.PriorityOf("README.md"))
	assert.Equal(t, 200, scorer.PriorityOf("package.json"))
}

package code_analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathClassifier_DefaultPatterns(t *testing.T) {
	classifier, err := NewPathClassifier(DefaultIgnorePatterns, nil)
	require.NoError(t, err)

	tests := []struct {
		path    string
		ignored bool
	}{
		{"node_modules/foo.js", true},
		{"src/foo.png", true},
		{"src/app.ts", false},
		{"logs", true},
		{"server/debug.log", true},
		{"package-lock.json", true},
		{"web/package-lock.json", true},
		{"packages/ui/node_modules/react/index.js", true},
		{"src\\node_modules\\x.js", true},
		{"distribution/main.js", false},
		{"src/app.pngx", false},
		{".env", true},
		{".env.example", false},
		{"README.md", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.ignored, classifier.ShouldIgnore(tt.path))
		})
	}
}

func TestPathClassifier_StarOnlyLeading(t *testing.T) {
	classifier, err := NewPathClassifier([]string{"*.log", "foo*"}, nil)
	require.NoError(t, err)

	assert.True(t, classifier.ShouldIgnore("a/b.log"))
	assert.False(t, classifier.ShouldIgnore("foobar"))
	assert.True(t, classifier.ShouldIgnore("x/foo*"))
}

func TestPathClassifier_UserPatterns(t *testing.T) {
	classifier, err := NewPathClassifier(DefaultIgnorePatterns, []string{"generated/", "*.secret", "docs/**"})
	require.NoError(t, err)

	assert.True(t, classifier.ShouldIgnore("generated/api.ts"))
	assert.True(t, classifier.ShouldIgnore("key.secret"))
	assert.True(t, classifier.ShouldIgnore("docs/guide/intro.md"))
	assert.False(t, classifier.ShouldIgnore("src/generated.ts"))
	assert.False(t, classifier.ShouldIgnore("src/app.ts"))
}

func TestPathClassifier_ShouldPruneDir(t *testing.T) {
	classifier, err := NewPathClassifier(DefaultIgnorePatterns, []string{"generated/"})
	require.NoError(t, err)

	assert.True(t, classifier.ShouldPruneDir("node_modules"))
	assert.True(t, classifier.ShouldPruneDir("packages/app/dist"))
	assert.True(t, classifier.ShouldPruneDir("generated"))
	assert.False(t, classifier.ShouldPruneDir("src"))
	assert.False(t, classifier.ShouldPruneDir("generated-client"))
}

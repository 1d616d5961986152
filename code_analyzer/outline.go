package code_analyzer

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// outlineQueries maps a tag to the tree-sitter query capturing the named declarations for it.
var (
	goOutlineQueries = map[string]string{
		"function": `(function_declaration name: (_) @name)`,
		"method":   `(method_declaration name: (_) @name)`,
		"type":     `(type_spec name: (_) @name)`,
	}
	javascriptOutlineQueries = map[string]string{
		"function": `(function_declaration name: (_) @name)`,
		"class":    `(class_declaration name: (_) @name)`,
		"method":   `(method_definition name: (_) @name)`,
	}
	typescriptOutlineQueries = map[string]string{
		"function":  `(function_declaration name: (_) @name)`,
		"class":     `(class_declaration name: (_) @name)`,
		"method":    `(method_definition name: (_) @name)`,
		"interface": `(interface_declaration name: (_) @name)`,
	}
	pythonOutlineQueries = map[string]string{
		"function": `(function_definition name: (_) @name)`,
		"class":    `(class_definition name: (_) @name)`,
	}
)

// GetSupportedLanguage maps a file extension to the grammar used for outlines.
func GetSupportedLanguage(filePath string) string {
	switch strings.ToLower(path.Ext(normalizePath(filePath))) {
	case ".go":
		return "go"
	case ".js", ".jsx", ".mjs", ".cjs":
		return "javascript"
	case ".ts", ".mts", ".cts":
		return "typescript"
	case ".tsx":
		return "tsx"
	case ".py":
		return "python"
	}
	return ""
}

// Outline summarizes a source file as tagged declaration names ("function: main"), ordered by
// position. Files in languages without a grammar yield their first line.
func (analyzer *CodeAnalyzer) Outline(ctx context.Context, filePath string, sourceCode []byte) ([]string, error) {
	var lang *sitter.Language
	var queries map[string]string

	switch GetSupportedLanguage(filePath) {
	case "go":
		lang, queries = golang.GetLanguage(), goOutlineQueries
	case "javascript":
		lang, queries = javascript.GetLanguage(), javascriptOutlineQueries
	case "typescript":
		lang, queries = typescript.GetLanguage(), typescriptOutlineQueries
	case "tsx":
		lang, queries = tsx.GetLanguage(), typescriptOutlineQueries
	case "python":
		lang, queries = python.GetLanguage(), pythonOutlineQueries
	default:
		lines := strings.SplitN(string(sourceCode), "\n", 2)
		return []string{lines[0]}, nil
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(ctx, nil, sourceCode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filePath, err)
	}
	defer tree.Close()

	type element struct {
		offset uint32
		text   string
	}
	var elements []element

	for tag, queryStr := range queries {
		query, err := sitter.NewQuery([]byte(queryStr), lang)
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s query: %w", tag, err)
		}

		cursor := sitter.NewQueryCursor()
		cursor.Exec(query, tree.RootNode())
		for {
			match, ok := cursor.NextMatch()
			if !ok {
				break
			}
			for _, capture := range match.Captures {
				elements = append(elements, element{
					offset: capture.Node.StartByte(),
					text:   fmt.Sprintf("%s: %s", tag, capture.Node.Content(sourceCode)),
				})
			}
		}
		cursor.Close()
		query.Close()
	}

	sort.Slice(elements, func(i, j int) bool {
		return elements[i].offset < elements[j].offset
	})

	outline := make([]string, 0, len(elements))
	for _, e := range elements {
		outline = append(outline, e.text)
	}
	return outline, nil
}

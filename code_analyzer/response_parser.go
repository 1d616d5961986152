package code_analyzer

import (
	"regexp"
	"strings"

	"github.com/meysamhadeli/codebro/code_analyzer/models"
)

const (
	reasonMissingFile       = "missing FILE field"
	reasonMissingAction     = "missing ACTION field"
	reasonUnsupportedAction = "unsupported ACTION value"
	reasonPatchIgnored      = "both CONTENT and PATCH present, PATCH ignored"

	excerptLength = 60
)

// responseParser extracts CodeChange records from free-form model output using the
// sentinel markers the model was instructed to emit.
type responseParser struct {
	markers          Markers
	filePattern      *regexp.Regexp
	actionPattern    *regexp.Regexp
	actionKeyPattern *regexp.Regexp
	contentPattern   *regexp.Regexp
	patchPattern     *regexp.Regexp
}

func newResponseParser(markers Markers) *responseParser {
	fence := regexp.QuoteMeta("```")
	return &responseParser{
		markers:          markers,
		filePattern:      regexp.MustCompile(`(?i)` + regexp.QuoteMeta(markers.FileKey) + `[ \t]*:?[ \t]*([^\n\r]+)`),
		actionPattern:    regexp.MustCompile(`(?i)` + regexp.QuoteMeta(markers.ActionKey) + `[ \t]*:?[ \t]*(CREATE|MODIFY|DELETE)\b`),
		actionKeyPattern: regexp.MustCompile(`(?i)` + regexp.QuoteMeta(markers.ActionKey)),
		contentPattern: regexp.MustCompile(`(?i)` + regexp.QuoteMeta(markers.ContentKey) +
			`\s*:?\s*[\n\r]+` + fence + `(?:[\w+#.-]+)?[ \t]*\r?\n(?:([\s\S]*?)\r?\n)??` + fence),
		patchPattern: regexp.MustCompile(`(?i)` + regexp.QuoteMeta(markers.PatchKey) +
			`\s*:?\s*[\n\r]+` + fence + `diff[ \t]*[\n\r]+([\s\S]*?)[\n\r]+` + fence),
	}
}

// parse never fails: segments without both FILE and ACTION are dropped and reported as
// diagnostics instead.
func (p *responseParser) parse(response string) models.ParseResult {
	var result models.ParseResult

	segments := strings.Split(response, p.markers.FileChangeStart)
	for index, segment := range segments {
		if p.markers.FileChangeEnd != "" {
			if end := strings.Index(segment, p.markers.FileChangeEnd); end >= 0 {
				segment = segment[:end]
			}
		}
		if strings.TrimSpace(segment) == "" {
			continue
		}

		change, diagnostics := p.parseSegment(index, segment)
		result.Diagnostics = append(result.Diagnostics, diagnostics...)
		if change != nil {
			result.Changes = append(result.Changes, *change)
		}
	}

	return result
}

func (p *responseParser) parseSegment(index int, segment string) (*models.CodeChange, []models.ParseDiagnostic) {
	diagnostic := func(reason string) models.ParseDiagnostic {
		return models.ParseDiagnostic{Segment: index, Reason: reason, Excerpt: excerpt(segment)}
	}

	fileMatch := p.filePattern.FindStringSubmatch(segment)
	actionMatch := p.actionPattern.FindStringSubmatch(segment)

	// Prose ahead of the first block is not a malformed change.
	if index == 0 && fileMatch == nil && !p.actionKeyPattern.MatchString(segment) {
		return nil, nil
	}

	var diagnostics []models.ParseDiagnostic
	if fileMatch == nil || strings.TrimSpace(fileMatch[1]) == "" {
		diagnostics = append(diagnostics, diagnostic(reasonMissingFile))
	}
	if actionMatch == nil {
		if p.actionKeyPattern.MatchString(segment) {
			diagnostics = append(diagnostics, diagnostic(reasonUnsupportedAction))
		} else {
			diagnostics = append(diagnostics, diagnostic(reasonMissingAction))
		}
	}
	if len(diagnostics) > 0 {
		return nil, diagnostics
	}

	action, _ := models.ParseAction(actionMatch[1])
	change := &models.CodeChange{
		File:   strings.TrimSpace(fileMatch[1]),
		Action: action,
	}

	contentMatch := p.contentPattern.FindStringSubmatch(segment)
	patchMatch := p.patchPattern.FindStringSubmatch(segment)

	if contentMatch != nil {
		change.Content = contentMatch[1]
		change.ContentPresent = true
		if patchMatch != nil {
			diagnostics = append(diagnostics, diagnostic(reasonPatchIgnored))
		}
	} else if patchMatch != nil {
		change.Patch = strings.Trim(patchMatch[1], "\r\n")
	}

	return change, diagnostics
}

func excerpt(segment string) string {
	trimmed := strings.Join(strings.Fields(segment), " ")
	runes := []rune(trimmed)
	if len(runes) > excerptLength {
		return string(runes[:excerptLength]) + "..."
	}
	return trimmed
}

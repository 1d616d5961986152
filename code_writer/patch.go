package code_writer

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
)

var (
	// ErrPatchConflict means a hunk's context could not be found in the current file.
	ErrPatchConflict = errors.New("patch does not apply to current content")
	// ErrMalformedPatch means the patch text is not a unified diff.
	ErrMalformedPatch = errors.New("malformed patch")
)

var hunkHeaderRegex = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

type hunk struct {
	header   string
	oldStart int // 1-based, 0 when the header carries no position
	oldLines []string
	newLines []string
}

// applyUnifiedDiff applies patch to content. Hunks that do not sit at their declared lines, or
// carry no position at all, are relocated by relocateUnifiedDiff.
func applyUnifiedDiff(content string, patch string) (string, error) {
	if result, err := applyStrict(content, patch); err == nil {
		return result, nil
	}
	return relocateUnifiedDiff(content, patch)
}

// applyStrict applies patch with git's rules: every hunk must match at its declared position.
func applyStrict(content string, patch string) (string, error) {
	files, _, err := gitdiff.Parse(strings.NewReader(withFileHeader(patch)))
	if err != nil {
		return "", fmt.Errorf("%v: %w", err, ErrMalformedPatch)
	}
	if len(files) != 1 || len(files[0].TextFragments) == 0 {
		return "", fmt.Errorf("expected hunks for exactly one file: %w", ErrMalformedPatch)
	}

	var out bytes.Buffer
	if err := gitdiff.Apply(&out, strings.NewReader(content), files[0]); err != nil {
		var conflict *gitdiff.Conflict
		if errors.As(err, &conflict) {
			return "", fmt.Errorf("%v: %w", err, ErrPatchConflict)
		}
		return "", fmt.Errorf("%v: %w", err, ErrMalformedPatch)
	}
	return out.String(), nil
}

// withFileHeader prepends "---"/"+++" lines when the patch starts directly at a hunk.
func withFileHeader(patch string) string {
	for _, line := range strings.Split(patch, "\n") {
		switch {
		case strings.TrimSpace(line) == "":
			continue
		case strings.HasPrefix(line, "@@"):
			return "--- a/file\n+++ b/file\n" + patch
		}
		break
	}
	return patch
}

// relocateUnifiedDiff applies every hunk of patch to content in order.
// Each hunk must match exactly, preferably at its declared line, otherwise at the nearest
// position after the previous hunk.
func relocateUnifiedDiff(content string, patch string) (string, error) {
	hunks, err := parseUnifiedDiff(patch)
	if err != nil {
		return "", err
	}

	normalized := strings.ReplaceAll(content, "\r\n", "\n")
	trailingNewline := strings.HasSuffix(normalized, "\n") || normalized == ""
	lines := splitLines(normalized)

	var out []string
	cursor := 0
	for i, h := range hunks {
		pos, ok := locateHunk(lines, h, cursor)
		if !ok {
			return "", fmt.Errorf("hunk %d (%s): %w", i+1, h.header, ErrPatchConflict)
		}
		out = append(out, lines[cursor:pos]...)
		out = append(out, h.newLines...)
		cursor = pos + len(h.oldLines)
	}
	out = append(out, lines[cursor:]...)

	if len(out) == 0 {
		return "", nil
	}
	result := strings.Join(out, "\n")
	if trailingNewline {
		result += "\n"
	}
	return result, nil
}

// locateHunk finds where the hunk's old lines sit in lines, searching from cursor outward
// from the declared position.
func locateHunk(lines []string, h hunk, cursor int) (int, bool) {
	expected := h.oldStart - 1
	if len(h.oldLines) == 0 {
		// pure insertion: the header line is the line after which to insert
		expected = h.oldStart
	}
	if expected < cursor {
		expected = cursor
	}
	if expected > len(lines) {
		expected = len(lines)
	}

	if len(h.oldLines) == 0 {
		return expected, true
	}

	last := len(lines) - len(h.oldLines)
	for distance := 0; ; distance++ {
		before, after := expected-distance, expected+distance
		if before < cursor && after > last {
			return 0, false
		}
		if after <= last && matchesAt(lines, h.oldLines, after) {
			return after, true
		}
		if distance > 0 && before >= cursor && before <= last && matchesAt(lines, h.oldLines, before) {
			return before, true
		}
	}
}

func matchesAt(lines []string, want []string, pos int) bool {
	if pos < 0 || pos+len(want) > len(lines) {
		return false
	}
	for i, line := range want {
		if lines[pos+i] != line {
			return false
		}
	}
	return true
}

// parseUnifiedDiff reads the hunks of a unified diff. File headers ("diff", "index", "---",
// "+++") are skipped, as is the "\ No newline at end of file" marker.
func parseUnifiedDiff(patch string) ([]hunk, error) {
	rawLines := strings.Split(strings.ReplaceAll(patch, "\r\n", "\n"), "\n")

	var hunks []hunk
	var current *hunk
	for i, line := range rawLines {
		switch {
		case strings.HasPrefix(line, "@@"):
			h, err := parseHunkHeader(line)
			if err != nil {
				return nil, err
			}
			hunks = append(hunks, h)
			current = &hunks[len(hunks)-1]
		case isFileHeader(rawLines, i):
			current = nil
		case current == nil:
			// preamble before the first hunk
		case strings.HasPrefix(line, `\`):
		case line == "":
			if i == len(rawLines)-1 {
				continue
			}
			current.oldLines = append(current.oldLines, "")
			current.newLines = append(current.newLines, "")
		case line[0] == ' ':
			current.oldLines = append(current.oldLines, line[1:])
			current.newLines = append(current.newLines, line[1:])
		case line[0] == '-':
			current.oldLines = append(current.oldLines, line[1:])
		case line[0] == '+':
			current.newLines = append(current.newLines, line[1:])
		default:
			return nil, fmt.Errorf("line %d %q: %w", i+1, line, ErrMalformedPatch)
		}
	}

	if len(hunks) == 0 {
		return nil, fmt.Errorf("no hunks found: %w", ErrMalformedPatch)
	}
	return hunks, nil
}

func parseHunkHeader(line string) (hunk, error) {
	match := hunkHeaderRegex.FindStringSubmatch(line)
	if match == nil {
		if strings.TrimSpace(strings.Trim(line, "@")) == "" {
			return hunk{header: line}, nil
		}
		return hunk{}, fmt.Errorf("hunk header %q: %w", line, ErrMalformedPatch)
	}
	start, err := strconv.Atoi(match[1])
	if err != nil {
		return hunk{}, fmt.Errorf("hunk header %q: %w", line, ErrMalformedPatch)
	}
	return hunk{header: strings.TrimSpace(match[0]), oldStart: start}, nil
}

func isFileHeader(lines []string, i int) bool {
	line := lines[i]
	if strings.HasPrefix(line, "diff ") || strings.HasPrefix(line, "index ") {
		return true
	}
	if strings.HasPrefix(line, "--- ") && i+1 < len(lines) && strings.HasPrefix(lines[i+1], "+++ ") {
		return true
	}
	return strings.HasPrefix(line, "+++ ") && i > 0 && strings.HasPrefix(lines[i-1], "--- ")
}

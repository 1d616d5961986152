package code_writer

import (
	"fmt"
	"strings"

	"github.com/meysamhadeli/codebro/code_writer/models"
	"github.com/meysamhadeli/codebro/constants/lipgloss"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// collapseThreshold is the longest unchanged run still shown in full.
const collapseThreshold = 4

// RenderDiff computes a line-level diff of two texts. Unchanged runs longer than
// collapseThreshold lines are folded into a single Collapsed row.
func RenderDiff(oldContent, newContent string) []models.DiffLine {
	var lineArray []string
	lineIndex := make(map[string]rune)

	oldRunes := encodeLines(splitLines(oldContent), lineIndex, &lineArray)
	newRunes := encodeLines(splitLines(newContent), lineIndex, &lineArray)

	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	diffs := dmp.DiffMainRunes(oldRunes, newRunes, false)

	var rows []models.DiffLine
	for _, diff := range diffs {
		kind := models.Unchanged
		switch diff.Type {
		case diffmatchpatch.DiffInsert:
			kind = models.Added
		case diffmatchpatch.DiffDelete:
			kind = models.Removed
		}
		for _, r := range diff.Text {
			rows = append(rows, models.DiffLine{Kind: kind, Text: lineArray[decodeLine(r)]})
		}
	}

	return collapseUnchanged(rows)
}

// FormatDiff renders diff rows for the terminal.
func FormatDiff(rows []models.DiffLine) string {
	var sb strings.Builder
	for _, row := range rows {
		switch row.Kind {
		case models.Added:
			sb.WriteString(lipgloss.Green.Render("+ " + row.Text))
		case models.Removed:
			sb.WriteString(lipgloss.Red.Render("- " + row.Text))
		case models.Collapsed:
			sb.WriteString(lipgloss.Gray.Render(fmt.Sprintf("   ... (%d unchanged lines)", row.Count)))
		default:
			sb.WriteString(lipgloss.Gray.Render("  " + row.Text))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// HasChanges reports whether any row adds or removes a line.
func HasChanges(rows []models.DiffLine) bool {
	for _, row := range rows {
		if row.Kind == models.Added || row.Kind == models.Removed {
			return true
		}
	}
	return false
}

func collapseUnchanged(rows []models.DiffLine) []models.DiffLine {
	result := make([]models.DiffLine, 0, len(rows))
	for i := 0; i < len(rows); {
		if rows[i].Kind != models.Unchanged {
			result = append(result, rows[i])
			i++
			continue
		}
		j := i
		for j < len(rows) && rows[j].Kind == models.Unchanged {
			j++
		}
		if run := j - i; run > collapseThreshold {
			result = append(result, models.DiffLine{Kind: models.Collapsed, Count: run})
		} else {
			result = append(result, rows[i:j]...)
		}
		i = j
	}
	return result
}

// splitLines treats a single trailing newline as a terminator, not as an extra empty line.
func splitLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimSuffix(content, "\n")
	if content == "" {
		return nil
	}
	return strings.Split(content, "\n")
}

// encodeLines maps every distinct line to one rune so the character differ works on whole lines.
// Indices skip the UTF-16 surrogate range, which cannot round-trip through a Go string.
func encodeLines(lines []string, lineIndex map[string]rune, lineArray *[]string) []rune {
	runes := make([]rune, 0, len(lines))
	for _, line := range lines {
		r, ok := lineIndex[line]
		if !ok {
			r = encodeLine(len(*lineArray))
			*lineArray = append(*lineArray, line)
			lineIndex[line] = r
		}
		runes = append(runes, r)
	}
	return runes
}

func encodeLine(index int) rune {
	r := rune(index + 1)
	if r >= 0xD800 {
		r += 0x800
	}
	return r
}

func decodeLine(r rune) int {
	if r >= 0xE000 {
		r -= 0x800
	}
	return int(r) - 1
}

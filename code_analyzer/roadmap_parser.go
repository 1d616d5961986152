package code_analyzer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/meysamhadeli/codebro/code_analyzer/models"
)

var (
	techStackPattern = regexp.MustCompile(`(?i)Tech Stack:[ \t]*(.*)`)
	issuesPattern    = regexp.MustCompile(`(?i)Issues Identified:\s*\n((?:- [^\n]+\n?)+)`)
	planPattern      = regexp.MustCompile(`(?i)Plan to make it runnable:\s*\n((?:[0-9]+\. [^\n]+\n?)+)`)
	planStepPrefix   = regexp.MustCompile(`^[0-9]+\.`)
	stepDigits       = regexp.MustCompile(`[^\d]`)
)

// ParseRoadmap pulls the tech stack, issue list and numbered plan out of an analysis response.
// Sections that are missing are left empty.
func (analyzer *CodeAnalyzer) ParseRoadmap(response string) models.Roadmap {
	var roadmap models.Roadmap

	if match := techStackPattern.FindStringSubmatch(response); match != nil {
		for _, item := range strings.Split(match[1], ",") {
			if item = strings.TrimSpace(item); item != "" {
				roadmap.TechStack = append(roadmap.TechStack, item)
			}
		}
	}

	if match := issuesPattern.FindStringSubmatch(response); match != nil {
		for _, line := range strings.Split(match[1], "\n") {
			if strings.HasPrefix(line, "- ") {
				roadmap.Issues = append(roadmap.Issues, strings.TrimSpace(line[2:]))
			}
		}
	}

	if match := planPattern.FindStringSubmatch(response); match != nil {
		for _, line := range strings.Split(match[1], "\n") {
			if planStepPrefix.MatchString(line) {
				roadmap.Plan = append(roadmap.Plan, strings.TrimSpace(planStepPrefix.ReplaceAllString(line, "")))
			}
		}
	}

	return roadmap
}

// StepIndex converts commands like "step 3" into a zero-based plan index.
func StepIndex(command string) (int, bool) {
	command = strings.ToLower(strings.TrimSpace(command))
	if !strings.Contains(command, "step") {
		return 0, false
	}
	number, err := strconv.Atoi(stepDigits.ReplaceAllString(command, ""))
	if err != nil || number < 1 {
		return 0, false
	}
	return number - 1, true
}

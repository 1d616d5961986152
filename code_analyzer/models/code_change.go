package models

import "strings"

// Action is the kind of change the model asks for on a file.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionModify Action = "MODIFY"
	ActionDelete Action = "DELETE"
)

// ParseAction maps a case-insensitive action keyword to an Action.
func ParseAction(value string) (Action, bool) {
	switch Action(strings.ToUpper(strings.TrimSpace(value))) {
	case ActionCreate:
		return ActionCreate, true
	case ActionModify:
		return ActionModify, true
	case ActionDelete:
		return ActionDelete, true
	}
	return "", false
}

// CodeChange is one structured file change extracted from a model response.
type CodeChange struct {
	File    string
	Action  Action
	Content string
	Patch   string
	// ContentPresent marks a CONTENT block, which may be empty.
	ContentPresent bool
}

func (c CodeChange) HasContent() bool {
	return c.ContentPresent || c.Content != ""
}

func (c CodeChange) HasPatch() bool {
	return c.Patch != ""
}

// ParseDiagnostic explains why a segment of a response did not yield a CodeChange,
// or what the parser chose to ignore inside one that did.
type ParseDiagnostic struct {
	Segment int
	Reason  string
	Excerpt string
}

// ParseResult is what the response parser returns: never an error, possibly no changes.
type ParseResult struct {
	Changes     []CodeChange
	Diagnostics []ParseDiagnostic
}

// Roadmap is the structured form of the model's project analysis.
type Roadmap struct {
	TechStack []string
	Issues    []string
	Plan      []string
}

package models

import "errors"

var (
	ErrEmptyChoices   = errors.New("no choices returned by the AI service")
	ErrContentFilter  = errors.New("response blocked by the content filter")
	ErrMissingContent = errors.New("response message has no content")
)

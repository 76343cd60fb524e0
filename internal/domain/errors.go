package domain

import "errors"

var (
	ErrEmptyExtraction = errors.New("no text extracted from image")
	ErrInvalidResponse = errors.New("grading response missing required fields")
)

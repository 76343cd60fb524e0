package config

import "time"

const (
	// Timeout for a single grading/vision attempt
	RequestTimeout = 90 * time.Second

	// Marks outside this range on a question line are treated as noise
	MinPlausibleMarks = 1
	MaxPlausibleMarks = 20

	// How many leading lines of OCR text may carry a maximum-marks header
	HeaderScanLines = 15

	// Default total for the simple workflow when the teacher's question does
	// not state one
	DefaultMaxMarks = 10

	// Fallback grading: answers at least this long count as substantial and
	// score within the band below
	SubstantialAnswerLen   = 120
	FallbackFloorPercent   = 40
	FallbackCeilingPercent = 80

	// Shortest text accepted as a typed question or answer
	MinQuestionLen = 10
	MinAnswerLen   = 30
)

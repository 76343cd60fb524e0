// Package vision extracts text from uploaded exam images through an external
// OCR/vision collaborator.
package vision

import "context"

// Input references one uploaded image, either by URL or raw bytes.
type Input struct {
	URL  string
	Data []byte
	MIME string
	Name string
}

// Extractor is the OCR collaborator contract. Implementations fail closed: a
// transport problem is an error, never a silently empty string, so the caller
// can distinguish "unreadable page" from "service down".
type Extractor interface {
	ExtractText(ctx context.Context, img Input, hint string) (string, error)
}

// Hints passed alongside images so the collaborator knows what kind of
// document it is reading.
const (
	HintQuestionPaper = "This is a scanned school exam question paper. Transcribe all text exactly, " +
		"preserving question numbers, marks in brackets, table columns and line breaks."
	HintStudentAnswer = "This is a student's handwritten answer sheet. Transcribe the answer text " +
		"faithfully, keeping paragraph breaks. Do not correct spelling or grammar."
)

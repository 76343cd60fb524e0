package domain

import (
	"encoding/json"
	"sort"
)

// ExtractedQuestion is one question recovered from a question paper. Number is
// unique within a paper; gaps in numbering are allowed.
type ExtractedQuestion struct {
	Number int    `json:"number"`
	Text   string `json:"text,omitempty"`
	Marks  int    `json:"marks"`
}

// MarkSheet is an ordered question-number → question mapping. Iteration order
// is always ascending by question number.
type MarkSheet struct {
	byNumber map[int]ExtractedQuestion
}

func NewMarkSheet() *MarkSheet {
	return &MarkSheet{byNumber: make(map[int]ExtractedQuestion)}
}

// Set inserts or replaces the entry for q.Number.
func (m *MarkSheet) Set(q ExtractedQuestion) {
	if m.byNumber == nil {
		m.byNumber = make(map[int]ExtractedQuestion)
	}
	m.byNumber[q.Number] = q
}

// SetMarks updates the mark value for a question, creating the entry if the
// question was not extracted at all.
func (m *MarkSheet) SetMarks(number, marks int) {
	q, ok := m.byNumber[number]
	if !ok {
		q = ExtractedQuestion{Number: number}
	}
	q.Marks = marks
	m.Set(q)
}

func (m *MarkSheet) Get(number int) (ExtractedQuestion, bool) {
	q, ok := m.byNumber[number]
	return q, ok
}

// Marks returns the mark value for a question number.
func (m *MarkSheet) Marks(number int) (int, bool) {
	q, ok := m.byNumber[number]
	return q.Marks, ok
}

// Numbers returns the present question numbers in ascending order.
func (m *MarkSheet) Numbers() []int {
	nums := make([]int, 0, len(m.byNumber))
	for n := range m.byNumber {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

// Questions returns all entries ordered by question number.
func (m *MarkSheet) Questions() []ExtractedQuestion {
	nums := m.Numbers()
	qs := make([]ExtractedQuestion, 0, len(nums))
	for _, n := range nums {
		qs = append(qs, m.byNumber[n])
	}
	return qs
}

// Total sums the marks of all present entries.
func (m *MarkSheet) Total() int {
	total := 0
	for _, q := range m.byNumber {
		total += q.Marks
	}
	return total
}

func (m *MarkSheet) Len() int {
	if m == nil {
		return 0
	}
	return len(m.byNumber)
}

func (m *MarkSheet) Clone() *MarkSheet {
	c := NewMarkSheet()
	for n, q := range m.byNumber {
		c.byNumber[n] = q
	}
	return c
}

// MarshalJSON serializes the sheet as an array ordered by question number.
func (m *MarkSheet) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Questions())
}

func (m *MarkSheet) UnmarshalJSON(data []byte) error {
	var qs []ExtractedQuestion
	if err := json.Unmarshal(data, &qs); err != nil {
		return err
	}
	m.byNumber = make(map[int]ExtractedQuestion, len(qs))
	for _, q := range qs {
		m.byNumber[q.Number] = q
	}
	return nil
}

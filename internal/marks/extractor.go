// Package marks recovers a question-number → marks mapping from OCR'd exam
// paper text. Scanned papers vary wildly in layout, spacing and section
// labels, so extraction is layered: each layer runs only when the previous
// ones left the sheet empty or short of the declared total, and partial
// results are kept and merged rather than discarded.
package marks

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mrinal-mann/superteacher-backend/internal/config"
	"github.com/mrinal-mann/superteacher-backend/internal/domain"
)

// Result is the extractor output. Sheet may be empty; the caller prompts the
// teacher to fill marks manually in that case. DeclaredTotal is the header's
// maximum-marks figure when one was found, 0 otherwise.
type Result struct {
	Sheet         *domain.MarkSheet
	DeclaredTotal int
}

// Extract parses ocrText deterministically. It never fails: malformed input
// yields an empty sheet.
func Extract(ocrText string, subject domain.Subject) *Result {
	lines := splitLines(ocrText)
	res := &Result{
		Sheet:         domain.NewMarkSheet(),
		DeclaredTotal: scanDeclaredTotal(lines),
	}

	extractTable(lines, res.Sheet)

	var unmarked []int
	if !complete(res) {
		unmarked = extractInline(lines, res.Sheet)
	}
	if !complete(res) && len(unmarked) > 0 {
		applyDistributions(ocrText, res.Sheet, unmarked)
	}
	if res.Sheet.Total() == 0 {
		applySubjectStructure(subject, res)
	}
	if res.Sheet.Len() == 0 {
		scanDualNumbers(lines, res.Sheet)
	}
	return res
}

// complete reports whether extraction already matches the declared total. With
// no declared total, any non-empty sheet with all marks filled counts.
func complete(res *Result) bool {
	if res.Sheet.Len() == 0 {
		return false
	}
	for _, q := range res.Sheet.Questions() {
		if q.Marks == 0 {
			return false
		}
	}
	if res.DeclaredTotal > 0 {
		return res.Sheet.Total() == res.DeclaredTotal
	}
	return true
}

func splitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		lines = append(lines, strings.TrimRight(l, " \t"))
	}
	return lines
}

// --- Layer 1: header scan ---

var declaredTotalRe = regexp.MustCompile(`(?i)(?:m\.?\s*m\.?|max(?:imum)?\s*marks|total\s*marks)\s*[:\-=]?\s*(\d{1,3})`)

// scanDeclaredTotal looks for a maximum-marks declaration in the paper header.
func scanDeclaredTotal(lines []string) int {
	limit := config.HeaderScanLines
	if len(lines) < limit {
		limit = len(lines)
	}
	for _, line := range lines[:limit] {
		if m := declaredTotalRe.FindStringSubmatch(line); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
				return n
			}
		}
	}
	return 0
}

// --- Layer 2: tabular layout ---

var questionColRe = regexp.MustCompile(`(?i)\bq(?:uestions?|\.?\s*no\.?)?\b`)
var marksColRe = regexp.MustCompile(`(?i)\bmarks\b`)
var leadingNumberRe = regexp.MustCompile(`^\s*(\d{1,2})[.):]?\s+(.*)$`)

// extractTable handles papers laid out as a two-column table. The header row
// names a question column and a marks column; the marks value of each row is
// read at the header's marks-column offset. Question bodies spanning several
// lines are accumulated until the next numbered row.
func extractTable(lines []string, sheet *domain.MarkSheet) {
	headerIdx, marksCol := findTableHeader(lines)
	if headerIdx < 0 {
		return
	}

	var cur *domain.ExtractedQuestion
	flush := func() {
		if cur != nil && cur.Marks > 0 {
			cur.Text = strings.TrimSpace(cur.Text)
			sheet.Set(*cur)
		}
		cur = nil
	}

	for _, line := range lines[headerIdx+1:] {
		m := leadingNumberRe.FindStringSubmatch(line)
		if m == nil {
			// Continuation of the current question body.
			if cur != nil && strings.TrimSpace(line) != "" {
				cur.Text += " " + strings.TrimSpace(line)
			}
			continue
		}
		flush()
		num, _ := strconv.Atoi(m[1])
		if num <= 0 {
			continue
		}
		marks := marksAtColumn(line, marksCol)
		body := m[2]
		if marks > 0 {
			// Strip the marks cell from the question text.
			if idx := strings.LastIndex(body, strconv.Itoa(marks)); idx >= 0 {
				body = body[:idx]
			}
		}
		cur = &domain.ExtractedQuestion{Number: num, Text: strings.TrimSpace(body), Marks: marks}
	}
	flush()
}

// findTableHeader returns the index of a header row containing both column
// labels and the character offset of the marks label.
func findTableHeader(lines []string) (int, int) {
	for i, line := range lines {
		qLoc := questionColRe.FindStringIndex(line)
		mLoc := marksColRe.FindStringIndex(line)
		if qLoc != nil && mLoc != nil && mLoc[0] > qLoc[0] {
			return i, mLoc[0]
		}
	}
	return -1, 0
}

// marksAtColumn reads an integer at (or just around) the recorded marks-column
// offset. OCR jitter shifts columns by a few characters, so the probe window
// is generous but the value must still be a plausible mark.
func marksAtColumn(line string, col int) int {
	start := col - 4
	if start < 0 {
		start = 0
	}
	if start >= len(line) {
		return 0
	}
	for _, f := range strings.Fields(line[start:]) {
		f = strings.Trim(f, "[]()|")
		if n, err := strconv.Atoi(f); err == nil && plausibleMarks(n) {
			return n
		}
	}
	return 0
}

// --- Layer 3: inline patterns ---

var questionPrefixRe = regexp.MustCompile(`(?i)^\s*(?:q\.?\s*no\.?\s*|q\.?\s*|question\s+)?(\d{1,2})\s*[.):]\s*(.*)$`)
var bracketMarksRe = regexp.MustCompile(`(?i)[\[(]\s*(\d{1,3})\s*marks?\s*[\])]`)
var trailingMarksRe = regexp.MustCompile(`(?i)(?:[\[(]\s*(\d{1,3})\s*[\])]|\b(\d{1,3}))\s*$`)

// extractInline handles papers without a table: each question line starts with
// a number prefix and carries its marks in a trailing "[N marks]", "(N
// marks)" or bare trailing integer. When the question's own line has no
// marks, exactly one following line is checked before the question is left
// unmarked. Returns the numbers still missing a mark value, in the order they
// were seen.
func extractInline(lines []string, sheet *domain.MarkSheet) []int {
	var unmarked []int
	for i, line := range lines {
		m := questionPrefixRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		num, _ := strconv.Atoi(m[1])
		if num <= 0 {
			continue
		}
		if _, seen := sheet.Get(num); seen {
			continue
		}

		body := strings.TrimSpace(m[2])
		marks := inlineMarks(line)
		if marks == 0 && i+1 < len(lines) {
			marks = inlineMarks(lines[i+1])
		}
		if marks > 0 {
			body = stripMarksSuffix(body)
		}
		sheet.Set(domain.ExtractedQuestion{Number: num, Text: body, Marks: marks})
		if marks == 0 {
			unmarked = append(unmarked, num)
		}
	}
	return unmarked
}

func inlineMarks(line string) int {
	if m := bracketMarksRe.FindStringSubmatch(line); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && plausibleMarks(n) {
			return n
		}
	}
	if m := trailingMarksRe.FindStringSubmatch(line); m != nil {
		digits := m[1]
		if digits == "" {
			digits = m[2]
		}
		if n, err := strconv.Atoi(digits); err == nil && plausibleMarks(n) {
			return n
		}
	}
	return 0
}

func stripMarksSuffix(body string) string {
	body = bracketMarksRe.ReplaceAllString(body, "")
	body = trailingMarksRe.ReplaceAllString(body, "")
	return strings.TrimSpace(body)
}

// --- Layer 4: distribution phrases ---

var distributionRe = regexp.MustCompile(`(?i)(\d{1,2})\s+questions?\s+(?:of|carry(?:ing)?|worth|x)\s+(\d{1,2})\s+marks?\s*(?:each)?`)

// applyDistributions reads statements like "5 questions of 2 marks each" and
// assigns them positionally, in declaration order, to questions that still
// have no mark value.
func applyDistributions(text string, sheet *domain.MarkSheet, unmarked []int) {
	matches := distributionRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return
	}
	pos := 0
	for _, m := range matches {
		count, _ := strconv.Atoi(m[1])
		marks, _ := strconv.Atoi(m[2])
		if count <= 0 || !plausibleMarks(marks) {
			continue
		}
		for i := 0; i < count && pos < len(unmarked); i++ {
			sheet.SetMarks(unmarked[pos], marks)
			pos++
		}
	}
}

// --- Layer 5: subject-specific structural fallback ---

// blockStructure is a fixed CBSE paper layout: consecutive blocks of equal-mark
// questions.
type blockStructure struct {
	total  int
	blocks []struct{ count, marks int }
}

var subjectStructures = map[domain.Subject]blockStructure{
	// The standard 40-mark Economics paper: 5 two-mark, 5 three-mark and
	// 3 five-mark questions.
	domain.SubjectEconomics: {
		total: 40,
		blocks: []struct{ count, marks int }{
			{5, 2}, {5, 3}, {3, 5},
		},
	},
}

// applySubjectStructure maps a known fixed block layout onto the contiguous
// run of question numbers found in the text, but only when the header total
// confirms the layout and no marks were otherwise recoverable.
func applySubjectStructure(subject domain.Subject, res *Result) {
	st, ok := subjectStructures[subject]
	if !ok || res.DeclaredTotal != st.total {
		return
	}
	questionCount := 0
	for _, b := range st.blocks {
		questionCount += b.count
	}

	nums := res.Sheet.Numbers()
	if len(nums) == 0 {
		// No question lines were recognized at all; assume 1..N.
		for n := 1; n <= questionCount; n++ {
			nums = append(nums, n)
		}
	}
	if len(nums) != questionCount {
		return
	}

	pos := 0
	for _, b := range st.blocks {
		for i := 0; i < b.count; i++ {
			res.Sheet.SetMarks(nums[pos], b.marks)
			pos++
		}
	}
}

// --- Layer 6: last-resort dual-number scan ---

var dualNumberRe = regexp.MustCompile(`(?m)^\s*(\d{1,2})\s*[.)]\s*(\S(?:.{0,100}?))\s+(\d{1,2})\s*$`)

// scanDualNumbers picks up any "<num>. <short span> <num>" line where the
// trailing number is a plausible mark. Only used when everything else
// produced nothing.
func scanDualNumbers(lines []string, sheet *domain.MarkSheet) {
	for _, line := range lines {
		m := dualNumberRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		num, _ := strconv.Atoi(m[1])
		marks, _ := strconv.Atoi(m[3])
		if num <= 0 || !plausibleMarks(marks) {
			continue
		}
		if _, seen := sheet.Get(num); seen {
			continue
		}
		sheet.Set(domain.ExtractedQuestion{
			Number: num,
			Text:   strings.TrimSpace(m[2]),
			Marks:  marks,
		})
	}
}

func plausibleMarks(n int) bool {
	return n >= config.MinPlausibleMarks && n <= config.MaxPlausibleMarks
}

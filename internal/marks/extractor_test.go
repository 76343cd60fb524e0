package marks

import (
	"reflect"
	"testing"

	"github.com/mrinal-mann/superteacher-backend/internal/domain"
)

func sheetMarks(t *testing.T, res *Result) map[int]int {
	t.Helper()
	got := map[int]int{}
	for _, q := range res.Sheet.Questions() {
		got[q.Number] = q.Marks
	}
	return got
}

func TestExtractTableLayout(t *testing.T) {
	ocr := `CLASS 10 ECONOMICS
Maximum Marks: 10

QUESTIONS                                MARKS
1. Define opportunity cost.                2
2. What is gross domestic product?         2
3. State the law of demand.                2
4. Give one example of fixed capital.      2
5. Define primary sector.                  2
`
	res := Extract(ocr, domain.SubjectEconomics)

	want := map[int]int{1: 2, 2: 2, 3: 2, 4: 2, 5: 2}
	if got := sheetMarks(t, res); !reflect.DeepEqual(got, want) {
		t.Errorf("marks = %v, want %v", got, want)
	}
	if res.DeclaredTotal != 10 {
		t.Errorf("DeclaredTotal = %d, want 10", res.DeclaredTotal)
	}
	if res.Sheet.Total() != 10 {
		t.Errorf("Total = %d, want 10", res.Sheet.Total())
	}
	if q, _ := res.Sheet.Get(1); q.Text != "Define opportunity cost." {
		t.Errorf("question 1 text = %q", q.Text)
	}
}

func TestExtractInlineBracketMarks(t *testing.T) {
	ocr := `Answer the following.

3. Explain the effects of the 1991 economic reforms. (5 marks)
`
	res := Extract(ocr, domain.SubjectEconomics)

	want := map[int]int{3: 5}
	if got := sheetMarks(t, res); !reflect.DeepEqual(got, want) {
		t.Errorf("marks = %v, want %v", got, want)
	}
	if q, _ := res.Sheet.Get(3); q.Marks != 5 {
		t.Errorf("marks for q3 = %d, want 5", q.Marks)
	}
}

func TestExtractInlineVariants(t *testing.T) {
	tests := []struct {
		name string
		ocr  string
		want map[int]int
	}{
		{
			name: "square brackets",
			ocr:  "Q1. State Newton's first law. [3 marks]",
			want: map[int]int{1: 3},
		},
		{
			name: "question word prefix",
			ocr:  "Question 7: Balance the chemical equation. (2 marks)",
			want: map[int]int{7: 2},
		},
		{
			name: "bare trailing number",
			ocr:  "4) Describe the water cycle. 5",
			want: map[int]int{4: 5},
		},
		{
			name: "marks on the next line",
			ocr:  "2. Explain the greenhouse effect in your own words.\n(3 marks)",
			want: map[int]int{2: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Extract(tt.ocr, domain.SubjectScience)
			if got := sheetMarks(t, res); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("marks = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractDistributionPhrase(t *testing.T) {
	ocr := `General Instructions:
This paper has 4 questions carrying 5 marks each.

1. Describe the formation of soil.
2. Explain the nitrogen cycle.
3. What are the functions of the liver?
4. How do vaccines work?
`
	res := Extract(ocr, domain.SubjectScience)

	want := map[int]int{1: 5, 2: 5, 3: 5, 4: 5}
	if got := sheetMarks(t, res); !reflect.DeepEqual(got, want) {
		t.Errorf("marks = %v, want %v", got, want)
	}
}

func TestExtractMixedDistributions(t *testing.T) {
	ocr := `Section A has 2 questions of 2 marks each.
Section B has 2 questions of 5 marks each.

1. Define velocity.
2. Define acceleration.
3. Derive the equation of motion.
4. Explain projectile motion with a diagram.
`
	res := Extract(ocr, domain.SubjectScience)

	want := map[int]int{1: 2, 2: 2, 3: 5, 4: 5}
	if got := sheetMarks(t, res); !reflect.DeepEqual(got, want) {
		t.Errorf("marks = %v, want %v", got, want)
	}
}

func TestExtractEconomicsStructuralFallback(t *testing.T) {
	ocr := `ECONOMICS
Class X
Maximum Marks: 40
Time allowed: 2 hours

1. Define per capita income.
2. What is human capital?
3. State one feature of the organised sector.
4. What is disguised unemployment?
5. Define sustainable development.
6. Explain the role of education in human capital formation.
7. Compare the three sectors of the economy.
8. Why is the tertiary sector growing in importance?
9. Describe the problems faced by workers in the unorganised sector.
10. How does public health expenditure help development?
11. Explain the main features of the green revolution.
12. Discuss the factors behind regional development differences.
13. Describe how averages are used to compare development.
`
	res := Extract(ocr, domain.SubjectEconomics)

	if res.DeclaredTotal != 40 {
		t.Fatalf("DeclaredTotal = %d, want 40", res.DeclaredTotal)
	}
	if res.Sheet.Total() != 40 {
		t.Errorf("Total = %d, want 40", res.Sheet.Total())
	}

	// Standard layout: 5 two-mark, 5 three-mark, 3 five-mark.
	for n := 1; n <= 5; n++ {
		if m, _ := res.Sheet.Marks(n); m != 2 {
			t.Errorf("q%d marks = %d, want 2", n, m)
		}
	}
	for n := 6; n <= 10; n++ {
		if m, _ := res.Sheet.Marks(n); m != 3 {
			t.Errorf("q%d marks = %d, want 3", n, m)
		}
	}
	for n := 11; n <= 13; n++ {
		if m, _ := res.Sheet.Marks(n); m != 5 {
			t.Errorf("q%d marks = %d, want 5", n, m)
		}
	}
}

func TestExtractStructuralFallbackNeedsMatchingTotal(t *testing.T) {
	ocr := `ECONOMICS
Maximum Marks: 50

1. Define per capita income.
2. What is human capital?
`
	res := Extract(ocr, domain.SubjectEconomics)

	// Declared total does not match the known 40-mark layout, so no marks
	// may be invented.
	if res.Sheet.Total() != 0 {
		t.Errorf("Total = %d, want 0", res.Sheet.Total())
	}
}

func TestExtractEmptyAndGarbage(t *testing.T) {
	for _, ocr := range []string{"", "   \n\n  ", "lorem ipsum dolor sit amet", "!!! ??? ..."} {
		res := Extract(ocr, domain.SubjectMathematics)
		if res.Sheet.Len() != 0 {
			t.Errorf("Extract(%q) produced %d entries, want empty sheet", ocr, res.Sheet.Len())
		}
		if res.DeclaredTotal != 0 {
			t.Errorf("Extract(%q) DeclaredTotal = %d, want 0", ocr, res.DeclaredTotal)
		}
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	ocr := `Maximum Marks: 10

QUESTIONS                                MARKS
1. Define opportunity cost.                2
2. What is gross domestic product?         2
3. State the law of demand.                2
4. Give one example of fixed capital.      2
5. Define primary sector.                  2
`
	first := Extract(ocr, domain.SubjectEconomics)
	second := Extract(ocr, domain.SubjectEconomics)

	if !reflect.DeepEqual(sheetMarks(t, first), sheetMarks(t, second)) {
		t.Error("repeated extraction produced different marks")
	}
	if first.DeclaredTotal != second.DeclaredTotal {
		t.Error("repeated extraction produced different declared totals")
	}
}

func TestExtractImplausibleMarksIgnored(t *testing.T) {
	ocr := "1. What year did the French Revolution begin? 1789"
	res := Extract(ocr, domain.SubjectSocialScience)

	if m, ok := res.Sheet.Marks(1); ok && m > 0 {
		t.Errorf("picked up implausible trailing number as marks: %d", m)
	}
}

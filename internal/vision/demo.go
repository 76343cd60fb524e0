package vision

import (
	"context"
	"strings"
)

// DemoExtractor returns canned OCR text for offline and demo deployments,
// keyed by the image's filename/URL and the document hint.
type DemoExtractor struct{}

func (DemoExtractor) ExtractText(_ context.Context, img Input, hint string) (string, error) {
	key := strings.ToLower(img.Name + " " + img.URL)
	switch {
	case hint == HintStudentAnswer || strings.Contains(key, "answer"):
		return demoStudentAnswer, nil
	case strings.Contains(key, "econom"):
		return demoEconomicsPaper, nil
	case strings.Contains(key, "math"):
		return demoMathPaper, nil
	default:
		return demoEconomicsPaper, nil
	}
}

const demoEconomicsPaper = `CBSE Sample Question Paper
Economics - Class 10
Time: 1.5 Hours                                  Maximum Marks: 40

General Instructions: All questions are compulsory.

QUESTIONS                                                    MARKS
1. Define per capita income.                                   2
2. What is meant by the primary sector?                        2
3. Give two examples of public sector enterprises.             2
4. What is the meaning of disguised unemployment?              2
5. Define Human Development Index.                             2
6. Explain the role of the tertiary sector in the economy.     3
7. Describe three features of unorganised sector employment.   3
8. How does public distribution ensure food security?          3
9. Explain the importance of sustainable development.          3
10. Distinguish between economic and non-economic activities.  3
11. Explain the factors on which credit arrangements depend.   5
12. Describe the impact of globalisation on the Indian economy. 5
13. Explain the significance of the service sector in India.   5`

const demoMathPaper = `Mathematics - Class 10
Time: 2 Hours                        MM: 20

Q.No. 1: Find the HCF of 96 and 404 by prime factorisation. (4 marks)
Q.No. 2: Prove that root 5 is irrational. (4 marks)
Q.No. 3: Solve the pair of equations x + y = 14 and x - y = 4. (4 marks)
Q.No. 4: Find the zeroes of the polynomial x^2 - 2x - 8. (4 marks)
Q.No. 5: Find the 10th term of the AP 2, 7, 12. (4 marks)`

const demoStudentAnswer = `Per capita income means the average income of a person in a country.
It is calculated by dividing the total national income of the country by its
total population. Per capita income is used to compare the development level
of different countries, for example the World Bank uses it to classify
countries as rich or poor. However it does not show how the income is
distributed among the people, so two countries with the same per capita
income can have very different living conditions.`

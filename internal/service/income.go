package service

import "strings"

type incomeBracket struct {
	label    string
	patterns []string
}

var incomeBrackets = []incomeBracket{
	{"Below ₹3 Lakh", []string{"upto 1.2", "upto rs. 1.2", "1,20,000", "1.2 to 3"}},
	{"₹3 - ₹5 Lakh", []string{"3 to 5", "1.2 lakh to 5", "1.2 lac to 5"}},
	{"₹5 - ₹8 Lakh", []string{"5 lakh and above", "5 lacs and above", "5 to 8", "rs. 5,00,000 & above"}},
	{"₹8 - ₹10 Lakh", []string{"8 lakhs & above", "3-10"}},
	{"₹10 Lakh and Above", []string{"10 lacs and above"}},
}

// CategorizeIncome maps the free-text family income of a legacy admission to
// an income bracket. Blank, zero and unrecognised values yield "".
func CategorizeIncome(income string) string {
	trimmed := strings.TrimSpace(income)
	if trimmed == "" || trimmed == "0" {
		return ""
	}
	lower := strings.ToLower(trimmed)
	for _, bracket := range incomeBrackets {
		for _, p := range bracket.patterns {
			if strings.Contains(lower, p) {
				return bracket.label
			}
		}
	}
	return ""
}

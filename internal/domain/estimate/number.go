package estimate

import (
	"strconv"
	"unicode"
)

// NextNumber returns a label one above both the collection size and every
// numeric suffix already in use, so it never collides and grows with creation order.
func NextNumber(existing []Estimate) string {
	top := len(existing)
	for _, e := range existing {
		if n, ok := numericSuffix(e.Number); ok && n > top {
			top = n
		}
	}
	return strconv.Itoa(top + 1)
}

func numericSuffix(s string) (int, bool) {
	r := []rune(s)
	i := len(r)
	for i > 0 && unicode.IsDigit(r[i-1]) {
		i--
	}
	if i == len(r) {
		return 0, false
	}
	n, err := strconv.Atoi(string(r[i:]))
	if err != nil {
		return 0, false
	}
	return n, true
}

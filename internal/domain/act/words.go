package act

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var (
	units       = [10]string{"", "один", "два", "три", "четыре", "пять", "шесть", "семь", "восемь", "девять"}
	unitsFemale = [3]string{"", "одна", "две"}
	teens       = [10]string{"десять", "одиннадцать", "двенадцать", "тринадцать", "четырнадцать",
		"пятнадцать", "шестнадцать", "семнадцать", "восемнадцать", "девятнадцать"}
	tens = [10]string{"", "", "двадцать", "тридцать", "сорок", "пятьдесят",
		"шестьдесят", "семьдесят", "восемьдесят", "девяносто"}
	hundreds = [10]string{"", "сто", "двести", "триста", "четыреста", "пятьсот",
		"шестьсот", "семьсот", "восемьсот", "девятьсот"}
)

// scale is a group of three digits: its word forms for 1, 2-4 and 5+.
type scale struct {
	forms  [3]string
	female bool
}

var scales = []scale{
	{},
	{forms: [3]string{"тысяча", "тысячи", "тысяч"}, female: true},
	{forms: [3]string{"миллион", "миллиона", "миллионов"}},
	{forms: [3]string{"миллиард", "миллиарда", "миллиардов"}},
	{forms: [3]string{"триллион", "триллиона", "триллионов"}},
}

var (
	rubleForms  = [3]string{"рубль", "рубля", "рублей"}
	kopeckForms = [3]string{"копейка", "копейки", "копеек"}
)

// plural picks the form index for n: 1 рубль, 2 рубля, 5 рублей.
func plural(n int64) int {
	n %= 100
	if n >= 11 && n <= 14 {
		return 2
	}
	switch n % 10 {
	case 1:
		return 0
	case 2, 3, 4:
		return 1
	}
	return 2
}

func triad(n int64, female bool) []string {
	var w []string
	if h := n / 100; h > 0 {
		w = append(w, hundreds[h])
	}
	rest := n % 100
	if rest >= 10 && rest < 20 {
		return append(w, teens[rest-10])
	}
	if t := rest / 10; t > 0 {
		w = append(w, tens[t])
	}
	if u := rest % 10; u > 0 {
		if female && u <= 2 {
			w = append(w, unitsFemale[u])
		} else {
			w = append(w, units[u])
		}
	}
	return w
}

// IntegerInWords spells a non-negative whole number in the masculine gender.
func IntegerInWords(n int64) string {
	if n <= 0 {
		return "ноль"
	}
	var groups []int64
	for n > 0 {
		groups = append(groups, n%1000)
		n /= 1000
	}
	var words []string
	for i := len(groups) - 1; i >= 0; i-- {
		g := groups[i]
		if g == 0 {
			continue
		}
		if i >= len(scales) {
			// за пределами триллионов суммы не бывает
			words = append(words, fmt.Sprint(g))
			continue
		}
		sc := scales[i]
		words = append(words, triad(g, sc.female)...)
		if i > 0 {
			words = append(words, sc.forms[plural(g)])
		}
	}
	return strings.Join(words, " ")
}

// RublesInWords writes an amount the way it goes into an act: rubles in words,
// kopecks in two digits. "Одна тысяча двести рублей 50 копеек".
func RublesInWords(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	prefix := ""
	if d.IsNegative() {
		prefix = "минус "
		d = d.Abs()
	}
	rubles := d.IntPart()
	kopecks := d.Sub(decimal.NewFromInt(rubles)).Shift(2).IntPart()
	s := fmt.Sprintf("%s%s %s %02d %s",
		prefix, IntegerInWords(rubles), rubleForms[plural(rubles)], kopecks, kopeckForms[plural(kopecks)])
	return capitalize(s)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

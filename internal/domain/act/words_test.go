package act

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRublesInWords(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "Ноль рублей 00 копеек"},
		{0.01, "Ноль рублей 01 копейка"},
		{1, "Один рубль 00 копеек"},
		{2, "Два рубля 00 копеек"},
		{11, "Одиннадцать рублей 00 копеек"},
		{21, "Двадцать один рубль 00 копеек"},
		{22.02, "Двадцать два рубля 02 копейки"},
		{112, "Сто двенадцать рублей 00 копеек"},
		{1000, "Одна тысяча рублей 00 копеек"},
		{2500.5, "Две тысячи пятьсот рублей 50 копеек"},
		{11000, "Одиннадцать тысяч рублей 00 копеек"},
		{40614, "Сорок тысяч шестьсот четырнадцать рублей 00 копеек"},
		{1234567.89, "Один миллион двести тридцать четыре тысячи пятьсот шестьдесят семь рублей 89 копеек"},
		{2000000, "Два миллиона рублей 00 копеек"},
		{-15, "Минус пятнадцать рублей 00 копеек"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RublesInWords(tt.in), "%v", tt.in)
	}
}

func TestPlural(t *testing.T) {
	for n, want := range map[int64]int{1: 0, 3: 1, 5: 2, 11: 2, 14: 2, 21: 0, 104: 1, 111: 2} {
		assert.Equal(t, want, plural(n), "%d", n)
	}
}

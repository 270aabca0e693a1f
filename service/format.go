package service

import (
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func printer() *message.Printer {
	return message.NewPrinter(language.English)
}

// FormatCount renders n with thousands separators, e.g. 10,532.
func FormatCount(n int) string {
	return printer().Sprintf("%d", n)
}

// FormatUSD drops the cents for whole-dollar prices: $100,000 but $0.90.
func FormatUSD(v float64) string {
	if v == math.Trunc(v) {
		return printer().Sprintf("$%d", int64(v))
	}
	return printer().Sprintf("$%.2f", v)
}

func FormatBillions(v float64) string {
	return printer().Sprintf("%d", int64(v))
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

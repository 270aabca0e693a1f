package models

import (
	"fmt"
	"math"
)

// Amount is a token quantity in hundredths of an HMT.
type Amount int64

const HMT Amount = 100

// FromHMT rounds v to the nearest hundredth.
func FromHMT(v float64) Amount {
	return Amount(math.Round(v * float64(HMT)))
}

// Float64 is the amount in whole HMT, for log attributes and metrics.
func (a Amount) Float64() float64 {
	return float64(a) / float64(HMT)
}

func (a Amount) String() string {
	sign := ""
	n := int64(a)
	if n < 0 {
		sign = "-"
		n = -n
	}
	return fmt.Sprintf("%s%d.%02d", sign, n/int64(HMT), n%int64(HMT))
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

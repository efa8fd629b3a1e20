package answerset

import (
	"errors"
	"math"
	"math/big"
	"strconv"
	"strings"
)

const factorSeparator = "?"

// NumericRange is a number literal found in a unit sequence. Units
// [Start, DigitEnd) hold the number and [DigitEnd, End) an optional
// "?factor" annotation.
type NumericRange struct {
	Start     int
	DigitEnd  int
	End       int
	Value     *big.Rat
	Factor    float64
	HasFactor bool
}

// Width is the number of units in the literal, without its annotation.
func (r NumericRange) Width() int { return r.DigitEnd - r.Start }

// Accepts reports whether other is close enough to r. The literal's own
// factor takes precedence over defaultFactor.
func (r NumericRange) Accepts(other NumericRange, defaultFactor float64) bool {
	if r.Value.Cmp(other.Value) == 0 {
		return true
	}
	factor := defaultFactor
	if r.HasFactor {
		factor = r.Factor
	}
	if factor == 1 {
		return false
	}

	a, _ := r.Value.Float64()
	b, _ := other.Value.Float64()
	hi, lo := math.Max(a, b), math.Min(a, b)
	if factor > 1 {
		ratio := hi / lo
		return !math.IsInf(ratio, 0) && !math.IsNaN(ratio) && ratio <= factor
	}
	ratio := lo / hi
	return !math.IsInf(ratio, 0) && !math.IsNaN(ratio) && factor <= ratio
}

func isDigit(unit string) bool {
	return len(unit) == 1 && unit[0] >= '0' && unit[0] <= '9'
}

func skipDigits(units []string, i int) int {
	i++
	for i < len(units) && isDigit(units[i]) {
		i++
	}
	return i
}

// skipFloat assumes units[i] is a digit.
func skipFloat(units []string, i int) int {
	i = skipDigits(units, i)
	if i+1 < len(units) && units[i] == "." && isDigit(units[i+1]) {
		i = skipDigits(units, i+1)
	}
	return i
}

// FindNumericRanges scans units for number literals. With allowFactor a
// literal may carry a "?factor" override. If any literal fails to parse the
// whole scan yields nothing.
func FindNumericRanges(units []string, allowFactor bool) []NumericRange {
	var out []NumericRange
	for i := 0; i < len(units); {
		if !isDigit(units[i]) {
			i++
			continue
		}
		start := i
		i = skipFloat(units, start)
		value, ok := new(big.Rat).SetString(strings.Join(units[start:i], ""))
		if !ok {
			return nil
		}
		r := NumericRange{Start: start, DigitEnd: i, Value: value}

		if allowFactor && i+1 < len(units) && units[i] == factorSeparator && isDigit(units[i+1]) {
			fstart := i + 1
			i = skipFloat(units, fstart)
			f, err := strconv.ParseFloat(strings.Join(units[fstart:i], ""), 64)
			if err != nil && !errors.Is(err, strconv.ErrRange) {
				return nil
			}
			r.Factor, r.HasFactor = f, true
		}
		r.End = i
		out = append(out, r)
	}
	return out
}

func numericRangesByEnd(units []string, allowFactor bool) map[int]NumericRange {
	ranges := FindNumericRanges(units, allowFactor)
	if len(ranges) == 0 {
		return nil
	}
	m := make(map[int]NumericRange, len(ranges))
	for _, r := range ranges {
		m[r.DigitEnd] = r
	}
	return m
}

// Package format renders amounts, percentages and ratios for human output.
package format

import (
	"fmt"
	"math"
	"strings"
)

// Currency returns a currency string with a dollar sign and thousands separators (e.g., "-$1,234.56").
func Currency(amount float64) string {
	formatted := groupThousands(math.Abs(amount))
	if amount < 0 && formatted != "0.00" {
		return "-$" + formatted
	}
	return "$" + formatted
}

// Percent renders a 0-100 percentage with one decimal and an explicit sign
// for positive changes when signed is true.
func Percent(pct float64, signed bool) string {
	if signed && pct > 0 {
		return fmt.Sprintf("+%.1f%%", pct)
	}
	return fmt.Sprintf("%.1f%%", pct)
}

// Ratio renders a dimensionless ratio such as a seasonal index.
func Ratio(value float64) string {
	return fmt.Sprintf("%.3f", value)
}

func groupThousands(value float64) string {
	formatted := fmt.Sprintf("%.2f", value)
	intPart, decPart, _ := strings.Cut(formatted, ".")

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	return intPart + "." + decPart
}

// dcare-crm/internal/funnel/format.go

package funnel

import (
	"fmt"
	"strconv"
)

// FormatAmount форматирует сумму в привычных для отчётов единицах:
// 억 (сто миллионов) и 만 (десять тысяч) вон.
func FormatAmount(amount int64) string {
	switch {
	case amount >= 100_000_000:
		return fmt.Sprintf("%.1f억원", float64(amount)/100_000_000)
	case amount >= 10_000:
		return fmt.Sprintf("%d만원", amount/10_000)
	default:
		return groupDigits(amount) + "원"
	}
}

// groupDigits расставляет разделители тысяч: 1234567 -> "1,234,567".
func groupDigits(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}

	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}

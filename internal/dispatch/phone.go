package dispatch

import "strings"

// localNumberMaxDigits is the longest phone form that can still be missing
// a country prefix. Anything longer is assumed to carry one already.
const localNumberMaxDigits = 11

// NormalizePhone reduces a raw phone value to digits and prefixes the
// default country code when the digit count implies a local-format number.
func NormalizePhone(raw, countryCode string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	digits := b.String()
	if digits == "" {
		return ""
	}

	if len(digits) <= localNumberMaxDigits && !strings.HasPrefix(digits, countryCode) {
		return countryCode + digits
	}

	return digits
}

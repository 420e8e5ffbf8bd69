// Package identifier validates the national individual taxpayer number (CPF)
// that identifies a participant.
package identifier

// Length is the number of digits in a normalized identifier.
const Length = 11

// Normalize strips everything but ASCII digits.
func Normalize(raw string) string {
	digits := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] >= '0' && raw[i] <= '9' {
			digits = append(digits, raw[i])
		}
	}
	return string(digits)
}

// IsValid reports whether raw carries a well-formed identifier: eleven digits
// after normalization, not all identical, with both trailing check digits
// matching the mod-11 weighted sums.
func IsValid(raw string) bool {
	digits := Normalize(raw)
	if len(digits) != Length {
		return false
	}
	if allSame(digits) {
		return false
	}
	return checkDigit(digits[:9]) == digits[9]-'0' &&
		checkDigit(digits[:10]) == digits[10]-'0'
}

// checkDigit weights prefix digits from len(prefix)+1 down to 2.
func checkDigit(prefix string) byte {
	sum := 0
	weight := len(prefix) + 1
	for i := 0; i < len(prefix); i++ {
		sum += int(prefix[i]-'0') * weight
		weight--
	}
	check := 11 - sum%11
	if check >= 10 {
		return 0
	}
	return byte(check)
}

func allSame(digits string) bool {
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			return false
		}
	}
	return true
}

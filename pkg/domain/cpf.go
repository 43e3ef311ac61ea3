package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	dErrors "dossier/pkg/domain-errors"
)

// CPFLength is the number of digits in a CPF, check digits included.
const CPFLength = 11

// CPF is the Brazilian national tax identifier: nine base digits followed by
// two check digits.
// Invariant: exactly 11 ASCII digits, not all identical, both check digits
// valid.
//
// Usage: construct via ParseCPF at trust boundaries; direct casting bypasses
// validation.
type CPF string

// ParseCPF validates a CPF from external input. The common punctuation
// ("111.444.777-35") and surrounding whitespace are accepted and stripped;
// any other non-digit character is rejected.
//
// Errors: returns CodeInvalidInput for malformed or checksum-failing input.
func ParseCPF(s string) (CPF, error) {
	digits := normalizeCPF(s)
	if digits == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "cpf must contain 11 digits")
	}
	if !ValidCPF(digits) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "cpf check digits do not match")
	}
	return CPF(digits), nil
}

// ValidCPF reports whether digits is an 11-digit CPF with valid check digits.
// All-identical-digit strings are always invalid.
func ValidCPF(digits string) bool {
	if len(digits) != CPFLength {
		return false
	}
	allSame := true
	for i := 0; i < CPFLength; i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
		if digits[i] != digits[0] {
			allSame = false
		}
	}
	if allSame {
		return false
	}
	return checkDigit(digits[:9]) == int(digits[9]-'0') &&
		checkDigit(digits[:10]) == int(digits[10]-'0')
}

// checkDigit computes the next check digit over prefix. Weights descend from
// len(prefix)+1 to 2; a remainder of 10 maps to 0.
func checkDigit(prefix string) int {
	sum := 0
	weight := len(prefix) + 1
	for i := 0; i < len(prefix); i++ {
		sum += int(prefix[i]-'0') * weight
		weight--
	}
	return (sum * 10 % 11) % 10
}

func normalizeCPF(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	b.Grow(CPFLength)
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-':
		default:
			return ""
		}
	}
	if b.Len() != CPFLength {
		return ""
	}
	return b.String()
}

// String returns the 11 bare digits.
func (c CPF) String() string {
	return string(c)
}

// Formatted renders the CPF as 000.000.000-00.
func (c CPF) Formatted() string {
	s := string(c)
	if len(s) != CPFLength {
		return s
	}
	return s[0:3] + "." + s[3:6] + "." + s[6:9] + "-" + s[9:11]
}

// Masked hides the middle digits for log output: 111.***.***-35.
func (c CPF) Masked() string {
	s := string(c)
	if len(s) != CPFLength {
		return "***"
	}
	return s[0:3] + ".***.***-" + s[9:11]
}

// Hash returns a hex SHA-256 of the digits, used where traceability is needed
// without storing the raw identifier.
func (c CPF) Hash() string {
	sum := sha256.Sum256([]byte(c))
	return hex.EncodeToString(sum[:])
}

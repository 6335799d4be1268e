// Package phone normalizes scraped phone numbers to the canonical digit
// string used as the candidate id everywhere in the engine.
package phone

import (
	"errors"
	"strings"
)

// ErrUnparsable means the input cannot be turned into a usable number.
var ErrUnparsable = errors.New("phone: not a usable number")

// Normalizer canonicalizes raw phone strings into country-code-prefixed
// digit strings (E.164 without the plus sign).
type Normalizer struct {
	CountryCode string // e.g. "52"
	LocalArea   string // area prefix assumed for short local numbers, e.g. "55"
}

// Normalize strips formatting and enforces the country-code prefix
// convention. Ten-digit nationals get the country code prepended,
// eight-digit locals additionally get the default area prefix, and
// anything longer than ten digits keeps only its last ten.
func (n Normalizer) Normalize(raw string) (string, error) {
	digits := keepDigits(raw)
	if len(digits) < 7 {
		return "", ErrUnparsable
	}

	national := digits
	switch {
	case strings.HasPrefix(digits, n.CountryCode) && len(digits) >= len(n.CountryCode)+10:
		national = digits[len(n.CountryCode):]
	default:
		national = strings.TrimLeft(digits, "0")
	}

	switch {
	case len(national) == 10:
		return n.CountryCode + national, nil
	case len(national) == 8:
		return n.CountryCode + n.LocalArea + national, nil
	case len(national) > 10:
		return n.CountryCode + national[len(national)-10:], nil
	case len(national) >= 7:
		return n.CountryCode + national, nil
	}
	return "", ErrUnparsable
}

// Display renders a canonical id in E.164 form for exports.
func Display(id string) string {
	if id == "" {
		return ""
	}
	return "+" + id
}

func keepDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

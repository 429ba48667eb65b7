// Package callcentre is the call-placement collaborator boundary: phone
// number validation plus a Dialer that connects customers to agents.
package callcentre

import (
	"fmt"
	"regexp"
	"strings"
)

// phonePattern accepts South African numbers: a leading +27 or 0 followed by
// nine digits. Spaces and hyphens are stripped before validation.
var phonePattern = regexp.MustCompile(`^(\+27|0)[0-9]{9}$`)

// ErrInvalidPhone is wrapped by NormalizePhone on format failures.
var ErrInvalidPhone = fmt.Errorf("callcentre: invalid phone number format")

// NormalizePhone strips separator punctuation and validates the result,
// returning the normalized number.
func NormalizePhone(raw string) (string, error) {
	normalized := strings.NewReplacer(" ", "", "-", "").Replace(raw)
	if !phonePattern.MatchString(normalized) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhone, raw)
	}
	return normalized, nil
}

package sanitizer

import (
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const DefaultPhoneRegion = "US"

var rePhoneChars = regexp.MustCompile(`^\+?[0-9 ().\-]+$`)

// NormalizePhone formats a possible phone number as E.164, resolving numbers
// without a country code against region. Anything else is returned trimmed.
func NormalizePhone(phone, region string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}
	if region == "" {
		region = DefaultPhoneRegion
	}

	parsed, err := phonenumbers.Parse(phone, region)
	if err != nil || !phonenumbers.IsPossibleNumber(parsed) {
		return phone
	}
	return phonenumbers.Format(parsed, phonenumbers.E164)
}

// IsPhone reports whether s looks like a phone number: optional leading plus,
// digits and common separators, with 7 to 15 digits.
func IsPhone(s string) bool {
	if !rePhoneChars.MatchString(s) {
		return false
	}
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 7 && digits <= 15
}

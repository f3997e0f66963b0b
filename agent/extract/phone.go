package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultPhoneRegion = "US"

var phonePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\(\d{3}\)\s*\d{3}[-.\s]?\d{4}`),
	regexp.MustCompile(`\b\d{3}[-.]\d{3}[-.]\d{4}\b`),
	regexp.MustCompile(`\+1[-.\s]?\d{3}[-.\s]?\d{3}[-.\s]?\d{4}\b`),
	regexp.MustCompile(`\b\d{10}\b`),
}

func (e *Extractor) extractPhone(message string) *Phone {
	for _, re := range phonePatterns {
		match := re.FindString(message)
		if match == "" {
			continue
		}
		digits := normalizePhone(match)
		if !validDigits(digits) {
			continue
		}
		return &Phone{
			Value:      digits,
			Confidence: 0.9,
			Validated:  true,
			Formatted:  formatDigits(digits),
			E164:       toE164(digits, e.phoneRegion),
		}
	}
	return nil
}

// normalizePhone keeps digits only and drops a leading country code 1 from
// eleven-digit numbers.
func normalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	return digits
}

// ValidatePhone accepts ten-digit NANP numbers whose area code and exchange
// code do not start with 0 or 1.
func ValidatePhone(raw string) bool {
	return validDigits(normalizePhone(raw))
}

func validDigits(digits string) bool {
	if len(digits) != 10 {
		return false
	}
	if digits[0] == '0' || digits[0] == '1' {
		return false
	}
	if digits[3] == '0' || digits[3] == '1' {
		return false
	}
	return true
}

// FormatPhone renders a valid number as (XXX) XXX-XXXX and returns the input
// unchanged otherwise.
func FormatPhone(raw string) string {
	digits := normalizePhone(raw)
	if !validDigits(digits) {
		return raw
	}
	return formatDigits(digits)
}

func formatDigits(d string) string {
	return fmt.Sprintf("(%s) %s-%s", d[0:3], d[3:6], d[6:10])
}

func toE164(digits, region string) string {
	num, err := phonenumbers.Parse(digits, region)
	if err != nil {
		return ""
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}

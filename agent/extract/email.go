package extract

import (
	"regexp"
	"strings"
)

const maxEmailLength = 254

var (
	emailPatterns = []*regexp.Regexp{
		regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`),
		// "john @ gmail . com"
		regexp.MustCompile(`[A-Za-z0-9._%+-]+\s*@\s*[A-Za-z0-9.-]+\s*\.\s*[A-Za-z]{2,}`),
	}

	strictEmail = regexp.MustCompile(`^[a-z0-9._%+-]+@[a-z0-9](?:[a-z0-9-]*[a-z0-9])?(?:\.[a-z0-9](?:[a-z0-9-]*[a-z0-9])?)*\.[a-z]{2,}$`)

	whitespace = regexp.MustCompile(`\s+`)
)

// extractEmail returns the first address found by the first matching pattern.
func extractEmail(message string) *Email {
	for _, re := range emailPatterns {
		match := re.FindString(message)
		if match == "" {
			continue
		}

		value := strings.ToLower(whitespace.ReplaceAllString(match, ""))
		if ValidateEmail(value) {
			return &Email{Value: value, Confidence: 0.95, Validated: true}
		}
		return &Email{Value: value, Confidence: 0.7, Validated: false}
	}
	return nil
}

func ValidateEmail(email string) bool {
	if email == "" || len(email) > maxEmailLength {
		return false
	}
	if strings.Contains(email, "..") {
		return false
	}
	if strings.HasPrefix(email, ".") || strings.HasSuffix(email, ".") {
		return false
	}
	return strictEmail.MatchString(strings.ToLower(email))
}

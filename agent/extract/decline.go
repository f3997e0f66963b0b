package extract

import (
	"regexp"
	"strings"
)

var declinePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bno,? thanks?\b`),
	regexp.MustCompile(`(?i)\bno thank you\b`),
	regexp.MustCompile(`(?i)\b(?:i'?d |i would )?rather not\b`),
	regexp.MustCompile(`(?i)\bprefer not\b`),
	regexp.MustCompile(`(?i)\b(?:don'?t|do not) (?:want to|wanna) (?:share|give|provide|say)\b`),
	regexp.MustCompile(`(?i)\bnot comfortable (?:sharing|giving|providing)\b`),
	regexp.MustCompile(`(?i)\b(?:i'?ll|i will) pass\b`),
	regexp.MustCompile(`(?i)\bnone of your business\b`),
	regexp.MustCompile(`(?i)\bskip (?:that|this|it)\b`),
	regexp.MustCompile(`(?i)\bnot (?:giving|sharing) (?:you )?(?:that|my)\b`),
}

// DetectInformationDecline flags a refusal to share details. The type is read
// from keywords in the message, independent of which phrase matched.
func (e *Extractor) DetectInformationDecline(message string) Decline {
	declined := false
	for _, re := range declinePatterns {
		if re.MatchString(message) {
			declined = true
			break
		}
	}
	if !declined {
		return Decline{Type: InfoGeneral}
	}

	return Decline{
		Declined:   true,
		Type:       declineType(strings.ToLower(message)),
		Confidence: 0.8,
	}
}

func declineType(lower string) InfoType {
	switch {
	case strings.Contains(lower, "email") || strings.Contains(lower, "e-mail"):
		return InfoEmail
	case strings.Contains(lower, "phone") || strings.Contains(lower, "number") ||
		strings.Contains(lower, "call") || strings.Contains(lower, "text"):
		return InfoPhone
	case strings.Contains(lower, "name"):
		return InfoName
	default:
		return InfoGeneral
	}
}

package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var namePatterns = []*regexp.Regexp{
	// my name is / i'm / i am / call me
	regexp.MustCompile(`(?i)\b(?:my name is|i'm|i am|call me)\s+(?:(?:mr|mrs|ms|miss|dr)\.?\s+)?([a-z][a-z'-]*(?:\s+[a-z][a-z'-]*)?)`),
	// name's John
	regexp.MustCompile(`(?i)\bname'?s\s+([a-z][a-z'-]*(?:\s+[a-z][a-z'-]*)?)`),
	// "John here", "Sarah Connor, ..."
	regexp.MustCompile(`^\s*([A-Z][a-z'-]+(?:\s+[A-Z][a-z'-]+)?)\s*(?:here\b|[,.!-]|$)`),
	regexp.MustCompile(`\b([A-Z][a-z]+\s+[A-Z][a-z]+)\b`),
}

var (
	nameStopWords = wordSet(
		"a", "an", "the", "and", "or", "but", "so", "to", "in", "on", "at", "of", "for", "with",
		"from", "about", "into", "over", "out", "up", "after", "before", "is", "was", "am", "are",
		"be", "it", "this", "that", "my", "your", "me", "you", "we", "i", "not", "just", "very",
		"really", "still", "also", "here", "there", "interested", "looking", "trying", "wondering",
		"thinking", "planning", "calling", "going", "curious", "excited", "ready", "busy", "free",
		"available", "new", "good", "fine", "great", "ok", "okay", "sure", "yes", "no", "yeah",
		"sorry", "thanks", "thank", "glad", "happy", "tired", "done", "back", "currently", "want",
		"need", "would", "like", "wanna", "gonna", "can", "could", "will", "should", "what", "how",
		"when", "where", "why", "who", "is", "do", "does", "did", "have", "has", "had",
		"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
		"january", "february", "march", "april", "may", "june", "july", "august", "september",
		"october", "november", "december", "today", "tomorrow", "tonight",
	)

	namePrefixes = wordSet("mr", "mrs", "ms", "miss", "mx", "dr", "prof", "sir", "madam")
	nameSuffixes = wordSet("jr", "sr", "ii", "iii", "iv", "phd", "md", "esq")

	// brand, persona, and greeting words that look like names in chat
	nameBlocklist = wordSet(
		"hi", "hello", "hey", "hiya", "howdy", "greetings", "morning", "afternoon", "evening",
		"gym", "fitness", "planet", "club", "studio", "crossfit", "yoga", "pilates", "spin",
		"coach", "trainer", "assistant", "bot", "kim", "team", "support", "membership", "class",
		"classes",
	)
)

func wordSet(words ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[w] = struct{}{}
	}
	return out
}

// extractName applies the first matching pattern only; if every token of that
// match is filtered out no name is returned even if a later pattern would match.
func extractName(message string) (first, last, full *NameField) {
	for _, re := range namePatterns {
		m := re.FindStringSubmatch(message)
		if m == nil {
			continue
		}

		phrase := strings.TrimSpace(m[1])
		tokens := nameTokens(phrase)
		switch len(tokens) {
		case 0:
			return nil, nil, nil
		case 1:
			return &NameField{Value: tokens[0], Confidence: 0.7}, nil, nil
		default:
			return &NameField{Value: tokens[0], Confidence: 0.9},
				&NameField{Value: tokens[len(tokens)-1], Confidence: 0.9},
				&NameField{Value: phrase, Confidence: 0.9}
		}
	}
	return nil, nil, nil
}

func nameTokens(phrase string) []string {
	var out []string
	for _, raw := range strings.Fields(phrase) {
		tok := strings.Trim(raw, ".,!?;:'\"")
		if tok == "" {
			continue
		}
		lower := strings.ToLower(tok)
		if _, ok := nameStopWords[lower]; ok {
			continue
		}
		if _, ok := namePrefixes[lower]; ok {
			continue
		}
		if _, ok := nameSuffixes[lower]; ok {
			continue
		}
		if _, ok := nameBlocklist[lower]; ok {
			continue
		}
		out = append(out, capitalize(tok))
	}
	return out
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

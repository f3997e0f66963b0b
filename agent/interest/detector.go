// Package interest scores a user message for interest and urgency using fixed
// keyword lists and question patterns.
package interest

import (
	"regexp"
	"strings"
)

type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Score maps low/medium/high onto 1/2/3. Unknown levels score 0.
func (l Level) Score() int {
	switch l {
	case LevelLow:
		return 1
	case LevelMedium:
		return 2
	case LevelHigh:
		return 3
	default:
		return 0
	}
}

type Urgency string

const (
	UrgencyUrgent Urgency = "urgent"
	UrgencyNormal Urgency = "normal"
	UrgencyCasual Urgency = "casual"
)

// Score maps casual/normal/urgent onto 1/2/3. Unknown values score 0.
func (u Urgency) Score() int {
	switch u {
	case UrgencyCasual:
		return 1
	case UrgencyNormal:
		return 2
	case UrgencyUrgent:
		return 3
	default:
		return 0
	}
}

const (
	tagInterestQuestion = "interest_question"
	tagDisinterest      = "disinterest_pattern"
)

type Indicators struct {
	Positive []string `json:"positive"`
	Negative []string `json:"negative"`
	Urgency  []string `json:"urgency"`
	Casual   []string `json:"casual"`
}

func (i Indicators) total() int {
	return len(i.Positive) + len(i.Negative) + len(i.Urgency) + len(i.Casual)
}

type Analysis struct {
	InterestLevel Level      `json:"interestLevel"`
	UrgencyLevel  Urgency    `json:"urgencyLevel"`
	Confidence    float64    `json:"confidence"`
	Indicators    Indicators `json:"indicators"`
}

type keyword struct {
	text string
	re   *regexp.Regexp
}

func compileKeywords(words []string) []keyword {
	out := make([]keyword, 0, len(words))
	for _, w := range words {
		out = append(out, keyword{
			text: w,
			re:   regexp.MustCompile(`\b` + regexp.QuoteMeta(w) + `\b`),
		})
	}
	return out
}

// Detector is stateless and safe for concurrent use.
type Detector struct {
	high    []keyword
	low     []keyword
	urgency []keyword
	casual  []keyword
	buying  []keyword
}

func NewDetector() *Detector {
	return &Detector{
		high:    compileKeywords(highInterestKeywords),
		low:     compileKeywords(lowInterestKeywords),
		urgency: compileKeywords(urgencyKeywords),
		casual:  compileKeywords(casualKeywords),
		buying:  compileKeywords(buyingSignalPhrases),
	}
}

// AnalyzeMessage scores message on its own, then lets the average of history
// pull the interest level up to high or down to low. Urgency derived from
// history is not applied to the result.
func (d *Detector) AnalyzeMessage(message string, history []string) Analysis {
	lower := strings.ToLower(message)

	var ind Indicators
	ind.Positive = matchAll(d.high, lower)
	ind.Negative = matchAll(d.low, lower)
	ind.Urgency = matchAll(d.urgency, lower)
	ind.Casual = matchAll(d.casual, lower)

	questionScore := 0
	for _, re := range interestQuestions {
		if re.MatchString(lower) {
			questionScore += 2
			ind.Positive = append(ind.Positive, tagInterestQuestion)
		}
	}
	for _, re := range disinterestPatterns {
		if re.MatchString(lower) {
			questionScore -= 2
			ind.Negative = append(ind.Negative, tagDisinterest)
		}
	}

	positive := 2*len(ind.Positive) + questionScore
	negative := 2 * len(ind.Negative)
	interest := interestFromNet(positive - negative)

	urgencyNet := 2*len(ind.Urgency) - 2*len(ind.Casual)
	urgency := urgencyFromNet(urgencyNet)

	if len(history) > 0 {
		histInterest, _ := d.historyLevels(history)
		switch {
		case histInterest == LevelHigh && interest != LevelLow:
			interest = LevelHigh
		case histInterest == LevelLow && interest != LevelHigh:
			interest = LevelLow
		}
	}

	return Analysis{
		InterestLevel: interest,
		UrgencyLevel:  urgency,
		Confidence:    confidence(ind.total()),
		Indicators:    ind,
	}
}

// historyLevels averages indicator counts over prior messages.
func (d *Detector) historyLevels(history []string) (Level, Urgency) {
	var interestSum, urgencySum float64
	for _, msg := range history {
		a := d.AnalyzeMessage(msg, nil)
		interestSum += float64(len(a.Indicators.Positive) - len(a.Indicators.Negative))
		urgencySum += float64(len(a.Indicators.Urgency) - len(a.Indicators.Casual))
	}
	n := float64(len(history))
	avgInterest := interestSum / n
	avgUrgency := urgencySum / n

	level := LevelLow
	switch {
	case avgInterest >= 1.5:
		level = LevelHigh
	case avgInterest >= 0.5:
		level = LevelMedium
	}

	urgency := UrgencyNormal
	switch {
	case avgUrgency >= 0.5:
		urgency = UrgencyUrgent
	case avgUrgency <= -0.5:
		urgency = UrgencyCasual
	}
	return level, urgency
}

func interestFromNet(net int) Level {
	switch {
	case net >= 4:
		return LevelHigh
	case net >= 1:
		return LevelMedium
	default:
		return LevelLow
	}
}

func urgencyFromNet(net int) Urgency {
	switch {
	case net >= 2:
		return UrgencyUrgent
	case net <= -2:
		return UrgencyCasual
	default:
		return UrgencyNormal
	}
}

func confidence(indicators int) float64 {
	c := 0.15*float64(indicators) + 0.3
	if c < 0.3 {
		return 0.3
	}
	if c > 0.9 {
		return 0.9
	}
	return c
}

func matchAll(words []keyword, lower string) []string {
	var out []string
	for _, w := range words {
		if w.re.MatchString(lower) {
			out = append(out, w.text)
		}
	}
	return out
}

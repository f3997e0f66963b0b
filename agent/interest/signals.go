package interest

import "strings"

type Strength string

const (
	StrengthWeak     Strength = "weak"
	StrengthModerate Strength = "moderate"
	StrengthStrong   Strength = "strong"
)

type BuyingSignals struct {
	HasSignals bool     `json:"hasSignals"`
	Signals    []string `json:"signals,omitempty"`
	Strength   Strength `json:"strength"`
}

// DetectBuyingSignals reports every buying phrase in message. One match is
// weak, two moderate, three or more strong.
func (d *Detector) DetectBuyingSignals(message string) BuyingSignals {
	signals := matchAll(d.buying, strings.ToLower(message))

	strength := StrengthWeak
	switch {
	case len(signals) >= 3:
		strength = StrengthStrong
	case len(signals) == 2:
		strength = StrengthModerate
	}

	return BuyingSignals{
		HasSignals: len(signals) > 0,
		Signals:    signals,
		Strength:   strength,
	}
}

type ObjectionType string

const (
	ObjectionPrice      ObjectionType = "price"
	ObjectionTime       ObjectionType = "time"
	ObjectionCommitment ObjectionType = "commitment"
	ObjectionLocation   ObjectionType = "location"
	ObjectionGeneral    ObjectionType = "general"
	ObjectionNone       ObjectionType = "none"
)

type Objection struct {
	HasObjection bool          `json:"hasObjection"`
	Type         ObjectionType `json:"type"`
	Matched      string        `json:"matched,omitempty"`
}

// DetectObjections returns the first objection category with a matching
// phrase, checked in the order price, time, commitment, location, general.
func (d *Detector) DetectObjections(message string) Objection {
	lower := strings.ToLower(message)
	for _, group := range objectionPhrases {
		for _, phrase := range group.phrases {
			if strings.Contains(lower, phrase) {
				return Objection{HasObjection: true, Type: group.kind, Matched: phrase}
			}
		}
	}
	return Objection{Type: ObjectionNone}
}

package interest

import "regexp"

var (
	highInterestKeywords = []string{
		"interested", "sign up", "signup", "join", "membership", "how much", "price", "pricing",
		"cost", "sounds good", "sounds great", "love to", "want to", "definitely", "excited",
		"tour", "trial", "book", "schedule", "tell me more", "perfect", "awesome", "yes",
		"ready", "let's do it", "get started",
	}

	lowInterestKeywords = []string{
		"not interested", "no thanks", "no thank you", "maybe later", "too expensive",
		"just looking", "just browsing", "not sure", "not now", "don't need", "dont need",
		"unsubscribe", "stop", "busy", "whatever", "nah",
	}

	urgencyKeywords = []string{
		"asap", "urgent", "urgently", "right now", "immediately", "today", "tonight",
		"this week", "as soon as possible", "quickly", "hurry", "soon", "now",
	}

	casualKeywords = []string{
		"just curious", "someday", "eventually", "no rush", "no hurry", "sometime",
		"next year", "in the future", "browsing", "wondering", "whenever",
	}

	interestQuestions = []*regexp.Regexp{
		regexp.MustCompile(`\bhow (much|do i|can i|does it)\b`),
		regexp.MustCompile(`\bwhat (are|is) (the|your) (price|prices|rates|hours|classes|options|plans)\b`),
		regexp.MustCompile(`\b(can|could) i (sign up|join|book|try|come in|schedule)\b`),
		regexp.MustCompile(`\bdo you (have|offer) .+\?`),
		regexp.MustCompile(`\bwhen (can|could) i (start|come|visit)\b`),
	}

	disinterestPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(i'?m|i am) not (really )?interested\b`),
		regexp.MustCompile(`\b(leave me alone|stop (messaging|texting|contacting) me)\b`),
		regexp.MustCompile(`\b(don'?t|do not) (contact|message|text|call) me\b`),
		regexp.MustCompile(`\bnot (for me|my thing)\b`),
	}

	buyingSignalPhrases = []string{
		"how much", "sign me up", "i want to join", "ready to join", "when can i start",
		"do you have availability", "what are the payment options", "can i pay",
		"is there a discount", "first month", "membership options", "book a tour",
		"free trial", "how do i sign up",
	}

	objectionPhrases = []struct {
		kind    ObjectionType
		phrases []string
	}{
		{ObjectionPrice, []string{"too expensive", "can't afford", "cant afford", "costs too much", "too pricey", "out of my budget", "cheaper"}},
		{ObjectionTime, []string{"no time", "too busy", "don't have time", "dont have time", "schedule is full", "not enough time"}},
		{ObjectionCommitment, []string{"contract", "commitment", "locked in", "cancel anytime", "not ready to commit", "long term"}},
		{ObjectionLocation, []string{"too far", "far away", "location", "closer to me", "commute", "parking"}},
		{ObjectionGeneral, []string{"not sure", "need to think", "think about it", "maybe later", "i'll see", "let me check"}},
	}
)

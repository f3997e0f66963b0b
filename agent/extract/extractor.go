// Package extract pulls contact details and consent signals out of raw chat
// messages with ordered regular expressions. It keeps no state.
package extract

type Email struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	Validated  bool    `json:"validated"`
}

type Phone struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	Validated  bool    `json:"validated"`
	Formatted  string  `json:"formatted"`
	E164       string  `json:"e164,omitempty"`
}

type NameField struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

type Info struct {
	Email     *Email     `json:"email,omitempty"`
	Phone     *Phone     `json:"phone,omitempty"`
	FirstName *NameField `json:"firstName,omitempty"`
	LastName  *NameField `json:"lastName,omitempty"`
	FullName  *NameField `json:"fullName,omitempty"`
}

func (i Info) Empty() bool {
	return i.Email == nil && i.Phone == nil && i.FirstName == nil && i.LastName == nil && i.FullName == nil
}

type InfoType string

const (
	InfoEmail   InfoType = "email"
	InfoPhone   InfoType = "phone"
	InfoName    InfoType = "name"
	InfoGeneral InfoType = "general"
)

type Decline struct {
	Declined   bool     `json:"declined"`
	Type       InfoType `json:"type"`
	Confidence float64  `json:"confidence"`
}

type Provision struct {
	IsProviding bool    `json:"isProviding"`
	Confidence  float64 `json:"confidence"`
	Extracted   Info    `json:"extracted"`
}

// Extractor is safe for concurrent use; all patterns are compiled at package init.
type Extractor struct {
	phoneRegion string
}

func NewExtractor() *Extractor {
	return &Extractor{phoneRegion: defaultPhoneRegion}
}

func (e *Extractor) ExtractInfo(message string) Info {
	var info Info
	info.Email = extractEmail(message)
	info.Phone = e.extractPhone(message)
	info.FirstName, info.LastName, info.FullName = extractName(message)
	return info
}

// DetectInformationProvision reports whether message carries the requested
// kind of information. General requests accept any extracted field.
func (e *Extractor) DetectInformationProvision(message string, requested InfoType) Provision {
	info := e.ExtractInfo(message)
	out := Provision{Extracted: info}

	switch requested {
	case InfoEmail:
		if info.Email != nil {
			out.IsProviding, out.Confidence = true, info.Email.Confidence
		}
	case InfoPhone:
		if info.Phone != nil {
			out.IsProviding, out.Confidence = true, info.Phone.Confidence
		}
	case InfoName:
		switch {
		case info.FullName != nil:
			out.IsProviding, out.Confidence = true, info.FullName.Confidence
		case info.FirstName != nil:
			out.IsProviding, out.Confidence = true, info.FirstName.Confidence
		}
	default:
		if !info.Empty() {
			out.IsProviding, out.Confidence = true, maxConfidence(info)
		}
	}
	return out
}

func maxConfidence(info Info) float64 {
	best := 0.0
	consider := func(c float64) {
		if c > best {
			best = c
		}
	}
	if info.Email != nil {
		consider(info.Email.Confidence)
	}
	if info.Phone != nil {
		consider(info.Phone.Confidence)
	}
	if info.FullName != nil {
		consider(info.FullName.Confidence)
	}
	if info.FirstName != nil {
		consider(info.FirstName.Confidence)
	}
	return best
}

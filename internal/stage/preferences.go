package stage

import "strings"

// Tones accepted at session start.
const (
	ToneProfessional = "professional"
	ToneGenZ         = "genz"
	ToneMinimalist   = "minimalist"
	ToneCreative     = "creative"
)

// Styles offered at the style pause.
const (
	StyleProfessional = "professional"
	StyleCreative     = "creative"
	StyleMinimal      = "minimal"
	StyleDetailed     = "detailed"
)

// MaxDescriptionLength bounds the free-form user requirements.
const MaxDescriptionLength = 2000

// Preferences is the user's choice of voice and layout.
type Preferences struct {
	Tone        string `json:"tone"`
	Style       string `json:"style,omitempty"`
	Description string `json:"description,omitempty"`
}

// Tones lists the supported tones.
func Tones() []string {
	return []string{ToneProfessional, ToneGenZ, ToneMinimalist, ToneCreative}
}

// Styles lists the supported styles.
func Styles() []string {
	return []string{StyleProfessional, StyleCreative, StyleMinimal, StyleDetailed}
}

// NormalizeTone lowercases tone and reports whether it is supported. An empty
// tone defaults to professional.
func NormalizeTone(tone string) (string, bool) {
	tone = strings.ToLower(strings.TrimSpace(tone))
	if tone == "" {
		return ToneProfessional, true
	}
	return tone, contains(Tones(), tone)
}

// NormalizeStyle lowercases style and reports whether it is supported.
func NormalizeStyle(style string) (string, bool) {
	style = strings.ToLower(strings.TrimSpace(style))
	return style, contains(Styles(), style)
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// StyleOptions is the payload of the awaiting-input event.
type StyleOptions struct {
	Styles []string `json:"styles"`
	Tones  []string `json:"tones"`
	Tone   string   `json:"tone"`
}

// NewStyleOptions lists the choices offered at the style pause.
func NewStyleOptions(tone string) StyleOptions {
	return StyleOptions{Styles: Styles(), Tones: Tones(), Tone: tone}
}

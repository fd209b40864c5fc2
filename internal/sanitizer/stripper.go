package sanitizer

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// HTMLStripperer removes markup from user supplied text.
type HTMLStripperer interface {
	StripHTML(s string) string
	StripMap(m map[string]string) map[string]string
}

type HTMLStripper struct {
	bm *bluemonday.Policy
}

// NewHTMLStripper returns a stripper backed by bluemonday's strict policy.
func NewHTMLStripper() *HTMLStripper {
	return &HTMLStripper{
		bm: bluemonday.StrictPolicy(),
	}
}

func (hs *HTMLStripper) StripHTML(s string) string {
	return strings.TrimSpace(hs.bm.Sanitize(s))
}

// StripMap sanitizes every value of a localized text map, dropping entries
// that end up empty.
func (hs *HTMLStripper) StripMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		if cleaned := hs.StripHTML(v); cleaned != "" {
			out[k] = cleaned
		}
	}
	return out
}

package sanitize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Alias maps one raw city spelling (lowercase) to a canonical city name.
type Alias struct {
	Raw       string
	Canonical string
}

// CityNormalizer resolves messy city strings against an ordered alias
// table. Table order matters: substring matching is first-match-wins,
// so more specific aliases must come before shorter ones that could
// shadow them.
type CityNormalizer struct {
	rules []Alias
	exact map[string]string
}

func NewCityNormalizer(rules []Alias) *CityNormalizer {
	n := &CityNormalizer{
		rules: make([]Alias, 0, len(rules)),
		exact: make(map[string]string, len(rules)),
	}
	for _, r := range rules {
		raw := strings.TrimSpace(strings.ToLower(r.Raw))
		if raw == "" || r.Canonical == "" {
			continue
		}
		n.rules = append(n.rules, Alias{Raw: raw, Canonical: r.Canonical})
		if _, dup := n.exact[raw]; !dup {
			n.exact[raw] = r.Canonical
		}
	}
	return n
}

// Normalize maps a raw city name to its canonical form. Unknown cities
// come back trimmed and title-cased rather than rejected; empty input
// stays empty. Never fails.
func (n *CityNormalizer) Normalize(city string) string {
	trimmed := strings.TrimSpace(city)
	if trimmed == "" {
		return ""
	}

	key := strings.ToLower(trimmed)
	if canonical, ok := n.exact[key]; ok {
		return canonical
	}

	// partial match: alias contained anywhere in the input
	for _, r := range n.rules {
		if strings.Contains(key, r.Raw) {
			return r.Canonical
		}
	}

	return cases.Title(language.English).String(key)
}

// FromAddress scans a full address string for any known alias and
// returns the canonical city, or "" when nothing matches.
func (n *CityNormalizer) FromAddress(address string) string {
	if strings.TrimSpace(address) == "" {
		return ""
	}
	lower := strings.ToLower(address)
	for _, r := range n.rules {
		if strings.Contains(lower, r.Raw) {
			return r.Canonical
		}
	}
	return ""
}

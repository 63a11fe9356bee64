package utils

import (
	"regexp"
	"strings"

	"github.com/feedbackpulse/feedbackpulse/internal/models"
)

// Best-effort location extraction from free text and from structured
// "City, ST" author lines. Only a detected state produces a result.

var usStateAbbr = map[string]string{
	"AL": "Alabama", "AK": "Alaska", "AZ": "Arizona", "AR": "Arkansas",
	"CA": "California", "CO": "Colorado", "CT": "Connecticut", "DE": "Delaware",
	"FL": "Florida", "GA": "Georgia", "HI": "Hawaii", "ID": "Idaho",
	"IL": "Illinois", "IN": "Indiana", "IA": "Iowa", "KS": "Kansas",
	"KY": "Kentucky", "LA": "Louisiana", "ME": "Maine", "MD": "Maryland",
	"MA": "Massachusetts", "MI": "Michigan", "MN": "Minnesota", "MS": "Mississippi",
	"MO": "Missouri", "MT": "Montana", "NE": "Nebraska", "NV": "Nevada",
	"NH": "New Hampshire", "NJ": "New Jersey", "NM": "New Mexico", "NY": "New York",
	"NC": "North Carolina", "ND": "North Dakota", "OH": "Ohio", "OK": "Oklahoma",
	"OR": "Oregon", "PA": "Pennsylvania", "RI": "Rhode Island", "SC": "South Carolina",
	"SD": "South Dakota", "TN": "Tennessee", "TX": "Texas", "UT": "Utah",
	"VT": "Vermont", "VA": "Virginia", "WA": "Washington", "WV": "West Virginia",
	"WI": "Wisconsin", "WY": "Wyoming", "DC": "District of Columbia",
}

var usStateNames = func() map[string]string {
	names := make(map[string]string, len(usStateAbbr))
	for abbr, name := range usStateAbbr {
		names[strings.ToLower(name)] = abbr
	}
	return names
}()

var canadianProvinces = map[string]bool{
	"Quebec": true, "Ontario": true, "BC": true, "Alberta": true,
	"Manitoba": true, "Saskatchewan": true,
}

// cityStatePattern matches "in Austin, TX" style mentions.
var cityStatePattern = regexp.MustCompile(`(?:^|[\s(])(?:in|from|near)\s+([A-Z][A-Za-z .'-]{1,30}),\s*([A-Z]{2})\b`)

// bareStatePattern matches a standalone two-letter state abbreviation.
var bareStatePattern = regexp.MustCompile(`\b([A-Z]{2})\b`)

// ExtractLocation scans feedback text for a US location mention. Returns nil
// when nothing convincing was found.
func ExtractLocation(text string) *models.Location {
	if m := cityStatePattern.FindStringSubmatch(text); m != nil {
		if _, ok := usStateAbbr[m[2]]; ok {
			return &models.Location{
				City:       strings.TrimSpace(m[1]),
				State:      m[2],
				Country:    "USA",
				Raw:        strings.TrimSpace(m[1]) + ", " + m[2],
				Confidence: 0.9,
			}
		}
	}

	lower := strings.ToLower(text)
	for name, abbr := range usStateNames {
		if strings.Contains(lower, name) {
			return &models.Location{
				State:      abbr,
				Country:    "USA",
				Raw:        name,
				Confidence: 0.5,
			}
		}
	}

	for _, m := range bareStatePattern.FindAllStringSubmatch(text, -1) {
		if _, ok := usStateAbbr[m[1]]; ok {
			return &models.Location{
				State:      m[1],
				Country:    "USA",
				Raw:        m[1],
				Confidence: 0.3,
			}
		}
	}

	return nil
}

// ParseAuthorLocation parses a structured reviewer location line such as
// "Los Angeles, CA" or "Quebec". Returns nil for empty or unrecognized input.
func ParseAuthorLocation(raw string) *models.Location {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	switch len(parts) {
	case 2:
		loc := &models.Location{City: parts[0], State: parts[1], Raw: raw, Confidence: 1}
		if _, ok := usStateAbbr[strings.ToUpper(parts[1])]; ok {
			loc.Country = "USA"
		} else if _, ok := usStateNames[strings.ToLower(parts[1])]; ok {
			loc.Country = "USA"
		} else if canadianProvinces[parts[1]] {
			loc.Country = "Canada"
		}
		return loc
	case 1:
		return &models.Location{State: parts[0], Raw: raw, Confidence: 0.8}
	default:
		return &models.Location{Raw: raw, Confidence: 0.2}
	}
}

// Package batch classifies job descriptions into setup-compatibility
// categories. Jobs in the same cohort share changeover setup and earn the
// batch duration discount; the classifier also keys the DOORS Welding
// sub-pipeline.
package batch

import (
	"regexp"
	"strings"

	"github.com/dsifab/fabsched/constants"
)

// Classification is the result of matching one job description.
type Classification struct {
	Matched  bool
	Category constants.BatchCategory
	Gauge    string // e.g. "16ga", empty when absent
	Material string // e.g. "SS304", empty when absent
}

var (
	separators = regexp.MustCompile(`[-_/\\,.;:()]+`)
	whitespace = regexp.MustCompile(`\s+`)

	knockdownPat   = regexp.MustCompile(`\b(?:k\s?d|knock\s?down|knockdown)\b`)
	caseOpeningPat = regexp.MustCompile(`\b(?:case\s?opening|case\s?open|c\s?o\s+frame)\b`)
	lockSeamPat    = regexp.MustCompile(`\b(?:lock\s?seam|lockseam|l\s?s\s+door)\b`)
	framePat       = regexp.MustCompile(`\bframes?\b`)
	doorPat        = regexp.MustCompile(`\bdoors?\b`)

	gaugePat    = regexp.MustCompile(`\b(\d{1,2})\s?ga\b|#\s?(\d{1,2})\b`)
	floodPat    = regexp.MustCompile(`\bflood\b`)
	nychaPat    = regexp.MustCompile(`\bnycha\b`)
	seamlessPat = regexp.MustCompile(`\bseamless\b`)
)

// materialPats are checked in order; the first match wins, so the specific
// stainless grades come before the generic words.
var materialPats = []struct {
	pat   *regexp.Regexp
	token string
}{
	{regexp.MustCompile(`\b(?:ss\s?304|304\s?(?:ss|stainless)?)\b`), "SS304"},
	{regexp.MustCompile(`\b(?:ss\s?316|316\s?(?:ss|stainless)?)\b`), "SS316"},
	{regexp.MustCompile(`\b(?:stainless|ss)\b`), "SS"},
	{regexp.MustCompile(`\b(?:galv(?:anized|anneal)?|g90)\b`), "GALV"},
	{regexp.MustCompile(`\b(?:alum(?:inum)?|al)\b`), "ALUM"},
	{regexp.MustCompile(`\bcrs\b`), "CRS"},
	{regexp.MustCompile(`\bhrs\b`), "HRS"},
	{regexp.MustCompile(`\bsteel\b`), "STEEL"},
}

// Normalize lowercases a description and collapses separators so the pattern
// families match consistently.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = separators.ReplaceAllString(s, " ")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Classify matches a job description against the three batching pattern
// families and, on a match, extracts gauge and material tokens when present.
func Classify(description string) Classification {
	norm := Normalize(description)
	if norm == "" {
		return Classification{}
	}

	var category constants.BatchCategory
	switch {
	case framePat.MatchString(norm) && knockdownPat.MatchString(norm):
		category = constants.BatchFrameKnockdown
	case framePat.MatchString(norm) && caseOpeningPat.MatchString(norm):
		category = constants.BatchFrameCaseOpening
	case doorPat.MatchString(norm) && lockSeamPat.MatchString(norm):
		category = constants.BatchDoorLockSeam
	default:
		return Classification{}
	}

	return Classification{
		Matched:  true,
		Category: category,
		Gauge:    extractGauge(norm),
		Material: extractMaterial(norm),
	}
}

func extractGauge(norm string) string {
	m := gaugePat.FindStringSubmatch(norm)
	if m == nil {
		return ""
	}
	if m[1] != "" {
		return m[1] + "ga"
	}
	return m[2] + "ga"
}

func extractMaterial(norm string) string {
	for _, mp := range materialPats {
		if mp.pat.MatchString(norm) {
			return mp.token
		}
	}
	return ""
}

// ClassifyDoor selects the Welding sub-pipeline class for a DOORS job from
// its description and job name. NYCHA is checked first because NYCHA jobs
// bypass the sub-pipeline entirely.
func ClassifyDoor(description, jobName string) constants.DoorClass {
	norm := Normalize(description + " " + jobName)
	switch {
	case nychaPat.MatchString(norm):
		return constants.DoorNYCHA
	case floodPat.MatchString(norm):
		return constants.DoorFlood
	case lockSeamPat.MatchString(norm):
		return constants.DoorStandardLockSeam
	case seamlessPat.MatchString(norm):
		return constants.DoorStandardSeamless
	}
	return constants.DoorStandardSeamless
}

// IsLeafDoor reports whether a description indicates a door-only job (a
// "leaf") rather than frame work. Leaf jobs carry the 2-day Welding floor.
func IsLeafDoor(description string) bool {
	norm := Normalize(description)
	return doorPat.MatchString(norm) && !framePat.MatchString(norm)
}

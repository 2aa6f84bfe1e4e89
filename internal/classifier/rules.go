package classifier

import (
	"sort"
	"strings"
)

// exclusionaryTerms are phrases that routinely screen out candidates the
// platform exists to serve. Each hit costs points and produces an issue.
var exclusionaryTerms = map[string]string{
	"rockstar":              "superlative language discourages qualified applicants",
	"ninja":                 "superlative language discourages qualified applicants",
	"fast-paced":            "pace framing penalizes candidates who need structure",
	"high-pressure":         "pressure framing penalizes candidates who need structure",
	"work hard play hard":   "culture-fit framing is exclusionary",
	"thick skin":            "tone framing is exclusionary",
	"must handle stress":    "stress framing penalizes candidates with accommodations",
	"no hand-holding":       "support-averse framing is exclusionary",
	"digital native":        "age-coded language",
	"young and dynamic":     "age-coded language",
	"able-bodied":           "ability-coded language",
	"perfect communication": "absolute communication bar excludes many candidates",
}

const (
	ruleBaseScore        = 70
	rulePenaltyPerIssue  = 15
	ruleAccommodationMax = 30
	ruleAccommodationPer = 10
)

// ScoreByRules is the deterministic fallback classifier. Pure function of the
// posting text: same posting, same verdict, no external calls.
func ScoreByRules(p Posting) Verdict {
	text := strings.ToLower(p.Title + " " + p.Description)

	var issues []string
	for term, issue := range exclusionaryTerms {
		if strings.Contains(text, term) {
			issues = append(issues, issue+" ("+term+")")
		}
	}
	sort.Strings(issues)

	score := ruleBaseScore - rulePenaltyPerIssue*len(issues)

	bonus := ruleAccommodationPer * len(p.Accommodations)
	if bonus > ruleAccommodationMax {
		bonus = ruleAccommodationMax
	}
	score += bonus

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return Verdict{Score: score, Issues: issues, Source: "rules"}
}

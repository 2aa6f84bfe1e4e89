package match

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"workbridge/internal/job"
	"workbridge/internal/profile"
	pstrings "workbridge/pkg/platform/strings"
)

// Factor weights; they sum to 100.
const (
	weightSkills         = 40
	weightAccommodations = 30
	weightPreferences    = 20
	weightLocation       = 10
)

// Eligible reports whether a candidate/job pair may be scored at all. A false
// result is a normal "no match possible" outcome, not an error.
func Eligible(p profile.CandidateProfile, j job.Job) bool {
	if p.Erased() || !p.Privacy.Visible || !p.AssessmentCompleted {
		return false
	}
	if !j.Open() || len(j.Accommodations) == 0 {
		return false
	}
	return true
}

// Score computes the total compatibility score and its breakdown. Pure: same
// inputs, same output, no side effects.
func Score(p profile.CandidateProfile, j job.Job) (int, Breakdown) {
	b := Breakdown{
		Skills:         scoreSkills(p.Skills, j.RequiredSkills),
		Accommodations: scoreAccommodations(p.AccommodationNeeds, j.Accommodations),
		Preferences:    scorePreferences(p.Preferences, j),
		Location:       scoreLocation(p, j),
	}
	total := float64(b.Skills)*weightSkills +
		float64(b.Accommodations)*weightAccommodations +
		float64(b.Preferences)*weightPreferences +
		float64(b.Location)*weightLocation
	return int(math.Round(total / 100)), b
}

func scoreSkills(candidate, required []string) int {
	if len(required) == 0 {
		return 100
	}
	matched := 0
	for _, r := range required {
		if pstrings.ContainsFold(candidate, r) {
			matched++
		}
	}
	score := int(math.Round(100 * float64(matched) / float64(len(required))))
	// Breadth bonus: rewards listing more skills than asked for without
	// penalizing focused profiles.
	if len(candidate) > len(required) {
		score += 10
	}
	if score > 100 {
		score = 100
	}
	return score
}

func scoreAccommodations(needs, offered []string) int {
	if len(needs) == 0 {
		return 100
	}
	if len(offered) == 0 {
		return 0
	}
	met := 0
	for _, n := range needs {
		if pstrings.ContainsFold(offered, n) {
			met++
		}
	}
	return int(math.Round(100 * float64(met) / float64(len(needs))))
}

// Preference sub-check point split: work mode 40, flexible hours 30, team
// size 30. A component the candidate left undeclared is granted in full.
func scorePreferences(pref profile.Preferences, j job.Job) int {
	if !pref.Declared() {
		return 50
	}

	points := 0

	switch {
	case pref.WorkMode == "":
		points += 40
	case pref.WorkMode == j.WorkMode || pref.WorkMode == "flexible":
		points += 40
	case pref.WorkMode == job.WorkModeHybrid && j.WorkMode != job.WorkModeOnsite:
		points += 20
	}

	if !pref.FlexibleHours || j.OffersFlexibleHours() {
		points += 30
	}

	switch {
	case pref.TeamSize == "" || j.TeamSize == "":
		points += 30
	case pref.TeamSize == j.TeamSize:
		points += 30
	case adjacentTeamSize(pref.TeamSize, j.TeamSize):
		points += 15
	}

	return points
}

func adjacentTeamSize(a, b string) bool {
	order := map[string]int{job.TeamSizeSmall: 0, job.TeamSizeMedium: 1, job.TeamSizeLarge: 2}
	ai, aok := order[a]
	bi, bok := order[b]
	if !aok || !bok {
		return false
	}
	diff := ai - bi
	return diff == 1 || diff == -1
}

func scoreLocation(p profile.CandidateProfile, j job.Job) int {
	if j.WorkMode == job.WorkModeRemote {
		return 100
	}
	if p.Preferences.WorkMode == job.WorkModeRemote && j.WorkMode == job.WorkModeOnsite {
		return 0
	}
	if p.Location == "" || j.Location == "" {
		return 50
	}
	if strings.EqualFold(p.Location, j.Location) || sharesCity(p.Location, j.Location) {
		return 100
	}
	if j.WorkMode == job.WorkModeHybrid {
		return 50
	}
	return 20
}

// sharesCity treats comma-separated location strings as "city, region, ..."
// and reports whether any segment matches case-insensitively.
func sharesCity(a, b string) bool {
	for _, as := range strings.Split(a, ",") {
		as = strings.TrimSpace(as)
		if as == "" {
			continue
		}
		for _, bs := range strings.Split(b, ",") {
			if strings.EqualFold(as, strings.TrimSpace(bs)) {
				return true
			}
		}
	}
	return false
}

var factorLabels = map[string]string{
	"skills":         "skill alignment",
	"accommodations": "accommodation fit",
	"preferences":    "working preference fit",
	"location":       "location compatibility",
}

// Justify renders the deterministic natural-language justification from the
// breakdown alone. Reproducible: rerunning on a stored breakdown yields the
// same text.
func Justify(b Breakdown) string {
	factors := []struct {
		key   string
		score int
	}{
		{"skills", b.Skills},
		{"accommodations", b.Accommodations},
		{"preferences", b.Preferences},
		{"location", b.Location},
	}

	var strong, good []string
	for _, f := range factors {
		switch {
		case f.score >= 80:
			strong = append(strong, factorLabels[f.key])
		case f.score >= 60:
			good = append(good, factorLabels[f.key])
		}
	}
	sort.Strings(strong)
	sort.Strings(good)

	var parts []string
	if len(strong) > 0 {
		parts = append(parts, fmt.Sprintf("strong %s", strings.Join(strong, " and ")))
	}
	if len(good) > 0 {
		parts = append(parts, fmt.Sprintf("good %s", strings.Join(good, " and ")))
	}
	if len(parts) == 0 {
		return "Moderate overall compatibility across all factors."
	}
	return "This match shows " + strings.Join(parts, ", with ") + "."
}

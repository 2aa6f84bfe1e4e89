// Package job owns the normalized job requirement record. Raw postings arrive
// with loosely-shaped fields; Normalize builds the single explicit Job value
// at the store boundary so every consumer sees one canonical shape.
package job

import (
	"strings"
	"time"

	"workbridge/pkg/domain"
	pstrings "workbridge/pkg/platform/strings"
)

type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Work modes and team sizes are closed categorical sets; matching is exact
// after normalization, no synonym inference.
const (
	WorkModeRemote = "remote"
	WorkModeHybrid = "hybrid"
	WorkModeOnsite = "onsite"
)

const (
	TeamSizeSmall  = "small"
	TeamSizeMedium = "medium"
	TeamSizeLarge  = "large"
)

// Job is read-only to the scoring engine once published.
type Job struct {
	ID             domain.JobID
	OrganizationID domain.OrganizationID
	Title          string
	Description    string
	RequiredSkills []string
	// Accommodations offered; a job must carry at least one before it is
	// eligible for matching.
	Accommodations []string
	WorkMode       string
	Location       string
	TeamSize       string
	Status         Status

	InclusivityScore  int
	InclusivityIssues []string

	CreatedAt time.Time
	ClosedAt  *time.Time
}

func (j Job) Open() bool { return j.Status == StatusOpen }

// OffersFlexibleHours reports whether the posting explicitly lists flexible
// hours among its accommodations.
func (j Job) OffersFlexibleHours() bool {
	for _, a := range j.Accommodations {
		if strings.Contains(strings.ToLower(a), "flexible hours") {
			return true
		}
	}
	return false
}

// Normalize canonicalizes a raw posting into the single Job shape: trimmed
// deduped term lists and lowercased categorical values. Unknown categorical
// values collapse to empty ("unspecified") rather than passing through.
func Normalize(j Job) Job {
	j.Title = strings.TrimSpace(j.Title)
	j.Location = strings.TrimSpace(j.Location)
	j.RequiredSkills = pstrings.DedupeAndTrim(j.RequiredSkills)
	j.Accommodations = pstrings.DedupeAndTrim(j.Accommodations)

	j.WorkMode = normalizeCategory(j.WorkMode, WorkModeRemote, WorkModeHybrid, WorkModeOnsite)
	j.TeamSize = normalizeCategory(j.TeamSize, TeamSizeSmall, TeamSizeMedium, TeamSizeLarge)
	return j
}

func normalizeCategory(value string, allowed ...string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	for _, a := range allowed {
		if v == a {
			return a
		}
	}
	return ""
}

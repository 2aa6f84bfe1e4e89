// Package audit provides the append-only evidentiary trail. Every sensitive
// read and write, and every consent state transition, lands here with a
// mandatory retention floor. Entries are removed only by the retention sweep,
// never by application logic.
package audit

import (
	"time"

	"github.com/google/uuid"

	"workbridge/pkg/domain"
)

// RetentionPeriod is the mandatory retention floor applied to every entry.
const RetentionPeriod = 7 * 365 * 24 * time.Hour

// EventKind labels what happened. Keep values stable; they are part of the
// evidentiary record.
type EventKind string

const (
	EventProfileRead          EventKind = "profile.read"
	EventProfileWrite         EventKind = "profile.write"
	EventProfileErased        EventKind = "profile.erased"
	EventMatchScored          EventKind = "match.scored"
	EventMatchAccepted        EventKind = "match.accepted"
	EventMatchRejected        EventKind = "match.rejected"
	EventMatchExpired         EventKind = "match.expired"
	EventJobCreated           EventKind = "job.created"
	EventJobClosed            EventKind = "job.closed"
	EventConsentGranted       EventKind = "consent.granted"
	EventConsentRevoked       EventKind = "consent.revoked"
	EventConsentFieldsUpdated EventKind = "consent.fields_updated"
	EventSharedProfileRead    EventKind = "consent.profile_read"
)

// Event is emitted from domain logic. The recorder fills in timestamp and
// retention before persisting.
type Event struct {
	Actor       string
	Kind        EventKind
	Subject     string
	Fields      []string
	Sensitivity domain.Sensitivity
}

// Entry is the persisted, append-only form of an Event.
type Entry struct {
	ID          uuid.UUID
	Actor       string
	Kind        EventKind
	Subject     string
	Fields      []string
	Sensitivity domain.Sensitivity
	Timestamp   time.Time
	// RetentionUntil is Timestamp + RetentionPeriod at creation and is never
	// shortened afterwards.
	RetentionUntil time.Time
}

// Package model defines the domain records shared by the engine and its
// stores.
package model

import (
	"time"

	"github.com/openvolunteering/postulate/pkg/calendar"
)

// Role identifies what an authenticated principal is allowed to do. The
// engine trusts the resolved role and only checks ownership on top of it.
type Role string

const (
	RoleVolunteer Role = "VOLUNTEER"
	RoleSupplier  Role = "SUPPLIER"
	RoleAdmin     Role = "ADMIN"
)

// Actor is the resolved identity an operation runs as.
type Actor struct {
	UserID string
	Role   Role
}

// WorkKind distinguishes one-off works from weekly recurring ones.
type WorkKind string

const (
	KindSession   WorkKind = "SESSION"
	KindRecurring WorkKind = "RECURRING"
)

// Valid reports whether the kind is one of the two known values.
func (k WorkKind) Valid() bool {
	return k == KindSession || k == KindRecurring
}

// DateRange is an inclusive [Start, End] span of calendar dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether a date falls inside the range, inclusive on
// both ends.
func (r DateRange) Contains(d time.Time) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// Overlaps reports whether two inclusive ranges share at least one date.
func (r DateRange) Overlaps(o DateRange) bool {
	return !r.Start.After(o.End) && !o.Start.After(r.End)
}

// Work is a postulatable job definition owned by a supplier.
type Work struct {
	ID          string
	SupplierID  string
	Name        string
	Description string
	Kind        WorkKind
	StartDate   time.Time
	EndDate     time.Time
	Capacity    int
	HourBlocks  []calendar.HourBlock
	Tags        []string
}

// Window returns the work's validity window.
func (w *Work) Window() DateRange {
	return DateRange{Start: w.StartDate, End: w.EndDate}
}

// PostulationStatus is the lifecycle state of a postulation.
type PostulationStatus string

const (
	PostulationPending  PostulationStatus = "PENDING"
	PostulationAccepted PostulationStatus = "ACCEPTED"
	PostulationRejected PostulationStatus = "REJECTED"
)

// Postulation is a volunteer's request to fill a slot in a work for a date
// range inside the work's window.
type Postulation struct {
	ID          string
	VolunteerID string
	WorkID      string
	StartDate   time.Time
	EndDate     time.Time
	Status      PostulationStatus
	SubmittedOn time.Time
}

// Active reports whether the postulation still counts against the one
// active postulation per (volunteer, work) rule.
func (p *Postulation) Active() bool {
	return p.Status == PostulationPending || p.Status == PostulationAccepted
}

// Range returns the postulation's date range.
func (p *Postulation) Range() DateRange {
	return DateRange{Start: p.StartDate, End: p.EndDate}
}

// WorkInstance is the contract created when a postulation is accepted,
// binding one volunteer to one work for a date range. It is immutable once
// created.
type WorkInstance struct {
	ID          string
	WorkID      string
	VolunteerID string
	StartDate   time.Time
	EndDate     time.Time
}

// SessionStatus tracks attendance for a single dated session.
type SessionStatus string

const (
	SessionPending  SessionStatus = "PENDING"
	SessionAttended SessionStatus = "ACCEPTED"
	SessionAbsent   SessionStatus = "REJECTED"
)

// Valid reports whether the status is one of the known values.
func (s SessionStatus) Valid() bool {
	return s == SessionPending || s == SessionAttended || s == SessionAbsent
}

// WorkSession is one concrete dated occurrence generated from a work
// instance and one of its hour blocks.
type WorkSession struct {
	ID         string
	InstanceID string
	Date       time.Time
	Start      calendar.TimeOfDay
	WeekDay    calendar.WeekDay
	Status     SessionStatus
}

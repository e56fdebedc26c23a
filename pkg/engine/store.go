package engine

import (
	"context"
	"time"

	"github.com/openvolunteering/postulate/pkg/calendar"
	"github.com/openvolunteering/postulate/pkg/model"
)

// Stores return (nil, nil) for single-record lookups that find nothing;
// the engine turns that into a KindNotFound error at its boundary. Any
// non-nil error from a store is treated as a storage fault.

// WorkStore defines the work definition queries the engine needs.
type WorkStore interface {
	GetWork(ctx context.Context, id string) (*model.Work, error)
	GetWorkByName(ctx context.Context, supplierID, name string) (*model.Work, error)
	ListWorksOverlapping(ctx context.Context, r model.DateRange) ([]model.Work, error)
	InsertWork(ctx context.Context, w *model.Work) error
	UpdateWork(ctx context.Context, w *model.Work) error
	DeleteWork(ctx context.Context, id string) error
}

// PostulationStore defines the postulation queries the engine needs.
type PostulationStore interface {
	GetPostulation(ctx context.Context, id string) (*model.Postulation, error)
	// FindPostulation returns the single postulation row for a
	// (volunteer, work) pair regardless of status.
	FindPostulation(ctx context.Context, volunteerID, workID string) (*model.Postulation, error)
	// ListActiveOverlapping returns the volunteer's PENDING and ACCEPTED
	// postulations whose date range overlaps r.
	ListActiveOverlapping(ctx context.Context, volunteerID string, r model.DateRange) ([]model.Postulation, error)
	ListVolunteerPostulations(ctx context.Context, volunteerID string) ([]model.Postulation, error)
	ListWorkPostulationsByStatus(ctx context.Context, workID string, status model.PostulationStatus) ([]model.Postulation, error)
	// ListExpiredPending returns every PENDING postulation whose end date
	// is strictly before the given date, across all works.
	ListExpiredPending(ctx context.Context, before time.Time) ([]model.Postulation, error)
	InsertPostulation(ctx context.Context, p *model.Postulation) error
	UpdatePostulation(ctx context.Context, p *model.Postulation) error
	DeletePostulation(ctx context.Context, id string) error
	DeleteWorkPostulations(ctx context.Context, workID string) error
}

// InstanceStore defines the work instance queries the engine needs.
type InstanceStore interface {
	GetInstance(ctx context.Context, id string) (*model.WorkInstance, error)
	CountWorkInstances(ctx context.Context, workID string) (int, error)
	ListWorkInstances(ctx context.Context, workID string) ([]model.WorkInstance, error)
	ListVolunteerInstances(ctx context.Context, volunteerID string) ([]model.WorkInstance, error)
	InsertInstance(ctx context.Context, inst *model.WorkInstance) error
	DeleteWorkInstances(ctx context.Context, workID string) error
}

// SessionStore defines the work session queries the engine needs.
type SessionStore interface {
	GetSession(ctx context.Context, id string) (*model.WorkSession, error)
	InsertSessions(ctx context.Context, sessions []model.WorkSession) error
	UpdateSessionStatus(ctx context.Context, id string, status model.SessionStatus) error
	ListInstanceSessions(ctx context.Context, instanceID string) ([]model.WorkSession, error)
	// ListWorkSessionsAt returns the sessions of every instance of a work
	// on one date and hour block.
	ListWorkSessionsAt(ctx context.Context, workID string, date time.Time, start calendar.TimeOfDay) ([]model.WorkSession, error)
	DeleteWorkSessions(ctx context.Context, workID string) error
}

// PreferenceStore keeps a volunteer's personal weekly hour block set.
type PreferenceStore interface {
	GetPreferences(ctx context.Context, volunteerID string) ([]calendar.HourBlock, error)
	ReplacePreferences(ctx context.Context, volunteerID string, blocks []calendar.HourBlock) error
}

// Store is the full persistence surface of the engine. RunInTx runs fn
// against a store view bound to one transaction; the transaction commits
// when fn returns nil and rolls back otherwise, so a failing operation
// never leaves partial state behind.
type Store interface {
	WorkStore
	PostulationStore
	InstanceStore
	SessionStore
	PreferenceStore

	RunInTx(ctx context.Context, fn func(Store) error) error
}

package service

import (
	"context"
	"time"

	"github.com/tutorlane/marketplace/internal/model"
	"github.com/tutorlane/marketplace/internal/repository/base"
)

// The services consume narrow store interfaces instead of concrete
// repositories: the pgx implementations live in internal/repository and
// the tests supply in-memory fakes. Methods that must observe the
// caller's transaction take a base.Querier explicitly.

// TxRunner is the atomic unit-of-work primitive. Every lifecycle write
// path runs inside InTx; there is no other way to reach the ledgers.
type TxRunner interface {
	InTx(ctx context.Context, fn func(q base.Querier) error) error
	DB() base.Querier
}

type RequestStore interface {
	Create(ctx context.Context, req *model.LessonRequest) error
	GetByID(ctx context.Context, id int64) (*model.LessonRequest, error)
}

type QuoteStore interface {
	Create(ctx context.Context, q base.Querier, quote *model.LessonQuote) error
	GetByID(ctx context.Context, id int64) (*model.LessonQuote, error)
	LockByID(ctx context.Context, q base.Querier, id int64) (*model.LessonQuote, error)
	LockByRequestID(ctx context.Context, q base.Querier, requestID int64) ([]*model.LessonQuote, error)
	FindStaleCreated(ctx context.Context, cutoff time.Time) ([]*model.LessonQuote, error)
}

type LessonStore interface {
	Create(ctx context.Context, q base.Querier, lesson *model.Lesson) error
	GetByID(ctx context.Context, id int64) (*model.Lesson, error)
	LockByID(ctx context.Context, q base.Querier, id int64) (*model.Lesson, error)
	GetByQuoteID(ctx context.Context, q base.Querier, quoteID int64) (*model.Lesson, error)
}

// Ledger is one entity kind's append-only status log.
type Ledger interface {
	Append(ctx context.Context, q base.Querier, entityID int64, status string, kv map[string]string) (*model.StatusRecord, error)
	Current(ctx context.Context, q base.Querier, entityID int64) (*model.StatusRecord, error)
	History(ctx context.Context, entityID int64) ([]*model.StatusRecord, error)
}

type UserStore interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// Directory resolves which teachers may quote a lesson type.
type Directory interface {
	FindEligibleTeachers(ctx context.Context, lessonType string, limit int) ([]*model.User, error)
	ActiveRate(ctx context.Context, teacherID int64, lessonType string) (*model.TeacherRate, error)
}

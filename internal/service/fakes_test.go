package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tutorlane/marketplace/internal/apperr"
	"github.com/tutorlane/marketplace/internal/model"
	"github.com/tutorlane/marketplace/internal/repository/base"
)

// memStore is an in-memory stand-in for the pgx repositories. Its tx
// runner serializes transactions with a mutex, the way row locks
// serialize them in postgres, and its lesson store enforces the unique
// quote_id index. Services validate before writing, so a failed
// "transaction" leaves no partial state behind.
type memStore struct {
	mu sync.Mutex

	nextID   int64
	requests map[int64]*model.LessonRequest
	quotes   map[int64]*model.LessonQuote
	lessons  map[int64]*model.Lesson
	users    map[int64]*model.User
	rates    map[int64]map[string]*model.TeacherRate

	quoteRecords  map[int64][]*model.StatusRecord
	lessonRecords map[int64][]*model.StatusRecord
}

func newMemStore() *memStore {
	return &memStore{
		requests:      map[int64]*model.LessonRequest{},
		quotes:        map[int64]*model.LessonQuote{},
		lessons:       map[int64]*model.Lesson{},
		users:         map[int64]*model.User{},
		rates:         map[int64]map[string]*model.TeacherRate{},
		quoteRecords:  map[int64][]*model.StatusRecord{},
		lessonRecords: map[int64][]*model.StatusRecord{},
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

// --- seeding helpers ---

func (s *memStore) addStudent() int64 {
	id := s.id()
	s.users[id] = &model.User{ID: id, CreatedAt: time.Now()}
	return id
}

func (s *memStore) addTeacher(lessonType string, hourlyRate int) int64 {
	id := s.id()
	s.users[id] = &model.User{ID: id, IsTeacher: true, CreatedAt: time.Now()}
	if hourlyRate > 0 {
		if s.rates[id] == nil {
			s.rates[id] = map[string]*model.TeacherRate{}
		}
		s.rates[id][lessonType] = &model.TeacherRate{
			ID:         s.id(),
			TeacherID:  id,
			LessonType: lessonType,
			HourlyRate: hourlyRate,
			IsActive:   true,
		}
	}
	return id
}

func (s *memStore) addRequest(studentID int64, lessonType string, startAt time.Time, durationMinutes int) int64 {
	id := s.id()
	s.requests[id] = &model.LessonRequest{
		ID:              id,
		StudentID:       studentID,
		LessonType:      lessonType,
		StartAt:         startAt,
		DurationMinutes: durationMinutes,
		CreatedAt:       time.Now(),
	}
	return id
}

// --- TxRunner ---

type memTx struct{ s *memStore }

func (t memTx) InTx(ctx context.Context, fn func(q base.Querier) error) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	return fn(nil)
}

func (t memTx) DB() base.Querier { return nil }

// --- RequestStore ---

type memRequests struct{ s *memStore }

func (r memRequests) Create(ctx context.Context, req *model.LessonRequest) error {
	req.ID = r.s.id()
	req.CreatedAt = time.Now()
	stored := *req
	r.s.requests[req.ID] = &stored
	return nil
}

func (r memRequests) GetByID(ctx context.Context, id int64) (*model.LessonRequest, error) {
	req, ok := r.s.requests[id]
	if !ok {
		return nil, nil
	}
	copied := *req
	return &copied, nil
}

// --- QuoteStore ---

type memQuotes struct{ s *memStore }

func (r memQuotes) Create(ctx context.Context, q base.Querier, quote *model.LessonQuote) error {
	quote.ID = r.s.id()
	quote.CreatedAt = time.Now()
	quote.UpdatedAt = quote.CreatedAt
	stored := *quote
	r.s.quotes[quote.ID] = &stored
	return nil
}

func (r memQuotes) GetByID(ctx context.Context, id int64) (*model.LessonQuote, error) {
	quote, ok := r.s.quotes[id]
	if !ok {
		return nil, nil
	}
	copied := *quote
	return &copied, nil
}

func (r memQuotes) LockByID(ctx context.Context, q base.Querier, id int64) (*model.LessonQuote, error) {
	return r.GetByID(ctx, id)
}

func (r memQuotes) LockByRequestID(ctx context.Context, q base.Querier, requestID int64) ([]*model.LessonQuote, error) {
	var quotes []*model.LessonQuote
	for _, quote := range r.s.quotes {
		if quote.RequestID == requestID {
			copied := *quote
			quotes = append(quotes, &copied)
		}
	}
	return quotes, nil
}

func (r memQuotes) FindStaleCreated(ctx context.Context, cutoff time.Time) ([]*model.LessonQuote, error) {
	var quotes []*model.LessonQuote
	for _, quote := range r.s.quotes {
		if quote.Status != model.QuoteCreated {
			continue
		}
		req, ok := r.s.requests[quote.RequestID]
		if !ok || !req.StartAt.Before(cutoff) {
			continue
		}
		copied := *quote
		quotes = append(quotes, &copied)
	}
	return quotes, nil
}

// --- LessonStore ---

type memLessons struct{ s *memStore }

func (r memLessons) Create(ctx context.Context, q base.Querier, lesson *model.Lesson) error {
	for _, existing := range r.s.lessons {
		if existing.QuoteID == lesson.QuoteID {
			// The unique index on lessons.quote_id, as translated by the
			// tx runner.
			return apperr.Newf(apperr.KindConflict, "uniqueness violation on quote %d", lesson.QuoteID)
		}
	}
	lesson.ID = r.s.id()
	lesson.CreatedAt = time.Now()
	lesson.UpdatedAt = lesson.CreatedAt
	stored := *lesson
	stored.Quote = nil
	r.s.lessons[lesson.ID] = &stored
	return nil
}

func (r memLessons) GetByID(ctx context.Context, id int64) (*model.Lesson, error) {
	lesson, ok := r.s.lessons[id]
	if !ok {
		return nil, nil
	}
	copied := *lesson
	return &copied, nil
}

func (r memLessons) LockByID(ctx context.Context, q base.Querier, id int64) (*model.Lesson, error) {
	return r.GetByID(ctx, id)
}

func (r memLessons) GetByQuoteID(ctx context.Context, q base.Querier, quoteID int64) (*model.Lesson, error) {
	for _, lesson := range r.s.lessons {
		if lesson.QuoteID == quoteID {
			copied := *lesson
			return &copied, nil
		}
	}
	return nil, nil
}

// --- UserStore ---

type memUsers struct{ s *memStore }

func (r memUsers) GetByID(ctx context.Context, id int64) (*model.User, error) {
	user, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

// --- Directory ---

type memDirectory struct{ s *memStore }

func (r memDirectory) FindEligibleTeachers(ctx context.Context, lessonType string, limit int) ([]*model.User, error) {
	var teachers []*model.User
	for id := int64(1); id <= r.s.nextID && len(teachers) < limit; id++ {
		user, ok := r.s.users[id]
		if !ok || !user.IsTeacher {
			continue
		}
		if rate, ok := r.s.rates[id][lessonType]; ok && rate.IsActive {
			copied := *user
			teachers = append(teachers, &copied)
		}
	}
	return teachers, nil
}

func (r memDirectory) ActiveRate(ctx context.Context, teacherID int64, lessonType string) (*model.TeacherRate, error) {
	rate, ok := r.s.rates[teacherID][lessonType]
	if !ok || !rate.IsActive {
		return nil, nil
	}
	copied := *rate
	return &copied, nil
}

// --- Ledger ---

type memLedger struct {
	s    *memStore
	kind model.EntityKind
}

func (l memLedger) records() map[int64][]*model.StatusRecord {
	if l.kind == model.EntityLesson {
		return l.s.lessonRecords
	}
	return l.s.quoteRecords
}

func (l memLedger) repoint(entityID, recordID int64, status string) error {
	if l.kind == model.EntityLesson {
		lesson, ok := l.s.lessons[entityID]
		if !ok {
			return apperr.Newf(apperr.KindNotFound, "lesson %d not found", entityID)
		}
		lesson.CurrentStatusID = &recordID
		lesson.Status = model.LessonState(status)
		return nil
	}
	quote, ok := l.s.quotes[entityID]
	if !ok {
		return apperr.Newf(apperr.KindNotFound, "quote %d not found", entityID)
	}
	quote.CurrentStatusID = &recordID
	quote.Status = model.QuoteState(status)
	return nil
}

func (l memLedger) Append(ctx context.Context, q base.Querier, entityID int64, status string, kv map[string]string) (*model.StatusRecord, error) {
	if kv == nil {
		kv = map[string]string{}
	}
	rec := &model.StatusRecord{
		ID:        l.s.id(),
		EntityID:  entityID,
		Status:    status,
		Context:   kv,
		CreatedAt: time.Now(),
	}
	if err := l.repoint(entityID, rec.ID, status); err != nil {
		return nil, err
	}
	l.records()[entityID] = append(l.records()[entityID], rec)
	return rec, nil
}

func (l memLedger) Current(ctx context.Context, q base.Querier, entityID int64) (*model.StatusRecord, error) {
	var pointer *int64
	if l.kind == model.EntityLesson {
		lesson, ok := l.s.lessons[entityID]
		if !ok {
			return nil, apperr.Newf(apperr.KindNotFound, "entity %d not found", entityID)
		}
		pointer = lesson.CurrentStatusID
	} else {
		quote, ok := l.s.quotes[entityID]
		if !ok {
			return nil, apperr.Newf(apperr.KindNotFound, "entity %d not found", entityID)
		}
		pointer = quote.CurrentStatusID
	}
	if pointer == nil {
		return nil, apperr.Newf(apperr.KindInconsistentState, "entity %d has no current status", entityID)
	}
	for _, rec := range l.records()[entityID] {
		if rec.ID == *pointer {
			copied := *rec
			return &copied, nil
		}
	}
	return nil, apperr.Newf(apperr.KindInconsistentState, "entity %d points at missing status record %d", entityID, *pointer)
}

func (l memLedger) History(ctx context.Context, entityID int64) ([]*model.StatusRecord, error) {
	records := l.records()[entityID]
	out := make([]*model.StatusRecord, 0, len(records))
	for _, rec := range records {
		copied := *rec
		out = append(out, &copied)
	}
	return out, nil
}

// --- service constructors over the fake store ---

func newTestQuoteService(s *memStore) *QuoteService {
	return NewQuoteService(
		memTx{s},
		memRequests{s},
		memQuotes{s},
		memLessons{s},
		memUsers{s},
		memDirectory{s},
		memLedger{s, model.EntityQuote},
		memLedger{s, model.EntityLesson},
		DefaultTeacherLimit,
		zap.NewNop(),
	)
}

func newTestLessonService(s *memStore) *LessonService {
	return NewLessonService(
		memTx{s},
		memQuotes{s},
		memLessons{s},
		memUsers{s},
		memLedger{s, model.EntityQuote},
		memLedger{s, model.EntityLesson},
		zap.NewNop(),
	)
}

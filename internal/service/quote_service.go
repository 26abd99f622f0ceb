package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tutorlane/marketplace/internal/apperr"
	"github.com/tutorlane/marketplace/internal/lifecycle"
	"github.com/tutorlane/marketplace/internal/model"
	"github.com/tutorlane/marketplace/internal/repository/base"
)

// DefaultTeacherLimit bounds the candidate set quoted per request.
const DefaultTeacherLimit = 5

type QuoteService struct {
	tx           TxRunner
	requests     RequestStore
	quotes       QuoteStore
	lessons      LessonStore
	users        UserStore
	directory    Directory
	quoteLedger  Ledger
	lessonLedger Ledger
	teacherLimit int
	logger       *zap.Logger
}

func NewQuoteService(
	tx TxRunner,
	requests RequestStore,
	quotes QuoteStore,
	lessons LessonStore,
	users UserStore,
	directory Directory,
	quoteLedger Ledger,
	lessonLedger Ledger,
	teacherLimit int,
	logger *zap.Logger,
) *QuoteService {
	if teacherLimit <= 0 {
		teacherLimit = DefaultTeacherLimit
	}
	return &QuoteService{
		tx:           tx,
		requests:     requests,
		quotes:       quotes,
		lessons:      lessons,
		users:        users,
		directory:    directory,
		quoteLedger:  quoteLedger,
		lessonLedger: lessonLedger,
		teacherLimit: teacherLimit,
		logger:       logger,
	}
}

// LessonCost computes a quote price in minor currency units from an
// hourly rate, rounded half-up to the nearest unit.
func LessonCost(hourlyRate, durationMinutes int) int {
	return (hourlyRate*durationMinutes + 30) / 60
}

// SubmitRequest persists a student's lesson request and immediately
// quotes it against every eligible teacher.
func (s *QuoteService) SubmitRequest(ctx context.Context, req *model.LessonRequest) ([]*model.LessonQuote, error) {
	if req == nil || req.StudentID == 0 || req.LessonType == "" || req.DurationMinutes <= 0 {
		return nil, apperr.New(apperr.KindBadRequest, "lesson request is missing required fields")
	}

	if err := s.requests.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("create lesson request: %w", err)
	}

	s.logger.Info("Lesson request submitted",
		zap.Int64("request_id", req.ID),
		zap.Int64("student_id", req.StudentID),
		zap.String("lesson_type", req.LessonType),
	)

	return s.CreateQuotesForRequest(ctx, req.ID)
}

// CreateQuotesForRequest creates one quote per eligible teacher. A
// teacher failing mid-batch (their rate vanished since the eligibility
// read) is skipped, not fatal: the batch reports whatever it managed to
// quote. Zero eligible teachers is an empty result, not an error.
func (s *QuoteService) CreateQuotesForRequest(ctx context.Context, requestID int64) ([]*model.LessonQuote, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get lesson request: %w", err)
	}
	if req == nil {
		return nil, apperr.Newf(apperr.KindNotFound, "lesson request %d not found", requestID)
	}

	teachers, err := s.directory.FindEligibleTeachers(ctx, req.LessonType, s.teacherLimit)
	if err != nil {
		return nil, fmt.Errorf("find eligible teachers: %w", err)
	}

	batchID := uuid.New()
	quotes := make([]*model.LessonQuote, 0, len(teachers))
	for _, teacher := range teachers {
		quote, err := s.quoteTeacher(ctx, req, teacher, batchID)
		if err != nil {
			s.logger.Warn("Skipping teacher in quote batch",
				zap.Int64("request_id", req.ID),
				zap.Int64("teacher_id", teacher.ID),
				zap.Error(err),
			)
			continue
		}
		quotes = append(quotes, quote)
	}

	s.logger.Info("Quotes created for request",
		zap.Int64("request_id", req.ID),
		zap.String("batch_id", batchID.String()),
		zap.Int("eligible", len(teachers)),
		zap.Int("quoted", len(quotes)),
	)

	return quotes, nil
}

// quoteTeacher creates one quote and its initial created status in one
// transaction, so no quote is ever visible without a current status.
func (s *QuoteService) quoteTeacher(ctx context.Context, req *model.LessonRequest, teacher *model.User, batchID uuid.UUID) (*model.LessonQuote, error) {
	rate, err := s.directory.ActiveRate(ctx, teacher.ID, req.LessonType)
	if err != nil {
		return nil, fmt.Errorf("get active rate: %w", err)
	}
	if rate == nil {
		return nil, fmt.Errorf("teacher %d has no active rate for %q", teacher.ID, req.LessonType)
	}

	quote := &model.LessonQuote{
		RequestID:  req.ID,
		TeacherID:  teacher.ID,
		BatchID:    batchID,
		HourlyRate: rate.HourlyRate,
		Cost:       LessonCost(rate.HourlyRate, req.DurationMinutes),
	}

	err = s.tx.InTx(ctx, func(q base.Querier) error {
		if err := s.quotes.Create(ctx, q, quote); err != nil {
			return err
		}
		rec, err := s.quoteLedger.Append(ctx, q, quote.ID, string(model.QuoteCreated), nil)
		if err != nil {
			return fmt.Errorf("append initial quote status: %w", err)
		}
		quote.CurrentStatusID = &rec.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	quote.Status = model.QuoteCreated
	quote.Teacher = teacher
	return quote, nil
}

// AcceptQuote turns the quote into a lesson. In one transaction it locks
// the whole sibling set, re-checks the quote's freshly read status,
// creates the lesson with its initial requested status, marks the quote
// accepted and force-expires every non-terminal sibling. Competing
// accepts serialize on the sibling row locks; the unique index on
// lessons.quote_id backstops whatever slips through.
func (s *QuoteService) AcceptQuote(ctx context.Context, quoteID, studentID int64) (*model.Lesson, error) {
	var lesson *model.Lesson

	err := s.tx.InTx(ctx, func(q base.Querier) error {
		quote, err := s.quotes.LockByID(ctx, q, quoteID)
		if err != nil {
			return fmt.Errorf("lock quote: %w", err)
		}
		if quote == nil {
			return apperr.Newf(apperr.KindNotFound, "quote %d not found", quoteID)
		}

		req, err := s.requests.GetByID(ctx, quote.RequestID)
		if err != nil {
			return fmt.Errorf("get lesson request: %w", err)
		}
		if req == nil {
			return apperr.Newf(apperr.KindInconsistentState, "quote %d references missing request %d", quote.ID, quote.RequestID)
		}
		quote.Request = req

		if !lifecycle.CanActOnQuote(studentID, quote) {
			return apperr.Newf(apperr.KindForbidden, "student %d does not own the lesson request behind quote %d", studentID, quote.ID)
		}

		existing, err := s.lessons.GetByQuoteID(ctx, q, quote.ID)
		if err != nil {
			return fmt.Errorf("get lesson by quote: %w", err)
		}
		if existing != nil {
			return apperr.Newf(apperr.KindConflict, "lesson %d already references quote %d", existing.ID, quote.ID)
		}

		if quote.Status == "" {
			return apperr.Newf(apperr.KindInconsistentState, "quote %d has no current status", quote.ID)
		}
		next, ok := lifecycle.NextQuoteState(quote.Status, model.QuoteTransitionAccept)
		if !ok {
			if quote.Status == model.QuoteAccepted {
				return apperr.Newf(apperr.KindConflict, "quote %d is already accepted", quote.ID)
			}
			return apperr.Newf(apperr.KindInvalidTransition, "quote %d cannot be accepted from status %q", quote.ID, quote.Status)
		}

		// Serialize competing accepts across the whole batch.
		siblings, err := s.quotes.LockByRequestID(ctx, q, quote.RequestID)
		if err != nil {
			return fmt.Errorf("lock sibling quotes: %w", err)
		}

		lesson = &model.Lesson{QuoteID: quote.ID}
		if err := s.lessons.Create(ctx, q, lesson); err != nil {
			return err
		}
		rec, err := s.lessonLedger.Append(ctx, q, lesson.ID, string(model.LessonRequested), nil)
		if err != nil {
			return fmt.Errorf("append initial lesson status: %w", err)
		}
		lesson.CurrentStatusID = &rec.ID
		lesson.Status = model.LessonRequested

		if _, err := s.quoteLedger.Append(ctx, q, quote.ID, string(next), map[string]string{"lesson_id": fmt.Sprint(lesson.ID)}); err != nil {
			return fmt.Errorf("append accepted quote status: %w", err)
		}
		quote.Status = next

		for _, sibling := range siblings {
			if sibling.ID == quote.ID {
				continue
			}
			if lifecycle.IsTerminalQuoteState(sibling.Status) {
				continue
			}
			kv := map[string]string{"reason": "sibling quote accepted", "accepted_quote_id": fmt.Sprint(quote.ID)}
			if _, err := s.quoteLedger.Append(ctx, q, sibling.ID, string(model.QuoteExpired), kv); err != nil {
				return fmt.Errorf("expire sibling quote %d: %w", sibling.ID, err)
			}
		}

		teacher, err := s.users.GetByID(ctx, quote.TeacherID)
		if err != nil {
			return fmt.Errorf("get teacher: %w", err)
		}
		quote.Teacher = teacher

		lesson.Quote = quote
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Quote accepted",
		zap.Int64("quote_id", quoteID),
		zap.Int64("student_id", studentID),
		zap.Int64("lesson_id", lesson.ID),
	)

	return lesson, nil
}

// RejectQuote applies the rejected transition on behalf of the owning
// student. No side effects on siblings.
func (s *QuoteService) RejectQuote(ctx context.Context, quoteID, studentID int64) (*model.LessonQuote, error) {
	var quote *model.LessonQuote

	err := s.tx.InTx(ctx, func(q base.Querier) error {
		var err error
		quote, err = s.quotes.LockByID(ctx, q, quoteID)
		if err != nil {
			return fmt.Errorf("lock quote: %w", err)
		}
		if quote == nil {
			return apperr.Newf(apperr.KindNotFound, "quote %d not found", quoteID)
		}

		req, err := s.requests.GetByID(ctx, quote.RequestID)
		if err != nil {
			return fmt.Errorf("get lesson request: %w", err)
		}
		if req == nil {
			return apperr.Newf(apperr.KindInconsistentState, "quote %d references missing request %d", quote.ID, quote.RequestID)
		}
		quote.Request = req

		if !lifecycle.CanActOnQuote(studentID, quote) {
			return apperr.Newf(apperr.KindForbidden, "student %d does not own the lesson request behind quote %d", studentID, quote.ID)
		}

		if quote.Status == "" {
			return apperr.Newf(apperr.KindInconsistentState, "quote %d has no current status", quote.ID)
		}
		next, ok := lifecycle.NextQuoteState(quote.Status, model.QuoteTransitionReject)
		if !ok {
			return apperr.Newf(apperr.KindInvalidTransition, "quote %d cannot be rejected from status %q", quote.ID, quote.Status)
		}

		rec, err := s.quoteLedger.Append(ctx, q, quote.ID, string(next), nil)
		if err != nil {
			return fmt.Errorf("append rejected quote status: %w", err)
		}
		quote.CurrentStatusID = &rec.ID
		quote.Status = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Quote rejected",
		zap.Int64("quote_id", quoteID),
		zap.Int64("student_id", studentID),
	)

	return quote, nil
}

// ExpireStaleQuotes force-expires quotes still in created state whose
// requested start time has passed. Each quote is its own transaction
// with a fresh locked read, so a concurrent accept either wins cleanly
// or sees the expiry.
func (s *QuoteService) ExpireStaleQuotes(ctx context.Context, now time.Time) (int, error) {
	stale, err := s.quotes.FindStaleCreated(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("find stale quotes: %w", err)
	}

	expired := 0
	for _, candidate := range stale {
		applied := false
		err := s.tx.InTx(ctx, func(q base.Querier) error {
			quote, err := s.quotes.LockByID(ctx, q, candidate.ID)
			if err != nil {
				return fmt.Errorf("lock quote: %w", err)
			}
			if quote == nil {
				return nil
			}
			next, ok := lifecycle.NextQuoteState(quote.Status, model.QuoteTransitionExpire)
			if !ok {
				// Someone transitioned it between the sweep read and the lock.
				return nil
			}
			if _, err := s.quoteLedger.Append(ctx, q, quote.ID, string(next), map[string]string{"reason": "request start time passed"}); err != nil {
				return err
			}
			applied = true
			return nil
		})
		if err != nil {
			return expired, err
		}
		if applied {
			expired++
		}
	}

	if expired > 0 {
		s.logger.Info("Stale quotes expired", zap.Int("count", expired))
	}

	return expired, nil
}

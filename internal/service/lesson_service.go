package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tutorlane/marketplace/internal/apperr"
	"github.com/tutorlane/marketplace/internal/lifecycle"
	"github.com/tutorlane/marketplace/internal/model"
	"github.com/tutorlane/marketplace/internal/repository/base"
)

type LessonService struct {
	tx           TxRunner
	quotes       QuoteStore
	lessons      LessonStore
	users        UserStore
	quoteLedger  Ledger
	lessonLedger Ledger
	logger       *zap.Logger
}

func NewLessonService(
	tx TxRunner,
	quotes QuoteStore,
	lessons LessonStore,
	users UserStore,
	quoteLedger Ledger,
	lessonLedger Ledger,
	logger *zap.Logger,
) *LessonService {
	return &LessonService{
		tx:           tx,
		quotes:       quotes,
		lessons:      lessons,
		users:        users,
		quoteLedger:  quoteLedger,
		lessonLedger: lessonLedger,
		logger:       logger,
	}
}

// CreateLesson materializes a lesson from a quote without running the
// full accept flow (administrative path). The unique index on
// lessons.quote_id still closes the check-then-insert window: a
// concurrent duplicate fails its transaction with Conflict.
func (s *LessonService) CreateLesson(ctx context.Context, quoteID int64) (*model.Lesson, error) {
	var lesson *model.Lesson

	err := s.tx.InTx(ctx, func(q base.Querier) error {
		quote, err := s.quotes.LockByID(ctx, q, quoteID)
		if err != nil {
			return fmt.Errorf("lock quote: %w", err)
		}
		if quote == nil {
			return apperr.Newf(apperr.KindNotFound, "quote %d not found", quoteID)
		}

		existing, err := s.lessons.GetByQuoteID(ctx, q, quote.ID)
		if err != nil {
			return fmt.Errorf("get lesson by quote: %w", err)
		}
		if existing != nil {
			return apperr.Newf(apperr.KindConflict, "lesson %d already references quote %d", existing.ID, quote.ID)
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
		lesson.Quote = quote
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Lesson created",
		zap.Int64("lesson_id", lesson.ID),
		zap.Int64("quote_id", quoteID),
	)

	return lesson, nil
}

// UpdateStatus applies a named transition to a lesson. The lesson's
// current status is read under a row lock inside the same transaction
// that writes the new one, so two concurrent updates can never both act
// on the same stale status: the second either waits and re-evaluates or
// fails with a storage conflict.
func (s *LessonService) UpdateStatus(ctx context.Context, lessonID int64, transition model.LessonTransition, kv map[string]string, actingUserID int64) (*model.Lesson, error) {
	if !lifecycle.KnownLessonTransition(transition) {
		return nil, apperr.Newf(apperr.KindBadRequest, "unknown transition %q", transition)
	}

	var lesson *model.Lesson

	err := s.tx.InTx(ctx, func(q base.Querier) error {
		var err error
		lesson, err = s.lessons.LockByID(ctx, q, lessonID)
		if err != nil {
			return fmt.Errorf("lock lesson: %w", err)
		}
		if lesson == nil {
			return apperr.Newf(apperr.KindNotFound, "lesson %d not found", lessonID)
		}
		if lesson.Status == "" {
			return apperr.Newf(apperr.KindInconsistentState, "lesson %d has no current status", lesson.ID)
		}

		quote, err := s.quotes.GetByID(ctx, lesson.QuoteID)
		if err != nil {
			return fmt.Errorf("get quote: %w", err)
		}
		if quote == nil {
			return apperr.Newf(apperr.KindInconsistentState, "lesson %d references missing quote %d", lesson.ID, lesson.QuoteID)
		}
		lesson.Quote = quote

		actor, err := s.users.GetByID(ctx, actingUserID)
		if err != nil {
			return fmt.Errorf("get acting user: %w", err)
		}
		role := model.RoleStudent
		if actor != nil {
			role = actor.Role()
		}

		if !lifecycle.CanTransition(actingUserID, role, lesson, transition) {
			return apperr.Newf(apperr.KindForbidden, "user %d may not apply %q to lesson %d", actingUserID, transition, lesson.ID)
		}

		next, ok := lifecycle.NextLessonState(lesson.Status, transition)
		if !ok {
			return apperr.Newf(apperr.KindInvalidTransition, "transition %q is not allowed from status %q", transition, lesson.Status)
		}

		rec, err := s.lessonLedger.Append(ctx, q, lesson.ID, string(next), kv)
		if err != nil {
			return fmt.Errorf("append lesson status: %w", err)
		}
		lesson.CurrentStatusID = &rec.ID
		lesson.Status = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Lesson status updated",
		zap.Int64("lesson_id", lessonID),
		zap.String("transition", string(transition)),
		zap.String("status", string(lesson.Status)),
		zap.Int64("acting_user_id", actingUserID),
	)

	return lesson, nil
}

// CurrentStatus dereferences an entity's current-status pointer.
func (s *LessonService) CurrentStatus(ctx context.Context, entityID int64, kind model.EntityKind) (*model.StatusRecord, error) {
	switch kind {
	case model.EntityLesson:
		return s.lessonLedger.Current(ctx, s.tx.DB(), entityID)
	case model.EntityQuote:
		return s.quoteLedger.Current(ctx, s.tx.DB(), entityID)
	default:
		return nil, apperr.Newf(apperr.KindBadRequest, "unknown entity kind %q", kind)
	}
}

// StatusHistory returns an entity's full status history in creation
// order.
func (s *LessonService) StatusHistory(ctx context.Context, entityID int64, kind model.EntityKind) ([]*model.StatusRecord, error) {
	switch kind {
	case model.EntityLesson:
		return s.lessonLedger.History(ctx, entityID)
	case model.EntityQuote:
		return s.quoteLedger.History(ctx, entityID)
	default:
		return nil, apperr.Newf(apperr.KindBadRequest, "unknown entity kind %q", kind)
	}
}

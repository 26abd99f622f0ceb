package lifecycle

import "github.com/tutorlane/marketplace/internal/model"

// CanTransition decides whether the acting user may request a lesson
// transition. Every lesson-level transition belongs to the teacher
// assigned through the lesson's quote; students act at the quote level
// only. The lesson must arrive with its quote already loaded.
func CanTransition(userID int64, role model.Role, lesson *model.Lesson, tr model.LessonTransition) bool {
	if lesson == nil || lesson.Quote == nil {
		return false
	}
	if role != model.RoleTeacher {
		return false
	}
	switch tr {
	case model.LessonTransitionAccept,
		model.LessonTransitionDefine,
		model.LessonTransitionComplete,
		model.LessonTransitionReject,
		model.LessonTransitionVoid:
		return lesson.Quote.TeacherID == userID
	}
	return false
}

// CanActOnQuote decides whether the acting user may accept or reject a
// quote: only the student who owns the request behind it. The quote must
// arrive with its request already loaded.
func CanActOnQuote(userID int64, quote *model.LessonQuote) bool {
	return quote != nil && quote.Request != nil && quote.Request.StudentID == userID
}

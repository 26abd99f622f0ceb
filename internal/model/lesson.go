package model

import "time"

type LessonState string

const (
	LessonRequested LessonState = "requested" // Начальное состояние
	LessonAccepted  LessonState = "accepted"  // Учитель принял урок
	LessonDefined   LessonState = "defined"   // Детали урока согласованы
	LessonCompleted LessonState = "completed" // Урок завершён
	LessonRejected  LessonState = "rejected"  // Учитель отклонил урок
	LessonVoided    LessonState = "voided"    // Урок аннулирован
)

// LessonTransition is an operation requested against a lesson's current state.
type LessonTransition string

const (
	LessonTransitionAccept   LessonTransition = "accept"
	LessonTransitionDefine   LessonTransition = "define"
	LessonTransitionComplete LessonTransition = "complete"
	LessonTransitionReject   LessonTransition = "reject"
	LessonTransitionVoid     LessonTransition = "void"
)

// Lesson is the confirmed engagement created from an accepted quote.
// Exactly one lesson may ever reference a given quote; lessons are never
// deleted, only driven to a terminal status.
type Lesson struct {
	ID              int64     `json:"id"`
	QuoteID         int64     `json:"quote_id"`
	CurrentStatusID *int64    `json:"current_status_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// Дополнительные поля для удобства (не из БД)
	Status LessonState  `json:"status,omitempty"`
	Quote  *LessonQuote `json:"quote,omitempty"`
}

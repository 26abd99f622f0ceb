package model

import (
	"time"

	"github.com/google/uuid"
)

type QuoteState string

const (
	QuoteCreated  QuoteState = "created"  // Начальное состояние
	QuoteAccepted QuoteState = "accepted" // Принята студентом
	QuoteRejected QuoteState = "rejected" // Отклонена студентом
	QuoteExpired  QuoteState = "expired"  // Принудительно закрыта системой
)

// QuoteTransition is an operation requested against a quote's current state.
type QuoteTransition string

const (
	QuoteTransitionAccept QuoteTransition = "accept"
	QuoteTransitionReject QuoteTransition = "reject"
	QuoteTransitionExpire QuoteTransition = "expire"
)

type LessonQuote struct {
	ID              int64     `json:"id"`
	RequestID       int64     `json:"request_id"`
	TeacherID       int64     `json:"teacher_id"`
	BatchID         uuid.UUID `json:"batch_id"` // группа котировок, созданных одним запросом
	Cost            int       `json:"cost"`     // в копейках/центах
	HourlyRate      int       `json:"hourly_rate"`
	CurrentStatusID *int64    `json:"current_status_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// Дополнительные поля для удобства (не из БД)
	Status  QuoteState     `json:"status,omitempty"`
	Request *LessonRequest `json:"request,omitempty"`
	Teacher *User          `json:"teacher,omitempty"`
}

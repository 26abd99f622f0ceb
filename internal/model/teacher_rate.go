package model

import "time"

// TeacherRate is a teacher's hourly price for one lesson type.
// At most one rate per (teacher, lesson type) may be active at a time;
// the partial unique index in the schema enforces it.
type TeacherRate struct {
	ID         int64     `json:"id"`
	TeacherID  int64     `json:"teacher_id"`
	LessonType string    `json:"lesson_type"`
	HourlyRate int       `json:"hourly_rate"` // в копейках/центах
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

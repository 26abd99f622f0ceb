package model

import "time"

// LessonRequest is a student's immutable description of the lesson they
// want. It is created once and never mutated; quotes reference it.
type LessonRequest struct {
	ID              int64     `json:"id"`
	StudentID       int64     `json:"student_id"`
	LessonType      string    `json:"lesson_type"`
	StartAt         time.Time `json:"start_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Address         string    `json:"address"`
	CreatedAt       time.Time `json:"created_at"`
}

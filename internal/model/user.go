package model

import "time"

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	IsTeacher bool      `json:"is_teacher"`
	CreatedAt time.Time `json:"created_at"`
}

// Role maps the stored flag onto the role used by authorization checks.
func (u *User) Role() Role {
	if u.IsTeacher {
		return RoleTeacher
	}
	return RoleStudent
}

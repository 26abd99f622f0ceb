package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tutorlane/marketplace/internal/model"
	"github.com/tutorlane/marketplace/internal/repository/base"
)

// RateRepository is the teacher directory: which teachers can quote a
// lesson type and at what active hourly rate.
type RateRepository struct {
	pool *pgxpool.Pool
}

func NewRateRepository(pool *pgxpool.Pool) *RateRepository {
	return &RateRepository{pool: pool}
}

// FindEligibleTeachers returns up to limit teachers holding an active
// rate for the lesson type, cheapest first.
func (r *RateRepository) FindEligibleTeachers(ctx context.Context, lessonType string, limit int) ([]*model.User, error) {
	query := `
		SELECT u.id, u.email, u.first_name, u.last_name, u.is_teacher, u.created_at
		FROM users u
		JOIN teacher_rates tr ON tr.teacher_id = u.id
		WHERE u.is_teacher
		  AND tr.lesson_type = $1
		  AND tr.is_active
		ORDER BY tr.hourly_rate, u.id
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, lessonType, limit)
	if err != nil {
		return nil, fmt.Errorf("find eligible teachers: %w", err)
	}
	defer rows.Close()

	var teachers []*model.User
	for rows.Next() {
		var user model.User
		err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.FirstName,
			&user.LastName,
			&user.IsTeacher,
			&user.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan teacher: %w", err)
		}
		teachers = append(teachers, &user)
	}

	return teachers, rows.Err()
}

// ActiveRate returns the teacher's active rate for the lesson type, or
// nil when none exists. The schema allows at most one.
func (r *RateRepository) ActiveRate(ctx context.Context, teacherID int64, lessonType string) (*model.TeacherRate, error) {
	query := `
		SELECT id, teacher_id, lesson_type, hourly_rate, is_active, created_at
		FROM teacher_rates
		WHERE teacher_id = $1
		  AND lesson_type = $2
		  AND is_active
	`

	var rate model.TeacherRate
	err := r.pool.QueryRow(ctx, query, teacherID, lessonType).Scan(
		&rate.ID,
		&rate.TeacherID,
		&rate.LessonType,
		&rate.HourlyRate,
		&rate.IsActive,
		&rate.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active rate: %w", err)
	}

	return &rate, nil
}

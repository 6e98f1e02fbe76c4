package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/csl-management-api/internal/models"
	"github.com/noah-isme/csl-management-api/pkg/database"
)

// CourseRepository reads courses owned by the admin CRUD module.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// FindByID fetches a course that has not been soft-deleted.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, course_code, course_name, is_active, created_at, deleted_at
	FROM courses WHERE id = $1 AND deleted_at IS NULL`
	var course models.Course
	if err := database.Conn(ctx, r.db).GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/csl-management-api/internal/models"
	"github.com/noah-isme/csl-management-api/pkg/database"
)

// StudentRepository reads students owned by the admin CRUD module.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID fetches a student that has not been soft-deleted.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, full_name, email, status, created_at, deleted_at
	FROM students WHERE id = $1 AND deleted_at IS NULL`
	var student models.Student
	if err := database.Conn(ctx, r.db).GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

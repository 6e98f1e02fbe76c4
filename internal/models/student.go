package models

import "time"

// Student is the read-only projection of a learner managed by the admin CRUD module.
type Student struct {
	ID        string     `db:"id" json:"id"`
	FullName  string     `db:"full_name" json:"fullName"`
	Email     *string    `db:"email" json:"email,omitempty"`
	Status    string     `db:"status" json:"status"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	DeletedAt *time.Time `db:"deleted_at" json:"deletedAt,omitempty"`
}

// Course is the read-only projection of a course offered by the institute.
type Course struct {
	ID         string     `db:"id" json:"id"`
	CourseCode string     `db:"course_code" json:"courseCode"`
	CourseName string     `db:"course_name" json:"courseName"`
	IsActive   bool       `db:"is_active" json:"isActive"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
	DeletedAt  *time.Time `db:"deleted_at" json:"deletedAt,omitempty"`
}

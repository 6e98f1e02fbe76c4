package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/csl-management-api/internal/models"
	"github.com/noah-isme/csl-management-api/pkg/database"
)

const certificateColumns = `id, csl_number, student_id, course_id, issue_year, sequence, issue_date, completion_date,
       status, revoked_at, revoked_by, revocation_reason, verification_hash, pdf_artifact_ref,
       document_status, document_error, issued_by, notes, created_at`

const certificateDetailSelect = `SELECT c.id, c.csl_number, c.student_id, c.course_id, c.issue_year, c.sequence, c.issue_date,
       c.completion_date, c.status, c.revoked_at, c.revoked_by, c.revocation_reason, c.verification_hash,
       c.pdf_artifact_ref, c.document_status, c.document_error, c.issued_by, c.notes, c.created_at,
       s.full_name AS student_name, co.course_code, co.course_name AS course_title
FROM certificates c
JOIN students s ON s.id = c.student_id
JOIN courses co ON co.id = c.course_id`

// CertificateRepository persists certificate rows. Every method joins the transaction
// carried by ctx when present.
type CertificateRepository struct {
	db *sqlx.DB
}

// NewCertificateRepository constructs the repository.
func NewCertificateRepository(db *sqlx.DB) *CertificateRepository {
	return &CertificateRepository{db: db}
}

// Insert stores a freshly issued certificate. Unique violations are returned wrapped so
// callers can inspect the constraint.
func (r *CertificateRepository) Insert(ctx context.Context, cert *models.Certificate) error {
	if cert.ID == "" {
		cert.ID = uuid.NewString()
	}
	if cert.CreatedAt.IsZero() {
		cert.CreatedAt = time.Now().UTC()
	}
	if cert.Status == "" {
		cert.Status = models.CertificateStatusActive
	}
	if cert.DocumentStatus == "" {
		cert.DocumentStatus = models.DocumentStatusPending
	}
	const query = `INSERT INTO certificates
	(id, csl_number, student_id, course_id, issue_year, sequence, issue_date, completion_date, status,
	 verification_hash, pdf_artifact_ref, document_status, document_error, issued_by, notes, created_at)
	VALUES (:id, :csl_number, :student_id, :course_id, :issue_year, :sequence, :issue_date, :completion_date, :status,
	 :verification_hash, :pdf_artifact_ref, :document_status, :document_error, :issued_by, :notes, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, database.Conn(ctx, r.db), query, cert); err != nil {
		return fmt.Errorf("insert certificate: %w", err)
	}
	return nil
}

// FindActiveByPair returns the active certificate for a student and course.
func (r *CertificateRepository) FindActiveByPair(ctx context.Context, studentID, courseID string) (*models.Certificate, error) {
	query := fmt.Sprintf(`SELECT %s FROM certificates WHERE student_id = $1 AND course_id = $2 AND status = $3`, certificateColumns)
	var cert models.Certificate
	if err := database.Conn(ctx, r.db).GetContext(ctx, &cert, query, studentID, courseID, models.CertificateStatusActive); err != nil {
		return nil, err
	}
	return &cert, nil
}

// FindByCslNumber fetches a certificate by its public number.
func (r *CertificateRepository) FindByCslNumber(ctx context.Context, cslNumber string) (*models.Certificate, error) {
	query := fmt.Sprintf(`SELECT %s FROM certificates WHERE csl_number = $1`, certificateColumns)
	var cert models.Certificate
	if err := database.Conn(ctx, r.db).GetContext(ctx, &cert, query, cslNumber); err != nil {
		return nil, err
	}
	return &cert, nil
}

// FindDetail fetches a certificate with the student's name and the course title.
func (r *CertificateRepository) FindDetail(ctx context.Context, cslNumber string) (*models.CertificateDetail, error) {
	query := certificateDetailSelect + ` WHERE c.csl_number = $1`
	var detail models.CertificateDetail
	if err := database.Conn(ctx, r.db).GetContext(ctx, &detail, query, cslNumber); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Revoke flips an active certificate to revoked in one statement. sql.ErrNoRows is
// returned when the number is unknown or already revoked.
func (r *CertificateRepository) Revoke(ctx context.Context, params models.RevokeCertificateParams) (*models.Certificate, error) {
	query := fmt.Sprintf(`UPDATE certificates
	SET status = $2, revoked_at = $3, revoked_by = $4, revocation_reason = $5
	WHERE csl_number = $1 AND status = $6
	RETURNING %s`, certificateColumns)
	var cert models.Certificate
	err := database.Conn(ctx, r.db).GetContext(ctx, &cert, query,
		params.CslNumber, models.CertificateStatusRevoked, params.RevokedAt, params.RevokedBy, params.Reason,
		models.CertificateStatusActive)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("revoke certificate: %w", err)
	}
	return &cert, nil
}

// UpdateDocument records the outcome of a render. Only document bookkeeping columns change.
func (r *CertificateRepository) UpdateDocument(ctx context.Context, params models.UpdateDocumentParams) (*models.Certificate, error) {
	query := fmt.Sprintf(`UPDATE certificates
	SET document_status = $2, pdf_artifact_ref = COALESCE($3, pdf_artifact_ref), document_error = $4
	WHERE csl_number = $1
	RETURNING %s`, certificateColumns)
	var cert models.Certificate
	err := database.Conn(ctx, r.db).GetContext(ctx, &cert, query, params.CslNumber, params.Status, params.PDFArtifactRef, params.Error)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("update certificate document: %w", err)
	}
	return &cert, nil
}

// List returns certificate details matching filter together with the total count.
func (r *CertificateRepository) List(ctx context.Context, filter models.CertificateFilter) ([]models.CertificateDetail, int, error) {
	args := make([]interface{}, 0, 5)
	conditions := []string{"1=1"}

	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("c.status = $%d", len(args)))
	}
	if filter.Year > 0 {
		args = append(args, filter.Year)
		conditions = append(conditions, fmt.Sprintf("c.issue_year = $%d", len(args)))
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("c.student_id = $%d", len(args)))
	}
	if filter.CourseID != "" {
		args = append(args, filter.CourseID)
		conditions = append(conditions, fmt.Sprintf("c.course_id = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("(LOWER(c.csl_number) LIKE $%d OR LOWER(s.full_name) LIKE $%d)", len(args), len(args)))
	}
	where := " WHERE " + strings.Join(conditions, " AND ")

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("%s%s ORDER BY c.issue_year %s, c.sequence %s LIMIT %d OFFSET %d", certificateDetailSelect, where, order, order, size, offset)
	conn := database.Conn(ctx, r.db)
	var items []models.CertificateDetail
	if err := conn.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list certificates: %w", err)
	}

	countQuery := `SELECT COUNT(*) FROM certificates c JOIN students s ON s.id = c.student_id` + where
	var total int
	if err := conn.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count certificates: %w", err)
	}
	return items, total, nil
}

// ListPendingDocuments returns numbers of active certificates whose document has not been
// generated and that were created before the cutoff.
func (r *CertificateRepository) ListPendingDocuments(ctx context.Context, createdBefore time.Time, limit int) ([]string, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	const query = `SELECT csl_number FROM certificates
	WHERE document_status <> $1 AND status = $2 AND created_at < $3
	ORDER BY created_at ASC LIMIT $4`
	var numbers []string
	if err := database.Conn(ctx, r.db).SelectContext(ctx, &numbers, query,
		models.DocumentStatusGenerated, models.CertificateStatusActive, createdBefore, limit); err != nil {
		return nil, fmt.Errorf("list pending documents: %w", err)
	}
	return numbers, nil
}

// YearStats aggregates issuance counts for a year.
func (r *CertificateRepository) YearStats(ctx context.Context, year int) (*models.CertificateStats, error) {
	conn := database.Conn(ctx, r.db)
	stats := &models.CertificateStats{
		Year:     year,
		ByCourse: []models.CertificateCourseStat{},
		ByStatus: []models.CertificateStatusStat{},
	}
	if err := conn.GetContext(ctx, &stats.Total, `SELECT COUNT(*) FROM certificates WHERE issue_year = $1`, year); err != nil {
		return nil, fmt.Errorf("count certificates for %d: %w", year, err)
	}
	const byCourse = `SELECT co.course_code, co.course_name, COUNT(*) AS count
	FROM certificates c JOIN courses co ON co.id = c.course_id
	WHERE c.issue_year = $1
	GROUP BY co.course_code, co.course_name
	ORDER BY count DESC, co.course_code ASC`
	if err := conn.SelectContext(ctx, &stats.ByCourse, byCourse, year); err != nil {
		return nil, fmt.Errorf("certificate stats by course: %w", err)
	}
	const byStatus = `SELECT status, COUNT(*) AS count FROM certificates WHERE issue_year = $1 GROUP BY status ORDER BY status`
	if err := conn.SelectContext(ctx, &stats.ByStatus, byStatus, year); err != nil {
		return nil, fmt.Errorf("certificate stats by status: %w", err)
	}
	return stats, nil
}

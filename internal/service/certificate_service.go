package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/csl-management-api/internal/dto"
	"github.com/noah-isme/csl-management-api/internal/models"
	"github.com/noah-isme/csl-management-api/pkg/database"
	appErrors "github.com/noah-isme/csl-management-api/pkg/errors"
	"github.com/noah-isme/csl-management-api/pkg/jobs"
	"github.com/noah-isme/csl-management-api/pkg/storage"
)

// JobTypeRenderDocument identifies queued document renders.
const JobTypeRenderDocument = "certificate.render_document"

const activePairConstraint = "certificates_active_pair_key"

type txRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type certificateRepository interface {
	Insert(ctx context.Context, cert *models.Certificate) error
	FindActiveByPair(ctx context.Context, studentID, courseID string) (*models.Certificate, error)
	FindByCslNumber(ctx context.Context, cslNumber string) (*models.Certificate, error)
	FindDetail(ctx context.Context, cslNumber string) (*models.CertificateDetail, error)
	Revoke(ctx context.Context, params models.RevokeCertificateParams) (*models.Certificate, error)
	UpdateDocument(ctx context.Context, params models.UpdateDocumentParams) (*models.Certificate, error)
	List(ctx context.Context, filter models.CertificateFilter) ([]models.CertificateDetail, int, error)
	ListPendingDocuments(ctx context.Context, createdBefore time.Time, limit int) ([]string, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type auditWriter interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

type numberAllocator interface {
	Allocate(ctx context.Context, year int) (models.CslNumber, error)
}

type documentGenerator interface {
	Render(detail *models.CertificateDetail) (string, error)
	Open(ref string) (io.ReadCloser, int64, error)
	SignedURL(cslNumber, ref string) (string, time.Time, error)
	ParseToken(token string) (string, string, error)
}

type documentQueue interface {
	Enqueue(job jobs.Job) error
}

type statsInvalidator interface {
	Invalidate(ctx context.Context)
}

// CertificateServiceDeps groups the collaborators of CertificateService.
type CertificateServiceDeps struct {
	Tx           txRunner
	Certificates certificateRepository
	Students     studentReader
	Courses      courseReader
	Audit        auditWriter
	Allocator    numberAllocator
	Hasher       *VerificationHasher
	Documents    documentGenerator
	Stats        statsInvalidator
	Metrics      *MetricsService
	Validator    *validator.Validate
	Logger       *zap.Logger
}

// DocumentFile is an opened certificate PDF ready to stream.
type DocumentFile struct {
	Filename string
	Size     int64
	Content  io.ReadCloser
}

// CertificateService issues, revokes and serves certificates.
type CertificateService struct {
	tx           txRunner
	certificates certificateRepository
	students     studentReader
	courses      courseReader
	audit        auditWriter
	allocator    numberAllocator
	hasher       *VerificationHasher
	documents    documentGenerator
	queue        documentQueue
	stats        statsInvalidator
	metrics      *MetricsService
	validator    *validator.Validate
	logger       *zap.Logger
	now          func() time.Time
}

// NewCertificateService constructs a CertificateService.
func NewCertificateService(deps CertificateServiceDeps) *CertificateService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Validator == nil {
		deps.Validator = NewValidator()
	}
	return &CertificateService{
		tx:           deps.Tx,
		certificates: deps.Certificates,
		students:     deps.Students,
		courses:      deps.Courses,
		audit:        deps.Audit,
		allocator:    deps.Allocator,
		hasher:       deps.Hasher,
		documents:    deps.Documents,
		stats:        deps.Stats,
		metrics:      deps.Metrics,
		validator:    deps.Validator,
		logger:       deps.Logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// SetDocumentQueue attaches the queue used for asynchronous document retries.
func (s *CertificateService) SetDocumentQueue(queue documentQueue) {
	s.queue = queue
}

// Issue creates a certificate for a student and course. The certificate, its number and
// its audit entry commit together; the document is rendered afterwards and a render
// failure is reported as a warning rather than an error.
func (s *CertificateService) Issue(ctx context.Context, req dto.IssueCertificateRequest, actorID string, meta models.RequestMeta) (*dto.IssueCertificateResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid certificate payload")
	}
	now := s.now()
	completion, err := time.Parse("2006-01-02", req.CompletionDate)
	if err != nil {
		return nil, validationError(err, "completionDate must be YYYY-MM-DD")
	}
	// Dates are calendar days in UTC. One day of slack admits the local "today" of admins
	// ahead of UTC (up to UTC+14).
	if completion.After(truncateDay(now).AddDate(0, 0, 1)) {
		return nil, appErrors.WithDetail(appErrors.Clone(appErrors.ErrValidation, "completionDate cannot be in the future"), "completionDate", "future")
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.WithDetail(appErrors.Clone(appErrors.ErrNotFound, "student not found"), "studentId", req.StudentID)
		}
		return nil, appErrors.StorageUnavailable(err, "failed to load student")
	}
	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.WithDetail(appErrors.Clone(appErrors.ErrNotFound, "course not found"), "courseId", req.CourseID)
		}
		return nil, appErrors.StorageUnavailable(err, "failed to load course")
	}
	if !course.IsActive {
		return nil, appErrors.WithDetail(appErrors.Clone(appErrors.ErrValidation, "course is not active"), "courseId", req.CourseID)
	}

	existing, err := s.certificates.FindActiveByPair(ctx, student.ID, course.ID)
	switch {
	case err == nil:
		s.metrics.RecordCertificateEvent("issue", "already_issued")
		return nil, alreadyIssued(existing.CslNumber)
	case !errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.StorageUnavailable(err, "failed to check existing certificate")
	}

	var cert *models.Certificate
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		number, err := s.allocator.Allocate(txCtx, now.Year())
		if err != nil {
			return err
		}
		csl := number.String()
		cert = &models.Certificate{
			CslNumber:        csl,
			StudentID:        student.ID,
			CourseID:         course.ID,
			IssueYear:        number.Year,
			Sequence:         number.Sequence,
			IssueDate:        truncateDay(now),
			CompletionDate:   completion,
			Status:           models.CertificateStatusActive,
			VerificationHash: s.hasher.Compute(csl),
			DocumentStatus:   models.DocumentStatusPending,
			IssuedBy:         actorID,
			Notes:            trimmedOrNil(req.Notes),
			CreatedAt:        now,
		}
		if err := s.certificates.Insert(txCtx, cert); err != nil {
			return err
		}
		return s.writeAudit(txCtx, models.AuditActionCertificateIssue, actorID, csl, nil, cert, meta)
	})
	if err != nil {
		return nil, s.translateIssueError(ctx, student.ID, course.ID, err)
	}

	s.metrics.RecordCertificateEvent("issue", "issued")
	s.logger.Info("certificate issued",
		zap.String("csl_number", cert.CslNumber),
		zap.String("issued_by", actorID),
		zap.String("request_id", meta.RequestID))

	postCtx := context.WithoutCancel(ctx)
	s.invalidateStats(postCtx)

	detail := &models.CertificateDetail{
		Certificate: *cert,
		StudentName: student.FullName,
		CourseCode:  course.CourseCode,
		CourseTitle: course.CourseName,
	}
	result := &dto.IssueCertificateResult{}
	detail, docErr := s.generateDocument(postCtx, detail, "issue")
	if docErr != nil {
		s.enqueueDocument(cert.CslNumber)
		result.Warning = &models.IssueWarning{
			Code:    appErrors.ErrDocumentFailed.Code,
			Message: "certificate issued but its document could not be generated yet; it will be retried",
		}
	}
	result.Certificate = s.toResponse(detail)
	return result, nil
}

func (s *CertificateService) translateIssueError(ctx context.Context, studentID, courseID string, err error) error {
	if constraint, ok := database.UniqueViolation(err); ok && constraint == activePairConstraint {
		s.metrics.RecordCertificateEvent("issue", "already_issued")
		winner, findErr := s.certificates.FindActiveByPair(ctx, studentID, courseID)
		if findErr != nil {
			s.logger.Warn("lookup concurrent certificate", zap.String("student_id", studentID), zap.String("course_id", courseID), zap.Error(findErr))
			return appErrors.Clone(appErrors.ErrAlreadyIssued, "")
		}
		return alreadyIssued(winner.CslNumber)
	}
	s.metrics.RecordCertificateEvent("issue", "failed")
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	s.logger.Error("issue certificate", zap.String("student_id", studentID), zap.String("course_id", courseID), zap.Error(err))
	return appErrors.StorageUnavailable(err, "failed to issue certificate")
}

// Revoke marks an active certificate as revoked. Status, timestamp, reason and actor are
// written by one conditional update together with the audit entry.
func (s *CertificateService) Revoke(ctx context.Context, cslNumber string, req dto.RevokeCertificateRequest, actorID string, meta models.RequestMeta) (*dto.CertificateResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid revocation payload")
	}
	csl, err := normalizeCslNumber(cslNumber)
	if err != nil {
		return nil, certificateNotFound(cslNumber)
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, appErrors.WithDetail(appErrors.Clone(appErrors.ErrValidation, "reason is required"), "reason", "required")
	}

	var revoked *models.Certificate
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		revoked, err = s.certificates.Revoke(txCtx, models.RevokeCertificateParams{
			CslNumber: csl,
			Reason:    reason,
			RevokedBy: actorID,
			RevokedAt: s.now(),
		})
		if errors.Is(err, sql.ErrNoRows) {
			current, findErr := s.certificates.FindByCslNumber(txCtx, csl)
			if errors.Is(findErr, sql.ErrNoRows) {
				return certificateNotFound(csl)
			}
			if findErr != nil {
				return findErr
			}
			revokedErr := appErrors.WithDetail(appErrors.Clone(appErrors.ErrAlreadyRevoked, ""), "cslNumber", csl)
			if current.RevokedAt != nil {
				revokedErr.Details["revokedAt"] = current.RevokedAt.UTC().Format(time.RFC3339)
			}
			return revokedErr
		}
		if err != nil {
			return err
		}
		return s.writeAudit(txCtx, models.AuditActionCertificateRevoke, actorID, csl,
			map[string]string{"status": string(models.CertificateStatusActive)},
			map[string]interface{}{"status": revoked.Status, "revokedAt": revoked.RevokedAt, "reason": reason}, meta)
	})
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			s.metrics.RecordCertificateEvent("revoke", strings.ToLower(appErr.Code))
			return nil, appErr
		}
		s.metrics.RecordCertificateEvent("revoke", "failed")
		s.logger.Error("revoke certificate", zap.String("csl_number", csl), zap.Error(err))
		return nil, appErrors.StorageUnavailable(err, "failed to revoke certificate")
	}

	s.metrics.RecordCertificateEvent("revoke", "revoked")
	s.logger.Info("certificate revoked",
		zap.String("csl_number", csl),
		zap.String("revoked_by", actorID),
		zap.String("request_id", meta.RequestID))
	s.invalidateStats(context.WithoutCancel(ctx))

	// The revocation is committed; a failed re-read must not turn it into an error.
	detail, err := s.certificates.FindDetail(ctx, csl)
	if err != nil {
		s.logger.Warn("reload revoked certificate", zap.String("csl_number", csl), zap.Error(err))
		detail = s.detailFromRow(ctx, revoked)
	}
	return s.toResponse(detail), nil
}

// detailFromRow decorates a bare certificate row with display names on a best-effort basis.
func (s *CertificateService) detailFromRow(ctx context.Context, cert *models.Certificate) *models.CertificateDetail {
	detail := &models.CertificateDetail{Certificate: *cert}
	if student, err := s.students.FindByID(ctx, cert.StudentID); err == nil {
		detail.StudentName = student.FullName
	}
	if course, err := s.courses.FindByID(ctx, cert.CourseID); err == nil {
		detail.CourseCode = course.CourseCode
		detail.CourseTitle = course.CourseName
	}
	return detail
}

// RegenerateDocument renders the document again. Only the document bookkeeping changes;
// number, issue date and status stay as they are.
func (s *CertificateService) RegenerateDocument(ctx context.Context, cslNumber, actorID string, meta models.RequestMeta) (*dto.CertificateResponse, error) {
	detail, err := s.findDetail(ctx, cslNumber)
	if err != nil {
		return nil, err
	}
	if !detail.IsActive() {
		return nil, appErrors.WithDetail(appErrors.Clone(appErrors.ErrAlreadyRevoked, "revoked certificates cannot be regenerated"), "cslNumber", detail.CslNumber)
	}
	detail, err = s.generateDocument(ctx, detail, "regenerate")
	if err != nil {
		s.metrics.RecordCertificateEvent("regenerate", "failed")
		return nil, err
	}
	if auditErr := s.writeAudit(ctx, models.AuditActionCertificateRegenerate, actorID, detail.CslNumber, nil,
		map[string]interface{}{"documentStatus": detail.DocumentStatus, "pdfArtifactRef": detail.PDFArtifactRef}, meta); auditErr != nil {
		s.logger.Warn("audit regenerate", zap.String("csl_number", detail.CslNumber), zap.Error(auditErr))
	}
	s.metrics.RecordCertificateEvent("regenerate", "generated")
	return s.toResponse(detail), nil
}

// Get returns the admin view of a certificate.
func (s *CertificateService) Get(ctx context.Context, cslNumber string) (*dto.CertificateResponse, error) {
	detail, err := s.findDetail(ctx, cslNumber)
	if err != nil {
		return nil, err
	}
	return s.toResponse(detail), nil
}

// List returns certificates matching the filter.
func (s *CertificateService) List(ctx context.Context, req dto.CertificateListRequest) ([]dto.CertificateResponse, *models.Pagination, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, validationError(err, "invalid certificate filter")
	}
	filter := models.CertificateFilter{
		Status:    models.CertificateStatus(req.Status),
		Year:      req.Year,
		StudentID: req.StudentID,
		CourseID:  req.CourseID,
		Search:    strings.TrimSpace(req.Search),
		Page:      req.Page,
		PageSize:  req.PageSize,
		SortOrder: req.SortOrder,
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	items, total, err := s.certificates.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.StorageUnavailable(err, "failed to list certificates")
	}
	responses := make([]dto.CertificateResponse, 0, len(items))
	for i := range items {
		responses = append(responses, *s.toResponse(&items[i]))
	}
	return responses, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// OpenDocument opens the stored PDF of a certificate.
func (s *CertificateService) OpenDocument(ctx context.Context, cslNumber string) (*DocumentFile, error) {
	csl, err := normalizeCslNumber(cslNumber)
	if err != nil {
		return nil, certificateNotFound(cslNumber)
	}
	cert, err := s.certificates.FindByCslNumber(ctx, csl)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, certificateNotFound(csl)
		}
		return nil, appErrors.StorageUnavailable(err, "failed to load certificate")
	}
	return s.openStored(cert)
}

// OpenSignedDocument resolves a signed download token and opens the PDF it points to.
func (s *CertificateService) OpenSignedDocument(ctx context.Context, token string) (*DocumentFile, error) {
	csl, ref, err := s.documents.ParseToken(token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid or expired download link")
	}
	cert, err := s.certificates.FindByCslNumber(ctx, csl)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, certificateNotFound(csl)
		}
		return nil, appErrors.StorageUnavailable(err, "failed to load certificate")
	}
	if !cert.IsActive() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "certificate has been revoked")
	}
	if cert.PDFArtifactRef == nil || *cert.PDFArtifactRef != ref {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "certificate document not available")
	}
	return s.openStored(cert)
}

// ProcessDocumentJob is the queue handler for asynchronous renders. Returning an error
// makes the queue retry the job.
func (s *CertificateService) ProcessDocumentJob(ctx context.Context, job jobs.Job) error {
	detail, err := s.certificates.FindDetail(ctx, job.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("document job for unknown certificate", zap.String("csl_number", job.ID))
			return nil
		}
		return fmt.Errorf("load certificate %s: %w", job.ID, err)
	}
	if !detail.IsActive() || detail.DocumentStatus == models.DocumentStatusGenerated {
		return nil
	}
	if _, err := s.generateDocument(ctx, detail, "worker"); err != nil {
		return err
	}
	s.logger.Info("certificate document generated", zap.String("csl_number", job.ID), zap.Int("attempt", job.Attempt))
	return nil
}

// EnqueuePendingDocuments queues every active certificate whose document is still missing
// and that is older than minAge. It returns the number of queued certificates.
func (s *CertificateService) EnqueuePendingDocuments(ctx context.Context, minAge time.Duration) (int, error) {
	numbers, err := s.certificates.ListPendingDocuments(ctx, s.now().Add(-minAge), 100)
	if err != nil {
		return 0, err
	}
	queued := 0
	for _, csl := range numbers {
		if s.enqueueDocument(csl) {
			queued++
		}
	}
	return queued, nil
}

func (s *CertificateService) generateDocument(ctx context.Context, detail *models.CertificateDetail, source string) (*models.CertificateDetail, error) {
	ref, renderErr := s.documents.Render(detail)
	params := models.UpdateDocumentParams{CslNumber: detail.CslNumber}
	if renderErr != nil {
		msg := renderErr.Error()
		params.Status = models.DocumentStatusFailed
		params.Error = &msg
		s.logger.Warn("certificate document failed", zap.String("csl_number", detail.CslNumber), zap.String("source", source), zap.Error(renderErr))
	} else {
		params.Status = models.DocumentStatusGenerated
		params.PDFArtifactRef = &ref
	}

	updated, err := s.certificates.UpdateDocument(ctx, params)
	if err != nil {
		s.metrics.RecordDocument(source, "bookkeeping_failed")
		s.logger.Error("record certificate document", zap.String("csl_number", detail.CslNumber), zap.Error(err))
		return detail, appErrors.Wrap(err, appErrors.ErrDocumentFailed.Code, appErrors.ErrDocumentFailed.Status, "failed to record certificate document")
	}
	detail.Certificate = *updated
	if renderErr != nil {
		s.metrics.RecordDocument(source, "failed")
		return detail, appErrors.Wrap(renderErr, appErrors.ErrDocumentFailed.Code, appErrors.ErrDocumentFailed.Status, appErrors.ErrDocumentFailed.Message)
	}
	s.metrics.RecordDocument(source, "generated")
	return detail, nil
}

func (s *CertificateService) enqueueDocument(csl string) bool {
	if s.queue == nil {
		return false
	}
	if err := s.queue.Enqueue(jobs.Job{ID: csl, Type: JobTypeRenderDocument}); err != nil {
		s.logger.Warn("enqueue certificate document", zap.String("csl_number", csl), zap.Error(err))
		return false
	}
	return true
}

func (s *CertificateService) openStored(cert *models.Certificate) (*DocumentFile, error) {
	if cert.DocumentStatus != models.DocumentStatusGenerated || cert.PDFArtifactRef == nil {
		return nil, appErrors.WithDetail(appErrors.Clone(appErrors.ErrNotFound, "certificate document not available"), "documentStatus", string(cert.DocumentStatus))
	}
	content, size, err := s.documents.Open(*cert.PDFArtifactRef)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			s.logger.Warn("certificate document missing from storage", zap.String("csl_number", cert.CslNumber))
			return nil, appErrors.Clone(appErrors.ErrNotFound, "certificate document not available")
		}
		return nil, appErrors.StorageUnavailable(err, "failed to open certificate document")
	}
	return &DocumentFile{Filename: DocumentFilename(cert.CslNumber), Size: size, Content: content}, nil
}

func (s *CertificateService) findDetail(ctx context.Context, cslNumber string) (*models.CertificateDetail, error) {
	csl, err := normalizeCslNumber(cslNumber)
	if err != nil {
		return nil, certificateNotFound(cslNumber)
	}
	detail, err := s.certificates.FindDetail(ctx, csl)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, certificateNotFound(csl)
		}
		return nil, appErrors.StorageUnavailable(err, "failed to load certificate")
	}
	return detail, nil
}

func (s *CertificateService) toResponse(detail *models.CertificateDetail) *dto.CertificateResponse {
	resp := &dto.CertificateResponse{CertificateDetail: *detail}
	if detail.DocumentStatus != models.DocumentStatusGenerated || detail.PDFArtifactRef == nil || !detail.IsActive() {
		return resp
	}
	link, expiresAt, err := s.documents.SignedURL(detail.CslNumber, *detail.PDFArtifactRef)
	if err != nil {
		s.logger.Warn("sign certificate download", zap.String("csl_number", detail.CslNumber), zap.Error(err))
		return resp
	}
	resp.DownloadURL = &link
	resp.ExpiresAt = &expiresAt
	return resp
}

func (s *CertificateService) writeAudit(ctx context.Context, action, actorID, csl string, oldValues, newValues interface{}, meta models.RequestMeta) error {
	entry := &models.AuditLog{
		Action:     action,
		Resource:   models.AuditResourceCertificate,
		ResourceID: &csl,
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
		RequestID:  meta.RequestID,
		CreatedAt:  s.now(),
	}
	if actorID != "" {
		entry.UserID = &actorID
	}
	var err error
	if oldValues != nil {
		if entry.OldValues, err = json.Marshal(oldValues); err != nil {
			return fmt.Errorf("marshal audit old values: %w", err)
		}
	}
	if newValues != nil {
		if entry.NewValues, err = json.Marshal(newValues); err != nil {
			return fmt.Errorf("marshal audit new values: %w", err)
		}
	}
	return s.audit.Create(ctx, entry)
}

func (s *CertificateService) invalidateStats(ctx context.Context) {
	if s.stats != nil {
		s.stats.Invalidate(ctx)
	}
}

func alreadyIssued(cslNumber string) *appErrors.Error {
	return appErrors.WithDetail(appErrors.Clone(appErrors.ErrAlreadyIssued, ""), "cslNumber", cslNumber)
}

func certificateNotFound(cslNumber string) *appErrors.Error {
	return appErrors.WithDetail(appErrors.Clone(appErrors.ErrNotFound, "certificate not found"), "cslNumber", cslNumber)
}

func normalizeCslNumber(raw string) (string, error) {
	if _, err := models.ParseCslNumber(raw); err != nil {
		return "", err
	}
	return strings.ToUpper(strings.TrimSpace(raw)), nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

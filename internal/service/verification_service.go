package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/csl-management-api/internal/dto"
	"github.com/noah-isme/csl-management-api/internal/models"
	appErrors "github.com/noah-isme/csl-management-api/pkg/errors"
)

type certificateDetailReader interface {
	FindDetail(ctx context.Context, cslNumber string) (*models.CertificateDetail, error)
}

// VerificationService answers public authenticity lookups. It only reads and never
// caches, so a revocation is visible on the next lookup.
type VerificationService struct {
	certificates certificateDetailReader
	hasher       *VerificationHasher
	metrics      *MetricsService
	logger       *zap.Logger
}

// NewVerificationService constructs a VerificationService.
func NewVerificationService(certificates certificateDetailReader, hasher *VerificationHasher, metrics *MetricsService, logger *zap.Logger) *VerificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VerificationService{certificates: certificates, hasher: hasher, metrics: metrics, logger: logger}
}

// Verify reports whether cslNumber identifies a valid certificate. An unknown or revoked
// certificate is a normal result, not an error; only storage failures return errors.
// When presentedHash is non-empty it must match the printed verification code.
func (s *VerificationService) Verify(ctx context.Context, cslNumber, presentedHash string) (*dto.VerificationResult, error) {
	csl := strings.ToUpper(strings.TrimSpace(cslNumber))
	result := &dto.VerificationResult{CslNumber: csl}

	if _, err := models.ParseCslNumber(csl); err != nil {
		result.Reason = dto.VerificationReasonInvalidFormat
		s.metrics.RecordVerification(result.Reason)
		return result, nil
	}

	detail, err := s.certificates.FindDetail(ctx, csl)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			result.Reason = dto.VerificationReasonNotFound
			s.metrics.RecordVerification(result.Reason)
			return result, nil
		}
		s.logger.Error("verify certificate", zap.String("csl_number", csl), zap.Error(err))
		return nil, appErrors.StorageUnavailable(err, "verification temporarily unavailable")
	}

	if presentedHash != "" && !s.hasher.Matches(detail.VerificationHash, presentedHash) {
		result.Reason = dto.VerificationReasonHashMismatch
		s.metrics.RecordVerification(result.Reason)
		return result, nil
	}

	if !detail.IsActive() {
		result.Reason = dto.VerificationReasonRevoked
		if detail.RevokedAt != nil {
			revokedAt := detail.RevokedAt.UTC().Format(time.RFC3339)
			result.RevokedAt = &revokedAt
		}
		result.RevocationReason = detail.RevocationReason
		s.metrics.RecordVerification(result.Reason)
		return result, nil
	}

	result.Valid = true
	result.Certificate = &dto.VerifiedCertificate{
		CslNumber:      detail.CslNumber,
		StudentName:    detail.StudentName,
		CourseTitle:    detail.CourseTitle,
		IssueDate:      detail.IssueDate.Format("2006-01-02"),
		CompletionDate: detail.CompletionDate.Format("2006-01-02"),
		Status:         string(detail.Status),
	}
	s.metrics.RecordVerification("valid")
	return result, nil
}

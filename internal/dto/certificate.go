package dto

import (
	"time"

	"github.com/noah-isme/csl-management-api/internal/models"
)

// IssueCertificateRequest is the body of POST /certificates/generate.
type IssueCertificateRequest struct {
	StudentID      string  `json:"studentId" validate:"required,max=64"`
	CourseID       string  `json:"courseId" validate:"required,max=64"`
	CompletionDate string  `json:"completionDate" validate:"required,datetime=2006-01-02"`
	Notes          *string `json:"notes" validate:"omitempty,max=1000"`
}

// RevokeCertificateRequest is the body of PATCH /certificates/:cslNumber/revoke.
type RevokeCertificateRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// CertificateListRequest captures query parameters for GET /certificates.
type CertificateListRequest struct {
	Status    string `form:"status" validate:"omitempty,oneof=active revoked"`
	Year      int    `form:"year" validate:"omitempty,min=1900,max=9999"`
	StudentID string `form:"studentId"`
	CourseID  string `form:"courseId"`
	Search    string `form:"q"`
	Page      int    `form:"page"`
	PageSize  int    `form:"pageSize"`
	SortOrder string `form:"sortOrder" validate:"omitempty,oneof=asc desc ASC DESC"`
}

// CertificateResponse is the admin view of a certificate.
type CertificateResponse struct {
	models.CertificateDetail
	DownloadURL *string    `json:"downloadUrl,omitempty"`
	ExpiresAt   *time.Time `json:"downloadExpiresAt,omitempty"`
}

// IssueCertificateResult is returned after a successful issuance. Warning is set when the
// certificate committed but its document could not be rendered yet.
type IssueCertificateResult struct {
	Certificate *CertificateResponse
	Warning     *models.IssueWarning
}

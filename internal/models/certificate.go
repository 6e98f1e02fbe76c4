package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// CertificateStatus captures the lifecycle of an issued certificate.
type CertificateStatus string

const (
	CertificateStatusActive  CertificateStatus = "active"
	CertificateStatusRevoked CertificateStatus = "revoked"
)

// DocumentStatus tracks rendering of the certificate PDF.
type DocumentStatus string

const (
	DocumentStatusPending   DocumentStatus = "pending"
	DocumentStatusGenerated DocumentStatus = "generated"
	DocumentStatusFailed    DocumentStatus = "failed"
)

// CslNumberPrefix prefixes every certificate number.
const CslNumberPrefix = "CSL"

const cslSequenceWidth = 6

var cslNumberPattern = regexp.MustCompile(`^CSL-(\d{4})-(\d{6,})$`)

// Certificate is a persisted course-completion certificate.
type Certificate struct {
	ID               string            `db:"id" json:"id"`
	CslNumber        string            `db:"csl_number" json:"cslNumber"`
	StudentID        string            `db:"student_id" json:"studentId"`
	CourseID         string            `db:"course_id" json:"courseId"`
	IssueYear        int               `db:"issue_year" json:"issueYear"`
	Sequence         int64             `db:"sequence" json:"sequence"`
	IssueDate        time.Time         `db:"issue_date" json:"issueDate"`
	CompletionDate   time.Time         `db:"completion_date" json:"completionDate"`
	Status           CertificateStatus `db:"status" json:"status"`
	RevokedAt        *time.Time        `db:"revoked_at" json:"revokedAt,omitempty"`
	RevokedBy        *string           `db:"revoked_by" json:"revokedBy,omitempty"`
	RevocationReason *string           `db:"revocation_reason" json:"revocationReason,omitempty"`
	VerificationHash string            `db:"verification_hash" json:"verificationHash"`
	PDFArtifactRef   *string           `db:"pdf_artifact_ref" json:"pdfArtifactRef,omitempty"`
	DocumentStatus   DocumentStatus    `db:"document_status" json:"documentStatus"`
	DocumentError    *string           `db:"document_error" json:"documentError,omitempty"`
	IssuedBy         string            `db:"issued_by" json:"issuedBy"`
	Notes            *string           `db:"notes" json:"notes,omitempty"`
	CreatedAt        time.Time         `db:"created_at" json:"createdAt"`
}

// IsActive reports whether the certificate is currently valid.
func (c *Certificate) IsActive() bool {
	return c != nil && c.Status == CertificateStatusActive
}

// CertificateDetail joins presentational student and course fields.
type CertificateDetail struct {
	Certificate
	StudentName string `db:"student_name" json:"studentName"`
	CourseCode  string `db:"course_code" json:"courseCode"`
	CourseTitle string `db:"course_title" json:"courseTitle"`
}

// CertificateFilter captures supported filters for listing certificates.
type CertificateFilter struct {
	Status    CertificateStatus
	Year      int
	StudentID string
	CourseID  string
	Search    string
	Page      int
	PageSize  int
	SortOrder string
}

// RevokeCertificateParams holds the fields written atomically on revocation.
type RevokeCertificateParams struct {
	CslNumber string
	Reason    string
	RevokedBy string
	RevokedAt time.Time
}

// UpdateDocumentParams holds the document bookkeeping written after rendering.
type UpdateDocumentParams struct {
	CslNumber      string
	Status         DocumentStatus
	PDFArtifactRef *string
	Error          *string
}

// CslNumber is a parsed certificate number.
type CslNumber struct {
	Year     int
	Sequence int64
}

// String renders the canonical CSL-<year>-<sequence> form.
func (n CslNumber) String() string {
	return FormatCslNumber(n.Year, n.Sequence)
}

// FormatCslNumber renders a certificate number with a zero-padded sequence.
func FormatCslNumber(year int, sequence int64) string {
	return fmt.Sprintf("%s-%04d-%0*d", CslNumberPrefix, year, cslSequenceWidth, sequence)
}

// ParseCslNumber validates and splits a certificate number. Surrounding whitespace is
// ignored and the prefix is matched case-insensitively.
func ParseCslNumber(raw string) (CslNumber, error) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	match := cslNumberPattern.FindStringSubmatch(normalized)
	if match == nil {
		return CslNumber{}, fmt.Errorf("invalid csl number %q", raw)
	}
	year, err := strconv.Atoi(match[1])
	if err != nil {
		return CslNumber{}, fmt.Errorf("invalid csl year %q: %w", match[1], err)
	}
	seq, err := strconv.ParseInt(match[2], 10, 64)
	if err != nil || seq < 1 {
		return CslNumber{}, fmt.Errorf("invalid csl sequence %q", match[2])
	}
	return CslNumber{Year: year, Sequence: seq}, nil
}

// IssueWarning flags a partially successful issuance.
type IssueWarning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

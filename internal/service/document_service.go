package service

import (
	"fmt"
	"io"
	"net/url"
	"path"
	"time"

	"github.com/noah-isme/csl-management-api/internal/models"
	"github.com/noah-isme/csl-management-api/pkg/export"
)

type documentRenderer interface {
	Render(doc export.CertificateDocument) ([]byte, error)
}

type documentStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (io.ReadCloser, int64, error)
}

type documentSigner interface {
	Generate(subject, relPath string) (string, time.Time, error)
	Parse(token string) (string, string, time.Time, error)
}

// DocumentConfig controls the printable and linkable parts of certificate documents.
type DocumentConfig struct {
	InstituteName string
	PublicBaseURL string
	APIPrefix     string
}

// DocumentService renders certificate PDFs, stores them and issues signed links.
type DocumentService struct {
	renderer documentRenderer
	storage  documentStorage
	signer   documentSigner
	config   DocumentConfig
}

// NewDocumentService constructs a DocumentService.
func NewDocumentService(renderer documentRenderer, storage documentStorage, signer documentSigner, cfg DocumentConfig) *DocumentService {
	return &DocumentService{renderer: renderer, storage: storage, signer: signer, config: cfg}
}

// Render produces and stores the PDF for a certificate and returns its storage reference.
func (s *DocumentService) Render(detail *models.CertificateDetail) (string, error) {
	data, err := s.renderer.Render(export.CertificateDocument{
		InstituteName:    s.config.InstituteName,
		StudentName:      detail.StudentName,
		CourseTitle:      detail.CourseTitle,
		CslNumber:        detail.CslNumber,
		VerificationCode: detail.VerificationHash,
		VerifyURL:        s.VerifyURL(detail.CslNumber),
		IssueDate:        detail.IssueDate,
		CompletionDate:   detail.CompletionDate,
	})
	if err != nil {
		return "", fmt.Errorf("render %s: %w", detail.CslNumber, err)
	}
	ref, err := s.storage.Save(DocumentPath(detail.Certificate), data)
	if err != nil {
		return "", fmt.Errorf("store %s: %w", detail.CslNumber, err)
	}
	return ref, nil
}

// Open returns the stored PDF for ref.
func (s *DocumentService) Open(ref string) (io.ReadCloser, int64, error) {
	return s.storage.Open(ref)
}

// SignedURL returns an expiring public link for the stored document.
func (s *DocumentService) SignedURL(cslNumber, ref string) (string, time.Time, error) {
	token, expiresAt, err := s.signer.Generate(cslNumber, ref)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign download for %s: %w", cslNumber, err)
	}
	return s.publicURL("certificates", "documents", token), expiresAt, nil
}

// ParseToken validates a download token and returns the certificate number and reference.
func (s *DocumentService) ParseToken(token string) (string, string, error) {
	cslNumber, ref, _, err := s.signer.Parse(token)
	if err != nil {
		return "", "", err
	}
	return cslNumber, ref, nil
}

// VerifyURL is the public verification link printed on the certificate.
func (s *DocumentService) VerifyURL(cslNumber string) string {
	return s.publicURL("verification", "verify", cslNumber)
}

func (s *DocumentService) publicURL(segments ...string) string {
	escaped := make([]string, 0, len(segments)+2)
	escaped = append(escaped, "/", s.config.APIPrefix)
	for _, segment := range segments {
		escaped = append(escaped, url.PathEscape(segment))
	}
	return s.config.PublicBaseURL + path.Join(escaped...)
}

// DocumentPath is the storage location of a certificate PDF.
func DocumentPath(cert models.Certificate) string {
	return fmt.Sprintf("%d/%s.pdf", cert.IssueYear, cert.CslNumber)
}

// DocumentFilename is the attachment name offered on download.
func DocumentFilename(cslNumber string) string {
	return cslNumber + ".pdf"
}

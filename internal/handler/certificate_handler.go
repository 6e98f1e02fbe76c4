package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/csl-management-api/internal/dto"
	"github.com/noah-isme/csl-management-api/internal/models"
	"github.com/noah-isme/csl-management-api/internal/service"
	appErrors "github.com/noah-isme/csl-management-api/pkg/errors"
	"github.com/noah-isme/csl-management-api/pkg/response"
)

type certificateService interface {
	Issue(ctx context.Context, req dto.IssueCertificateRequest, actorID string, meta models.RequestMeta) (*dto.IssueCertificateResult, error)
	Revoke(ctx context.Context, cslNumber string, req dto.RevokeCertificateRequest, actorID string, meta models.RequestMeta) (*dto.CertificateResponse, error)
	RegenerateDocument(ctx context.Context, cslNumber, actorID string, meta models.RequestMeta) (*dto.CertificateResponse, error)
	Get(ctx context.Context, cslNumber string) (*dto.CertificateResponse, error)
	List(ctx context.Context, req dto.CertificateListRequest) ([]dto.CertificateResponse, *models.Pagination, error)
	OpenDocument(ctx context.Context, cslNumber string) (*service.DocumentFile, error)
	OpenSignedDocument(ctx context.Context, token string) (*service.DocumentFile, error)
}

type statsService interface {
	YearStats(ctx context.Context, year int) (*models.CertificateStats, error)
}

// CertificateHandler exposes the admin certificate endpoints.
type CertificateHandler struct {
	service certificateService
	stats   statsService
}

// NewCertificateHandler constructs the handler.
func NewCertificateHandler(service certificateService, stats statsService) *CertificateHandler {
	return &CertificateHandler{service: service, stats: stats}
}

// Issue godoc
// @Summary Issue certificate
// @Description Allocates the next CSL number and issues a certificate for a student and course.
// @Tags Certificates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.IssueCertificateRequest true "Issue payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /certificates/generate [post]
func (h *CertificateHandler) Issue(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.IssueCertificateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid certificate payload"))
		return
	}
	result, err := h.service.Issue(c.Request.Context(), req, claims.UserID, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	var meta map[string]interface{}
	if result.Warning != nil {
		meta = map[string]interface{}{"warning": result.Warning}
	}
	response.Created(c, result.Certificate, meta)
}

// Revoke godoc
// @Summary Revoke certificate
// @Tags Certificates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param cslNumber path string true "Certificate number"
// @Param payload body dto.RevokeCertificateRequest true "Revocation payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /certificates/{cslNumber}/revoke [patch]
func (h *CertificateHandler) Revoke(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.RevokeCertificateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid revocation payload"))
		return
	}
	cert, err := h.service.Revoke(c.Request.Context(), c.Param("cslNumber"), req, claims.UserID, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cert, nil)
}

// Regenerate godoc
// @Summary Regenerate certificate document
// @Tags Certificates
// @Produce json
// @Security BearerAuth
// @Param cslNumber path string true "Certificate number"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /certificates/{cslNumber}/regenerate [post]
func (h *CertificateHandler) Regenerate(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	cert, err := h.service.RegenerateDocument(c.Request.Context(), c.Param("cslNumber"), claims.UserID, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cert, nil)
}

// Get godoc
// @Summary Get certificate
// @Tags Certificates
// @Produce json
// @Security BearerAuth
// @Param cslNumber path string true "Certificate number"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /certificates/{cslNumber} [get]
func (h *CertificateHandler) Get(c *gin.Context) {
	cert, err := h.service.Get(c.Request.Context(), c.Param("cslNumber"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cert, nil)
}

// List godoc
// @Summary List certificates
// @Tags Certificates
// @Produce json
// @Security BearerAuth
// @Param status query string false "active or revoked"
// @Param year query int false "Issue year"
// @Param studentId query string false "Student filter"
// @Param courseId query string false "Course filter"
// @Param q query string false "Search by number or student name"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /certificates [get]
func (h *CertificateHandler) List(c *gin.Context) {
	var req dto.CertificateListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query parameters"))
		return
	}
	items, pagination, err := h.service.List(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Download godoc
// @Summary Download certificate PDF
// @Tags Certificates
// @Produce application/pdf
// @Security BearerAuth
// @Param cslNumber path string true "Certificate number"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /certificates/{cslNumber}/download [get]
func (h *CertificateHandler) Download(c *gin.Context) {
	file, err := h.service.OpenDocument(c.Request.Context(), c.Param("cslNumber"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Content.Close()
	response.PDF(c, file.Filename, file.Size, file.Content)
}

// SignedDownload godoc
// @Summary Download certificate PDF with a signed link
// @Tags Certificates
// @Produce application/pdf
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /certificates/documents/{token} [get]
func (h *CertificateHandler) SignedDownload(c *gin.Context) {
	file, err := h.service.OpenSignedDocument(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Content.Close()
	response.PDF(c, file.Filename, file.Size, file.Content)
}

// Stats godoc
// @Summary Certificate statistics for a year
// @Tags Certificates
// @Produce json
// @Security BearerAuth
// @Param year query int false "Year, defaults to the current year"
// @Success 200 {object} response.Envelope{data=models.CertificateStats}
// @Failure 400 {object} response.Envelope
// @Router /certificates/stats [get]
func (h *CertificateHandler) Stats(c *gin.Context) {
	year := 0
	if raw := c.Query("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.WithDetail(appErrors.Clone(appErrors.ErrValidation, "year must be a number"), "year", raw))
			return
		}
		year = parsed
	}
	stats, err := h.stats.YearStats(c.Request.Context(), year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

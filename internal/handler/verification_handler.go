package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/csl-management-api/internal/dto"
	"github.com/noah-isme/csl-management-api/pkg/response"
)

type verificationService interface {
	Verify(ctx context.Context, cslNumber, presentedHash string) (*dto.VerificationResult, error)
}

// VerificationHandler serves the public verification endpoint.
type VerificationHandler struct {
	service verificationService
}

// NewVerificationHandler constructs the handler.
func NewVerificationHandler(service verificationService) *VerificationHandler {
	return &VerificationHandler{service: service}
}

// Verify godoc
// @Summary Verify certificate
// @Description Public lookup. Unknown, malformed and revoked numbers are reported in the body with HTTP 200.
// @Tags Verification
// @Produce json
// @Param cslNumber path string true "Certificate number"
// @Param hash query string false "Verification code printed on the certificate"
// @Success 200 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /verification/verify/{cslNumber} [get]
func (h *VerificationHandler) Verify(c *gin.Context) {
	result, err := h.service.Verify(c.Request.Context(), c.Param("cslNumber"), c.Query("hash"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

package dto

// Verification failure reasons exposed to the public.
const (
	VerificationReasonNotFound      = "not_found"
	VerificationReasonInvalidFormat = "invalid_format"
	VerificationReasonRevoked       = "revoked"
	VerificationReasonHashMismatch  = "hash_mismatch"
)

// VerificationResult is the public verification outcome. Only presentational fields are
// exposed; internal identifiers, hashes and revocation actors never leave the service.
type VerificationResult struct {
	Valid            bool                 `json:"valid"`
	CslNumber        string               `json:"cslNumber"`
	Reason           string               `json:"reason,omitempty"`
	RevokedAt        *string              `json:"revokedAt,omitempty"`
	RevocationReason *string              `json:"revocationReason,omitempty"`
	Certificate      *VerifiedCertificate `json:"certificate,omitempty"`
}

// VerifiedCertificate lists the fields a third party may see about a certificate.
type VerifiedCertificate struct {
	CslNumber      string `json:"cslNumber"`
	StudentName    string `json:"studentName"`
	CourseTitle    string `json:"courseTitle"`
	IssueDate      string `json:"issueDate"`
	CompletionDate string `json:"completionDate"`
	Status         string `json:"status"`
}

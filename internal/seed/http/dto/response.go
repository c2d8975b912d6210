package dto

import (
	seedDomain "github.com/allisson/seedvault/internal/seed/domain"
)

// EnrollResponse represents an enrollment in API responses.
// SECURITY: ProvisioningURI and QRCodePNG embed the seed and are only present on the
// request that created it. Must be transmitted over HTTPS in production.
type EnrollResponse struct {
	Principal       string `json:"principal"`
	JustCreated     bool   `json:"just_created"`
	ProvisioningURI string `json:"provisioning_uri,omitempty"`
	QRCodePNG       []byte `json:"qr_code_png,omitempty"` // base64 in JSON
}

// MapEnrollmentToResponse converts a domain enrollment to an API response.
func MapEnrollmentToResponse(enrollment *seedDomain.Enrollment) EnrollResponse {
	return EnrollResponse{
		Principal:       enrollment.Principal,
		JustCreated:     enrollment.JustCreated,
		ProvisioningURI: enrollment.ProvisioningURI,
		QRCodePNG:       enrollment.QRCodePNG,
	}
}

// VerifyResponse reports the outcome of a verification. Every result is a 200 OK.
type VerifyResponse struct {
	Principal string `json:"principal"`
	Result    string `json:"result"`
	Valid     bool   `json:"valid"`
}

// MapVerifyResultToResponse converts a verification result to an API response.
func MapVerifyResultToResponse(principal string, result seedDomain.VerifyResult) VerifyResponse {
	return VerifyResponse{
		Principal: principal,
		Result:    string(result),
		Valid:     result == seedDomain.VerifyMatch,
	}
}

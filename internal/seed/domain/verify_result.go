package domain

// VerifyResult is the outcome of checking a candidate code. None of the values is an error.
type VerifyResult string

const (
	// VerifyMatch means the candidate matched a code inside the accepted window.
	VerifyMatch VerifyResult = "match"
	// VerifyNoMatch means the candidate did not match.
	VerifyNoMatch VerifyResult = "no_match"
	// VerifySecretUnavailable means a seed is stored but could not be decrypted. The caller
	// decides whether to re-enroll; the stored seed is never replaced automatically.
	VerifySecretUnavailable VerifyResult = "secret_unavailable"
	// VerifyNoEnrollment means the principal has no seed and creation on verify is disabled.
	VerifyNoEnrollment VerifyResult = "no_enrollment"
)

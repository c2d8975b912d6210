package domain

// Enrollment is the result of enrolling a principal. ProvisioningURI and QRCodePNG are set
// only when the seed was created by this call, and both embed the seed.
type Enrollment struct {
	Principal       string
	JustCreated     bool
	ProvisioningURI string `json:"-"`
	QRCodePNG       []byte `json:"-"`
}

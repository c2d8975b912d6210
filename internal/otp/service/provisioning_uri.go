package service

import (
	"encoding/base32"
	"fmt"
	"net/url"
	"strings"

	otpDomain "github.com/allisson/seedvault/internal/otp/domain"
)

const provisioningPrefix = "otpauth://totp/"

var base32NoPadding = base32.StdEncoding.WithPadding(base32.NoPadding)

// ProvisioningURI is the parsed form of an otpauth://totp URI.
type ProvisioningURI struct {
	Label  string
	Secret otpDomain.Seed
	Issuer string
}

// BuildProvisioningURI formats the otpauth URI consumed by authenticator apps:
//
//	otpauth://totp/{label}?secret={BASE32}&issuer={issuer}
//
// The secret is the raw seed in RFC 4648 base32 without padding. Label and issuer are
// percent-escaped. The result embeds the seed and must be treated as secret.
func BuildProvisioningURI(seed otpDomain.Seed, accountLabel, issuer string) (string, error) {
	if len(seed) == 0 {
		return "", fmt.Errorf("%w: empty seed", otpDomain.ErrInvalidSeedEncoding)
	}
	if accountLabel == "" {
		return "", fmt.Errorf("%w: empty account label", otpDomain.ErrInvalidProvisioningURI)
	}

	return fmt.Sprintf(
		"%s%s?secret=%s&issuer=%s",
		provisioningPrefix,
		url.PathEscape(accountLabel),
		base32NoPadding.EncodeToString(seed),
		url.QueryEscape(issuer),
	), nil
}

// ParseProvisioningURI reverses BuildProvisioningURI.
func ParseProvisioningURI(raw string) (*ProvisioningURI, error) {
	if !strings.HasPrefix(raw, provisioningPrefix) {
		return nil, fmt.Errorf("%w: missing %q prefix", otpDomain.ErrInvalidProvisioningURI, provisioningPrefix)
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", otpDomain.ErrInvalidProvisioningURI, err)
	}

	label := strings.TrimPrefix(parsed.Path, "/")
	if label == "" {
		return nil, fmt.Errorf("%w: empty label", otpDomain.ErrInvalidProvisioningURI)
	}

	query := parsed.Query()
	encodedSecret := strings.ToUpper(query.Get("secret"))
	if encodedSecret == "" {
		return nil, fmt.Errorf("%w: missing secret", otpDomain.ErrInvalidProvisioningURI)
	}

	secret, err := base32NoPadding.DecodeString(strings.TrimRight(encodedSecret, "="))
	if err != nil {
		return nil, fmt.Errorf("%w: secret is not base32: %v", otpDomain.ErrInvalidProvisioningURI, err)
	}

	return &ProvisioningURI{
		Label:  label,
		Secret: otpDomain.Seed(secret),
		Issuer: query.Get("issuer"),
	}, nil
}

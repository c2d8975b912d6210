package service

import (
	"fmt"
	"os"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"

	"github.com/allisson/seedvault/internal/errors"
)

// DefaultQRCodeSize is the side, in pixels, of rendered provisioning images.
const DefaultQRCodeSize = 350

// QR rendering error definitions.
var (
	// ErrEmptyQRContent indicates there is nothing to encode.
	ErrEmptyQRContent = errors.Wrap(errors.ErrInvalidInput, "qr content cannot be empty")
	// ErrQRCodeGeneration indicates the encoder rejected the content.
	ErrQRCodeGeneration = errors.New("failed to generate qr code")
)

// RenderQRCode encodes content (normally a provisioning URI) as a square PNG image.
// Non-positive sizes fall back to DefaultQRCodeSize.
func RenderQRCode(content string, size int) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyQRContent
	}
	if size <= 0 {
		size = DefaultQRCodeSize
	}

	png, err := skipqrcode.Encode(content, skipqrcode.Medium, size)
	if err != nil {
		return nil, errors.Join(ErrQRCodeGeneration, err)
	}
	return png, nil
}

// WriteQRCodeFile writes an already rendered PNG to path with owner-only permissions.
func WriteQRCodeFile(png []byte, path string) error {
	if len(png) == 0 {
		return ErrEmptyQRContent
	}
	if err := os.WriteFile(path, png, 0o600); err != nil {
		return fmt.Errorf("failed to write qr code file: %w", err)
	}
	return nil
}

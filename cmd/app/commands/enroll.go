package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	otpService "github.com/allisson/seedvault/internal/otp/service"
	seedUseCase "github.com/allisson/seedvault/internal/seed/usecase"
)

// ErrQRCodeUnavailable indicates the enrollment returned no QR image to write.
var ErrQRCodeUnavailable = errors.New("qr code unavailable, use the provisioning uri")

// RunEnroll provisions a seed for principal. On first creation it prints the provisioning
// URI and, when qrOutput is set, writes the QR image there. The URI is always emitted
// before the image is written. Repeated enrollments only report that the principal is
// already enrolled.
func RunEnroll(
	ctx context.Context,
	useCase seedUseCase.SeedUseCase,
	logger *slog.Logger,
	writer io.Writer,
	principal, accountLabel, qrOutput string,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	enrollment, err := useCase.Enroll(ctx, principal, accountLabel)
	if err != nil {
		return fmt.Errorf("failed to enroll %q: %w", principal, err)
	}

	if err := printEnrollment(writer, enrollment.Principal, enrollment.JustCreated,
		enrollment.ProvisioningURI, qrOutput, format); err != nil {
		return err
	}

	if !enrollment.JustCreated || qrOutput == "" {
		return nil
	}
	if len(enrollment.QRCodePNG) == 0 {
		return fmt.Errorf("failed to write qr code: %w", ErrQRCodeUnavailable)
	}
	if err := otpService.WriteQRCodeFile(enrollment.QRCodePNG, qrOutput); err != nil {
		return fmt.Errorf("failed to write qr code: %w", err)
	}
	logger.Info("qr code written", slog.String("path", qrOutput))
	return nil
}

func printEnrollment(writer io.Writer, principal string, justCreated bool, uri, qrOutput, format string) error {
	if format == FormatJSON {
		return writeJSON(writer, map[string]any{
			"principal":        principal,
			"just_created":     justCreated,
			"provisioning_uri": uri,
		})
	}

	if !justCreated {
		_, _ = fmt.Fprintf(writer, "Principal %q is already enrolled. Use reset-seed to enroll again.\n", principal)
		return nil
	}

	_, _ = fmt.Fprintf(writer, "Principal %q enrolled.\n", principal)
	_, _ = fmt.Fprintf(writer, "Provisioning URI: %s\n", uri)
	if qrOutput != "" {
		_, _ = fmt.Fprintf(writer, "QR code: %s\n", qrOutput)
	}
	_, _ = fmt.Fprintln(writer, "\nIMPORTANT: The provisioning URI contains the seed and is shown only once.")
	return nil
}

package commands

import (
	"context"
	"errors"
	"fmt"

	seedDomain "github.com/allisson/seedvault/internal/seed/domain"
	seedUseCase "github.com/allisson/seedvault/internal/seed/usecase"
)

// ErrCodeRejected is returned when verification finished with any result other than match,
// so scripts can rely on the exit status.
var ErrCodeRejected = errors.New("code rejected")

// RunVerify checks a one-time code for principal. An empty code is read from io.Reader.
func RunVerify(
	ctx context.Context,
	useCase seedUseCase.SeedUseCase,
	io IOTuple,
	principal, code, format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	if code == "" {
		if format == FormatText {
			_, _ = fmt.Fprint(io.Writer, "Enter code: ")
		}
		line, err := readLine(io.Reader)
		if err != nil {
			return err
		}
		code = line
	}

	result, err := useCase.VerifyToken(ctx, principal, code)
	if err != nil {
		return fmt.Errorf("failed to verify code for %q: %w", principal, err)
	}

	if format == FormatJSON {
		if err := writeJSON(io.Writer, map[string]string{
			"principal": principal,
			"result":    string(result),
		}); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintf(io.Writer, "Result: %s\n", result)
	}

	if result != seedDomain.VerifyMatch {
		return fmt.Errorf("%w: %s", ErrCodeRejected, result)
	}
	return nil
}

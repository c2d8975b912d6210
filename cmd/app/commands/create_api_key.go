package commands

import (
	"fmt"
	"io"

	authService "github.com/allisson/seedvault/internal/auth/service"
)

// RunCreateAPIKey generates an API key and prints it with the Argon2id hash to place in
// API_KEY_HASH. The plain key is printed once and never stored.
func RunCreateAPIKey(apiKeyService authService.APIKeyService, writer io.Writer, format string) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	plainKey, hashedKey, err := apiKeyService.GenerateAPIKey()
	if err != nil {
		return fmt.Errorf("failed to generate api key: %w", err)
	}

	if format == FormatJSON {
		return writeJSON(writer, map[string]string{
			"api_key":      plainKey,
			"api_key_hash": hashedKey,
		})
	}

	_, _ = fmt.Fprintln(writer, "API key created successfully!")
	_, _ = fmt.Fprintf(writer, "API key: %s\n", plainKey)
	_, _ = fmt.Fprintf(writer, "API_KEY_HASH=%s\n", hashedKey)
	_, _ = fmt.Fprintln(writer, "\nIMPORTANT: The API key is shown only once. Store it securely.")
	return nil
}

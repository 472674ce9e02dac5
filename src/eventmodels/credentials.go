package eventmodels

import "fmt"

type Credentials struct {
	APIKey        string
	SecretKey     string
	FetchContract bool
	CA            *CACredentials
}

// CACredentials activate order signing on non-simulation accounts.
type CACredentials struct {
	Path     string
	Password string
	PersonID string
}

func (c Credentials) Validate() error {
	if c.APIKey == "" || c.SecretKey == "" {
		return fmt.Errorf("credentials: api key and secret key are required: %w", ErrConnection)
	}

	return nil
}

// String never prints the secret.
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{APIKey: %s, FetchContract: %v}", maskSecret(c.APIKey), c.FetchContract)
}

func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}

	return s[:4] + "****"
}

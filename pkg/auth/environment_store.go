package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements CredentialStore using environment variables.
// It is read-only and mainly serves CI and container deployments.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve gets the credential from DCEXPORT_TOKEN
func (e *EnvironmentStore) Retrieve(label string) (*Account, error) {
	token := os.Getenv("DCEXPORT_TOKEN")
	if token == "" {
		return nil, ErrCredentialsNotFound
	}

	tokenType := os.Getenv("DCEXPORT_TOKEN_TYPE")
	if tokenType == "" {
		tokenType = "Bot"
	}

	if label == "" {
		label = DefaultLabel
	}

	return &Account{
		Label:        label,
		Token:        token,
		TokenType:    tokenType,
		LastModified: time.Now(),
	}, nil
}

// List returns a single credential if the environment is populated
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(label string) error {
	return ErrStoreUnavailable
}

// Exists checks if an environment credential is present
func (e *EnvironmentStore) Exists(label string) bool {
	return os.Getenv("DCEXPORT_TOKEN") != ""
}

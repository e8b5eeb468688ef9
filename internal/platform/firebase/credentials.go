// Package firebase loads the service-account bundle used to reach Firestore.
package firebase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	"github.com/BurntSushi/toml"
	"google.golang.org/api/option"
)

var ErrInvalidCredentials = errors.New("invalid firebase credentials")

// Credentials is the service-account bundle, read from the [firebase] table
// of a TOML secrets file.
type Credentials struct {
	Type                    string `toml:"type" json:"type"`
	ProjectID               string `toml:"project_id" json:"project_id"`
	PrivateKeyID            string `toml:"private_key_id" json:"private_key_id"`
	PrivateKey              string `toml:"private_key" json:"private_key"`
	ClientEmail             string `toml:"client_email" json:"client_email"`
	ClientID                string `toml:"client_id" json:"client_id"`
	AuthURI                 string `toml:"auth_uri" json:"auth_uri"`
	TokenURI                string `toml:"token_uri" json:"token_uri"`
	AuthProviderX509CertURL string `toml:"auth_provider_x509_cert_url" json:"auth_provider_x509_cert_url"`
	ClientX509CertURL       string `toml:"client_x509_cert_url" json:"client_x509_cert_url"`
}

// LoadCredentials reads the [firebase] table from the secrets file at path.
func LoadCredentials(path string) (*Credentials, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("secrets file: %w", err)
	}

	var secrets struct {
		Firebase Credentials `toml:"firebase"`
	}
	if _, err := toml.DecodeFile(path, &secrets); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidCredentials, path, err)
	}

	if err := secrets.Firebase.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &secrets.Firebase, nil
}

// Validate requires every field of the bundle.
func (c Credentials) Validate() error {
	fields := []struct{ name, value string }{
		{"type", c.Type},
		{"project_id", c.ProjectID},
		{"private_key_id", c.PrivateKeyID},
		{"private_key", c.PrivateKey},
		{"client_email", c.ClientEmail},
		{"client_id", c.ClientID},
		{"auth_uri", c.AuthURI},
		{"token_uri", c.TokenURI},
		{"auth_provider_x509_cert_url", c.AuthProviderX509CertURL},
		{"client_x509_cert_url", c.ClientX509CertURL},
	}
	var missing []string
	for _, f := range fields {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %v", ErrInvalidCredentials, missing)
	}
	return nil
}

// JSON serializes the bundle as a service-account key file.
func (c Credentials) JSON() ([]byte, error) {
	return json.Marshal(c)
}

// String keeps the private key out of logs.
func (c Credentials) String() string {
	return fmt.Sprintf("firebase service account %s (project %s)", c.ClientEmail, c.ProjectID)
}

// NewClient opens a Firestore client authenticated as the service account.
func NewClient(ctx context.Context, creds *Credentials) (*firestore.Client, error) {
	keyJSON, err := creds.JSON()
	if err != nil {
		return nil, err
	}
	client, err := firestore.NewClient(ctx, creds.ProjectID, option.WithCredentialsJSON(keyJSON))
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return client, nil
}

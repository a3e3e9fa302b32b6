package engine

import (
	"encoding/json"
	"fmt"

	"github.com/replicator/replicator/internal/store"
)

// Credentials is the plaintext shape sealed into Datasource.AuthBlob
// by internal/secretbox. Grounded on original_source/src-tauri/src/utils/crypto.rs's
// envelope, which likewise seals a small JSON credential blob rather
// than individual fields.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// sealCredentials encrypts creds into the envelope stored as
// Datasource.AuthBlob.
func (e *Engine) sealCredentials(creds Credentials) (string, error) {
	raw, err := json.Marshal(creds)
	if err != nil {
		return "", fmt.Errorf("engine: marshal credentials: %w", err)
	}
	return e.Secrets.Encrypt(string(raw))
}

// openCredentials decrypts a Datasource's AuthBlob back into Credentials.
func (e *Engine) openCredentials(ds *store.Datasource) (Credentials, error) {
	if ds.AuthBlob == "" {
		return Credentials{}, nil
	}
	raw, err := e.Secrets.Decrypt(ds.AuthBlob)
	if err != nil {
		return Credentials{}, fmt.Errorf("engine: decrypt credentials: %w", err)
	}
	var creds Credentials
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		return Credentials{}, fmt.Errorf("engine: unmarshal credentials: %w", err)
	}
	return creds, nil
}

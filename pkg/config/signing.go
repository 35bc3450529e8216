package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// defaultSigningKeyCandidates are tried, in order, when no key path is
// configured or passed on the command line.
var defaultSigningKeyCandidates = []string{
	filepath.Join(".ssh", "id_ed25519"),
	filepath.Join(".ssh", "id_ecdsa"),
	filepath.Join(".ssh", "id_rsa"),
}

// ResolveSigningKeyPath expands and validates the SSH private key path a
// signing operation should use: explicit wins if non-empty (with "~"
// expansion), otherwise the first of the well-known default keys under
// ~/.ssh that exists on disk.
func ResolveSigningKeyPath(explicit string) (string, error) {
	explicit = strings.TrimSpace(explicit)
	if explicit != "" {
		return expandUserPath(explicit)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	for _, rel := range defaultSigningKeyCandidates {
		candidate := filepath.Join(home, rel)
		if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no default SSH private key found in ~/.ssh (id_ed25519, id_ecdsa, id_rsa)")
}

func expandUserPath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}
	return filepath.Abs(path)
}

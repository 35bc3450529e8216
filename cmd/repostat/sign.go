package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"

	"golang.org/x/crypto/ssh"

	"github.com/odvcencio/repostat/pkg/config"
)

const reportSignaturePrefix = "sshsig-v1"

// signPayload signs a rendered report with the SSH private key at keyPath
// (or the first default key found under ~/.ssh if keyPath is empty) and
// returns a detached signature line of the shape
// "sshsig-v1:<format>:<pubkey-b64>:<sig-b64>", written verbatim to
// <repo>/repostat-report.sig.
func signPayload(data []byte, keyPath string) (string, error) {
	resolved, err := config.ResolveSigningKeyPath(keyPath)
	if err != nil {
		return "", err
	}

	raw, err := os.ReadFile(resolved)
	if err != nil {
		return "", fmt.Errorf("read signing key %q: %w", resolved, err)
	}
	signer, err := ssh.ParsePrivateKey(raw)
	if err != nil {
		return "", fmt.Errorf("parse signing key %q: %w", resolved, err)
	}

	sig, err := signer.Sign(rand.Reader, data)
	if err != nil {
		return "", fmt.Errorf("sign report: %w", err)
	}

	pubB64 := base64.StdEncoding.EncodeToString(signer.PublicKey().Marshal())
	sigB64 := base64.StdEncoding.EncodeToString(sig.Blob)
	return fmt.Sprintf("%s:%s:%s:%s", reportSignaturePrefix, sig.Format, pubB64, sigB64), nil
}

package sshbridge

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/crypto/ssh"

	"github.com/sirupsen/logrus"
)

const hostKeyFileName = "ssh_host_key"

// LoadOrGenerateHostKey reads dataDir/ssh_host_key, or generates a new
// Ed25519 key and persists it there (mode 0600) if none exists yet.
//
// Grounded on the Rust original this spec was distilled from
// (original_source/src/ssh/keys.rs): load-or-generate, Ed25519, OpenSSH
// PEM, platform line endings.
func LoadOrGenerateHostKey(dataDir string) (ssh.Signer, error) {
	path := filepath.Join(dataDir, hostKeyFileName)

	if data, err := os.ReadFile(path); err == nil {
		logrus.WithField("path", path).Info("loading SSH host key")
		key, err := ssh.ParsePrivateKey(data)
		if err != nil {
			return nil, err
		}
		return key, nil
	}

	logrus.Info("generating new Ed25519 SSH host key")
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	_ = pub
	if err != nil {
		return nil, err
	}

	block, err := ssh.MarshalPrivateKey(priv, "termhub host key")
	if err != nil {
		return nil, err
	}
	pemBytes := pem.EncodeToMemory(block)
	if runtime.GOOS == "windows" {
		pemBytes = toCRLF(pemBytes)
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, pemBytes, 0o600); err != nil {
		return nil, err
	}
	logrus.WithField("path", path).Info("SSH host key saved")

	return ssh.NewSignerFromKey(priv)
}

func toCRLF(b []byte) []byte {
	out := make([]byte, 0, len(b)+len(b)/40)
	for _, c := range b {
		if c == '\n' {
			out = append(out, '\r', '\n')
			continue
		}
		out = append(out, c)
	}
	return out
}

// internal/usersrv/crypto.go
package usersrv

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	sessionKeyLen = 32

	// Context string for HKDF and AEAD associated data.
	transportContext = "WinCore-bridge-v1"
)

// Sealer encrypts and authenticates frame bodies with XChaCha20-Poly1305.
// The key is derived from a shared access token, so both ends construct an
// identical Sealer without a handshake.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives the transport key from the shared token via HKDF-SHA256
// with a fixed context string.
func NewSealer(token []byte) (*Sealer, error) {
	if len(token) == 0 {
		return nil, errors.New("empty access token")
	}
	h := hkdf.New(sha256.New, token, nil, []byte(transportContext))
	key := make([]byte, sessionKeyLen)
	if _, err := io.ReadFull(h, key); err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	zeroBytes(key)
	return &Sealer{aead: aead}, nil
}

// Seal returns nonce || ciphertext, binding aad (the frame header) into the
// authentication tag.
func (s *Sealer) Seal(plain, aad []byte) ([]byte, error) {
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return s.aead.Seal(nonce, nonce, plain, boundAAD(aad)), nil
}

// Open reverses Seal. The aad must match the one used during sealing.
func (s *Sealer) Open(payload, aad []byte) ([]byte, error) {
	if len(payload) < chacha20poly1305.NonceSizeX {
		return nil, errors.New("sealed payload too short")
	}
	nonce := payload[:chacha20poly1305.NonceSizeX]
	ct := payload[chacha20poly1305.NonceSizeX:]
	return s.aead.Open(nil, nonce, ct, boundAAD(aad))
}

// boundAAD joins the frame header and the context string without aliasing the
// caller's header buffer.
func boundAAD(aad []byte) []byte {
	out := make([]byte, 0, len(aad)+len(transportContext))
	out = append(out, aad...)
	return append(out, transportContext...)
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

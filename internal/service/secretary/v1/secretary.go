// Package secretary provides methods for ciphering values persisted on the client.
package secretary

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/danilovkiri/dk_go_qr_forge/internal/service/secretary"
)

// Check interface implementation explicitly
var (
	_ secretary.Secretary = (*Secretary)(nil)
)

// hkdfInfo binds derived keys to their use.
const hkdfInfo = "qrforge session storage"

// ErrShortMessage is returned when a sealed message is shorter than its nonce.
var ErrShortMessage = errors.New("sealed message too short")

// Secretary defines object structure and its attributes.
type Secretary struct {
	aesgcm cipher.AEAD
}

// NewSecretaryService initializes a secretary service with ciphering functionality derived from userKey.
func NewSecretaryService(userKey string) (*Secretary, error) {
	key := make([]byte, 32)
	kdf := hkdf.New(sha256.New, []byte(userKey), nil, []byte(hkdfInfo))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, err
	}
	aesblock, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aesgcm, err := cipher.NewGCM(aesblock)
	if err != nil {
		return nil, err
	}
	return &Secretary{aesgcm: aesgcm}, nil
}

// Encode ciphers data with a fresh random nonce prepended to the output.
func (s *Secretary) Encode(data string) (string, error) {
	nonce := make([]byte, s.aesgcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	encoded := s.aesgcm.Seal(nonce, nonce, []byte(data), nil)
	return hex.EncodeToString(encoded), nil
}

// Decode deciphers data produced by Encode.
func (s *Secretary) Decode(msg string) (string, error) {
	msgBytes, err := hex.DecodeString(msg)
	if err != nil {
		return "", err
	}
	n := s.aesgcm.NonceSize()
	if len(msgBytes) < n {
		return "", ErrShortMessage
	}
	decoded, err := s.aesgcm.Open(nil, msgBytes[:n], msgBytes[n:], nil)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
)

var ErrInvalidSignature = errors.New("invalid signature")

// Signer seals audit records with an HMAC-SHA256 so that edited entries can
// be detected later.
type Signer struct {
	secretKey []byte
	logger    *slog.Logger
}

func NewSigner(secretKey string, logger *slog.Logger) *Signer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Signer{
		secretKey: []byte(secretKey),
		logger:    logger,
	}
}

func (s *Signer) Sign(data []byte) string {
	mac := hmac.New(sha256.New, s.secretKey)
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *Signer) Verify(data []byte, signature string) error {
	expected := s.Sign(data)

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		s.logger.Warn("Signature verification failed",
			slog.Int("data_length", len(data)))
		return ErrInvalidSignature
	}

	return nil
}

func (s *Signer) SignString(data string) string {
	return s.Sign([]byte(data))
}

func (s *Signer) VerifyString(data, signature string) error {
	return s.Verify([]byte(data), signature)
}

package kalshi

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// Headers de autenticación de la API.
const (
	headerKey       = "KALSHI-ACCESS-KEY"
	headerTimestamp = "KALSHI-ACCESS-TIMESTAMP"
	headerSignature = "KALSHI-ACCESS-SIGNATURE"
)

// LoadPrivateKey lee una clave RSA en PEM (PKCS#1 o PKCS#8) desde disco.
func LoadPrivateKey(path string) (*rsa.PrivateKey, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("kalshi.LoadPrivateKey: %w", err)
	}
	return ParsePrivateKey(b)
}

// ParsePrivateKey decodifica una clave RSA en PEM.
func ParsePrivateKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("kalshi.ParsePrivateKey: no PEM block found")
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("kalshi.ParsePrivateKey: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("kalshi.ParsePrivateKey: key is %T, want RSA", parsed)
	}
	return key, nil
}

// signer firma cada petición con RSA-PSS sobre timestamp + método + path.
type signer struct {
	keyID string
	key   *rsa.PrivateKey
	now   func() time.Time
}

func newSigner(keyID string, key *rsa.PrivateKey) *signer {
	return &signer{keyID: keyID, key: key, now: time.Now}
}

// sign añade los headers de autenticación. Sin clave la petición sale sin firmar,
// que basta para los endpoints públicos de mercados.
func (s *signer) sign(req *http.Request, method, path string) error {
	if s == nil || s.key == nil {
		return nil
	}
	ts := strconv.FormatInt(s.now().UnixMilli(), 10)
	sig, err := s.signature(ts, method, path)
	if err != nil {
		return err
	}
	req.Header.Set(headerKey, s.keyID)
	req.Header.Set(headerTimestamp, ts)
	req.Header.Set(headerSignature, sig)
	return nil
}

// signature devuelve base64(RSA-PSS-SHA256(ts + METHOD + path)). La query no se firma.
func (s *signer) signature(ts, method, path string) (string, error) {
	path, _, _ = strings.Cut(path, "?")
	digest := sha256.Sum256([]byte(ts + method + path))
	sig, err := rsa.SignPSS(rand.Reader, s.key, crypto.SHA256, digest[:], &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
	})
	if err != nil {
		return "", fmt.Errorf("sign request: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// Package sso builds the encrypted, signed login tokens the shop's hosted
// login page accepts as proof of a verified identity.
//
// Token layout:
//
//	encKey    = SHA-256(secret)
//	sigKey    = SHA-256(secret || "signature")
//	data      = AES-256-CBC(encKey, iv, PKCS#7(claims JSON))
//	signature = HMAC-SHA256(sigKey, iv || data)
//	token     = base64url(JSON{iv, data, signature})   inner fields are standard base64
package sso

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/quick-orders/internal/domain"
)

const (
	signatureTag = "signature"
	ivSize       = aes.BlockSize
	// createdAtLayout is RFC 3339 in UTC with millisecond precision.
	createdAtLayout = "2006-01-02T15:04:05.000Z07:00"
)

var (
	ErrInvalidToken     = errors.New("malformed sso token")
	ErrInvalidSignature = errors.New("sso token signature mismatch")
)

// randReader is swapped in tests that need a failing entropy source.
var randReader io.Reader = rand.Reader

// Claims is the identity assertion carried by a token.
type Claims struct {
	Email     string
	CreatedAt time.Time
	FirstName string
	LastName  string
	ReturnTo  string
}

// wireClaims fixes the serialized field order.
type wireClaims struct {
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	ReturnTo  string `json:"return_to"`
}

func (c Claims) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireClaims{
		Email:     c.Email,
		CreatedAt: c.CreatedAt.UTC().Format(createdAtLayout),
		FirstName: c.FirstName,
		LastName:  c.LastName,
		ReturnTo:  c.ReturnTo,
	})
}

func (c *Claims) UnmarshalJSON(b []byte) error {
	var w wireClaims
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	created, err := time.Parse(time.RFC3339Nano, w.CreatedAt)
	if err != nil {
		return fmt.Errorf("created_at: %w", err)
	}
	*c = Claims{Email: w.Email, CreatedAt: created, FirstName: w.FirstName, LastName: w.LastName, ReturnTo: w.ReturnTo}
	return nil
}

type envelope struct {
	IV        string `json:"iv"`
	Data      string `json:"data"`
	Signature string `json:"signature"`
}

// deriveKeys returns the encryption and signing keys for secret.
func deriveKeys(secret string) (encKey, sigKey []byte) {
	enc := sha256.Sum256([]byte(secret))
	sig := sha256.Sum256([]byte(secret + signatureTag))
	return enc[:], sig[:]
}

// BuildToken encrypts and signs claims with keys derived from sharedSecret.
// Every call uses a fresh IV, so identical claims never yield identical tokens.
func BuildToken(claims Claims, sharedSecret string) (string, error) {
	if sharedSecret == "" {
		return "", fmt.Errorf("sso shared secret is not configured: %w", domain.ErrConfiguration)
	}
	plaintext, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("serialize sso claims: %w", err)
	}
	encKey, sigKey := deriveKeys(sharedSecret)

	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(randReader, iv); err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}
	block, err := aes.NewCipher(encKey)
	if err != nil {
		return "", fmt.Errorf("init cipher: %w", err)
	}
	padded := pad(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	env, err := json.Marshal(envelope{
		IV:        base64.StdEncoding.EncodeToString(iv),
		Data:      base64.StdEncoding.EncodeToString(ciphertext),
		Signature: base64.StdEncoding.EncodeToString(sign(sigKey, iv, ciphertext)),
	})
	if err != nil {
		return "", fmt.Errorf("serialize sso envelope: %w", err)
	}
	return base64.URLEncoding.EncodeToString(env), nil
}

// Open checks the signature of token and returns the decrypted claims bytes.
func Open(token, sharedSecret string) ([]byte, error) {
	if sharedSecret == "" {
		return nil, fmt.Errorf("sso shared secret is not configured: %w", domain.ErrConfiguration)
	}
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	iv, err1 := base64.StdEncoding.DecodeString(env.IV)
	ciphertext, err2 := base64.StdEncoding.DecodeString(env.Data)
	sig, err3 := base64.StdEncoding.DecodeString(env.Signature)
	if err := errors.Join(err1, err2, err3); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if len(iv) != ivSize || len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, ErrInvalidToken
	}

	encKey, sigKey := deriveKeys(sharedSecret)
	if !hmac.Equal(sig, sign(sigKey, iv, ciphertext)) {
		return nil, ErrInvalidSignature
	}
	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)
	out, err := unpad(plaintext, aes.BlockSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return out, nil
}

// Decode opens token and parses its claims.
func Decode(token, sharedSecret string) (Claims, error) {
	b, err := Open(token, sharedSecret)
	if err != nil {
		return Claims{}, err
	}
	var c Claims
	if err := json.Unmarshal(b, &c); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return c, nil
}

func sign(key, iv, ciphertext []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(iv)
	mac.Write(ciphertext)
	return mac.Sum(nil)
}

// pad applies PKCS#7 padding.
func pad(b []byte, size int) []byte {
	n := size - len(b)%size
	return append(bytes.Clone(b), bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(b []byte, size int) ([]byte, error) {
	if len(b) == 0 || len(b)%size != 0 {
		return nil, errors.New("invalid padded length")
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size || n > len(b) {
		return nil, errors.New("invalid padding")
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, errors.New("invalid padding")
		}
	}
	return b[:len(b)-n], nil
}

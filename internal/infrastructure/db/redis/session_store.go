package redis

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/hederavault/walletd/internal/core/domain"
	"github.com/hederavault/walletd/internal/core/ports"
)

const (
	defaultSessionKey = "walletd:session"
	keyInfo           = "walletd session store v1"
)

// SessionStore keeps the session sealed with XChaCha20-Poly1305 under a key
// derived from a shared secret. Tokens never reach Redis in clear text.
type SessionStore struct {
	client *redis.Client
	key    string
	aead   cipher.AEAD
}

var _ ports.SessionStore = (*SessionStore)(nil)

// NewSessionStore derives the sealing key from secret. key selects the Redis
// key; empty means the default.
func NewSessionStore(client *redis.Client, secret, key string) (*SessionStore, error) {
	if secret == "" {
		return nil, errors.New("session store: empty secret")
	}
	if key == "" {
		key = defaultSessionKey
	}

	dk := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo)), dk); err != nil {
		return nil, fmt.Errorf("session store: derive key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(dk)
	if err != nil {
		return nil, fmt.Errorf("session store: %w", err)
	}
	return &SessionStore{client: client, key: key, aead: aead}, nil
}

func (s *SessionStore) Load(ctx context.Context) (*domain.Session, error) {
	sealed, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotAuthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	n := s.aead.NonceSize()
	if len(sealed) < n {
		return nil, fmt.Errorf("load session: %w: truncated record", domain.ErrInvalidSession)
	}
	plain, err := s.aead.Open(nil, sealed[:n], sealed[n:], []byte(s.key))
	if err != nil {
		return nil, fmt.Errorf("load session: %w: %v", domain.ErrInvalidSession, err)
	}

	var session domain.Session
	if err := json.Unmarshal(plain, &session); err != nil {
		return nil, fmt.Errorf("load session: %w: %v", domain.ErrInvalidSession, err)
	}
	return &session, nil
}

func (s *SessionStore) Save(ctx context.Context, session *domain.Session) error {
	plain, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plain)+chacha20poly1305.Overhead)
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("save session: nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, plain, []byte(s.key))

	if err := s.client.Set(ctx, s.key, sealed, 0).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *SessionStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

package identity

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

type accessClaims struct {
	Email        string `json:"email"`
	UserMetadata struct {
		FullName string `json:"full_name"`
	} `json:"user_metadata"`
	jwt.RegisteredClaims
}

// VerifyToken checks an HS256 access token signed with secret and returns the
// identity it was issued for.
func VerifyToken(secret, token string) (*Identity, error) {
	if secret == "" {
		return nil, ErrNotConfigured
	}

	var claims accessClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, &AuthError{Code: "invalid_token", Message: err.Error()}
	}
	if !parsed.Valid {
		return nil, &AuthError{Code: "invalid_token", Message: "token is not valid"}
	}

	id, err := ParseID(claims.Subject)
	if err != nil {
		return nil, &AuthError{Code: "invalid_token", Message: err.Error()}
	}
	return &Identity{
		ID:       id,
		Email:    claims.Email,
		FullName: claims.UserMetadata.FullName,
	}, nil
}

// ParseID normalizes an identity id. Ids are UUIDs, so none of them can be
// mistaken for the local user.
func ParseID(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("parse identity id %q: %w", id, err)
	}
	return parsed.String(), nil
}

// FileTokenStore keeps the session in a YAML file.
type FileTokenStore struct {
	path string
	mu   sync.Mutex
}

// NewFileTokenStore creates a FileTokenStore writing to path.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

func (s *FileTokenStore) Load() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile(%s) > %w", s.path, err)
	}

	var session Session
	if err := yaml.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("yaml.Unmarshal(%s) > %w", s.path, err)
	}
	if session.AccessToken == "" {
		return nil, nil
	}
	return &session, nil
}

func (s *FileTokenStore) Save(session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(session)
	if err != nil {
		return fmt.Errorf("yaml.Marshal() > %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create directory %s: %w", filepath.Dir(s.path), err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("os.WriteFile(%s) > %w", s.path, err)
	}
	return nil
}

func (s *FileTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("os.Remove(%s) > %w", s.path, err)
	}
	return nil
}

// MemoryTokenStore keeps the session in memory.
type MemoryTokenStore struct {
	mu      sync.Mutex
	session *Session
}

func (s *MemoryTokenStore) Load() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil, nil
	}
	session := *s.session
	return &session, nil
}

func (s *MemoryTokenStore) Save(session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *session
	s.session = &copied
	return nil
}

func (s *MemoryTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
	return nil
}

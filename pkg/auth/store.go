// Package auth implements the credential store behind the signup and login
// routes: a flat user file with argon2id password hashes and an in-memory
// session table with TTL expiry.
//
// The flat file is the persistence boundary on purpose; the connection layer
// never touches this package directly, only the route handlers do.
package auth

import (
	"bufio"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"golang.org/x/crypto/argon2"
)

// Store is the capability the route handlers consume.
type Store interface {
	// InsertUser creates a new user and returns a fresh session token.
	InsertUser(username, password string) (string, error)

	// VerifyUser checks a username/password pair and returns a fresh
	// session token on success.
	VerifyUser(username, password string) (string, error)

	// VerifySession reports whether a session token is valid and unexpired.
	VerifySession(token string) bool
}

var (
	// ErrUserExists is returned by InsertUser for a taken username.
	ErrUserExists = errors.New("auth: user already exists")

	// ErrInvalidCredentials is returned by VerifyUser when the user is
	// unknown or the password does not match. The two cases are not
	// distinguished to the caller.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrBadUsername is returned for usernames the file format cannot hold.
	ErrBadUsername = errors.New("auth: invalid username")
)

// argon2id parameters, per the RFC 9106 second recommended option.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	saltLen      = 16
)

type session struct {
	username string
	expires  time.Time
}

// FileStore is the flat-file Store implementation. Users are stored one per
// line as "username|base64(salt)|base64(hash)". Sessions live in memory only
// and do not survive a restart.
type FileStore struct {
	path   string
	ttl    time.Duration
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]session

	cron *cron.Cron
}

// NewFileStore opens (creating if needed) the user file at path. Session
// tokens expire after ttl.
func NewFileStore(path string, ttl time.Duration, logger *slog.Logger) (*FileStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("auth: creating store directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("auth: opening user file: %w", err)
	}
	f.Close()

	return &FileStore{
		path:     path,
		ttl:      ttl,
		logger:   logger,
		sessions: make(map[string]session),
	}, nil
}

// InsertUser appends a new user record and issues a session token.
func (s *FileStore) InsertUser(username, password string) (string, error) {
	if username == "" || strings.ContainsAny(username, "|\n") {
		return "", ErrBadUsername
	}
	if password == "" {
		return "", ErrInvalidCredentials
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.lookupLocked(username); err == nil {
		return "", ErrUserExists
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("auth: generating salt: %w", err)
	}
	hash := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	line := fmt.Sprintf("%s|%s|%s\n",
		username,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return "", fmt.Errorf("auth: opening user file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return "", fmt.Errorf("auth: writing user record: %w", err)
	}

	return s.issueSessionLocked(username), nil
}

// VerifyUser checks credentials against the file and issues a session token.
func (s *FileStore) VerifyUser(username, password string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.lookupLocked(username)
	if err != nil {
		return "", ErrInvalidCredentials
	}

	hash := argon2.IDKey([]byte(password), rec.salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	if subtle.ConstantTimeCompare(hash, rec.hash) != 1 {
		return "", ErrInvalidCredentials
	}

	return s.issueSessionLocked(username), nil
}

// VerifySession reports whether the token maps to an unexpired session.
func (s *FileStore) VerifySession(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return false
	}
	if time.Now().After(sess.expires) {
		delete(s.sessions, token)
		return false
	}
	return true
}

// StartCleanup schedules the expired-session sweep with the given cron
// expression (e.g. "@every 10m").
func (s *FileStore) StartCleanup(schedule string) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, s.purgeExpired); err != nil {
		return fmt.Errorf("auth: invalid cleanup schedule %q: %w", schedule, err)
	}
	c.Start()
	s.cron = c
	return nil
}

// StopCleanup stops the sweep scheduler.
func (s *FileStore) StopCleanup() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *FileStore) purgeExpired() {
	now := time.Now()

	s.mu.Lock()
	removed := 0
	for token, sess := range s.sessions {
		if now.After(sess.expires) {
			delete(s.sessions, token)
			removed++
		}
	}
	remaining := len(s.sessions)
	s.mu.Unlock()

	if removed > 0 {
		s.logger.Debug("purged expired sessions", "removed", removed, "remaining", remaining)
	}
}

type userRecord struct {
	salt []byte
	hash []byte
}

var errUserNotFound = errors.New("auth: user not found")

// lookupLocked scans the user file for a username. Callers hold s.mu.
func (s *FileStore) lookupLocked(username string) (*userRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("auth: opening user file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "|")
		if len(fields) != 3 || fields[0] != username {
			continue
		}
		salt, err := base64.RawStdEncoding.DecodeString(fields[1])
		if err != nil {
			return nil, fmt.Errorf("auth: corrupt salt for %q: %w", username, err)
		}
		hash, err := base64.RawStdEncoding.DecodeString(fields[2])
		if err != nil {
			return nil, fmt.Errorf("auth: corrupt hash for %q: %w", username, err)
		}
		return &userRecord{salt: salt, hash: hash}, nil
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("auth: reading user file: %w", err)
	}
	return nil, errUserNotFound
}

// issueSessionLocked creates and records a new session token. Callers hold s.mu.
func (s *FileStore) issueSessionLocked(username string) string {
	token := uuid.NewString()
	s.sessions[token] = session{
		username: username,
		expires:  time.Now().Add(s.ttl),
	}
	return token
}

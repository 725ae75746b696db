package auth

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestStore(t *testing.T, ttl time.Duration) *FileStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.txt")
	s, err := NewFileStore(path, ttl, nil)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestFileStore_InsertAndVerifyUser(t *testing.T) {
	s := newTestStore(t, time.Hour)

	token, err := s.InsertUser("ada", "correct horse")
	if err != nil {
		t.Fatalf("InsertUser() error: %v", err)
	}
	if !s.VerifySession(token) {
		t.Error("session issued at signup is not valid")
	}

	login, err := s.VerifyUser("ada", "correct horse")
	if err != nil {
		t.Fatalf("VerifyUser() error: %v", err)
	}
	if !s.VerifySession(login) {
		t.Error("session issued at login is not valid")
	}
}

func TestFileStore_WrongPassword(t *testing.T) {
	s := newTestStore(t, time.Hour)

	if _, err := s.InsertUser("ada", "right"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.VerifyUser("ada", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("VerifyUser(wrong password) = %v, want ErrInvalidCredentials", err)
	}
	if _, err := s.VerifyUser("nobody", "right"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("VerifyUser(unknown user) = %v, want ErrInvalidCredentials", err)
	}
}

func TestFileStore_DuplicateUser(t *testing.T) {
	s := newTestStore(t, time.Hour)

	if _, err := s.InsertUser("ada", "pw"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.InsertUser("ada", "other"); !errors.Is(err, ErrUserExists) {
		t.Errorf("InsertUser(duplicate) = %v, want ErrUserExists", err)
	}
}

func TestFileStore_BadUsername(t *testing.T) {
	s := newTestStore(t, time.Hour)

	for _, name := range []string{"", "a|b", "a\nb"} {
		if _, err := s.InsertUser(name, "pw"); !errors.Is(err, ErrBadUsername) {
			t.Errorf("InsertUser(%q) = %v, want ErrBadUsername", name, err)
		}
	}
}

func TestFileStore_PasswordNotStoredInClear(t *testing.T) {
	s := newTestStore(t, time.Hour)

	if _, err := s.InsertUser("ada", "hunter2-plaintext"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "hunter2-plaintext") {
		t.Error("user file contains the plaintext password")
	}
	if !strings.HasPrefix(string(data), "ada|") {
		t.Errorf("unexpected record format: %q", data)
	}
}

func TestFileStore_SessionExpiry(t *testing.T) {
	s := newTestStore(t, 10*time.Millisecond)

	token, err := s.InsertUser("ada", "pw")
	if err != nil {
		t.Fatal(err)
	}
	if !s.VerifySession(token) {
		t.Fatal("fresh session invalid")
	}

	time.Sleep(20 * time.Millisecond)
	if s.VerifySession(token) {
		t.Error("expired session still valid")
	}
}

func TestFileStore_VerifySessionUnknownToken(t *testing.T) {
	s := newTestStore(t, time.Hour)
	if s.VerifySession("not-a-token") {
		t.Error("unknown token verified")
	}
}

func TestFileStore_PurgeExpired(t *testing.T) {
	s := newTestStore(t, 5*time.Millisecond)

	if _, err := s.InsertUser("ada", "pw"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.VerifyUser("ada", "pw"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(10 * time.Millisecond)

	s.purgeExpired()

	s.mu.Lock()
	n := len(s.sessions)
	s.mu.Unlock()
	if n != 0 {
		t.Errorf("%d sessions remain after purge, want 0", n)
	}
}

func TestFileStore_StartCleanup(t *testing.T) {
	s := newTestStore(t, time.Hour)

	if err := s.StartCleanup("@every 1h"); err != nil {
		t.Errorf("StartCleanup(valid) = %v", err)
	}
	s.StopCleanup()

	if err := s.StartCleanup("not a schedule"); err == nil {
		t.Error("StartCleanup(invalid) accepted a bad cron expression")
	}
}

func TestFileStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.txt")

	s1, err := NewFileStore(path, time.Hour, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s1.InsertUser("ada", "pw"); err != nil {
		t.Fatal(err)
	}

	s2, err := NewFileStore(path, time.Hour, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s2.VerifyUser("ada", "pw"); err != nil {
		t.Errorf("VerifyUser after reopen = %v, want nil", err)
	}
}

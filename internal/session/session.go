// Package session reads the externally owned login record.
//
// The record is written by the authentication collaborator (or the
// fintracker login/logout commands) and only ever read here.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the session's user record.
type User struct {
	ID    json.RawMessage `json:"id"`
	Name  string          `json:"name"`
	Email string          `json:"email"`
	Role  string          `json:"role"`
}

// Record is the whole shared session state.
type Record struct {
	Token string `json:"token,omitempty"`
	User  *User  `json:"user,omitempty"`
}

// Source gives read-only access to the current session bytes. A missing
// session is reported as (nil, nil).
type Source interface {
	Read(ctx context.Context) ([]byte, error)
}

// IdentityID extracts the user id, accepting JSON strings and numbers.
// Numbers are normalized to their shortest decimal form.
func (u *User) IdentityID() string {
	if u == nil || len(u.ID) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(u.ID, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(u.ID))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return ""
	}
	// 1, 1.0 and 1e0 name the same user.
	if d, err := decimal.NewFromString(n.String()); err == nil {
		return d.String()
	}
	return n.String()
}

// Parse decodes raw session bytes.
func Parse(raw []byte) (*Record, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	return &rec, nil
}

// ResolveIdentity returns the active identity id, or "" when there is no
// session or it cannot be read or parsed. It never fails.
func ResolveIdentity(ctx context.Context, src Source) string {
	if src == nil {
		return ""
	}
	raw, err := src.Read(ctx)
	if err != nil {
		return ""
	}
	rec, err := Parse(raw)
	if err != nil || rec == nil {
		return ""
	}
	return rec.User.IdentityID()
}

// FileSource reads the session from a JSON file.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: filepath.Clean(path)}
}

// Path returns the session file location.
func (f *FileSource) Path() string { return f.path }

func (f *FileSource) Read(_ context.Context) ([]byte, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	return raw, nil
}

// Write replaces the session file atomically so watchers never observe a
// half written record.
func (f *FileSource) Write(rec Record) error {
	raw, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".session-*")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

// Remove deletes the session file; a missing file is not an error.
func (f *FileSource) Remove() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// MemorySource holds the session in memory, for tests and embedding.
type MemorySource struct {
	mu  sync.Mutex
	raw []byte
	err error
}

func NewMemorySource() *MemorySource {
	return &MemorySource{}
}

func (m *MemorySource) Read(_ context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return append([]byte(nil), m.raw...), nil
}

// SetRaw stores raw bytes verbatim, malformed or not.
func (m *MemorySource) SetRaw(raw string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.raw = []byte(raw)
	m.err = nil
}

// SetUser stores a session for a user with a string id.
func (m *MemorySource) SetUser(id, name, role string) {
	idJSON, _ := json.Marshal(id)
	raw, _ := json.Marshal(Record{Token: "token-" + id, User: &User{ID: idJSON, Name: name, Role: role}})
	m.SetRaw(string(raw))
}

// SetError makes subsequent reads fail with err.
func (m *MemorySource) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Clear removes the session.
func (m *MemorySource) Clear() {
	m.SetRaw("")
}

// NewUserRecord builds a session record for id.
func NewUserRecord(token, id, name, email, role string) Record {
	idJSON, _ := json.Marshal(id)
	return Record{Token: token, User: &User{ID: idJSON, Name: name, Email: email, Role: role}}
}

var (
	_ Source = (*FileSource)(nil)
	_ Source = (*MemorySource)(nil)
)

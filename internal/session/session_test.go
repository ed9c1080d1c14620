package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fintracker/internal/log"
)

func TestResolveIdentity(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"string id", `{"token":"t","user":{"id":"abc123","role":"user"}}`, "abc123"},
		{"numeric id", `{"user":{"id":1718000000000,"name":"n"}}`, "1718000000000"},
		{"numeric id with fraction", `{"user":{"id":1.0}}`, "1"},
		{"numeric id with exponent", `{"user":{"id":42e1}}`, "420"},
		{"numeric string is kept", `{"user":{"id":"1.0"}}`, "1.0"},
		{"no session", ``, ""},
		{"no user", `{"token":"t"}`, ""},
		{"null id", `{"user":{"id":null}}`, ""},
		{"blank id", `{"user":{"id":"  "}}`, ""},
		{"object id", `{"user":{"id":{"oid":1}}}`, ""},
		{"malformed json", `{"user":`, ""},
		{"not an object", `"just a string"`, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src := NewMemorySource()
			src.SetRaw(tc.raw)
			if got := ResolveIdentity(ctx, src); got != tc.want {
				t.Fatalf("ResolveIdentity() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestResolveIdentityReadError(t *testing.T) {
	src := NewMemorySource()
	src.SetUser("u1", "Ann", RoleUser)
	src.SetError(errors.New("disk gone"))
	if got := ResolveIdentity(context.Background(), src); got != "" {
		t.Fatalf("expected no identity on read error, got %q", got)
	}
	if got := ResolveIdentity(context.Background(), nil); got != "" {
		t.Fatalf("expected no identity for nil source, got %q", got)
	}
}

func TestFileSourceWriteReadRemove(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "session.json")
	src := NewFileSource(path)

	if got := ResolveIdentity(ctx, src); got != "" {
		t.Fatalf("expected no identity before login, got %q", got)
	}

	if err := src.Write(NewUserRecord("tok", "u-7", "Ann", "ann@example.com", RoleAdmin)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := ResolveIdentity(ctx, src); got != "u-7" {
		t.Fatalf("expected u-7, got %q", got)
	}

	raw, _ := src.Read(ctx)
	rec, err := Parse(raw)
	if err != nil || rec.User.Role != RoleAdmin || rec.User.Email != "ann@example.com" {
		t.Fatalf("unexpected record %+v err=%v", rec, err)
	}

	if err := src.Remove(); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := src.Remove(); err != nil {
		t.Fatalf("second remove should be a no-op: %v", err)
	}
	if got := ResolveIdentity(ctx, src); got != "" {
		t.Fatalf("expected no identity after logout, got %q", got)
	}
}

func TestWatcherNotifiesOnSessionChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.json")
	w := NewWatcher(path, log.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notified := make(chan struct{}, 16)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func() { notified <- struct{}{} })
	}()

	// Unrelated files in the same directory are ignored; the session write is
	// retried because the watch may not be registered yet.
	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	src := NewFileSource(path)
	deadline := time.After(5 * time.Second)
	for got := false; !got; {
		if err := src.Write(NewUserRecord("t", "u1", "", "", RoleUser)); err != nil {
			t.Fatal(err)
		}
		select {
		case <-notified:
			got = true
		case <-time.After(100 * time.Millisecond):
		case <-deadline:
			t.Fatal("no notification for session write")
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

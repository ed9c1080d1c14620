// Package storage maps (user, collection) pairs to isolated durable buckets.
//
// Snapshots are stored as JSON. Reads are fail-soft: a missing identity, a
// missing bucket, or a payload that no longer parses all yield the caller's
// default, since the local store is a cache and never the source of truth.
package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"fintracker/internal/log"
)

// Scoped is the per-identity view over a Backend.
type Scoped struct {
	backend   Backend
	namespace string
	logger    *log.Logger
}

func NewScoped(backend Backend, namespace string, logger *log.Logger) *Scoped {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if logger == nil {
		logger = log.Default(log.ComponentStorage)
	}
	return &Scoped{
		backend:   backend,
		namespace: namespace,
		logger:    logger.WithComponent(log.ComponentStorage),
	}
}

// Key returns the bucket key for userID and collection.
func (s *Scoped) Key(userID, collection string) Key {
	return Key{Namespace: s.namespace, UserID: userID, Collection: collection}
}

// Load decodes the bucket for (userID, collection) into a fresh T, returning
// def when there is no identity, no stored value, or the value fails to parse.
func Load[T any](ctx context.Context, s *Scoped, userID, collection string, def T) T {
	if userID == "" {
		return def
	}
	key := s.Key(userID, collection)
	raw, found, err := s.backend.Get(ctx, key)
	if err != nil {
		s.logger.Fields(ctx, log.LevelWarn, "Snapshot load failed, using default",
			log.NewFields().WithBucket(userID, collection).WithOperation(log.OpLoad).WithError(err))
		return def
	}
	if !found {
		return def
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		s.logger.Fields(ctx, log.LevelWarn, "Corrupt snapshot ignored",
			log.NewFields().WithBucket(userID, collection).WithOperation(log.OpParse).WithError(err))
		return def
	}
	return out
}

// Invalidate drops any in-process copy of userID's buckets so the next Load
// reads what is durably stored.
func (s *Scoped) Invalidate(userID string) {
	inv, ok := s.backend.(Invalidator)
	if !ok || userID == "" {
		return
	}
	if n := inv.InvalidateUser(s.namespace, userID); n > 0 {
		s.logger.Debug("Cached snapshots invalidated",
			log.FieldUserID, userID,
			log.FieldCount, n)
	}
}

// Save stores value as the snapshot for (userID, collection). Without an
// identity it does nothing.
func (s *Scoped) Save(ctx context.Context, userID, collection string, value any) error {
	if userID == "" {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", collection, err)
	}
	if err := s.backend.Put(ctx, s.Key(userID, collection), raw); err != nil {
		return fmt.Errorf("save %s: %w", collection, err)
	}
	return nil
}

// Clear removes every collection stored for userID.
func (s *Scoped) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	if err := s.backend.DeleteUser(ctx, s.namespace, userID); err != nil {
		return fmt.Errorf("clear user %s: %w", userID, err)
	}
	return nil
}

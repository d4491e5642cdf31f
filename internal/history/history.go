// Package history keeps generated artifacts and chat sessions.
package history

import (
	"context"
	"strings"
	"time"

	"fluxcareer/internal/config"
	"fluxcareer/internal/errors"
	"fluxcareer/internal/types"

	"github.com/google/uuid"
)

const (
	titleLimit    = 40
	untitledJob   = "Untitled Job"
	titleEllipsis = "..."
)

// ArtifactStore keeps the most recent generated documents, newest first
type ArtifactStore interface {
	Add(ctx context.Context, item types.HistoryItem) error
	List(ctx context.Context) ([]types.HistoryItem, error)
	Get(ctx context.Context, id string) (types.HistoryItem, error)
	Delete(ctx context.Context, id string) error
}

// SessionStore keeps chat transcripts keyed by session id. Messages are
// only ever appended.
type SessionStore interface {
	Load(ctx context.Context, sessionID string) ([]types.ChatMessage, error)
	Append(ctx context.Context, sessionID string, msgs ...types.ChatMessage) error
}

// Stores bundles both stores of one backend
type Stores struct {
	Artifacts ArtifactStore
	Sessions  SessionStore
	close     func() error
}

// Close releases the backend connection, if any
func (s *Stores) Close() error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close()
}

// Open creates the stores for the configured backend
func Open(ctx context.Context, cfg config.HistoryConfig) (*Stores, error) {
	switch cfg.Backend {
	case "", "memory":
		return &Stores{
			Artifacts: NewMemoryArtifactStore(cfg.MaxItems),
			Sessions:  NewMemorySessionStore(cfg.MaxMessages),
		}, nil
	case "redis":
		client, err := NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return &Stores{
			Artifacts: NewRedisArtifactStore(client, cfg.KeyPrefix, cfg.MaxItems),
			Sessions:  NewRedisSessionStore(client, cfg.KeyPrefix, cfg.MaxMessages, cfg.SessionTTL),
			close:     client.Close,
		}, nil
	}
	return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
		"unsupported history backend: "+cfg.Backend, nil)
}

// JobTitle derives a display title from the first line of a job description
func JobTitle(jobDescription string) string {
	first, _, _ := strings.Cut(jobDescription, "\n")
	first = strings.TrimSpace(first)
	if first == "" {
		return untitledJob
	}
	runes := []rune(first)
	if len(runes) > titleLimit {
		runes = runes[:titleLimit]
	}
	return string(runes) + titleEllipsis
}

// NewItem creates a history entry for content generated from jobDescription
func NewItem(jobDescription, content string, now time.Time) types.HistoryItem {
	return types.HistoryItem{
		ID:        uuid.NewString(),
		Timestamp: now.UTC().Format(time.RFC3339),
		JobTitle:  JobTitle(jobDescription),
		Content:   content,
	}
}

// NewMessage creates a chat message stamped with now
func NewMessage(role types.Role, content string, now time.Time) types.ChatMessage {
	return types.ChatMessage{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: now.UnixMilli(),
	}
}

func notFound(id string) error {
	return errors.NewNotFoundError(errors.ErrCodeHistoryNotFound, "history item not found: "+id)
}

// Package store keeps named templates in redis so every render worker sees
// the same set.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrNotFound is returned when no template is stored under a name.
var ErrNotFound = errors.New("template not found")

// TemplateStore stores template source under prefixed redis keys
type TemplateStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewTemplateStore creates a new redis template store. A zero ttl keeps
// templates until they are deleted.
func NewTemplateStore(client *redis.Client, prefix string, ttl time.Duration, logger *zap.Logger) *TemplateStore {
	return &TemplateStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger,
	}
}

func (s *TemplateStore) key(name string) string {
	return s.prefix + name
}

// globEscaper escapes the characters SCAN MATCH treats as pattern syntax.
var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// pattern matches every key under the prefix and nothing else
func (s *TemplateStore) pattern() string {
	return globEscaper.Replace(s.prefix) + "*"
}

// Save stores template source under name
func (s *TemplateStore) Save(ctx context.Context, name, src string) error {
	if name == "" {
		return fmt.Errorf("template name is required")
	}

	if err := s.client.Set(ctx, s.key(name), src, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save template: %w", err)
	}

	s.logger.Debug("template saved", zap.String("name", name), zap.Int("bytes", len(src)))
	return nil
}

// Load returns the template stored under name
func (s *TemplateStore) Load(ctx context.Context, name string) (string, error) {
	src, err := s.client.Get(ctx, s.key(name)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return "", fmt.Errorf("failed to load template: %w", err)
	}
	return src, nil
}

// Delete removes a template
func (s *TemplateStore) Delete(ctx context.Context, name string) error {
	if err := s.client.Del(ctx, s.key(name)).Err(); err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	return nil
}

// Exists checks whether a template is stored under name
func (s *TemplateStore) Exists(ctx context.Context, name string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(name)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return n > 0, nil
}

// SetTTL sets a time-to-live for a stored template
func (s *TemplateStore) SetTTL(ctx context.Context, name string, ttl time.Duration) error {
	if err := s.client.Expire(ctx, s.key(name), ttl).Err(); err != nil {
		return fmt.Errorf("failed to set TTL: %w", err)
	}
	return nil
}

// List returns the names of all stored templates
func (s *TemplateStore) List(ctx context.Context) ([]string, error) {
	var names []string
	iter := s.client.Scan(ctx, 0, s.pattern(), 100).Iterator()
	for iter.Next(ctx) {
		name, ok := strings.CutPrefix(iter.Val(), s.prefix)
		if ok && name != "" {
			names = append(names, name)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return names, nil
}

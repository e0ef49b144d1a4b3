package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduplicator remembers detail links already crawled, using Redis
type Deduplicator struct {
	client     *redis.Client
	prefix     string
	defaultTTL time.Duration
}

// NewDeduplicator creates a new Redis-based deduplicator
func NewDeduplicator(client *redis.Client, prefix string, defaultTTL time.Duration) *Deduplicator {
	if prefix == "" {
		prefix = "dedup"
	}
	if defaultTTL == 0 {
		defaultTTL = 24 * time.Hour * 30 // 30 days default
	}
	return &Deduplicator{
		client:     client,
		prefix:     prefix,
		defaultTTL: defaultTTL,
	}
}

// IsSeen checks if a link has been crawled before
func (d *Deduplicator) IsSeen(ctx context.Context, source, link string) (bool, error) {
	exists, err := d.client.Exists(ctx, d.makeKey(source, link)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return exists > 0, nil
}

// MarkSeen marks a link as crawled with the default TTL
func (d *Deduplicator) MarkSeen(ctx context.Context, source, link string) error {
	err := d.client.Set(ctx, d.makeKey(source, link), time.Now().Unix(), d.defaultTTL).Err()
	if err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (d *Deduplicator) makeKey(source, link string) string {
	return fmt.Sprintf("%s:%s:%s", d.prefix, source, hashLink(link))
}

func hashLink(link string) string {
	h := sha256.Sum256([]byte(link))
	return hex.EncodeToString(h[:16]) // First 16 bytes (32 hex chars)
}

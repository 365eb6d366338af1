package cache

import (
	"crypto/sha1"
	"fmt"
	"strings"
	"time"
)

const (
	SessionTTL  = 2 * time.Hour
	SnapshotTTL = 10 * time.Minute
	LockTTL     = 2 * time.Minute
)

// SessionKey generates Redis key for a planner session
func SessionKey(id string) string {
	return fmt.Sprintf("planner:session:%s", id)
}

// SessionLockKey generates Redis key for the per-session action lock
func SessionLockKey(id string) string {
	return fmt.Sprintf("lock:planner:session:%s", id)
}

// SnapshotKey generates Redis key for a cached SEO snapshot
func SnapshotKey(pageURL string) string {
	hash := sha1.Sum([]byte(strings.TrimSpace(pageURL)))
	return fmt.Sprintf("cache:v1:seo:%x", hash)
}

// GetTTL returns the appropriate TTL for a given key
func GetTTL(key string) time.Duration {
	switch {
	case strings.HasPrefix(key, "lock:"):
		return LockTTL
	case strings.HasPrefix(key, "planner:session:"):
		return SessionTTL
	case strings.HasPrefix(key, "cache:v1:seo:"):
		return SnapshotTTL
	default:
		return 5 * time.Minute
	}
}

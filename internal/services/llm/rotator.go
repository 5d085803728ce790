package llm

import (
	"strings"
	"sync"
)

// KeyRotator hands out API keys round-robin. It is safe for concurrent use.
type KeyRotator struct {
	mu   sync.Mutex
	keys []string
	next int
}

// NewKeyRotator drops blank and duplicate keys.
func NewKeyRotator(keys []string) *KeyRotator {
	seen := make(map[string]struct{}, len(keys))
	r := &KeyRotator{}
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		r.keys = append(r.keys, key)
	}
	return r
}

// Next returns the next key, or "" when none are configured.
func (r *KeyRotator) Next() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.keys) == 0 {
		return ""
	}
	key := r.keys[r.next%len(r.keys)]
	r.next = (r.next + 1) % len(r.keys)
	return key
}

// Len reports how many distinct keys are available.
func (r *KeyRotator) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.keys)
}

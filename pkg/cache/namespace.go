package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Well-known namespaces.
const (
	NamespaceContext = "context" // Whole gather results.
	NamespaceLLM     = "llm"     // Reasoning-service responses.
)

// Namespace is a typed view over one partition of a Store.
type Namespace[T any] struct {
	store *Store
	name  string
}

// NewNamespace returns a typed view of store. It panics if name is empty or
// contains a path separator or the record separator, since namespaces are
// fixed at compile time.
func NewNamespace[T any](store *Store, name string) Namespace[T] {
	if name == "" || strings.Contains(name, separator) || strings.ContainsAny(name, `/\`) {
		panic(fmt.Sprintf("cache: invalid namespace %q", name))
	}
	return Namespace[T]{store: store, name: name}
}

// Name returns the namespace name.
func (n Namespace[T]) Name() string {
	return n.name
}

// Enabled reports whether the namespace is backed by a store.
func (n Namespace[T]) Enabled() bool {
	return n.store != nil
}

// Get returns the cached value. Expired, unreadable and undecodable records are misses.
func (n Namespace[T]) Get(key string) (T, bool) {
	var value T
	raw, ok := n.store.get(n.name, key)
	if !ok {
		return value, false
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		n.store.logger.Debug("Cache value does not decode", zap.String("namespace", n.name), zap.Error(err))
		var zero T
		return zero, false
	}
	return value, true
}

// Set stores value under key. Errors are swallowed.
func (n Namespace[T]) Set(key string, value T) {
	n.store.set(n.name, key, value)
}

// Delete removes the record under key.
func (n Namespace[T]) Delete(key string) error {
	return n.store.Delete(n.name, key)
}

// MakeKey hashes parts in order into a hex digest. Strings are hashed as-is,
// anything else is JSON-encoded first. The hash is order-sensitive, so callers
// must normalize (for example sort) their inputs.
func MakeKey(parts ...any) string {
	h := sha256.New()
	for i, part := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		switch v := part.(type) {
		case string:
			h.Write([]byte(v))
		default:
			encoded, err := json.Marshal(v)
			if err != nil {
				fmt.Fprintf(h, "%#v", v)
				continue
			}
			h.Write(encoded)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// fileKey keeps hex keys as they are and hashes anything else into a safe file name.
func fileKey(key string) string {
	if key != "" && isHex(key) {
		return key
	}
	return MakeKey(key)
}

func isHex(s string) bool {
	for _, r := range s {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			return false
		}
	}
	return true
}

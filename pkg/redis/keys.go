package redis

import "strings"

const defaultKeyPrefix = "gh"

// Keyspace builds colon-separated keys under one prefix so several
// deployments can share a redis database.
type Keyspace struct {
	prefix string
}

func NewKeyspace(prefix string) Keyspace {
	prefix = strings.Trim(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return Keyspace{prefix: prefix}
}

func (k Keyspace) IdempotencyKey(scope, id string) string {
	return k.join("idempotency", scope, id)
}

func (k Keyspace) RateLimitKey(scope string) string {
	return k.join("rate_limit", scope)
}

func (k Keyspace) CounterKey(name string) string {
	return k.join("counter", name)
}

func (k Keyspace) CacheKey(scope, id string) string {
	return k.join("cache", scope, id)
}

func (k Keyspace) LockKey(name string) string {
	return k.join("lock", name)
}

func (k Keyspace) join(parts ...string) string {
	prefix := k.prefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	var b strings.Builder
	b.WriteString(prefix)
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		b.WriteByte(':')
		b.WriteString(p)
	}
	return b.String()
}

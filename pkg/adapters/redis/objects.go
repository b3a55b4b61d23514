package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// putScript performs the conditional write.
// KEYS: object hash, index zset. ARGV: ifMatch, ifNoneMatch, body, modified ms, key.
var putScript = backend.NewScript(`
local cur = redis.call("HGET", KEYS[1], "version")
if ARGV[2] == "1" and cur then
	return -1
end
if ARGV[1] ~= "" and cur ~= ARGV[1] then
	return -1
end
local v = redis.call("HINCRBY", KEYS[1], "version", 1)
redis.call("HSET", KEYS[1], "body", ARGV[3], "modified", ARGV[4])
redis.call("ZADD", KEYS[2], ARGV[4], ARGV[5])
return v
`)

// ObjectStore implements ports.ObjectStore on Redis hashes. Each object keeps
// its body, a revision counter and a modification time; a sorted set lists keys.
type ObjectStore struct {
	client *backend.Client
	prefix string
}

// NewObjectStore creates an object store on client.
func NewObjectStore(client *backend.Client, opts ...Option) *ObjectStore {
	o := buildOptions(opts)
	return &ObjectStore{client: client, prefix: o.prefix}
}

func (s *ObjectStore) key(k string) string { return s.prefix + "obj:" + k }
func (s *ObjectStore) indexKey() string    { return s.prefix + "obj:index" }

// Get loads an object.
func (s *ObjectStore) Get(ctx context.Context, key string) (*ports.Object, error) {
	vals, err := s.client.HGetAll(ctx, s.key(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get %s from redis: %w", key, err)
	}
	if len(vals) == 0 {
		return nil, ports.ErrObjectNotFound
	}
	ms, _ := strconv.ParseInt(vals["modified"], 10, 64)
	return &ports.Object{
		Key:          key,
		Body:         []byte(vals["body"]),
		Version:      vals["version"],
		LastModified: time.UnixMilli(ms),
	}, nil
}

// Put writes atomically through a Lua script.
func (s *ObjectStore) Put(ctx context.Context, key string, body []byte, opts ports.PutOptions) (string, error) {
	ifNone := "0"
	if opts.IfNoneMatch {
		ifNone = "1"
	}
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)

	v, err := putScript.Run(ctx, s.client, []string{s.key(key), s.indexKey()}, opts.IfMatch, ifNone, body, now, key).Int64()
	if err != nil {
		return "", fmt.Errorf("failed to put %s to redis: %w", key, err)
	}
	if v < 0 {
		return "", domain.ErrVersionConflict
	}
	return strconv.FormatInt(v, 10), nil
}

// List reads the index and keeps keys under prefix.
func (s *ObjectStore) List(ctx context.Context, prefix string) ([]ports.ObjectInfo, error) {
	members, err := s.client.ZRangeWithScores(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}
	var out []ports.ObjectInfo
	for _, m := range members {
		k, _ := m.Member.(string)
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		out = append(out, ports.ObjectInfo{
			Key:          k,
			Filename:     strings.TrimPrefix(k, prefix),
			LastModified: time.UnixMilli(int64(m.Score)),
		})
	}
	return out, nil
}

// Delete removes an object and its index entry.
func (s *ObjectStore) Delete(ctx context.Context, key string) error {
	pipe := s.client.TxPipeline()
	del := pipe.Del(ctx, s.key(key))
	pipe.ZRem(ctx, s.indexKey(), key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	if del.Val() == 0 {
		return ports.ErrObjectNotFound
	}
	return nil
}

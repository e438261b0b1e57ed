// Package presence tracks which transport connection, if any, a user is
// currently reachable on. The mapping lives in redis so every server
// instance sees the same view. A user has at most one entry; a newer
// connection simply overwrites the previous one (last write wins).
package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Directory struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDirectory(client *redis.Client, ttl time.Duration) *Directory {
	return &Directory{client: client, ttl: ttl}
}

func socketKey(userID uint) string {
	return fmt.Sprintf("socket:%d", userID)
}

func (d *Directory) Set(ctx context.Context, userID uint, handle string) error {
	return d.client.Set(ctx, socketKey(userID), handle, d.ttl).Err()
}

// Get returns the registered connection handle, or "" when the user has
// no live connection.
func (d *Directory) Get(ctx context.Context, userID uint) (string, error) {
	handle, err := d.client.Get(ctx, socketKey(userID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return handle, nil
}

// deleteIfOwner removes the entry only when it still belongs to the given
// handle, so a disconnect arriving after a reconnect cannot wipe out the
// newer session's registration.
var deleteIfOwner = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

func (d *Directory) Delete(ctx context.Context, userID uint, handle string) error {
	return deleteIfOwner.Run(ctx, d.client, []string{socketKey(userID)}, handle).Err()
}

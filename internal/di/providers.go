// Package di wires the application graph together.
package di

import (
	"time"

	"github.com/go-redis/redis/v8"

	"mindbridge/config"
	"mindbridge/internal/ai"
	"mindbridge/internal/cache"
	"mindbridge/internal/email"
	"mindbridge/internal/presence"
	"mindbridge/pkg/jwt"
)

func provideJWT(cfg *config.Config) *jwt.JWT {
	return jwt.NewJWT(cfg.JWTSecret, cfg.JWTExpireSeconds)
}

func provideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	return cache.NewRedisCache(cfg.RedisAddr)
}

func provideRedisClient(c *cache.RedisCache) *redis.Client {
	return c.Client
}

// presenceTTL caps how long a stale entry survives a crash that skipped
// the disconnect cleanup.
const presenceTTL = 24 * time.Hour

func providePresence(client *redis.Client) *presence.Directory {
	return presence.NewDirectory(client, presenceTTL)
}

func provideEmailSender(cfg *config.Config) *email.Sender {
	return email.NewSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.EmailFrom)
}

func provideLLMClient(cfg *config.Config) *ai.OpenAIClient {
	return ai.NewOpenAIClient(cfg.OpenAIKey, cfg.OpenAIModel)
}

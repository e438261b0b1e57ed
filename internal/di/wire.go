//go:build wireinject
// +build wireinject

package di

import (
	"database/sql"

	"github.com/google/wire"

	"mindbridge/config"
	"mindbridge/internal/ai"
	"mindbridge/internal/api"
	"mindbridge/internal/appointments"
	"mindbridge/internal/auth"
	"mindbridge/internal/chat"
	"mindbridge/internal/database"
	"mindbridge/internal/email"
	"mindbridge/internal/messaging"
	"mindbridge/internal/presence"
	"mindbridge/internal/rooms"
	"mindbridge/internal/therapists"
	"mindbridge/internal/users"
)

func InitializeServer(cfg *config.Config, conn *sql.DB, db *database.Database) (*api.Server, error) {
	wire.Build(
		provideJWT,
		provideRedisCache,
		provideRedisClient,
		providePresence,
		provideEmailSender,
		provideLLMClient,

		chat.NewPostgresRepository,
		wire.Bind(new(chat.Repository), new(*chat.PostgresRepository)),
		chat.NewRedisHistory,
		wire.Bind(new(chat.History), new(*chat.RedisHistory)),
		wire.Bind(new(chat.Presence), new(*presence.Directory)),
		chat.NewHub,
		chat.NewSocketHandler,

		auth.NewService,
		wire.Bind(new(auth.EmailSender), new(*email.Sender)),
		auth.NewJSONHandler,

		messaging.NewJSONHandler,

		rooms.NewService,
		rooms.NewJSONHandler,

		ai.NewService,
		wire.Bind(new(ai.LLMClient), new(*ai.OpenAIClient)),
		ai.NewJSONHandler,

		appointments.NewService,
		wire.Bind(new(appointments.EmailSender), new(*email.Sender)),
		appointments.NewJSONHandler,

		therapists.NewService,
		therapists.NewJSONHandler,

		users.NewService,
		users.NewJSONHandler,

		api.NewServer,
	)
	return nil, nil
}

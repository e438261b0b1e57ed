package rooms

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mindbridge/infrastructure"
	"mindbridge/internal/database"
)

func newTestDB(t *testing.T) *database.Database {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	tdb := &database.Database{DB: db}
	require.NoError(t, tdb.Migrate())
	return tdb
}

func TestCreateRoomEnrollsCreator(t *testing.T) {
	db := newTestDB(t)
	s := NewService(db)
	ctx := context.Background()

	room, err := s.Create(ctx, "Anxiety Support", "weekly check-ins", 1)
	require.NoError(t, err)
	assert.NotZero(t, room.ID)
	assert.True(t, room.IsActive)

	list, err := s.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Anxiety Support", list[0].Name)
}

func TestCreateRoomRequiresName(t *testing.T) {
	s := NewService(newTestDB(t))
	_, err := s.Create(context.Background(), "", "", 1)
	assert.ErrorIs(t, err, infrastructure.ErrValidation)
}

func TestAddMemberIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	s := NewService(db)
	ctx := context.Background()

	room, err := s.Create(ctx, "Anxiety Support", "", 1)
	require.NoError(t, err)

	require.NoError(t, s.AddMember(ctx, room.ID, 2))
	require.NoError(t, s.AddMember(ctx, room.ID, 2), "re-joining must not fail")

	var count int64
	require.NoError(t, db.Model(&database.ChatRoomMember{}).
		Where("chat_room_id = ? AND user_id = ?", room.ID, 2).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestAddMemberUnknownRoom(t *testing.T) {
	s := NewService(newTestDB(t))
	err := s.AddMember(context.Background(), 999, 2)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRemoveMemberAndList(t *testing.T) {
	db := newTestDB(t)
	s := NewService(db)
	ctx := context.Background()

	room, err := s.Create(ctx, "Anxiety Support", "", 1)
	require.NoError(t, err)
	require.NoError(t, s.AddMember(ctx, room.ID, 2))

	require.NoError(t, s.RemoveMember(ctx, room.ID, 2))

	list, err := s.List(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, list)

	// Removing a non-member is a quiet no-op.
	require.NoError(t, s.RemoveMember(ctx, room.ID, 2))
}

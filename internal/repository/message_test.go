package repository

import (
	"context"
	"testing"
	"time"

	"warbler/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageRepository_GetByID(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)
	messages := NewMessageRepository(db)
	ctx := context.Background()

	ada, err := users.Signup(ctx, "ada", "secret1", "ada@example.com", "")
	require.NoError(t, err)

	msg := &models.Message{Text: "hello", UserID: ada.ID}
	require.NoError(t, messages.Create(ctx, msg))

	got, err := messages.GetByID(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Text)
	assert.Equal(t, "ada", got.User.Username)

	_, err = messages.GetByID(ctx, 999)
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestMessageRepository_ListByOwners(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)
	messages := NewMessageRepository(db)
	ctx := context.Background()

	ada, err := users.Signup(ctx, "ada", "secret1", "ada@example.com", "")
	require.NoError(t, err)
	grace, err := users.Signup(ctx, "grace", "secret1", "grace@example.com", "")
	require.NoError(t, err)
	outsider, err := users.Signup(ctx, "outsider", "secret1", "out@example.com", "")
	require.NoError(t, err)

	now := time.Now()
	older := &models.Message{Text: "older", UserID: ada.ID, CreatedAt: now.Add(-2 * time.Hour)}
	require.NoError(t, messages.Create(ctx, older))
	newer := &models.Message{Text: "newer", UserID: grace.ID, CreatedAt: now.Add(-1 * time.Hour)}
	require.NoError(t, messages.Create(ctx, newer))
	excluded := &models.Message{Text: "excluded", UserID: outsider.ID, CreatedAt: now}
	require.NoError(t, messages.Create(ctx, excluded))

	feed, err := messages.ListByOwners(ctx, []uint{ada.ID, grace.ID}, 100)
	require.NoError(t, err)
	require.Len(t, feed, 2)

	// Newest first, outsider excluded.
	assert.Equal(t, "newer", feed[0].Text)
	assert.Equal(t, "older", feed[1].Text)

	limited, err := messages.ListByOwners(ctx, []uint{ada.ID, grace.ID}, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "newer", limited[0].Text)

	empty, err := messages.ListByOwners(ctx, nil, 100)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMessageRepository_Delete_RemovesLikes(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)
	messages := NewMessageRepository(db)
	likes := NewLikeRepository(db)
	ctx := context.Background()

	ada, err := users.Signup(ctx, "ada", "secret1", "ada@example.com", "")
	require.NoError(t, err)
	grace, err := users.Signup(ctx, "grace", "secret1", "grace@example.com", "")
	require.NoError(t, err)

	msg := &models.Message{Text: "hello", UserID: ada.ID}
	require.NoError(t, messages.Create(ctx, msg))
	require.NoError(t, likes.Like(ctx, grace.ID, msg.ID))

	require.NoError(t, messages.Delete(ctx, msg.ID))

	_, err = messages.GetByID(ctx, msg.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	var count int64
	db.Model(&models.Like{}).Where("message_id = ?", msg.ID).Count(&count)
	assert.Zero(t, count)
}

func TestMessageRepository_ListLikedBy(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)
	messages := NewMessageRepository(db)
	likes := NewLikeRepository(db)
	ctx := context.Background()

	ada, err := users.Signup(ctx, "ada", "secret1", "ada@example.com", "")
	require.NoError(t, err)
	grace, err := users.Signup(ctx, "grace", "secret1", "grace@example.com", "")
	require.NoError(t, err)

	liked := &models.Message{Text: "liked", UserID: grace.ID}
	require.NoError(t, messages.Create(ctx, liked))
	ignored := &models.Message{Text: "ignored", UserID: grace.ID}
	require.NoError(t, messages.Create(ctx, ignored))

	require.NoError(t, likes.Like(ctx, ada.ID, liked.ID))

	got, err := messages.ListLikedBy(ctx, ada.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "liked", got[0].Text)
	assert.Equal(t, "grace", got[0].User.Username)
}

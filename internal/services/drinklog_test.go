package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/danielsihyun/drink-the-beer-sub001/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadGrantAndCreate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.addUser(t, "logger")

	grant, err := env.logSvc.NewUploadGrant(ctx, user.ID, "image/jpeg")
	require.NoError(t, err)
	assert.NotEmpty(t, grant.UploadURL)
	assert.True(t, strings.HasPrefix(grant.PhotoKey, "drinks/"+user.ID+"/"))
	assert.Greater(t, grant.ExpiresIn, 0)

	name := "Pale Ale"
	caption := "Friday!"
	dl, err := env.logSvc.Create(ctx, user.ID, CreateInput{
		PhotoKey:  grant.PhotoKey,
		DrinkType: models.DrinkBeer,
		DrinkName: &name,
		Caption:   &caption,
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, dl.UserID)
	assert.Equal(t, models.DrinkBeer, dl.DrinkType)

	owner, err := env.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, owner.DrinkCount, "drink counter moves with the log")
}

func TestUploadGrantRejectsUnknownContentType(t *testing.T) {
	env := newTestEnv(t)
	user := env.addUser(t, "logger")

	_, err := env.logSvc.NewUploadGrant(context.Background(), user.ID, "video/mp4")
	assert.ErrorIs(t, err, models.ErrInvalid)
}

func TestCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.addUser(t, "logger")
	other := env.addUser(t, "other")

	grant, err := env.logSvc.NewUploadGrant(ctx, other.ID, "image/png")
	require.NoError(t, err)

	_, err = env.logSvc.Create(ctx, user.ID, CreateInput{PhotoKey: grant.PhotoKey, DrinkType: models.DrinkBeer})
	assert.ErrorIs(t, err, models.ErrInvalid, "cannot post someone else's photo")

	own, err := env.logSvc.NewUploadGrant(ctx, user.ID, "image/png")
	require.NoError(t, err)

	_, err = env.logSvc.Create(ctx, user.ID, CreateInput{PhotoKey: own.PhotoKey, DrinkType: "mead"})
	assert.ErrorIs(t, err, models.ErrInvalid, "unknown drink type")

	long := strings.Repeat("x", maxCaptionLen+1)
	_, err = env.logSvc.Create(ctx, user.ID, CreateInput{PhotoKey: own.PhotoKey, DrinkType: models.DrinkBeer, Caption: &long})
	assert.ErrorIs(t, err, models.ErrInvalid, "caption too long")
}

func TestGetHidesPostsOutsideCircle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.addUser(t, "owner")
	friend := env.addUser(t, "friend")
	stranger := env.addUser(t, "stranger")
	env.makeFriends(t, owner, friend)

	post := env.addLog(t, owner, time.Now(), models.DrinkCider)

	got, err := env.logSvc.Get(ctx, owner.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, got.ID)

	got, err = env.logSvc.Get(ctx, friend.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, got.ID)

	_, err = env.logSvc.Get(ctx, stranger.ID, post.ID)
	assert.ErrorIs(t, err, models.ErrNotFound, "hidden posts read as missing, not forbidden")
}

func TestUpdateOwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.addUser(t, "owner")
	friend := env.addUser(t, "friend")
	env.makeFriends(t, owner, friend)

	post := env.addLog(t, owner, time.Now(), models.DrinkBeer)

	caption := "corrected"
	updated, err := env.logSvc.Update(ctx, owner.ID, post.ID, UpdateInput{DrinkType: models.DrinkCider, Caption: &caption})
	require.NoError(t, err)
	assert.Equal(t, models.DrinkCider, updated.DrinkType)
	require.NotNil(t, updated.Caption)
	assert.Equal(t, "corrected", *updated.Caption)

	_, err = env.logSvc.Update(ctx, friend.ID, post.ID, UpdateInput{DrinkType: models.DrinkBeer})
	assert.ErrorIs(t, err, models.ErrNotFound, "even a friend cannot edit")
}

func TestDeleteRemovesPhotoAndCounter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.addUser(t, "owner")
	stranger := env.addUser(t, "stranger")
	post := env.addLog(t, owner, time.Now(), models.DrinkShot)

	err := env.logSvc.Delete(ctx, stranger.ID, post.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, env.logSvc.Delete(ctx, owner.ID, post.ID))
	assert.Contains(t, env.photos.Deleted, post.PhotoKey, "stored photo is cleaned up")

	ownerNow, err := env.users.GetByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, ownerNow.DrinkCount)

	err = env.logSvc.Delete(ctx, owner.ID, post.ID)
	assert.ErrorIs(t, err, models.ErrNotFound, "double delete")
}

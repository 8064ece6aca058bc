package profile_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oggyb/us-matching/internal/app"
	"github.com/oggyb/us-matching/internal/db"
	svcErr "github.com/oggyb/us-matching/internal/errors"
	"github.com/oggyb/us-matching/internal/logger"
	"github.com/oggyb/us-matching/internal/service/profile"
)

func setupService(t *testing.T) (*profile.Service, *gorm.DB) {
	t.Helper()
	dbase, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{NowFunc: db.Now, TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := dbase.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(dbase))
	require.NoError(t, db.SeedMinimalTestData(dbase))

	return profile.NewService(app.New(dbase, nil, logger.Discard())), dbase
}

func TestGetProfileHidesVerificationPhotos(t *testing.T) {
	svc, _ := setupService(t)

	view, err := svc.GetProfile(context.Background(), "dave")
	require.NoError(t, err)
	assert.Equal(t, "Dave", view.DisplayName)
	assert.Empty(t, view.Photos)

	_, err = svc.GetProfile(context.Background(), "nobody")
	assert.Equal(t, http.StatusNotFound, svcErr.StatusOf(err))
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc, dbase := setupService(t)

	var before db.Profile
	require.NoError(t, dbase.Where("user_id = ?", "erin").Take(&before).Error)

	lat, lng := 51.5, -0.12
	view, err := svc.UpdateProfile(ctx, "erin", profile.UpdateInput{
		DisplayName: "Erin B",
		Bio:         "new bio",
		Gender:      "woman",
		LookingFor:  "everyone",
		Latitude:    &lat,
		Longitude:   &lng,
		RadiusKm:    40,
	})
	require.NoError(t, err)
	assert.Equal(t, "Erin B", view.DisplayName)
	assert.Equal(t, 40, view.RadiusKm)
	assert.True(t, view.UpdatedAt.After(before.UpdatedAt))
}

func TestUpdateProfileCreatesOnFirstUse(t *testing.T) {
	svc, _ := setupService(t)

	view, err := svc.UpdateProfile(context.Background(), "frank", profile.UpdateInput{DisplayName: "Frank"})
	require.NoError(t, err)
	assert.Equal(t, "frank", view.UserID)
	assert.True(t, view.IsActive)
}

func TestUpdateProfileValidation(t *testing.T) {
	svc, _ := setupService(t)
	lat := 10.0
	bad := 95.0

	cases := map[string]profile.UpdateInput{
		"missing name":     {},
		"negative radius":  {DisplayName: "x", RadiusKm: -1},
		"unknown gender":   {DisplayName: "x", Gender: "robot"},
		"latitude range":   {DisplayName: "x", Latitude: &bad, Longitude: &lat},
		"half coordinates": {DisplayName: "x", Latitude: &lat},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.UpdateProfile(context.Background(), "alice", in)
			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, svcErr.StatusOf(err))
		})
	}
}

func TestSetPrimaryPhoto(t *testing.T) {
	ctx := context.Background()
	svc, dbase := setupService(t)

	var photos []db.Photo
	require.NoError(t, dbase.Where("user_id = ?", "alice").Order("position").Find(&photos).Error)
	require.Len(t, photos, 2)

	require.NoError(t, svc.SetPrimaryPhoto(ctx, "alice", photos[1].ID))

	view, err := svc.GetProfile(ctx, "alice")
	require.NoError(t, err)
	for _, ph := range view.Photos {
		assert.Equal(t, ph.ID == photos[1].ID, ph.IsPrimary)
	}

	// someone else's photo
	err = svc.SetPrimaryPhoto(ctx, "bob", photos[0].ID)
	assert.Equal(t, http.StatusNotFound, svcErr.StatusOf(err))

	var verify db.Photo
	require.NoError(t, dbase.Where("user_id = ? AND is_verification = ?", "dave", true).Take(&verify).Error)
	err = svc.SetPrimaryPhoto(ctx, "dave", verify.ID)
	assert.Equal(t, http.StatusBadRequest, svcErr.StatusOf(err))
}

func TestDeactivate(t *testing.T) {
	ctx := context.Background()
	svc, dbase := setupService(t)

	require.NoError(t, svc.Deactivate(ctx, "bob"))

	var p db.Profile
	require.NoError(t, dbase.Where("user_id = ?", "bob").Take(&p).Error)
	assert.False(t, p.IsActive)

	err := svc.Deactivate(ctx, "nobody")
	assert.Equal(t, http.StatusNotFound, svcErr.StatusOf(err))
}

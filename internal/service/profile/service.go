// Package profile manages a user's own discovery profile: details, primary
// photo and visibility.
package profile

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/oggyb/us-matching/internal/api"
	"github.com/oggyb/us-matching/internal/app"
	"github.com/oggyb/us-matching/internal/db"
	svcErr "github.com/oggyb/us-matching/internal/errors"
	"github.com/oggyb/us-matching/internal/logger"
	"github.com/oggyb/us-matching/internal/repository"
	"github.com/oggyb/us-matching/internal/service/views"
	"github.com/oggyb/us-matching/internal/telemetry"
)

var validate = validator.New()

// UpdateInput replaces the editable profile fields.
type UpdateInput struct {
	DisplayName string     `json:"display_name" validate:"required,max=80"`
	Bio         string     `json:"bio" validate:"max=500"`
	Birthdate   *time.Time `json:"birthdate"`
	Gender      string     `json:"gender" validate:"omitempty,oneof=woman man nonbinary"`
	LookingFor  string     `json:"looking_for" validate:"omitempty,oneof=woman man nonbinary everyone"`
	Latitude    *float64   `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude   *float64   `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	RadiusKm    int        `json:"radius_km" validate:"gte=0"`
}

// Validate checks field rules; coordinates must be given together.
func (in *UpdateInput) Validate() error {
	if err := validate.Struct(in); err != nil {
		return err
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return errors.New("latitude and longitude must be set together")
	}
	return nil
}

// Service implements the profile operations on top of ProfileRepository.
type Service struct {
	appCtx   *app.AppContext
	profiles *repository.ProfileRepository
	now      func() time.Time
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		profiles: repository.NewProfileRepository(appCtx.DB),
		now:      db.Now,
	}
}

func (s *Service) log(ctx context.Context) *slog.Logger {
	return logger.FromContext(ctx, s.appCtx.Logger)
}

// GetProfile returns the caller's own profile, verification photos excluded.
func (s *Service) GetProfile(ctx context.Context, userID string) (*api.ProfileView, error) {
	const op = "getProfile"
	ctx, span := telemetry.Tracer().Start(ctx, "profile.GetProfile")
	defer span.End()

	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, svcErr.Normalize(op, err)
	}
	view := views.Profile(ctx, s.appCtx.Photos, *p, s.now())
	return &view, nil
}

// UpdateProfile validates and stores the editable fields, creating the
// profile on first use. Any update bumps updated_at, which moves the profile
// to the front of other users' feeds.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in UpdateInput) (*api.ProfileView, error) {
	const op = "updateProfile"
	ctx, span := telemetry.Tracer().Start(ctx, "profile.UpdateProfile")
	defer span.End()

	if err := in.Validate(); err != nil {
		return nil, svcErr.BadRequest(op, err)
	}

	now := s.now()
	changes := map[string]any{
		"display_name": in.DisplayName,
		"bio":          in.Bio,
		"birthdate":    in.Birthdate,
		"gender":       in.Gender,
		"looking_for":  in.LookingFor,
		"latitude":     in.Latitude,
		"longitude":    in.Longitude,
		"radius_km":    in.RadiusKm,
		"updated_at":   now,
	}
	err := s.profiles.Update(ctx, userID, changes)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.log(ctx).Info("creating profile", "user_id", userID)
		err = svcErr.IgnoreDuplicate(s.profiles.Create(ctx, &db.Profile{
			UserID:      userID,
			DisplayName: in.DisplayName,
			Bio:         in.Bio,
			Birthdate:   in.Birthdate,
			Gender:      in.Gender,
			LookingFor:  in.LookingFor,
			Latitude:    in.Latitude,
			Longitude:   in.Longitude,
			RadiusKm:    in.RadiusKm,
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}))
	}
	if err != nil {
		s.log(ctx).Error("profile update failed", "user_id", userID, "err", err)
		return nil, svcErr.Normalize(op, err)
	}
	return s.GetProfile(ctx, userID)
}

// SetPrimaryPhoto makes photoID the profile's primary photo. Verification
// photos are refused (400); a photo of another user is reported missing (404).
func (s *Service) SetPrimaryPhoto(ctx context.Context, userID, photoID string) error {
	const op = "setPrimaryPhoto"
	ctx, span := telemetry.Tracer().Start(ctx, "profile.SetPrimaryPhoto")
	defer span.End()

	err := s.profiles.SetPrimaryPhoto(ctx, userID, photoID)
	if errors.Is(err, repository.ErrVerificationPhoto) {
		return svcErr.BadRequest(op, err)
	}
	return svcErr.Normalize(op, err)
}

// Deactivate hides the profile from every feed. Existing likes and matches stay.
func (s *Service) Deactivate(ctx context.Context, userID string) error {
	const op = "deactivate"
	ctx, span := telemetry.Tracer().Start(ctx, "profile.Deactivate")
	defer span.End()

	if err := s.profiles.Deactivate(ctx, userID); err != nil {
		return svcErr.Normalize(op, err)
	}
	s.log(ctx).Info("profile deactivated", "user_id", userID)
	return nil
}

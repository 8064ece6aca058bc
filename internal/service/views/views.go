// Package views maps stored rows onto the API shapes handed to clients.
package views

import (
	"context"
	"time"

	"github.com/oggyb/us-matching/internal/api"
	"github.com/oggyb/us-matching/internal/db"
	"github.com/oggyb/us-matching/internal/storage"
)

// Profile builds the public view of p. Verification photos never leave the service.
func Profile(ctx context.Context, photos storage.PhotoURLResolver, p db.Profile, now time.Time) api.ProfileView {
	public := p.PublicPhotos()
	out := api.ProfileView{
		UserID:      p.UserID,
		DisplayName: p.DisplayName,
		Bio:         p.Bio,
		Age:         p.Age(now),
		Gender:      p.Gender,
		LookingFor:  p.LookingFor,
		Latitude:    p.Latitude,
		Longitude:   p.Longitude,
		RadiusKm:    p.RadiusKm,
		IsActive:    p.IsActive,
		Photos:      make([]api.PhotoView, 0, len(public)),
		UpdatedAt:   p.UpdatedAt,
	}
	for _, ph := range public {
		out.Photos = append(out.Photos, Photo(ctx, photos, ph))
	}
	return out
}

func Photo(ctx context.Context, photos storage.PhotoURLResolver, ph db.Photo) api.PhotoView {
	return api.PhotoView{
		ID:        ph.ID,
		URL:       photos.Resolve(ctx, ph),
		IsPrimary: ph.IsPrimary,
		Position:  ph.Position,
	}
}

// Post shows a profile through its primary photo, with the bio as caption.
func Post(ctx context.Context, photos storage.PhotoURLResolver, p db.Profile, now time.Time) api.Post {
	view := Profile(ctx, photos, p, now)
	post := api.Post{
		ID:      p.UserID,
		UserID:  p.UserID,
		Caption: p.Bio,
		Profile: &view,
	}
	if primary, ok := p.PrimaryPhoto(); ok {
		post.ID = primary.ID
		for _, ph := range view.Photos {
			if ph.ID == primary.ID {
				post.PhotoURL = ph.URL
				break
			}
		}
	}
	return post
}

// Package handler contains HTTP handlers for the Pinmark API.
package handler

import (
	"time"

	"github.com/google/uuid"

	"github.com/pinmark/pinmark/internal/domain"
)

// userResponse is the API shape of a user. The password hash never leaves
// the service layer.
type userResponse struct {
	ID            uuid.UUID            `json:"id"`
	Email         string               `json:"email"`
	Name          string               `json:"name"`
	IsAdmin       bool                 `json:"is_admin"`
	IsActive      bool                 `json:"is_active"`
	GPSPermission domain.GPSPermission `json:"gps_permission"`
	CreatedAt     time.Time            `json:"created_at"`
}

func newUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		IsAdmin:       u.IsAdmin,
		IsActive:      u.IsActive,
		GPSPermission: u.GPSPermission,
		CreatedAt:     u.CreatedAt,
	}
}

// locationResponse is the API shape of a saved location.
type locationResponse struct {
	ID              uuid.UUID           `json:"id"`
	PlaceID         string              `json:"place_id"`
	Name            string              `json:"name"`
	Description     string              `json:"description,omitempty"`
	Address         string              `json:"address,omitempty"`
	Street          string              `json:"street,omitempty"`
	Number          string              `json:"number,omitempty"`
	City            string              `json:"city,omitempty"`
	State           string              `json:"state,omitempty"`
	Zipcode         string              `json:"zipcode,omitempty"`
	Lat             float64             `json:"lat"`
	Lng             float64             `json:"lng"`
	Type            domain.LocationType `json:"type"`
	ProductionNotes string              `json:"production_notes,omitempty"`
	EntryPoint      string              `json:"entry_point,omitempty"`
	Parking         string              `json:"parking,omitempty"`
	Access          string              `json:"access,omitempty"`
	Photos          []photoResponse     `json:"photos,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func newLocationResponse(l *domain.Location) locationResponse {
	resp := locationResponse{
		ID:              l.ID,
		PlaceID:         l.PlaceID,
		Name:            l.Name,
		Description:     l.Description,
		Address:         l.Address,
		Street:          l.Street,
		Number:          l.Number,
		City:            l.City,
		State:           l.State,
		Zipcode:         l.Zipcode,
		Lat:             l.Lat,
		Lng:             l.Lng,
		Type:            l.Type,
		ProductionNotes: l.ProductionNotes,
		EntryPoint:      l.EntryPoint,
		Parking:         l.Parking,
		Access:          l.Access,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
	for i := range l.Photos {
		resp.Photos = append(resp.Photos, newPhotoResponse(&l.Photos[i]))
	}
	return resp
}

func newLocationListResponse(locations []domain.Location) []locationResponse {
	out := make([]locationResponse, 0, len(locations))
	for i := range locations {
		out = append(out, newLocationResponse(&locations[i]))
	}
	return out
}

// photoResponse is the API shape of a location photo.
type photoResponse struct {
	ID           uuid.UUID `json:"id"`
	LocationID   uuid.UUID `json:"location_id"`
	ContentType  string    `json:"content_type"`
	SizeBytes    int64     `json:"size_bytes"`
	HasThumbnail bool      `json:"has_thumbnail"`
	CreatedAt    time.Time `json:"created_at"`
}

func newPhotoResponse(p *domain.LocationPhoto) photoResponse {
	return photoResponse{
		ID:           p.ID,
		LocationID:   p.LocationID,
		ContentType:  p.ContentType,
		SizeBytes:    p.SizeBytes,
		HasThumbnail: p.ThumbnailKey != "",
		CreatedAt:    p.CreatedAt,
	}
}

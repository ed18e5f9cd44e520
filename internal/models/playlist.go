package models

import (
	"fmt"
	"time"

	"github.com/desertthunder/moody/internal/shared"
)

// GeneratedPlaylist records a playlist created on Spotify from a mood.
type GeneratedPlaylist struct {
	id         string
	sequence   int
	userID     string
	mood       string
	name       string
	spotifyID  string
	url        string
	trackCount int
	createdAt  time.Time
	updatedAt  time.Time
	deletedAt  *time.Time
}

// NewGeneratedPlaylist creates a [GeneratedPlaylist] owned by userID.
func NewGeneratedPlaylist(userID, mood, name, spotifyID, url string, trackCount int) *GeneratedPlaylist {
	now := time.Now()
	return &GeneratedPlaylist{
		userID:     userID,
		mood:       mood,
		name:       name,
		spotifyID:  spotifyID,
		url:        url,
		trackCount: trackCount,
		createdAt:  now,
		updatedAt:  now,
	}
}

func (p *GeneratedPlaylist) ID() string            { return p.id }
func (p *GeneratedPlaylist) Sequence() int         { return p.sequence }
func (p *GeneratedPlaylist) UserID() string        { return p.userID }
func (p *GeneratedPlaylist) Mood() string          { return p.mood }
func (p *GeneratedPlaylist) Name() string          { return p.name }
func (p *GeneratedPlaylist) SpotifyID() string     { return p.spotifyID }
func (p *GeneratedPlaylist) URL() string           { return p.url }
func (p *GeneratedPlaylist) TrackCount() int       { return p.trackCount }
func (p *GeneratedPlaylist) CreatedAt() time.Time  { return p.createdAt }
func (p *GeneratedPlaylist) UpdatedAt() time.Time  { return p.updatedAt }
func (p *GeneratedPlaylist) DeletedAt() *time.Time { return p.deletedAt }

func (p *GeneratedPlaylist) SetID(id string)           { p.id = id }
func (p *GeneratedPlaylist) SetSequence(sequence int)  { p.sequence = sequence }
func (p *GeneratedPlaylist) SetName(name string)       { p.name = name }
func (p *GeneratedPlaylist) SetTrackCount(n int)       { p.trackCount = n }
func (p *GeneratedPlaylist) SetCreatedAt(t time.Time)  { p.createdAt = t }
func (p *GeneratedPlaylist) SetUpdatedAt(t time.Time)  { p.updatedAt = t }
func (p *GeneratedPlaylist) SetDeletedAt(t *time.Time) { p.deletedAt = t }

func (p *GeneratedPlaylist) Validate() error {
	if p.userID == "" {
		return fmt.Errorf("%w: playlist owner is required", shared.ErrInvalidInput)
	}
	if p.mood == "" || p.name == "" {
		return fmt.Errorf("%w: playlist mood and name are required", shared.ErrInvalidInput)
	}
	if p.spotifyID == "" {
		return fmt.Errorf("%w: spotify playlist id is required", shared.ErrInvalidInput)
	}
	if p.trackCount < 0 {
		return fmt.Errorf("%w: negative track count", shared.ErrInvalidInput)
	}
	return nil
}

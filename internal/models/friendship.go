package models

import (
	"fmt"
	"time"

	"github.com/desertthunder/moody/internal/shared"
)

// FriendshipStatus is the state of a friend request.
type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
)

// Friendship links a requester to an addressee. It becomes mutual once accepted.
type Friendship struct {
	id          string
	requesterID string
	addresseeID string
	status      FriendshipStatus
	createdAt   time.Time
	updatedAt   time.Time
}

// NewFriendship creates a pending request from requesterID to addresseeID.
func NewFriendship(requesterID, addresseeID string) *Friendship {
	now := time.Now()
	return &Friendship{
		requesterID: requesterID,
		addresseeID: addresseeID,
		status:      FriendshipPending,
		createdAt:   now,
		updatedAt:   now,
	}
}

func (f *Friendship) ID() string               { return f.id }
func (f *Friendship) RequesterID() string      { return f.requesterID }
func (f *Friendship) AddresseeID() string      { return f.addresseeID }
func (f *Friendship) Status() FriendshipStatus { return f.status }
func (f *Friendship) CreatedAt() time.Time     { return f.createdAt }
func (f *Friendship) UpdatedAt() time.Time     { return f.updatedAt }

func (f *Friendship) SetID(id string)                   { f.id = id }
func (f *Friendship) SetStatus(status FriendshipStatus) { f.status = status }
func (f *Friendship) SetCreatedAt(t time.Time)          { f.createdAt = t }
func (f *Friendship) SetUpdatedAt(t time.Time)          { f.updatedAt = t }

// Other returns the id of the participant that is not userID.
func (f *Friendship) Other(userID string) string {
	if f.requesterID == userID {
		return f.addresseeID
	}
	return f.requesterID
}

// Involves reports whether userID is one of the two participants.
func (f *Friendship) Involves(userID string) bool {
	return f.requesterID == userID || f.addresseeID == userID
}

func (f *Friendship) Validate() error {
	if f.requesterID == "" || f.addresseeID == "" {
		return fmt.Errorf("%w: friendship requires two users", shared.ErrInvalidInput)
	}
	if f.requesterID == f.addresseeID {
		return fmt.Errorf("%w: cannot befriend yourself", shared.ErrInvalidInput)
	}
	switch f.status {
	case FriendshipPending, FriendshipAccepted:
	default:
		return fmt.Errorf("%w: unknown friendship status %q", shared.ErrInvalidInput, f.status)
	}
	return nil
}

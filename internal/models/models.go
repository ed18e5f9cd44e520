package models

import "time"

// Model is a persisted entity: a [User], [Friendship] or [GeneratedPlaylist].
type Model interface {
	ID() string
	CreatedAt() time.Time
	UpdatedAt() time.Time
	// Validate reports the first invalid field, wrapping shared.ErrInvalidInput.
	Validate() error
}

// Repository is the CRUD surface every SQLite repository offers for its entity.
//
// List accepts column filters such as {"user_id": id}. Unknown keys are ignored.
type Repository[T Model] interface {
	Create(model T) error
	Get(id string) (T, error)
	Update(model T) error
	Delete(id string) error
	List(criteria map[string]any) ([]T, error)
}

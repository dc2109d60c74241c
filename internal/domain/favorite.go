package domain

import "time"

// Favorite marks a beach as favorited by an anonymous session. The row's
// existence is the favorite state.
type Favorite struct {
	ID        string    `json:"id"`
	SessionID string    `json:"-"`
	BeachID   string    `json:"beachId"`
	CreatedAt time.Time `json:"createdAt"`
}

// ToggleResult is the favorite state after a toggle.
type ToggleResult struct {
	BeachID    string `json:"beachId"`
	IsFavorite bool   `json:"isFavorite"`
}

// Subscriber is a newsletter signup.
type Subscriber struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

package db

import "time"

// User is a Spotify user known to the dashboard. LastAnalyzedAt tracks
// the most recent analysis request, for display only.
type User struct {
	ID             string
	DisplayName    string
	Email          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastAnalyzedAt *time.Time // nullable
}

// Session is an authenticated web session.
type Session struct {
	ID           string
	UserID       string
	AccessToken  string
	RefreshToken string
	TokenExpiry  time.Time
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

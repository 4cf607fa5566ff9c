package entity

import (
	"time"
)

const RoleSupport = "support"

type SupportUser struct {
	UID         string    `json:"uid" firestore:"-"`
	Email       string    `json:"email" firestore:"email"`
	DisplayName string    `json:"display_name,omitempty" firestore:"displayName,omitempty"`
	Role        string    `json:"role" firestore:"role"`
	CreatedAt   time.Time `json:"created_at" firestore:"createdAt"`
}

func (u *SupportUser) IsSupport() bool {
	return u != nil && u.Role == RoleSupport
}

// Session is the result of a successful sign-in or token refresh.
type Session struct {
	User         *SupportUser `json:"user"`
	IDToken      string       `json:"token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresAt    time.Time    `json:"expires_at"`
}

// Credentials is what the identity provider hands back after verifying a
// password or exchanging a refresh token.
type Credentials struct {
	UID          string
	Email        string
	IDToken      string
	RefreshToken string
	ExpiresIn    time.Duration
}

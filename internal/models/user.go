package models

import "time"

// User represents an application user resolved from a GitHub identity.
// GithubToken is the provider access token used for API calls on the user's
// behalf; it is stored as-is and never serialized into responses.
type User struct {
	ID             string    `bson:"_id,omitempty" json:"id"`
	GithubID       string    `bson:"githubId" json:"github_id"`
	GithubUsername string    `bson:"githubUsername" json:"github_username"`
	GithubToken    string    `bson:"githubToken,omitempty" json:"-"`
	IsActive       bool      `bson:"isActive" json:"is_active"`
	CreatedAt      time.Time `bson:"createdAt" json:"created_at"`
	UpdatedAt      time.Time `bson:"updatedAt" json:"updated_at"`
}

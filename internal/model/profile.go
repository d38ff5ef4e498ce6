package model

import "time"

// Profile holds the display/biographical document keyed 1:1 by user ID.
// Skills and SocialLinks are stored as JSON columns.
type Profile struct {
	UserID       string            `json:"userId"`
	FullName     string            `json:"fullName"`
	Username     string            `json:"username"`
	Bio          string            `json:"bio,omitempty"`
	Profession   string            `json:"profession,omitempty"`
	Skills       []string          `json:"skills"`
	Location     string            `json:"location,omitempty"`
	SocialLinks  map[string]string `json:"socialLinks"`
	ProfilePhoto string            `json:"profilePhoto,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// Package models contains data structures for the feed's domain models.
package models

// User is the session's account record. Exactly one current user exists per session.
type User struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Online bool   `json:"online"`
}

// Author is a denormalized snapshot of a user embedded in posts, comments and notifications.
// Snapshots are taken at creation time and never refreshed.
type Author struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// Snapshot returns the author snapshot of u.
func (u User) Snapshot() Author {
	return Author{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
}

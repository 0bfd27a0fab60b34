// Package model contains the domain types shared across ports and adapters.
package model

// User is a GitHub account tracked by ghdesk. The ID is GitHub's own numeric
// database ID, which keeps reconciliation unambiguous across login renames.
type User struct {
	ID        int64
	Login     string
	Name      string
	AvatarURL string
}

package model

// Credential is a GitHub API bearer token together with its validity state.
// At most one credential is active at a time: the most recently inserted one
// that has not been invalidated. Invalidated credentials are superseded by
// inserting a new one, never flipped back to valid.
type Credential struct {
	ID      int64
	Token   string
	UserID  int64
	Invalid bool
}

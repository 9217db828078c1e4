package domain

import "time"

// Follow represents a self-referential many-to-many relationship between two users.
// A Follow is created when one user decides to follow another user. The relation is
// asymmetric: the FollowerID is the ID of the user that follows, and the FollowedID
// is the ID of the user that is being followed. A user's followers and followeds are
// the two query directions over the same edge set. The composite unique index keeps
// the same edge from being stored twice under concurrent requests.
type Follow struct {
	ID         int       `json:"id"`
	FollowerID int       `json:"-" gorm:"notNull;index;uniqueIndex:idx_follows_edge"`
	Follower   User      `json:"follower"`
	FollowedID int       `json:"-" gorm:"notNull;index;uniqueIndex:idx_follows_edge"`
	Followed   User      `json:"followed"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// FollowService is a set of methods to manipulate and work with the Follow model.
type FollowService interface {
	// Toggle creates the edge if it's absent and removes it if it's present.
	// It reports whether the edge exists after the call.
	Toggle(follow *Follow) (bool, error)
}

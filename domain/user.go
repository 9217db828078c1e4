package domain

import "time"

type User struct {
	ID        int    `json:"id"`
	Username  string `json:"username" gorm:"uniqueIndex;notNull"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	// Password is only ever set on incoming signup / login data.
	// It is never stored, only its bcrypt hash is.
	Password     string `json:"password,omitempty" gorm:"-"`
	PasswordHash string `json:"-"`

	// Remember is the user's session credential, kept in a cookie.
	// Only its HMAC hash is persisted.
	Remember     string `json:"-" gorm:"-"`
	RememberHash string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Reviews   []Review `json:"reviews,omitempty" gorm:"foreignKey:UserID"`
	Followers []Follow `json:"followers,omitempty" gorm:"foreignKey:FollowedID"`
	Followeds []Follow `json:"followeds,omitempty" gorm:"foreignKey:FollowerID"`

	// Computed for profile views, not stored.
	FollowerCount int  `json:"follower_count" gorm:"-"`
	FollowedCount int  `json:"followed_count" gorm:"-"`
	IsFollowed    bool `json:"is_followed" gorm:"-"`
}

// UserService is a set of methods to manipulate and work with the User model.
// It also covers the database-facing side of authentication: signup,
// credential checks, and remember token lookups.
type UserService interface {
	Authenticate(username, password string) (*User, error)
	ByID(id int) (*User, error)
	ByUsername(username string) (*User, error)
	ByRemember(token string) (*User, error)
	Register(user *User, passwordConfirm string) error
	Update(user *User) error
	Search(term string) ([]User, error)
	FollowingIDs(userID int) ([]int, error)
	CountFollowers(userID int) (int, error)
	CountFolloweds(userID int) (int, error)
}

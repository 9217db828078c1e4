package crud

import (
	"gorm.io/gorm"

	"bookfeed/domain"
	"bookfeed/errs"
)

// FollowService manages Follows.
// It implements the domain.FollowService interface.
type FollowService struct {
	followValidator
}

// followValidator runs validations on incoming Follow data.
// On success, it passes the data on to followGorm.
// Otherwise, it returns the error of the validation that has failed.
type followValidator struct {
	followGorm
}

// followGorm runs CRUD operations on the database using incoming Follow data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type followGorm struct {
	db *gorm.DB
}

// NewFollowService returns an instance of FollowService.
func NewFollowService(db *gorm.DB) *FollowService {
	return &FollowService{
		followValidator{
			followGorm{
				db: db,
			},
		},
	}
}

// Ensure the FollowService struct properly implements the domain.FollowService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.FollowService = &FollowService{}

// Toggle runs validations needed for toggling a Follow edge.
func (fv *followValidator) Toggle(follow *domain.Follow) (bool, error) {
	err := runFollowValFns(follow,
		fv.followedUserExists,
		fv.followedIsNotFollower)
	if err != nil {
		return false, err
	}
	return fv.followGorm.Toggle(follow)
}

// runFollowValFns runs any number of functions of type followValFn on the passed in Follow object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runFollowValFns(follow *domain.Follow, fns ...followValFn) error {
	for _, fn := range fns {
		if err := fn(follow); err != nil {
			return err
		}
	}
	return nil
}

// A followValFn is any function that takes in a pointer to a domain.Follow object and returns an error.
type followValFn func(follow *domain.Follow) error

// followedIsNotFollower makes sure that a user is not following themselves.
func (fv *followValidator) followedIsNotFollower(follow *domain.Follow) error {
	if follow.FollowerID == follow.FollowedID {
		return errs.Errorf(errs.EINVALID, "You cannot follow yourself.")
	}
	return nil
}

// followedUserExists makes sure that the user to be followed actually exists.
func (fv *followValidator) followedUserExists(follow *domain.Follow) error {
	err := fv.db.First(&domain.User{}, "id = ?", follow.FollowedID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errs.Errorf(errs.EINVALID, "The user to be followed does not exist.")
		}
		return err
	}
	return nil
}

// Toggle creates the follow edge if it's absent and deletes it if it's
// present. It reports whether the edge exists after the call. On create,
// it eager-loads both related users so the caller can name them.
func (fg *followGorm) Toggle(follow *domain.Follow) (bool, error) {
	var existing domain.Follow
	err := fg.db.
		Where("follower_id = ? AND followed_id = ?", follow.FollowerID, follow.FollowedID).
		First(&existing).Error
	if err == nil {
		if err := fg.db.Delete(&existing).Error; err != nil {
			return true, err
		}
		return false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return false, err
	}
	if err := fg.db.Create(follow).Error; err != nil {
		if err == gorm.ErrDuplicatedKey {
			// A concurrent request created the edge first. The toggle's
			// intent (edge present) is satisfied either way.
			return true, nil
		}
		return false, err
	}
	fg.db.Preload("Followed").Preload("Follower").First(follow)
	return true, nil
}

package crud

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"bookfeed/auth"
	"bookfeed/domain"
	"bookfeed/errs"
)

// UserService manages Users and the user side of the social graph. It also
// contains the part of the authentication system that handles database
// interactions and token hashing. It's basically the "backend" of the auth
// system, with http/auth.go dealing with requests, middleware and cookies
// being the "frontend". It implements the domain.UserService interface.
type UserService struct {
	userValidator
}

// userValidator runs validations on incoming User data.
// On success, it passes the data on to userGorm.
// Otherwise, it returns the error of the validation that has failed.
type userValidator struct {
	hmac   HMAC
	pepper string
	userGorm
}

// userGorm runs CRUD operations on the database using incoming User data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type userGorm struct {
	db *gorm.DB
}

// NewUserService returns an instance of UserService.
func NewUserService(db *gorm.DB, hmacKey, pepper string) *UserService {
	return &UserService{
		userValidator{
			hmac:   newHMAC(hmacKey),
			pepper: pepper,
			userGorm: userGorm{
				db: db,
			},
		},
	}
}

// Ensure the UserService struct properly implements the domain.UserService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.UserService = &UserService{}

// Authenticate checks a submitted username and password for existence and correctness.
func (uv *userValidator) Authenticate(username, password string) (*domain.User, error) {
	// Look for a user database record containing the submitted username.
	found, err := uv.userGorm.ByUsername(username)
	if err != nil {
		if errs.ErrorCode(err) == errs.ENOTFOUND {
			return nil, errs.Errorf(errs.EINVALID, "The username does not exist in our database.")
		}
		return nil, err
	}

	// Append a predefined pepper to the submitted password, hash it, and compare the result to the
	// password hash stored in the user's database record. If they match, the submitted password is correct.
	err = bcrypt.CompareHashAndPassword([]byte(found.PasswordHash), []byte(password+uv.pepper))
	if err != nil {
		if err == bcrypt.ErrMismatchedHashAndPassword {
			return nil, errs.Errorf(errs.EINVALID, "The password is incorrect.")
		}
		return nil, err
	}

	// Return the now authenticated user and a nil error.
	return found, nil
}

// MakeRememberToken is a helper to generate remember tokens of a predetermined byte size.
func (uv *userValidator) MakeRememberToken() (string, error) {
	return auth.MakeRememberToken()
}

// ByRemember hashes a user's remember token and passes the HASHED token
// on to userGorm.ByRemember, which will look it up in the database.
func (uv *userValidator) ByRemember(token string) (*domain.User, error) {
	user := domain.User{
		Remember: token,
	}
	if err := runUserValFns(&user, uv.rememberHmac); err != nil {
		return nil, err
	}
	return uv.userGorm.ByRemember(user.RememberHash)
}

// Register validates signup data and creates the user record. Unlike the
// other validation chains, the signup checks accumulate: every failing check
// ends up in the returned error list, in the order the checks ran, so the
// user learns about all problems at once.
func (uv *userValidator) Register(user *domain.User, passwordConfirm string) error {
	uv.usernameNormalize(user)

	var list errs.Errors
	if err := uv.usernameRequired(user); err != nil {
		list = append(list, err)
	} else if err := uv.usernameIsAvail(user); err != nil {
		list = append(list, err)
	}
	if err := uv.passwordsPresent(user, passwordConfirm); err != nil {
		list = append(list, err)
	} else if err := uv.passwordsMatch(user, passwordConfirm); err != nil {
		list = append(list, err)
	}
	if len(list) > 0 {
		return list
	}

	err := runUserValFns(user,
		uv.passwordBcrypt,
		uv.passwordHashRequired,
		uv.rememberSetIfUnset,
		uv.rememberHmac,
		uv.rememberHashRequired)
	if err != nil {
		return err
	}
	return uv.userGorm.Create(user)
}

// Update runs validations needed for updating a User record in the database.
// It will hash a remember token if one is provided.
func (uv *userValidator) Update(user *domain.User) error {
	err := runUserValFns(user,
		uv.passwordBcrypt,
		uv.passwordHashRequired,
		uv.rememberHmac,
		uv.rememberHashRequired)
	if err != nil {
		return err
	}
	return uv.userGorm.Update(user)
}

// runUserValFns runs any number of functions of type userValFn on the passed in User object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runUserValFns(user *domain.User, fns ...userValFn) error {
	for _, fn := range fns {
		if err := fn(user); err != nil {
			return err
		}
	}
	return nil
}

// A userValFn is any function that takes in a pointer to a domain.User object and returns an error.
type userValFn func(user *domain.User) error

// usernameNormalize trims surrounding whitespace off the username.
func (uv *userValidator) usernameNormalize(user *domain.User) {
	user.Username = strings.TrimSpace(user.Username)
}

// usernameRequired makes sure that the username is not the empty string.
func (uv *userValidator) usernameRequired(user *domain.User) *errs.Error {
	if user.Username == "" {
		return errs.Errorf(errs.EINVALID, "A username is required.")
	}
	return nil
}

// usernameIsAvail makes sure that a provided username is not yet taken.
func (uv *userValidator) usernameIsAvail(user *domain.User) *errs.Error {
	existing, err := uv.userGorm.ByUsername(user.Username)
	if errs.ErrorCode(err) == errs.ENOTFOUND {
		// Username is not taken.
		return nil
	}
	if err != nil {
		return errs.Errorf(errs.EINTERNAL, "err checking username availability: %v", err)
	}
	if user.ID != existing.ID {
		return errs.Errorf(errs.EINVALID, "This username is already taken.")
	}
	return nil
}

// passwordsPresent makes sure that both submitted passwords are non-empty.
func (uv *userValidator) passwordsPresent(user *domain.User, passwordConfirm string) *errs.Error {
	if user.Password == "" || passwordConfirm == "" {
		return errs.Errorf(errs.EINVALID, "Both password fields are required.")
	}
	return nil
}

// passwordsMatch makes sure that both submitted passwords are the same.
func (uv *userValidator) passwordsMatch(user *domain.User, passwordConfirm string) *errs.Error {
	if user.Password != passwordConfirm {
		return errs.Errorf(errs.EINVALID, "The two passwords do not match.")
	}
	return nil
}

// passwordBcrypt hashes a user's password with a predefined pepper.
// It bcrypts it, if the Password field is not the empty string.
// It then clears the password on the user object in memory for security reasons.
func (uv *userValidator) passwordBcrypt(user *domain.User) error {
	if user.Password == "" {
		return nil
	}
	pwBytes := []byte(user.Password + uv.pepper)
	hashedBytes, err := bcrypt.GenerateFromPassword(pwBytes, bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hashedBytes)
	user.Password = ""
	return nil
}

// passwordHashRequired makes sure that the user's password hash is not the empty string.
func (uv *userValidator) passwordHashRequired(user *domain.User) error {
	if user.PasswordHash == "" {
		return errs.Errorf(errs.EINVALID, "A password is required.")
	}
	return nil
}

// rememberHashRequired makes sure the user's remember token hash is not the empty string.
func (uv *userValidator) rememberHashRequired(user *domain.User) error {
	if user.RememberHash == "" {
		return errs.Errorf(errs.EINTERNAL, "remember token hash is required")
	}
	return nil
}

// rememberHmac creates the user's remember token hash, if a remember token has been provided.
func (uv *userValidator) rememberHmac(user *domain.User) error {
	if user.Remember == "" {
		return nil
	}
	user.RememberHash = uv.hmac.hash(user.Remember)
	return nil
}

// rememberSetIfUnset creates the user's remember token if none is provided.
func (uv *userValidator) rememberSetIfUnset(user *domain.User) error {
	if user.Remember != "" {
		return nil
	}
	token, err := uv.MakeRememberToken()
	if err != nil {
		return err
	}
	user.Remember = token
	return nil
}

// ByID retrieves a User database record by ID.
func (ug *userGorm) ByID(id int) (*domain.User, error) {
	var user domain.User
	err := ug.db.First(&user, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errs.Errorf(errs.ENOTFOUND, "The user does not exist.")
		}
		return nil, err
	}
	return &user, nil
}

// ByUsername retrieves a User database record by username.
func (ug *userGorm) ByUsername(username string) (*domain.User, error) {
	var user domain.User
	err := ug.db.Where("username = ?", username).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errs.Errorf(errs.ENOTFOUND, "The user does not exist.")
		}
		return nil, err
	}
	return &user, nil
}

// ByRemember retrieves a User database record by its hashed remember token.
// The checkUser middleware calls this on every request, trying to identify a user
// by matching a request cookie's remember token to a hashed remember token in the database.
func (ug *userGorm) ByRemember(rememberHash string) (*domain.User, error) {
	var user domain.User
	err := ug.db.Where("remember_hash = ?", rememberHash).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errs.Errorf(errs.ENOTFOUND, "The user does not exist.")
		}
		return nil, err
	}
	return &user, nil
}

// Search retrieves all users whose first name, last name OR username contains
// the search term, ignoring case, ordered by first then last name. An empty
// term yields an empty result set, not all users.
func (ug *userGorm) Search(term string) ([]domain.User, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []domain.User{}, nil
	}
	pattern := "%" + strings.ToLower(term) + "%"
	var users []domain.User
	err := ug.db.
		Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(username) LIKE ?",
			pattern, pattern, pattern).
		Order("first_name asc, last_name asc").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// FollowingIDs retrieves the IDs of all users the given user follows. The
// user search endpoint returns these alongside its results, so the client
// can render follow toggles without one extra lookup per row.
func (ug *userGorm) FollowingIDs(userID int) ([]int, error) {
	var ids []int
	err := ug.db.
		Model(&domain.Follow{}).
		Where("follower_id = ?", userID).
		Pluck("followed_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// CountFollowers returns the number of users following the given user.
func (ug *userGorm) CountFollowers(userID int) (int, error) {
	var count int64
	err := ug.db.Model(&domain.Follow{}).Where("followed_id = ?", userID).Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// CountFolloweds returns the number of users the given user follows.
func (ug *userGorm) CountFolloweds(userID int) (int, error) {
	var count int64
	err := ug.db.Model(&domain.Follow{}).Where("follower_id = ?", userID).Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// Create stores the data from the User object in a new database record.
func (ug *userGorm) Create(user *domain.User) error {
	err := ug.db.Create(user).Error
	if err != nil {
		if err == gorm.ErrDuplicatedKey {
			return errs.Errors{errs.Errorf(errs.EINVALID, "This username is already taken.")}
		}
		return err
	}
	return nil
}

// Update saves changes to an existing user record in the database.
func (ug *userGorm) Update(user *domain.User) error {
	return ug.db.Save(user).Error
}

// HMAC is a wrapper around the crypto/hmac package making it easier to use.
// It only holds the key; hash state is built per call, because the checkUser
// middleware hashes remember tokens on every request concurrently.
type HMAC struct {
	key []byte
}

// newHMAC creates and returns a new HMAC object.
func newHMAC(key string) HMAC {
	return HMAC{
		key: []byte(key),
	}
}

// hash hashes an input string using HMAC with the secret key
// provided when the HMAC object was created in NewUserService.
func (h HMAC) hash(input string) string {
	mac := hmac.New(sha256.New, h.key)
	mac.Write([]byte(input))
	b := mac.Sum(nil)
	return base64.URLEncoding.EncodeToString(b)
}

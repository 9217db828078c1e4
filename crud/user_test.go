package crud

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookfeed/domain"
	"bookfeed/errs"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	db := testDB(t)
	us := NewUserService(db, "test-hmac", "test-pepper")

	user := domain.User{
		Username:  "alice",
		FirstName: "Alice",
		LastName:  "Archer",
		Password:  "correct horse",
	}
	require.NoError(t, us.Register(&user, "correct horse"))

	// The plaintext is gone, only the hash remains.
	assert.Empty(t, user.Password)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEmpty(t, user.RememberHash)

	authed, err := us.Authenticate("alice", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)

	_, err = us.Authenticate("alice", "wrong password")
	require.Error(t, err)
	assert.Equal(t, errs.EINVALID, errs.ErrorCode(err))

	_, err = us.Authenticate("nobody", "correct horse")
	require.Error(t, err)
	assert.Equal(t, errs.EINVALID, errs.ErrorCode(err))
}

func TestRegisterAccumulatesAllErrorsInOrder(t *testing.T) {
	db := testDB(t)
	us := NewUserService(db, "test-hmac", "test-pepper")

	user := domain.User{}
	err := us.Register(&user, "")
	require.Error(t, err)

	list, ok := err.(errs.Errors)
	require.True(t, ok)
	assert.Equal(t, []string{
		"A username is required.",
		"Both password fields are required.",
	}, list.Messages())
}

func TestRegisterReportsTakenUsernameAndMismatchTogether(t *testing.T) {
	db := testDB(t)
	us := NewUserService(db, "test-hmac", "test-pepper")

	existing := domain.User{Username: "alice", Password: "correct horse"}
	require.NoError(t, us.Register(&existing, "correct horse"))

	user := domain.User{Username: "alice", Password: "one thing"}
	err := us.Register(&user, "another thing")
	require.Error(t, err)

	list, ok := err.(errs.Errors)
	require.True(t, ok)
	assert.Equal(t, []string{
		"This username is already taken.",
		"The two passwords do not match.",
	}, list.Messages())
}

func TestRegisterDoesNotLogTheUserIn(t *testing.T) {
	db := testDB(t)
	us := NewUserService(db, "test-hmac", "test-pepper")

	user := domain.User{Username: "alice", Password: "correct horse"}
	require.NoError(t, us.Register(&user, "correct horse"))

	// No row count change, no session: registering only creates the record.
	// The remember hash exists but no cookie has been issued anywhere.
	fetched, err := us.ByUsername("alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, fetched.ID)
}

func TestByRememberRoundTrip(t *testing.T) {
	db := testDB(t)
	us := NewUserService(db, "test-hmac", "test-pepper")

	user := domain.User{Username: "alice", Password: "correct horse"}
	require.NoError(t, us.Register(&user, "correct horse"))
	require.NotEmpty(t, user.Remember)

	found, err := us.ByRemember(user.Remember)
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = us.ByRemember("some-unknown-token")
	require.Error(t, err)
	assert.Equal(t, errs.ENOTFOUND, errs.ErrorCode(err))
}

func TestSearchUsersEmptyQueryReturnsNothing(t *testing.T) {
	db := testDB(t)
	us := NewUserService(db, "test-hmac", "test-pepper")

	createUser(t, db, "alice", "Alice", "Archer")

	for _, query := range []string{"", "  "} {
		users, err := us.Search(query)
		require.NoError(t, err)
		assert.Empty(t, users)
	}
}

func TestSearchUsersMatchesAnyField(t *testing.T) {
	db := testDB(t)
	us := NewUserService(db, "test-hmac", "test-pepper")

	createUser(t, db, "ann", "Ann", "Smith")        // first name match
	createUser(t, db, "zoe", "Zoe", "Annable")      // last name match
	createUser(t, db, "annie123", "Berta", "Blue")  // username match
	createUser(t, db, "carol", "Carol", "Carstens") // no match

	users, err := us.Search("ann")
	require.NoError(t, err)
	require.Len(t, users, 3)

	// Ordered by first name, then last name.
	assert.Equal(t, "Ann", users[0].FirstName)
	assert.Equal(t, "Berta", users[1].FirstName)
	assert.Equal(t, "Zoe", users[2].FirstName)
}

func TestFollowingIDsEmptyWithoutFollows(t *testing.T) {
	db := testDB(t)
	us := NewUserService(db, "test-hmac", "test-pepper")

	u := createUser(t, db, "alice", "Alice", "Archer")

	ids, err := us.FollowingIDs(u.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestHMACHashIsSafeForConcurrentUse(t *testing.T) {
	h := newHMAC("test-hmac")
	want := h.hash("remember-token")

	// The checkUser middleware hashes remember tokens on every request, so
	// parallel requests must all produce the same digest.
	var wg sync.WaitGroup
	got := make([]string, 64)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = h.hash("remember-token")
		}(i)
	}
	wg.Wait()

	for _, digest := range got {
		assert.Equal(t, want, digest)
	}
}

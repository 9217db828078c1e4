package crud

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookfeed/domain"
)

// chdirTemp moves the working directory into a fresh temp dir for the
// duration of the test, so image files never land in the repo.
func chdirTemp(t *testing.T) {
	t.Helper()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() {
		require.NoError(t, os.Chdir(orig))
	})
}

func TestImageExistsReportsStoredCovers(t *testing.T) {
	chdirTemp(t)
	is := NewImageService()

	// Nothing stored, nothing found.
	assert.False(t, is.Exists(domain.OwnerTypeBook, 1))

	dir := filepath.Join(domain.ImagesBaseDir, domain.OwnerTypeBook, "1")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cover.jpeg"), []byte("not a real image"), 0644))

	assert.True(t, is.Exists(domain.OwnerTypeBook, 1))
	assert.False(t, is.Exists(domain.OwnerTypeBook, 2))
}

func TestImageExistsSwallowsStorageFaults(t *testing.T) {
	chdirTemp(t)
	is := NewImageService()

	// The base directory is a file, not a directory: the probe must not
	// error out, it degrades to "no image".
	require.NoError(t, os.WriteFile(domain.ImagesBaseDir, []byte("in the way"), 0644))
	assert.False(t, is.Exists(domain.OwnerTypeBook, 1))
}

func TestImageByOwnerListsStoredFiles(t *testing.T) {
	chdirTemp(t)
	is := NewImageService()

	dir := filepath.Join(domain.ImagesBaseDir, domain.OwnerTypeBook, "7")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cover.jpeg"), []byte("x"), 0644))

	images, err := is.ByOwner(domain.OwnerTypeBook, 7)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "cover.jpeg", images[0].Filename)
	assert.Equal(t, domain.OwnerTypeBook, images[0].OwnerType)
	assert.Equal(t, 7, images[0].OwnerID)
}

func TestImageDeleteAndDeleteAll(t *testing.T) {
	chdirTemp(t)
	is := NewImageService()

	dir := filepath.Join(domain.ImagesBaseDir, domain.OwnerTypeBook, "3")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old.jpeg"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.jpeg"), []byte("y"), 0644))

	require.NoError(t, is.Delete(&domain.Image{
		OwnerType: domain.OwnerTypeBook,
		OwnerID:   3,
		Filename:  "old.jpeg",
	}))
	images, err := is.ByOwner(domain.OwnerTypeBook, 3)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "new.jpeg", images[0].Filename)

	require.NoError(t, is.DeleteAll(domain.OwnerTypeBook, 3))
	assert.False(t, is.Exists(domain.OwnerTypeBook, 3))
}

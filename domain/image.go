package domain

import (
	"fmt"
	"mime/multipart"
	"net/url"
)

const (
	// OwnerTypeBook expresses that an Image is the cover of a Book.
	OwnerTypeBook = "book"
	// ImagesBaseDir determines the general storage location of uploaded images.
	ImagesBaseDir = "images"
	// MaxUploadSize determines the maximum filesize of an image to be uploaded.
	MaxUploadSize int64 = 5 << 20 // 5 Megabyte
)

// Image represents an image to be uploaded. Images are only stored as files in the
// filesystem and have no dedicated table in the database. An Image always belongs
// to an owner, determined by its OwnerType and OwnerID; as of now the only owner
// is a Book, whose cover is stored under: images/book/<id>/<unique_name>.jpeg.
// URL contains the relative path to a stored image, starting in ImagesBaseDir.
// File contains the actual image file that will be stored in the filesystem.
type Image struct {
	URL         string         `json:"url"`
	OwnerType   string         `json:"-"`
	OwnerID     int            `json:"-"`
	File        multipart.File `json:"-"`
	Filename    string         `json:"-"`
	Extension   string         `json:"-"`
	ContentType string         `json:"-"`
	Size        int64          `json:"-"`
}

// ImageService is a set of methods to manipulate and work with the Image model
// and respective image files.
type ImageService interface {
	Create(image *Image) error
	ByOwner(ownerType string, ownerID int) ([]Image, error)
	// Exists reports whether the given owner has a stored image. Any fault
	// from the backing storage counts as "does not exist" and is swallowed.
	Exists(ownerType string, ownerID int) bool
	Delete(i *Image) error
	DeleteAll(ownerType string, ownerID int) error
}

// Path returns the path of an image stored in the filesystem.
func (i *Image) Path() string {
	temp := url.URL{
		Path: "/" + i.RelativePath(),
	}
	return temp.String()
}

// RelativePath returns the relative path to an image stored in the filesystem.
func (i *Image) RelativePath() string {
	return fmt.Sprintf("%v/%v/%v/%v", ImagesBaseDir, i.OwnerType, i.OwnerID, i.Filename)
}

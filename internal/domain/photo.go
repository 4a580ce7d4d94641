package domain

// AllowedPhotoTypes maps accepted photo content types to the file
// extension used in the object key.
var AllowedPhotoTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// MaxPhotoSize is the maximum accepted photo size in bytes (5 MB).
const MaxPhotoSize int64 = 5 * 1024 * 1024

// IsAllowedPhotoType checks whether contentType may be uploaded.
func IsAllowedPhotoType(contentType string) bool {
	_, ok := AllowedPhotoTypes[contentType]
	return ok
}

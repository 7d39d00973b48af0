package profile

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/hpungsan/careerbridge/internal/errors"
	"github.com/hpungsan/careerbridge/internal/localfile"
)

// MaxPhotoBytes is the largest photo accepted for upload.
const MaxPhotoBytes = 5 << 20

const (
	MsgNotImage = "Please select an image file (JPEG, PNG, etc.)"
	MsgTooLarge = "Please select an image smaller than 5MB"
)

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".bmp": true,
}

// PhotoFile is an image read from local disk.
type PhotoFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// ReadPhotoFile loads an image for upload. Besides the localfile checks it
// requires an image extension and image content.
func ReadPhotoFile(path string) (*PhotoFile, error) {
	if path != "" && !imageExts[strings.ToLower(filepath.Ext(path))] {
		return nil, errors.NewInvalidRequest(MsgNotImage)
	}
	f, err := localfile.Read(path, MaxPhotoBytes, MsgTooLarge)
	if err != nil {
		return nil, err
	}
	ct := http.DetectContentType(f.Data)
	if !strings.HasPrefix(ct, "image/") {
		return nil, errors.NewInvalidRequest(MsgNotImage)
	}
	return &PhotoFile{Name: f.Name, ContentType: ct, Data: f.Data}, nil
}

//go:build windows

package localfile

import (
	"os"

	"github.com/hpungsan/careerbridge/internal/errors"
)

// openNoFollow opens path read-only. Windows has no O_NOFOLLOW; ReadPhotoFile
// has already rejected symlinks via Lstat.
func openNoFollow(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound("file", path)
		}
		return nil, errors.NewInternal(err)
	}
	return f, nil
}

//go:build !windows

package localfile

import (
	stderrors "errors"
	"os"
	"syscall"

	"github.com/hpungsan/careerbridge/internal/errors"
)

// openNoFollow opens path read-only with O_NOFOLLOW so a symlink swapped in
// after validation is refused at open time.
func openNoFollow(path string) (*os.File, error) {
	fd, err := syscall.Open(path, syscall.O_RDONLY|syscall.O_NOFOLLOW|syscall.O_CLOEXEC, 0)
	if err != nil {
		if stderrors.Is(err, syscall.ELOOP) {
			return nil, errors.NewInvalidRequest("file must not be a symlink")
		}
		if stderrors.Is(err, syscall.ENOENT) {
			return nil, errors.NewNotFound("file", path)
		}
		return nil, errors.NewInternal(err)
	}
	return os.NewFile(uintptr(fd), path), nil
}

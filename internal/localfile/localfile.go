// Package localfile reads user-supplied local files for upload.
package localfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/careerbridge/internal/errors"
)

// File is a local file loaded into memory.
type File struct {
	Name string
	Data []byte
}

// Read loads path, refusing traversal, symlinks, non-regular files and
// anything larger than maxBytes. tooLarge is the message used for the size
// refusal.
//
// The final component is opened with O_NOFOLLOW where the platform has it.
func Read(path string, maxBytes int64, tooLarge string) (*File, error) {
	if path == "" {
		return nil, errors.NewInvalidRequest("path is required")
	}
	if containsTraversal(path) {
		return nil, errors.NewInvalidRequest("path must not contain directory traversal (..)")
	}
	cleaned := filepath.Clean(path)
	if tooLarge == "" {
		tooLarge = fmt.Sprintf("file is larger than %d bytes", maxBytes)
	}

	if info, err := os.Lstat(cleaned); err == nil {
		if info.Mode()&os.ModeSymlink != 0 {
			return nil, errors.NewInvalidRequest("file must not be a symlink")
		}
		if !info.Mode().IsRegular() {
			return nil, errors.NewInvalidRequest("not a regular file: " + path)
		}
		if info.Size() > maxBytes {
			return nil, errors.NewInvalidRequest(tooLarge)
		}
	}

	f, err := openNoFollow(cleaned)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// the file may have grown since Lstat
	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to read %s: %w", path, err))
	}
	if int64(len(data)) > maxBytes {
		return nil, errors.NewInvalidRequest(tooLarge)
	}
	return &File{Name: filepath.Base(cleaned), Data: data}, nil
}

func containsTraversal(path string) bool {
	for _, part := range strings.Split(path, string(filepath.Separator)) {
		if part == ".." {
			return true
		}
	}
	if filepath.Separator != '/' {
		for _, part := range strings.Split(path, "/") {
			if part == ".." {
				return true
			}
		}
	}
	return false
}

package ops

import (
	"context"

	"github.com/hpungsan/careerbridge/internal/profile"
)

// ProfilePhotoOutput contains the result of ProfilePhoto.
type ProfilePhotoOutput struct {
	URL string `json:"url"`
}

// ProfilePhoto resolves the active user's photo, or the default avatar.
func ProfilePhoto(ctx context.Context, env *Env) *ProfilePhotoOutput {
	return &ProfilePhotoOutput{URL: env.Profile.Photo(ctx, env.Session.Current())}
}

// UploadPhotoInput contains parameters for UploadPhoto.
type UploadPhotoInput struct {
	Path string
}

// UploadPhoto reads a local image and uploads it for the active user. When
// the API is unreachable the output carries a preview and the error is
// returned alongside it.
func UploadPhoto(ctx context.Context, env *Env, input UploadPhotoInput) (*profile.UploadResult, error) {
	user, err := env.Session.RequireCurrent()
	if err != nil {
		return nil, err
	}
	photo, err := profile.ReadPhotoFile(input.Path)
	if err != nil {
		return nil, err
	}
	return env.Profile.UploadPhoto(ctx, user, photo)
}

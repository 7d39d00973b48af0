// Package profile resolves and uploads the signed-in user's profile photo.
package profile

import (
	"context"
	"encoding/base64"
	"log"
	"net/http"

	"github.com/hpungsan/careerbridge/internal/errors"
	"github.com/hpungsan/careerbridge/internal/events"
	"github.com/hpungsan/careerbridge/internal/identity"
)

// DefaultAvatar is shown when no photo can be resolved.
const DefaultAvatar = "/static/avatar.svg"

// MsgPreviewOnly accompanies an upload that fell back to a local preview.
const MsgPreviewOnly = "Photo preview only; the change is not saved yet."

// API is the slice of the backend client the profile service needs.
type API interface {
	ProfilePhoto(ctx context.Context, userID string) (string, error)
	UploadPhoto(ctx context.Context, userID, filename string, data []byte) (string, error)
	ResolvePhotoURL(ref string) string
}

// Publisher receives profilePhotoUpdated events.
type Publisher interface {
	Publish(ctx context.Context, ev events.Event)
}

// Service reads and writes profile photos through the API.
type Service struct {
	api    API
	pub    Publisher
	logger *log.Logger
}

// New returns a Service. pub may be nil when nobody listens for photo changes.
func New(api API, pub Publisher, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{api: api, pub: pub, logger: logger}
}

// Photo returns the URL to display for user. The API's stored photo wins,
// then the photo cached on the identity, then DefaultAvatar. Lookup failures
// are logged and never returned.
func (s *Service) Photo(ctx context.Context, user *identity.Identity) string {
	fallback := s.Cached(user)
	if user == nil {
		return fallback
	}
	ref, err := s.api.ProfilePhoto(ctx, user.ID)
	if err != nil {
		s.logger.Printf("profile: fetch photo for %s: %v", user.ID, err)
		return fallback
	}
	if ref == "" {
		return fallback
	}
	return s.api.ResolvePhotoURL(ref)
}

// Cached is Photo without the API lookup: the identity's cached photo or
// DefaultAvatar.
func (s *Service) Cached(user *identity.Identity) string {
	if user == nil || user.ProfilePhoto == "" {
		return DefaultAvatar
	}
	return s.api.ResolvePhotoURL(user.ProfilePhoto)
}

// UploadResult describes what an upload achieved.
type UploadResult struct {
	URL       string `json:"url"`
	Persisted bool   `json:"persisted"`
	Message   string `json:"message,omitempty"`
}

// UploadPhoto sends photo to the API for user. On success the new URL is
// published as profilePhotoUpdated. When the API call fails the result holds
// a data: URI preview with Persisted false and the error is still returned.
func (s *Service) UploadPhoto(ctx context.Context, user *identity.Identity, photo *PhotoFile) (*UploadResult, error) {
	if user == nil || user.ID == "" {
		return nil, errors.NewUnauthenticated()
	}
	if photo == nil || len(photo.Data) == 0 {
		return nil, errors.NewInvalidRequest(MsgNotImage)
	}
	if len(photo.Data) > MaxPhotoBytes {
		return nil, errors.NewInvalidRequest(MsgTooLarge)
	}

	url, err := s.api.UploadPhoto(ctx, user.ID, photo.Name, photo.Data)
	if err != nil {
		s.logger.Printf("profile: upload photo for %s: %v", user.ID, err)
		return &UploadResult{URL: dataURI(photo), Persisted: false, Message: MsgPreviewOnly}, err
	}

	if s.pub != nil {
		s.pub.Publish(ctx, events.Event{
			Topic:   events.TopicProfilePhotoUpdated,
			Payload: events.ProfilePhotoUpdated{UserID: user.ID, URL: url},
		})
	}
	return &UploadResult{URL: url, Persisted: true}, nil
}

func dataURI(photo *PhotoFile) string {
	ct := photo.ContentType
	if ct == "" {
		ct = http.DetectContentType(photo.Data)
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(photo.Data)
}

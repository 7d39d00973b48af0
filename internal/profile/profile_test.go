package profile

import (
	"bytes"
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/hpungsan/careerbridge/internal/errors"
	"github.com/hpungsan/careerbridge/internal/events"
	"github.com/hpungsan/careerbridge/internal/identity"
	"github.com/stretchr/testify/require"
)

// minimal 1x1 PNG header; enough for content sniffing
var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type fakeAPI struct {
	stored    string
	fetchErr  error
	uploadURL string
	uploadErr error
	uploads   int
}

func (f *fakeAPI) ProfilePhoto(context.Context, string) (string, error) {
	return f.stored, f.fetchErr
}

func (f *fakeAPI) UploadPhoto(_ context.Context, _, _ string, _ []byte) (string, error) {
	f.uploads++
	return f.uploadURL, f.uploadErr
}

func (f *fakeAPI) ResolvePhotoURL(ref string) string {
	if strings.HasPrefix(ref, "http") {
		return ref
	}
	return "http://api.test/api" + ref
}

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) {
	p.events = append(p.events, ev)
}

var user = &identity.Identity{ID: "U1", FirstName: "Asha"}

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func TestPhoto(t *testing.T) {
	ctx := context.Background()

	s := New(&fakeAPI{stored: "/uploads/u1.png"}, nil, quietLogger())
	require.Equal(t, "http://api.test/api/uploads/u1.png", s.Photo(ctx, user))

	s = New(&fakeAPI{stored: "https://cdn.test/u1.png"}, nil, quietLogger())
	require.Equal(t, "https://cdn.test/u1.png", s.Photo(ctx, user))

	s = New(&fakeAPI{}, nil, quietLogger())
	require.Equal(t, DefaultAvatar, s.Photo(ctx, user))
	require.Equal(t, DefaultAvatar, s.Photo(ctx, nil))
}

func TestPhoto_FallsBackOnError(t *testing.T) {
	logs := &bytes.Buffer{}
	s := New(&fakeAPI{fetchErr: errors.NewUpstreamUnavailable(nil)}, nil, log.New(logs, "", 0))

	require.Equal(t, DefaultAvatar, s.Photo(context.Background(), user))
	require.Contains(t, logs.String(), "fetch photo for U1")

	cached := &identity.Identity{ID: "U1", ProfilePhoto: "/uploads/old.png"}
	require.Equal(t, "http://api.test/api/uploads/old.png", s.Photo(context.Background(), cached))
}

func TestCached(t *testing.T) {
	api := &fakeAPI{fetchErr: errors.NewUpstreamUnavailable(nil)}
	s := New(api, nil, quietLogger())

	require.Equal(t, DefaultAvatar, s.Cached(nil))
	require.Equal(t, DefaultAvatar, s.Cached(user))
	require.Equal(t, "http://api.test/api/uploads/old.png",
		s.Cached(&identity.Identity{ID: "U1", ProfilePhoto: "/uploads/old.png"}))
}

func TestUploadPhoto_Success(t *testing.T) {
	api := &fakeAPI{uploadURL: "/uploads/new.png"}
	pub := &recordingPublisher{}
	s := New(api, pub, quietLogger())

	res, err := s.UploadPhoto(context.Background(), user, &PhotoFile{Name: "me.png", Data: pngBytes})
	require.NoError(t, err)
	require.True(t, res.Persisted)
	require.Equal(t, "/uploads/new.png", res.URL)

	require.Len(t, pub.events, 1)
	require.Equal(t, events.TopicProfilePhotoUpdated, pub.events[0].Topic)
	require.Equal(t, events.ProfilePhotoUpdated{UserID: "U1", URL: "/uploads/new.png"}, pub.events[0].Payload)
}

func TestUploadPhoto_PreviewOnFailure(t *testing.T) {
	api := &fakeAPI{uploadErr: errors.NewUpstreamUnavailable(nil)}
	pub := &recordingPublisher{}
	s := New(api, pub, quietLogger())

	res, err := s.UploadPhoto(context.Background(), user, &PhotoFile{Name: "me.png", Data: pngBytes})
	require.True(t, errors.Is(err, errors.ErrUpstreamUnavailable))
	require.NotNil(t, res)
	require.False(t, res.Persisted)
	require.Equal(t, MsgPreviewOnly, res.Message)
	require.True(t, strings.HasPrefix(res.URL, "data:image/png;base64,"))
	require.Empty(t, pub.events)
}

func TestUploadPhoto_Rejects(t *testing.T) {
	api := &fakeAPI{}
	s := New(api, nil, quietLogger())
	ctx := context.Background()

	_, err := s.UploadPhoto(ctx, nil, &PhotoFile{Data: pngBytes})
	require.True(t, errors.Is(err, errors.ErrUnauthenticated))

	_, err = s.UploadPhoto(ctx, user, &PhotoFile{})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))

	_, err = s.UploadPhoto(ctx, user, &PhotoFile{Data: make([]byte, MaxPhotoBytes+1)})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
	require.Zero(t, api.uploads)
}

func TestReadPhotoFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "me.png")
	require.NoError(t, os.WriteFile(path, pngBytes, 0600))

	pf, err := ReadPhotoFile(path)
	require.NoError(t, err)
	require.Equal(t, "me.png", pf.Name)
	require.Equal(t, "image/png", pf.ContentType)
	require.Equal(t, pngBytes, pf.Data)
}

func TestReadPhotoFile_Rejects(t *testing.T) {
	dir := t.TempDir()

	textAsPNG := filepath.Join(dir, "notes.png")
	require.NoError(t, os.WriteFile(textAsPNG, []byte("just some text"), 0600))

	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("x"), 0600))

	big := filepath.Join(dir, "big.png")
	require.NoError(t, os.WriteFile(big, append(pngBytes, make([]byte, MaxPhotoBytes)...), 0600))

	tests := []struct {
		name string
		path string
		msg  string
	}{
		{"empty", "", "path is required"},
		{"traversal", "../etc/me.png", "path must not contain directory traversal (..)"},
		{"wrong extension", txt, MsgNotImage},
		{"not an image", textAsPNG, MsgNotImage},
		{"too large", big, MsgTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadPhotoFile(tt.path)
			require.True(t, errors.Is(err, errors.ErrInvalidRequest), "got %v", err)
			require.Equal(t, tt.msg, err.(*errors.BridgeError).Message)
		})
	}

	_, err := ReadPhotoFile(filepath.Join(dir, "missing.png"))
	require.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestReadPhotoFile_Symlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	dir := t.TempDir()
	target := filepath.Join(dir, "real.png")
	require.NoError(t, os.WriteFile(target, pngBytes, 0600))
	link := filepath.Join(dir, "link.png")
	require.NoError(t, os.Symlink(target, link))

	_, err := ReadPhotoFile(link)
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

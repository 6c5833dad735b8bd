package source

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsURL(t *testing.T) {
	tests := []struct {
		in      string
		schemes []string
		want    bool
	}{
		{"https://example.com/video.mp4", nil, true},
		{"http://example.com", nil, true},
		{"https://", nil, false},
		{"ftp://example.com/a.mp4", nil, false},
		{"/tmp/video.mp4", nil, false},
		{"data:video/mp4;base64,AAAA", nil, false},
		{"data:video/mp4;base64,AAAA", []string{"data"}, true},
		{"data:", []string{"data"}, false},
		{"mailto:someone@example.com", []string{"mailto"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsURL(tt.in, tt.schemes...))
		})
	}
}

func TestMIMEFor(t *testing.T) {
	assert.Equal(t, "video/webm", MIMEFor("clip.WEBM"))
	assert.Equal(t, "video/ogg", MIMEFor("clip.ogv"))
	assert.Equal(t, "video/x-msvideo", MIMEFor("clip.avi"))
	assert.Equal(t, "video/quicktime", MIMEFor("clip.mov"))
	assert.Equal(t, "video/mp4", MIMEFor("clip.mkv"))
	assert.Equal(t, "video/mp4", MIMEFor("clip"))
}

func TestResolvePassesURLsThrough(t *testing.T) {
	for _, src := range []string{"https://example.com/a.mp4", "data:video/webm;base64,AAAA"} {
		got, err := Resolve(src, "")
		require.NoError(t, err)
		assert.Equal(t, src, got)
	}
}

func TestResolveEncodesFilesInMediaDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "clips"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "clips", "clip.webm"), []byte("webm-bytes"), 0644))

	got, err := Resolve("clips/clip.webm", dir)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "data:video/webm;base64,"))
	assert.Equal(t, DataURL([]byte("webm-bytes"), "video/webm"), got)
}

func TestResolveUnavailable(t *testing.T) {
	dir := t.TempDir()
	for _, src := range []string{"", "   ", "missing.mp4"} {
		_, err := Resolve(src, dir)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrSourceUnavailable))
	}
}

func TestResolveStaysInsideMediaDir(t *testing.T) {
	parent := t.TempDir()
	dir := filepath.Join(parent, "media")
	require.NoError(t, os.MkdirAll(dir, 0755))
	secret := filepath.Join(parent, "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("DB_PASSWORD=hunter2"), 0644))
	require.NoError(t, os.Symlink(secret, filepath.Join(dir, "link.mp4")))

	for _, src := range []string{secret, "/etc/passwd", "../secret.txt", "clips/../../secret.txt", "link.mp4"} {
		got, err := Resolve(src, dir)
		assert.True(t, errors.Is(err, ErrSourceUnavailable), src)
		assert.Empty(t, got, src)
	}
}

func TestResolveWithoutMediaDirRefusesPaths(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("mp4"), 0644))

	_, err := Resolve(path, "")
	assert.True(t, errors.Is(err, ErrSourceUnavailable))
}

func TestFromBytes(t *testing.T) {
	got, err := FromBytes([]byte{1, 2, 3}, "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "data:video/mp4;base64,"))

	got, err = FromBytes([]byte{1, 2, 3}, "upload.mov")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "data:video/quicktime;base64,"))

	_, err = FromBytes(nil, "x.mp4")
	assert.True(t, errors.Is(err, ErrSourceUnavailable))
}

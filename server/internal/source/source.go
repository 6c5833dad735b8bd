// Package source turns what a host passes as a video source into something a
// browser <video> element can play.
package source

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// ErrSourceUnavailable is returned when a source cannot be turned into a
// playable reference. It is never retried.
var ErrSourceUnavailable = errors.New("video source unavailable")

// DefaultMIME is used when nothing better is known.
const DefaultMIME = "video/mp4"

var mimeByExt = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".webm": "video/webm",
	".ogg":  "video/ogg",
	".ogv":  "video/ogg",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
}

// MIMEFor guesses a video MIME type from a file name.
func MIMEFor(name string) string {
	if mime, ok := mimeByExt[strings.ToLower(filepath.Ext(name))]; ok {
		return mime
	}
	return DefaultMIME
}

// IsURL reports whether s is a URL with one of the allowed schemes. http and
// https need a host; data needs a payload.
func IsURL(s string, schemes ...string) bool {
	if len(schemes) == 0 {
		schemes = []string{"http", "https"}
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	allowed := false
	for _, scheme := range schemes {
		if u.Scheme == scheme {
			allowed = true
			break
		}
	}
	if !allowed {
		return false
	}
	switch u.Scheme {
	case "http", "https":
		return u.Host != ""
	case "data":
		return u.Opaque != "" || u.Path != ""
	}
	return false
}

// Resolve passes URLs through and encodes files found under mediaDir as data
// URLs. src must be a relative path that stays inside mediaDir; an empty
// mediaDir allows URLs only.
func Resolve(src, mediaDir string) (string, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return "", fmt.Errorf("%w: empty source", ErrSourceUnavailable)
	}
	if IsURL(src, "http", "https", "data") {
		return src, nil
	}
	if mediaDir == "" {
		return "", fmt.Errorf("%w: %q is not an http(s) or data URL", ErrSourceUnavailable, src)
	}
	return FromFile(mediaDir, src)
}

// FromFile reads name from inside dir and returns it as a base64 data URL.
// Absolute names, ".." escapes and symlinks leading out of dir are refused.
func FromFile(dir, name string) (string, error) {
	if !filepath.IsLocal(name) {
		return "", fmt.Errorf("%w: %q is outside the media directory", ErrSourceUnavailable, name)
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return "", fmt.Errorf("%w: open media directory: %v", ErrSourceUnavailable, err)
	}
	defer root.Close()

	f, err := root.Open(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, name, err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, name, err)
	}
	return DataURL(content, MIMEFor(name)), nil
}

// FromBytes encodes raw video bytes. name, if non-empty, is used to guess the
// MIME type.
func FromBytes(content []byte, name string) (string, error) {
	if len(content) == 0 {
		return "", fmt.Errorf("%w: empty upload", ErrSourceUnavailable)
	}
	mime := DefaultMIME
	if name != "" {
		mime = MIMEFor(name)
	}
	return DataURL(content, mime), nil
}

// DataURL builds a data URL for content.
func DataURL(content []byte, mime string) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(content)
}

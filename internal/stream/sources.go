// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package stream

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// Details strings set by the local pickers.
const (
	DetailsLocalFiles   = "From Local Files"
	DetailsSpatialMedia = "Local File"
	DefaultDeepLinkName = "Stream"
)

// DeepLinkHost is the host (or opaque path) of the open-stream deep link.
const DeepLinkHost = "open-stream"

const sampleStreamURL = "https://stream.spatialgen.com/stream/JNVc-sA-_QxdOQNnzlZTc/index.m3u8"

// FromFilePicker describes a file picked from the file system. grant is the
// security-scoped access obtained by the picker, or nil if it was refused.
func FromFilePicker(filePath string, grant AccessGrant) (Descriptor, error) {
	d, err := fromLocalFile(filePath, DetailsLocalFiles)
	if err != nil {
		return Descriptor{}, err
	}
	d.SecurityScoped = true
	d.Grant = OnceGrant(grant)
	return d, nil
}

// FromSpatialPicker describes a spatial video picked from the photo library.
func FromSpatialPicker(filePath string) (Descriptor, error) {
	d, err := fromLocalFile(filePath, DetailsSpatialMedia)
	if err != nil {
		return Descriptor{}, err
	}
	d.Projection = Rectangular{}
	return d, nil
}

func fromLocalFile(filePath, details string) (Descriptor, error) {
	if strings.TrimSpace(filePath) == "" {
		return Descriptor{}, fmt.Errorf("%w: empty path", ErrInvalidLocator)
	}
	abs, err := filepath.Abs(filePath)
	if err != nil {
		return Descriptor{}, fmt.Errorf("%w: %v", ErrInvalidLocator, err)
	}
	u := &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return Descriptor{
		Title:                      filepath.Base(abs),
		Details:                    details,
		URL:                        u,
		FallbackFieldOfViewDegrees: DefaultFallbackFieldOfView,
	}, nil
}

// FromURL describes a source entered as free text. An empty title is
// derived from the last path element of the URL.
func FromURL(rawURL, title, details string) (Descriptor, error) {
	d, err := New(rawURL, title, details)
	if err != nil {
		return Descriptor{}, err
	}
	if d.Title == "" {
		d.Title = titleFromURL(d.URL)
	}
	return d, nil
}

func titleFromURL(u *url.URL) string {
	base := path.Base(u.Path)
	if base == "." || base == "/" || base == "" {
		return u.Host
	}
	return base
}

// ParseDeepLink decodes scheme://open-stream?url=&title=&details=.
func ParseDeepLink(raw string) (Descriptor, error) {
	link, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Descriptor{}, fmt.Errorf("%w: %v", ErrInvalidLocator, err)
	}
	target := link.Host
	if target == "" {
		target = strings.Trim(link.Opaque, "/")
	}
	if target == "" {
		target = strings.Trim(link.Path, "/")
	}
	if target != DeepLinkHost {
		return Descriptor{}, fmt.Errorf("%w: unsupported deep link %q", ErrInvalidLocator, target)
	}

	q := link.Query()
	title := q.Get("title")
	if title == "" {
		title = DefaultDeepLinkName
	}
	return New(q.Get("url"), title, q.Get("details"))
}

// SampleStream is the example HLS stream offered when nothing was picked.
func SampleStream() Descriptor {
	u, _ := url.Parse(sampleStreamURL)
	return Descriptor{
		Title:                      "Example Stream",
		Details:                    "Local basketball player takes a shot at sunset",
		URL:                        u,
		Projection:                 Equirectangular{FieldOfViewDegrees: 180},
		FallbackFieldOfViewDegrees: DefaultFallbackFieldOfView,
	}
}

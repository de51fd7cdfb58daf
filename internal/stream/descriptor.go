// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package stream describes playable sources handed to the playback core.
package stream

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// DefaultFallbackFieldOfView is used when neither the caller nor the media
// supply a field of view.
const DefaultFallbackFieldOfView = 180.0

// FallbackFieldOfViewOptions are the values offered to users picking a
// fallback field of view.
var FallbackFieldOfViewOptions = []float64{65, 144, 180, 360}

// ErrInvalidLocator is returned for empty or unparsable source locators.
var ErrInvalidLocator = errors.New("invalid source locator")

// AccessGrant is a revocable permission to read a user-selected file.
// Release is called exactly once, when the owning session closes.
type AccessGrant interface {
	Release()
}

// GrantFunc adapts a plain function to AccessGrant.
type GrantFunc func()

func (f GrantFunc) Release() { f() }

// Descriptor describes one playable source. Treat it as immutable once
// handed to the playback controller.
type Descriptor struct {
	Title   string
	Details string
	URL     *url.URL

	// SecurityScoped is true when reading the source needed an elevated,
	// revocable grant. Grant carries that grant; it may be nil when the
	// grant could not be obtained.
	SecurityScoped bool
	Grant          AccessGrant

	// Projection is nil when the producer left it to the resolver.
	Projection Projection

	FallbackFieldOfViewDegrees float64
}

// New builds a descriptor for rawURL with the default fallback field of view.
func New(rawURL, title, details string) (Descriptor, error) {
	u, err := parseLocator(rawURL)
	if err != nil {
		return Descriptor{}, err
	}
	return Descriptor{
		Title:                      title,
		Details:                    details,
		URL:                        u,
		FallbackFieldOfViewDegrees: DefaultFallbackFieldOfView,
	}, nil
}

func parseLocator(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidLocator)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLocator, err)
	}
	if u.Scheme == "" {
		return nil, fmt.Errorf("%w: missing scheme in %q", ErrInvalidLocator, raw)
	}
	return u, nil
}

// ID is the canonical string form of the source locator and the
// descriptor's identity.
func (d Descriptor) ID() string {
	if d.URL == nil {
		return ""
	}
	return d.URL.String()
}

// Equal reports whether both descriptors point at the same source.
func (d Descriptor) Equal(o Descriptor) bool {
	return d.ID() == o.ID()
}

// FallbackFieldOfView returns the fallback, substituting the default when
// the producer left it unset.
func (d Descriptor) FallbackFieldOfView() float64 {
	if d.FallbackFieldOfViewDegrees == 0 {
		return DefaultFallbackFieldOfView
	}
	return d.FallbackFieldOfViewDegrees
}

// WithFallbackFieldOfView returns a copy using deg as the fallback.
func (d Descriptor) WithFallbackFieldOfView(deg float64) Descriptor {
	d.FallbackFieldOfViewDegrees = deg
	return d
}

// WithProjection returns a copy requesting p.
func (d Descriptor) WithProjection(p Projection) Descriptor {
	d.Projection = p
	return d
}

// ProjectionKind reports the requested kind; an unresolved projection is
// treated as equirectangular.
func (d Descriptor) ProjectionKind() ProjectionKind {
	if d.Projection == nil {
		return KindEquirectangular
	}
	return d.Projection.Kind()
}

// OnceGrant wraps g so that Release only reaches it once. A nil g yields nil.
func OnceGrant(g AccessGrant) AccessGrant {
	if g == nil {
		return nil
	}
	if _, ok := g.(*onceGrant); ok {
		return g
	}
	return &onceGrant{inner: g}
}

type onceGrant struct {
	once  sync.Once
	inner AccessGrant
}

func (o *onceGrant) Release() {
	o.once.Do(o.inner.Release)
}

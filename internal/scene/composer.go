// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package scene

import (
	"errors"

	"github.com/ManuGH/openimmersive/internal/geom"
	"github.com/ManuGH/openimmersive/internal/log"
	"github.com/ManuGH/openimmersive/internal/mesh"
	"github.com/ManuGH/openimmersive/internal/pose"
	"github.com/rs/zerolog"
)

// Node names used by the composer.
const (
	NameRoot          = "Root"
	NameVideoScreen   = "VideoScreen"
	NameNativeSurface = "NativeSurface"
	NameControlPanel  = "ControlPanel"
	NameTapCatcher    = "TapCatcher"
)

// ErrNotPrepared is returned by Attach before Prepare.
var ErrNotPrepared = errors.New("scene not prepared")

// Target is what a tap landed on.
type Target string

const (
	TargetNone    Target = ""
	TargetPanel   Target = "panel"
	TargetCatcher Target = "catcher"
)

// Config places the composer's nodes. Offsets are in metres.
type Config struct {
	// AnchorHeight is the seated eye level used until a head pose arrives.
	AnchorHeight float64
	// PanelOffset is the control panel's offset from the anchor, as seen
	// from the video surface.
	PanelOffset   geom.Vec3
	PanelSize     geom.Vec3
	CatcherSize   geom.Vec3
	CatcherOffset geom.Vec3
}

// DefaultConfig matches the shipped configuration defaults.
func DefaultConfig() Config {
	return Config{
		AnchorHeight:  1.2,
		PanelOffset:   geom.V3(0, -0.5, -0.7),
		PanelSize:     geom.V3(0.6, 0.35, 0.02),
		CatcherSize:   geom.V3(100, 100, 1),
		CatcherOffset: geom.V3(0, 0, -5),
	}
}

// PanelToggler receives taps that land outside the panel.
type PanelToggler interface {
	TogglePanel()
}

// Composer builds and tears down the player's part of the scene. All
// methods run on the scene loop.
type Composer struct {
	cfg     Config
	world   *World
	tracker *pose.Tracker
	toggler PanelToggler
	logger  zerolog.Logger

	root    *Node
	surface *Node
	panel   *Node
	catcher *Node

	panelVisible bool
	attached     int
}

func NewComposer(cfg Config, world *World, tracker *pose.Tracker) *Composer {
	return &Composer{
		cfg:     cfg,
		world:   world,
		tracker: tracker,
		logger:  log.WithComponent("scene"),
	}
}

// SetToggler wires the receiver of capture-volume taps.
func (c *Composer) SetToggler(t PanelToggler) {
	c.toggler = t
}

// DefaultAnchor is where the root sits while no head pose is known.
func (c *Composer) DefaultAnchor() geom.Vec3 {
	return geom.V3(0, c.cfg.AnchorHeight, 0)
}

// Prepare creates the anchor root and starts following the head. Calling
// it twice keeps the existing root.
func (c *Composer) Prepare() {
	if c.root != nil {
		return
	}
	root := &Node{Name: NameRoot, Transform: geom.At(c.DefaultAnchor()), Enabled: true}
	c.root = root
	c.world.AddRoot(root)

	// Position only: the anchor translates with the head but never rotates.
	c.tracker.Start(func(p pose.HeadPose) {
		root.Transform.Translation = p.Position
	})
	c.logger.Debug().Str(log.FieldEvent, "scene.prepared").Msg("anchor root created")
}

// Attach adds the video surface, the control panel and the tap catcher.
func (c *Composer) Attach(res mesh.Result) error {
	if c.root == nil {
		return ErrNotPrepared
	}
	if c.surface != nil {
		c.detachSurface()
	}

	surface := &Node{Name: NameVideoScreen, Transform: res.Placement, Enabled: true}
	if res.Native {
		surface.Name = NameNativeSurface
		surface.Transform = geom.IdentityTransform()
	}
	r := res
	surface.Surface = &r
	c.world.AddChild(c.root, surface)

	// The offset is anchor-relative; express it in the surface's frame so
	// the panel lands in the same spot whatever the surface placement.
	panel := &Node{
		Name:       NameControlPanel,
		Transform:  geom.At(surface.Transform.InverseApply(c.cfg.PanelOffset)),
		Attachment: NameControlPanel,
		Enabled:    c.panelVisible,
	}
	c.world.AddChild(surface, panel)
	c.world.SetCollider(panel, Collider{Box: geom.Box{Size: c.cfg.PanelSize}})

	catcher := &Node{Name: NameTapCatcher, Transform: geom.At(c.cfg.CatcherOffset), Enabled: true}
	c.world.AddChild(c.root, catcher)
	c.world.SetCollider(catcher, Collider{Box: geom.Box{Size: c.cfg.CatcherSize}, Trigger: true})

	c.surface, c.panel, c.catcher = surface, panel, catcher
	c.attached++

	c.logger.Debug().
		Str(log.FieldEvent, "scene.attached").
		Str(log.FieldProjection, string(res.Kind)).
		Bool("native", res.Native).
		Msg("video surface attached")
	return nil
}

func (c *Composer) detachSurface() {
	c.world.Remove(c.surface)
	c.world.Remove(c.catcher)
	c.surface, c.panel, c.catcher = nil, nil, nil
}

// SetPanelVisible shows or hides the control panel. A hidden panel lets
// taps through to the capture volume.
func (c *Composer) SetPanelVisible(v bool) {
	c.panelVisible = v
	if c.panel != nil {
		c.panel.Enabled = v
	}
}

// PanelVisible reports the last requested visibility.
func (c *Composer) PanelVisible() bool { return c.panelVisible }

// Tap routes a tap ray. Taps on the capture volume toggle the panel; taps
// on the panel belong to the host's panel view.
func (c *Composer) Tap(r geom.Ray) Target {
	hit, ok := c.world.HitTest(r)
	if !ok {
		return TargetNone
	}
	switch hit.Node {
	case c.panel:
		return TargetPanel
	case c.catcher:
		if c.toggler != nil {
			c.toggler.TogglePanel()
		}
		return TargetCatcher
	}
	return TargetNone
}

// AnchorPosition is where host attachments should be anchored: the head
// position once tracked, the default anchor otherwise.
func (c *Composer) AnchorPosition() geom.Vec3 {
	if c.root != nil {
		return c.world.WorldTransform(c.root).Translation
	}
	if p, ok := c.tracker.Current(); ok {
		return p.Position
	}
	return c.DefaultAnchor()
}

// Root is the anchor root, or nil between sessions.
func (c *Composer) Root() *Node { return c.root }

// Attached counts surfaces attached over the composer's lifetime.
func (c *Composer) Attached() int { return c.attached }

// Teardown stops head tracking and removes every node and collider the
// composer created.
func (c *Composer) Teardown() {
	c.tracker.Stop()
	if c.root != nil {
		c.world.Remove(c.root)
		c.logger.Debug().Str(log.FieldEvent, "scene.torn_down").Msg("scene removed")
	}
	c.root, c.surface, c.panel, c.catcher = nil, nil, nil, nil
	c.panelVisible = false
}

// Package coordinator drives an overlay from a Stream Deck+: the touch strip
// stands in for the touch display, keys and dials edit the layout, and the
// overlay is rendered back onto the strip.
package coordinator

import (
	"context"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/phinze/padoverlay/internal/overlay"
	"github.com/phinze/padoverlay/internal/pad"
	"github.com/phinze/padoverlay/internal/touch"
	"go.uber.org/zap"
	"golang.org/x/image/colornames"
	"golang.org/x/image/draw"
	"rafaelmartins.com/p/streamdeck"
)

const (
	// HoldDuration is how long a long strip touch keeps its contact down.
	HoldDuration = 500 * time.Millisecond

	renderInterval = 200 * time.Millisecond

	// nudgeStep is the distance in surface pixels of one nudge key press.
	nudgeStep = 10

	// opacityStep is the opacity change in percent of one dial detent.
	opacityStep = 5
)

// Key assignments, as offsets from the first key.
const (
	keyEdit = iota
	keyReset
	_
	_
	keyNudgeLeft
	keyNudgeUp
	keyNudgeDown
	keyNudgeRight
)

// Dial assignments, in device order.
const (
	dialScale = iota
	dialOpacity
)

var (
	colorEditing = colornames.Orange
	colorIdle    = colornames.Darkslategray
	colorAction  = colornames.Steelblue
)

// Coordinator routes device events into an overlay and renders it.
type Coordinator struct {
	device  *streamdeck.Device
	overlay *overlay.Overlay
	logger  *zap.Logger
	surface image.Rectangle

	// Strip compositing
	stripRect image.Rectangle

	// strip replays gestures as touch contacts; guarded by mu
	mu    sync.Mutex
	strip touch.Strip
	hold  time.Duration

	lastState   pad.State
	lastEditing bool
	keysDrawn   bool

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	unsubscribe func()
}

// New creates a Coordinator feeding ov from device. surface is the overlay
// area the touch strip is stretched over.
func New(device *streamdeck.Device, ov *overlay.Overlay, surface image.Rectangle, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		device:  device,
		overlay: ov,
		logger:  logger.Named("coordinator"),
		surface: surface,
		strip:   touch.Strip{Surface: surface},
		hold:    HoldDuration,
	}
}

// Start registers device handlers and runs the render loop until ctx is
// cancelled.
func (c *Coordinator) Start(ctx context.Context) error {
	c.ctx, c.cancel = context.WithCancel(ctx)

	// Get full strip rectangle for compositing
	if c.device.GetTouchStripSupported() {
		rect, err := c.device.GetTouchStripImageRectangle()
		if err != nil {
			c.logger.Warn("Touch strip size unavailable", zap.Error(err))
		} else {
			c.setStripRect(rect)
		}
	}

	c.unsubscribe = c.overlay.Subscribe(func(info overlay.Info) {
		c.logger.Info("Layout changed",
			zap.String("element", info.ID),
			zap.Int("scale", info.Scale),
			zap.Int("opacity", info.Opacity),
		)
	})

	c.setupEventHandlers()

	// Start device listener (not in WaitGroup - closed by device.Close())
	errChan := make(chan error, 1)
	go func() {
		if err := c.device.Listen(errChan); err != nil {
			select {
			case errChan <- err:
			default:
			}
		}
	}()

	c.wg.Add(1)
	go c.renderLoop()

	select {
	case <-c.ctx.Done():
		return nil
	case err := <-errChan:
		return err
	}
}

// Stop cancels the render loop and waits for it to exit.
func (c *Coordinator) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
	c.wg.Wait()
	return nil
}

func (c *Coordinator) setStripRect(rect image.Rectangle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stripRect = rect
	c.strip.Strip = rect
}

// setupEventHandlers registers device event handlers that route to the overlay.
func (c *Coordinator) setupEventHandlers() {
	c.device.ForEachKey(func(key streamdeck.KeyID) error {
		idx := int(key - streamdeck.KEY_1)
		return c.device.AddKeyHandler(key, func(d *streamdeck.Device, k *streamdeck.Key) error {
			c.handleKey(idx)
			return nil
		})
	})

	idx := 0
	c.device.ForEachDial(func(dial streamdeck.DialID) error {
		i := idx
		idx++
		c.device.AddDialRotateHandler(dial, func(d *streamdeck.Device, di *streamdeck.Dial, delta int8) error {
			c.handleDial(i, int(delta))
			return nil
		})
		return nil
	})

	if c.device.GetTouchStripSupported() {
		c.device.AddTouchStripTouchHandler(func(d *streamdeck.Device, touchType streamdeck.TouchStripTouchType, point image.Point) error {
			c.handleStripTouch(touchType == streamdeck.TOUCH_STRIP_TOUCH_TYPE_LONG, point)
			return nil
		})

		c.device.AddTouchStripSwipeHandler(func(d *streamdeck.Device, origin, dest image.Point) error {
			c.handleStripSwipe(origin, dest)
			return nil
		})
	}
}

func (c *Coordinator) handleKey(idx int) {
	var err error
	switch idx {
	case keyEdit:
		c.overlay.SetEditing(!c.overlay.Editing())
		return
	case keyReset:
		info, ok := c.overlay.Selected()
		if !ok {
			return
		}
		err = c.overlay.ResetToDefault(info.ID)
	case keyNudgeLeft:
		err = c.overlay.MoveSelected(-nudgeStep, 0)
	case keyNudgeUp:
		err = c.overlay.MoveSelected(0, -nudgeStep)
	case keyNudgeDown:
		err = c.overlay.MoveSelected(0, nudgeStep)
	case keyNudgeRight:
		err = c.overlay.MoveSelected(nudgeStep, 0)
	default:
		return
	}
	if err != nil {
		c.logger.Debug("Key ignored", zap.Int("key", idx+1), zap.Error(err))
	}
}

func (c *Coordinator) handleDial(idx, delta int) {
	info, ok := c.overlay.Selected()
	if !ok {
		return
	}
	var err error
	switch idx {
	case dialScale:
		err = c.overlay.SetScale(info.ID, info.Scale+delta)
	case dialOpacity:
		err = c.overlay.SetOpacity(info.ID, info.Opacity+delta*opacityStep)
	default:
		return
	}
	if err != nil {
		c.logger.Warn("Dial update failed", zap.Int("dial", idx+1), zap.Error(err))
	}
}

// handleStripTouch replays a strip touch. Long touches stay down for the
// hold duration so held buttons register.
func (c *Coordinator) handleStripTouch(long bool, point image.Point) {
	if !long {
		c.mu.Lock()
		events := c.strip.Tap(point)
		c.mu.Unlock()
		c.feed(events...)
		return
	}

	c.mu.Lock()
	id, ev, ok := c.strip.Press(point)
	c.mu.Unlock()
	if !ok {
		return
	}
	c.feed(ev)

	time.AfterFunc(c.hold, func() {
		c.mu.Lock()
		ev, ok := c.strip.Release(id)
		c.mu.Unlock()
		if ok {
			c.feed(ev)
		}
	})
}

func (c *Coordinator) handleStripSwipe(origin, dest image.Point) {
	c.mu.Lock()
	events := c.strip.Swipe(origin, dest)
	c.mu.Unlock()
	c.feed(events...)
}

func (c *Coordinator) feed(events ...touch.Event) {
	for _, ev := range events {
		handled := c.overlay.HandleTouch(ev)
		c.logger.Debug("Touch", zap.Stringer("event", ev), zap.Bool("handled", handled))
	}
}

// renderLoop runs the periodic render cycle.
func (c *Coordinator) renderLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(renderInterval)
	defer ticker.Stop()

	// Initial render
	c.render()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.render()
		}
	}
}

func (c *Coordinator) render() {
	c.logStateChange()
	c.renderKeys()
	if img := c.stripImage(); img != nil {
		c.device.SetTouchStripImage(img)
	}
}

// logStateChange logs the pad state whenever it differs from the last render.
func (c *Coordinator) logStateChange() {
	s := c.overlay.Snapshot()
	if s == c.lastState {
		return
	}
	c.lastState = s
	c.logger.Info("Pad state",
		zap.Strings("digital1", pad.ButtonNames(pad.Digital1, s.Digital[pad.Digital1])),
		zap.Strings("digital2", pad.ButtonNames(pad.Digital2, s.Digital[pad.Digital2])),
	)
}

// renderKeys colors the edit key by mode and the action keys once.
func (c *Coordinator) renderKeys() {
	editing := c.overlay.Editing()
	if c.keysDrawn && editing == c.lastEditing {
		return
	}
	c.keysDrawn = true
	c.lastEditing = editing

	c.device.ForEachKey(func(key streamdeck.KeyID) error {
		var err error
		switch int(key - streamdeck.KEY_1) {
		case keyEdit:
			err = c.device.SetKeyColor(key, keyColor(editing))
		case keyReset, keyNudgeLeft, keyNudgeUp, keyNudgeDown, keyNudgeRight:
			err = c.device.SetKeyColor(key, colorAction)
		}
		if err != nil {
			c.logger.Warn("Failed to set key color", zap.Error(err))
		}
		return nil
	})
}

func keyColor(editing bool) color.Color {
	if editing {
		return colorEditing
	}
	return colorIdle
}

// stripImage renders the overlay and scales it onto the strip.
func (c *Coordinator) stripImage() image.Image {
	c.mu.Lock()
	rect := c.stripRect
	c.mu.Unlock()
	if rect.Empty() || c.surface.Empty() {
		return nil
	}

	full := image.NewRGBA(c.surface)
	draw.Draw(full, full.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	c.overlay.Draw(full)

	composite := image.NewRGBA(rect)
	draw.ApproxBiLinear.Scale(composite, rect, full, full.Bounds(), draw.Src, nil)
	return composite
}

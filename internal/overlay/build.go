package overlay

import (
	"fmt"

	"github.com/phinze/padoverlay/internal/config"
	"github.com/phinze/padoverlay/internal/layout"
	"github.com/phinze/padoverlay/internal/pad"
	"go.uber.org/zap"
)

// Build creates an overlay with one element per configured entry. Every
// element shares store for its persisted layout.
func Build(cfg *config.Config, store layout.Store, logger *zap.Logger) (*Overlay, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := New(logger)
	for _, ec := range cfg.Elements {
		e, err := buildElement(ec, store, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to build element %q: %w", ec.ID, err)
		}
		if err := o.Register(e); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func buildElement(ec config.Element, store layout.Store, logger *zap.Logger) (Element, error) {
	switch ec.Kind {
	case config.KindButton:
		b, err := pad.ParseButton(ec.Button)
		if err != nil {
			return nil, err
		}
		return NewButton(ButtonConfig{
			ID:         ec.ID,
			Name:       ec.Name,
			Area:       ec.Rect.Rectangle(),
			Button:     b,
			Glyph:      ec.Glyph,
			Label:      ec.Label,
			Multitouch: ec.Multitouch,
		}, store, logger), nil

	case config.KindDpad:
		var dirs [4]pad.Button
		for i, name := range []string{ec.Buttons.Up, ec.Buttons.Left, ec.Buttons.Right, ec.Buttons.Down} {
			b, err := pad.ParseButton(name)
			if err != nil {
				return nil, err
			}
			if i > 0 && b.Group != dirs[0].Group {
				return nil, fmt.Errorf("dpad buttons span groups %d and %d", dirs[0].Group, b.Group)
			}
			dirs[i] = b
		}
		return NewDpad(DpadConfig{
			ID:         ec.ID,
			Name:       ec.Name,
			Area:       ec.Rect.Rectangle(),
			Group:      dirs[0].Group,
			Top:        dirs[0].Bit,
			Left:       dirs[1].Bit,
			Right:      dirs[2].Bit,
			Bottom:     dirs[3].Bit,
			Multitouch: ec.Multitouch,
		}, store, logger), nil
	}
	return nil, fmt.Errorf("unknown element kind %q", ec.Kind)
}

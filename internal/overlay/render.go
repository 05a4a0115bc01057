package overlay

import (
	"embed"
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

//go:embed icons/*.svg
var icons embed.FS

// Glyph colors.
var (
	colorArrow    = color.RGBA{220, 220, 220, 255}
	colorCross    = color.RGBA{124, 178, 232, 255}
	colorCircle   = color.RGBA{255, 102, 102, 255}
	colorSquare   = color.RGBA{255, 105, 248, 255}
	colorTriangle = color.RGBA{64, 226, 160, 255}
	colorKeyLabel = color.RGBA{235, 235, 235, 255}
)

var glyphColors = map[string]color.Color{
	"cross":    colorCross,
	"circle":   colorCircle,
	"square":   colorSquare,
	"triangle": colorTriangle,
	"key":      colorKeyLabel,
}

type iconKey struct {
	name string
	w, h int
}

var (
	iconMu    sync.Mutex
	iconCache = make(map[iconKey]*image.RGBA)

	fontOnce sync.Once
	fontBold *opentype.Font
	fontErr  error
	faceMu   sync.Mutex
	faces    = make(map[int]font.Face)
)

// icon returns the named glyph rasterised at w x h, caching the result.
func icon(name string, w, h int, col color.Color) *image.RGBA {
	k := iconKey{name, w, h}

	iconMu.Lock()
	defer iconMu.Unlock()
	if img, ok := iconCache[k]; ok {
		return img
	}

	img := renderSVGIcon(name, w, h, col)
	iconCache[k] = img
	return img
}

// renderSVGIcon rasterises an embedded SVG icon, replacing currentColor.
func renderSVGIcon(name string, w, h int, iconColor color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	if w <= 0 || h <= 0 {
		return img
	}

	data, err := icons.ReadFile("icons/" + name + ".svg")
	if err != nil {
		return img
	}

	r, g, b, _ := iconColor.RGBA()
	hexColor := fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
	svgContent := strings.ReplaceAll(string(data), "currentColor", hexColor)

	ic, err := oksvg.ReadIconStream(strings.NewReader(svgContent))
	if err != nil {
		return img
	}
	ic.SetTarget(0, 0, float64(w), float64(h))

	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	raster := rasterx.NewDasher(w, h, scanner)
	ic.Draw(raster, 1.0)

	return img
}

// labelFace returns a bold face sized for a key of the given height.
func labelFace(height int) (font.Face, error) {
	fontOnce.Do(func() {
		fontBold, fontErr = opentype.Parse(gobold.TTF)
	})
	if fontErr != nil {
		return nil, fmt.Errorf("failed to parse bold font: %w", fontErr)
	}

	size := max(height/2, 6)

	faceMu.Lock()
	defer faceMu.Unlock()
	if f, ok := faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(fontBold, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create label face: %w", err)
	}
	faces[size] = f
	return f, nil
}

// drawTextCentered draws text centered in r.
func drawTextCentered(img draw.Image, text string, r image.Rectangle, face font.Face, col color.Color) {
	width := font.MeasureString(face, text).Ceil()
	m := face.Metrics()
	textH := (m.Ascent + m.Descent).Ceil()

	x := r.Min.X + (r.Dx()-width)/2
	y := r.Min.Y + (r.Dy()-textH)/2 + m.Ascent.Ceil()

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

// drawFaded composites src into r on dst at the given alpha.
func drawFaded(dst draw.Image, r image.Rectangle, src image.Image, alpha uint8) {
	if r.Empty() || alpha == 0 {
		return
	}
	mask := image.NewUniform(color.Alpha{A: alpha})
	draw.DrawMask(dst, r, src, src.Bounds().Min, mask, image.Point{}, draw.Over)
}

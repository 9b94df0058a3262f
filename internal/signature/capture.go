// Package signature implements the handwritten signature buffer backing the
// declaration form: freehand strokes, PNG upload, and export of the trimmed
// canonical raster that gets embedded into the rendered document.
package signature

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	"declara/pkg/domainerrors"
)

const (
	// DefaultWidth and DefaultHeight match the form's signature pad.
	DefaultWidth  = 500
	DefaultHeight = 200

	strokeRadius = 1.5
	trimPadding  = 2
)

var pngMagic = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}

var ink = color.RGBA{A: 0xff}

// Normalize runs an uploaded raster through a capture at the pad's native
// size and exports the canonical trimmed PNG. A fully transparent upload
// normalizes to nil.
func Normalize(data []byte) ([]byte, error) {
	c := New(0, 0)
	if err := c.Upload(data); err != nil {
		return nil, err
	}
	return c.Image()
}

// Capture accumulates signature content on a transparent raster. Not safe
// for concurrent use; each form session owns one Capture.
type Capture struct {
	canvas     *image.RGBA
	hasContent bool

	// pen state for the stroke in progress
	penDown bool
	penX    float64
	penY    float64
}

// New returns an empty capture of the given pixel size. Non-positive
// dimensions fall back to the defaults.
func New(width, height int) *Capture {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return &Capture{
		canvas: image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// Empty reports whether nothing has been drawn or uploaded.
func (c *Capture) Empty() bool {
	return !c.hasContent
}

// Begin starts a stroke at the given canvas position.
func (c *Capture) Begin(x, y float64) {
	c.penDown = true
	c.penX, c.penY = x, y
	c.stamp(x, y)
}

// Extend continues the current stroke. A call without a preceding Begin is
// ignored.
func (c *Capture) Extend(x, y float64) {
	if !c.penDown {
		return
	}
	c.line(c.penX, c.penY, x, y)
	c.penX, c.penY = x, y
}

// End finishes the current stroke.
func (c *Capture) End() {
	c.penDown = false
}

// Upload replaces the canvas content with a decoded PNG, scaled to fit. Any
// other format is rejected with an unsupported-format error and the existing
// content stays untouched.
func (c *Capture) Upload(data []byte) error {
	if !bytes.HasPrefix(data, pngMagic) {
		return domainerrors.New(domainerrors.CodeUnsupportedFormat, "solo se permiten imágenes PNG")
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeUnsupportedFormat, "solo se permiten imágenes PNG")
	}

	bounds := c.canvas.Bounds()
	fresh := image.NewRGBA(bounds)
	drawScaled(fresh, img)
	c.canvas = fresh
	c.hasContent = true
	c.penDown = false
	return nil
}

// Resize changes the canvas dimensions, rescaling existing content so a
// window resize never wipes a drawn signature.
func (c *Capture) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	old := c.canvas
	c.canvas = image.NewRGBA(image.Rect(0, 0, width, height))
	c.penDown = false
	if c.hasContent {
		drawScaled(c.canvas, old)
	}
}

// Clear wipes all strokes and uploads.
func (c *Capture) Clear() {
	c.canvas = image.NewRGBA(c.canvas.Bounds())
	c.hasContent = false
	c.penDown = false
}

// Image exports the canonical raster: the canvas trimmed to the bounding box
// of its content, PNG-encoded with a transparent background. Returns nil for
// an empty capture.
func (c *Capture) Image() ([]byte, error) {
	if !c.hasContent {
		return nil, nil
	}
	box, ok := contentBounds(c.canvas)
	if !ok {
		return nil, nil
	}
	box = box.Inset(-trimPadding).Intersect(c.canvas.Bounds())

	trimmed := image.NewRGBA(image.Rect(0, 0, box.Dx(), box.Dy()))
	draw.Draw(trimmed, trimmed.Bounds(), c.canvas, box.Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, trimmed); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "no se pudo exportar la firma")
	}
	return buf.Bytes(), nil
}

func (c *Capture) line(x0, y0, x1, y1 float64) {
	dist := math.Hypot(x1-x0, y1-y0)
	steps := int(dist) + 1
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		c.stamp(x0+(x1-x0)*t, y0+(y1-y0)*t)
	}
}

// stamp draws a round pen tip, which gives strokes their round caps and
// joins.
func (c *Capture) stamp(cx, cy float64) {
	bounds := c.canvas.Bounds()
	r := strokeRadius
	minX := int(math.Floor(cx - r))
	maxX := int(math.Ceil(cx + r))
	minY := int(math.Floor(cy - r))
	maxY := int(math.Ceil(cy + r))
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
				continue
			}
			if math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy) <= r {
				c.canvas.SetRGBA(x, y, ink)
				c.hasContent = true
			}
		}
	}
}

// drawScaled paints src onto dst scaled to dst's full bounds, nearest
// neighbor.
func drawScaled(dst *image.RGBA, src image.Image) {
	db := dst.Bounds()
	sb := src.Bounds()
	if sb.Dx() == 0 || sb.Dy() == 0 {
		return
	}
	for y := db.Min.Y; y < db.Max.Y; y++ {
		sy := sb.Min.Y + (y-db.Min.Y)*sb.Dy()/db.Dy()
		for x := db.Min.X; x < db.Max.X; x++ {
			sx := sb.Min.X + (x-db.Min.X)*sb.Dx()/db.Dx()
			dst.Set(x, y, src.At(sx, sy))
		}
	}
}

// contentBounds returns the bounding box of non-transparent pixels.
func contentBounds(img *image.RGBA) (image.Rectangle, bool) {
	bounds := img.Bounds()
	minX, minY := bounds.Max.X, bounds.Max.Y
	maxX, maxY := bounds.Min.X-1, bounds.Min.Y-1
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if img.RGBAAt(x, y).A != 0 {
				if x < minX {
					minX = x
				}
				if x > maxX {
					maxX = x
				}
				if y < minY {
					minY = y
				}
				if y > maxY {
					maxY = y
				}
			}
		}
	}
	if maxX < minX {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}

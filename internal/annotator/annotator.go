// Package annotator renders detection boxes and labels onto a copy of the
// source image. It is deliberately free of OpenCV: drawing with the image
// package keeps Annotate pure and deterministic, so the output can be
// asserted pixel-for-pixel in tests regardless of build tags.
package annotator

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"issue-detection-service/internal/domain/detection"
)

const boxThickness = 2

// classColors gives every class a fixed box color so identical inputs
// always render identically.
var classColors = map[detection.Class]color.RGBA{
	detection.ClassPothole: {R: 220, G: 40, B: 40, A: 255},
	detection.ClassGarbage: {R: 40, G: 160, B: 60, A: 255},
}

var fallbackColor = color.RGBA{R: 200, G: 200, B: 40, A: 255}

// Annotate draws one bounding box and a "class confidence" label per
// detection onto a copy of img. The input image is never mutated; with no
// detections the returned copy is pixel-identical to the input.
func Annotate(img image.Image, detections []detection.Detection) *image.RGBA {
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, img, bounds.Min, draw.Src)

	for _, d := range detections {
		c, ok := classColors[d.Class]
		if !ok {
			c = fallbackColor
		}
		rect := image.Rect(int(d.Box.X1), int(d.Box.Y1), int(d.Box.X2), int(d.Box.Y2))
		rect = rect.Intersect(bounds)
		if rect.Empty() {
			continue
		}
		drawRect(out, rect, c)
		drawLabel(out, rect, formatLabel(d), c)
	}

	return out
}

func formatLabel(d detection.Detection) string {
	return fmt.Sprintf("%s %.2f", d.Class, d.Confidence)
}

func drawRect(img *image.RGBA, rect image.Rectangle, c color.RGBA) {
	for t := 0; t < boxThickness; t++ {
		top := rect.Min.Y + t
		bottom := rect.Max.Y - 1 - t
		for x := rect.Min.X; x < rect.Max.X; x++ {
			setPixel(img, x, top, c)
			setPixel(img, x, bottom, c)
		}
		left := rect.Min.X + t
		right := rect.Max.X - 1 - t
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			setPixel(img, left, y, c)
			setPixel(img, right, y, c)
		}
	}
}

func drawLabel(img *image.RGBA, rect image.Rectangle, label string, c color.RGBA) {
	face := basicfont.Face7x13
	labelWidth := font.MeasureString(face, label).Ceil()
	labelHeight := face.Metrics().Height.Ceil()

	// Label sits above the box when there is room, inside it otherwise.
	labelTop := rect.Min.Y - labelHeight
	if labelTop < img.Bounds().Min.Y {
		labelTop = rect.Min.Y
	}
	bg := image.Rect(rect.Min.X, labelTop, rect.Min.X+labelWidth+4, labelTop+labelHeight)
	bg = bg.Intersect(img.Bounds())
	draw.Draw(img, bg, &image.Uniform{C: c}, image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I(rect.Min.X + 2),
			Y: fixed.I(labelTop + face.Metrics().Ascent.Ceil()),
		},
	}
	drawer.DrawString(label)
}

func setPixel(img *image.RGBA, x, y int, c color.RGBA) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.SetRGBA(x, y, c)
	}
}

// Package imaging resizes dataset images to the fixed geometry the
// sequenced training format expects.
package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"os"

	xdraw "golang.org/x/image/draw"
)

// ResizePad scales src to fit within width x height while preserving
// aspect ratio, centered on a white canvas of exactly the target size.
func ResizePad(src image.Image, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", width, height)
	}

	bounds := src.Bounds()
	origW, origH := bounds.Dx(), bounds.Dy()
	if origW == 0 || origH == 0 {
		return nil, fmt.Errorf("source image is empty")
	}

	scale := min(float64(width)/float64(origW), float64(height)/float64(origH))
	newW := int(float64(origW) * scale)
	newH := int(float64(origH) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	padX := (width - newW) / 2
	padY := (height - newH) / 2
	target := image.Rect(padX, padY, padX+newW, padY+newH)
	xdraw.CatmullRom.Scale(canvas, target, src, bounds, xdraw.Over, nil)

	return canvas, nil
}

// ResizeFile decodes srcPath, resizes it onto the padded canvas, and
// writes the result as PNG to dstPath.
func ResizeFile(srcPath, dstPath string, width, height int) error {
	in, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer in.Close()

	src, _, err := image.Decode(in)
	if err != nil {
		return fmt.Errorf("failed to decode image %s: %w", srcPath, err)
	}

	resized, err := ResizePad(src, width, height)
	if err != nil {
		return err
	}

	out, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("failed to create image: %w", err)
	}
	defer out.Close()

	if err := png.Encode(out, resized); err != nil {
		return fmt.Errorf("failed to encode image %s: %w", dstPath, err)
	}
	return out.Close()
}

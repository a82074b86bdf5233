package attachment

import (
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
)

// Resize halves p's effective resolution one step and rewrites it in
// place, returning the new size. There is no image-manipulation
// library anywhere in the reference stack to build on here, so this
// leans on the standard library's image codecs directly.
func Resize(p *Prepared) (int64, error) {
	f, err := os.Open(p.Path)
	if err != nil {
		return 0, fmt.Errorf("attachment: opening %s: %w", p.Path, err)
	}
	img, format, err := image.Decode(f)
	f.Close()
	if err != nil {
		return 0, fmt.Errorf("attachment: decoding %s: %w", p.Path, err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx()/2, bounds.Dy()/2
	if w < 1 || h < 1 {
		return 0, fmt.Errorf("attachment: %s already at minimum resolution", p.Path)
	}

	scaled := scaleNearest(img, w, h)

	out, err := os.Create(p.Path)
	if err != nil {
		return 0, fmt.Errorf("attachment: rewriting %s: %w", p.Path, err)
	}
	defer out.Close()

	switch format {
	case "png":
		err = png.Encode(out, scaled)
	case "gif":
		err = gif.Encode(out, scaled, nil)
	default:
		err = jpeg.Encode(out, scaled, &jpeg.Options{Quality: 85})
	}
	if err != nil {
		return 0, fmt.Errorf("attachment: encoding %s: %w", p.Path, err)
	}

	info, err := out.Stat()
	if err != nil {
		return 0, err
	}
	p.Size = info.Size()
	return p.Size, nil
}

// scaleNearest draws src into a w x h image using nearest-neighbour
// sampling; resize-to-fit only needs to shrink, not to look good.
func scaleNearest(src image.Image, w, h int) image.Image {
	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		sy := bounds.Min.Y + y*bounds.Dy()/h
		for x := 0; x < w; x++ {
			sx := bounds.Min.X + x*bounds.Dx()/w
			dst.Set(x, y, src.At(sx, sy))
		}
	}
	return dst
}

// LargestResizable returns the index of the largest resizable part, or
// -1 when none remain.
func LargestResizable(parts []Prepared) int {
	best := -1
	for i, p := range parts {
		if !p.Resizable {
			continue
		}
		if best == -1 || p.Size > parts[best].Size {
			best = i
		}
	}
	return best
}

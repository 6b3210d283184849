// Package derive produces named resized copies of an original image per a
// fixed configuration. Variants never upscale, animated GIFs keep their
// animation, and one variant failing does not abort the others.
package derive

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/gif"

	"github.com/disintegration/imaging"

	"github.com/dmitrijs2005/wayfare/internal/common"
)

// VariantSpec names one derivative and its encoding parameters.
type VariantSpec struct {
	Name     string
	MaxWidth int
	Quality  int
}

// DefaultSpecs is the variant set the server ships with.
func DefaultSpecs() []VariantSpec {
	return []VariantSpec{
		{Name: "thumb", MaxWidth: 320, Quality: 75},
		{Name: "medium", MaxWidth: 1024, Quality: 80},
		{Name: "large", MaxWidth: 2048, Quality: 85},
	}
}

// Variant is one generated derivative.
type Variant struct {
	Name   string
	Ext    string
	Width  int
	Height int
	Data   []byte
}

// Generator renders the configured variant set from original bytes.
type Generator struct {
	specs []VariantSpec
}

func NewGenerator(specs []VariantSpec) *Generator {
	return &Generator{specs: specs}
}

// Generate returns the variants that could be produced, keyed by name, and
// a map of per-variant errors for the ones that could not. An undecodable
// source fails with common.ErrUnsupportedMedia; so does every single
// variant failing, which is indistinguishable from a broken source.
func (g *Generator) Generate(data []byte) (map[string]Variant, map[string]error, error) {
	if isAnimatedGIF(data) {
		return g.generateAnimated(data)
	}

	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", common.ErrUnsupportedMedia, err)
	}

	variants := make(map[string]Variant, len(g.specs))
	failures := make(map[string]error)

	for _, spec := range g.specs {
		v, err := renderStill(src, spec)
		if err != nil {
			failures[spec.Name] = err
			continue
		}
		variants[spec.Name] = v
	}

	if len(variants) == 0 && len(g.specs) > 0 {
		return nil, failures, fmt.Errorf("%w: no variant could be generated", common.ErrUnsupportedMedia)
	}

	return variants, failures, nil
}

func renderStill(src image.Image, spec VariantSpec) (Variant, error) {
	img := src
	if spec.MaxWidth < src.Bounds().Dx() {
		img = imaging.Resize(src, spec.MaxWidth, 0, imaging.Lanczos)
	}

	buf := &bytes.Buffer{}
	if err := imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(spec.Quality)); err != nil {
		return Variant{}, fmt.Errorf("encode %s: %w", spec.Name, err)
	}

	return Variant{
		Name:   spec.Name,
		Ext:    "jpg",
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
		Data:   buf.Bytes(),
	}, nil
}

func isAnimatedGIF(data []byte) bool {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	return err == nil && len(g.Image) > 1
}

// generateAnimated resizes every frame, scaling frame offsets so stacked
// partial frames stay aligned.
func (g *Generator) generateAnimated(data []byte) (map[string]Variant, map[string]error, error) {
	src, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", common.ErrUnsupportedMedia, err)
	}

	variants := make(map[string]Variant, len(g.specs))
	failures := make(map[string]error)

	for _, spec := range g.specs {
		v, err := renderAnimated(src, spec)
		if err != nil {
			failures[spec.Name] = err
			continue
		}
		variants[spec.Name] = v
	}

	if len(variants) == 0 && len(g.specs) > 0 {
		return nil, failures, fmt.Errorf("%w: no variant could be generated", common.ErrUnsupportedMedia)
	}

	return variants, failures, nil
}

func renderAnimated(src *gif.GIF, spec VariantSpec) (Variant, error) {
	srcW := src.Config.Width
	srcH := src.Config.Height
	if srcW == 0 && len(src.Image) > 0 {
		srcW = src.Image[0].Bounds().Dx()
		srcH = src.Image[0].Bounds().Dy()
	}

	scale := 1.0
	if spec.MaxWidth < srcW {
		scale = float64(spec.MaxWidth) / float64(srcW)
	}
	dstW := int(float64(srcW)*scale + 0.5)
	dstH := int(float64(srcH)*scale + 0.5)

	out := &gif.GIF{
		Image:           make([]*image.Paletted, 0, len(src.Image)),
		Delay:           src.Delay,
		LoopCount:       src.LoopCount,
		Disposal:        src.Disposal,
		BackgroundIndex: src.BackgroundIndex,
		Config: image.Config{
			ColorModel: src.Config.ColorModel,
			Width:      dstW,
			Height:     dstH,
		},
	}

	for _, frame := range src.Image {
		b := frame.Bounds()
		fw := int(float64(b.Dx())*scale + 0.5)
		fh := int(float64(b.Dy())*scale + 0.5)
		if fw < 1 {
			fw = 1
		}
		if fh < 1 {
			fh = 1
		}

		resized := imaging.Resize(frame, fw, fh, imaging.Lanczos)

		ox := int(float64(b.Min.X) * scale)
		oy := int(float64(b.Min.Y) * scale)
		rect := image.Rect(ox, oy, ox+fw, oy+fh)

		pal := image.NewPaletted(rect, frame.Palette)
		draw.FloydSteinberg.Draw(pal, rect, resized, resized.Bounds().Min)
		out.Image = append(out.Image, pal)
	}

	buf := &bytes.Buffer{}
	if err := gif.EncodeAll(buf, out); err != nil {
		return Variant{}, fmt.Errorf("encode %s: %w", spec.Name, err)
	}

	return Variant{
		Name:   spec.Name,
		Ext:    "gif",
		Width:  dstW,
		Height: dstH,
		Data:   buf.Bytes(),
	}, nil
}

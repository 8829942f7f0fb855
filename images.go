package salonpress

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	maxUploadSize = 10 << 20 // 10MB
	// maxImagePixels caps the canvas an upload may declare before it is
	// decoded; a small file can otherwise claim a huge canvas.
	maxImagePixels = 50_000_000
	uploadsSubdir = "uploads"
	staticPrefix  = "/public"
)

// ImageConstraints bound the stored rendition of an upload.
type ImageConstraints struct {
	MaxWidth  int  `yaml:"max_width"`
	MaxHeight int  `yaml:"max_height"`
	Crop      bool `yaml:"crop"`    // fill the box and centre-crop instead of fitting inside it
	Quality   int  `yaml:"quality"` // JPEG quality, 1-100
}

// ImagePipeline decodes uploads, bounds their dimensions, re-encodes them as
// JPEG and stores them under <staticDir>/uploads/<kind>/.
type ImagePipeline struct {
	staticDir string
	maxPixels int64
	now       func() time.Time
	logger    echo.Logger
}

// NewImagePipeline creates a pipeline that writes below staticDir.
func NewImagePipeline(staticDir string, now func() time.Time, logger echo.Logger) *ImagePipeline {
	return &ImagePipeline{staticDir: staticDir, maxPixels: maxImagePixels, now: now, logger: logger}
}

// Ingest stores data as a normalized image and returns its public path.
// Every failure wraps ErrImageProcessing; the raw bytes are never stored.
func (p *ImagePipeline) Ingest(data []byte, hint, kind string, c ImageConstraints) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty upload", ErrImageProcessing)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: decode: %v", ErrImageProcessing, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return "", fmt.Errorf("%w: empty canvas %dx%d", ErrImageProcessing, cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > p.maxPixels {
		return "", fmt.Errorf("%w: canvas %dx%d exceeds %d pixels", ErrImageProcessing, cfg.Width, cfg.Height, p.maxPixels)
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: decode: %v", ErrImageProcessing, err)
	}

	img := resizeImage(src, c)

	quality := c.Quality
	if quality <= 0 || quality > 100 {
		quality = jpeg.DefaultQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return "", fmt.Errorf("%w: encode jpeg: %v", ErrImageProcessing, err)
	}

	base := Slugify(strings.TrimSuffix(hint, filepath.Ext(hint)))
	if base == "" {
		base = "image"
	}
	if len(base) > 60 {
		base = strings.Trim(base[:60], "-")
	}
	filename := base + "-" + strconv.FormatInt(p.now().UnixMilli(), 10) + ".jpg"

	dir := filepath.Join(p.staticDir, uploadsSubdir, kind)
	if err := writeFileAtomic(filepath.Join(dir, filename), buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("%w: write: %v", ErrImageProcessing, err)
	}
	return path.Join(staticPrefix, uploadsSubdir, kind, filename), nil
}

// Remove deletes a file previously returned by Ingest. Paths outside the
// uploads directory are refused; a file that is already gone is not an error.
func (p *ImagePipeline) Remove(publicPath string) error {
	if publicPath == "" {
		return nil
	}
	prefix := path.Join(staticPrefix, uploadsSubdir) + "/"
	clean := path.Clean(publicPath)
	if !strings.HasPrefix(clean, prefix) {
		return fmt.Errorf("refusing to remove %q: outside uploads", publicPath)
	}
	rel := strings.TrimPrefix(clean, staticPrefix+"/")
	err := os.Remove(filepath.Join(p.staticDir, filepath.FromSlash(rel)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// discard removes path and logs instead of failing; used for cleanup that
// must not abort the operation that triggered it.
func (p *ImagePipeline) discard(publicPath string) {
	if err := p.Remove(publicPath); err != nil {
		p.logger.Warnf("images: remove %s: %v", publicPath, err)
	}
}

// resizeImage bounds src to the constraint box without upscaling. The result
// is always an opaque RGBA image so transparent areas come out white.
func resizeImage(src image.Image, c ImageConstraints) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	srcRect := b
	dstW, dstH := w, h

	switch {
	case c.Crop && c.MaxWidth > 0 && c.MaxHeight > 0:
		scale := max(float64(c.MaxWidth)/float64(w), float64(c.MaxHeight)/float64(h))
		if scale > 1 {
			scale = 1
		}
		dstW = min(c.MaxWidth, int(float64(w)*scale+0.5))
		dstH = min(c.MaxHeight, int(float64(h)*scale+0.5))
		// Source region with the destination's aspect ratio, centred.
		cropW := min(w, int(float64(dstW)/scale+0.5))
		cropH := min(h, int(float64(dstH)/scale+0.5))
		x0 := b.Min.X + (w-cropW)/2
		y0 := b.Min.Y + (h-cropH)/2
		srcRect = image.Rect(x0, y0, x0+cropW, y0+cropH)
	default:
		scale := 1.0
		if c.MaxWidth > 0 && w > c.MaxWidth {
			scale = float64(c.MaxWidth) / float64(w)
		}
		if c.MaxHeight > 0 && h > c.MaxHeight {
			scale = min(scale, float64(c.MaxHeight)/float64(h))
		}
		if scale < 1 {
			dstW = max(1, int(float64(w)*scale+0.5))
			dstH = max(1, int(float64(h)*scale+0.5))
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if dstW == srcRect.Dx() && dstH == srcRect.Dy() {
		draw.Draw(dst, dst.Bounds(), src, srcRect.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, srcRect, draw.Over, nil)
	}
	return dst
}

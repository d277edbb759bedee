package bridge

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // PNG decoding
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"fetcharr/internal/domain/consts"
	"fetcharr/internal/errclass"
	"fetcharr/internal/utils/logging"
)

// maxThumbnailBytes caps remote thumbnail downloads.
const maxThumbnailBytes = 20 << 20

// Letterbox detection.
const (
	darkThreshold   = 30
	colorTolerance  = 60
	minBarFraction  = 20 // bars narrower than width/20 are not letterboxing
	requiredPercent = 70
)

// CropRequest asks for a square cover image.
//
// Source is a local path or an http(s) URL. Output defaults to "<source>_square.jpg" beside
// a local source. Force crops even when no letterbox bars are detected.
type CropRequest struct {
	Source string `json:"source"`
	Output string `json:"output"`
	Force  bool   `json:"force"`
}

// CropReply answers CropThumbnail.
type CropReply struct {
	Path    string `json:"path"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Cropped bool   `json:"cropped"`
}

// subImager is implemented by every image type the standard decoders return.
type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// CropThumbnail center-crops a letterboxed JPEG or PNG to a square and writes it as JPEG.
func (s *Service) CropThumbnail(ctx context.Context, req CropRequest) (CropReply, error) {
	ctx, cancel := context.WithTimeout(ctx, consts.BridgeCropTimeout)
	defer cancel()

	data, err := readSource(ctx, req.Source)
	if err != nil {
		return CropReply{}, err
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return CropReply{}, errclass.New(errclass.KindParseError, fmt.Sprintf("cannot decode thumbnail: %v", err))
	}
	logging.D(2, "Decoded %s thumbnail %dx%d", format, img.Bounds().Dx(), img.Bounds().Dy())

	cropped := false
	if req.Force || isLetterboxed(img) {
		img = cropCenterSquare(img)
		cropped = true
	}

	out := req.Output
	if out == "" {
		out, err = defaultCropPath(req.Source)
		if err != nil {
			return CropReply{}, err
		}
	}
	if err := writeJPEG(out, img); err != nil {
		return CropReply{}, errclass.Wrap(err)
	}

	b := img.Bounds()
	return CropReply{Path: out, Width: b.Dx(), Height: b.Dy(), Cropped: cropped}, nil
}

// readSource loads image bytes from disk or over HTTP.
func readSource(ctx context.Context, src string) ([]byte, error) {
	if src == "" {
		return nil, errclass.New(errclass.KindFileNotFound, "no thumbnail source given")
	}

	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		data, err := os.ReadFile(src)
		if err != nil {
			return nil, errclass.Wrap(err)
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, errclass.New(errclass.KindInvalidURL, src)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, errclass.Wrap(err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.E("Failed to close thumbnail response body: %v", err)
		}
	}()

	if resp.StatusCode >= 400 {
		return nil, errclass.Classify(fmt.Sprintf("HTTP Error %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)))
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxThumbnailBytes))
	if err != nil {
		return nil, errclass.Wrap(err)
	}
	return data, nil
}

// isLetterboxed reports whether a landscape image carries solid side bars around a square center.
//
// Samples a 3x3 grid in each bar and accepts when most samples are dark, or most share one color.
func isLetterboxed(img image.Image) bool {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= h {
		return false
	}
	bar := (w - h) / 2
	if bar < w/minBarFraction {
		return false
	}

	var points []image.Point
	for _, fx := range [...]int{1, 2, 3} {
		for _, fy := range [...]int{1, 2, 3} {
			x := bar * fx / 4
			y := h * fy / 4
			points = append(points,
				image.Pt(b.Min.X+x, b.Min.Y+y),
				image.Pt(b.Max.X-1-x, b.Min.Y+y))
		}
	}

	required := len(points) * requiredPercent / 100

	dark := 0
	for _, p := range points {
		r, g, bl := rgb8(img, p)
		if r <= darkThreshold && g <= darkThreshold && bl <= darkThreshold {
			dark++
		}
	}
	if dark >= required {
		return true
	}

	rr, rg, rb := rgb8(img, image.Pt(b.Min.X+bar/2, b.Min.Y+h/2))
	uniform := 0
	for _, p := range points {
		r, g, bl := rgb8(img, p)
		if absDiff(r, rr) <= colorTolerance && absDiff(g, rg) <= colorTolerance && absDiff(bl, rb) <= colorTolerance {
			uniform++
		}
	}
	return uniform >= required
}

// cropCenterSquare keeps the centered square of side min(width, height).
func cropCenterSquare(img image.Image) image.Image {
	b := img.Bounds()
	side := min(b.Dx(), b.Dy())
	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2
	rect := image.Rect(x0, y0, x0+side, y0+side)

	if si, ok := img.(subImager); ok {
		return si.SubImage(rect)
	}
	dst := image.NewRGBA(image.Rect(0, 0, side, side))
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			dst.Set(x, y, img.At(x0+x, y0+y))
		}
	}
	return dst
}

func writeJPEG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), consts.PermsGenericDir); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 92}); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %q: %w", path, err)
	}
	return f.Close()
}

func defaultCropPath(src string) (string, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return "", errclass.New(errclass.KindFileNotFound, "an output path is required for remote thumbnails")
	}
	ext := filepath.Ext(src)
	return strings.TrimSuffix(src, ext) + "_square.jpg", nil
}

func rgb8(img image.Image, p image.Point) (r, g, b int) {
	r32, g32, b32, _ := img.At(p.X, p.Y).RGBA()
	return int(r32 >> 8), int(g32 >> 8), int(b32 >> 8)
}

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}

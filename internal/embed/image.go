package embed

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/dgallion1/mintaro/internal/doc"
)

var (
	ErrNotImage      = errors.New("file is not a supported image")
	ErrImageTooLarge = errors.New("image too large")
	ErrInvalidSize   = errors.New("invalid image size")
)

// DefaultMaxImageBytes bounds a single upload.
const DefaultMaxImageBytes = 5 << 20

// Natural size attributes recorded at insertion for aspect-locked resizing.
const (
	attrNaturalWidth  = "data-natural-width"
	attrNaturalHeight = "data-natural-height"
)

// Image is a fully read upload.
type Image struct {
	Name    string
	MIME    string
	Format  string
	Width   int
	Height  int
	Size    int64
	DataURI string
}

// ReadImage reads r completely (up to limit bytes), sniffs the content type
// and decodes the dimensions.
func ReadImage(r io.Reader, name string, limit int64) (*Image, error) {
	if limit <= 0 {
		limit = DefaultMaxImageBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %s exceeds %s", ErrImageTooLarge, name, humanize.IBytes(uint64(limit)))
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotImage, name, mime)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotImage, name, err)
	}
	return &Image{
		Name:    name,
		MIME:    mime,
		Format:  format,
		Width:   cfg.Width,
		Height:  cfg.Height,
		Size:    int64(len(data)),
		DataURI: "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data),
	}, nil
}

// Node builds the image node inserted into the document.
func (img *Image) Node() *doc.Node {
	n := doc.NewImage(img.DataURI)
	if img.Name != "" {
		n.SetAttr("alt", img.Name)
	}
	n.SetAttr(attrNaturalWidth, strconv.Itoa(img.Width))
	n.SetAttr(attrNaturalHeight, strconv.Itoa(img.Height))
	n.Style.Set("max-width", "100%")
	return n
}

// ResizeRequest sets the display size of an image. With LockAspect only one
// dimension needs to be given; the other follows the natural aspect ratio.
type ResizeRequest struct {
	Width      int  `json:"width"`
	Height     int  `json:"height"`
	LockAspect bool `json:"lockAspect"`
}

// Resize rewrites the display width/height of img. The image data is never
// touched.
func Resize(img *doc.Node, req ResizeRequest) error {
	if img.Kind != doc.KindImage {
		return fmt.Errorf("%w: not an image", ErrInvalidSize)
	}
	if req.Width < 0 || req.Height < 0 || req.Width == 0 && req.Height == 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, req.Width, req.Height)
	}
	w, h := req.Width, req.Height
	if req.LockAspect {
		nw, nh := naturalSize(img)
		if nw > 0 && nh > 0 {
			ratio := float64(nh) / float64(nw)
			if w > 0 {
				h = int(math.Round(float64(w) * ratio))
			} else {
				w = int(math.Round(float64(h) / ratio))
			}
		}
	}
	if w > 0 {
		img.SetAttr("width", strconv.Itoa(w))
	}
	if h > 0 {
		img.SetAttr("height", strconv.Itoa(h))
	}
	return nil
}

// naturalSize returns the recorded natural size, falling back to the current
// display size.
func naturalSize(img *doc.Node) (int, int) {
	get := func(keys ...string) int {
		for _, k := range keys {
			if v, ok := img.Attr(k); ok {
				if n, err := strconv.Atoi(v); err == nil && n > 0 {
					return n
				}
			}
		}
		return 0
	}
	return get(attrNaturalWidth, "width"), get(attrNaturalHeight, "height")
}

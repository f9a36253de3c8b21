package editor

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dgallion1/mintaro/internal/doc"
	"github.com/dgallion1/mintaro/internal/embed"
	"github.com/dgallion1/mintaro/internal/parser"
)

// Paste inserts clipboard HTML at the selection. Scripts, styles, event
// handlers and javascript: URLs are stripped; the rest goes in through the
// same fragment insertion as images and embeds.
func (e *Editor) Paste(html string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	e.flushLocked()
	changed, err := e.pasteLocked(html)
	if err != nil {
		e.noticeLocked(err)
		return err
	}
	if changed {
		e.recordLocked()
	}
	return nil
}

func (e *Editor) pasteLocked(html string) (bool, error) {
	frag, err := doc.Parse(doc.SanitizePaste(html))
	if err != nil {
		return false, fmt.Errorf("paste: %w", err)
	}
	if len(frag.Children) == 0 {
		return false, nil
	}
	e.insertNodesLocked(frag.Children...)
	return true, nil
}

// File is one upload.
type File struct {
	Name   string
	Reader io.Reader
}

// InsertImage reads an image upload completely and inserts it as a data URI
// at the selection. A read failure raises a notice and changes nothing.
func (e *Editor) InsertImage(ctx context.Context, r io.Reader, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	img, err := embed.ReadImage(r, name, e.opts.MaxImageBytes)
	if err != nil {
		e.mu.Lock()
		e.noticeLocked(err)
		e.mu.Unlock()
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	e.flushLocked()
	e.insertNodesLocked(img.Node())
	e.log.Debug("image inserted", "name", name, "format", img.Format, "bytes", img.Size)
	e.recordLocked()
	return nil
}

// InsertImages inserts files in order, one history entry each. Files that
// fail are reported and skipped; the joined errors are returned.
func (e *Editor) InsertImages(ctx context.Context, files []File) error {
	var errs []error
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := e.InsertImage(ctx, f.Reader, f.Name); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.Name, err))
		}
	}
	return errors.Join(errs...)
}

// EmbedURL inserts a player for a recognised video URL, a link for any
// other http(s) URL, and refuses everything else with ErrUnsupportedURL.
func (e *Editor) EmbedURL(raw string) error {
	n, err := embed.ResolveURL(raw)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if err != nil {
		e.noticeLocked(err)
		return err
	}
	e.flushLocked()
	e.insertNodesLocked(n)
	e.recordLocked()
	return nil
}

// ImageInfo describes the selected image.
type ImageInfo struct {
	Index  int    `json:"index"`
	Alt    string `json:"alt,omitempty"`
	Width  string `json:"width,omitempty"`
	Height string `json:"height,omitempty"`
}

// SelectImage selects the image at index (document order) and opens the
// resize overlay.
func (e *Editor) SelectImage(index int) (ImageInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ImageInfo{}, ErrClosed
	}
	images := e.root.FindAll(doc.KindImage)
	if index < 0 || index >= len(images) {
		return ImageInfo{}, fmt.Errorf("%w: image %d does not exist", ErrInvalidValue, index)
	}
	e.image = images[index]
	e.overlays.show(overlayImageResize, Point{})
	return imageInfo(index, e.image), nil
}

func imageInfo(index int, img *doc.Node) ImageInfo {
	info := ImageInfo{Index: index}
	info.Alt, _ = img.Attr("alt")
	info.Width, _ = img.Attr("width")
	info.Height, _ = img.Attr("height")
	return info
}

// ResizeImage sets the display size of the selected image. The image data
// is left alone.
func (e *Editor) ResizeImage(req embed.ResizeRequest) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	e.validateSelectionsLocked()
	if e.image == nil {
		e.noticeLocked(ErrNoImageSelected)
		return ErrNoImageSelected
	}
	e.flushLocked()
	if err := embed.Resize(e.image, req); err != nil {
		e.noticeLocked(err)
		return err
	}
	e.overlays.hide(overlayImageResize)
	e.recordLocked()
	return nil
}

// Import parses a document file and inserts its content at the selection.
func (e *Editor) Import(ctx context.Context, r io.Reader, filename string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := parser.ForFile(filename)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	imported, err := p.Parse(r, filename)
	if err != nil {
		e.mu.Lock()
		e.noticeLocked(err)
		e.mu.Unlock()
		return fmt.Errorf("import %s: %w", filename, err)
	}
	frag, err := doc.Parse(doc.SanitizeContent(doc.Render(imported.Root)))
	if err != nil {
		return fmt.Errorf("import %s: %w", filename, err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if len(frag.Children) == 0 {
		return nil
	}
	e.flushLocked()
	blocks := len(frag.Children)
	e.insertNodesLocked(frag.Children...)
	e.log.Info("document imported", "filename", filename, "title", imported.Title, "blocks", blocks)
	e.recordLocked()
	return nil
}

package editor

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/dgallion1/mintaro/internal/embed"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestInsertImage_SelectAndResize(t *testing.T) {
	e, _ := newTestEditor(t, Options{})
	ctx := context.Background()
	if err := e.InsertImage(ctx, bytes.NewReader(encodePNG(t, 4, 2)), "pixel.png"); err != nil {
		t.Fatalf("insert image: %v", err)
	}
	img := query(t, e.HTML()).Find("img")
	if src, _ := img.Attr("src"); !strings.HasPrefix(src, "data:image/png;base64,") {
		t.Fatalf("expected a data uri, got %q", src)
	}

	if err := e.ResizeImage(embed.ResizeRequest{Width: 10}); !errors.Is(err, ErrNoImageSelected) {
		t.Errorf("expected ErrNoImageSelected, got %v", err)
	}
	info, err := e.SelectImage(0)
	if err != nil {
		t.Fatalf("select image: %v", err)
	}
	if info.Alt != "pixel.png" {
		t.Errorf("expected alt pixel.png, got %q", info.Alt)
	}
	if _, err := e.SelectImage(1); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue for a missing image, got %v", err)
	}
	if err := e.ResizeImage(embed.ResizeRequest{Width: 50, LockAspect: true}); err != nil {
		t.Fatalf("resize: %v", err)
	}
	img = query(t, e.HTML()).Find("img")
	w, _ := img.Attr("width")
	h, _ := img.Attr("height")
	if w != "50" || h != "25" {
		t.Errorf("expected 50x25, got %sx%s", w, h)
	}
	if n := e.History().Entries; n != 3 {
		t.Errorf("expected insert and resize recorded, got %d entries", n)
	}
	if err := e.ResizeImage(embed.ResizeRequest{}); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("expected ErrInvalidSize, got %v", err)
	}
}

func TestInsertImage_Rejected(t *testing.T) {
	var notices []Notice
	e, _ := newTestEditor(t, Options{
		MaxImageBytes: 32,
		OnNotice:      func(n Notice) { notices = append(notices, n) },
	})
	ctx := context.Background()
	if err := e.InsertImage(ctx, strings.NewReader("plain words"), "notes.txt"); !errors.Is(err, ErrNotImage) {
		t.Errorf("expected ErrNotImage, got %v", err)
	}
	if err := e.InsertImage(ctx, bytes.NewReader(encodePNG(t, 64, 64)), "big.png"); !errors.Is(err, ErrImageTooLarge) {
		t.Errorf("expected ErrImageTooLarge, got %v", err)
	}
	if e.HTML() != "" || e.History().Entries != 1 {
		t.Errorf("expected rejected uploads to change nothing, got %q", e.HTML())
	}
	if len(notices) != 2 || notices[0].Level != NoticeError {
		t.Errorf("expected two error notices, got %+v", notices)
	}
}

func TestInsertImages_ContinuesPastFailures(t *testing.T) {
	e, _ := newTestEditor(t, Options{})
	err := e.InsertImages(context.Background(), []File{
		{Name: "a.png", Reader: bytes.NewReader(encodePNG(t, 1, 1))},
		{Name: "b.txt", Reader: strings.NewReader("nope")},
		{Name: "c.png", Reader: bytes.NewReader(encodePNG(t, 2, 2))},
	})
	if !errors.Is(err, ErrNotImage) || !strings.Contains(err.Error(), "b.txt") {
		t.Errorf("expected the failing file reported, got %v", err)
	}
	if n := query(t, e.HTML()).Find("img").Length(); n != 2 {
		t.Errorf("expected 2 images, got %d", n)
	}
}

func TestEmbedURL(t *testing.T) {
	e, _ := newTestEditor(t, Options{})
	if err := e.EmbedURL("https://youtu.be/dQw4w9WgXcQ"); err != nil {
		t.Fatalf("embed: %v", err)
	}
	src, _ := query(t, e.HTML()).Find("iframe").Attr("src")
	if src != "https://www.youtube.com/embed/dQw4w9WgXcQ" {
		t.Errorf("unexpected player src %q", src)
	}
	if err := e.EmbedURL("javascript:alert(1)"); !errors.Is(err, ErrUnsupportedURL) {
		t.Errorf("expected ErrUnsupportedURL, got %v", err)
	}
}

func TestImport(t *testing.T) {
	e, _ := newTestEditor(t, Options{})
	ctx := context.Background()
	md := "# Notes\n\nSome **bold** text.\n\n<script>alert(1)</script>\n"
	if err := e.Import(ctx, strings.NewReader(md), "notes.md"); err != nil {
		t.Fatalf("import: %v", err)
	}
	d := query(t, e.HTML())
	if d.Find("h1").Text() != "Notes" || d.Find("strong, b").Text() != "bold" {
		t.Errorf("unexpected import result %q", e.HTML())
	}
	if strings.Contains(e.HTML(), "script") {
		t.Errorf("expected scripts stripped, got %q", e.HTML())
	}
	if n := e.History().Entries; n != 2 {
		t.Errorf("expected one entry for the import, got %d", n)
	}

	if err := e.Import(ctx, strings.NewReader("x"), "archive.zip"); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue for an unsupported file, got %v", err)
	}
}

package editor

import (
	"context"
	"errors"

	"github.com/dgallion1/mintaro/internal/colorpick"
	"github.com/dgallion1/mintaro/internal/doc"
	"github.com/dgallion1/mintaro/internal/embed"
)

var (
	ErrClosed          = errors.New("editor closed")
	ErrUnknownCommand  = errors.New("unknown command")
	ErrInvalidValue    = errors.New("invalid command value")
	ErrPromptCanceled  = errors.New("prompt canceled")
	ErrNoCellSelected  = errors.New("no table cell selected")
	ErrNoImageSelected = errors.New("no image selected")
	ErrPickerClosed    = errors.New("color picker not open")
)

// Errors raised by the packages the editor drives, re-exported so hosts only
// need this package for errors.Is checks.
var (
	ErrLastRow               = doc.ErrLastRow
	ErrLastColumn            = doc.ErrLastColumn
	ErrNotMerged             = doc.ErrNotMerged
	ErrMergeOverlap          = doc.ErrMergeOverlap
	ErrInvalidHex            = colorpick.ErrInvalidHex
	ErrEyedropperUnavailable = colorpick.ErrEyedropperUnavailable
	ErrUnsupportedURL        = embed.ErrUnsupportedURL
	ErrNotImage              = embed.ErrNotImage
	ErrImageTooLarge         = embed.ErrImageTooLarge
	ErrInvalidSize           = embed.ErrInvalidSize
)

// NoticeLevel grades a user-visible message.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a message the host shows to the user, in place of a browser
// alert.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
	Err     error       `json:"-"`
}

var noticeMessages = map[error]string{
	doc.ErrLastRow:                     "A table needs at least one row.",
	doc.ErrLastColumn:                  "A table needs at least one column.",
	doc.ErrNotMerged:                   "This cell is not merged.",
	doc.ErrMergeOverlap:                "Cells spanning into the selection cannot be merged.",
	colorpick.ErrInvalidHex:            "Enter a color as #RRGGBB.",
	colorpick.ErrEyedropperUnavailable: "The eyedropper is not available.",
	embed.ErrInvalidSize:               "Enter a valid image size.",
	ErrNoCellSelected:                  "Select a table cell first.",
	ErrNoImageSelected:                 "Select an image first.",
	ErrInvalidValue:                    "That value is not valid here.",
}

// noticeLocked reports err to the host. Validation failures are warnings
// with a fixed message; resource failures carry the error text.
func (e *Editor) noticeLocked(err error) {
	level, msg := NoticeError, err.Error()
	for target, m := range noticeMessages {
		if errors.Is(err, target) {
			level, msg = NoticeWarning, m
			break
		}
	}
	e.log.Warn("editor notice", "level", level, "error", err)
	if e.opts.OnNotice != nil {
		e.opts.OnNotice(Notice{Level: level, Message: msg, Err: err})
	}
}

// PromptKind says what a prompt asks for.
type PromptKind string

const (
	PromptLink  PromptKind = "link"
	PromptImage PromptKind = "image"
	PromptVideo PromptKind = "video"
	PromptTable PromptKind = "table"
)

// Prompt is a request for a single value from the user.
type Prompt struct {
	Kind    PromptKind `json:"kind"`
	Message string     `json:"message"`
	Default string     `json:"default"`
}

// Prompter asks the user for a value. It returns ErrPromptCanceled (or the
// context error) when the user backs out.
type Prompter interface {
	Prompt(ctx context.Context, p Prompt) (string, error)
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(ctx context.Context, p Prompt) (string, error)

func (f PrompterFunc) Prompt(ctx context.Context, p Prompt) (string, error) { return f(ctx, p) }

package editor

import (
	"context"
	"strings"
)

// Key is a key press with its modifiers.
type Key struct {
	Key   string `json:"key"`
	Ctrl  bool   `json:"ctrl"`
	Meta  bool   `json:"meta"`
	Shift bool   `json:"shift"`
	Alt   bool   `json:"alt"`
}

// shortcuts maps Ctrl/Cmd+key onto commands; toolbar buttons use the same
// names.
var shortcuts = map[string]string{
	"b": "bold",
	"i": "italic",
	"u": "underline",
	"z": "undo",
	"y": "redo",
}

// HandleKey runs the command bound to k. It reports whether the key was a
// shortcut. Ctrl+S saves.
func (e *Editor) HandleKey(ctx context.Context, k Key) (bool, error) {
	if !(k.Ctrl || k.Meta) || k.Alt {
		return false, nil
	}
	key := strings.ToLower(k.Key)
	if key == "s" {
		_, err := e.Save(ctx)
		return true, err
	}
	name, ok := shortcuts[key]
	if !ok {
		return false, nil
	}
	if key == "z" && k.Shift {
		name = "redo"
	}
	return true, e.Execute(ctx, name, "")
}

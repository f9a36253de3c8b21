package editor

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dgallion1/mintaro/internal/doc"
	"github.com/dgallion1/mintaro/internal/embed"
)

// command applies one named operation to the locked editor. It reports
// whether the document changed.
type command func(e *Editor, value string) (bool, error)

var inlineCommands = map[string]string{
	"bold":          "b",
	"italic":        "i",
	"underline":     "u",
	"strikeThrough": "s",
	"subscript":     "sub",
	"superscript":   "sup",
}

var alignCommands = map[string]string{
	"justifyLeft":   "left",
	"justifyCenter": "center",
	"justifyRight":  "right",
	"justifyFull":   "justify",
}

// fontSizes maps the legacy 1-7 size scale onto CSS keywords.
var fontSizes = map[string]string{
	"1": "x-small",
	"2": "small",
	"3": "medium",
	"4": "large",
	"5": "x-large",
	"6": "xx-large",
	"7": "xxx-large",
}

// prompts are asked when a command that needs a target gets no value.
var prompts = map[string]Prompt{
	"createLink":  {Kind: PromptLink, Message: "Enter URL:", Default: "https://"},
	"insertImage": {Kind: PromptImage, Message: "Enter image URL:", Default: "https://"},
	"insertVideo": {Kind: PromptVideo, Message: "Enter a YouTube, Vimeo or Dailymotion URL:"},
	"insertTable": {Kind: PromptTable, Message: "Table size (rows x columns):", Default: "3x3"},
}

// MaxTableSize bounds each dimension of an inserted table.
const MaxTableSize = 50

var tableSize = regexp.MustCompile(`^\s*(\d+)\s*[xX×,]\s*(\d+)\s*$`)

var commands map[string]command

func init() {
	commands = map[string]command{
		"removeFormat": func(e *Editor, _ string) (bool, error) {
			return doc.RemoveFormat(e.root, e.sel.Start, e.sel.End), nil
		},
		"foreColor": styleCommand("color", nil),
		"backColor": styleCommand("background-color", nil),
		"fontName":  styleCommand("font-family", nil),
		"fontSize": styleCommand("font-size", func(v string) string {
			if kw, ok := fontSizes[v]; ok {
				return kw
			}
			return v
		}),
		"formatBlock": func(e *Editor, v string) (bool, error) {
			kind, level, err := doc.ParseBlockTag(v)
			if err != nil {
				return false, fmt.Errorf("%w: %v", ErrInvalidValue, err)
			}
			doc.SetBlockFormat(e.root, e.sel.Start, e.sel.End, kind, level)
			return true, nil
		},
		"insertOrderedList":   listCommand(true),
		"insertUnorderedList": listCommand(false),
		"indent":              indentCommand(1),
		"outdent":             indentCommand(-1),
		"createLink": func(e *Editor, v string) (bool, error) {
			href, err := safeHref(v)
			if err != nil {
				return false, err
			}
			changed := doc.SetLink(e.root, e.sel.Start, e.sel.End, href)
			if changed && e.sel.Collapsed() {
				n := len([]rune(href))
				e.sel = Selection{Start: e.sel.Start + n, End: e.sel.Start + n}
			}
			return changed, nil
		},
		"unlink": func(e *Editor, _ string) (bool, error) {
			return doc.Unlink(e.root, e.sel.Start, e.sel.End), nil
		},
		"insertImage": func(e *Editor, v string) (bool, error) {
			src, err := imageSrc(v)
			if err != nil {
				return false, err
			}
			img := doc.NewImage(src)
			img.Style.Set("max-width", "100%")
			e.insertNodesLocked(img)
			return true, nil
		},
		"insertVideo": func(e *Editor, v string) (bool, error) {
			n, err := embed.ResolveURL(v)
			if err != nil {
				return false, err
			}
			e.insertNodesLocked(n)
			return true, nil
		},
		"insertTable": func(e *Editor, v string) (bool, error) {
			rows, cols, err := parseTableSize(v)
			if err != nil {
				return false, err
			}
			e.insertNodesLocked(doc.NewTableNode(rows, cols))
			return true, nil
		},
		"insertHorizontalRule": func(e *Editor, _ string) (bool, error) {
			e.insertNodesLocked(doc.NewRule())
			return true, nil
		},
		"insertHTML": func(e *Editor, v string) (bool, error) {
			return e.pasteLocked(v)
		},
		"insertText": func(e *Editor, v string) (bool, error) {
			e.typeLocked(v)
			return true, nil
		},
		"selectAll": func(e *Editor, _ string) (bool, error) {
			e.sel = Selection{Start: 0, End: doc.NewLayout(e.root).Len()}
			return false, nil
		},
		"undo": func(e *Editor, _ string) (bool, error) {
			e.undoLocked()
			return false, nil
		},
		"redo": func(e *Editor, _ string) (bool, error) {
			e.redoLocked()
			return false, nil
		},
	}
	for name, tag := range inlineCommands {
		commands[name] = inlineCommand(tag)
	}
	for name, align := range alignCommands {
		commands[name] = alignCommand(align)
	}
}

func inlineCommand(tag string) command {
	return func(e *Editor, _ string) (bool, error) {
		return doc.ToggleInline(e.root, e.sel.Start, e.sel.End, tag), nil
	}
}

func styleCommand(prop string, mapValue func(string) string) command {
	return func(e *Editor, v string) (bool, error) {
		v = strings.TrimSpace(v)
		if mapValue != nil {
			v = mapValue(v)
		}
		if v == "" || strings.ContainsAny(v, ";{}<>\"") {
			return false, fmt.Errorf("%w: %s %q", ErrInvalidValue, prop, v)
		}
		return doc.SetInlineStyle(e.root, e.sel.Start, e.sel.End, prop, v), nil
	}
}

func alignCommand(align string) command {
	return func(e *Editor, _ string) (bool, error) {
		doc.SetAlign(e.root, e.sel.Start, e.sel.End, align)
		return true, nil
	}
}

func listCommand(ordered bool) command {
	return func(e *Editor, _ string) (bool, error) {
		doc.ToggleList(e.root, e.sel.Start, e.sel.End, ordered)
		return true, nil
	}
}

func indentCommand(steps int) command {
	return func(e *Editor, _ string) (bool, error) {
		doc.Indent(e.root, e.sel.Start, e.sel.End, steps)
		return true, nil
	}
}

// Commands lists the command vocabulary.
func Commands() []string {
	out := make([]string, 0, len(commands))
	for name := range commands {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Execute applies a named command to the selection and records the result
// immediately. Commands that need a target (createLink, insertImage,
// insertVideo, insertTable) ask the Prompter when value is empty; a
// canceled prompt changes nothing and returns ErrPromptCanceled.
func (e *Editor) Execute(ctx context.Context, name, value string) error {
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	if p, ok := prompts[name]; ok && strings.TrimSpace(value) == "" {
		v, err := e.prompt(ctx, p)
		if err != nil {
			return err
		}
		value = v
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.execLocked(name, cmd, value)
}

func (e *Editor) execLocked(name string, cmd command, value string) error {
	if e.closed {
		return ErrClosed
	}
	e.flushLocked()
	e.sel = e.clampLocked(e.sel)
	changed, err := cmd(e, value)
	if err != nil {
		e.noticeLocked(err)
		return err
	}
	e.log.Debug("command executed", "command", name, "changed", changed)
	if changed {
		e.sel = e.clampLocked(e.sel)
		e.recordLocked()
	}
	return nil
}

// prompt asks the configured Prompter without holding the editor lock.
func (e *Editor) prompt(ctx context.Context, p Prompt) (string, error) {
	if e.opts.Prompter == nil {
		return "", ErrPromptCanceled
	}
	v, err := e.opts.Prompter.Prompt(ctx, p)
	if err != nil {
		if errors.Is(err, ErrPromptCanceled) || errors.Is(err, context.Canceled) {
			return "", ErrPromptCanceled
		}
		return "", fmt.Errorf("prompt %s: %w", p.Kind, err)
	}
	if strings.TrimSpace(v) == "" {
		return "", ErrPromptCanceled
	}
	return v, nil
}

// insertNodesLocked replaces the selection with nodes and puts the caret
// after them.
func (e *Editor) insertNodesLocked(nodes ...*doc.Node) {
	start := e.deleteSelectionLocked()
	// nodes may alias the child list of a parsed fragment.
	frag := doc.NewDocument(append([]*doc.Node(nil), nodes...)...)
	end := e.measure(start, func() { doc.InsertFragment(e.root, start, frag) })
	e.sel = Selection{Start: end, End: end}
}

// safeHref accepts absolute http(s) and mailto URLs and relative URLs.
func safeHref(v string) (string, error) {
	v = strings.TrimSpace(v)
	u, err := url.Parse(v)
	if err != nil || v == "" {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedURL, v)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "mailto":
	case "":
		if u.Host != "" {
			return "", fmt.Errorf("%w: %q", ErrUnsupportedURL, v)
		}
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedURL, v)
	}
	return u.String(), nil
}

func imageSrc(v string) (string, error) {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "data:image/") {
		return v, nil
	}
	u, err := url.Parse(v)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedURL, v)
	}
	return u.String(), nil
}

func parseTableSize(v string) (int, int, error) {
	m := tableSize.FindStringSubmatch(v)
	if m == nil {
		return 0, 0, fmt.Errorf("%w: table size %q", ErrInvalidValue, v)
	}
	rows, _ := strconv.Atoi(m[1])
	cols, _ := strconv.Atoi(m[2])
	if rows < 1 || cols < 1 || rows > MaxTableSize || cols > MaxTableSize {
		return 0, 0, fmt.Errorf("%w: table size %dx%d", ErrInvalidValue, rows, cols)
	}
	return rows, cols, nil
}

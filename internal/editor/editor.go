// Package editor is the headless Mintaro editor: one Editor per mounted
// instance owns a document tree, its selection, undo history, table and
// colour overlays, and the save/export bridge to the host.
package editor

import (
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dgallion1/mintaro/internal/clock"
	"github.com/dgallion1/mintaro/internal/colorpick"
	"github.com/dgallion1/mintaro/internal/doc"
	"github.com/dgallion1/mintaro/internal/embed"
	"github.com/dgallion1/mintaro/internal/history"
)

// Options configure an Editor. Zero values select the defaults.
type Options struct {
	ContainerID   string `json:"containerId" yaml:"container_id"`
	ToolbarID     string `json:"toolbarId" yaml:"toolbar_id"`
	PreviewID     string `json:"previewId" yaml:"preview_id"`
	Height        string `json:"height" yaml:"height"`
	Placeholder   string `json:"placeholder" yaml:"placeholder"`
	EnablePreview *bool  `json:"enablePreview,omitempty" yaml:"enable_preview"`

	HistoryCapacity int           `json:"historyCapacity" yaml:"history_capacity"`
	Debounce        time.Duration `json:"debounce" yaml:"debounce"`
	MaxImageBytes   int64         `json:"maxImageBytes" yaml:"max_image_bytes"`

	// MenuSize is the extent of the table context menu used for clamping.
	MenuSize Size `json:"menuSize" yaml:"menu_size"`

	Clock      clock.Clock          `json:"-" yaml:"-"`
	Logger     *slog.Logger         `json:"-" yaml:"-"`
	Prompter   Prompter             `json:"-" yaml:"-"`
	Eyedropper colorpick.Eyedropper `json:"-" yaml:"-"`

	OnSave    SaveFunc      `json:"-" yaml:"-"`
	OnPreview func(string)  `json:"-" yaml:"-"`
	OnNotice  func(Notice)  `json:"-" yaml:"-"`
	OnChange  func(Content) `json:"-" yaml:"-"`
}

// Defaults for Options.
const (
	DefaultContainerID = "editor"
	DefaultToolbarID   = "toolbar"
	DefaultPreviewID   = "preview"
	DefaultHeight      = "400px"
	DefaultPlaceholder = "Start typing..."
)

// DefaultMenuSize is the context menu extent when none is configured.
var DefaultMenuSize = Size{Width: 200, Height: 320}

func (o Options) withDefaults() Options {
	if o.ContainerID == "" {
		o.ContainerID = DefaultContainerID
	}
	if o.ToolbarID == "" {
		o.ToolbarID = DefaultToolbarID
	}
	if o.PreviewID == "" {
		o.PreviewID = DefaultPreviewID
	}
	if o.Height == "" {
		o.Height = DefaultHeight
	}
	if o.Placeholder == "" {
		o.Placeholder = DefaultPlaceholder
	}
	if o.EnablePreview == nil {
		on := true
		o.EnablePreview = &on
	}
	if o.HistoryCapacity <= 0 {
		o.HistoryCapacity = history.DefaultCapacity
	}
	if o.Debounce <= 0 {
		o.Debounce = history.DefaultDelay
	}
	if o.MaxImageBytes <= 0 {
		o.MaxImageBytes = embed.DefaultMaxImageBytes
	}
	if o.MenuSize.Width <= 0 || o.MenuSize.Height <= 0 {
		o.MenuSize = DefaultMenuSize
	}
	if o.Clock == nil {
		o.Clock = clock.Real()
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

// PreviewEnabled reports the effective preview setting.
func (o Options) PreviewEnabled() bool {
	return o.EnablePreview == nil || *o.EnablePreview
}

// Content is the serialized document.
type Content struct {
	HTML string `json:"html"`
	Text string `json:"text"`
}

// Stats are the live word and character counts.
type Stats struct {
	Words int `json:"words"`
	Chars int `json:"chars"`
}

// Selection is a half-open range of positions in the plain-text projection.
type Selection struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Collapsed reports whether the selection is a caret.
func (s Selection) Collapsed() bool { return s.Start == s.End }

// Editor is one editor instance. All methods are safe for concurrent use.
type Editor struct {
	opts Options
	log  *slog.Logger

	mu        sync.Mutex
	root      *doc.Node
	sel       Selection
	focused   bool
	composing bool
	closed    bool

	hist     *history.Manager
	debounce *history.Debouncer
	dirty    bool // typed change not yet recorded

	table    tableSelection
	image    *doc.Node
	picker   *colorpick.Picker
	overlays *overlayRegistry
}

// New creates an editor seeded with initial content. HTML content goes
// through the content sanitiser; plain text is split into paragraphs.
func New(opts Options, initial string, isHTML bool) *Editor {
	opts = opts.withDefaults()
	e := &Editor{
		opts:     opts,
		log:      opts.Logger.With("editor", opts.ContainerID),
		debounce: history.NewDebouncer(opts.Clock, opts.Debounce),
		picker:   colorpick.NewPicker(colorpick.DefaultWheel, opts.Eyedropper),
		overlays: newOverlayRegistry(opts.ContainerID),
	}
	e.root = e.build(initial, isHTML)
	e.hist = history.NewManager(opts.HistoryCapacity, doc.Render(e.root))
	e.syncLocked()
	return e
}

// Options returns the effective configuration.
func (e *Editor) Options() Options { return e.opts }

func (e *Editor) build(content string, isHTML bool) *doc.Node {
	if content == "" {
		return doc.NewDocument()
	}
	if !isHTML {
		return textDocument(content)
	}
	root, err := doc.Parse(doc.SanitizeContent(content))
	if err != nil {
		e.log.Warn("content rejected", "error", err)
		return doc.NewDocument()
	}
	return root
}

// textDocument splits plain text into paragraphs on blank lines; single
// newlines become line breaks.
func textDocument(s string) *doc.Node {
	root := doc.NewDocument()
	s = strings.ReplaceAll(s, "\r\n", "\n")
	for _, para := range strings.Split(s, "\n\n") {
		if strings.TrimSpace(para) == "" {
			continue
		}
		p := doc.NewParagraph()
		for i, line := range strings.Split(para, "\n") {
			if i > 0 {
				p.AppendChild(doc.NewBreak())
			}
			if line != "" {
				p.AppendChild(doc.NewText(line))
			}
		}
		root.AppendChild(p)
	}
	return root
}

// Content returns the serialized HTML and its plain text.
func (e *Editor) Content() Content {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.contentLocked()
}

func (e *Editor) contentLocked() Content {
	return Content{HTML: doc.Render(e.root), Text: doc.PlainText(e.root)}
}

// HTML returns the serialized document.
func (e *Editor) HTML() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return doc.Render(e.root)
}

// Text returns the plain-text projection of the document.
func (e *Editor) Text() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return doc.PlainText(e.root)
}

// SetContent replaces the document wholesale and records it immediately.
func (e *Editor) SetContent(content string, isHTML bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	e.flushLocked()
	e.root = e.build(content, isHTML)
	e.sel = Selection{}
	e.dropSelectionsLocked()
	e.recordLocked()
	return nil
}

// Clear empties the document and resets history to the cleared state.
// It cannot be undone.
func (e *Editor) Clear() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	e.debounce.Cancel()
	e.dirty = false
	e.root = doc.NewDocument()
	e.sel = Selection{}
	e.dropSelectionsLocked()
	e.hist.Reset(doc.Render(e.root))
	e.syncLocked()
	return nil
}

// Focus and Blur toggle the surface focus used by the placeholder.
func (e *Editor) Focus() {
	e.mu.Lock()
	e.focused = true
	e.mu.Unlock()
}

func (e *Editor) Blur() {
	e.mu.Lock()
	e.focused = false
	e.mu.Unlock()
}

// PlaceholderVisible reports whether the placeholder text shows: the
// document is empty and the surface is not focused.
func (e *Editor) PlaceholderVisible() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.focused && isEmpty(e.root)
}

func isEmpty(root *doc.Node) bool {
	empty := true
	root.Walk(func(n *doc.Node) bool {
		switch n.Kind {
		case doc.KindText:
			if n.Text != "" {
				empty = false
			}
		case doc.KindImage, doc.KindEmbed, doc.KindRule, doc.KindTable:
			empty = false
		}
		return empty
	})
	return empty
}

// Stats returns the word and character counts.
func (e *Editor) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return statsOf(e.root)
}

func statsOf(root *doc.Node) Stats {
	text := doc.PlainText(root)
	return Stats{Words: len(strings.Fields(text)), Chars: utf8.RuneCountInString(text)}
}

// Select sets the selection, clamped to the document.
func (e *Editor) Select(start, end int) Selection {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sel = e.clampLocked(Selection{Start: start, End: end})
	return e.sel
}

// SelectAll selects the whole document.
func (e *Editor) SelectAll() Selection {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sel = Selection{Start: 0, End: doc.NewLayout(e.root).Len()}
	return e.sel
}

// Selection returns the current selection.
func (e *Editor) Selection() Selection {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sel = e.clampLocked(e.sel)
	return e.sel
}

func (e *Editor) clampLocked(s Selection) Selection {
	n := doc.NewLayout(e.root).Len()
	if s.Start > s.End {
		s.Start, s.End = s.End, s.Start
	}
	s.Start = max(0, min(s.Start, n))
	s.End = max(0, min(s.End, n))
	return s
}

// Input types text at the selection, replacing it. A newline splits the
// block the way Enter does. The change is recorded after the debounce delay.
func (e *Editor) Input(text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	e.typeLocked(text)
	e.markDirtyLocked()
	return nil
}

func (e *Editor) typeLocked(text string) {
	start := e.deleteSelectionLocked()
	text = strings.ReplaceAll(text, "\r\n", "\n")
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			start = e.measure(start, func() { doc.SplitBlock(e.root, start) })
		}
		start = e.measure(start, func() { doc.InsertText(e.root, start, line) })
	}
	e.sel = Selection{Start: start, End: start}
}

// measure runs an insertion at pos and returns the caret after it.
func (e *Editor) measure(pos int, insert func()) int {
	before := doc.NewLayout(e.root).Len()
	insert()
	return pos + doc.NewLayout(e.root).Len() - before
}

// deleteSelectionLocked removes a non-empty selection and returns the caret.
func (e *Editor) deleteSelectionLocked() int {
	e.sel = e.clampLocked(e.sel)
	if !e.sel.Collapsed() {
		doc.DeleteRange(e.root, e.sel.Start, e.sel.End)
	}
	e.sel.End = e.sel.Start
	return e.sel.Start
}

// InsertParagraph splits the block at the caret (Enter).
func (e *Editor) InsertParagraph() error {
	return e.Input("\n")
}

// DeleteBackward removes the selection, or the character before the caret
// (Backspace). Deleting a block boundary joins the blocks.
func (e *Editor) DeleteBackward() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	e.sel = e.clampLocked(e.sel)
	switch {
	case !e.sel.Collapsed():
		doc.DeleteRange(e.root, e.sel.Start, e.sel.End)
		e.sel.End = e.sel.Start
	case e.sel.Start > 0:
		doc.DeleteRange(e.root, e.sel.Start-1, e.sel.Start)
		e.sel = Selection{Start: e.sel.Start - 1, End: e.sel.Start - 1}
	default:
		return nil
	}
	e.markDirtyLocked()
	return nil
}

// BeginComposition starts an IME session: nothing is recorded until it ends.
func (e *Editor) BeginComposition() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.composing = true
	e.debounce.Cancel()
}

// EndComposition ends the IME session and schedules the pending record.
func (e *Editor) EndComposition() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.composing {
		return
	}
	e.composing = false
	if !e.closed {
		e.debounce.Trigger(e.debouncedSnapshot)
	}
}

// Composing reports whether an IME session is open.
func (e *Editor) Composing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.composing
}

// Undo restores the previous state. It reports false at the oldest state.
func (e *Editor) Undo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.undoLocked()
}

func (e *Editor) undoLocked() bool {
	if e.closed {
		return false
	}
	e.flushLocked()
	state, ok := e.hist.Undo()
	if ok {
		e.restoreLocked(state)
	}
	return ok
}

// Redo re-applies an undone state. It reports false at the newest state.
func (e *Editor) Redo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.redoLocked()
}

func (e *Editor) redoLocked() bool {
	if e.closed {
		return false
	}
	// A pending typed change would invalidate the redo entries.
	e.debounce.Cancel()
	if e.dirty && !e.composing {
		e.dirty = false
		if e.hist.Snapshot(doc.Render(e.root)) {
			e.syncLocked()
			return false
		}
	}
	state, ok := e.hist.Redo()
	if ok {
		e.restoreLocked(state)
	}
	return ok
}

// HistoryInfo describes the undo timeline.
type HistoryInfo struct {
	Entries int  `json:"entries"`
	Cursor  int  `json:"cursor"`
	CanUndo bool `json:"canUndo"`
	CanRedo bool `json:"canRedo"`
	Pending bool `json:"pending"`
}

// History returns the state of the undo timeline.
func (e *Editor) History() HistoryInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return HistoryInfo{
		Entries: e.hist.Len(),
		Cursor:  e.hist.Cursor(),
		CanUndo: e.hist.CanUndo(),
		CanRedo: e.hist.CanRedo(),
		Pending: e.debounce.Pending(),
	}
}

// HistoryEntries returns a copy of the recorded states, oldest first.
func (e *Editor) HistoryEntries() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hist.Entries()
}

// Close tears the instance down: the debounce timer stops and every overlay
// owned by the instance closes. Later mutations return ErrClosed.
func (e *Editor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.debounce.Cancel()
	e.dropSelectionsLocked()
	e.overlays.closeAll()
	e.log.Debug("editor closed")
}

func (e *Editor) restoreLocked(state string) {
	root, err := doc.Parse(state)
	if err != nil {
		e.log.Error("restore history state", "error", err)
		return
	}
	e.root = root
	e.dirty = false
	e.sel = e.clampLocked(e.sel)
	e.dropSelectionsLocked()
	e.syncLocked()
}

// dropSelectionsLocked forces the table subsystem to NoSelection and
// forgets the selected image.
func (e *Editor) dropSelectionsLocked() {
	e.clearCellLocked()
	e.image = nil
	e.overlays.hide(overlayImageResize)
}

// markDirtyLocked handles a typed mutation: counts and preview update now,
// the history record follows once typing pauses.
func (e *Editor) markDirtyLocked() {
	e.validateSelectionsLocked()
	e.syncLocked()
	e.dirty = true
	if !e.composing {
		e.debounce.Trigger(e.debouncedSnapshot)
	}
}

func (e *Editor) debouncedSnapshot() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.composing || !e.dirty {
		return
	}
	e.dirty = false
	if e.hist.Snapshot(doc.Render(e.root)) {
		e.log.Debug("snapshot recorded", "entries", e.hist.Len())
	}
}

// flushLocked records a pending typed change before an explicit operation.
// The dirty flag, not the timer, decides: a timer that already fired may
// still be waiting for the lock.
func (e *Editor) flushLocked() {
	e.debounce.Cancel()
	if e.dirty && !e.composing {
		e.dirty = false
		e.hist.Snapshot(doc.Render(e.root))
	}
}

// recordLocked snapshots synchronously after an explicit operation.
func (e *Editor) recordLocked() {
	e.validateSelectionsLocked()
	e.dirty = false
	e.hist.Snapshot(doc.Render(e.root))
	e.syncLocked()
}

// validateSelectionsLocked drops references to nodes no longer in the tree.
func (e *Editor) validateSelectionsLocked() {
	if e.table.cell != nil && !e.table.cell.IsDescendantOf(e.root) {
		e.clearCellLocked()
	}
	if e.image != nil && !e.image.IsDescendantOf(e.root) {
		e.image = nil
		e.overlays.hide(overlayImageResize)
	}
}

func (e *Editor) syncLocked() {
	if e.opts.OnPreview == nil && e.opts.OnChange == nil {
		return
	}
	c := e.contentLocked()
	if e.opts.PreviewEnabled() && e.opts.OnPreview != nil {
		e.opts.OnPreview(c.HTML)
	}
	if e.opts.OnChange != nil {
		e.opts.OnChange(c)
	}
}

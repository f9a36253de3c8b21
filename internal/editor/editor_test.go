package editor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/dgallion1/mintaro/internal/clock"
	"github.com/dgallion1/mintaro/internal/doc"
)

func newTestEditor(t *testing.T, opts Options) (*Editor, *clock.Fake) {
	t.Helper()
	fc := clock.NewFake(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	opts.Clock = fc
	e := New(opts, "", false)
	t.Cleanup(e.Close)
	return e, fc
}

func query(t *testing.T, html string) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("goquery: %v", err)
	}
	return d
}

// typeAndSettle types text and lets the debounce fire.
func typeAndSettle(t *testing.T, e *Editor, fc *clock.Fake, text string) {
	t.Helper()
	if err := e.Input(text); err != nil {
		t.Fatalf("input: %v", err)
	}
	fc.Advance(500 * time.Millisecond)
}

func TestNew_Defaults(t *testing.T) {
	e := New(Options{}, "", false)
	defer e.Close()
	o := e.Options()
	if o.ContainerID != "editor" || o.ToolbarID != "toolbar" || o.PreviewID != "preview" {
		t.Errorf("unexpected ids %q %q %q", o.ContainerID, o.ToolbarID, o.PreviewID)
	}
	if o.Height != "400px" || o.Placeholder != "Start typing..." || !o.PreviewEnabled() {
		t.Errorf("unexpected surface defaults %+v", o)
	}
	if o.HistoryCapacity != 50 || o.Debounce != 500*time.Millisecond {
		t.Errorf("unexpected history defaults %d %v", o.HistoryCapacity, o.Debounce)
	}
	if h := e.History(); h.Entries != 1 || h.CanUndo {
		t.Errorf("expected a single seed entry, got %+v", h)
	}
}

func TestScenario_TypeBoldTableUndo(t *testing.T) {
	var notices []Notice
	e, fc := newTestEditor(t, Options{OnNotice: func(n Notice) { notices = append(notices, n) }})
	ctx := context.Background()

	typeAndSettle(t, e, fc, "Hello")
	if got := e.HTML(); got != "<p>Hello</p>" {
		t.Fatalf("expected typed paragraph, got %q", got)
	}

	e.Select(0, 5)
	if err := e.Execute(ctx, "bold", ""); err != nil {
		t.Fatalf("bold: %v", err)
	}
	if got := e.HTML(); got != "<p><b>Hello</b></p>" {
		t.Fatalf("expected bold, got %q", got)
	}

	e.Select(5, 5)
	if err := e.Execute(ctx, "insertTable", "2x2"); err != nil {
		t.Fatalf("insert table: %v", err)
	}
	if n := query(t, e.HTML()).Find("table td").Length(); n != 4 {
		t.Fatalf("expected 4 cells, got %d", n)
	}

	if err := e.SelectCell(CellRef{Table: 0, Row: 0, Col: 1}); err != nil {
		t.Fatalf("select cell: %v", err)
	}
	if err := e.DeleteColumn(); err != nil {
		t.Fatalf("delete column: %v", err)
	}
	if st := e.TableStatus(); st.State != NoSelection {
		t.Fatalf("expected the deleted cell to drop the selection, got %s", st.State)
	}
	if err := e.SelectCell(CellRef{Table: 0, Row: 0, Col: 0}); err != nil {
		t.Fatalf("reselect cell: %v", err)
	}
	if st := e.TableStatus(); st.Cols != 1 || st.Rows != 2 {
		t.Fatalf("expected 2x1 table, got %dx%d", st.Rows, st.Cols)
	}
	before := e.History()
	if err := e.DeleteColumn(); !errors.Is(err, ErrLastColumn) {
		t.Fatalf("expected ErrLastColumn, got %v", err)
	}
	if after := e.History(); after.Entries != before.Entries {
		t.Errorf("refused delete recorded an entry: %d -> %d", before.Entries, after.Entries)
	}
	if len(notices) != 1 || notices[0].Level != NoticeWarning {
		t.Errorf("expected one warning notice, got %+v", notices)
	}

	entries := e.HistoryEntries()
	for i := 0; i < 3; i++ {
		if !e.Undo() {
			t.Fatalf("undo %d: expected a state to restore", i+1)
		}
		if got, want := e.HTML(), entries[len(entries)-2-i]; got != want {
			t.Errorf("undo %d: expected %q, got %q", i+1, want, got)
		}
	}
	if got := e.HTML(); got != "<p>Hello</p>" {
		t.Errorf("expected unbolded Hello without a table, got %q", got)
	}
	if st := e.TableStatus(); st.State != NoSelection {
		t.Errorf("expected NoSelection after restore, got %s", st.State)
	}
}

func TestHistory_UndoRedoRestoresExactly(t *testing.T) {
	e, fc := newTestEditor(t, Options{})
	var states []string
	for _, s := range []string{"one", " two", " three"} {
		typeAndSettle(t, e, fc, s)
		states = append(states, e.HTML())
	}
	for e.Undo() {
	}
	if got := e.HTML(); got != "" {
		t.Fatalf("expected empty seed state, got %q", got)
	}
	for i := 0; e.Redo(); i++ {
		if got := e.HTML(); got != states[i] {
			t.Errorf("redo %d: expected %q, got %q", i+1, states[i], got)
		}
	}
	if got := e.HTML(); got != "<p>one two three</p>" {
		t.Errorf("expected final state, got %q", got)
	}
}

func TestHistory_RedoInvalidatedByNewEdit(t *testing.T) {
	e, fc := newTestEditor(t, Options{})
	typeAndSettle(t, e, fc, "a")
	typeAndSettle(t, e, fc, "b")
	e.Undo()
	typeAndSettle(t, e, fc, "c")
	if e.Redo() {
		t.Error("expected redo to be a no-op after a divergent edit")
	}
	if got := e.HTML(); got != "<p>ac</p>" {
		t.Errorf("expected <p>ac</p>, got %q", got)
	}
}

func TestHistory_DebounceCoalesces(t *testing.T) {
	e, fc := newTestEditor(t, Options{})
	e.Input("a")
	fc.Advance(300 * time.Millisecond)
	e.Input("b")
	fc.Advance(300 * time.Millisecond)
	if n := e.History().Entries; n != 1 {
		t.Fatalf("expected no snapshot before the quiet period, got %d entries", n)
	}
	fc.Advance(200 * time.Millisecond)
	entries := e.HistoryEntries()
	if len(entries) != 2 || entries[1] != "<p>ab</p>" {
		t.Errorf("expected one coalesced entry, got %q", entries)
	}
}

func TestHistory_CapacityBound(t *testing.T) {
	e, fc := newTestEditor(t, Options{})
	for i := 0; i < 60; i++ {
		typeAndSettle(t, e, fc, "x")
	}
	h := e.History()
	if h.Entries != 50 {
		t.Fatalf("expected 50 entries, got %d", h.Entries)
	}
	if h.Cursor != 49 {
		t.Errorf("expected cursor 49, got %d", h.Cursor)
	}
	if oldest := e.HistoryEntries()[0]; oldest != "<p>"+strings.Repeat("x", 11)+"</p>" {
		t.Errorf("expected the oldest 11 states evicted, oldest is %q", oldest)
	}
}

func TestHistory_CompositionSuppressesSnapshots(t *testing.T) {
	e, fc := newTestEditor(t, Options{})
	e.BeginComposition()
	e.Input("k")
	e.Input("ka")
	fc.Advance(2 * time.Second)
	if n := e.History().Entries; n != 1 {
		t.Fatalf("expected no snapshot during composition, got %d entries", n)
	}
	e.EndComposition()
	fc.Advance(500 * time.Millisecond)
	if n := e.History().Entries; n != 2 {
		t.Errorf("expected one snapshot after composition, got %d entries", n)
	}
}

func TestHistory_ExplicitOperationFlushesPendingInput(t *testing.T) {
	e, _ := newTestEditor(t, Options{})
	e.Input("abc")
	e.Select(0, 3)
	if err := e.Execute(context.Background(), "italic", ""); err != nil {
		t.Fatalf("italic: %v", err)
	}
	entries := e.HistoryEntries()
	want := []string{"", "<p>abc</p>", "<p><i>abc</i></p>"}
	if len(entries) != len(want) {
		t.Fatalf("expected %q, got %q", want, entries)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entry %d: expected %q, got %q", i, want[i], entries[i])
		}
	}
	if e.History().Pending {
		t.Error("expected the debounced snapshot to be consumed")
	}
}

func TestHistory_FiredTimerWaitingForLockStillRecorded(t *testing.T) {
	e, _ := newTestEditor(t, Options{})
	if err := e.Input("abc"); err != nil {
		t.Fatalf("input: %v", err)
	}
	// The timer has fired and dropped its task, but the callback has not
	// taken the lock yet.
	e.debounce.Cancel()

	if !e.Undo() {
		t.Fatal("expected the typed change to be undoable")
	}
	if got := e.HTML(); got != "" {
		t.Errorf("expected undo back to empty, got %q", got)
	}
	want := []string{"", "<p>abc</p>"}
	entries := e.HistoryEntries()
	if len(entries) != len(want) || entries[0] != want[0] || entries[1] != want[1] {
		t.Fatalf("expected %q, got %q", want, entries)
	}

	// The late callback finds nothing left to record.
	e.debouncedSnapshot()
	if got := e.HistoryEntries(); len(got) != len(want) {
		t.Errorf("expected the late snapshot skipped, got %q", got)
	}
	if got := e.HTML(); got != "" {
		t.Errorf("expected the undone state kept, got %q", got)
	}
}

func TestHistory_NestedTableEntriesRoundTrip(t *testing.T) {
	e, _ := newTestEditor(t, Options{})
	ctx := context.Background()
	e.Select(0, 0)
	if err := e.Execute(ctx, "insertTable", "1x1"); err != nil {
		t.Fatalf("insert table: %v", err)
	}
	e.Select(1, 1)
	if err := e.Execute(ctx, "insertTable", "1x1"); err != nil {
		t.Fatalf("insert nested table: %v", err)
	}
	entries := e.HistoryEntries()
	for i, entry := range entries {
		if got := doc.Render(doc.MustParse(entry)); got != entry {
			t.Errorf("entry %d: expected %q to reparse unchanged, got %q", i, entry, got)
		}
	}
	last := entries[len(entries)-1]
	if got := e.HTML(); got != last {
		t.Fatalf("expected the live document to match the newest entry, got %q", got)
	}
	if !e.Undo() || !e.Redo() {
		t.Fatal("expected undo then redo")
	}
	if got := e.HTML(); got != last {
		t.Errorf("expected redo to restore %q exactly, got %q", last, got)
	}
}

func TestSetContentAndClear(t *testing.T) {
	var previews []string
	e, _ := newTestEditor(t, Options{OnPreview: func(html string) { previews = append(previews, html) }})

	if err := e.SetContent(`<p>Hi <b>there</b></p><script>alert(1)</script>`, true); err != nil {
		t.Fatalf("set content: %v", err)
	}
	if got := e.HTML(); got != "<p>Hi <b>there</b></p>" {
		t.Errorf("expected sanitised content, got %q", got)
	}
	if n := e.History().Entries; n != 2 {
		t.Errorf("expected setContent to snapshot, got %d entries", n)
	}
	if len(previews) == 0 || previews[len(previews)-1] != e.HTML() {
		t.Error("expected preview sync after setContent")
	}

	e.SetContent("line one\nline two\n\nsecond", false)
	if got := e.HTML(); got != "<p>line one<br/>line two</p><p>second</p>" {
		t.Errorf("unexpected plain text import %q", got)
	}
	c := e.Content()
	if strings.ContainsAny(c.Text, "<>") {
		t.Errorf("plain text contains markup: %q", c.Text)
	}

	if err := e.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	h := e.History()
	if h.Entries != 1 || h.CanUndo || e.HTML() != "" {
		t.Errorf("expected cleared history with one entry, got %+v html=%q", h, e.HTML())
	}
	if e.Undo() {
		t.Error("clear must not be undoable")
	}
}

func TestPlaceholderAndStats(t *testing.T) {
	e, _ := newTestEditor(t, Options{})
	if !e.PlaceholderVisible() {
		t.Error("expected placeholder on an empty, unfocused editor")
	}
	e.Focus()
	if e.PlaceholderVisible() {
		t.Error("expected placeholder hidden while focused")
	}
	e.Blur()
	e.Input("Hello world")
	if e.PlaceholderVisible() {
		t.Error("expected placeholder hidden with content")
	}
	if s := e.Stats(); s.Words != 2 || s.Chars != 11 {
		t.Errorf("expected 2 words 11 chars, got %+v", s)
	}
}

func TestInputEnterAndBackspace(t *testing.T) {
	e, _ := newTestEditor(t, Options{})
	e.Input("ab")
	e.InsertParagraph()
	e.Input("cd")
	if got := e.HTML(); got != "<p>ab</p><p>cd</p>" {
		t.Fatalf("expected two paragraphs, got %q", got)
	}
	if sel := e.Selection(); sel.Start != 5 || !sel.Collapsed() {
		t.Errorf("expected caret at 5, got %+v", sel)
	}

	e.Select(3, 3)
	e.DeleteBackward()
	if got := e.HTML(); got != "<p>abcd</p>" {
		t.Errorf("expected joined paragraph, got %q", got)
	}
	e.Select(1, 3)
	e.Input("X")
	if got := e.HTML(); got != "<p>aXd</p>" {
		t.Errorf("expected replaced selection, got %q", got)
	}
}

func TestClose(t *testing.T) {
	e, fc := newTestEditor(t, Options{})
	e.Input("a")
	e.SelectAll()
	e.Close()
	fc.Advance(time.Second)
	if n := e.History().Entries; n != 1 {
		t.Errorf("expected the pending snapshot dropped on close, got %d entries", n)
	}
	if err := e.Input("b"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	for _, o := range e.Overlays() {
		if o.Visible {
			t.Errorf("overlay %s still visible after close", o.ID)
		}
	}
}

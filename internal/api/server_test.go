package api

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/dgallion1/mintaro/internal/config"
	"github.com/dgallion1/mintaro/internal/editor"
	"github.com/dgallion1/mintaro/internal/session"
	"github.com/dgallion1/mintaro/internal/sink"
)

const testKey = "test-key"

func newTestServer(t *testing.T) (*httptest.Server, *session.Manager) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	stats := sink.NewStats(time.Hour, nil)
	mgr := session.NewManager(session.Config{
		Sink:   sink.NewMeasured(sink.NewMemory(), stats),
		Logger: log,
	})
	t.Cleanup(mgr.Stop)
	cfg := config.Config{EditorAPIKey: testKey, MaxUploadBytes: 1 << 20, MaxImportBytes: 1 << 20}
	srv := httptest.NewServer(NewServer(mgr, stats, log, cfg))
	t.Cleanup(srv.Close)
	return srv, mgr
}

func call(t *testing.T, srv *httptest.Server, method, path string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, srv.URL+path, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+testKey)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func create(t *testing.T, srv *httptest.Server, req session.CreateRequest) documentState {
	t.Helper()
	resp := call(t, srv, http.MethodPost, "/api/documents", req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var st documentState
	decodeBody(t, resp, &st)
	return st
}

func TestServer_HealthAndAuth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 from /health, got %d", resp.StatusCode)
	}

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"wrong key", "Bearer nope"},
		{"wrong scheme", "Basic " + testKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/documents", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", resp.StatusCode)
			}
		})
	}
}

func TestServer_EditFlow(t *testing.T) {
	srv, _ := newTestServer(t)
	st := create(t, srv, session.CreateRequest{Placeholder: "Say something"})
	if st.Placeholder != "Say something" || st.HTML != "" {
		t.Fatalf("expected an empty document showing the placeholder, got %+v", st)
	}
	base := "/api/documents/" + st.ID

	if resp := call(t, srv, http.MethodPost, base+"/input", textRequest{Text: "Hello"}); resp.StatusCode != http.StatusOK {
		t.Fatalf("input: expected 200, got %d", resp.StatusCode)
	}
	call(t, srv, http.MethodPost, base+"/selection", selectionRequest{Start: 0, End: 5})
	resp := call(t, srv, http.MethodPost, base+"/commands", commandRequest{Command: "bold"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("bold: expected 200, got %d", resp.StatusCode)
	}
	var after documentState
	decodeBody(t, resp, &after)
	d, err := goquery.NewDocumentFromReader(strings.NewReader(after.HTML))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	if d.Find("p b").Text() != "Hello" {
		t.Errorf("expected bold Hello, got %q", after.HTML)
	}
	if after.Placeholder != "" {
		t.Errorf("expected the placeholder hidden, got %q", after.Placeholder)
	}
	if after.Stats.Words != 1 {
		t.Errorf("expected 1 word, got %d", after.Stats.Words)
	}

	var undo struct {
		Changed  bool          `json:"changed"`
		Document documentState `json:"document"`
	}
	decodeBody(t, call(t, srv, http.MethodPost, base+"/undo", nil), &undo)
	if !undo.Changed || undo.Document.HTML != "<p>Hello</p>" {
		t.Errorf("expected undo to remove the bold, got %+v", undo)
	}
}

func TestServer_ErrorStatuses(t *testing.T) {
	srv, _ := newTestServer(t)
	st := create(t, srv, session.CreateRequest{})
	base := "/api/documents/" + st.ID

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"missing session", http.MethodGet, "/api/documents/nosuchdoc", nil, http.StatusNotFound},
		{"invalid id", http.MethodGet, "/api/documents/bad.id", nil, http.StatusBadRequest},
		{"unknown command", http.MethodPost, base + "/commands", commandRequest{Command: "explode"}, http.StatusUnprocessableEntity},
		{"missing command", http.MethodPost, base + "/commands", commandRequest{}, http.StatusBadRequest},
		{"prompt needed", http.MethodPost, base + "/commands", commandRequest{Command: "createLink"}, http.StatusUnprocessableEntity},
		{"no cell selected", http.MethodPost, base + "/table/delete-row", nil, http.StatusUnprocessableEntity},
		{"unknown table action", http.MethodPost, base + "/table/explode", nil, http.StatusNotFound},
		{"picker closed", http.MethodPost, base + "/color/hex", colorHexRequest{Hex: "#ffffff"}, http.StatusUnprocessableEntity},
		{"no eyedropper", http.MethodPost, base + "/color/eyedropper", nil, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := call(t, srv, tt.method, tt.path, tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("expected %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}
}

func TestServer_MergeOverSpanningCell(t *testing.T) {
	srv, _ := newTestServer(t)
	st := create(t, srv, session.CreateRequest{})
	base := "/api/documents/" + st.ID

	table := `<table><tr><td>a</td><td rowspan="2">TALL</td></tr><tr><td>b</td></tr></table>`
	if resp := call(t, srv, http.MethodPut, base+"/content", contentRequest{Content: table, HTML: true}); resp.StatusCode != http.StatusOK {
		t.Fatalf("set content: expected 200, got %d", resp.StatusCode)
	}
	if resp := call(t, srv, http.MethodPost, base+"/table/select", editor.CellRef{Row: 1}); resp.StatusCode != http.StatusOK {
		t.Fatalf("select cell: expected 200, got %d", resp.StatusCode)
	}
	resp := call(t, srv, http.MethodPost, base+"/table/merge", mergeRequest{ColSpan: 2, RowSpan: 1})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	var got documentState
	decodeBody(t, call(t, srv, http.MethodGet, base, nil), &got)
	if !strings.Contains(got.HTML, "TALL") {
		t.Errorf("expected the spanning cell kept, got %q", got.HTML)
	}
}

func TestServer_MalformedBody(t *testing.T) {
	srv, _ := newTestServer(t)
	st := create(t, srv, session.CreateRequest{})
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/documents/"+st.ID+"/input", strings.NewReader(`{"text":`))
	req.Header.Set("Authorization", "Bearer "+testKey)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestServer_TableActions(t *testing.T) {
	srv, _ := newTestServer(t)
	st := create(t, srv, session.CreateRequest{})
	base := "/api/documents/" + st.ID

	if resp := call(t, srv, http.MethodPost, base+"/commands", commandRequest{Command: "insertTable", Value: "1x2"}); resp.StatusCode != http.StatusOK {
		t.Fatalf("insert table: expected 200, got %d", resp.StatusCode)
	}
	call(t, srv, http.MethodPost, base+"/table/select", map[string]int{"table": 0, "row": 0, "col": 1})

	resp := call(t, srv, http.MethodPost, base+"/table/delete-column", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete column: expected 200, got %d", resp.StatusCode)
	}
	decodeBody(t, resp, &st)
	if st.Table.State != "no_selection" {
		t.Errorf("expected the deleted cell deselected, got %s", st.Table.State)
	}

	call(t, srv, http.MethodPost, base+"/table/select", map[string]int{"table": 0, "row": 0, "col": 0})
	resp = call(t, srv, http.MethodPost, base+"/table/delete-column", nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected the last column refused with 422, got %d", resp.StatusCode)
	}

	decodeBody(t, call(t, srv, http.MethodGet, base, nil), &st)
	if len(st.Notices) != 1 || st.Notices[0].Message != "A table needs at least one column." {
		t.Errorf("expected one notice for the refused delete, got %+v", st.Notices)
	}
	decodeBody(t, call(t, srv, http.MethodGet, base, nil), &st)
	if len(st.Notices) != 0 {
		t.Errorf("expected notices drained after one read, got %+v", st.Notices)
	}
}

func TestServer_SaveExportAndStats(t *testing.T) {
	srv, mgr := newTestServer(t)
	st := create(t, srv, session.CreateRequest{Content: "<p>Saved words here</p>", HTML: true})
	base := "/api/documents/" + st.ID

	resp := call(t, srv, http.MethodPost, base+"/save", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("save: expected 200, got %d", resp.StatusCode)
	}
	var p struct {
		HTML      string `json:"html"`
		WordCount int    `json:"wordCount"`
	}
	decodeBody(t, resp, &p)
	if p.HTML != "<p>Saved words here</p>" || p.WordCount != 3 {
		t.Errorf("unexpected payload %+v", p)
	}

	var stats struct {
		Sessions int                `json:"sessions"`
		Stats    sink.StatsSnapshot `json:"stats"`
	}
	decodeBody(t, call(t, srv, http.MethodGet, "/api/stats/save", nil), &stats)
	if stats.Stats.Count != 1 || stats.Sessions != 1 {
		t.Errorf("expected one measured save, got %+v", stats)
	}

	resp = call(t, srv, http.MethodGet, base+"/export?filename=../My%20Notes.txt", nil)
	if cd := resp.Header.Get("Content-Disposition"); cd != `attachment; filename="My-Notes.html"` {
		t.Errorf("unexpected content disposition %q", cd)
	}
	d, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		t.Fatalf("parse export: %v", err)
	}
	if d.Find("body p").Text() != "Saved words here" || d.Find("title").Text() != "My-Notes" {
		t.Errorf("unexpected export body %q", d.Text())
	}

	// A closed document is reopened from the sink.
	if resp := call(t, srv, http.MethodPost, base+"/close", nil); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("close: expected 204, got %d", resp.StatusCode)
	}
	if mgr.Len() != 0 {
		t.Fatalf("expected no open sessions, got %d", mgr.Len())
	}
	decodeBody(t, call(t, srv, http.MethodGet, base, nil), &st)
	if st.HTML != "<p>Saved words here</p>" {
		t.Errorf("expected the saved document reopened, got %q", st.HTML)
	}

	if resp := call(t, srv, http.MethodDelete, base, nil); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", resp.StatusCode)
	}
	if resp := call(t, srv, http.MethodGet, base, nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func multipartBody(t *testing.T, field string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, data := range files {
		fw, err := mw.CreateFormFile(field, name)
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		fw.Write(data)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func upload(t *testing.T, srv *httptest.Server, path string, body *bytes.Buffer, ct string) *http.Response {
	t.Helper()
	req, _ := http.NewRequest(http.MethodPost, srv.URL+path, body)
	req.Header.Set("Authorization", "Bearer "+testKey)
	req.Header.Set("Content-Type", ct)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestServer_UploadAndImport(t *testing.T) {
	srv, _ := newTestServer(t)
	st := create(t, srv, session.CreateRequest{})
	base := "/api/documents/" + st.ID

	var img bytes.Buffer
	if err := png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	body, ct := multipartBody(t, "files", map[string][]byte{"dot.png": img.Bytes(), "notes.txt": []byte("hello")})
	resp := upload(t, srv, base+"/images", body, ct)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload: expected 200, got %d", resp.StatusCode)
	}
	decodeBody(t, resp, &st)
	if n := strings.Count(st.HTML, "<img"); n != 1 {
		t.Errorf("expected one image inserted, got %d in %q", n, st.HTML)
	}
	if len(st.Notices) != 1 || !strings.Contains(st.Notices[0].Message, "notes.txt") {
		t.Errorf("expected a notice for the rejected file, got %+v", st.Notices)
	}

	body, ct = multipartBody(t, "file", map[string][]byte{"agenda.md": []byte("## Agenda\n\n- one\n- two\n")})
	resp = upload(t, srv, base+"/import", body, ct)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("import: expected 200, got %d", resp.StatusCode)
	}
	decodeBody(t, resp, &st)
	d, _ := goquery.NewDocumentFromReader(strings.NewReader(st.HTML))
	if d.Find("h2").Text() != "Agenda" || d.Find("li").Length() != 2 {
		t.Errorf("unexpected import result %q", st.HTML)
	}

	body, ct = multipartBody(t, "file", map[string][]byte{"payload.exe": []byte("MZ")})
	if resp := upload(t, srv, base+"/import", body, ct); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for an unsupported import, got %d", resp.StatusCode)
	}
}

func TestServer_ColorFlow(t *testing.T) {
	srv, _ := newTestServer(t)
	st := create(t, srv, session.CreateRequest{Content: "<p>Hi</p>", HTML: true})
	base := "/api/documents/" + st.ID
	call(t, srv, http.MethodPost, base+"/selection", selectionRequest{All: true})

	resp := call(t, srv, http.MethodPost, base+"/color/open", colorOpenRequest{})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("open: expected 200, got %d", resp.StatusCode)
	}
	var cs struct {
		Open bool   `json:"open"`
		Hex  string `json:"hex"`
	}
	decodeBody(t, call(t, srv, http.MethodPost, base+"/color/hex", colorHexRequest{Hex: "#00FF00"}), &cs)
	if !cs.Open || cs.Hex != "#00ff00" {
		t.Errorf("unexpected colour state %+v", cs)
	}
	decodeBody(t, call(t, srv, http.MethodPost, base+"/color/apply", nil), &st)
	if st.HTML != `<p><span style="color: #00ff00">Hi</span></p>` {
		t.Errorf("unexpected html %q", st.HTML)
	}
	if st.Color != nil {
		t.Error("expected the dialog closed after apply")
	}
}

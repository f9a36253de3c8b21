package doc

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func TestParseRender_Stable(t *testing.T) {
	cases := []string{
		`<p>Hello <b>world</b></p>`,
		`<h2 style="text-align: center">Title</h2>`,
		`<ul><li>a</li><li>b</li></ul>`,
		`<ol><li>one</li></ol>`,
		`<table style="width: 100%"><tbody><tr><td colspan="2">x</td></tr></tbody></table>`,
		`<p>a<br/>b</p>`,
		`<p><img src="x.png"/></p>`,
		`<blockquote><p>quoted</p></blockquote>`,
		`<p><a href="https://example.com">link</a></p>`,
		`<hr/>`,
	}
	for _, in := range cases {
		got := Render(MustParse(in))
		if got != in {
			t.Errorf("round trip of %q: got %q", in, got)
		}
	}
}

func TestParse_FlattensRowGroups(t *testing.T) {
	in := `<table><thead><tr><th>H</th></tr></thead><tbody><tr><td>x</td></tr></tbody></table>`
	want := `<table><tbody><tr><th>H</th></tr><tr><td>x</td></tr></tbody></table>`
	if got := Render(MustParse(in)); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestParse_DropsWhitespaceBetweenBlocks(t *testing.T) {
	in := "\n<p>a</p>\n  <p>b</p>\n"
	if got := Render(MustParse(in)); got != "<p>a</p><p>b</p>" {
		t.Errorf("expected whitespace between blocks dropped, got %q", got)
	}

	inline := `<b>a</b> <i>b</i>`
	if got := Render(MustParse(inline)); got != inline {
		t.Errorf("expected space between inline elements kept, got %q", got)
	}
}

func TestParse_KeepsNonBreakingSpaceCells(t *testing.T) {
	cases := []string{
		"<table><tbody><tr><td>\u00a0<table><tbody><tr><td>\u00a0</td></tr></tbody></table></td></tr></tbody></table>",
		"<table><tbody><tr><td>\u00a0</td><td>x</td></tr></tbody></table>",
	}
	for _, in := range cases {
		once := Render(MustParse(in))
		if again := Render(MustParse(once)); again != once {
			t.Errorf("expected %q stable, got %q", once, again)
		}
		if !strings.Contains(once, "\u00a0") {
			t.Errorf("expected non-breaking space kept in %q", once)
		}
	}
	// only the first case nests a table after the nbsp
	if got := Render(MustParse(cases[0])); strings.Count(got, "\u00a0") != 2 {
		t.Errorf("expected both non-breaking spaces, got %q", got)
	}
}

func TestRender_VoidElementsDropChildren(t *testing.T) {
	img := NewImage("x.png")
	img.Children = []*Node{NewText("lost")}
	br := NewBreak()
	br.Children = []*Node{NewText("gone")}
	p := NewParagraph(NewText("a"), img, br, NewText("b"))
	root := NewDocument()
	root.AppendChild(p)

	want := `<p>a<img src="x.png"/><br/>b</p>`
	if got := Render(root); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if got := RenderNode(img); got != `<img src="x.png"/>` {
		t.Errorf("expected bare img, got %q", got)
	}
}

func TestParse_NormalizesAdjacentFormatting(t *testing.T) {
	got := Render(MustParse(`<p><b>a</b><b>b</b><i></i></p>`))
	if got != "<p><b>ab</b></p>" {
		t.Errorf("expected merged bold run, got %q", got)
	}
}

func TestParse_CellSpans(t *testing.T) {
	root := MustParse(`<table><tr><td rowspan="2" colspan="3" style="padding: 8px">x</td></tr></table>`)
	cells := root.FindAll(KindCell)
	if len(cells) != 1 {
		t.Fatalf("expected 1 cell, got %d", len(cells))
	}
	if cells[0].RowSpan != 2 || cells[0].ColSpan != 3 {
		t.Errorf("expected spans 2x3, got %dx%d", cells[0].RowSpan, cells[0].ColSpan)
	}
	if _, ok := cells[0].Attr("colspan"); ok {
		t.Error("span attributes should not be kept as plain attributes")
	}

	dom, err := goquery.NewDocumentFromReader(strings.NewReader(Render(root)))
	if err != nil {
		t.Fatalf("goquery: %v", err)
	}
	td := dom.Find("td")
	if td.AttrOr("rowspan", "") != "2" || td.AttrOr("colspan", "") != "3" {
		t.Errorf("expected rendered spans, got rowspan=%q colspan=%q", td.AttrOr("rowspan", ""), td.AttrOr("colspan", ""))
	}
	if td.AttrOr("style", "") != "padding: 8px" {
		t.Errorf("expected style kept, got %q", td.AttrOr("style", ""))
	}
}

func TestStyle_SetGetDel(t *testing.T) {
	s := ParseStyle("Color: red; ; bogus; font-size:12px")
	if s.String() != "color: red; font-size: 12px" {
		t.Fatalf("unexpected parse result %q", s.String())
	}
	s.Set("color", "blue")
	s.Set("text-align", "center")
	s.Del("font-size")
	if got := s.String(); got != "color: blue; text-align: center" {
		t.Errorf("got %q", got)
	}
	s.Set("color", "")
	if s.Get("color") != "" {
		t.Error("expected empty value to remove the property")
	}
}

func TestSanitizePaste(t *testing.T) {
	in := `<p onclick="steal()">Hi <b>there</b><script>alert(1)</script></p>` +
		`<a href="javascript:alert(1)">bad</a><a href="https://ok.test">ok</a>` +
		`<style>p{color:red}</style><table><tr><td colspan="2">c</td></tr></table>`
	out := SanitizePaste(in)
	for _, banned := range []string{"onclick", "<script", "alert(1)", "javascript:", "<style"} {
		if strings.Contains(out, banned) {
			t.Errorf("expected %q removed, got %q", banned, out)
		}
	}
	dom, err := goquery.NewDocumentFromReader(strings.NewReader(out))
	if err != nil {
		t.Fatalf("goquery: %v", err)
	}
	if dom.Find("b").Text() != "there" {
		t.Errorf("expected formatting kept, got %q", out)
	}
	if dom.Find(`a[href="https://ok.test"]`).Length() != 1 {
		t.Errorf("expected safe link kept, got %q", out)
	}
	if dom.Find(`td[colspan="2"]`).Length() != 1 {
		t.Errorf("expected table kept, got %q", out)
	}
}

func TestSanitizeContent_KeepsProviderEmbeds(t *testing.T) {
	ok := `<iframe src="https://www.youtube.com/embed/dQw4w9WgXcQ"></iframe>`
	if !strings.Contains(SanitizeContent(ok), "youtube.com/embed/dQw4w9WgXcQ") {
		t.Errorf("expected provider embed kept, got %q", SanitizeContent(ok))
	}
	bad := `<iframe src="https://evil.test/frame"></iframe>`
	if strings.Contains(SanitizeContent(bad), "evil.test") {
		t.Errorf("expected foreign iframe source removed, got %q", SanitizeContent(bad))
	}
	if strings.Contains(SanitizePaste(ok), "<iframe") {
		t.Error("paste policy should not admit iframes")
	}
}

package doc

import "testing"

func TestPlainText_Separators(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"paragraphs", `<p>Hello</p><p>World</p>`, "Hello\nWorld"},
		{"break", `<p>a<br/>b</p>`, "a\nb"},
		{"image", `<p>a<img src="x.png"/>b</p>`, "ab"},
		{"table", `<table><tr><td>a</td><td>b</td></tr><tr><td>c</td><td>d</td></tr></table>`, "a\tb\nc\td"},
		{"list", `<ul><li>one</li><li>two</li></ul>`, "one\ntwo"},
		{"markup free", `<p><b>bold</b> <i>it</i></p>`, "bold it"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PlainText(MustParse(tt.in)); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestWordCount(t *testing.T) {
	if n := WordCount(MustParse(`<p>one two</p><p>three</p>`)); n != 3 {
		t.Errorf("expected 3 words, got %d", n)
	}
	if n := WordCount(NewDocument()); n != 0 {
		t.Errorf("expected 0 words in empty document, got %d", n)
	}
}

func TestInsertText_EmptyDocument(t *testing.T) {
	root := NewDocument()
	InsertText(root, 0, "hi")
	if got := Render(root); got != "<p>hi</p>" {
		t.Errorf("expected new paragraph, got %q", got)
	}
}

func TestInsertText_ContinuesFormattingBeforeCaret(t *testing.T) {
	root := MustParse(`<p><b>ab</b>cd</p>`)
	InsertText(root, 2, "X")
	if got := Render(root); got != "<p><b>abX</b>cd</p>" {
		t.Errorf("got %q", got)
	}
	InsertText(root, 5, "!")
	if got := Render(root); got != "<p><b>abX</b>cd!</p>" {
		t.Errorf("got %q", got)
	}
}

func TestSplitBlock(t *testing.T) {
	tests := []struct {
		name string
		in   string
		pos  int
		want string
	}{
		{"paragraph", `<p>Hello</p>`, 2, `<p>He</p><p>llo</p>`},
		{"heading end", `<h1>Title</h1>`, 5, `<h1>Title</h1><p></p>`},
		{"heading middle", `<h1>Title</h1>`, 2, `<h1>Ti</h1><h1>tle</h1>`},
		{"formatted", `<p><b>abcd</b></p>`, 2, `<p><b>ab</b></p><p><b>cd</b></p>`},
		{"cell", `<table><tr><td>ab</td></tr></table>`, 1, `<table><tbody><tr><td>a<br/>b</td></tr></tbody></table>`},
		{"pre", `<pre>ab</pre>`, 1, "<pre>a\nb</pre>"},
		{"bare text", `ab`, 1, `<p>a</p><p>b</p>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := MustParse(tt.in)
			SplitBlock(root, tt.pos)
			if got := Render(root); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestDeleteRange(t *testing.T) {
	tests := []struct {
		name       string
		in         string
		start, end int
		want       string
	}{
		{"inside text", `<p>Hello</p>`, 1, 4, `<p>Ho</p>`},
		{"across formatting", `<p>a<b>bc</b>d</p>`, 1, 3, `<p>ad</p>`},
		{"join blocks", `<p>ab</p><p>cd</p>`, 1, 3, `<p>acd</p>`},
		{"backspace at block start", `<p>ab</p><p>cd</p>`, 2, 3, `<p>abcd</p>`},
		{"rule", `<p>a</p><hr/><p>b</p>`, 1, 3, `<p>ab</p>`},
		{"cells keep structure", `<table><tr><td>ab</td><td>cd</td></tr></table>`, 1, 4,
			`<table><tbody><tr><td>a</td><td>d</td></tr></tbody></table>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := MustParse(tt.in)
			DeleteRange(root, tt.start, tt.end)
			if got := Render(root); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestInsertFragment(t *testing.T) {
	tests := []struct {
		name string
		in   string
		pos  int
		frag string
		want string
	}{
		{"inline", `<p>abcd</p>`, 2, `<i>X</i>`, `<p>ab<i>X</i>cd</p>`},
		{"block splits paragraph", `<p>abcd</p>`, 2, `<hr/>`, `<p>ab</p><hr/><p>cd</p>`},
		{"block at end", `<p>ab</p>`, 2, `<p>new</p>`, `<p>ab</p><p>new</p>`},
		{"mixed", `<p>abcd</p>`, 2, `X<p>mid</p>Y`, `<p>abX</p><p>mid</p><p>Ycd</p>`},
		{"into cell", `<table><tr><td>ab</td></tr></table>`, 1, `<p>x</p>`,
			`<table><tbody><tr><td>a<p>x</p>b</td></tr></tbody></table>`},
		{"empty document", ``, 0, `<p>x</p>`, `<p>x</p>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := MustParse(tt.in)
			InsertFragment(root, tt.pos, MustParse(tt.frag))
			if got := Render(root); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

package doc

import "slices"

// formatAliases lists the tags treated as the same inline format.
var formatAliases = map[string][]string{
	"b":      {"b", "strong"},
	"strong": {"b", "strong"},
	"i":      {"i", "em"},
	"em":     {"i", "em"},
	"s":      {"s", "strike", "del"},
	"strike": {"s", "strike", "del"},
	"u":      {"u"},
	"sub":    {"sub"},
	"sup":    {"sup"},
}

// exclusiveFormats cannot be applied together.
var exclusiveFormats = map[string]string{"sub": "sup", "sup": "sub"}

// removableTags are stripped by RemoveFormat.
var removableTags = []string{
	"b", "strong", "i", "em", "u", "s", "strike", "del", "ins", "sub",
	"sup", "span", "font", "mark", "small", "big", "code",
}

func aliases(tag string) []string {
	if a, ok := formatAliases[tag]; ok {
		return a
	}
	return []string{tag}
}

// inlineAncestor returns the nearest inline ancestor of n inside its block
// whose tag is one of tags.
func inlineAncestor(n *Node, tags []string) *Node {
	for p := n.Parent; p != nil && !p.IsBlock(); p = p.Parent {
		if p.Kind == KindInline && slices.Contains(tags, p.Tag) {
			return p
		}
	}
	return nil
}

func linkAncestor(n *Node) *Node {
	for p := n.Parent; p != nil && !p.IsBlock(); p = p.Parent {
		if p.Kind == KindLink {
			return p
		}
	}
	return nil
}

func wrap(n, w *Node) *Node {
	n.ReplaceWith(w)
	w.AppendChild(n)
	return w
}

// HasFormat reports whether every text run in [start, end) carries tag.
func HasFormat(root *Node, start, end int, tag string) bool {
	texts := textsInRange(root, start, end)
	if len(texts) == 0 {
		return false
	}
	for _, t := range texts {
		if inlineAncestor(t, aliases(tag)) == nil {
			return false
		}
	}
	return true
}

// textsInRange returns the text runs overlapping [start, end) without
// splitting anything.
func textsInRange(root *Node, start, end int) []*Node {
	var out []*Node
	for _, s := range NewLayout(root).Spans {
		if s.Node.Kind == KindText && s.End > start && s.Start < end {
			out = append(out, s.Node)
		}
	}
	return out
}

// ToggleInline applies tag to [start, end) when any run lacks it and removes
// it otherwise. It reports whether the tree changed.
func ToggleInline(root *Node, start, end int, tag string) bool {
	texts := TextNodesIn(root, start, end)
	if len(texts) == 0 {
		return false
	}
	tags := aliases(tag)
	apply := false
	for _, t := range texts {
		if inlineAncestor(t, tags) == nil {
			apply = true
			break
		}
	}
	for _, t := range texts {
		if !apply {
			unwrapFormat(t, tags)
			continue
		}
		if other, ok := exclusiveFormats[tag]; ok {
			unwrapFormat(t, aliases(other))
		}
		if inlineAncestor(t, tags) == nil {
			wrap(t, NewInline(tag))
		}
	}
	Normalize(root)
	return true
}

func unwrapFormat(t *Node, tags []string) {
	for a := inlineAncestor(t, tags); a != nil; a = inlineAncestor(t, tags) {
		Isolate(t, a).Unwrap()
	}
}

// SetInlineStyle sets a CSS property on every run in [start, end) through a
// span, reusing the nearest enclosing span when there is one.
func SetInlineStyle(root *Node, start, end int, prop, val string) bool {
	texts := TextNodesIn(root, start, end)
	if len(texts) == 0 {
		return false
	}
	for _, t := range texts {
		span := inlineAncestor(t, []string{"span"})
		if span != nil {
			span = Isolate(t, span)
		} else {
			span = wrap(t, NewInline("span"))
		}
		span.Style.Set(prop, val)
	}
	Normalize(root)
	return true
}

// RemoveFormat strips inline formatting (not links) from [start, end).
func RemoveFormat(root *Node, start, end int) bool {
	texts := TextNodesIn(root, start, end)
	if len(texts) == 0 {
		return false
	}
	for _, t := range texts {
		unwrapFormat(t, removableTags)
	}
	Normalize(root)
	return true
}

// SetLink points every run in [start, end) at href. A collapsed range
// inserts href itself as linked text.
func SetLink(root *Node, start, end int, href string) bool {
	if end <= start {
		InsertInline(root, start, NewLink(href, NewText(href)))
		return true
	}
	texts := TextNodesIn(root, start, end)
	if len(texts) == 0 {
		return false
	}
	for _, t := range texts {
		if a := linkAncestor(t); a != nil {
			Isolate(t, a).SetAttr("href", href)
			continue
		}
		wrap(t, NewLink(href))
	}
	Normalize(root)
	return true
}

// Unlink removes links from [start, end). With a collapsed range the whole
// link around the caret is removed.
func Unlink(root *Node, start, end int) bool {
	changed := false
	if end <= start {
		for _, s := range NewLayout(root).Spans {
			if s.Start <= start && start <= s.End {
				if a := linkAncestor(s.Node); a != nil {
					a.Unwrap()
					changed = true
					break
				}
			}
		}
	} else {
		for _, t := range TextNodesIn(root, start, end) {
			if a := linkAncestor(t); a != nil {
				Isolate(t, a).Unwrap()
				changed = true
			}
		}
	}
	if changed {
		Normalize(root)
	}
	return changed
}

package doc

import "strings"

// Decl is one CSS declaration of an inline style attribute.
type Decl struct {
	Prop  string
	Value string
}

// Style is an ordered list of declarations. Order is preserved so the
// rendered style attribute is stable across round trips.
type Style []Decl

// ParseStyle parses the content of a style attribute. Malformed
// declarations are dropped.
func ParseStyle(s string) Style {
	var out Style
	for _, part := range strings.Split(s, ";") {
		prop, val, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		val = strings.TrimSpace(val)
		if prop == "" || val == "" {
			continue
		}
		out.Set(prop, val)
	}
	return out
}

func (s Style) String() string {
	parts := make([]string, 0, len(s))
	for _, d := range s {
		parts = append(parts, d.Prop+": "+d.Value)
	}
	return strings.Join(parts, "; ")
}

// Get returns the value of prop or "".
func (s Style) Get(prop string) string {
	for _, d := range s {
		if d.Prop == prop {
			return d.Value
		}
	}
	return ""
}

// Set replaces prop in place or appends it. An empty value removes it.
func (s *Style) Set(prop, val string) {
	if val == "" {
		s.Del(prop)
		return
	}
	for i, d := range *s {
		if d.Prop == prop {
			(*s)[i].Value = val
			return
		}
	}
	*s = append(*s, Decl{Prop: prop, Value: val})
}

// Del removes prop.
func (s *Style) Del(prop string) {
	for i, d := range *s {
		if d.Prop == prop {
			*s = append((*s)[:i], (*s)[i+1:]...)
			return
		}
	}
}

func (s Style) Equal(o Style) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

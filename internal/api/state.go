package api

import (
	"github.com/dgallion1/mintaro/internal/editor"
	"github.com/dgallion1/mintaro/internal/session"
)

// documentState is returned by every editing endpoint so a client can redraw
// from a single response.
type documentState struct {
	ID          string             `json:"id"`
	HTML        string             `json:"html"`
	Text        string             `json:"text"`
	Selection   editor.Selection   `json:"selection"`
	Stats       editor.Stats       `json:"stats"`
	Placeholder string             `json:"placeholder,omitempty"`
	History     editor.HistoryInfo `json:"history"`
	Table       editor.TableStatus `json:"table"`
	Color       *editor.ColorState `json:"color,omitempty"`
	Overlays    []editor.Overlay   `json:"overlays"`
	Notices     []editor.Notice    `json:"notices"`
	Options     editor.Options     `json:"options"`
}

func stateOf(s *session.Session) documentState {
	e := s.Editor
	c := e.Content()
	st := documentState{
		ID:        s.ID,
		HTML:      c.HTML,
		Text:      c.Text,
		Selection: e.Selection(),
		Stats:     e.Stats(),
		History:   e.History(),
		Table:     e.TableStatus(),
		Overlays:  e.Overlays(),
		Notices:   s.TakeNotices(),
		Options:   e.Options(),
	}
	if e.PlaceholderVisible() {
		st.Placeholder = st.Options.Placeholder
	}
	if cs := e.ColorState(); cs.Open {
		st.Color = &cs
	}
	if st.Notices == nil {
		st.Notices = []editor.Notice{}
	}
	return st
}

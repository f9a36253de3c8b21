package editor

import "sort"

// Point is a position in viewport pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is an extent in pixels.
type Size struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Rect is a bounding box in viewport pixels.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ToolbarGap separates the floating table toolbar from the table.
const ToolbarGap = 8

// PlaceToolbar positions a toolbar of size tb above the table box, or below
// it when there is no room above. The x offset follows the table and is
// kept inside the viewport.
func PlaceToolbar(table Rect, tb Size, viewport Size) Point {
	y := table.Y - tb.Height - ToolbarGap
	if y < 0 {
		y = table.Y + table.Height + ToolbarGap
	}
	return Point{X: clampAxis(table.X, tb.Width, viewport.Width), Y: y}
}

// PlaceMenu positions a menu of size m at the cursor, shifted so it stays
// inside the viewport.
func PlaceMenu(at Point, m Size, viewport Size) Point {
	return Point{
		X: clampAxis(at.X, m.Width, viewport.Width),
		Y: clampAxis(at.Y, m.Height, viewport.Height),
	}
}

func clampAxis(v, extent, limit float64) float64 {
	if limit > 0 && v+extent > limit {
		v = limit - extent
	}
	if v < 0 {
		v = 0
	}
	return v
}

// Overlay kinds owned by an editor instance.
const (
	overlayTableToolbar = "table-toolbar"
	overlayTableMenu    = "table-menu"
	overlayColorPicker  = "color-picker"
	overlayImageResize  = "image-resize"
)

// Overlay is one floating UI element of an editor instance.
type Overlay struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	Visible bool   `json:"visible"`
	At      Point  `json:"at"`
}

// overlayRegistry holds the overlays of a single instance, so two editors
// on one page never share a toolbar or menu.
type overlayRegistry struct {
	prefix string
	items  map[string]*Overlay
}

func newOverlayRegistry(prefix string) *overlayRegistry {
	r := &overlayRegistry{prefix: prefix, items: map[string]*Overlay{}}
	for _, k := range []string{overlayTableToolbar, overlayTableMenu, overlayColorPicker, overlayImageResize} {
		r.items[k] = &Overlay{ID: prefix + "-" + k, Kind: k}
	}
	return r
}

func (r *overlayRegistry) show(kind string, at Point) {
	if o, ok := r.items[kind]; ok {
		o.Visible = true
		o.At = at
	}
}

func (r *overlayRegistry) hide(kind string) {
	if o, ok := r.items[kind]; ok {
		o.Visible = false
		o.At = Point{}
	}
}

func (r *overlayRegistry) visible(kind string) bool {
	o, ok := r.items[kind]
	return ok && o.Visible
}

func (r *overlayRegistry) closeAll() {
	for k := range r.items {
		r.hide(k)
	}
}

func (r *overlayRegistry) list() []Overlay {
	out := make([]Overlay, 0, len(r.items))
	for _, o := range r.items {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Overlays returns the overlays of this instance and their state.
func (e *Editor) Overlays() []Overlay {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.overlays.list()
}

// Package colorpick models the editor's HSB colour wheel dialog.
package colorpick

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"

	"github.com/lucasb-eyer/go-colorful"
)

var (
	ErrInvalidHex            = errors.New("invalid hex colour")
	ErrEyedropperUnavailable = errors.New("eyedropper not available")
	// ErrPickCanceled is returned by an Eyedropper when the user dismisses
	// it. The picker treats it as a silent no-op.
	ErrPickCanceled = errors.New("eyedropper canceled")
)

var hexPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// HSB is a colour as hue (degrees, [0, 360)), saturation and brightness
// (percent, [0, 100]).
type HSB struct {
	H float64 `json:"h"`
	S float64 `json:"s"`
	B float64 `json:"b"`
}

// Hex converts the colour to #rrggbb.
func (c HSB) Hex() string {
	return colorful.Hsv(c.H, c.S/100, c.B/100).Clamped().Hex()
}

// ParseHex accepts exactly #RRGGBB.
func ParseHex(s string) (HSB, error) {
	if !hexPattern.MatchString(s) {
		return HSB{}, fmt.Errorf("%w: %q", ErrInvalidHex, s)
	}
	col, err := colorful.Hex(s)
	if err != nil {
		return HSB{}, fmt.Errorf("%w: %v", ErrInvalidHex, err)
	}
	h, sat, v := col.Hsv()
	return HSB{H: normHue(h), S: sat * 100, B: v * 100}, nil
}

func normHue(h float64) float64 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return h
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Wheel is the geometry of the hue/saturation disc.
type Wheel struct {
	CX     float64 `json:"cx"`
	CY     float64 `json:"cy"`
	Radius float64 `json:"radius"`
}

// DefaultWheel is a 200px disc.
var DefaultWheel = Wheel{CX: 100, CY: 100, Radius: 100}

// At maps a click to hue (angle from the positive x axis) and saturation
// (distance from the centre, clamped to the rim).
func (w Wheel) At(x, y float64) (hue, sat float64) {
	dx, dy := x-w.CX, y-w.CY
	hue = normHue(math.Atan2(dy, dx) * 180 / math.Pi)
	if w.Radius <= 0 {
		return hue, 0
	}
	sat = clamp(math.Hypot(dx, dy)/w.Radius, 0, 1) * 100
	return hue, sat
}

// Point is the inverse of At: where the marker for hue and sat sits.
func (w Wheel) Point(hue, sat float64) (x, y float64) {
	rad := hue * math.Pi / 180
	r := clamp(sat, 0, 100) / 100 * w.Radius
	return w.CX + math.Cos(rad)*r, w.CY + math.Sin(rad)*r
}

// Eyedropper samples a colour from the screen and returns it as #rrggbb.
type Eyedropper interface {
	Pick(ctx context.Context) (string, error)
}

// Target is the colour command a picker applies to.
type Target string

const (
	Foreground Target = "foreColor"
	Background Target = "backColor"
)

// Picker is the transient dialog state. The zero value is closed.
type Picker struct {
	wheel  Wheel
	eye    Eyedropper
	open   bool
	target Target
	state  HSB
}

// NewPicker returns a closed picker. eye may be nil.
func NewPicker(w Wheel, eye Eyedropper) *Picker {
	if w.Radius <= 0 {
		w = DefaultWheel
	}
	return &Picker{wheel: w, eye: eye}
}

// Open shows the dialog for target, starting from initial when it is a valid
// hex colour and from black otherwise.
func (p *Picker) Open(target Target, initial string) {
	p.open = true
	p.target = target
	p.state = HSB{}
	if c, err := ParseHex(initial); err == nil {
		p.state = c
	}
}

func (p *Picker) IsOpen() bool { return p.open }

func (p *Picker) Target() Target { return p.target }

func (p *Picker) State() HSB { return p.state }

// Hex is the value shown in the hex field.
func (p *Picker) Hex() string { return p.state.Hex() }

func (p *Picker) Wheel() Wheel { return p.wheel }

// Click picks hue and saturation from the wheel; brightness is kept.
func (p *Picker) Click(x, y float64) {
	p.state.H, p.state.S = p.wheel.At(x, y)
}

// SetBrightness moves the brightness slider.
func (p *Picker) SetBrightness(b float64) {
	p.state.B = clamp(b, 0, 100)
}

// SetHex accepts a typed hex value. Invalid input leaves the state alone.
func (p *Picker) SetHex(s string) error {
	c, err := ParseHex(s)
	if err != nil {
		return err
	}
	p.state = c
	return nil
}

func (p *Picker) EyedropperAvailable() bool { return p.eye != nil }

// UseEyedropper samples a colour into the picker. A dismissed eyedropper or
// a cancelled context changes nothing and is not an error.
func (p *Picker) UseEyedropper(ctx context.Context) error {
	if p.eye == nil {
		return ErrEyedropperUnavailable
	}
	hex, err := p.eye.Pick(ctx)
	switch {
	case errors.Is(err, ErrPickCanceled), errors.Is(err, context.Canceled):
		return nil
	case err != nil:
		return fmt.Errorf("eyedropper: %w", err)
	}
	return p.SetHex(hex)
}

// Apply closes the dialog and returns the command and value to execute.
func (p *Picker) Apply() (Target, string, bool) {
	if !p.open {
		return "", "", false
	}
	p.open = false
	return p.target, p.Hex(), true
}

// Cancel closes the dialog and discards the state.
func (p *Picker) Cancel() {
	p.open = false
	p.state = HSB{}
}

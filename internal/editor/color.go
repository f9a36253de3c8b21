package editor

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgallion1/mintaro/internal/colorpick"
	"github.com/dgallion1/mintaro/internal/doc"
)

// ColorState is the colour dialog as the host renders it.
type ColorState struct {
	Open       bool             `json:"open"`
	Target     colorpick.Target `json:"target,omitempty"`
	Hue        float64          `json:"hue"`
	Saturation float64          `json:"saturation"`
	Brightness float64          `json:"brightness"`
	Hex        string           `json:"hex"`
	Eyedropper bool             `json:"eyedropper"`
}

func (e *Editor) colorStateLocked() ColorState {
	p := e.picker
	st := p.State()
	return ColorState{
		Open:       p.IsOpen(),
		Target:     p.Target(),
		Hue:        st.H,
		Saturation: st.S,
		Brightness: st.B,
		Hex:        p.Hex(),
		Eyedropper: p.EyedropperAvailable(),
	}
}

// ColorState returns the colour dialog state.
func (e *Editor) ColorState() ColorState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.colorStateLocked()
}

// OpenColorPicker opens the dialog for the text or background colour,
// starting from the colour at the selection.
func (e *Editor) OpenColorPicker(target colorpick.Target) (ColorState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ColorState{}, ErrClosed
	}
	prop := "color"
	switch target {
	case colorpick.Foreground:
	case colorpick.Background:
		prop = "background-color"
	default:
		return ColorState{}, fmt.Errorf("%w: color target %q", ErrInvalidValue, target)
	}
	e.picker.Open(target, e.styleAtLocked(prop))
	e.overlays.show(overlayColorPicker, Point{})
	return e.colorStateLocked(), nil
}

// styleAtLocked returns the inherited inline style prop at the selection
// start, or "".
func (e *Editor) styleAtLocked(prop string) string {
	for _, s := range doc.NewLayout(e.root).Spans {
		if s.Node.Kind != doc.KindText || s.End <= e.sel.Start {
			continue
		}
		for n := s.Node.Parent; n != nil; n = n.Parent {
			if v := n.Style.Get(prop); v != "" {
				return v
			}
		}
		break
	}
	return ""
}

func (e *Editor) pickerOpenLocked() error {
	if e.closed {
		return ErrClosed
	}
	if !e.picker.IsOpen() {
		return ErrPickerClosed
	}
	return nil
}

// PickColorAt handles a click on the wheel at (x, y) in wheel pixels.
func (e *Editor) PickColorAt(x, y float64) (ColorState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.pickerOpenLocked(); err != nil {
		return ColorState{}, err
	}
	e.picker.Click(x, y)
	return e.colorStateLocked(), nil
}

// SetColorBrightness moves the brightness slider.
func (e *Editor) SetColorBrightness(b float64) (ColorState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.pickerOpenLocked(); err != nil {
		return ColorState{}, err
	}
	e.picker.SetBrightness(b)
	return e.colorStateLocked(), nil
}

// SetColorHex accepts a #RRGGBB value typed into the hex field. Anything
// else leaves the dialog unchanged and returns ErrInvalidHex.
func (e *Editor) SetColorHex(s string) (ColorState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.pickerOpenLocked(); err != nil {
		return ColorState{}, err
	}
	if err := e.picker.SetHex(s); err != nil {
		e.noticeLocked(err)
		return e.colorStateLocked(), err
	}
	return e.colorStateLocked(), nil
}

// UseEyedropper samples a colour from the screen. The pick runs without the
// editor lock; a canceled pick is a silent no-op.
func (e *Editor) UseEyedropper(ctx context.Context) (ColorState, error) {
	e.mu.Lock()
	if err := e.pickerOpenLocked(); err != nil {
		e.mu.Unlock()
		return ColorState{}, err
	}
	eye := e.opts.Eyedropper
	e.mu.Unlock()

	if eye == nil {
		return e.ColorState(), colorpick.ErrEyedropperUnavailable
	}
	hex, err := eye.Pick(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	if errors.Is(err, colorpick.ErrPickCanceled) || errors.Is(err, context.Canceled) {
		return e.colorStateLocked(), nil
	}
	if err != nil {
		return e.colorStateLocked(), fmt.Errorf("eyedropper: %w", err)
	}
	if !e.picker.IsOpen() {
		return e.colorStateLocked(), nil
	}
	if err := e.picker.SetHex(hex); err != nil {
		return e.colorStateLocked(), err
	}
	return e.colorStateLocked(), nil
}

// ApplyColor commits the dialog colour through foreColor or backColor and
// closes the dialog.
func (e *Editor) ApplyColor() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.pickerOpenLocked(); err != nil {
		return err
	}
	target, hex, _ := e.picker.Apply()
	e.overlays.hide(overlayColorPicker)
	name := string(target)
	return e.execLocked(name, commands[name], hex)
}

// CancelColor closes the dialog and discards its state.
func (e *Editor) CancelColor() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.picker.Cancel()
	e.overlays.hide(overlayColorPicker)
}

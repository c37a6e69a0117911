// Package pixel is chippy's rendering and input shell: it owns the window, the
// hex-keypad to host-keyboard mapping, and turning a chip8 framebuffer into pixels.
// None of this package knows anything about opcodes; it only consumes the 2048-cell
// framebuffer and produces a 16-entry key snapshot.
package pixel

import (
	"fmt"
	"time"

	"github.com/faiface/pixel"
	"github.com/faiface/pixel/imdraw"
	"github.com/faiface/pixel/pixelgl"
	"golang.org/x/image/colornames"
)

// Drawing is done in XOR mode by the interpreter core; if a pixel is turned off as a
// result, the core sets VF for collision detection. This package only renders the
// result, it never touches VF or gfx itself.

const (
	displayWidth  = 64
	displayHeight = 32
	displaySize   = displayWidth * displayHeight

	// defaultScale is how many host pixels wide each CHIP-8 pixel is drawn as,
	// giving the spec's typical 640x320 default window at scale 10.
	defaultScale float64 = 10

	keyRepeatDur = time.Second / 5
)

// KeyMap maps a logical CHIP-8 key (0x0-0xF) to the default host keyboard button,
// laid out so the left-hand 4x4 grid starting at the number row lines up with the keypad:
//
//	1 2 3 C        1 2 3 4
//	4 5 6 D   =>   Q W E R
//	7 8 9 E        A S D F
//	A 0 B F        Z X C V
var KeyMap = map[uint16]pixelgl.Button{
	0x1: pixelgl.Key1, 0x2: pixelgl.Key2,
	0x3: pixelgl.Key3, 0xC: pixelgl.Key4,
	0x4: pixelgl.KeyQ, 0x5: pixelgl.KeyW,
	0x6: pixelgl.KeyE, 0xD: pixelgl.KeyR,
	0x7: pixelgl.KeyA, 0x8: pixelgl.KeyS,
	0x9: pixelgl.KeyD, 0xE: pixelgl.KeyF,
	0xA: pixelgl.KeyZ, 0x0: pixelgl.KeyX,
	0xB: pixelgl.KeyC, 0xF: pixelgl.KeyV,
}

// Window embeds a pixelgl window, holds the hex -> pixelgl.Button keymap, and an
// array of repeat tickers so a held key keeps re-asserting itself between polls.
type Window struct {
	*pixelgl.Window
	KeyMap   map[uint16]pixelgl.Button
	KeysDown [16]*time.Ticker
	scale    float64
}

// NewWindow creates and shows a pixelgl window sized scale pixels per CHIP-8 pixel.
// A scale of 0 falls back to defaultScale.
func NewWindow(scale float64) (*Window, error) {
	if scale <= 0 {
		scale = defaultScale
	}
	width, height := displayWidth*scale, displayHeight*scale

	cfg := pixelgl.WindowConfig{
		Title:  "chippy",
		Bounds: pixel.R(0, 0, width, height),
		VSync:  true,
	}
	w, err := pixelgl.NewWindow(cfg)
	if err != nil {
		return nil, fmt.Errorf("pixel: creating window: %w", err)
	}
	return &Window{
		Window:   w,
		KeyMap:   KeyMap,
		KeysDown: [16]*time.Ticker{},
		scale:    scale,
	}, nil
}

// DrawGraphics blits a 64x32 monochrome framebuffer (row-major, index = y*64+x, 0 or
// 1) to the window, flipping y since CHIP-8's row 0 is the top of the screen but
// pixel's coordinate origin is bottom-left.
func (w *Window) DrawGraphics(gfx [displaySize]byte) {
	w.Clear(colornames.Black)
	imDraw := imdraw.New(nil)
	imDraw.Color = pixel.RGB(1, 1, 1)

	for x := 0; x < displayWidth; x++ {
		for y := 0; y < displayHeight; y++ {
			if gfx[(displayHeight-1-y)*displayWidth+x] == 1 {
				imDraw.Push(pixel.V(w.scale*float64(x), w.scale*float64(y)))
				imDraw.Push(pixel.V(w.scale*float64(x)+w.scale, w.scale*float64(y)+w.scale))
				imDraw.Rectangle(0)
			}
		}
	}

	imDraw.Draw(w)
	w.Update()
}

// ReadKeys polls the window's input state and returns a snapshot of all 16 CHIP-8
// keys, applying key-repeat so a key held across polls stays asserted. The host
// passes this straight to chip8.VM.SetKeys at each tick boundary.
func (w *Window) ReadKeys() [16]byte {
	var keys [16]byte

	for i, btn := range w.KeyMap {
		switch {
		case w.JustReleased(btn):
			if w.KeysDown[i] != nil {
				w.KeysDown[i].Stop()
				w.KeysDown[i] = nil
			}
		case w.JustPressed(btn):
			if w.KeysDown[i] == nil {
				w.KeysDown[i] = time.NewTicker(keyRepeatDur)
			}
			keys[i] = 1
		}

		if w.KeysDown[i] == nil {
			continue
		}

		select {
		case <-w.KeysDown[i].C:
			keys[i] = 1
		default:
			if w.Pressed(btn) {
				keys[i] = 1
			}
		}
	}

	return keys
}

// Package host is chippy's tick-loop shell: it drives the chip8.VM at a fixed 60Hz
// frame cadence, pushes keypad state in from the window, pulls the framebuffer out
// when it changes, and forwards sound-timer events to the audio shell. The VM itself
// never touches a window, a speaker, or a signal channel; host is where those wires
// meet.
package host

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/chippy-emu/chippy/internal/audio"
	"github.com/chippy-emu/chippy/internal/chip8"
	"github.com/chippy-emu/chippy/internal/pixel"
)

// refreshRate is the host's frame cadence; the VM's own cycle rate is configured
// separately via chip8.WithCyclesPerFrame and run that many times per frame.
const refreshRate = 60

// Run drives vm until the window is closed, an interrupt signal arrives, or
// EmulateCycle returns a fatal error (PcOutOfBounds, StackOverflow, StackUnderflow,
// UnknownOpcode, MemoryAccessOutOfBounds). beeper may be nil to run muted.
func Run(vm *chip8.VM, win *pixel.Window, beeper *audio.Beeper) error {
	if beeper != nil {
		go beeper.Manage(vm.Beeps())
	}

	sigC := make(chan os.Signal, 1)
	signal.Notify(sigC, os.Interrupt)
	defer signal.Stop(sigC)

	ticker := time.NewTicker(time.Second / refreshRate)
	defer ticker.Stop()

	for {
		select {
		case <-sigC:
			fmt.Println("exit signal detected, gracefully shutting down...")
			return nil
		case <-ticker.C:
			if win.Closed() {
				return nil
			}

			for i := 0; i < vm.CyclesPerFrame(); i++ {
				if err := vm.EmulateCycle(); err != nil {
					return fmt.Errorf("chippy: %w\n%s", err, vm.Snapshot())
				}
			}

			if vm.DrawFlag() {
				win.DrawGraphics(vm.Framebuffer())
				vm.ClearDrawFlag()
			} else {
				win.UpdateInput()
			}
			vm.SetKeys(win.ReadKeys())
		}
	}
}

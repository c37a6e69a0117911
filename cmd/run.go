package cmd

import (
	"fmt"
	"os"

	"github.com/chippy-emu/chippy/internal/audio"
	"github.com/chippy-emu/chippy/internal/chip8"
	"github.com/chippy-emu/chippy/internal/host"
	"github.com/chippy-emu/chippy/internal/pixel"
	"github.com/spf13/cobra"
)

var (
	cyclesPerFrame  int
	windowScale     float64
	rngSeed         int64
	mute            bool
	shiftInPlace    bool
	memoryIncrement bool
	jumpAddsVx      bool
)

// runCmd runs the chippy virtual machine against a ROM and waits for the window to
// close, a signal, or a fatal interpreter error.
var runCmd = &cobra.Command{
	Use:   "run `path/to/rom`",
	Short: "run the chippy emulator",
	Args:  cobra.ExactArgs(1),
	RunE:  runChippy,
}

func init() {
	runCmd.Flags().IntVar(&cyclesPerFrame, "cycles-per-frame", chip8.DefaultCyclesPerFrame, "interpreter cycles to run per 60Hz frame")
	runCmd.Flags().Float64Var(&windowScale, "scale", 0, "host pixels per CHIP-8 pixel (0 = default)")
	runCmd.Flags().Int64Var(&rngSeed, "seed", 0, "seed for CXNN's random source (0 = non-deterministic)")
	runCmd.Flags().BoolVar(&mute, "mute", false, "disable the sound timer's audio tone")
	runCmd.Flags().BoolVar(&shiftInPlace, "quirk-shift-in-place", true, "8XY6/8XYE shift Vx in place rather than shifting Vy into Vx")
	runCmd.Flags().BoolVar(&memoryIncrement, "quirk-memory-increment", false, "FX55/FX65 leave I at I+x+1 instead of unchanged")
	runCmd.Flags().BoolVar(&jumpAddsVx, "quirk-jump-adds-vx", false, "BNNN jumps to NNN+Vx instead of NNN+V0")
}

func runChippy(cmd *cobra.Command, args []string) error {
	pathToROM := args[0]

	opts := []chip8.Option{
		chip8.WithCyclesPerFrame(cyclesPerFrame),
		chip8.WithQuirks(chip8.Quirks{
			ShiftInPlace:      shiftInPlace,
			MemoryNoIncrement: !memoryIncrement,
			JumpAddsVx:        jumpAddsVx,
		}),
	}
	if rngSeed != 0 {
		opts = append(opts, chip8.WithSeed(rngSeed))
	}

	vm, err := chip8.NewVM(pathToROM, opts...)
	if err != nil {
		return fmt.Errorf("error creating a new chip-8 VM: %w", err)
	}

	win, err := pixel.NewWindow(windowScale)
	if err != nil {
		return fmt.Errorf("error creating window: %w", err)
	}

	var beeper *audio.Beeper
	if !mute {
		beeper, err = audio.New()
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: audio disabled: %v\n", err)
			beeper = nil
		}
	}

	return host.Run(vm, win, beeper)
}

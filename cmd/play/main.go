// Command play is chippy's bare entry point: `play path/to/rom`, default quirks,
// default cycle rate, audio on. For flags (cycles-per-frame, quirks, seed, mute,
// scale), use the `chippy run` subcommand built from cmd/ instead.
package main

import (
	"fmt"
	"os"

	"github.com/chippy-emu/chippy/internal/audio"
	"github.com/chippy-emu/chippy/internal/chip8"
	"github.com/chippy-emu/chippy/internal/host"
	"github.com/chippy-emu/chippy/internal/pixel"
	"github.com/faiface/pixel/pixelgl"
)

func main() {
	// pixelgl needs access to the main thread, so everything else runs inside this
	// callback.
	pixelgl.Run(runMain)
}

func runMain() {
	if len(os.Args) != 2 {
		fmt.Println("incorrect usage. Usage: `play path/to/rom`")
		os.Exit(1)
	}
	pathToROM := os.Args[1]

	vm, err := chip8.NewVM(pathToROM)
	if err != nil {
		fmt.Printf("\nerror creating a new chip-8 VM: %v\n", err)
		os.Exit(1)
	}

	win, err := pixel.NewWindow(0)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	beeper, err := audio.New()
	if err != nil {
		fmt.Printf("warning: audio disabled: %v\n", err)
		beeper = nil
	}

	if err := host.Run(vm, win, beeper); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

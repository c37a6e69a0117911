// Package chip8 is a Chip-8 interpreter written in Go. Chip-8 used to be implemented on
// 4k systems like the Telmac 1800 and Cosmac VIP, where the interpreter itself occupied
// the first 512 bytes of memory (up to 0x200). In modern implementations, where the
// interpreter runs natively outside the 4K memory space, there's no need to avoid the
// lower 512 bytes (0x000-0x200), and it's common to store font data there instead.
//
// The VM in this package is a pure state machine: it owns no window, no audio device,
// and no filesystem handle. A host drives it by calling EmulateCycle in a loop, reading
// DrawFlag/Framebuffer after each batch of calls, and pushing key state in with SetKeys.
package chip8

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"time"
)

//		System memory map
// 		+---------------+= 0xFFF (4095) End Chip-8 RAM
// 		|               |
// 		| 0x200 to 0xFFF|
// 		|     Chip-8    |
// 		| Program / Data|
// 		|     Space     |
// 		|               |
// 		+---------------+= 0x200 (512) Start of most Chip-8 programs
// 		| 0x000 to 0x1FF|
// 		| Reserved for  |
// 		|  interpreter  |
// 		+---------------+= 0x000 (0) Begin Chip-8 RAM. We store font data here since we
//		                   don't have the original hardware's reservation constraint.

const (
	memorySize    = 4096
	startAddress  = 0x200
	maxRomSize    = memorySize - startAddress
	displayWidth  = 64
	displayHeight = 32
	displaySize   = displayWidth * displayHeight
	stackSize     = 16
	numRegisters  = 16
	numKeys       = 16

	// DefaultCyclesPerFrame is how many EmulateCycle calls a host should make per
	// 60Hz frame to land in the ~500-1000Hz range spec'd for the fetch/decode/execute loop.
	DefaultCyclesPerFrame = 10
)

// Sentinel errors returned by EmulateCycle and LoadROM. A ROM bug or a bug in the
// interpreter itself surfaces as one of the EmulateCycle errors below; the core never
// silently no-ops an unrecognized instruction.
var (
	ErrRomTooLarge             = errors.New("chip8: rom exceeds available memory")
	ErrUnknownOpcode           = errors.New("chip8: unknown opcode")
	ErrStackOverflow           = errors.New("chip8: stack overflow")
	ErrStackUnderflow          = errors.New("chip8: stack underflow")
	ErrPcOutOfBounds           = errors.New("chip8: program counter out of bounds")
	ErrMemoryAccessOutOfBounds = errors.New("chip8: memory access out of bounds")
)

// Quirks selects among behaviors that differ across CHIP-8 implementations and were
// never pinned down by a single spec. Rather than guess, these are exposed as flags.
type Quirks struct {
	// ShiftInPlace makes 8XY6/8XYE shift Vx in place. When false, the classic
	// behavior of shifting Vy into Vx is used instead.
	ShiftInPlace bool

	// MemoryNoIncrement leaves I unchanged after FX55/FX65. When false, I is left
	// at I+x+1, the classic behavior.
	MemoryNoIncrement bool

	// JumpAddsVx makes BNNN jump to NNN+Vx instead of NNN+V0.
	JumpAddsVx bool
}

// DefaultQuirks returns the behavior set matching the most common modern CHIP-8
// implementations: in-place shifts, I left untouched by FX55/FX65, and BNNN using V0.
func DefaultQuirks() Quirks {
	return Quirks{
		ShiftInPlace:      true,
		MemoryNoIncrement: true,
		JumpAddsVx:        false,
	}
}

// Option configures a VM at construction time.
type Option func(*VM)

// WithQuirks overrides the default quirk selection.
func WithQuirks(q Quirks) Option {
	return func(vm *VM) { vm.quirks = q }
}

// WithSeed makes the CXNN random stream deterministic, for reproducible tests.
func WithSeed(seed int64) Option {
	return func(vm *VM) { vm.rng = rand.New(rand.NewSource(seed)) }
}

// WithCyclesPerFrame overrides DefaultCyclesPerFrame.
func WithCyclesPerFrame(n int) Option {
	return func(vm *VM) { vm.cyclesPerFrame = n }
}

// VM represents the chip-8 virtual machine's state.
type VM struct {
	// Chip-8 system memory, see memory map above.
	memory [memorySize]byte

	// 8-bit general purpose registers, V0 - VF. VF doubles as the flag register.
	v [numRegisters]byte

	// Index register (0x000 to 0xFFF).
	i uint16

	// Program counter (0x000 to 0xFFF).
	pc uint16

	// Internal stack storing return addresses for subroutine calls.
	stack [stackSize]uint16

	// Stack pointer: stack[0:sp] is the live call chain.
	sp uint16

	// Represents window pixels, row-major, index = y*64+x. Flipped by DXYN via XOR.
	gfx [displaySize]byte

	// 8-bit delay timer which counts down by one per EmulateCycle until it reaches 0.
	delayTimer byte

	// 8-bit sound timer, same cadence as delayTimer. A 1->0 transition emits a beep.
	soundTimer byte

	// Keypad is HEX based: 0x0-0xF.
	//  1  2  3  C
	//  4  5  6  D
	//  7  8  9  E
	//  A  0  B  F
	keypad [numKeys]byte

	// Opcode under examination this cycle.
	opcode uint16

	// Chippy doesn't draw on every cycle; this is set whenever gfx changes.
	drawFlag bool

	quirks         Quirks
	rng            *rand.Rand
	cyclesPerFrame int

	// beepC carries one event per 1->0 sound timer transition. Buffered so a host
	// that isn't listening this tick doesn't block the core.
	beepC chan struct{}
}

// NewVM constructs a VM with the fontset installed and, if pathToROM is non-empty,
// a ROM loaded at 0x200. Pass an empty path to build a bare VM for tests, then call
// LoadROM directly.
func NewVM(pathToROM string, opts ...Option) (*VM, error) {
	vm := &VM{
		pc:             startAddress,
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
		quirks:         DefaultQuirks(),
		cyclesPerFrame: DefaultCyclesPerFrame,
		beepC:          make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(vm)
	}
	vm.loadFontSet()

	if pathToROM != "" {
		rom, err := os.ReadFile(pathToROM)
		if err != nil {
			return nil, fmt.Errorf("chip8: reading rom: %w", err)
		}
		if err := vm.LoadROM(rom); err != nil {
			return nil, err
		}
	}
	return vm, nil
}

// loadFontSet copies the fontset into the first 80 bytes of memory.
func (vm *VM) loadFontSet() {
	copy(vm.memory[:len(FontSet)], FontSet[:])
}

// LoadROM copies rom into memory starting at 0x200. It does not reset other state;
// callers should construct a fresh VM first. Fails with ErrRomTooLarge when rom would
// overrun memory.
func (vm *VM) LoadROM(rom []byte) error {
	if len(rom) > maxRomSize {
		return fmt.Errorf("%w: got %d bytes, max %d", ErrRomTooLarge, len(rom), maxRomSize)
	}
	copy(vm.memory[startAddress:], rom)
	return nil
}

// CyclesPerFrame reports how many times a host should call EmulateCycle per 60Hz frame.
func (vm *VM) CyclesPerFrame() int {
	return vm.cyclesPerFrame
}

// EmulateCycle runs a full fetch, decode, execute cycle and then ticks the timers.
// One opcode is 2 bytes long (e.g. 0xA2F0) so we fetch two successive bytes and merge
// them: shift the first byte left 8, then OR in the second.
//
// pc advances by 2 before execute runs, so jump/call/return/skip opcodes that overwrite
// pc produce the correct absolute target.
//
// drawFlag is only ever set here, never cleared: a host runs a batch of cycles per
// frame and reads DrawFlag once after the whole batch, so a draw on an early cycle of
// the batch must survive later cycles in the same batch. Call ClearDrawFlag after
// rendering.
func (vm *VM) EmulateCycle() error {
	if vm.pc > 0xFFE {
		return ErrPcOutOfBounds
	}

	vm.opcode = uint16(vm.memory[vm.pc])<<8 | uint16(vm.memory[vm.pc+1])
	vm.pc += 2

	if err := vm.execute(); err != nil {
		return err
	}

	vm.tickTimers()
	return nil
}

// tickTimers decrements delayTimer and soundTimer by one while they are non-zero, and
// signals a beep the instant soundTimer transitions from 1 to 0. EmulateCycle calls it
// once per cycle, so the timers run at the cycle rate, not at a fixed 60Hz.
func (vm *VM) tickTimers() {
	if vm.delayTimer > 0 {
		vm.delayTimer--
	}
	if vm.soundTimer > 0 {
		if vm.soundTimer == 1 {
			select {
			case vm.beepC <- struct{}{}:
			default:
			}
		}
		vm.soundTimer--
	}
}

// DrawFlag reports whether any EmulateCycle call since the last ClearDrawFlag altered
// the framebuffer. A host batching several cycles per frame should check this once per
// frame, after the batch, and call ClearDrawFlag once it has rendered.
func (vm *VM) DrawFlag() bool {
	return vm.drawFlag
}

// ClearDrawFlag resets the draw flag. A host calls this after it has rendered the
// current framebuffer, so the next batch of cycles starts from a clean slate.
func (vm *VM) ClearDrawFlag() {
	vm.drawFlag = false
}

// Framebuffer returns the 64x32 monochrome framebuffer, row-major, index = y*64+x.
func (vm *VM) Framebuffer() [displaySize]byte {
	return vm.gfx
}

// SetKeys overwrites the entire 16-key keypad state from a host snapshot taken at a
// tick boundary. Each entry is 0 (up) or 1 (down).
func (vm *VM) SetKeys(keys [numKeys]byte) {
	vm.keypad = keys
}

// SetKey sets a single key's state.
func (vm *VM) SetKey(key byte, down bool) {
	if key >= numKeys {
		return
	}
	if down {
		vm.keypad[key] = 1
	} else {
		vm.keypad[key] = 0
	}
}

// Beeps returns the channel a host's audio manager should drain to know when to sound
// a tone. It never carries VM state, only events, so the audio goroutine never needs
// to touch the VM.
func (vm *VM) Beeps() <-chan struct{} {
	return vm.beepC
}

// Snapshot is a read-only copy of VM state useful for a host's diagnostic overlay when
// EmulateCycle returns a fatal error.
type Snapshot struct {
	Opcode uint16
	PC     uint16
	SP     uint16
	I      uint16
	V      [numRegisters]byte
}

// Snapshot captures the current machine state for diagnostics.
func (vm *VM) Snapshot() Snapshot {
	return Snapshot{
		Opcode: vm.opcode,
		PC:     vm.pc,
		SP:     vm.sp,
		I:      vm.i,
		V:      vm.v,
	}
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"opcode: %#04x pc: %#04x sp: %d i: %#04x v: %02x",
		s.Opcode, s.PC, s.SP, s.I, s.V,
	)
}

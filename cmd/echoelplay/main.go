// Command echoelplay plays the biofeedback synth engine through the
// system audio device. The default mode maps keyboard rows to notes;
// -demo plays a built-in sequence driven by a simulated biometric
// source.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/ebitengine/oto/v3"
	"golang.org/x/term"

	"github.com/vibrationalforce/echoelcore/pkg/bio"
	"github.com/vibrationalforce/echoelcore/pkg/dsp/buffer"
	"github.com/vibrationalforce/echoelcore/pkg/dsp/reverb"
	"github.com/vibrationalforce/echoelcore/pkg/framework/debug"
	fwdsp "github.com/vibrationalforce/echoelcore/pkg/framework/dsp"
	"github.com/vibrationalforce/echoelcore/pkg/framework/process"
	"github.com/vibrationalforce/echoelcore/pkg/synth"
)

const (
	sampleRate = 48000
	blockSize  = 512
	channels   = 2
)

// keyNotes maps the middle keyboard row to a C major scale from C4.
var keyNotes = map[byte]uint8{
	'a': 60, 's': 62, 'd': 64, 'f': 65,
	'g': 67, 'h': 69, 'j': 71, 'k': 72,
	'l': 74, ';': 76,
}

func main() {
	demo := flag.Bool("demo", false, "play the built-in bio-modulated sequence")
	duration := flag.Duration("duration", 24*time.Second, "demo length")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	if *verbose {
		debug.SetLevel(debug.LogLevelDebug)
	}

	if err := run(*demo, *duration); err != nil {
		fmt.Fprintln(os.Stderr, "echoelplay:", err)
		os.Exit(1)
	}
}

func run(demo bool, duration time.Duration) error {
	engine := synth.NewEngine()
	engine.Prepare(sampleRate, blockSize)

	state := bio.NewState()
	engine.AttachBio(state)
	engine.EnableDefaultBioMappings()
	engine.SetBioReactive(true)

	// Master space on top of the engine's internal sends.
	gravity := reverb.NewGravity(sampleRate)
	gravity.SetPresetBloomChamber()
	gravity.SetMix(0.25)
	gravity.AttachBio(state)
	gravity.SetBioReactive(true)
	master := fwdsp.NewStereoChain().
		Add(fwdsp.StereoProcessorFunc(gravity.ProcessBuffer))

	// The render goroutine stays a fixed distance ahead of the device
	// callback so a GC pause never reaches the speakers.
	ring := buffer.NewWriteAheadBuffer(sampleRate, channels)

	otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return fmt.Errorf("open audio device: %w", err)
	}
	<-ready

	player := otoCtx.NewPlayer(&ringReader{ring: ring})
	player.Play()
	defer player.Close()

	stop := make(chan struct{})
	go renderLoop(engine, master, ring, stop)

	if demo {
		go simulateBiometrics(state, stop)
		playDemoSequence(engine, gravity, duration, stop)
		close(stop)
		time.Sleep(200 * time.Millisecond) // let the ring drain
		return nil
	}

	err = interactiveLoop(engine)
	close(stop)
	return err
}

// renderLoop renders engine blocks into the write-ahead ring until stop
// closes.
func renderLoop(engine *synth.Engine, master *fwdsp.StereoChain, ring *buffer.WriteAheadBuffer, stop <-chan struct{}) {
	ctx := process.NewContext(blockSize, engine.Params())
	ctx.SampleRate = sampleRate
	ctx.Output = [][]float32{
		make([]float32, blockSize),
		make([]float32, blockSize),
	}
	interleaved := make([]float32, blockSize*channels)

	for {
		select {
		case <-stop:
			return
		default:
		}

		engine.Process(ctx)
		master.ProcessStereo(ctx.Output[0], ctx.Output[1])

		for i := 0; i < blockSize; i++ {
			interleaved[i*2] = ctx.Output[0][i]
			interleaved[i*2+1] = ctx.Output[1][i]
		}

		for ring.Write(interleaved) != nil {
			// Ring full: the device is behind, yield briefly.
			time.Sleep(time.Millisecond)
		}
	}
}

// ringReader feeds the device callback from the write-ahead ring,
// encoding float32 samples as little-endian bytes.
type ringReader struct {
	ring    *buffer.WriteAheadBuffer
	scratch []float32
}

func (r *ringReader) Read(p []byte) (int, error) {
	n := len(p) / 4
	if n == 0 {
		return 0, nil
	}
	if cap(r.scratch) < n {
		r.scratch = make([]float32, n)
	}
	samples := r.scratch[:n]
	r.ring.Read(samples)

	for i, s := range samples {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(s))
	}
	return n * 4, nil
}

// simulateBiometrics feeds the shared state with a synthetic breathing
// cycle and a slowly settling heart, standing in for a sensor thread.
func simulateBiometrics(state *bio.State, stop <-chan struct{}) {
	ticker := time.NewTicker(33 * time.Millisecond)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		t := time.Since(start).Seconds()

		// Six breaths per minute, deepening relaxation over the run.
		breathPhase := math.Mod(t/10.0, 1.0)
		settle := math.Min(t/30.0, 1.0)
		hrv := 0.4 + 0.4*settle + 0.05*math.Sin(2*math.Pi*breathPhase)
		coherence := 0.3 + 0.5*settle
		heartRate := 78.0 - 18.0*settle + 2.0*math.Sin(2*math.Pi*breathPhase)

		state.Update(hrv, coherence, heartRate, breathPhase)
		debug.DebugIf(int(t*30)%90 == 0,
			"bio: hrv=%.2f coh=%.2f hr=%.0f breath=%.2f",
			hrv, coherence, heartRate, breathPhase)
	}
}

// playDemoSequence arpeggiates a progression, freezing the reverb for
// the final chord.
func playDemoSequence(engine *synth.Engine, gravity *reverb.Gravity, duration time.Duration, stop <-chan struct{}) {
	progression := [][]uint8{
		{57, 60, 64}, // Am
		{53, 57, 60}, // F
		{48, 52, 55}, // C
		{55, 59, 62}, // G
	}

	deadline := time.After(duration)
	step := time.NewTicker(280 * time.Millisecond)
	defer step.Stop()

	var chord, idx int
	var lastNote uint8
	for {
		select {
		case <-stop:
			return
		case <-deadline:
			// Hold the last chord in a frozen reverb tail.
			for _, n := range progression[chord] {
				engine.NoteOn(n, 80)
			}
			time.Sleep(600 * time.Millisecond)
			gravity.SetFreeze(true)
			for _, n := range progression[chord] {
				engine.NoteOff(n)
			}
			time.Sleep(2 * time.Second)
			gravity.SetFreeze(false)
			return
		case <-step.C:
		}

		if lastNote != 0 {
			engine.NoteOff(lastNote)
		}
		notes := progression[chord]
		lastNote = notes[idx%len(notes)] + uint8(12*(idx%2))
		engine.NoteOn(lastNote, 96)

		idx++
		if idx%8 == 0 {
			chord = (chord + 1) % len(progression)
		}
	}
}

// interactiveLoop puts the terminal in raw mode and maps keys to notes.
// Esc or q quits.
func interactiveLoop(engine *synth.Engine) error {
	fd := int(os.Stdin.Fd())
	old, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("raw terminal: %w", err)
	}
	defer term.Restore(fd, old)

	fmt.Print("keys a..; play C4..E5, space releases, q quits\r\n")

	var held uint8
	buf := make([]byte, 1)
	for {
		if _, err := os.Stdin.Read(buf); err != nil {
			return err
		}

		switch key := buf[0]; {
		case key == 'q' || key == 27:
			if held != 0 {
				engine.NoteOff(held)
			}
			return nil
		case key == ' ':
			if held != 0 {
				engine.NoteOff(held)
				held = 0
			}
		default:
			note, ok := keyNotes[key]
			if !ok {
				continue
			}
			if held != 0 {
				engine.NoteOff(held)
			}
			engine.NoteOn(note, 100)
			held = note
		}
	}
}

// main.go - IntuitionSynth demo player

/*
(c) 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionSynth
License: GPLv3 or later
*/

package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"golang.org/x/term"
)

func boilerPlate() {
	fmt.Println("IntuitionSynth", Version)
	fmt.Println("A real-time block-based audio synthesis engine.")
	fmt.Println("(c) 2026 Zayn Otley")
	fmt.Println("https://github.com/IntuitionAmiga/IntuitionSynth")
	fmt.Println("License: GPLv3 or later")
	fmt.Println()
}

func main() {
	boilerPlate()

	var (
		filePath    string
		hrtfPath    string
		interactive bool
		duration    time.Duration
		verbosity   int
	)
	flag.StringVar(&filePath, "file", "", "play a media file (wav/mp3/ogg)")
	flag.StringVar(&hrtfPath, "hrtf", "", "binaural demo using a JSON HRTF dataset")
	flag.BoolVar(&interactive, "interactive", false, "play notes from the keyboard (a..k)")
	flag.DurationVar(&duration, "duration", 5*time.Second, "how long to play non-interactive demos")
	flag.IntVar(&verbosity, "v", 0, "log verbosity")
	flag.Parse()

	log := funcr.New(func(prefix, args string) {
		fmt.Println(prefix, args)
	}, funcr.Options{Verbosity: verbosity})

	if err := run(log, filePath, hrtfPath, interactive, duration); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(log logr.Logger, filePath, hrtfPath string, interactive bool, duration time.Duration) error {
	engine, err := NewEngine(EngineConfig{Channels: 2, Logger: log}, AUDIO_BACKEND_OTO)
	if err != nil {
		return err
	}
	if err := engine.Start(context.Background()); err != nil {
		return err
	}
	defer engine.Close()

	switch {
	case filePath != "":
		return playFile(engine, filePath, duration)
	case hrtfPath != "":
		return playBinaural(engine, hrtfPath, duration)
	case interactive:
		return playKeyboard(engine)
	default:
		return playSineDemo(engine, duration)
	}
}

// playSineDemo mixes a sine with a half-gain copy of itself, the smallest
// graph that exercises allocation, mapping and mixing.
func playSineDemo(engine *Engine, duration time.Duration) error {
	sine := NewSineSource(440)
	half := NewGainNode(NewSineSource(440), 0.5)

	up, err := NewConvertNode(sine, 2)
	if err != nil {
		return err
	}
	upHalf, err := NewConvertNode(half, 2)
	if err != nil {
		return err
	}

	for _, node := range []Signal{up, upHalf} {
		h, err := engine.AddNode(node)
		if err != nil {
			return err
		}
		if err := engine.Connect(NilHandle, h); err != nil {
			return err
		}
	}
	time.Sleep(duration)
	return engine.Stop()
}

func playFile(engine *Engine, path string, duration time.Duration) error {
	src, err := LoadMedia(path)
	if err != nil {
		return err
	}
	node, err := NewConvertNode(src, 2)
	if err != nil {
		return err
	}
	h, err := engine.AddNode(node)
	if err != nil {
		return err
	}
	if err := engine.Connect(NilHandle, h); err != nil {
		return err
	}

	frames := src.Frames()
	playTime := time.Duration(frames) * time.Second / SAMPLE_RATE
	if playTime > duration {
		playTime = duration
	}
	time.Sleep(playTime + 100*time.Millisecond)
	return engine.Stop()
}

// playBinaural circles a sine source around the listener's head.
func playBinaural(engine *Engine, datasetPath string, duration time.Duration) error {
	f, err := os.Open(datasetPath)
	if err != nil {
		return err
	}
	ds, err := LoadHrtfDataset(f)
	f.Close()
	if err != nil {
		return err
	}

	node, err := NewHrtfNode(NewSineSource(330), ds)
	if err != nil {
		return err
	}
	h, err := engine.AddNode(node)
	if err != nil {
		return err
	}
	if err := engine.Connect(NilHandle, h); err != nil {
		return err
	}

	// One full revolution over the playback window.
	steps := int(duration / (50 * time.Millisecond))
	for i := 0; i < steps; i++ {
		az := 360 * float64(i) / float64(steps)
		if err := engine.SetParam(h, PARAM_AZIMUTH, az); err != nil {
			return err
		}
		time.Sleep(50 * time.Millisecond)
	}
	return engine.Stop()
}

// keyFrequencies maps the home row to one octave of C major.
var keyFrequencies = map[byte]float64{
	'a': 261.63, // C4
	's': 293.66, // D4
	'd': 329.63, // E4
	'f': 349.23, // F4
	'g': 392.00, // G4
	'h': 440.00, // A4
	'j': 493.88, // B4
	'k': 523.25, // C5
}

// playKeyboard puts the terminal in raw mode and drives one oscillator's
// frequency and gain from keypresses. 'q' quits.
func playKeyboard(engine *Engine) error {
	sine := NewSineSource(440)
	voice := NewGainNode(sine, 0)
	up, err := NewConvertNode(voice, 2)
	if err != nil {
		return err
	}
	hOsc, err := engine.AddNode(up)
	if err != nil {
		return err
	}
	// The gain/frequency targets live inside the converted chain, so they
	// get their own slab slots for parameter addressing.
	hGain, err := engine.AddNode(voice)
	if err != nil {
		return err
	}
	hFreq, err := engine.AddNode(sine)
	if err != nil {
		return err
	}
	if err := engine.Connect(NilHandle, hOsc); err != nil {
		return err
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return err
	}
	defer term.Restore(fd, oldState)

	fmt.Print("keys a..k play notes, space releases, q quits\r\n")
	buf := make([]byte, 1)
	for {
		if _, err := os.Stdin.Read(buf); err != nil {
			return err
		}
		switch {
		case buf[0] == 'q':
			return engine.Stop()
		case buf[0] == ' ':
			if err := engine.SetParam(hGain, PARAM_GAIN, 0); err != nil {
				return err
			}
		default:
			freq, ok := keyFrequencies[buf[0]]
			if !ok {
				continue
			}
			if err := engine.SetParam(hFreq, PARAM_FREQ, freq); err != nil {
				return err
			}
			if err := engine.SetParam(hGain, PARAM_GAIN, 0.8); err != nil {
				return err
			}
			// Frequency relative to A440, printed as feedback while raw.
			cents := 1200 * math.Log2(freq/440)
			fmt.Printf("%c %.2f Hz (%+.0f cents)\r\n", buf[0], freq, cents)
		}
	}
}

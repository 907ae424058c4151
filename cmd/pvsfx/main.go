// Command pvsfx runs a WAV file through a phase vocoder effect.
//
// The input is mixed down to mono and streamed block by block through a
// pvs.Bridge, with the engine driven from a separate goroutine exactly as an
// audio callback and a worker thread would drive it.
//
// Usage:
//
//	pvsfx [flags] -in input.wav -out output.wav
//	pvsfx [flags] -in input.wav -play
//
// Examples:
//
//	pvsfx -in voice.wav -out up.wav -effect scale -param factor=1.5 -param formant=lifter
//	pvsfx -in pad.wav -out smear.wav -effect blur -param delay=0.2
//	pvsfx -in pad.wav -out shimmer.wav -effect scale,blur -param factor=2 -param delay=0.5
//	pvsfx -in voice.wav -play -effect scale -params live.json
//
// Every effect in the chain receives the same parameters and reads the ones
// it knows. With -params the JSON file {"num": {...}, "str": {...}} is applied at
// startup and again whenever it changes.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/cwbudde/algo-pvs/dsp/core"
	"github.com/cwbudde/algo-pvs/dsp/pvs"
	"github.com/cwbudde/algo-pvs/dsp/pvs/effect"
	"github.com/cwbudde/algo-pvs/dsp/window"
)

type options struct {
	in         string
	out        string
	play       bool
	effect     string
	params     paramFlag
	paramsFile string
	fftSize    int
	hopSize    int
	windowSize int
	window     string
	phase      string
	blockSize  int
	verbose    bool
}

func main() {
	var o options

	flag.StringVar(&o.in, "in", "", "input WAV file")
	flag.StringVar(&o.out, "out", "", "output WAV file")
	flag.BoolVar(&o.play, "play", false, "play the result on the default audio device instead of writing it")
	flag.StringVar(&o.effect, "effect", "identity", "comma-separated effects applied in order ("+strings.Join(effect.DefaultRegistry().Names(), ", ")+")")
	flag.Var(&o.params, "param", "effect parameter name=value (repeatable)")
	flag.StringVar(&o.paramsFile, "params", "", "JSON parameter file, reapplied when it changes")
	flag.IntVar(&o.fftSize, "fft", 1024, "FFT size")
	flag.IntVar(&o.hopSize, "hop", 0, "hop size; 0 means FFT size / 4")
	flag.IntVar(&o.windowSize, "window-size", 0, "analysis window length; 0 means FFT size")
	flag.StringVar(&o.window, "window", "hamming", "analysis window")
	flag.StringVar(&o.phase, "phase", "locked", "phase propagation (locked, free)")
	flag.IntVar(&o.blockSize, "block", 256, "audio block size")
	flag.BoolVar(&o.verbose, "v", false, "verbose logging")
	flag.Parse()

	log := newLogger(os.Stderr, o.verbose)

	if o.in == "" || (o.out == "" && !o.play) {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, o, log); err != nil {
		log.WithError(err).Fatal("pvsfx failed")
	}
}

// newLogger returns a text logger, colored when w is a terminal.
func newLogger(w io.Writer, verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)

	tty := false
	if f, ok := w.(*os.File); ok {
		tty = term.IsTerminal(int(f.Fd()))
	}

	log.SetFormatter(&logrus.TextFormatter{
		ForceColors:   tty,
		DisableColors: !tty,
		FullTimestamp: !tty,
	})

	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	return log
}

// config maps the flags onto an engine configuration.
func (o options) config(sampleRate int) (pvs.Config, error) {
	wt, err := window.ParseType(o.window)
	if err != nil {
		return pvs.Config{}, err
	}

	phase, err := pvs.ParsePhaseMode(o.phase)
	if err != nil {
		return pvs.Config{}, err
	}

	opts := []pvs.Option{
		pvs.WithFFTSize(o.fftSize),
		pvs.WithWindow(wt),
		pvs.WithPhaseMode(phase),
		pvs.WithProcessor(
			core.WithSampleRate(float64(sampleRate)),
			core.WithBlockSize(o.blockSize),
		),
	}

	if o.hopSize != 0 {
		opts = append(opts, pvs.WithHopSize(o.hopSize))
	}

	if o.windowSize != 0 {
		opts = append(opts, pvs.WithWindowSize(o.windowSize))
	}

	cfg := pvs.NewConfig(opts...)

	return cfg, cfg.Validate()
}

// effectParams merges the parameter file, if any, with the -param flags.
// Flags take precedence.
func (o options) effectParams() (effect.Params, error) {
	p := effect.Params{}

	if o.paramsFile != "" {
		var err error
		if p, err = loadParams(o.paramsFile); err != nil {
			return p, err
		}
	}

	return o.params.merge(p), nil
}

func run(ctx context.Context, o options, log *logrus.Logger) error {
	x, sampleRate, err := readWAV(o.in)
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"file":        o.in,
		"samples":     len(x),
		"sample_rate": sampleRate,
	}).Info("input loaded")

	cfg, err := o.config(sampleRate)
	if err != nil {
		return err
	}

	params, err := o.effectParams()
	if err != nil {
		return err
	}

	fx, err := effect.DefaultRegistry().NewChain(o.effect, cfg.Format(), params)
	if err != nil {
		return fmt.Errorf("effect %s: %w", o.effect, err)
	}

	engine, err := pvs.NewEngine(cfg, fx)
	if err != nil {
		return err
	}

	bridge, err := pvs.NewBridge(engine, pvs.BridgeConfig{})
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"effect":  o.effect,
		"fft":     cfg.FFTSize,
		"hop":     cfg.HopSize,
		"window":  cfg.Window,
		"phase":   cfg.Phase,
		"block":   cfg.BlockSize,
		"latency": bridge.Latency(),
	}).Info("pipeline ready")

	var control func(context.Context) error
	if o.paramsFile != "" {
		control = func(ctx context.Context) error {
			return watchParams(ctx, o.paramsFile, fx, log)
		}
	}

	if o.play {
		err = runPlayback(ctx, bridge, x, sampleRate, control, log)
	} else {
		var y []float64

		y, err = runOffline(ctx, bridge, x, control)
		if err == nil {
			err = writeWAV(o.out, y, sampleRate)
		}
	}

	st := bridge.Stats()
	log.WithFields(logrus.Fields{
		"hops":      st.Hops,
		"overflows": st.Overflows,
		"underruns": st.Underruns,
	}).Info("done")

	return err
}

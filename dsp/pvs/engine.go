package pvs

// Effect transforms one spectral frame. dst and src must be distinct frames
// of the same format; implementations return ErrAliased otherwise.
type Effect interface {
	ProcessFrame(dst, src *Frame) error
}

// formatter is implemented by effects bound to a frame format.
type formatter interface {
	Format() Format
}

// Engine chains Framer, Analyzer, an optional Effect and Resynthesizer, with
// a Supervisor recording the state of each stage.
//
// ProcessHop runs the pipeline one hop at a time and is what Bridge drives
// from the computation context. ProcessBlock runs it inline, sample by
// sample, for hosts with a single context. The two modes must not be mixed
// on one engine.
type Engine struct {
	cfg    Config
	format Format

	framer   *Framer
	analyzer *Analyzer
	effect   Effect
	resynth  *Resynthesizer
	sup      *Supervisor

	work *Frame
}

// pipelineStages are the stages an Engine owns.
var pipelineStages = []Stage{StageFramer, StageAnalyzer, StageEffect, StageResynth}

// NewEngine validates cfg and builds every stage. A nil effect passes frames
// through unchanged. The returned error is a *StageError naming the first
// stage that failed.
func NewEngine(cfg Config, effect Effect) (*Engine, error) {
	e := &Engine{cfg: cfg, format: cfg.Format(), effect: effect, sup: NewSupervisor()}

	var err error

	e.framer, err = NewFramer(cfg)
	if err = e.sup.Record(StageFramer, err); err != nil {
		return nil, err
	}

	e.analyzer, err = NewAnalyzer(cfg)
	if err = e.sup.Record(StageAnalyzer, err); err != nil {
		return nil, err
	}

	if err = e.sup.Record(StageEffect, e.checkEffect()); err != nil {
		return nil, err
	}

	e.resynth, err = NewResynthesizer(cfg)
	if err = e.sup.Record(StageResynth, err); err != nil {
		return nil, err
	}

	if e.sup.HaltOnError(pipelineStages...) {
		return nil, e.sup.Err()
	}

	return e, nil
}

func (e *Engine) checkEffect() error {
	if e.effect == nil {
		return nil
	}

	if f, ok := e.effect.(formatter); ok && f.Format() != e.format {
		return statusErrorf(StatusFormatMismatch, "effect format %+v, engine %+v", f.Format(), e.format)
	}

	e.work = NewFrame(e.format)

	return nil
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config { return e.cfg }

// Format returns the frame format flowing through the engine.
func (e *Engine) Format() Format { return e.format }

// Hop returns the hop size in samples.
func (e *Engine) Hop() int { return e.cfg.HopSize }

// Latency returns the delay in samples between input and output of
// ProcessHop.
func (e *Engine) Latency() int { return e.cfg.FFTSize - e.cfg.HopSize }

// InlineLatency returns the delay in samples of ProcessBlock.
func (e *Engine) InlineLatency() int { return e.cfg.FFTSize - 1 }

// Status returns the recorded status of stage.
func (e *Engine) Status(stage Stage) Status { return e.sup.Status(stage) }

// Supervisor exposes the engine's supervisor.
func (e *Engine) Supervisor() *Supervisor { return e.sup }

// ProcessHop pushes exactly one hop of input and writes one hop of output.
func (e *Engine) ProcessHop(in, out []float64) error {
	if e.sup.Halted() {
		clear(out)
		return ErrHalted
	}

	hop := e.cfg.HopSize
	if len(in) != hop || len(out) < hop {
		return statusErrorf(StatusInvalidBlockSize, "hop buffers %d/%d, want %d", len(in), len(out), hop)
	}

	n, ready := e.framer.PushBlock(in)
	if !ready || n != hop {
		return e.fail(StageFramer, statusErrorf(StatusInternal, "framer out of hop alignment"))
	}

	samples, err := e.step()
	if err != nil {
		clear(out)
		return err
	}

	copy(out, samples)

	return nil
}

// ProcessBlock runs the pipeline inline: every input sample is pushed into
// the framer and every output sample pulled from the resynthesizer. Output
// is silent until the first window completes. len(out) must be at least
// len(in).
func (e *Engine) ProcessBlock(in, out []float64) error {
	if len(out) < len(in) {
		return statusErrorf(StatusBufferTooSmall, "output %d < input %d", len(out), len(in))
	}

	if e.sup.Halted() {
		clear(out)
		return ErrHalted
	}

	for i, x := range in {
		if e.framer.Push(x) {
			if _, err := e.step(); err != nil {
				clear(out[i:])
				return err
			}
		}

		out[i], _ = e.resynth.NextSample()
	}

	return nil
}

// step runs analysis, effect and resynthesis on the framer's current window.
func (e *Engine) step() ([]float64, error) {
	frame, err := e.analyzer.Analyze(e.framer.Window())
	if err != nil {
		return nil, e.fail(StageAnalyzer, err)
	}

	if e.effect != nil {
		if err := e.effect.ProcessFrame(e.work, frame); err != nil {
			return nil, e.fail(StageEffect, err)
		}

		frame = e.work
	}

	out, err := e.resynth.Synthesize(frame)
	if err != nil {
		return nil, e.fail(StageResynth, err)
	}

	return out, nil
}

func (e *Engine) fail(stage Stage, err error) error {
	err = e.sup.Record(stage, err)
	e.sup.Halt()

	return err
}

// Reset clears framer, analyzer and resynthesizer state. It does not clear
// a halt.
func (e *Engine) Reset() {
	e.framer.Reset()
	e.analyzer.Reset()
	e.resynth.Reset()
}

package core

import "fmt"

// ProcessorConfig defines the stream settings shared by every stage: the
// sample rate and the audio callback block size.
type ProcessorConfig struct {
	SampleRate float64
	BlockSize  int
}

// ProcessorOption mutates a ProcessorConfig.
type ProcessorOption func(*ProcessorConfig)

// DefaultProcessorConfig returns the settings of a typical embedded codec.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		SampleRate: 48000,
		BlockSize:  48,
	}
}

// WithSampleRate sets the processing sample rate.
func WithSampleRate(sampleRate float64) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if sampleRate > 0 {
			cfg.SampleRate = sampleRate
		}
	}
}

// WithBlockSize sets the audio callback block size.
func WithBlockSize(blockSize int) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if blockSize > 0 {
			cfg.BlockSize = blockSize
		}
	}
}

// With returns a copy of c with opts applied. Nil options are skipped.
func (c ProcessorConfig) With(opts ...ProcessorOption) ProcessorConfig {
	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}

	return c
}

// Validate reports the first invalid field.
func (c ProcessorConfig) Validate() error {
	if !IsFinitePositive(c.SampleRate) {
		return fmt.Errorf("sample rate must be positive and finite: %f", c.SampleRate)
	}

	if c.BlockSize <= 0 {
		return fmt.Errorf("block size must be > 0: %d", c.BlockSize)
	}

	return nil
}

// BlockDuration returns the wall-clock length of one block in seconds.
func (c ProcessorConfig) BlockDuration() float64 {
	return float64(c.BlockSize) / c.SampleRate
}

package core

import (
	"math"
	"testing"
)

func TestProcessorConfigWith(t *testing.T) {
	base := ProcessorConfig{SampleRate: 44100, BlockSize: 32}

	tests := []struct {
		name string
		opts []ProcessorOption
		want ProcessorConfig
	}{
		{"none", nil, base},
		{"both", []ProcessorOption{WithSampleRate(96000), WithBlockSize(64), nil}, ProcessorConfig{96000, 64}},
		{"invalid ignored", []ProcessorOption{WithSampleRate(-1), WithBlockSize(0)}, base},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.With(tt.opts...); got != tt.want {
				t.Fatalf("With() = %+v, want %+v", got, tt.want)
			}
		})
	}

	if base.BlockSize != 32 {
		t.Fatal("With modified its receiver")
	}
}

func TestProcessorConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ProcessorConfig
		wantErr bool
	}{
		{name: "default", cfg: DefaultProcessorConfig()},
		{name: "zero rate", cfg: ProcessorConfig{SampleRate: 0, BlockSize: 48}, wantErr: true},
		{name: "nan rate", cfg: ProcessorConfig{SampleRate: math.NaN(), BlockSize: 48}, wantErr: true},
		{name: "zero block", cfg: ProcessorConfig{SampleRate: 48000}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %t", err, tt.wantErr)
			}
		})
	}
}

func TestBlockDuration(t *testing.T) {
	cfg := ProcessorConfig{SampleRate: 48000, BlockSize: 48}
	if got := cfg.BlockDuration(); math.Abs(got-0.001) > 1e-15 {
		t.Fatalf("BlockDuration() = %v, want 0.001", got)
	}
}

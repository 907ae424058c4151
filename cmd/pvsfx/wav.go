package main

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cwbudde/algo-pvs/dsp/core"
)

const outputBitDepth = 16

// readWAV decodes a PCM WAV file and mixes it down to mono in [-1, 1].
func readWAV(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("invalid WAV file: %s", path)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode %s: %w", path, err)
	}

	if buf.Format == nil || buf.Format.NumChannels < 1 || buf.SourceBitDepth < 1 {
		return nil, 0, fmt.Errorf("unsupported WAV format: %s", path)
	}

	channels := buf.Format.NumChannels
	scale := 1 / math.Pow(2, float64(buf.SourceBitDepth-1)) / float64(channels)
	data := buf.AsFloatBuffer().Data

	x := make([]float64, len(data)/channels)
	for i := range x {
		var sum float64
		for _, v := range data[i*channels : (i+1)*channels] {
			sum += v
		}

		x[i] = sum * scale
	}

	return x, buf.Format.SampleRate, nil
}

// writeWAV encodes x as a 16-bit mono WAV file, clipping to [-1, 1].
func writeWAV(path string, x []float64, sampleRate int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	defer func() { err = errors.Join(err, f.Close()) }()

	enc := wav.NewEncoder(f, sampleRate, outputBitDepth, 1, 1)

	full := float64(int(1)<<(outputBitDepth-1) - 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           make([]int, len(x)),
		SourceBitDepth: outputBitDepth,
	}

	for i, v := range x {
		buf.Data[i] = int(math.Round(core.Clamp(v, -1, 1) * full))
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	return enc.Close()
}

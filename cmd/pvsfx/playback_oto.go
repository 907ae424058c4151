//go:build !headless

package main

import (
	"context"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-pvs/dsp/pvs"
)

// runPlayback plays x through the bridge on the default output device. The
// device callback is the real-time context.
func runPlayback(ctx context.Context, b *pvs.Bridge, x []float64, sampleRate int,
	control func(context.Context) error, log *logrus.Logger,
) error {
	blockDur := time.Duration(b.Engine().Config().BlockDuration() * float64(time.Second))

	otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   4 * blockDur,
	})
	if err != nil {
		return err
	}

	select {
	case <-ready:
	case <-ctx.Done():
		return ctx.Err()
	}

	player := otoCtx.NewPlayer(newSource(b, x))
	defer player.Close()

	transport := func(ctx context.Context) error {
		player.Play()
		log.Info("playing")

		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()

		for player.IsPlaying() {
			select {
			case <-ctx.Done():
				player.Pause()
				return ctx.Err()
			case <-ticker.C:
			}
		}

		return nil
	}

	return runPipeline(ctx, b, transport, control)
}

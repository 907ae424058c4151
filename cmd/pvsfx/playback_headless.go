//go:build headless

package main

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-pvs/dsp/pvs"
)

func runPlayback(context.Context, *pvs.Bridge, []float64, int, func(context.Context) error, *logrus.Logger) error {
	return errors.New("playback is not available in headless builds")
}

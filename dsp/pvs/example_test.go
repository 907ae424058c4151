package pvs_test

import (
	"fmt"

	"github.com/cwbudde/algo-pvs/dsp/pvs"
	"github.com/cwbudde/algo-pvs/dsp/window"
)

func ExampleNewEngine() {
	cfg := pvs.NewConfig(
		pvs.WithFFTSize(1024),
		pvs.WithHopSize(256),
		pvs.WithWindow(window.TypeHann),
	)

	e, err := pvs.NewEngine(cfg, nil)
	if err != nil {
		fmt.Println(err)
		return
	}

	in := make([]float64, e.Hop())
	out := make([]float64, e.Hop())

	if err := e.ProcessHop(in, out); err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println(e.Latency(), e.Status(pvs.StageResynth).String())

	// Output:
	// 768 ok
}

func ExampleConfig_Validate() {
	cfg := pvs.NewConfig(pvs.WithFFTSize(1000))

	err := cfg.Validate()
	fmt.Println(pvs.StatusOf(err).String())

	// Output:
	// invalid FFT size
}

func ExampleBridge() {
	e, _ := pvs.NewEngine(pvs.DefaultConfig(), nil)
	b, _ := pvs.NewBridge(e, pvs.BridgeConfig{})

	cfg := e.Config()
	in := make([]float64, cfg.BlockSize)
	out := make([]float64, cfg.BlockSize)

	// Real-time context: exchange one block. Computation context: process
	// every complete hop.
	b.ProcessBlock(in, out)
	b.Drain()

	fmt.Println(b.Latency(), b.Stats().Underruns)

	// Output:
	// 1072 0
}

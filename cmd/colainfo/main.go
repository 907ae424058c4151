// Command colainfo prints the overlap-add behavior of analysis windows and
// whether the phase vocoder accepts each window and hop.
//
// Usage:
//
//	colainfo [flags] [window-name ...]
//
// Without arguments it prints every window type at every supported FFT size.
//
// Examples:
//
//	colainfo hamming
//	colainfo -size 1024 -divisors 3,4 hann blackman
//	colainfo -list
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/cwbudde/algo-pvs/dsp/core"
	"github.com/cwbudde/algo-pvs/dsp/pvs"
	"github.com/cwbudde/algo-pvs/dsp/window"
)

// row is one (window, size, hop) combination.
type row struct {
	typ      window.Type
	size     int
	hop      int
	overlap  window.Overlap
	accepted error
}

func main() {
	size := flag.Int("size", 0, "FFT size; 0 prints every supported size")
	divisors := flag.String("divisors", "2,3,4,8", "comma-separated hop divisors (hop = size/divisor)")
	list := flag.Bool("list", false, "list available window names")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: colainfo [flags] [window-name ...]\n\n")
		fmt.Fprintf(os.Stderr, "Prints overlap-add gain and ripple of analysis windows.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *list {
		for _, t := range window.Types() {
			fmt.Println(t)
		}

		return
	}

	types, err := resolveTypes(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	divs, err := parseDivisors(*divisors)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	sizes := supportedSizes()
	if *size != 0 {
		sizes = []int{*size}
	}

	rows, err := buildRows(types, sizes, divs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := printRows(os.Stdout, rows); err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to write output: %v\n", err)
		os.Exit(1)
	}
}

func resolveTypes(names []string) ([]window.Type, error) {
	if len(names) == 0 {
		return window.Types(), nil
	}

	types := make([]window.Type, 0, len(names))

	for _, name := range names {
		t, err := window.ParseType(name)
		if err != nil {
			return nil, err
		}

		types = append(types, t)
	}

	return types, nil
}

func parseDivisors(s string) ([]int, error) {
	var divs []int

	for _, f := range strings.Split(s, ",") {
		d, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil || d < 1 {
			return nil, fmt.Errorf("invalid hop divisor %q", f)
		}

		divs = append(divs, d)
	}

	return divs, nil
}

func supportedSizes() []int {
	var sizes []int
	for n := pvs.MinFFTSize; n <= pvs.MaxFFTSize; n *= 2 {
		sizes = append(sizes, n)
	}

	return sizes
}

func buildRows(types []window.Type, sizes, divisors []int) ([]row, error) {
	var rows []row

	for _, t := range types {
		for _, n := range sizes {
			coeffs, err := window.Centered(t, n, n)
			if err != nil {
				return nil, err
			}

			for _, d := range divisors {
				hop := n / d

				o, err := window.AnalyzeOverlap(coeffs, coeffs, hop)
				if err != nil {
					return nil, fmt.Errorf("%v size %d hop %d: %w", t, n, hop, err)
				}

				cfg := pvs.NewConfig(pvs.WithFFTSize(n), pvs.WithHopSize(hop), pvs.WithWindow(t))
				rows = append(rows, row{typ: t, size: n, hop: hop, overlap: o, accepted: cfg.Validate()})
			}
		}
	}

	return rows, nil
}

func printRows(w io.Writer, rows []row) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if _, err := fmt.Fprintf(tw, "Window\tSize\tHop\tCoherent Gain\tOLA Gain\tOLA Gain [dB]\tRipple [%%]\tCOLA\tEngine\n"); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(tw, "------\t----\t---\t-------------\t--------\t-------------\t----------\t----\t------\n"); err != nil {
		return err
	}

	for _, r := range rows {
		engine := "ok"
		if r.accepted != nil {
			engine = pvs.StatusOf(r.accepted).String()
		}

		if _, err := fmt.Fprintf(tw, "%s\t%d\t%d\t%.4f\t%.4f\t%.2f\t%.3f\t%t\t%s\n",
			r.typ, r.size, r.hop,
			window.Info(r.typ).CoherentGain,
			r.overlap.Mean,
			core.LinearToDB(r.overlap.Mean),
			100*r.overlap.Ripple,
			r.overlap.COLA(),
			engine,
		); err != nil {
			return err
		}
	}

	return tw.Flush()
}

// Package window generates the analysis/synthesis windows used by the
// phase vocoder and checks (window, hop) pairs for the constant-overlap-add
// property.
//
// Windows are produced in periodic form for STFT framing:
//
//	w := window.Generate(window.TypeHamming, 1024, window.WithPeriodic())
//	o, _ := window.AnalyzeOverlap(w, w, 256)
//	fmt.Println(o.COLA())
package window

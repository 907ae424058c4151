// Package pvs implements a streaming phase-vocoder engine: a framer that
// turns a sample stream into overlapping analysis windows, an analyzer that
// converts each window into a frame of (amplitude, frequency) bins, a
// resynthesizer that turns frames back into samples by phase accumulation and
// overlap-add, and a bridge that decouples a fixed audio block cadence from
// the FFT hop cadence.
//
// All buffers are allocated at construction (or supplied by the caller); the
// per-sample and per-hop paths do not allocate. Spectral effects live in the
// effect sub-package and implement Effect.
//
// The package never logs; failures are reported as errors wrapping a Status.
package pvs

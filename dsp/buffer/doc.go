// Package buffer provides the fixed-capacity queue used to hand samples (or
// frames) between an audio callback and a processing goroutine.
//
// Ring is a single-producer/single-consumer ring buffer: exactly one
// goroutine writes and exactly one goroutine reads. Neither side blocks,
// locks or allocates, so the real-time side may call it from inside an audio
// callback.
package buffer

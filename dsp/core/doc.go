// Package core holds the small shared pieces every stage of the engine uses:
// numeric helpers, the sample-rate/block-size processor configuration and a
// lock-free float64 parameter cell for control-thread setters.
package core

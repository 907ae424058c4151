// Package effect provides spectral transforms for pvs frames: Identity,
// Blur, Freeze and Scale (with optional formant preservation), a Chain that
// runs effects in series, and a registry that builds them by name.
//
// Every effect is bound to one frame format at construction, owns its state
// and output frame, and never allocates while processing. Parameter setters
// store atomically and may be called from a control goroutine while another
// goroutine processes frames.
package effect

package effect

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cwbudde/algo-pvs/dsp/pvs"
)

// Factory builds one effect instance for a frame format.
type Factory func(format pvs.Format, p Params) (pvs.Effect, error)

// Registry maps effect names to their factories.
type Registry struct {
	factories map[string]Factory
}

var (
	errDuplicateEffect = errors.New("duplicate effect type")
	errUnknownEffect   = errors.New("unknown effect type")
)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory for the given effect name.
func (r *Registry) Register(name string, factory Factory) error {
	if name == "" {
		return errors.New("empty effect type")
	}

	if factory == nil {
		return errors.New("nil factory")
	}

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("%w: %s", errDuplicateEffect, name)
	}

	r.factories[name] = factory

	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(name string, factory Factory) {
	if err := r.Register(name, factory); err != nil {
		panic("effect registry: " + err.Error())
	}
}

// Lookup returns the factory for the given effect name, or nil.
func (r *Registry) Lookup(name string) Factory {
	return r.factories[name]
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// New builds the named effect.
func (r *Registry) New(name string, format pvs.Format, p Params) (pvs.Effect, error) {
	f := r.Lookup(name)
	if f == nil {
		return nil, fmt.Errorf("%w: %q", errUnknownEffect, name)
	}

	return f(format, p)
}

// DefaultRegistry returns a Registry with identity, blur, freeze and scale.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.MustRegister("identity", func(format pvs.Format, _ Params) (pvs.Effect, error) {
		return asEffect(NewIdentity(format))
	})
	r.MustRegister("blur", func(format pvs.Format, p Params) (pvs.Effect, error) {
		delay := p.GetNum("delay", 0)
		return asEffect(NewBlur(format, BlurConfig{
			DelayTime:    delay,
			MaxDelayTime: p.GetNum("maxdelay", max(delay, 1)),
		}))
	})
	r.MustRegister("freeze", func(format pvs.Format, p Params) (pvs.Effect, error) {
		return asEffect(NewFreeze(format, p.GetNum("amp", 0), p.GetNum("freq", 0)))
	})
	r.MustRegister("scale", func(format pvs.Format, p Params) (pvs.Effect, error) {
		cfg := DefaultScaleConfig()
		cfg.Factor = p.GetNum("factor", cfg.Factor)
		cfg.Gain = p.GetNum("gain", cfg.Gain)
		cfg.Coefficients = int(p.GetNum("coefficients", float64(cfg.Coefficients)))
		cfg.MaxIterations = int(p.GetNum("iterations", float64(cfg.MaxIterations)))
		cfg.Tolerance = p.GetNum("tolerance", cfg.Tolerance)

		mode, err := ParseFormantMode(p.GetStr("formant", cfg.Formant.String()))
		if err != nil {
			return nil, err
		}

		cfg.Formant = mode

		return asEffect(NewScale(format, cfg))
	})

	return r
}

// asEffect keeps a failed constructor from yielding a non-nil interface
// holding a nil pointer.
func asEffect[T pvs.Effect](e T, err error) (pvs.Effect, error) {
	if err != nil {
		return nil, err
	}

	return e, nil
}

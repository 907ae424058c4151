package effect

import (
	"errors"
	"slices"
	"testing"

	"github.com/cwbudde/algo-pvs/dsp/pvs"
)

func TestDefaultRegistryNames(t *testing.T) {
	got := DefaultRegistry().Names()
	want := []string{"blur", "freeze", "identity", "scale"}

	if !slices.Equal(got, want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
}

func TestDefaultRegistryBuildsEffects(t *testing.T) {
	r := DefaultRegistry()
	format := testFormat()

	e, err := r.New("scale", format, Params{
		Num: map[string]float64{"factor": 2},
		Str: map[string]string{"formant": "lifter"},
	})
	if err != nil {
		t.Fatalf("New(scale) = %v", err)
	}

	s, ok := e.(*Scale)
	if !ok {
		t.Fatalf("New(scale) = %T", e)
	}

	if s.Factor() != 2 || s.FormantMode() != FormantLifter {
		t.Fatalf("factor=%v mode=%v", s.Factor(), s.FormantMode())
	}

	e, err = r.New("blur", format, Params{Num: map[string]float64{"delay": 0.05}})
	if err != nil {
		t.Fatalf("New(blur) = %v", err)
	}

	if b := e.(*Blur); b.Frames() != 9 {
		t.Fatalf("blur frames = %d, want 9", b.Frames())
	}

	for _, name := range []string{"identity", "freeze"} {
		if _, err := r.New(name, format, Params{}); err != nil {
			t.Fatalf("New(%s) = %v", name, err)
		}
	}
}

func TestRegistryErrors(t *testing.T) {
	r := DefaultRegistry()
	format := testFormat()

	if _, err := r.New("chorus", format, Params{}); !errors.Is(err, errUnknownEffect) {
		t.Fatalf("New(chorus) = %v", err)
	}

	e, err := r.New("scale", format, Params{Num: map[string]float64{"factor": -1}})
	if !errors.Is(err, pvs.ErrInvalidParameter) {
		t.Fatalf("New(scale, factor -1) = %v", err)
	}

	if e != nil {
		t.Fatalf("failed New returned %#v", e)
	}

	if _, err := r.New("scale", format, Params{Str: map[string]string{"formant": "x"}}); err == nil {
		t.Fatal("unknown formant mode accepted")
	}

	if err := r.Register("identity", r.Lookup("identity")); !errors.Is(err, errDuplicateEffect) {
		t.Fatalf("Register(duplicate) = %v", err)
	}

	if err := r.Register("", r.Lookup("identity")); err == nil {
		t.Fatal("empty name accepted")
	}

	if err := r.Register("none", nil); err == nil {
		t.Fatal("nil factory accepted")
	}

	defer func() {
		if recover() == nil {
			t.Fatal("MustRegister(duplicate) did not panic")
		}
	}()

	r.MustRegister("blur", r.Lookup("blur"))
}

func TestParams(t *testing.T) {
	var empty Params
	if got := empty.GetNum("x", 3); got != 3 {
		t.Fatalf("GetNum on empty = %v", got)
	}

	p := Params{Num: map[string]float64{"x": 2}, Str: map[string]string{"s": "v"}}
	if p.GetNum("x", 3) != 2 || p.GetStr("s", "d") != "v" || p.GetStr("t", "d") != "d" {
		t.Fatalf("unexpected lookups on %+v", p)
	}
}

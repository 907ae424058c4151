package effect

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cwbudde/algo-pvs/dsp/pvs"
)

// Chain runs effects in series. Intermediate results live in frames owned
// by the chain, so every stage sees distinct input and output frames.
type Chain struct {
	base

	stages []pvs.Effect
	tmp    [2]*pvs.Frame
}

// NewChain returns a chain of stages for format. An empty chain copies
// frames through.
func NewChain(format pvs.Format, stages ...pvs.Effect) (*Chain, error) {
	b, err := newBase(format)
	if err != nil {
		return nil, err
	}

	for i, st := range stages {
		if st == nil {
			return nil, fmt.Errorf("effect: chain stage %d: %w", i, pvs.ErrNotInitialized)
		}

		if f, ok := st.(interface{ Format() pvs.Format }); ok && f.Format() != format {
			return nil, fmt.Errorf("effect: chain stage %d: %w", i, pvs.ErrFormatMismatch)
		}
	}

	return &Chain{
		base:   b,
		stages: stages,
		tmp:    [2]*pvs.Frame{pvs.NewFrame(format), pvs.NewFrame(format)},
	}, nil
}

// Len returns the number of stages.
func (c *Chain) Len() int { return len(c.stages) }

// Stage returns stage i.
func (c *Chain) Stage(i int) pvs.Effect { return c.stages[i] }

// ProcessFrame runs src through every stage into dst.
func (c *Chain) ProcessFrame(dst, src *pvs.Frame) error {
	if err := c.check(dst, src); err != nil {
		return err
	}

	if len(c.stages) == 0 {
		return dst.CopyFrom(src)
	}

	cur := src
	last := len(c.stages) - 1

	for i, st := range c.stages {
		next := dst
		if i < last {
			next = c.tmp[i%2]
		}

		if err := st.ProcessFrame(next, cur); err != nil {
			return fmt.Errorf("effect: chain stage %d: %w", i, err)
		}

		cur = next
	}

	return nil
}

// Process runs src through the chain into the chain's output frame.
func (c *Chain) Process(src *pvs.Frame) (*pvs.Frame, error) {
	if err := c.ProcessFrame(c.out, src); err != nil {
		return nil, err
	}

	return c.out, nil
}

// Configure hands p to every configurable stage. Each stage reads only the
// parameters it knows.
func (c *Chain) Configure(p Params) error {
	var errs []error

	for _, st := range c.stages {
		if cf, ok := st.(Configurable); ok {
			errs = append(errs, cf.Configure(p))
		}
	}

	return errors.Join(errs...)
}

// NewChain builds the comma-separated effects in names, in order.
// Every stage receives the same parameters.
func (r *Registry) NewChain(names string, format pvs.Format, p Params) (*Chain, error) {
	var stages []pvs.Effect

	for _, name := range strings.Split(names, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		e, err := r.New(name, format, p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		stages = append(stages, e)
	}

	return NewChain(format, stages...)
}

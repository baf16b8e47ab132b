package model

import (
	"fmt"
	"math"
)

// Timing is a mean/stddev pair in milliseconds.
type Timing struct {
	Mean   int `json:"mean"`
	Stddev int `json:"stddev"`
}

func (t Timing) String() string {
	return fmt.Sprintf("%d±%d", t.Mean, t.Stddev)
}

// Score is the outcome of one or more compiler invocations.
type Score struct {
	Analyze  Timing `json:"analyze"`
	Generate Timing `json:"generate"`
	Compiled bool   `json:"compiled"`
}

// Metrics are the fitness inputs attached to a scored sample.
type Metrics struct {
	Analyze    Timing `json:"analyze"`
	Generate   Timing `json:"generate"`
	Successful bool   `json:"successful"`
	TextLength int    `json:"textLength"`
	NodeCount  int    `json:"nodeCount"`
}

// Value combines timings with the size penalty of the kernel.
func (m *Metrics) Value(k Kernel) float64 {
	if m.NodeCount == 0 {
		return 0
	}

	n := float64(m.NodeCount)

	return k.Weight(n) * float64(m.Analyze.Mean) * float64(m.Generate.Mean) * 10 / n
}

// Kernel maps a sample size to a weight.
type Kernel struct {
	Name string
	Fn   func(size float64) float64
}

// Weight evaluates the kernel. A kernel without a function weighs everything as 1.
func (k Kernel) Weight(size float64) float64 {
	if k.Fn == nil {
		return 1
	}

	return k.Fn(size)
}

// GaussianKernel is a normal density over (size-center)/width.
func GaussianKernel(center, width float64) Kernel {
	if width <= 0 {
		width = 1
	}

	norm := 1 / math.Sqrt(2*math.Pi)

	return Kernel{
		Name: fmt.Sprintf("gaussian(center=%g, width=%g)", center, width),
		Fn: func(size float64) float64 {
			x := (size - center) / width
			return norm * math.Exp(-x*x/2)
		},
	}
}

// FlatKernel disables the size penalty.
func FlatKernel() Kernel {
	return Kernel{Name: "flat", Fn: func(float64) float64 { return 1 }}
}

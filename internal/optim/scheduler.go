package optim

import (
	"fmt"
	"math"
)

// Scheduler adjusts an optimizer's learning rate over epochs. Step is
// called once per epoch after training.
type Scheduler interface {
	// Step advances the schedule by one epoch and applies the new rate.
	Step()

	// LastLR returns the rate most recently applied.
	LastLR() float32
}

// StepLR multiplies the learning rate by gamma every stepSize epochs.
type StepLR struct {
	opt      Optimizer
	baseLR   float32
	stepSize int
	gamma    float32
	epoch    int
}

// NewStepLR creates a staircase decay schedule.
func NewStepLR(opt Optimizer, stepSize int, gamma float32) *StepLR {
	if stepSize <= 0 {
		panic(fmt.Sprintf("optim: invalid step size %d", stepSize))
	}
	return &StepLR{opt: opt, baseLR: opt.LR(), stepSize: stepSize, gamma: gamma}
}

func (s *StepLR) Step() {
	s.epoch++
	factor := math.Pow(float64(s.gamma), float64(s.epoch/s.stepSize))
	s.opt.SetLR(s.baseLR * float32(factor))
}

func (s *StepLR) LastLR() float32 { return s.opt.LR() }

// ExponentialLR multiplies the learning rate by gamma every epoch.
type ExponentialLR struct {
	opt    Optimizer
	baseLR float32
	gamma  float32
	epoch  int
}

// NewExponentialLR creates a per-epoch exponential decay schedule.
func NewExponentialLR(opt Optimizer, gamma float32) *ExponentialLR {
	return &ExponentialLR{opt: opt, baseLR: opt.LR(), gamma: gamma}
}

func (s *ExponentialLR) Step() {
	s.epoch++
	s.opt.SetLR(s.baseLR * float32(math.Pow(float64(s.gamma), float64(s.epoch))))
}

func (s *ExponentialLR) LastLR() float32 { return s.opt.LR() }

// CosineAnnealingLR anneals the learning rate from its initial value to
// etaMin along a half cosine over tMax epochs, then holds etaMin.
type CosineAnnealingLR struct {
	opt    Optimizer
	baseLR float32
	etaMin float32
	tMax   int
	epoch  int
}

// NewCosineAnnealingLR creates a cosine annealing schedule.
func NewCosineAnnealingLR(opt Optimizer, tMax int, etaMin float32) *CosineAnnealingLR {
	if tMax <= 0 {
		panic(fmt.Sprintf("optim: invalid horizon %d", tMax))
	}
	return &CosineAnnealingLR{opt: opt, baseLR: opt.LR(), etaMin: etaMin, tMax: tMax}
}

func (s *CosineAnnealingLR) Step() {
	s.epoch++
	if s.epoch >= s.tMax {
		s.opt.SetLR(s.etaMin)
		return
	}
	cos := math.Cos(math.Pi * float64(s.epoch) / float64(s.tMax))
	lr := s.etaMin + (s.baseLR-s.etaMin)*float32((1+cos)/2)
	s.opt.SetLR(lr)
}

func (s *CosineAnnealingLR) LastLR() float32 { return s.opt.LR() }

package spectrum

import (
	"fmt"
	"sort"

	"golang.org/x/crypto/blake2b"
)

// CalibrationModel identifies the functional form an EnergyCalibration uses
// to map a channel index to an energy in keV.
type CalibrationModel int

const (
	// Invalid marks a calibration with no usable mapping.
	Invalid CalibrationModel = iota
	// Polynomial evaluates Energy(c) = sum(coefficients[i] * c^i).
	Polynomial
	// FullRangeFraction evaluates coefficients over the fraction c/NumChannels.
	FullRangeFraction
	// LowerChannelEdge gives the energy of each channel's lower edge directly.
	LowerChannelEdge
)

// SmMinChannels is the minimum channel count a calibration (and the gamma
// data it's attached to) must have to be considered valid.
const SmMinChannels = 2

// DeviationPair is a (energy, offset) non-linearity correction applied on
// top of the base model, sorted by energy ascending.
type DeviationPair struct {
	Energy float64
	Offset float64
}

// EnergyCalibration maps a channel index to an energy in keV. Instances are
// immutable and may be shared by reference across many records; replacing a
// record's calibration is always substitution of the whole handle, never an
// in-place mutation (see cleanup_after_load's dedup step).
type EnergyCalibration struct {
	Model          CalibrationModel
	Coefficients   []float64
	DeviationPairs []DeviationPair
	NumChannels    int
}

// Valid reports whether the calibration has a usable model, enough channels,
// and a monotone-increasing energy mapping over [0, NumChannels].
func (c *EnergyCalibration) Valid() bool {
	if c == nil || c.Model == Invalid {
		return false
	}
	if c.NumChannels < SmMinChannels {
		return false
	}
	prev := c.energyAt(0)
	for ch := 1; ch <= c.NumChannels; ch++ {
		e := c.energyAt(float64(ch))
		if e <= prev {
			return false
		}
		prev = e
	}
	return true
}

// Energy returns the energy in keV at the lower edge of channel ch,
// including any deviation-pair correction.
func (c *EnergyCalibration) Energy(ch float64) float64 {
	e := c.energyAt(ch)
	return e + c.deviationAt(e)
}

func (c *EnergyCalibration) energyAt(ch float64) float64 {
	switch c.Model {
	case Polynomial:
		e := 0.0
		p := 1.0
		for _, coef := range c.Coefficients {
			e += coef * p
			p *= ch
		}
		return e
	case FullRangeFraction:
		if c.NumChannels == 0 {
			return 0
		}
		frac := ch / float64(c.NumChannels)
		e := 0.0
		p := 1.0
		for _, coef := range c.Coefficients {
			e += coef * p
			p *= frac
		}
		return e
	case LowerChannelEdge:
		idx := int(ch)
		if idx < 0 {
			idx = 0
		}
		if idx >= len(c.Coefficients) {
			if len(c.Coefficients) == 0 {
				return 0
			}
			idx = len(c.Coefficients) - 1
		}
		return c.Coefficients[idx]
	default:
		return 0
	}
}

// deviationAt linearly interpolates the deviation-pair table at energy e.
func (c *EnergyCalibration) deviationAt(e float64) float64 {
	n := len(c.DeviationPairs)
	if n == 0 {
		return 0
	}
	if e <= c.DeviationPairs[0].Energy {
		return c.DeviationPairs[0].Offset
	}
	if e >= c.DeviationPairs[n-1].Energy {
		return c.DeviationPairs[n-1].Offset
	}
	for i := 1; i < n; i++ {
		if e <= c.DeviationPairs[i].Energy {
			lo, hi := c.DeviationPairs[i-1], c.DeviationPairs[i]
			span := hi.Energy - lo.Energy
			if span == 0 {
				return lo.Offset
			}
			frac := (e - lo.Energy) / span
			return lo.Offset + frac*(hi.Offset-lo.Offset)
		}
	}
	return c.DeviationPairs[n-1].Offset
}

// ConvertModel returns a new calibration expressing the same energy mapping
// in the given model. Polynomial and FullRangeFraction convert losslessly
// into each other by rescaling coefficients through NumChannels, and either
// converts losslessly into LowerChannelEdge by direct sampling. The reverse
// direction, LowerChannelEdge as the source, has no closed-form target
// since its edges carry no parametric relation to a low-degree model; that
// case returns an error instead of guessing a fit.
func (c *EnergyCalibration) ConvertModel(model CalibrationModel) (*EnergyCalibration, error) {
	if c.Model == model {
		return c, nil
	}

	switch {
	case c.Model == Polynomial && model == FullRangeFraction:
		n := float64(c.NumChannels)
		coeffs := make([]float64, len(c.Coefficients))
		p := 1.0
		for i, a := range c.Coefficients {
			coeffs[i] = a * p
			p *= n
		}
		return &EnergyCalibration{Model: FullRangeFraction, Coefficients: coeffs, DeviationPairs: c.DeviationPairs, NumChannels: c.NumChannels}, nil

	case c.Model == FullRangeFraction && model == Polynomial:
		if c.NumChannels == 0 {
			return nil, fmt.Errorf("convert calibration model: zero-channel FullRangeFraction calibration")
		}
		n := float64(c.NumChannels)
		coeffs := make([]float64, len(c.Coefficients))
		p := 1.0
		for i, b := range c.Coefficients {
			coeffs[i] = b / p
			p *= n
		}
		return &EnergyCalibration{Model: Polynomial, Coefficients: coeffs, DeviationPairs: c.DeviationPairs, NumChannels: c.NumChannels}, nil

	case model == LowerChannelEdge && c.Model != LowerChannelEdge:
		edges := make([]float64, c.NumChannels)
		for ch := 0; ch < c.NumChannels; ch++ {
			edges[ch] = c.Energy(float64(ch))
		}
		return &EnergyCalibration{Model: LowerChannelEdge, Coefficients: edges, NumChannels: c.NumChannels}, nil

	default:
		return nil, fmt.Errorf("convert calibration model: no closed-form conversion from model %d to %d", c.Model, model)
	}
}

// SortDeviationPairs orders the deviation pairs by energy ascending, as
// required by §3's EnergyCalibration invariant.
func SortDeviationPairs(pairs []DeviationPair) {
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Energy < pairs[j].Energy })
}

// calibrationFingerprint hashes a calibration's model, coefficients, channel
// count and deviation pairs so StandardCleanup can find structurally
// identical calibrations and collapse them onto one shared handle.
func calibrationFingerprint(c *EnergyCalibration) (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", fmt.Errorf("calibration fingerprint: %w", err)
	}
	fmt.Fprintf(h, "model=%d channels=%d", c.Model, c.NumChannels)
	for _, co := range c.Coefficients {
		fmt.Fprintf(h, "|c=%g", co)
	}
	for _, d := range c.DeviationPairs {
		fmt.Fprintf(h, "|d=%g,%g", d.Energy, d.Offset)
	}
	return string(h.Sum(nil)), nil
}

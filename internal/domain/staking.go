package domain

import "math"

// StakeLimits acota la recomendación de stake como fracción del bank.
type StakeLimits struct {
	KellyCap         float64
	MinStakeFraction float64 // 0.002 = 0.2%
	MaxStakeFraction float64 // 0.02 = 2%
}

// DefaultStakeLimits devuelve los límites por defecto (Kelly 25%, stake 0.2%–2%).
func DefaultStakeLimits() StakeLimits {
	return StakeLimits{
		KellyCap:         DefaultKellyCap,
		MinStakeFraction: 0.002,
		MaxStakeFraction: 0.02,
	}
}

// normalized rellena los campos sin fijar (<= 0) con los valores por defecto
// y garantiza min <= max.
func (l StakeLimits) normalized() StakeLimits {
	def := DefaultStakeLimits()
	if l.KellyCap <= 0 {
		l.KellyCap = def.KellyCap
	}
	if l.MaxStakeFraction <= 0 {
		l.MaxStakeFraction = def.MaxStakeFraction
	}
	if l.MinStakeFraction < 0 {
		l.MinStakeFraction = 0
	}
	if l.MinStakeFraction > l.MaxStakeFraction {
		l.MinStakeFraction = l.MaxStakeFraction
	}
	return l
}

// StakeAdvice es la recomendación de stake para una apuesta de valor.
type StakeAdvice struct {
	Bankroll      float64 `json:"bankroll"`
	KellyFraction float64 `json:"kelly_fraction"`
	Stake         float64 `json:"stake"`
	Clamped       bool    `json:"clamped"`
}

// RecommendStake aplica Kelly (recortado) al bank y acota el resultado a
// [min·bank, max·bank]. Un Kelly de 0 sigue devolviendo el stake mínimo.
// Los límites sin fijar toman los valores por defecto.
func RecommendStake(bankroll float64, c ValueCandidate, lim StakeLimits) StakeAdvice {
	lim = lim.normalized()
	f := KellyFraction(c.FairProbability, c.BestPrice, lim.KellyCap)
	raw := f * bankroll
	lo := lim.MinStakeFraction * bankroll
	hi := lim.MaxStakeFraction * bankroll

	stake := raw
	if stake < lo {
		stake = lo
	}
	if stake > hi {
		stake = hi
	}
	return StakeAdvice{
		Bankroll:      bankroll,
		KellyFraction: f,
		Stake:         math.Round(stake*100) / 100,
		Clamped:       stake != raw,
	}
}

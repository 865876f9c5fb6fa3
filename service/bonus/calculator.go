package bonus

import (
	"strconv"

	"github.com/ericlagergren/decimal"

	"github.com/dawita19/earnmax-sub001/config"
	"github.com/dawita19/earnmax-sub001/conv"
	"github.com/dawita19/earnmax-sub001/model"
)

// Calculator maps a source amount to per-level referral bonus amounts.
// Pure arithmetic, no storage and no side effects.
type Calculator struct {
	rates [model.MaxReferralDepth]*decimal.Big
}

// NewCalculator build a calculator from the configured per-level rates
func NewCalculator(cfg config.ReferralConfig) *Calculator {
	calc := &Calculator{}
	for i, rate := range cfg.Rates() {
		// format through a string so 0.20 stays exactly 0.20
		d, ok := conv.NewMoney().SetString(strconv.FormatFloat(rate, 'f', -1, 64))
		if !ok {
			d = conv.NewMoney()
		}
		calc.rates[i] = d
	}
	return calc
}

// Default the fixed production rates: L1 20%, L2 10%, L3 5%, L4 2%
func Default() *Calculator {
	return NewCalculator(config.ReferralConfig{L1: 0.20, L2: 0.10, L3: 0.05, L4: 0.02})
}

// Compute the bonus amounts for the first `levels` ancestor levels. Each
// amount is rounded half-up to two places independently; the rounded amounts
// are deliberately not re-normalized to sum to a theoretical total. Fewer
// than four ancestors is not an error, the fan-out just stops early.
func (calc *Calculator) Compute(sourceAmount *decimal.Big, levels int) []*decimal.Big {
	if sourceAmount == nil || levels <= 0 {
		return nil
	}
	if levels > model.MaxReferralDepth {
		levels = model.MaxReferralDepth
	}

	amounts := make([]*decimal.Big, 0, levels)
	for i := 0; i < levels; i++ {
		b := conv.NewMoney().Mul(sourceAmount, calc.rates[i])
		amounts = append(amounts, conv.RoundToMoney(b))
	}
	return amounts
}

// Rate the configured rate for a given level (1..4)
func (calc *Calculator) Rate(level int) *decimal.Big {
	if level < 1 || level > model.MaxReferralDepth {
		return conv.NewMoney()
	}
	return calc.rates[level-1]
}

package usecases

import (
	"math/big"
	"strconv"
	"strings"

	"swap-route.backend/internal/domain/errors"
)

// Amount helpers. The swap network requires the payer to send at least the
// minimum input amount: any figure surfaced as a "please send this much"
// instruction must round upward, never down, or the deposit is flagged
// incomplete and processing stalls. Everything here is integer arithmetic on
// decimal strings; floats would silently round both ways.

// parseDecimal splits a non-negative decimal string into integer and
// fractional digit strings. Rejects empty, signed, or non-numeric input.
func parseDecimal(amount string) (intPart, fracPart string, err error) {
	amount = strings.TrimSpace(amount)
	if amount == "" || strings.HasPrefix(amount, "-") || strings.HasPrefix(amount, "+") {
		return "", "", errors.ErrInvalidAmount
	}

	parts := strings.SplitN(amount, ".", 2)
	intPart = parts[0]
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" && fracPart == "" {
		return "", "", errors.ErrInvalidAmount
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if r < '0' || r > '9' {
			return "", "", errors.ErrInvalidAmount
		}
	}
	return intPart, fracPart, nil
}

// ToAtomicUnits converts a human-readable decimal amount into atomic units of
// a token with the given decimals. Fractional digits beyond decimals are
// truncated; use RoundUpToDecimals first for payer-facing amounts.
func ToAtomicUnits(amount string, decimals int) (string, error) {
	if decimals < 0 {
		return "", errors.ErrInvalidAmount
	}
	intPart, fracPart, err := parseDecimal(amount)
	if err != nil {
		return "", err
	}

	if len(fracPart) > decimals {
		fracPart = fracPart[:decimals]
	}
	for len(fracPart) < decimals {
		fracPart += "0"
	}

	atomic, ok := new(big.Int).SetString(intPart+fracPart, 10)
	if !ok {
		return "", errors.ErrInvalidAmount
	}
	return atomic.String(), nil
}

// FromAtomicUnits renders an atomic-unit amount as a decimal string
func FromAtomicUnits(atomic string, decimals int) (string, error) {
	n, ok := new(big.Int).SetString(atomic, 10)
	if !ok || n.Sign() < 0 || decimals < 0 {
		return "", errors.ErrInvalidAmount
	}
	if decimals == 0 {
		return n.String(), nil
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	q, r := new(big.Int).QuoRem(n, scale, new(big.Int))
	frac := strings.TrimRight(padLeft(r.String(), decimals), "0")
	if frac == "" {
		return q.String(), nil
	}
	return q.String() + "." + frac, nil
}

// RoundUpToDecimals rounds a decimal amount up (ceiling) at the given number
// of fractional places. The result is never below the exact amount and never
// more than one unit in the last place above it.
func RoundUpToDecimals(amount string, precision int) (string, error) {
	if precision < 0 {
		return "", errors.ErrInvalidAmount
	}
	intPart, fracPart, err := parseDecimal(amount)
	if err != nil {
		return "", err
	}

	if len(fracPart) <= precision {
		return joinDecimal(intPart, fracPart), nil
	}

	kept, dropped := fracPart[:precision], fracPart[precision:]
	if strings.Trim(dropped, "0") == "" {
		return joinDecimal(intPart, kept), nil
	}

	// Increment the kept digits as one integer at precision scale.
	scaled, ok := new(big.Int).SetString(intPart+padRight(kept, precision), 10)
	if !ok {
		return "", errors.ErrInvalidAmount
	}
	scaled.Add(scaled, big.NewInt(1))

	digits := padLeft(scaled.String(), precision+1)
	cut := len(digits) - precision
	return joinDecimal(digits[:cut], digits[cut:]), nil
}

// ApplyFeeBuffer multiplies an atomic amount by a safety multiplier (>= 1.0)
// and rounds the result up. Used on the companion second hop to absorb both
// hops' network fees and slippage.
func ApplyFeeBuffer(atomic string, multiplier float64) (string, error) {
	if multiplier < 1.0 {
		return "", errors.ErrInvalidAmount
	}
	amount, ok := new(big.Int).SetString(atomic, 10)
	if !ok || amount.Sign() < 0 {
		return "", errors.ErrInvalidAmount
	}

	rat, ok := new(big.Rat).SetString(strconv.FormatFloat(multiplier, 'f', -1, 64))
	if !ok {
		return "", errors.ErrInvalidAmount
	}

	product := new(big.Rat).Mul(new(big.Rat).SetInt(amount), rat)
	return ceilRat(product).String(), nil
}

// FiatToTokenAtomic converts a fiat amount into atomic destination-token
// units given the token's fiat price, rounding up at the token's decimals.
func FiatToTokenAtomic(fiatAmount, price string, decimals int) (string, error) {
	if decimals < 0 {
		return "", errors.ErrInvalidAmount
	}
	if _, _, err := parseDecimal(fiatAmount); err != nil {
		return "", err
	}
	if price == "" {
		return "", errors.ErrPriceUnavailable
	}
	if _, _, err := parseDecimal(price); err != nil {
		return "", errors.ErrPriceUnavailable
	}

	fiatRat, ok := new(big.Rat).SetString(fiatAmount)
	if !ok {
		return "", errors.ErrInvalidAmount
	}
	priceRat, ok := new(big.Rat).SetString(price)
	if !ok || priceRat.Sign() == 0 {
		return "", errors.ErrPriceUnavailable
	}

	tokens := new(big.Rat).Quo(fiatRat, priceRat)
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	atomic := new(big.Rat).Mul(tokens, new(big.Rat).SetInt(scale))
	return ceilRat(atomic).String(), nil
}

func ceilRat(r *big.Rat) *big.Int {
	q, rem := new(big.Int).QuoRem(r.Num(), r.Denom(), new(big.Int))
	if rem.Sign() > 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}

func joinDecimal(intPart, fracPart string) string {
	intPart = strings.TrimLeft(intPart, "0")
	if intPart == "" {
		intPart = "0"
	}
	fracPart = strings.TrimRight(fracPart, "0")
	if fracPart == "" {
		return intPart
	}
	return intPart + "." + fracPart
}

func padLeft(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return strings.Repeat("0", length-len(s)) + s
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat("0", length-len(s))
}

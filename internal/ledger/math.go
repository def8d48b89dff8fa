package ledger

import (
	"math"
	"math/bits"
)

// Checked uint64 arithmetic. Accumulator mutations must go through these so an
// overflowing operation aborts before any state is written.

func checkedAdd(a, b uint64) (uint64, error) {
	if b > math.MaxUint64-a {
		return 0, ErrOverflow
	}
	return a + b, nil
}

func checkedSub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrOverflow
	}
	return a - b, nil
}

func checkedMul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, ErrOverflow
	}
	return lo, nil
}

func checkedDiv(a, b uint64) (uint64, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	return a / b, nil
}

const bpsDenominator = 10_000

// bpsShare computes floor(amount * bps / 10000) in 128-bit intermediate
// precision. The truncation direction here is load-bearing: invest and
// create_campaign must agree byte for byte on how many tokens are reserved
// for the platform, and finalize must produce platform_share + creator_share
// == total_raised exactly.
func bpsShare(amount uint64, bps uint16) (uint64, error) {
	hi, lo := bits.Mul64(amount, uint64(bps))
	if hi >= bpsDenominator {
		return 0, ErrOverflow
	}
	q, _ := bits.Div64(hi, lo, bpsDenominator)
	return q, nil
}

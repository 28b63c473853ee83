package pricing

// Breakpointed is any tier keyed by the minimum magnitude at which it applies.
type Breakpointed interface {
	Breakpoint() int
}

// ResolveTier returns the tier with the largest breakpoint not exceeding
// magnitude. Input order does not matter; an empty set or a magnitude below
// every breakpoint yields false.
func ResolveTier[T Breakpointed](tiers []T, magnitude int) (T, bool) {
	var (
		best  T
		found bool
	)
	for _, tier := range tiers {
		bp := tier.Breakpoint()
		if bp > magnitude {
			continue
		}
		if !found || bp > best.Breakpoint() {
			best = tier
			found = true
		}
	}
	return best, found
}

// NextTier returns the tier with the smallest breakpoint strictly above
// magnitude, i.e. the next one a customer could reach.
func NextTier[T Breakpointed](tiers []T, magnitude int) (T, bool) {
	var (
		next  T
		found bool
	)
	for _, tier := range tiers {
		bp := tier.Breakpoint()
		if bp <= magnitude {
			continue
		}
		if !found || bp < next.Breakpoint() {
			next = tier
			found = true
		}
	}
	return next, found
}

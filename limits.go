package seekpager

const (
	MaxLimit     = 100
	DefaultLimit = 10
)

// IsNormalizedLimitMaxDefault normalizes limit against maxLimit and
// defaultLimit, reporting whether limit was already in range.
func IsNormalizedLimitMaxDefault(limit, maxLimit, defaultLimit int) (int, bool) {
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}

	if limit <= 0 {
		return defaultLimit, false
	} else if limit > maxLimit {
		return maxLimit, false
	}

	return limit, true
}

func NormalizeLimitMaxDefault(limit, maxLimit, defaultLimit int) int {
	ret, _ := IsNormalizedLimitMaxDefault(limit, maxLimit, defaultLimit)
	return ret
}

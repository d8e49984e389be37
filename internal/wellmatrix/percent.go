package wellmatrix

type percentConfig struct {
	decimals int
	round    bool
}

// PercentOption configures Percent and Aggregate.
type PercentOption func(*percentConfig)

// WithDecimals rounds the final percentages half-to-even at n decimal places.
func WithDecimals(n int) PercentOption {
	return func(c *percentConfig) {
		c.decimals = n
		c.round = true
	}
}

// Percent returns 100*filtered/total elementwise. Cells where total is 0
// are 0. Both matrices must share the same index.
func Percent(total, filtered Matrix, opts ...PercentOption) (Matrix, error) {
	var cfg percentConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	pct, err := zipWith("percent", total, filtered, func(den, num float64) float64 {
		if den == 0 {
			return 0
		}
		return 100 * num / den
	})
	if err != nil {
		return Matrix{}, err
	}
	if cfg.round {
		pct = pct.Round(cfg.decimals)
	}
	return pct, nil
}

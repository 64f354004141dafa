package generator

// Config drives the synthetic submission generator.
type Config struct {
	NumSubmissions int
	// BusinessChance is the probability that a party is a Business.
	BusinessChance float64
	// LegacyDateChance is the probability of emitting d/M/yyyy instead of datetime-local.
	LegacyDateChance float64
	// NumericAmountChance is the probability of emitting amounts as JSON numbers.
	NumericAmountChance float64
	DaysBack            int
	Seed                int64
}

// DefaultConfig returns baseline settings for a local seed file.
func DefaultConfig() Config {
	return Config{
		NumSubmissions:      500,
		BusinessChance:      0.2,
		LegacyDateChance:    0.5,
		NumericAmountChance: 0.3,
		DaysBack:            90,
		Seed:                42,
	}
}

package ranking

import "fmt"

const (
	// DefaultPrefilterWindow is how many jobs with the largest skill overlap
	// are kept for scoring.
	DefaultPrefilterWindow = 20
	// DefaultResultWindow is how many ranked results a batch returns.
	DefaultResultWindow = 10
	// DefaultConcurrency is how many jobs are scored in parallel.
	DefaultConcurrency = 8
)

// Config contains settings consumed by the stages.
type Config struct {
	// PrefilterWindow is how many jobs survive the overlap pre-filter.
	PrefilterWindow int `mapstructure:"prefilter-window"`
	// ResultWindow is how many results are returned.
	ResultWindow int `mapstructure:"result-window"`
	// Concurrency bounds parallel scoring.
	Concurrency int `mapstructure:"concurrency"`

	ExcludeCompanies []string `mapstructure:"exclude-companies"`
	ExcludeJobs      []string `mapstructure:"exclude-jobs"`

	// Disable lists optional stages to skip, e.g. "prefilter".
	Disable []string `mapstructure:"disable"`
}

// DefaultConfig returns the established windows.
func DefaultConfig() Config {
	return Config{
		PrefilterWindow: DefaultPrefilterWindow,
		ResultWindow:    DefaultResultWindow,
		Concurrency:     DefaultConcurrency,
	}
}

func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("ranking configuration is required")
	}
	if c.PrefilterWindow <= 0 {
		return fmt.Errorf("prefilter window must be positive, got %d", c.PrefilterWindow)
	}
	if c.ResultWindow <= 0 {
		return fmt.Errorf("result window must be positive, got %d", c.ResultWindow)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	return nil
}

package loadgen

import (
	"fmt"
	"time"
)

// Config holds configuration for a load run.
type Config struct {
	BaseURL  string        // Base URL of the service
	Counters int           // Number of counters to create
	Requests int           // Total increments spread across the counters
	Workers  int           // Maximum in-flight requests
	Timeout  time.Duration // HTTP request timeout
	Prefix   string        // Name prefix for generated counters
	Keep     bool          // Skip deleting the counters after the run
	Verbose  bool          // Log every failed request
}

// Validate reports the first unusable field.
func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("%w: base url is required", ErrInvalidConfig)
	case c.Counters < 1:
		return fmt.Errorf("%w: counters must be positive", ErrInvalidConfig)
	case c.Requests < 0:
		return fmt.Errorf("%w: requests must not be negative", ErrInvalidConfig)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	case c.Timeout <= 0:
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// Stats holds run statistics.
type Stats struct {
	CountersCreated   int
	CountersDeleted   int
	RequestsSent      int
	RequestsSucceeded int
	RequestsFailed    int
	ObservedTotal     int64
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}

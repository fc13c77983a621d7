// Package detector sends camera frames to a face-expression service and
// reports the strongest expression as an emotion.
package detector

import "time"

// DefaultTimeout bounds one detection request.
const DefaultTimeout = 5 * time.Second

// Config holds detector service configuration. An empty Endpoint means no
// detector is available.
type Config struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

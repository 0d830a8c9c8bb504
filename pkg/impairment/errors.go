package impairment

import (
	"fmt"

	"github.com/openimpair/controlplane/pkg/distribution"
)

// InvalidDistributionError is returned by setDistribution/config validation
// when the supplied variant is outside the impairment's allowed set. It
// carries the allowed set so callers can report it without a
// second round trip.
type InvalidDistributionError struct {
	Impairment Kind
	Got        distribution.Variant
	Allowed    []distribution.Variant
}

func (e *InvalidDistributionError) Error() string {
	return fmt.Sprintf("impairment %s: distribution %s not allowed, must be one of %v", e.Impairment, e.Got, e.Allowed)
}

// DistributionNotSetError is returned by start()/set() when the config has
// no currentDistribution.
type DistributionNotSetError struct {
	Impairment Kind
}

func (e *DistributionNotSetError) Error() string {
	return fmt.Sprintf("impairment %s: start/apply called without a current distribution", e.Impairment)
}

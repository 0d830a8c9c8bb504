package resource

import (
	"fmt"

	"github.com/openimpair/controlplane/pkg/transport"
)

// MutualExclusionError is returned by PortManager.Set when a PortConfig
// would enable both link-flap and PMA-error-pulse injection at once. This
// module enforces the exclusion before any I/O rather than letting the
// device silently pick a winner.
type MutualExclusionError struct {
	Port transport.ResourceRef
}

func (e *MutualExclusionError) Error() string {
	return fmt.Sprintf("port %s: linkFlap and pmaErrorPulse cannot both be enabled", e.Port)
}

// ReservationLostError is returned by a Set call when the session no
// longer holds the resource's reservation — another session has since
// reserved it out from under the caller.
type ReservationLostError struct {
	Port transport.ResourceRef
}

func (e *ReservationLostError) Error() string {
	return fmt.Sprintf("port %s: reservation lost to another session", e.Port)
}

// InvalidChimeraResourceError signals that a caller selected the wrong
// resource kind for an operation scoped to a specific chassis product line.
// Kept general (not literally Chimera-only) since this module's
// resource hierarchy is product-agnostic.
type InvalidChimeraResourceError struct {
	Kind string // "module" | "port"
}

func (e *InvalidChimeraResourceError) Error() string {
	return fmt.Sprintf("resource: invalid selection for %s", e.Kind)
}

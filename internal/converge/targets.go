package converge

import (
	"time"

	"nathanbeddoewebdev/provctl/internal/domain"
)

// BuildComplete waits for handles to report ACTIVE, failing on ERROR.
func BuildComplete(handles []domain.Handle, interval time.Duration, maxAttempts int) Target {
	return Target{
		Handles:       handles,
		SuccessStates: []string{domain.StatusActive},
		FailureStates: []string{domain.StatusError},
		PollInterval:  interval,
		MaxAttempts:   maxAttempts,
	}
}

// AddressesAssigned waits until every handle has at least one network
// address, failing on ERROR. Address assignment and build completion
// settle independently; neither implies the other.
func AddressesAssigned(handles []domain.Handle, interval time.Duration, maxAttempts int) Target {
	return Target{
		Handles:       handles,
		Ready:         HasAddress,
		FailureStates: []string{domain.StatusError},
		PollInterval:  interval,
		MaxAttempts:   maxAttempts,
	}
}

// VolumeDeletable waits for volumes to become available or error, both
// of which accept a delete call.
func VolumeDeletable(handles []domain.Handle, interval time.Duration, maxAttempts int) Target {
	return Target{
		Handles:       handles,
		SuccessStates: []string{domain.StatusAvailable, domain.StatusVolError},
		PollInterval:  interval,
		MaxAttempts:   maxAttempts,
	}
}

// VolumeAttached waits for volumes to report in-use.
func VolumeAttached(handles []domain.Handle, interval time.Duration, maxAttempts int) Target {
	return Target{
		Handles:       handles,
		SuccessStates: []string{domain.StatusInUse},
		FailureStates: []string{domain.StatusVolError},
		PollInterval:  interval,
		MaxAttempts:   maxAttempts,
	}
}

// HasAddress reports whether a handle has a public or private address.
func HasAddress(h domain.Handle) bool {
	if h.Attr(domain.AttrPublicIPv4) != "" || h.Attr(domain.AttrPublicIPv6) != "" || h.Attr(domain.AttrPrivateIPv4) != "" {
		return true
	}
	n, ok := h.Int(domain.AttrNetworks)
	return ok && n > 0
}

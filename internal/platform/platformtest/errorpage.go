package platformtest

import (
	"context"
	"fmt"

	"nathanbeddoewebdev/provctl/internal/domain"
	"nathanbeddoewebdev/provctl/internal/platform"
)

var _ domain.ErrorPageSetter = (*ErrorPageCloud)(nil)

// ErrorPageCloud is a Cloud whose load balancers accept a custom error
// page. Setting one puts the load balancer back into PENDING_UPDATE
// until it has been read SettleAfter more times.
type ErrorPageCloud struct {
	*Cloud
	pages map[string]string
}

func NewErrorPageCloud(c *Cloud) *ErrorPageCloud {
	return &ErrorPageCloud{Cloud: c, pages: map[string]string{}}
}

// Context wires the wrapper in as the load balancer API.
func (c *ErrorPageCloud) Context() *platform.Context {
	pc := c.Cloud.Context()
	pc.LoadBalancers = c
	return pc
}

func (c *ErrorPageCloud) SetErrorPage(_ context.Context, id string, html string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("SetErrorPage", id); err != nil {
		return err
	}
	r, ok := c.resources[id]
	if !ok || r.h.Kind != domain.KindLoadBalancer {
		return &domain.APIError{Op: "SetErrorPage", Err: fmt.Errorf("load balancer %s: %w", id, domain.ErrNotFound)}
	}
	c.pages[id] = html
	c.transition(id, domain.StatusPendingUpdate, domain.StatusActive, nil)
	return nil
}

// ErrorPage returns the page set on load balancer id.
func (c *ErrorPageCloud) ErrorPage(id string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	html, ok := c.pages[id]
	return html, ok
}

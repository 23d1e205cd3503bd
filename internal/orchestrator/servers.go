package orchestrator

import (
	"context"
	"fmt"
	"strconv"

	"nathanbeddoewebdev/provctl/internal/converge"
	"nathanbeddoewebdev/provctl/internal/domain"
	"nathanbeddoewebdev/provctl/internal/util"
)

// WaitMode selects what BuildServers waits for.
type WaitMode int

const (
	// WaitAddresses returns once every server has a network address.
	WaitAddresses WaitMode = iota

	// WaitBuild returns once every server is ACTIVE.
	WaitBuild
)

// ParseWaitMode accepts "addresses" or "build".
func ParseWaitMode(s string) (WaitMode, error) {
	switch s {
	case "", "addresses":
		return WaitAddresses, nil
	case "build":
		return WaitBuild, nil
	}
	return 0, fmt.Errorf("unknown wait mode %q (want addresses or build)", s)
}

// BatchSpec describes a batch of identical servers.
type BatchSpec struct {
	BaseName string
	Count    int

	ServerType string
	Image      string
	Location   string
	NetworkIDs []string
	SSHKeys    []string
	Labels     map[string]string
}

// InstanceNames returns the server names for a batch: [base] for n == 1,
// otherwise base1..baseN.
func InstanceNames(base string, n int) ([]string, error) {
	if n < 1 {
		return nil, fmt.Errorf("instance count must be at least 1, got %d", n)
	}
	if n == 1 {
		return []string{base}, nil
	}
	names := make([]string, n)
	for i := range names {
		names[i] = base + strconv.Itoa(i+1)
	}
	return names, nil
}

// BuildServers creates the batch one server at a time, then waits for the
// whole batch at once. Root passwords returned at creation are carried
// over to the refreshed handles.
func (o *Orchestrator) BuildServers(ctx context.Context, spec BatchSpec, wait WaitMode) ([]domain.Handle, error) {
	if o.pc.Servers == nil {
		return nil, missing("server")
	}
	names, err := InstanceNames(spec.BaseName, spec.Count)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		if err := util.ValidateServerName(name); err != nil {
			return nil, err
		}
	}

	created := make([]domain.Handle, 0, len(names))
	for _, name := range names {
		h, err := o.pc.Servers.CreateServer(ctx, domain.CreateServerOpts{
			Name:       name,
			ServerType: o.orDefault(spec.ServerType, o.opts.ServerType),
			Image:      o.orDefault(spec.Image, o.opts.Image),
			Location:   o.orDefault(spec.Location, o.opts.Location),
			NetworkIDs: spec.NetworkIDs,
			SSHKeys:    spec.SSHKeys,
			Labels:     spec.Labels,
		})
		if err != nil {
			return created, fmt.Errorf("create server %q: %w", name, err)
		}
		o.emit("servers", "created server %s (%s)", name, h.ID)
		created = append(created, h)
	}

	target := converge.AddressesAssigned
	what := "addresses"
	if wait == WaitBuild {
		target = converge.BuildComplete
		what = "build"
	}
	o.emit("servers", "waiting for %d server(s) to finish %s", len(created), what)

	ready, err := o.await(ctx, "servers", domain.KindServer, target, created)
	if err != nil {
		return created, err
	}
	for i := range ready {
		ready[i] = carryRootPassword(ready[i], created[i])
	}
	return ready, nil
}

// CloneResult is the outcome of CloneServer.
type CloneResult struct {
	Image  domain.Handle
	Server domain.Handle
}

// CloneServer snapshots a server, waits for the image, boots a new server
// named name from it and waits for its addresses. An empty name uses
// "<source>-clone".
func (o *Orchestrator) CloneServer(ctx context.Context, serverID, name string) (*CloneResult, error) {
	if o.pc.Servers == nil || o.pc.Images == nil {
		return nil, missing("server and image")
	}

	source, err := o.pc.Servers.GetServer(ctx, serverID)
	if err != nil {
		return nil, fmt.Errorf("get source server: %w", err)
	}
	if name == "" {
		name = source.Name + "-clone"
	}
	if err := util.ValidateServerName(name); err != nil {
		return nil, err
	}

	image, err := o.pc.Images.CreateImageFromServer(ctx, source.ID, name+"-image")
	if err != nil {
		return nil, fmt.Errorf("create image from %s: %w", source, err)
	}
	o.emit("image", "creating image %s from %s", image.ID, source.Name)

	images, err := o.await(ctx, "image", domain.KindImage, converge.BuildComplete, []domain.Handle{image})
	if err != nil {
		return &CloneResult{Image: image}, err
	}
	result := &CloneResult{Image: images[0]}

	server, err := o.pc.Servers.CreateServer(ctx, domain.CreateServerOpts{
		Name:       name,
		ServerType: o.orDefault(source.Attr("server_type"), o.opts.ServerType),
		Image:      images[0].ID,
		Location:   o.orDefault(source.Attr("location"), o.opts.Location),
	})
	if err != nil {
		return result, fmt.Errorf("create server %q: %w", name, err)
	}
	o.emit("clone", "created server %s (%s) from image %s", name, server.ID, images[0].ID)
	result.Server = server

	servers, err := o.await(ctx, "clone", domain.KindServer, converge.AddressesAssigned, []domain.Handle{server})
	if err != nil {
		return result, err
	}
	result.Server = carryRootPassword(servers[0], server)
	return result, nil
}

// carryRootPassword copies the root password, only ever reported at
// creation, from created onto a refreshed handle.
func carryRootPassword(refreshed, created domain.Handle) domain.Handle {
	pw := created.Attr(domain.AttrRootPassword)
	if pw == "" {
		return refreshed
	}
	out := refreshed.Clone()
	if out.Attributes == nil {
		out.Attributes = map[string]any{}
	}
	out.Attributes[domain.AttrRootPassword] = pw
	return out
}

// EnsureSSHKey makes publicKey available to new servers and returns the
// account key holding it. An identical key already on the account is
// reused under its existing name.
func (o *Orchestrator) EnsureSSHKey(ctx context.Context, name, publicKey string) (domain.Handle, error) {
	if o.pc.SSHKeys == nil {
		return domain.Handle{}, missing("ssh key")
	}
	h, err := o.pc.SSHKeys.EnsureSSHKey(ctx, name, publicKey)
	if err != nil {
		return domain.Handle{}, fmt.Errorf("ensure ssh key %q: %w", name, err)
	}
	o.emit("ssh-key", "using ssh key %s (%s)", h.Name, h.ID)
	return h, nil
}

// Package platformtest provides in-memory providers for tests.
//
// Cloud implements every per-kind API. Resources it creates start in a
// transitional status and settle after a configurable number of reads,
// which lets convergence waits run against it with a zero poll interval.
package platformtest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"sync"

	"nathanbeddoewebdev/provctl/internal/domain"
	"nathanbeddoewebdev/provctl/internal/platform"
)

type resource struct {
	h          domain.Handle
	reads      int
	settleAt   int
	settleTo   string
	onSettle   func(*domain.Handle)
	containers map[string][]byte
}

// Cloud is an in-memory compute, storage and database provider.
type Cloud struct {
	mu        sync.Mutex
	calls     []string
	nextID    int
	resources map[string]*resource
	order     []string

	// SettleAfter is how many reads a transitional resource needs.
	// Zero means the first read settles it.
	SettleAfter int

	// Fail names resources that settle into a failure status.
	Fail map[string]bool

	// Errors makes the named operation ("DeleteServer", ...) fail.
	Errors map[string]error

	lastLB domain.CreateLoadBalancerOpts
	lastDB domain.CreateDatabaseOpts
}

// NewCloud returns an empty Cloud.
func NewCloud() *Cloud {
	return &Cloud{resources: map[string]*resource{}, Fail: map[string]bool{}, Errors: map[string]error{}}
}

// Context returns a platform.Context with every field except DNS backed
// by c.
func (c *Cloud) Context() *platform.Context {
	return &platform.Context{
		Servers:       c,
		LoadBalancers: c,
		Volumes:       c,
		Networks:      c,
		Images:        c,
		Certificates:  c,
		SSHKeys:       c,
		Containers:    c,
		Databases:     c,
	}
}

// Calls returns the operations performed so far, as "Op name".
func (c *Cloud) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.calls)
}

// CallsTo returns the calls to op, in order.
func (c *Cloud) CallsTo(op string) []string {
	var out []string
	for _, call := range c.Calls() {
		if strings.HasPrefix(call, op+" ") {
			out = append(out, call)
		}
	}
	return out
}

// Seed adds an existing resource in its settled state.
func (c *Cloud) Seed(h domain.Handle) domain.Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case h.ID != "":
	case h.Kind == domain.KindContainer:
		h.ID = h.Name
	default:
		c.nextID++
		h.ID = strconv.Itoa(c.nextID)
	}
	if h.Attributes == nil {
		h.Attributes = map[string]any{}
	}
	r := &resource{h: h}
	if h.Kind == domain.KindContainer {
		r.containers = map[string][]byte{}
	}
	c.resources[h.ID] = r
	c.order = append(c.order, h.ID)
	return h.Clone()
}

// SeedObject stores an object in a seeded container.
func (c *Cloud) SeedObject(container, key, body string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resources[container].containers[key] = []byte(body)
}

// Object returns a stored object body.
func (c *Cloud) Object(container, key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.resources[container]
	if !ok {
		return "", false
	}
	b, ok := r.containers[key]
	return string(b), ok
}

// Status returns the current status of id without counting as a read.
func (c *Cloud) Status(id string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.resources[id]; ok {
		return r.h.Status
	}
	return ""
}

// Exists reports whether a resource with id is still present.
func (c *Cloud) Exists(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.resources[id]
	return ok
}

func (c *Cloud) record(op, name string) error {
	c.calls = append(c.calls, op+" "+name)
	return c.Errors[op]
}

func (c *Cloud) create(op string, kind domain.Kind, name, initial, settled string, attrs map[string]any) (domain.Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record(op, name); err != nil {
		return domain.Handle{}, err
	}
	c.nextID++
	id := strconv.Itoa(c.nextID)
	if kind == domain.KindContainer {
		id = name
	}
	if attrs == nil {
		attrs = map[string]any{}
	}
	h := domain.Handle{ID: id, Kind: kind, Name: name, Status: initial, Attributes: attrs}
	r := &resource{h: h, settleAt: c.SettleAfter + 1, settleTo: settled}
	if c.Fail[name] {
		r.settleTo = failureStatus(kind)
	}
	c.resources[id] = r
	c.order = append(c.order, id)
	return h.Clone(), nil
}

func failureStatus(kind domain.Kind) string {
	if kind == domain.KindVolume {
		return domain.StatusVolError
	}
	return domain.StatusError
}

// transition puts a resource back into a transitional status.
func (c *Cloud) transition(id, status, settled string, onSettle func(*domain.Handle)) {
	r := c.resources[id]
	r.h.Status = status
	r.reads = 0
	r.settleAt = c.SettleAfter + 1
	r.settleTo = settled
	r.onSettle = onSettle
}

func (c *Cloud) get(op string, kind domain.Kind, id string) (domain.Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.Errors[op]; err != nil {
		return domain.Handle{}, err
	}
	r, ok := c.resources[id]
	if !ok || r.h.Kind != kind {
		return domain.Handle{}, &domain.APIError{Op: op, Err: fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)}
	}
	r.reads++
	if r.settleTo != "" && r.reads >= r.settleAt {
		r.h.Status = r.settleTo
		r.settleTo = ""
		if r.onSettle != nil {
			r.onSettle(&r.h)
			r.onSettle = nil
		}
		if kind == domain.KindServer && r.h.Status == domain.StatusActive {
			r.h.Attributes[domain.AttrPublicIPv4] = "203.0.113." + id
		}
	}
	if kind == domain.KindContainer {
		r.h.Attributes[domain.AttrObjectCount] = len(r.containers)
	}
	return r.h.Clone(), nil
}

func (c *Cloud) list(op string, kind domain.Kind) ([]domain.Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record(op, ""); err != nil {
		return nil, err
	}
	var out []domain.Handle
	for _, id := range c.order {
		if r, ok := c.resources[id]; ok && r.h.Kind == kind {
			h := r.h.Clone()
			delete(h.Attributes, domain.AttrObjectCount)
			out = append(out, h)
		}
	}
	return out, nil
}

func (c *Cloud) remove(op string, kind domain.Kind, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.resources[id]
	name := id
	if ok {
		name = r.h.Name
	}
	if err := c.record(op, name); err != nil {
		return err
	}
	if !ok || r.h.Kind != kind {
		return &domain.APIError{Op: op, Err: fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)}
	}
	delete(c.resources, id)
	return nil
}

// --- servers ---

func (c *Cloud) CreateServer(_ context.Context, opts domain.CreateServerOpts) (domain.Handle, error) {
	attrs := map[string]any{
		"server_type":       opts.ServerType,
		"location":          opts.Location,
		"image":             opts.Image,
		domain.AttrNetworks: len(opts.NetworkIDs),
	}
	if len(opts.SSHKeys) == 0 {
		attrs[domain.AttrRootPassword] = "pw-" + opts.Name
	}
	return c.create("CreateServer", domain.KindServer, opts.Name, domain.StatusBuild, domain.StatusActive, attrs)
}

func (c *Cloud) GetServer(_ context.Context, id string) (domain.Handle, error) {
	h, err := c.get("GetServer", domain.KindServer, id)
	delete(h.Attributes, domain.AttrRootPassword)
	return h, err
}

func (c *Cloud) ListServers(context.Context) ([]domain.Handle, error) {
	return c.list("ListServers", domain.KindServer)
}

func (c *Cloud) DeleteServer(_ context.Context, id string) error {
	return c.remove("DeleteServer", domain.KindServer, id)
}

// --- load balancers ---

// LastLoadBalancer holds the options of the most recent create.
func (c *Cloud) LastLoadBalancer() domain.CreateLoadBalancerOpts {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastLB
}

func (c *Cloud) CreateLoadBalancer(_ context.Context, opts domain.CreateLoadBalancerOpts) (domain.Handle, error) {
	c.mu.Lock()
	c.lastLB = opts
	c.mu.Unlock()
	attrs := map[string]any{domain.AttrVIPv4: "198.51.100.10"}
	return c.create("CreateLoadBalancer", domain.KindLoadBalancer, opts.Name, domain.StatusPendingUpdate, domain.StatusActive, attrs)
}

func (c *Cloud) GetLoadBalancer(_ context.Context, id string) (domain.Handle, error) {
	return c.get("GetLoadBalancer", domain.KindLoadBalancer, id)
}

func (c *Cloud) ListLoadBalancers(context.Context) ([]domain.Handle, error) {
	return c.list("ListLoadBalancers", domain.KindLoadBalancer)
}

func (c *Cloud) DeleteLoadBalancer(_ context.Context, id string) error {
	return c.remove("DeleteLoadBalancer", domain.KindLoadBalancer, id)
}

func (c *Cloud) SetHealthMonitor(_ context.Context, id string, monitor domain.HealthMonitor) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("SetHealthMonitor", fmt.Sprintf("%s %s:%d", id, monitor.Type, monitor.Port)); err != nil {
		return err
	}
	c.transition(id, domain.StatusPendingUpdate, domain.StatusActive, nil)
	return nil
}

// --- volumes ---

func (c *Cloud) CreateVolume(_ context.Context, opts domain.CreateVolumeOpts) (domain.Handle, error) {
	return c.create("CreateVolume", domain.KindVolume, opts.Name, domain.StatusCreating, domain.StatusAvailable, map[string]any{"size_gb": opts.SizeGB})
}

func (c *Cloud) GetVolume(_ context.Context, id string) (domain.Handle, error) {
	return c.get("GetVolume", domain.KindVolume, id)
}

func (c *Cloud) ListVolumes(context.Context) ([]domain.Handle, error) {
	return c.list("ListVolumes", domain.KindVolume)
}

func (c *Cloud) DeleteVolume(_ context.Context, id string) error {
	return c.remove("DeleteVolume", domain.KindVolume, id)
}

func (c *Cloud) AttachVolume(_ context.Context, volumeID, serverID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("AttachVolume", volumeID+" "+serverID); err != nil {
		return err
	}
	c.transition(volumeID, domain.StatusCreating, domain.StatusInUse, func(h *domain.Handle) {
		h.Attributes["server_id"] = serverID
	})
	return nil
}

// SetVolumeStatus forces a volume into status, settling to settled after
// SettleAfter+1 reads.
func (c *Cloud) SetVolumeStatus(id, status, settled string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transition(id, status, settled, nil)
}

// --- networks ---

func (c *Cloud) CreateNetwork(_ context.Context, opts domain.CreateNetworkOpts) (domain.Handle, error) {
	return c.create("CreateNetwork", domain.KindNetwork, opts.Name, domain.StatusActive, domain.StatusActive,
		map[string]any{domain.AttrIsolated: true, "cidr": opts.CIDR})
}

func (c *Cloud) GetNetwork(_ context.Context, id string) (domain.Handle, error) {
	return c.get("GetNetwork", domain.KindNetwork, id)
}

func (c *Cloud) ListNetworks(context.Context) ([]domain.Handle, error) {
	return c.list("ListNetworks", domain.KindNetwork)
}

func (c *Cloud) DeleteNetwork(_ context.Context, id string) error {
	return c.remove("DeleteNetwork", domain.KindNetwork, id)
}

// --- images ---

func (c *Cloud) CreateImageFromServer(_ context.Context, serverID, name string) (domain.Handle, error) {
	return c.create("CreateImageFromServer", domain.KindImage, name, domain.StatusBuild, domain.StatusActive,
		map[string]any{domain.AttrImageType: "snapshot", "source": serverID})
}

func (c *Cloud) GetImage(_ context.Context, id string) (domain.Handle, error) {
	return c.get("GetImage", domain.KindImage, id)
}

func (c *Cloud) ListImages(context.Context) ([]domain.Handle, error) {
	return c.list("ListImages", domain.KindImage)
}

func (c *Cloud) DeleteImage(_ context.Context, id string) error {
	return c.remove("DeleteImage", domain.KindImage, id)
}

// --- certificates ---

func (c *Cloud) UploadCertificate(_ context.Context, opts domain.UploadCertificateOpts) (domain.Handle, error) {
	if opts.CertificatePEM == "" || opts.PrivateKeyPEM == "" {
		return domain.Handle{}, fmt.Errorf("certificate material is required")
	}
	return c.create("UploadCertificate", domain.KindCertificate, opts.Name, domain.StatusActive, "", nil)
}

func (c *Cloud) ListCertificates(context.Context) ([]domain.Handle, error) {
	return c.list("ListCertificates", domain.KindCertificate)
}

func (c *Cloud) DeleteCertificate(_ context.Context, id string) error {
	return c.remove("DeleteCertificate", domain.KindCertificate, id)
}

// --- ssh keys ---

// EnsureSSHKey matches on the exact key string.
func (c *Cloud) EnsureSSHKey(_ context.Context, name, publicKey string) (domain.Handle, error) {
	c.mu.Lock()
	for _, id := range c.order {
		r, ok := c.resources[id]
		if ok && r.h.Kind == domain.KindSSHKey && r.h.Attr("public_key") == publicKey {
			c.calls = append(c.calls, "EnsureSSHKey "+name)
			c.mu.Unlock()
			return r.h.Clone(), nil
		}
	}
	c.mu.Unlock()
	return c.create("EnsureSSHKey", domain.KindSSHKey, name, domain.StatusActive, "",
		map[string]any{"public_key": publicKey})
}

// --- containers ---

func (c *Cloud) CreateContainer(ctx context.Context, name string) (domain.Handle, error) {
	if c.Exists(name) {
		c.mu.Lock()
		c.calls = append(c.calls, "CreateContainer "+name)
		c.mu.Unlock()
		return c.GetContainer(ctx, name)
	}
	h, err := c.create("CreateContainer", domain.KindContainer, name, domain.StatusActive, "", nil)
	if err == nil {
		c.mu.Lock()
		c.resources[name].containers = map[string][]byte{}
		c.mu.Unlock()
	}
	return h, err
}

func (c *Cloud) GetContainer(_ context.Context, name string) (domain.Handle, error) {
	return c.get("GetContainer", domain.KindContainer, name)
}

func (c *Cloud) ListContainers(context.Context) ([]domain.Handle, error) {
	return c.list("ListContainers", domain.KindContainer)
}

func (c *Cloud) ListObjects(_ context.Context, container string) ([]domain.Object, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("ListObjects", container); err != nil {
		return nil, err
	}
	r, ok := c.resources[container]
	if !ok {
		return nil, fmt.Errorf("container %s: %w", container, domain.ErrNotFound)
	}
	var out []domain.Object
	for key, body := range r.containers {
		out = append(out, domain.Object{Key: key, Size: int64(len(body))})
	}
	slices.SortFunc(out, func(a, b domain.Object) int { return strings.Compare(a.Key, b.Key) })
	return out, nil
}

func (c *Cloud) PutObject(_ context.Context, container, key string, body io.Reader, contentType string) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("PutObject", container+"/"+key+" "+contentType); err != nil {
		return err
	}
	r, ok := c.resources[container]
	if !ok {
		return fmt.Errorf("container %s: %w", container, domain.ErrNotFound)
	}
	r.containers[key] = buf.Bytes()
	return nil
}

func (c *Cloud) DeleteObject(_ context.Context, container, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("DeleteObject", container+"/"+key); err != nil {
		return err
	}
	if r, ok := c.resources[container]; ok {
		delete(r.containers, key)
	}
	return nil
}

func (c *Cloud) DeleteContainer(_ context.Context, name string) error {
	return c.remove("DeleteContainer", domain.KindContainer, name)
}

func (c *Cloud) EnableWebsite(_ context.Context, name, indexKey, errorKey string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("EnableWebsite", name+" "+indexKey+" "+errorKey); err != nil {
		return "", err
	}
	return name + ".website.example.net", nil
}

// --- databases ---

// LastDatabase holds the options of the most recent database create.
func (c *Cloud) LastDatabase() domain.CreateDatabaseOpts {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastDB
}

func (c *Cloud) CreateDatabase(_ context.Context, opts domain.CreateDatabaseOpts) (domain.Handle, error) {
	c.mu.Lock()
	c.lastDB = opts
	c.mu.Unlock()
	return c.create("CreateDatabase", domain.KindDatabase, opts.Name, domain.StatusBuild, domain.StatusActive,
		map[string]any{domain.AttrEndpoint: opts.Name + ".db.example.net:3306"})
}

func (c *Cloud) GetDatabase(_ context.Context, id string) (domain.Handle, error) {
	return c.get("GetDatabase", domain.KindDatabase, id)
}

func (c *Cloud) ListDatabases(context.Context) ([]domain.Handle, error) {
	return c.list("ListDatabases", domain.KindDatabase)
}

func (c *Cloud) DeleteDatabase(_ context.Context, id string) error {
	return c.remove("DeleteDatabase", domain.KindDatabase, id)
}

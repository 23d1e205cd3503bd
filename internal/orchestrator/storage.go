package orchestrator

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	dnsdomain "nathanbeddoewebdev/provctl/internal/dns/domain"
	"nathanbeddoewebdev/provctl/internal/dns/services"
	"nathanbeddoewebdev/provctl/internal/domain"
)

// IndexKey is the object served at a static site's root.
const IndexKey = "index.html"

// SiteSpec describes a static website served from a container.
type SiteSpec struct {
	FQDN string

	// Container defaults to FQDN.
	Container string

	Index     io.Reader
	ErrorPage io.Reader
}

// Site is the result of BuildSite.
type Site struct {
	Container   string
	WebsiteHost string
	DNS         *services.Resolution
}

// BuildSite creates a container, uploads the index (and error) page,
// enables website hosting and points a CNAME for FQDN at it.
func (o *Orchestrator) BuildSite(ctx context.Context, spec SiteSpec) (*Site, error) {
	if o.pc.Containers == nil {
		return nil, missing("object storage")
	}
	if o.resolver == nil {
		return nil, missing("DNS")
	}
	if err := services.ValidateHostname(spec.FQDN); err != nil {
		return nil, fmt.Errorf("fqdn: %w", err)
	}
	if spec.Index == nil {
		return nil, fmt.Errorf("an index page is required")
	}
	fqdn := strings.ToLower(strings.TrimSuffix(spec.FQDN, "."))
	name := spec.Container
	if name == "" {
		name = fqdn
	}

	if _, err := o.pc.Containers.CreateContainer(ctx, name); err != nil {
		return nil, err
	}
	site := &Site{Container: name}
	o.emit("site", "created container %s", name)

	if err := o.pc.Containers.PutObject(ctx, name, IndexKey, spec.Index, "text/html"); err != nil {
		return site, err
	}
	errorKey := ""
	if spec.ErrorPage != nil {
		errorKey = ErrorPageKey
		if err := o.pc.Containers.PutObject(ctx, name, errorKey, spec.ErrorPage, "text/html"); err != nil {
			return site, err
		}
	}

	host, err := o.pc.Containers.EnableWebsite(ctx, name, IndexKey, errorKey)
	if err != nil {
		return site, err
	}
	site.WebsiteHost = host
	o.emit("site", "website enabled at %s", host)

	res, err := o.resolver.Resolve(ctx, services.ResolutionRequest{
		FQDN:  fqdn,
		Type:  dnsdomain.RecordTypeCNAME,
		Value: host,
	})
	if err != nil {
		return site, err
	}
	site.DNS = res
	o.emit("dns", "added CNAME %s -> %s", fqdn, host)
	return site, nil
}

// UploadResult counts what Upload transferred.
type UploadResult struct {
	Container string
	Files     int
	Bytes     int64
}

// Upload copies every regular file under dir into container, keyed by
// its slash-separated path relative to dir. The container is created
// when it does not exist.
func (o *Orchestrator) Upload(ctx context.Context, dir, container string) (*UploadResult, error) {
	if o.pc.Containers == nil {
		return nil, missing("object storage")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	if _, err := o.pc.Containers.GetContainer(ctx, container); err != nil {
		if !domain.IsNotFound(err) {
			return nil, err
		}
		if _, err := o.pc.Containers.CreateContainer(ctx, container); err != nil {
			return nil, err
		}
		o.emit("upload", "created container %s", container)
	}

	result := &UploadResult{Container: container}
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)

		n, err := o.uploadFile(ctx, container, key, p)
		if err != nil {
			return fmt.Errorf("upload %s: %w", key, err)
		}
		result.Files++
		result.Bytes += n
		o.emit("upload", "uploaded %s (%d bytes)", key, n)
		return nil
	})
	return result, err
}

func (o *Orchestrator) uploadFile(ctx context.Context, container, key, p string) (int64, error) {
	f, err := os.Open(p)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := o.pc.Containers.PutObject(ctx, container, key, f, contentType); err != nil {
		return 0, err
	}
	return info.Size(), nil
}

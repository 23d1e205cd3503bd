// Package stackfile reads YAML descriptions of a load-balanced topology.
//
//	fqdn: www.example.com
//	servers:
//	  name: web
//	  count: 2
//	network: true
//	tls: true
//	error_page: error.html
//	backup_error_page: true
//	volume_size_gb: 100
//
// A relative error_page path is resolved against the stack file's
// directory.
package stackfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"nathanbeddoewebdev/provctl/internal/orchestrator"

	"gopkg.in/yaml.v3"
)

// Stack is the file format.
type Stack struct {
	FQDN            string  `yaml:"fqdn"`
	Servers         Servers `yaml:"servers"`
	Network         bool    `yaml:"network"`
	TLS             bool    `yaml:"tls"`
	ErrorPage       string  `yaml:"error_page"`
	BackupErrorPage bool    `yaml:"backup_error_page"`
	VolumeSizeGB    int     `yaml:"volume_size_gb"`
}

// Servers describes the server batch. Empty fields fall back to the
// configured defaults.
type Servers struct {
	Name     string            `yaml:"name"`
	Count    int               `yaml:"count"`
	Type     string            `yaml:"type"`
	Image    string            `yaml:"image"`
	Location string            `yaml:"location"`
	SSHKeys  []string          `yaml:"ssh_keys"`
	Labels   map[string]string `yaml:"labels"`
}

// Load reads and parses the stack file at path.
func Load(path string) (*Stack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("stackfile: %w", err)
	}
	s, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("stackfile %s: %w", path, err)
	}
	if s.ErrorPage != "" && !filepath.IsAbs(s.ErrorPage) {
		s.ErrorPage = filepath.Join(filepath.Dir(path), s.ErrorPage)
	}
	return s, nil
}

// Parse decodes one stack document. Unknown keys are rejected.
func Parse(r io.Reader) (*Stack, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Stack
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty stack file")
		}
		return nil, err
	}
	if s.FQDN == "" {
		return nil, fmt.Errorf("fqdn is required")
	}
	if s.Servers.Count == 0 {
		s.Servers.Count = 1
	}
	return &s, nil
}

// Spec converts the stack into a TopologySpec. ErrorPage is read from
// disk. The result is validated.
func (s *Stack) Spec() (orchestrator.TopologySpec, error) {
	spec := orchestrator.TopologySpec{
		FQDN: s.FQDN,
		Servers: orchestrator.BatchSpec{
			BaseName:   s.Servers.Name,
			Count:      s.Servers.Count,
			ServerType: s.Servers.Type,
			Image:      s.Servers.Image,
			Location:   s.Servers.Location,
			SSHKeys:    s.Servers.SSHKeys,
			Labels:     s.Servers.Labels,
		},
		Network:         s.Network,
		TLS:             s.TLS,
		BackupErrorPage: s.BackupErrorPage,
		VolumeSizeGB:    s.VolumeSizeGB,
	}
	if s.ErrorPage != "" {
		body, err := os.ReadFile(s.ErrorPage)
		if err != nil {
			return orchestrator.TopologySpec{}, fmt.Errorf("error page: %w", err)
		}
		spec.ErrorPage = string(body)
	}
	if err := spec.Validate(); err != nil {
		return orchestrator.TopologySpec{}, err
	}
	return spec, nil
}

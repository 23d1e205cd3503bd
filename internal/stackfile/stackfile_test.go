package stackfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nathanbeddoewebdev/provctl/internal/orchestrator"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoad_FullStack(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "oops.html", "<h1>down</h1>")
	path := writeFile(t, dir, "stack.yaml", `
fqdn: www.example.com
servers:
  name: web
  count: 2
  type: cx32
  ssh_keys: [deploy]
  labels:
    env: prod
network: true
tls: true
error_page: oops.html
backup_error_page: true
volume_size_gb: 200
`)

	stack, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	spec, err := stack.Spec()
	if err != nil {
		t.Fatalf("Spec() error = %v", err)
	}

	want := orchestrator.TopologySpec{
		FQDN: "www.example.com",
		Servers: orchestrator.BatchSpec{
			BaseName:   "web",
			Count:      2,
			ServerType: "cx32",
			SSHKeys:    []string{"deploy"},
			Labels:     map[string]string{"env": "prod"},
		},
		Network:         true,
		TLS:             true,
		ErrorPage:       "<h1>down</h1>",
		BackupErrorPage: true,
		VolumeSizeGB:    200,
	}
	if diff := cmp.Diff(want, spec); diff != "" {
		t.Errorf("Spec() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_DefaultsToOneServer(t *testing.T) {
	stack, err := Parse(strings.NewReader("fqdn: app.example.com\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if stack.Servers.Count != 1 {
		t.Errorf("Count = %d, want 1", stack.Servers.Count)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{name: "empty", input: "", wantErr: "empty stack file"},
		{name: "missing fqdn", input: "tls: true\n", wantErr: "fqdn is required"},
		{name: "unknown key", input: "fqdn: a.example.com\nreplicas: 3\n", wantErr: "replicas"},
		{name: "bad type", input: "fqdn: a.example.com\nvolume_size_gb: lots\n", wantErr: "lots"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestSpec_Validates(t *testing.T) {
	stack := &Stack{FQDN: "a.example.com", Servers: Servers{Count: 1}, VolumeSizeGB: 10}
	if _, err := stack.Spec(); err == nil || !strings.Contains(err.Error(), "volume size") {
		t.Errorf("Spec() error = %v, want volume size error", err)
	}
}

func TestSpec_MissingErrorPage(t *testing.T) {
	stack := &Stack{FQDN: "a.example.com", Servers: Servers{Count: 1}, ErrorPage: filepath.Join(t.TempDir(), "nope.html")}
	if _, err := stack.Spec(); err == nil {
		t.Error("expected error for missing error page file")
	}
}

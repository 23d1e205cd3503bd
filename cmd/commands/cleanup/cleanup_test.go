package cleanup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"nathanbeddoewebdev/provctl/cmd/commands/cmdutil"
	"nathanbeddoewebdev/provctl/internal/config"
	"nathanbeddoewebdev/provctl/internal/domain"
	"nathanbeddoewebdev/provctl/internal/journal"
	"nathanbeddoewebdev/provctl/internal/platform"
	"nathanbeddoewebdev/provctl/internal/platform/platformtest"
	"nathanbeddoewebdev/provctl/internal/services/auth"
)

type fixture struct {
	cloud       *platformtest.Cloud
	dns         *platformtest.DNS
	journalPath string

	web, db, other domain.Handle
}

func setup(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		cloud:       platformtest.NewCloud(),
		dns:         platformtest.NewDNS("example.com"),
		journalPath: filepath.Join(dir, "journal.db"),
	}
	f.web = f.cloud.Seed(domain.Handle{Kind: domain.KindServer, Name: "demo-web1", Status: domain.StatusActive})
	f.other = f.cloud.Seed(domain.Handle{Kind: domain.KindServer, Name: "prod-web1", Status: domain.StatusActive})
	f.db = f.cloud.Seed(domain.Handle{Kind: domain.KindDatabase, Name: "demo-db", Status: domain.StatusActive})

	config.SetPath(filepath.Join(dir, "config.json"))
	t.Cleanup(config.ResetPath)

	origBuild, origStore, origJournal := cmdutil.BuildPlatform, cmdutil.Store, cmdutil.OpenJournal
	t.Cleanup(func() {
		cmdutil.BuildPlatform, cmdutil.Store, cmdutil.OpenJournal = origBuild, origStore, origJournal
	})
	cmdutil.BuildPlatform = func(_ context.Context, _ config.Config, _ auth.Store, logger *slog.Logger) (*platform.Context, error) {
		pc := f.cloud.Context()
		pc.DNS = f.dns
		pc.Logger = logger
		return pc, nil
	}
	cmdutil.Store = func() auth.Store { return auth.NewMockStore() }
	cmdutil.OpenJournal = func() (journal.Repository, error) { return journal.OpenAt(f.journalPath) }
	return f
}

func (f *fixture) lastEntry(t *testing.T) journal.Entry {
	t.Helper()
	repo, err := journal.OpenAt(f.journalPath)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer repo.Close()
	entries, err := repo.List(1)
	if err != nil || len(entries) != 1 {
		t.Fatalf("list journal = %v, %v", entries, err)
	}
	return entries[0]
}

func execCleanup(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	cmd := NewCommand()
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

func TestCleanup_FlagValidation(t *testing.T) {
	setup(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "neither", args: []string{"--yes"}, want: "at least one of the flags"},
		{name: "both", args: []string{"--prefix", "demo", "--all"}, want: "none of the others can be"},
		{name: "empty prefix", args: []string{"--prefix", " "}, want: "must not be empty"},
		{name: "unknown skip", args: []string{"--prefix", "demo", "--skip", "buckets"}, want: "unknown resource kind"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execCleanup(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestCleanup_DryRun(t *testing.T) {
	f := setup(t)

	stdout, _, err := execCleanup(t, "--prefix", "demo", "--dry-run")
	if err != nil {
		t.Fatalf("cleanup error = %v", err)
	}

	for _, want := range []string{`server "demo-web1"`, `database "demo-db"`, "Summary: 2 would delete"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}
	if strings.Contains(stdout, "prod-web1") {
		t.Errorf("non-matching server listed:\n%s", stdout)
	}
	if !f.cloud.Exists(f.web.ID) || !f.cloud.Exists(f.db.ID) {
		t.Error("dry run deleted resources")
	}
	if got := f.lastEntry(t).Resources; got != "would_delete=2" {
		t.Errorf("journal resources = %q", got)
	}
}

func TestCleanup_Yes(t *testing.T) {
	f := setup(t)

	stdout, _, err := execCleanup(t, "--prefix", "demo", "--yes")
	if err != nil {
		t.Fatalf("cleanup error = %v", err)
	}

	if f.cloud.Exists(f.web.ID) || f.cloud.Exists(f.db.ID) {
		t.Error("matching resources still exist")
	}
	if !f.cloud.Exists(f.other.ID) {
		t.Error("non-matching server was deleted")
	}
	if !strings.Contains(stdout, "Summary: 2 deleted") {
		t.Errorf("stdout = %s", stdout)
	}
	if got := f.lastEntry(t); got.Command != "cleanup" || got.Resources != "deleted=2" || got.Outcome != journal.OutcomeSuccess {
		t.Errorf("journal entry = %+v", got)
	}
}

func TestCleanup_RefusesWithoutTerminal(t *testing.T) {
	f := setup(t)

	_, _, err := execCleanup(t, "--prefix", "demo")
	if err == nil || !strings.Contains(err.Error(), "refusing to delete 2 resource(s) without --yes") {
		t.Fatalf("error = %v", err)
	}
	if !f.cloud.Exists(f.web.ID) {
		t.Error("server was deleted without confirmation")
	}
	if len(f.cloud.CallsTo("DeleteServer")) != 0 {
		t.Errorf("delete calls = %v", f.cloud.CallsTo("DeleteServer"))
	}
}

func TestCleanup_NothingToDelete(t *testing.T) {
	setup(t)

	stdout, _, err := execCleanup(t, "--prefix", "staging")
	if err != nil {
		t.Fatalf("cleanup error = %v", err)
	}
	if !strings.Contains(stdout, "Nothing to delete.") {
		t.Errorf("stdout = %s", stdout)
	}
}

func TestCleanup_FailuresContinueAndFail(t *testing.T) {
	f := setup(t)
	f.cloud.Errors["DeleteServer"] = errors.New("server is locked")

	stdout, _, err := execCleanup(t, "--prefix", "demo", "--yes")
	if err == nil || !strings.Contains(err.Error(), "1 cleanup step(s) failed") {
		t.Fatalf("error = %v", err)
	}
	if !strings.Contains(stdout, "server is locked") {
		t.Errorf("failure not reported:\n%s", stdout)
	}
	if f.cloud.Exists(f.db.ID) {
		t.Error("sweep stopped after the failed server delete")
	}
	if got := f.lastEntry(t); got.Outcome != journal.OutcomeError || got.Resources != "deleted=1 failed=1" {
		t.Errorf("journal entry = %+v", got)
	}
}

func TestCleanup_Skip(t *testing.T) {
	f := setup(t)

	if _, _, err := execCleanup(t, "--prefix", "demo", "--yes", "--skip", "servers"); err != nil {
		t.Fatalf("cleanup error = %v", err)
	}
	if !f.cloud.Exists(f.web.ID) {
		t.Error("skipped server was deleted")
	}
	if f.cloud.Exists(f.db.ID) {
		t.Error("database was not deleted")
	}
}

func TestCleanup_SkipEverything(t *testing.T) {
	f := setup(t)

	stdout, _, err := execCleanup(t, "--prefix", "demo", "--yes",
		"--skip", "servers,files,dns,loadbalancers,certificates,images,databases,volumes,networks")
	if err != nil {
		t.Fatalf("cleanup error = %v", err)
	}
	if !strings.Contains(stdout, "Nothing matched.") {
		t.Errorf("stdout = %s", stdout)
	}
	if !f.cloud.Exists(f.web.ID) || !f.cloud.Exists(f.db.ID) {
		t.Error("resources deleted although every kind was skipped")
	}
}

func TestCleanup_JSON(t *testing.T) {
	setup(t)

	stdout, _, err := execCleanup(t, "--all", "--dry-run", "--skip", "dns", "-o", "json")
	if err != nil {
		t.Fatalf("cleanup error = %v", err)
	}

	var views []outcomeView
	if err := json.Unmarshal([]byte(stdout), &views); err != nil {
		t.Fatalf("decode: %v\n%s", err, stdout)
	}
	var names []string
	for _, v := range views {
		if v.Action != "would delete" {
			t.Errorf("unexpected action %+v", v)
		}
		names = append(names, v.Name)
	}
	if got := strings.Join(names, ","); got != "demo-web1,prod-web1,demo-db" {
		t.Errorf("names = %q", got)
	}
}

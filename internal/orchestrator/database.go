package orchestrator

import (
	"context"
	"fmt"

	"nathanbeddoewebdev/provctl/internal/converge"
	"nathanbeddoewebdev/provctl/internal/domain"
	"nathanbeddoewebdev/provctl/internal/util"
)

// Database size bounds in GB. RDS rejects less than 20 GB of storage for
// the MySQL and PostgreSQL engines.
const (
	MinDatabaseSizeGB = 20
	MaxDatabaseSizeGB = 150
	passwordLength    = 10
)

// DatabaseSpec describes a hosted database instance with one schema and
// one user.
type DatabaseSpec struct {
	Name          string
	DBName        string
	Username      string
	SizeGB        int
	Engine        string
	InstanceClass string
}

// DatabaseResult carries the generated password, which is shown once.
type DatabaseResult struct {
	Instance domain.Handle
	Password string
}

// BuildDatabase creates the instance with a random password and waits
// for it to become ACTIVE.
func (o *Orchestrator) BuildDatabase(ctx context.Context, spec DatabaseSpec) (*DatabaseResult, error) {
	if o.pc.Databases == nil {
		return nil, missing("database")
	}
	if spec.SizeGB < MinDatabaseSizeGB || spec.SizeGB > MaxDatabaseSizeGB {
		return nil, fmt.Errorf("database size must be between %d and %d GB, got %d", MinDatabaseSizeGB, MaxDatabaseSizeGB, spec.SizeGB)
	}
	if spec.Name == "" || spec.DBName == "" || spec.Username == "" {
		return nil, fmt.Errorf("instance name, database name and user are required")
	}

	password, err := util.RandomString(passwordLength, util.Alphanumeric)
	if err != nil {
		return nil, err
	}

	instance, err := o.pc.Databases.CreateDatabase(ctx, domain.CreateDatabaseOpts{
		Name:          spec.Name,
		Engine:        spec.Engine,
		InstanceClass: spec.InstanceClass,
		SizeGB:        spec.SizeGB,
		DBName:        spec.DBName,
		Username:      spec.Username,
		Password:      password,
	})
	if err != nil {
		return nil, err
	}
	o.emit("database", "creating database instance %s", instance.Name)

	result := &DatabaseResult{Instance: instance, Password: password}
	ready, err := o.await(ctx, "database", domain.KindDatabase, converge.BuildComplete, []domain.Handle{instance})
	if err != nil {
		return result, err
	}
	result.Instance = ready[0]
	return result, nil
}

// Package dbaas manages hosted database instances on Amazon RDS.
package dbaas

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"nathanbeddoewebdev/provctl/internal/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"
	"github.com/aws/smithy-go"
)

// Defaults applied when CreateDatabaseOpts leaves a field empty.
const (
	DefaultEngine        = "mysql"
	DefaultInstanceClass = "db.t3.micro"
)

// rdsAPI is the subset of the RDS client used here.
type rdsAPI interface {
	CreateDBInstance(ctx context.Context, params *rds.CreateDBInstanceInput, optFns ...func(*rds.Options)) (*rds.CreateDBInstanceOutput, error)
	DescribeDBInstances(ctx context.Context, params *rds.DescribeDBInstancesInput, optFns ...func(*rds.Options)) (*rds.DescribeDBInstancesOutput, error)
	DeleteDBInstance(ctx context.Context, params *rds.DeleteDBInstanceInput, optFns ...func(*rds.Options)) (*rds.DeleteDBInstanceOutput, error)
}

var _ domain.DatabaseAPI = (*RDS)(nil)

// RDS implements domain.DatabaseAPI. Instances are identified by their
// DBInstanceIdentifier.
type RDS struct {
	client rdsAPI
}

// New creates an RDS service from an AWS config.
func New(cfg aws.Config) *RDS {
	return &RDS{client: rds.NewFromConfig(cfg)}
}

// CreateDatabase creates an instance with one schema and one master user.
func (r *RDS) CreateDatabase(ctx context.Context, opts domain.CreateDatabaseOpts) (domain.Handle, error) {
	if opts.Password == "" {
		return domain.Handle{}, fmt.Errorf("create database %q: password is required", opts.Name)
	}
	engine := opts.Engine
	if engine == "" {
		engine = DefaultEngine
	}
	class := opts.InstanceClass
	if class == "" {
		class = DefaultInstanceClass
	}

	in := &rds.CreateDBInstanceInput{
		DBInstanceIdentifier: aws.String(opts.Name),
		Engine:               aws.String(engine),
		DBInstanceClass:      aws.String(class),
		AllocatedStorage:     aws.Int32(int32(opts.SizeGB)),
		MasterUsername:       aws.String(opts.Username),
		MasterUserPassword:   aws.String(opts.Password),
	}
	if opts.DBName != "" {
		in.DBName = aws.String(opts.DBName)
	}

	out, err := r.client.CreateDBInstance(ctx, in)
	if err != nil {
		return domain.Handle{}, mapError("create database", err)
	}
	if out.DBInstance == nil {
		return domain.Handle{Kind: domain.KindDatabase, ID: opts.Name, Name: opts.Name, Status: domain.StatusBuild}, nil
	}
	return toHandle(out.DBInstance), nil
}

func (r *RDS) GetDatabase(ctx context.Context, id string) (domain.Handle, error) {
	out, err := r.client.DescribeDBInstances(ctx, &rds.DescribeDBInstancesInput{
		DBInstanceIdentifier: aws.String(id),
	})
	if err != nil {
		return domain.Handle{}, mapError("get database", err)
	}
	if len(out.DBInstances) == 0 {
		return domain.Handle{}, &domain.APIError{Op: "get database", Err: fmt.Errorf("database %s: %w", id, domain.ErrNotFound)}
	}
	return toHandle(&out.DBInstances[0]), nil
}

func (r *RDS) ListDatabases(ctx context.Context) ([]domain.Handle, error) {
	var handles []domain.Handle
	p := rds.NewDescribeDBInstancesPaginator(r.client, &rds.DescribeDBInstancesInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, mapError("list databases", err)
		}
		for i := range page.DBInstances {
			handles = append(handles, toHandle(&page.DBInstances[i]))
		}
	}
	return handles, nil
}

// DeleteDatabase deletes an instance without a final snapshot.
func (r *RDS) DeleteDatabase(ctx context.Context, id string) error {
	_, err := r.client.DeleteDBInstance(ctx, &rds.DeleteDBInstanceInput{
		DBInstanceIdentifier: aws.String(id),
		SkipFinalSnapshot:    aws.Bool(true),
	})
	if err != nil {
		return mapError("delete database", err)
	}
	return nil
}

// instanceStatus normalises RDS instance states.
func instanceStatus(s string) string {
	switch {
	case s == "available":
		return domain.StatusActive
	case s == "deleting":
		return domain.StatusDeleted
	case s == "failed", s == "storage-full", strings.HasPrefix(s, "incompatible-"),
		s == "inaccessible-encryption-credentials":
		return domain.StatusError
	}
	return domain.StatusBuild
}

func toHandle(db *rdstypes.DBInstance) domain.Handle {
	raw := aws.ToString(db.DBInstanceStatus)
	attrs := map[string]any{
		domain.AttrProviderStatus: raw,
	}
	if db.Engine != nil {
		attrs["engine"] = *db.Engine
	}
	if db.DBInstanceClass != nil {
		attrs["instance_class"] = *db.DBInstanceClass
	}
	if db.AllocatedStorage != nil {
		attrs["size_gb"] = int(*db.AllocatedStorage)
	}
	if db.DBName != nil {
		attrs["db_name"] = *db.DBName
	}
	if db.Endpoint != nil && db.Endpoint.Address != nil {
		attrs[domain.AttrEndpoint] = fmt.Sprintf("%s:%d", *db.Endpoint.Address, aws.ToInt32(db.Endpoint.Port))
	}

	id := aws.ToString(db.DBInstanceIdentifier)
	return domain.Handle{
		ID:         id,
		Kind:       domain.KindDatabase,
		Name:       id,
		Status:     instanceStatus(raw),
		Attributes: attrs,
	}
}

func mapError(op string, err error) error {
	var sentinel error

	var notFound *rdstypes.DBInstanceNotFoundFault
	var exists *rdstypes.DBInstanceAlreadyExistsFault
	var invalidState *rdstypes.InvalidDBInstanceStateFault
	var apiErr smithy.APIError
	switch {
	case errors.As(err, &notFound):
		sentinel = domain.ErrNotFound
	case errors.As(err, &exists), errors.As(err, &invalidState):
		sentinel = domain.ErrConflict
	case errors.As(err, &apiErr):
		switch apiErr.ErrorCode() {
		case "DBInstanceNotFound":
			sentinel = domain.ErrNotFound
		case "AccessDenied", "InvalidClientTokenId", "UnrecognizedClientException":
			sentinel = domain.ErrUnauthorized
		case "Throttling", "ThrottlingException":
			sentinel = domain.ErrRateLimited
		}
	}
	if sentinel != nil {
		err = fmt.Errorf("%w: %w", sentinel, err)
	}
	return &domain.APIError{Op: op, Err: err}
}

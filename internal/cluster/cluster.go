package cluster

import (
	"context"
)

// Quota is a resource guarantee registered on the cluster for one role.
type Quota struct {
	Role  string
	CPUs  float64
	GPUs  float64
	MemMB float64
}

// Repository is an entry of the cluster's package repository list.
type Repository struct {
	Name string
	URI  string
}

// InstallRequest describes a single package installation.
//
// Wait controls whether the call blocks until the scheduler reports the
// service healthy. Submitting with Wait false returns as soon as the
// control plane accepts the request.
type InstallRequest struct {
	PackageName string
	ServiceName string
	Options     map[string]any
	Wait        bool
}

type Client interface {
	InstallCLI(ctx context.Context, packageName string) error
	InstallPackage(ctx context.Context, req InstallRequest) error

	ListQuotas(ctx context.Context) ([]Quota, error)
	CreateQuota(ctx context.Context, role string, cpus, gpus, memMB float64) error
	RemoveQuota(ctx context.Context, role string) error

	ListRepositories(ctx context.Context) ([]Repository, error)
	AddRepository(ctx context.Context, name string, uri string) error
}

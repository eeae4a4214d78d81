package deploy

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// QuotaSpec is the resource guarantee requested for one role.
type QuotaSpec struct {
	CPUs  float64
	GPUs  float64
	MemMB float64
}

// reconcileQuota registers the quota for role, replacing any existing one.
// Quota creation is not idempotent on the control plane, so an existing
// registration for the role has to be removed first.
func (d *Deployer) reconcileQuota(ctx context.Context, role string, spec QuotaSpec) error {
	quotas, err := d.Cluster.ListQuotas(ctx)
	if err != nil {
		return errors.Wrap(err, "checking existing quotas")
	}

	for _, quota := range quotas {
		if quota.Role != role {
			continue
		}

		d.Log.Info("removing existing quota", zap.String("role", role))

		if err := d.Cluster.RemoveQuota(ctx, role); err != nil {
			return errors.Wrap(err, "removing previous quota")
		}

		break
	}

	if err := d.Cluster.CreateQuota(ctx, role, spec.CPUs, spec.GPUs, spec.MemMB); err != nil {
		return errors.Wrapf(err, "registering quota for %s", role)
	}

	d.Log.Info("quota created",
		zap.String("role", role),
		zap.Float64("cpus", spec.CPUs),
		zap.Float64("gpus", spec.GPUs),
		zap.Float64("mem", spec.MemMB),
	)

	return nil
}

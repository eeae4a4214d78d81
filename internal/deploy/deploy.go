package deploy

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mesoslab/dispatcher-deploy/internal/cluster"
	"github.com/mesoslab/dispatcher-deploy/internal/event"
	"github.com/mesoslab/dispatcher-deploy/internal/metric"
	"github.com/mesoslab/dispatcher-deploy/internal/naming"
	"github.com/mesoslab/dispatcher-deploy/internal/options"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrNegativeCount is returned when a deployment asks for less than zero
// dispatchers. Zero is legal and deploys nothing.
var ErrNegativeCount = errors.New("number of dispatchers must not be negative")

// Request describes one deployment run.
type Request struct {
	NumDispatchers  int
	ServiceNameBase string

	PackageName string
	// PackageRepo, when set, is registered as a package repository before
	// the first install that needs it.
	PackageRepo string

	CreateQuotas   bool
	DriversQuota   QuotaSpec
	ExecutorsQuota QuotaSpec

	// Options is the shared base configuration. Each instance gets its own
	// deep copy, the shared document is never mutated.
	Options options.Options
}

type DeployOpts struct {
	Log     *zap.Logger
	Cluster cluster.Client
	Records *RecordWriter

	// Events and Metrics are optional. Failures on either are logged and
	// never abort the run.
	Events  event.Publisher
	Metrics *metric.WriteSession
}

type Deployer struct {
	runID uuid.UUID

	DeployOpts
}

func New(opts DeployOpts) *Deployer {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}

	return &Deployer{runID: uuid.New(), DeployOpts: opts}
}

// Deploy submits req.NumDispatchers dispatcher services sequentially and
// records one output line per accepted install. Installs are fire and
// forget: acceptance by the control plane ends this run's responsibility.
//
// The first failure aborts the run. Everything submitted before it stays
// submitted and stays recorded.
func (d *Deployer) Deploy(ctx context.Context, req Request) error {
	if req.NumDispatchers < 0 {
		return ErrNegativeCount
	}

	d.Log.Info("deployment started",
		zap.String("runID", d.runID.String()),
		zap.Int("dispatchers", req.NumDispatchers),
		zap.String("package", req.PackageName),
	)

	start := time.Now()

	if err := d.Cluster.InstallCLI(ctx, req.PackageName); err != nil {
		return errors.Wrap(err, "bootstrapping package cli")
	}

	for i := 0; i < req.NumDispatchers; i++ {
		if err := d.installInstance(ctx, req, i); err != nil {
			return errors.Wrapf(err, "deploying instance %d", i)
		}
	}

	took := time.Since(start)

	d.Log.Info("all dispatchers submitted, none awaited",
		zap.Int("dispatchers", req.NumDispatchers),
		zap.Duration("took", took),
	)

	if d.Metrics != nil {
		d.Metrics.Write(metric.RunSummaryPoint(d.runID, req.NumDispatchers, took, time.Now()))
	}

	return nil
}

func (d *Deployer) installInstance(ctx context.Context, req Request, index int) error {
	names := naming.ForInstance(req.ServiceNameBase, index)

	log := d.Log.With(zap.String("service", names.Service), zap.Int("index", index))
	log.Info("deploying dispatcher")

	start := time.Now()

	if req.PackageRepo != "" {
		if err := d.ensureRepository(ctx, req.ServiceNameBase, req.PackageRepo); err != nil {
			return err
		}
	}

	if req.CreateQuotas {
		if err := d.reconcileQuota(ctx, names.DriversRole, req.DriversQuota); err != nil {
			return err
		}
		if err := d.reconcileQuota(ctx, names.ExecutorsRole, req.ExecutorsQuota); err != nil {
			return err
		}
	}

	instanceOptions, err := req.Options.Clone()
	if err != nil {
		return err
	}

	instanceOptions.SetServiceName(names.Service)
	// The dispatcher itself runs under the drivers role, managed quota or
	// not. Executors pick their role up from the dispatcher at job
	// submission time.
	instanceOptions.SetServiceRole(names.DriversRole)

	err = d.Cluster.InstallPackage(ctx, cluster.InstallRequest{
		PackageName: req.PackageName,
		ServiceName: names.Service,
		Options:     instanceOptions,
		Wait:        false,
	})
	if err != nil {
		return errors.Wrap(err, "submitting install")
	}

	record := Record{
		ServiceName:   names.Service,
		DriversRole:   names.DriversRole,
		ExecutorsRole: names.ExecutorsRole,
	}
	if err := d.Records.Write(record); err != nil {
		return errors.Wrap(err, "recording dispatcher")
	}

	took := time.Since(start)
	log.Info("dispatcher submitted, deployment not awaited", zap.Duration("took", took))

	d.publishEvent(ctx, index, names, took)
	d.writeMetric(index, names, took)

	return nil
}

// ensureRepository registers the package repository unless one with the
// same URI is already known to the cluster.
func (d *Deployer) ensureRepository(ctx context.Context, base string, uri string) error {
	repos, err := d.Cluster.ListRepositories(ctx)
	if err != nil {
		return errors.Wrap(err, "checking package repositories")
	}

	for _, repo := range repos {
		if repo.URI == uri {
			return nil
		}
	}

	name := naming.RepoName(base)

	d.Log.Info("adding package repository", zap.String("name", name), zap.String("uri", uri))

	return errors.Wrap(d.Cluster.AddRepository(ctx, name, uri), "registering package repository")
}

func (d *Deployer) publishEvent(ctx context.Context, index int, names naming.Names, took time.Duration) {
	if d.Events == nil {
		return
	}

	e := event.SubmissionEvent{
		RunID:         d.runID,
		Index:         index,
		ServiceName:   names.Service,
		DriversRole:   names.DriversRole,
		ExecutorsRole: names.ExecutorsRole,
		Took:          took,
	}

	if err := d.Events.Publish(ctx, e); err != nil {
		d.Log.Warn("failed to publish submission event", zap.Error(err))
	}
}

func (d *Deployer) writeMetric(index int, names naming.Names, took time.Duration) {
	if d.Metrics == nil {
		return
	}

	d.Metrics.Write(metric.SubmissionPoint(d.runID, index, names.Service, took, time.Now()))
}

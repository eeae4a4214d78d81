package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/mesoslab/dispatcher-deploy/internal/cluster/dcos"
	conf "github.com/mesoslab/dispatcher-deploy/internal/config"
	"github.com/mesoslab/dispatcher-deploy/internal/deploy"
	"github.com/mesoslab/dispatcher-deploy/internal/event"
	"github.com/mesoslab/dispatcher-deploy/internal/metric"
	"github.com/mesoslab/dispatcher-deploy/internal/options"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set through ldflags at build time.
var version = "dev"

type cliFlags struct {
	cpus             int
	mem              float64
	role             string
	serviceAccount   string
	serviceSecret    string
	user             string
	logLevel         string
	historyService   string
	ucrContainerizer bool

	enableKerberos bool
	kdcHostname    string
	kdcPort        int
	kerberosRealm  string

	hdfsConfig string

	optionsJSON string

	packageName string
	packageRepo string

	createQuotas       bool
	quotaDriversCPUs   float64
	quotaDriversGPUs   float64
	quotaDriversMem    float64
	quotaExecutorsCPUs float64
	quotaExecutorsGPUs float64
	quotaExecutorsMem  float64
}

func main() {
	flags := &cliFlags{}

	rootCmd := &cobra.Command{
		Use:           "deploy-dispatchers [flags] NUM_DISPATCHERS SERVICE_NAME_BASE OUTPUT_FILE",
		Short:         "Deploy a fleet of dispatcher services onto a DC/OS cluster",
		Version:       version,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), flags, args)
		},
	}

	bindFlags(rootCmd, flags)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func bindFlags(cmd *cobra.Command, flags *cliFlags) {
	f := cmd.Flags()

	f.IntVar(&flags.cpus, "cpus", 1, "number of CPUs to use per dispatcher")
	f.Float64Var(&flags.mem, "mem", 1024.0, "amount of memory (mb) to use per dispatcher")
	f.StringVar(&flags.role, "role", "*", "role registered by the dispatcher")
	f.StringVar(&flags.serviceAccount, "service-account", "", "principal registered by the dispatcher")
	f.StringVar(&flags.serviceSecret, "service-secret", "", "secret registered by the dispatcher")
	f.StringVar(&flags.user, "user", "root", "user to run the dispatcher service as")
	f.StringVar(&flags.logLevel, "log-level", "INFO", "log level")
	f.StringVar(&flags.historyService, "history-service", "", "URL of the history service")
	f.BoolVar(&flags.ucrContainerizer, "ucr-containerizer", true, "launch using the Universal Container Runtime")

	f.BoolVar(&flags.enableKerberos, "enable-kerberos", false, "enable Kerberos configuration")
	f.StringVar(&flags.kdcHostname, "kdc-hostname", "", "name or address of a host running a KDC")
	f.IntVar(&flags.kdcPort, "kdc-port", 88, "port of the host running a KDC")
	f.StringVar(&flags.kerberosRealm, "kerberos-realm", "", "Kerberos realm used to render the principal")

	f.StringVar(&flags.hdfsConfig, "hdfs-config", "", "URL of the HDFS configuration files")

	f.StringVar(&flags.optionsJSON, "options-json", "", "file containing installation options in JSON format")

	f.StringVar(&flags.packageName, "package-name", "spark", "name of the dispatcher package")
	f.StringVar(&flags.packageRepo, "package-repo", "", "URL of the package repo to install from")

	f.BoolVar(&flags.createQuotas, "create-quotas", true, "create drivers and executors quotas")
	f.Float64Var(&flags.quotaDriversCPUs, "quota-drivers-cpus", 1, "number of CPUs for each drivers quota")
	f.Float64Var(&flags.quotaDriversGPUs, "quota-drivers-gpus", 0, "number of GPUs for each drivers quota")
	f.Float64Var(&flags.quotaDriversMem, "quota-drivers-mem", 2048.0, "amount of memory (mb) for each drivers quota")
	f.Float64Var(&flags.quotaExecutorsCPUs, "quota-executors-cpus", 1, "number of CPUs for each executors quota")
	f.Float64Var(&flags.quotaExecutorsGPUs, "quota-executors-gpus", 0, "number of GPUs for each executors quota")
	f.Float64Var(&flags.quotaExecutorsMem, "quota-executors-mem", 1524.0, "amount of memory (mb) for each executors quota")
}

func run(ctx context.Context, flags *cliFlags, args []string) error {
	conf.LoadFromEnv()

	numDispatchers, err := strconv.Atoi(args[0])
	if err != nil {
		return errors.Wrap(err, "parsing NUM_DISPATCHERS")
	}
	if numDispatchers < 0 {
		return errors.Wrapf(deploy.ErrNegativeCount, "NUM_DISPATCHERS %d", numDispatchers)
	}

	serviceNameBase := args[1]
	outputPath := args[2]

	logger, err := newLogger(flags.logLevel)
	if err != nil {
		return err
	}

	baseOptions, err := loadOptions(flags)
	if err != nil {
		return err
	}

	var cliTimeout time.Duration
	if conf.DCOSCommandTimeout != "" {
		cliTimeout, err = time.ParseDuration(conf.DCOSCommandTimeout)
		if err != nil {
			return errors.Wrap(err, "parsing DCOS_COMMAND_TIMEOUT")
		}
	}

	// The output file is created only once the configuration is known good,
	// so a bad invocation never clobbers the file of an earlier run.
	outputFile, err := os.Create(outputPath)
	if err != nil {
		return errors.Wrap(err, "creating output file")
	}
	defer outputFile.Close()

	clusterClient := dcos.NewCLIClient(dcos.CLIClientOpts{
		Binary:   conf.DCOSCLIPath,
		QuotaCLI: flags.packageName,
		Timeout:  cliTimeout,
		Log:      logger,
	})

	deployOpts := deploy.DeployOpts{
		Log:     logger,
		Cluster: clusterClient,
		Records: deploy.NewRecordWriter(outputFile),
	}

	if conf.EventQueueURL != "" {
		awsConfig := aws.Config{
			Region:      conf.AWSRegion,
			Credentials: credentials.NewStaticCredentialsProvider(conf.AccessKeyID, conf.SecretAccessKey, ""),
		}

		deployOpts.Events = event.NewSQSEventPublisher(sqs.NewFromConfig(awsConfig), logger, conf.EventQueueURL)
	}

	if conf.InfluxURL != "" {
		influxClient := influxdb2.NewClientWithOptions(conf.InfluxURL, conf.InfluxToken, influxdb2.DefaultOptions())
		defer influxClient.Close()

		session, errchan := metric.NewStorage(influxClient).WriteSession(conf.InfluxOrg, conf.InfluxBucket)
		go metric.DrainErrors(logger, errchan)
		defer session.Close()

		deployOpts.Metrics = session
	}

	request := deploy.Request{
		NumDispatchers:  numDispatchers,
		ServiceNameBase: serviceNameBase,
		PackageName:     flags.packageName,
		PackageRepo:     flags.packageRepo,
		CreateQuotas:    flags.createQuotas,
		DriversQuota: deploy.QuotaSpec{
			CPUs:  flags.quotaDriversCPUs,
			GPUs:  flags.quotaDriversGPUs,
			MemMB: flags.quotaDriversMem,
		},
		ExecutorsQuota: deploy.QuotaSpec{
			CPUs:  flags.quotaExecutorsCPUs,
			GPUs:  flags.quotaExecutorsGPUs,
			MemMB: flags.quotaExecutorsMem,
		},
		Options: baseOptions,
	}

	return deploy.New(deployOpts).Deploy(ctx, request)
}

func newLogger(level string) (*zap.Logger, error) {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing log level %q", level)
	}

	logger := zap.New(zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(os.Stdout), parsed,
	))

	return logger, nil
}

func loadOptions(flags *cliFlags) (options.Options, error) {
	if flags.optionsJSON != "" {
		opts, err := options.FromFile(flags.optionsJSON)
		return opts, errors.Wrap(err, "loading options file")
	}

	return options.FromDefaults(options.Defaults{
		CPUs:             flags.cpus,
		MemMB:            flags.mem,
		Role:             flags.role,
		ServiceAccount:   flags.serviceAccount,
		ServiceSecret:    flags.serviceSecret,
		User:             flags.user,
		LogLevel:         flags.logLevel,
		HistoryServerURL: flags.historyService,
		UCRContainerizer: flags.ucrContainerizer,
		KerberosEnabled:  flags.enableKerberos,
		KDCHostname:      flags.kdcHostname,
		KDCPort:          flags.kdcPort,
		KerberosRealm:    flags.kerberosRealm,
		HDFSConfigURL:    flags.hdfsConfig,
	}), nil
}

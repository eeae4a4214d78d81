package config

var (
	DCOSCLIPath string
	// DCOSCommandTimeout bounds a single CLI invocation, parsed as a
	// time.Duration by the command layer. Empty means unbounded.
	DCOSCommandTimeout string
)

var (
	InfluxURL    string
	InfluxToken  string
	InfluxOrg    string
	InfluxBucket string
)

var (
	EventQueueURL string

	AWSRegion       string
	AccessKeyID     string
	SecretAccessKey string
)

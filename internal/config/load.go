package config

import (
	"os"
)

func LoadFromEnv() {
	DCOSCLIPath = os.Getenv("DCOS_CLI_PATH")
	DCOSCommandTimeout = os.Getenv("DCOS_COMMAND_TIMEOUT")

	InfluxURL = os.Getenv("INFLUX_URL")
	InfluxToken = os.Getenv("INFLUX_TOKEN")
	InfluxOrg = os.Getenv("INFLUX_ORG")
	InfluxBucket = os.Getenv("INFLUX_BUCKET")

	EventQueueURL = os.Getenv("DEPLOY_EVENT_QUEUE_URL")

	AWSRegion = os.Getenv("AWS_REGION")
	AccessKeyID = os.Getenv("AWS_ACCESS_KEY_ID")
	SecretAccessKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
}

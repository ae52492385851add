// Package config loads the notifier configuration from the environment and
// command line.
package config

import (
	"os"
	"time"

	"github.com/alexflint/go-arg"

	"github.com/mosajjal/ecs-events-to-slack/pkg/redact"
)

// Config is populated once at startup and passed to constructors
type Config struct {
	SecretName  string `arg:"env:SECRETMANAGER_SECRET_NAME" help:"Secrets Manager secret holding the Slack webhook URL"`
	WebhookURL  string `arg:"env:SLACK_WEBHOOK_URL" help:"Slack webhook URL, used when no secret name is set"`
	EnvExcludes string `arg:"env:ENV_EXCLUDES" help:"comma separated environment variable names to redact"`
	Region      string `arg:"env:AWS_REGION" default:"us-east-1" help:"region used when the event carries none"`

	WebhookProxy   string        `arg:"env:WEBHOOK_PROXY"`
	WebhookTimeout time.Duration `arg:"env:WEBHOOK_TIMEOUT" default:"0s"`

	ArchiveURL             string `arg:"env:ARCHIVE_S3_URL" help:"example: https://YOURBUCKET.s3.us-east-1.amazonaws.com/YOURFOLDER/"`
	ArchiveAccessKeyID     string `arg:"env:ARCHIVE_ACCESS_KEY_ID"`
	ArchiveAccessKeySecret string `arg:"env:ARCHIVE_ACCESS_KEY_SECRET"`
	ArchiveCompression     string `arg:"env:ARCHIVE_COMPRESSION" default:"gzip"`

	HECEndpoint      string        `arg:"env:HEC_ENDPOINT"`
	HECToken         string        `arg:"env:HEC_TOKEN" help:"HEC token or a Secrets Manager ARN holding it"`
	HECIndex         string        `arg:"env:HEC_INDEX" default:"main"`
	HECSource        string        `arg:"env:HEC_SOURCE" default:"ecs-events-to-slack"`
	HECSourceType    string        `arg:"env:HEC_SOURCETYPE" default:"ecs:notification"`
	HECHost          string        `arg:"env:HEC_HOST" default:"lambda"`
	HECChannelID     string        `arg:"env:HEC_CHANNEL_ID"`
	HECTLSSkipVerify bool          `arg:"env:HEC_TLS_SKIP_VERIFY"`
	HECProxy         string        `arg:"env:HEC_PROXY"`
	HECTimeout       time.Duration `arg:"env:HEC_TIMEOUT" default:"2s"`

	LogLevel string `arg:"env:LOG_LEVEL" default:"info"`

	EventFile string `arg:"positional" help:"event JSON file to replay locally, - for stdin"`
	DryRun    bool   `arg:"--dry-run" help:"print the formatted message instead of delivering it"`
}

// Load parses args and the environment
func Load(args []string) (Config, error) {
	var cfg Config
	p, err := arg.NewParser(arg.Config{Program: "ecs-events-to-slack"}, &cfg)
	if err != nil {
		return cfg, err
	}
	if err := p.Parse(args); err != nil {
		if err == arg.ErrHelp {
			p.WriteHelp(os.Stdout)
		}
		return cfg, err
	}
	return cfg, nil
}

// Excludes returns the parsed ENV_EXCLUDES list
func (c Config) Excludes() []string {
	return redact.ParseExcludes(c.EnvExcludes)
}

// InLambda reports whether the process runs inside the Lambda runtime
func InLambda() bool {
	_, ok := os.LookupEnv("AWS_LAMBDA_FUNCTION_NAME")
	return ok
}

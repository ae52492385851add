package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alexflint/go-arg"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-lambda-go/otellambda"

	"github.com/mosajjal/ecs-events-to-slack/pkg/config"
	"github.com/mosajjal/ecs-events-to-slack/pkg/hec"
	"github.com/mosajjal/ecs-events-to-slack/pkg/notifier"
	"github.com/mosajjal/ecs-events-to-slack/pkg/redact"
	"github.com/mosajjal/ecs-events-to-slack/pkg/secret"
	"github.com/mosajjal/ecs-events-to-slack/pkg/storage"
	s3storage "github.com/mosajjal/ecs-events-to-slack/pkg/storage/s3"
	"github.com/mosajjal/ecs-events-to-slack/pkg/tracing"
	"github.com/mosajjal/ecs-events-to-slack/pkg/webhook"
)

var pipeline *notifier.Notifier

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, arg.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	inLambda := config.InLambda()
	setupLogging(cfg.LogLevel, inLambda)

	ctx := context.Background()
	if pipeline, err = build(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize notifier")
	}

	if inLambda {
		tp, shutdown := tracing.Init(ctx)
		defer shutdown()

		log.Info().Msg("AWS Lambda handler initialized successfully")
		lambda.Start(otellambda.InstrumentHandler(HandleRequest,
			otellambda.WithTracerProvider(tp),
			otellambda.WithFlusher(tp),
		))
		return
	}

	err = replay(ctx, cfg)
	if cerr := pipeline.Close(); cerr != nil {
		log.Warn().Err(cerr).Msg("failed to close notifier")
	}
	if err != nil {
		log.Error().Err(err).Msg("replay failed")
		os.Exit(1)
	}
}

// HandleRequest is invoked once per EventBridge delivery
func HandleRequest(ctx context.Context, event json.RawMessage) error {
	logger := log.Logger
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		logger = logger.With().Str("request_id", lc.AwsRequestID).Logger()
	}
	ctx = logger.WithContext(ctx)

	_, err := pipeline.Handle(ctx, event)
	return err
}

func build(ctx context.Context, cfg config.Config) (*notifier.Notifier, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}

	resolver := secret.NewResolver(awsCfg, cfg.SecretName, cfg.WebhookURL)

	deliverer, err := webhook.NewClient(webhook.Config{
		Proxy:   cfg.WebhookProxy,
		Timeout: cfg.WebhookTimeout,
	})
	if err != nil {
		return nil, err
	}

	opts := notifier.Options{
		Resolver:      resolver,
		Deliverer:     deliverer,
		Policy:        redact.NewPolicy(cfg.Excludes()),
		DefaultRegion: cfg.Region,
	}

	if cfg.ArchiveURL != "" {
		archiveCfg := awsCfg
		if cfg.ArchiveAccessKeyID != "" && cfg.ArchiveAccessKeySecret != "" {
			archiveCfg, err = awsconfig.LoadDefaultConfig(ctx,
				awsconfig.WithRegion(cfg.Region),
				awsconfig.WithCredentialsProvider(
					credentials.NewStaticCredentialsProvider(cfg.ArchiveAccessKeyID, cfg.ArchiveAccessKeySecret, ""),
				),
			)
			if err != nil {
				return nil, fmt.Errorf("unable to load archive AWS config: %w", err)
			}
		}
		archive, err := s3storage.NewStorage(storage.Config{
			URL:             cfg.ArchiveURL,
			CompressionType: cfg.ArchiveCompression,
		}, archiveCfg)
		if err != nil {
			log.Error().Err(err).Msg("failed to setup event archive")
		} else {
			opts.Archive = archive
		}
	} else {
		log.Debug().Msg("no ARCHIVE_S3_URL provided, inbound events will not be archived")
	}

	if cfg.HECEndpoint != "" {
		audit, err := newAudit(ctx, cfg, resolver, awsCfg)
		if err != nil {
			log.Error().Err(err).Msg("failed to setup HEC audit sink")
		} else {
			opts.Audit = audit
		}
	}

	return notifier.New(opts), nil
}

func newAudit(ctx context.Context, cfg config.Config, resolver *secret.Resolver, awsCfg awssdk.Config) (*hec.Client, error) {
	token := cfg.HECToken
	if strings.HasPrefix(token, "arn:aws:secretsmanager:") {
		log.Info().Msg("fetching HEC token from AWS Secrets Manager")
		resolved, err := resolver.Lookup(ctx, token, awsCfg.Region)
		if err != nil {
			return nil, err
		}
		token = resolved
	}

	return hec.NewClient(hec.Config{
		Endpoint:      cfg.HECEndpoint,
		TLSSkipVerify: cfg.HECTLSSkipVerify,
		Proxy:         cfg.HECProxy,
		Timeout:       cfg.HECTimeout,
		Token:         token,
		ChannelID:     cfg.HECChannelID,
		Index:         cfg.HECIndex,
		Source:        cfg.HECSource,
		SourceType:    cfg.HECSourceType,
		Host:          cfg.HECHost,
	})
}

// replay runs a single event from a file or stdin outside of Lambda
func replay(ctx context.Context, cfg config.Config) error {
	var (
		raw []byte
		err error
	)
	if cfg.EventFile == "" || cfg.EventFile == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(cfg.EventFile)
	}
	if err != nil {
		return fmt.Errorf("failed to read event: %w", err)
	}

	if cfg.DryRun {
		_, msg, err := pipeline.Render(ctx, raw)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(msg)
	}

	res, err := pipeline.Handle(ctx, raw)
	if err != nil {
		return err
	}
	if !res.OK() {
		return fmt.Errorf("message not delivered: %s", res.Outcome)
	}
	return nil
}

func setupLogging(level string, inLambda bool) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if !inLambda {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

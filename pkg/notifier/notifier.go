// Package notifier runs one event through extraction, formatting, secret
// resolution and delivery.
package notifier

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mosajjal/ecs-events-to-slack/pkg/event"
	"github.com/mosajjal/ecs-events-to-slack/pkg/format"
	"github.com/mosajjal/ecs-events-to-slack/pkg/logging"
	"github.com/mosajjal/ecs-events-to-slack/pkg/models"
	"github.com/mosajjal/ecs-events-to-slack/pkg/redact"
	"github.com/mosajjal/ecs-events-to-slack/pkg/storage"
	"github.com/mosajjal/ecs-events-to-slack/pkg/webhook"
)

const tracerName = "github.com/mosajjal/ecs-events-to-slack/pkg/notifier"

// Resolver returns the webhook URL for a region
type Resolver interface {
	Resolve(ctx context.Context, region string) (string, error)
}

// Deliverer posts a message to a webhook
type Deliverer interface {
	Deliver(ctx context.Context, webhookURL string, msg models.ChatMessage) webhook.Result
}

// Auditor records the outcome of an invocation
type Auditor interface {
	Send(ctx context.Context, record models.DeliveryRecord) error
	Close() error
}

// Options configures a Notifier. Archive and Audit are optional.
type Options struct {
	Resolver      Resolver
	Deliverer     Deliverer
	Policy        *redact.Policy
	DefaultRegion string
	Archive       storage.Backend
	Audit         Auditor
}

// Notifier holds no state between invocations
type Notifier struct {
	opts   Options
	tracer trace.Tracer
}

// New creates a notifier
func New(opts Options) *Notifier {
	return &Notifier{
		opts:   opts,
		tracer: otel.Tracer(tracerName),
	}
}

// Render extracts and formats an event without any I/O
func (n *Notifier) Render(ctx context.Context, raw []byte) (*models.Task, models.ChatMessage, error) {
	_, span := n.tracer.Start(ctx, "extract")
	defer span.End()

	task, err := event.Parse(raw)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, models.ChatMessage{}, err
	}
	if task.Region == "" {
		task.Region = n.opts.DefaultRegion
	}

	span.SetAttributes(
		attribute.String("ecs.event_id", task.EventID),
		attribute.String("ecs.task_id", task.TaskID),
		attribute.String("ecs.container", task.ContainerName),
	)
	msg := format.Message(task, n.opts.Policy)

	logging.FromContext(ctx).Debug().
		Str("event_id", task.EventID).
		Str("title", msg.Attachments[0].Title).
		Str("environment", n.opts.Policy.RenderAll(task.Environment)).
		Msg("received event")
	return task, msg, nil
}

// Handle processes one raw event. Malformed events and secret failures are
// returned; a failed delivery is only reported in the Result.
func (n *Notifier) Handle(ctx context.Context, raw []byte) (webhook.Result, error) {
	n.archive(ctx, raw)

	task, msg, err := n.Render(ctx, raw)
	if err != nil {
		logging.FromContext(ctx).Error().Err(err).Msg("failed to extract event")
		return webhook.Result{}, err
	}

	logger := logging.FromContext(ctx).With().
		Str("event_id", task.EventID).
		Str("task_id", task.TaskID).
		Str("container", task.ContainerName).
		Logger()

	url, err := n.resolve(ctx, task.Region)
	if err != nil {
		logger.Error().Err(err).Msg("failed to resolve webhook url")
		return webhook.Result{}, err
	}

	res := n.deliver(ctx, url, msg)
	logEvent(&logger, res).
		Str("outcome", res.Outcome.String()).
		Int("status_code", res.StatusCode).
		Msg("invocation complete")

	n.audit(ctx, task, msg, res)
	return res, nil
}

func (n *Notifier) resolve(ctx context.Context, region string) (string, error) {
	ctx, span := n.tracer.Start(ctx, "resolve-secret")
	defer span.End()

	url, err := n.opts.Resolver.Resolve(ctx, region)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return url, err
}

func (n *Notifier) deliver(ctx context.Context, url string, msg models.ChatMessage) webhook.Result {
	ctx, span := n.tracer.Start(ctx, "deliver")
	defer span.End()

	res := n.opts.Deliverer.Deliver(ctx, url, msg)
	span.SetAttributes(
		attribute.String("webhook.outcome", res.Outcome.String()),
		attribute.Int("webhook.status_code", res.StatusCode),
	)
	if !res.OK() {
		span.SetStatus(codes.Error, res.Outcome.String())
	}
	return res
}

func (n *Notifier) archive(ctx context.Context, raw []byte) {
	if n.opts.Archive == nil {
		return
	}
	record := &models.ArchiveRecord{
		EventID:  eventID(raw),
		Received: time.Now(),
		Payload:  redactPayload(raw, n.opts.Policy),
	}
	if err := n.opts.Archive.Store(ctx, record); err != nil {
		logging.FromContext(ctx).Error().Err(err).Str("event_id", record.EventID).Msg("failed to archive event")
	}
}

func (n *Notifier) audit(ctx context.Context, task *models.Task, msg models.ChatMessage, res webhook.Result) {
	if n.opts.Audit == nil {
		return
	}
	record := models.DeliveryRecord{
		EventID:    task.EventID,
		TaskID:     task.TaskID,
		Container:  task.ContainerName,
		Status:     task.LastStatus,
		ExitCode:   task.ExitCode,
		Color:      msg.Attachments[0].Color,
		Outcome:    res.Outcome.String(),
		StatusCode: res.StatusCode,
	}
	if err := n.opts.Audit.Send(ctx, record); err != nil {
		logging.FromContext(ctx).Error().Err(err).Str("event_id", task.EventID).Msg("failed to send delivery record")
	}
}

// Close releases the archive and audit sinks
func (n *Notifier) Close() error {
	var errs []error
	if n.opts.Archive != nil {
		errs = append(errs, n.opts.Archive.Close())
	}
	if n.opts.Audit != nil {
		errs = append(errs, n.opts.Audit.Close())
	}
	return errors.Join(errs...)
}

func logEvent(logger *zerolog.Logger, res webhook.Result) *zerolog.Event {
	if res.OK() {
		return logger.Info()
	}
	return logger.Error().Err(res.Err)
}

// Package event extracts the fields the notifier needs from an ECS Task State
// Change event.
package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mosajjal/ecs-events-to-slack/pkg/models"
)

var (
	// ErrMalformedEvent is returned when a required part of the event is absent
	ErrMalformedEvent = errors.New("malformed event")
	// ErrTimeParse is returned when the event time is not ISO-8601
	ErrTimeParse = errors.New("invalid event time")
)

// FormattedTimeLayout renders timestamps as "2006-01-02 15:04:05+00:00"
const FormattedTimeLayout = "2006-01-02 15:04:05-07:00"

const naiveTimeLayout = "2006-01-02 15:04:05"

// layouts without a zone are rendered without an offset
var timeLayouts = []struct {
	layout string
	zoned  bool
}{
	{time.RFC3339Nano, true},
	{"2006-01-02T15:04:05.999999999Z0700", true},
	{"2006-01-02 15:04:05.999999999Z07:00", true},
	{"2006-01-02T15:04:05.999999999", false},
	{"2006-01-02 15:04:05.999999999", false},
}

// Parse decodes a raw event payload and extracts it
func Parse(raw []byte) (*models.Task, error) {
	var ev models.LifecycleEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return Extract(ev)
}

// Extract pulls the typed fields out of a decoded event
func Extract(ev models.LifecycleEvent) (*models.Task, error) {
	d := ev.Detail

	if len(d.Overrides.ContainerOverrides) == 0 {
		return nil, fmt.Errorf("%w: detail.overrides.containerOverrides is empty", ErrMalformedEvent)
	}
	if len(d.Containers) == 0 {
		return nil, fmt.Errorf("%w: detail.containers is empty", ErrMalformedEvent)
	}
	if len(d.Attachments) == 0 {
		return nil, fmt.Errorf("%w: detail.attachments is empty", ErrMalformedEvent)
	}

	taskID, err := TaskID(d.TaskArn)
	if err != nil {
		return nil, err
	}

	t, formatted, err := ParseTime(ev.Time)
	if err != nil {
		return nil, err
	}

	override := d.Overrides.ContainerOverrides[0]
	container := d.Containers[0]

	return &models.Task{
		EventID:          ev.ID,
		Region:           ev.Region,
		Time:             t,
		FormattedTime:    formatted,
		TaskArn:          d.TaskArn,
		TaskID:           taskID,
		Version:          d.Version,
		ContainerName:    override.Name,
		Environment:      override.Environment,
		AttachmentStatus: d.Attachments[0].Status,
		LastStatus:       container.LastStatus,
		ExitCode:         container.ExitCode,
	}, nil
}

// TaskID returns the second "/" separated segment of a task ARN
func TaskID(taskArn string) (string, error) {
	parts := strings.Split(taskArn, "/")
	if len(parts) < 2 {
		return "", fmt.Errorf("%w: taskArn %q has no task id segment", ErrMalformedEvent, taskArn)
	}
	return parts[1], nil
}

// ParseTime parses an ISO-8601 timestamp and truncates it to whole seconds.
// The second return value is the timestamp rendered for display.
func ParseTime(s string) (time.Time, string, error) {
	for _, l := range timeLayouts {
		t, err := time.Parse(l.layout, s)
		if err != nil {
			continue
		}
		t = t.Truncate(time.Second)
		if l.zoned {
			return t, t.Format(FormattedTimeLayout), nil
		}
		return t, t.Format(naiveTimeLayout), nil
	}
	return time.Time{}, "", fmt.Errorf("%w: %q", ErrTimeParse, s)
}

// Package format builds the Slack message for an extracted task event.
package format

import (
	"fmt"
	"strings"

	"github.com/mosajjal/ecs-events-to-slack/pkg/models"
	"github.com/mosajjal/ecs-events-to-slack/pkg/redact"
)

const logsURLTemplate = "https://%s.console.aws.amazon.com/cloudwatch/home?region=%s#logEventViewer:group=%s;stream=ecs/%s/%s"

// Message builds the chat message for a task. It is a pure function of its inputs.
func Message(task *models.Task, policy *redact.Policy) models.ChatMessage {
	return models.ChatMessage{
		Attachments: []models.Attachment{{
			Title: Title(task),
			Fields: []models.Field{
				{Title: "Environment Variables", Value: policy.RenderAll(task.Environment), Short: true},
				{Title: "Networking Status", Value: task.AttachmentStatus, Short: true},
			},
			Actions: []models.Action{
				{Type: "button", Text: "Logs", URL: LogsURL(task.Region, task.ContainerName, task.TaskID)},
			},
			Color:  Color(task),
			Footer: Footer(task),
		}},
	}
}

// Title renders "<container> is <status>[ with exit code <n>]"
func Title(task *models.Task) string {
	status := task.LastStatus
	if task.ExitCode != nil {
		status = fmt.Sprintf("%s with exit code %d", status, *task.ExitCode)
	}
	return fmt.Sprintf("%s is %s", task.ContainerName, status)
}

// Color derives the attachment color. An exit code takes precedence over the status.
func Color(task *models.Task) models.Color {
	color := models.ColorWarning
	if strings.Contains(task.LastStatus, "RUNNING") {
		color = models.ColorGood
	}
	if task.ExitCode != nil {
		if *task.ExitCode == 0 {
			color = models.ColorGood
		} else {
			color = models.ColorDanger
		}
	}
	return color
}

// Footer renders the event id, task version and event time
func Footer(task *models.Task) string {
	return fmt.Sprintf("Event id: %s (version: %d at %s)", task.EventID, task.Version, task.FormattedTime)
}

// LogsURL links to the CloudWatch log stream of the task's container
func LogsURL(region, container, taskID string) string {
	return fmt.Sprintf(logsURLTemplate, region, region, container, container, taskID)
}

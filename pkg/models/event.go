package models

import "time"

// LifecycleEvent is the ECS Task State Change event delivered by EventBridge
type LifecycleEvent struct {
	ID         string     `json:"id"`
	DetailType string     `json:"detail-type,omitempty"`
	Source     string     `json:"source,omitempty"`
	Account    string     `json:"account,omitempty"`
	Time       string     `json:"time"`
	Region     string     `json:"region"`
	Detail     TaskDetail `json:"detail"`
}

// TaskDetail is the subset of the task state change detail the notifier reads
type TaskDetail struct {
	TaskArn     string              `json:"taskArn"`
	Version     int64               `json:"version"`
	Overrides   Overrides           `json:"overrides"`
	Attachments []NetworkAttachment `json:"attachments"`
	Containers  []ContainerState    `json:"containers"`
}

// Overrides holds the per-invocation container overrides of a task
type Overrides struct {
	ContainerOverrides []ContainerOverride `json:"containerOverrides"`
}

// ContainerOverride is the parameterization applied to a single container
type ContainerOverride struct {
	Name        string   `json:"name"`
	Environment []EnvVar `json:"environment"`
}

// EnvVar is a single environment variable of a container override
type EnvVar struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NetworkAttachment is the task's network interface attachment
type NetworkAttachment struct {
	ID     string `json:"id,omitempty"`
	Type   string `json:"type,omitempty"`
	Status string `json:"status"`
}

// ContainerState is the reported state of a container in the task
type ContainerState struct {
	Name       string `json:"name,omitempty"`
	LastStatus string `json:"lastStatus"`
	ExitCode   *int   `json:"exitCode,omitempty"`
}

// Task is the typed result of extracting a LifecycleEvent
type Task struct {
	EventID          string
	Region           string
	Time             time.Time
	FormattedTime    string
	TaskArn          string
	TaskID           string
	Version          int64
	ContainerName    string
	Environment      []EnvVar
	AttachmentStatus string
	LastStatus       string
	ExitCode         *int // nil when the container has not exited
}

// DeliveryRecord summarises one invocation for the audit sink
type DeliveryRecord struct {
	EventID    string `json:"event_id"`
	TaskID     string `json:"task_id"`
	Container  string `json:"container"`
	Status     string `json:"status"`
	ExitCode   *int   `json:"exit_code,omitempty"`
	Color      Color  `json:"color"`
	Outcome    string `json:"outcome"`
	StatusCode int    `json:"status_code,omitempty"`
}

// ArchiveRecord is a raw inbound event handed to the archive backend
type ArchiveRecord struct {
	EventID  string
	Received time.Time
	Payload  []byte
}

package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycleEvent_Decode(t *testing.T) {
	raw := `{
		"id": "evt-1",
		"time": "2020-01-02T03:04:05.678Z",
		"region": "us-east-1",
		"detail": {
			"taskArn": "arn:aws:ecs:us-east-1:123456789012:task/abc123",
			"version": 4,
			"overrides": {"containerOverrides": [{"name": "worker", "environment": [{"name": "A", "value": "1"}]}]},
			"attachments": [{"id": "eni", "type": "eni", "status": "ATTACHED"}],
			"containers": [{"name": "worker", "lastStatus": "STOPPED", "exitCode": 0}]
		}
	}`

	var event LifecycleEvent
	require.NoError(t, json.Unmarshal([]byte(raw), &event))

	assert.Equal(t, "evt-1", event.ID)
	assert.Equal(t, int64(4), event.Detail.Version)
	require.Len(t, event.Detail.Overrides.ContainerOverrides, 1)
	assert.Equal(t, []EnvVar{{Name: "A", Value: "1"}}, event.Detail.Overrides.ContainerOverrides[0].Environment)
	require.NotNil(t, event.Detail.Containers[0].ExitCode)
	assert.Equal(t, 0, *event.Detail.Containers[0].ExitCode)
}

func TestContainerState_NoExitCode(t *testing.T) {
	var state ContainerState
	require.NoError(t, json.Unmarshal([]byte(`{"lastStatus": "RUNNING"}`), &state))

	assert.Equal(t, "RUNNING", state.LastStatus)
	assert.Nil(t, state.ExitCode)
}

func TestChatMessage_Encode(t *testing.T) {
	msg := ChatMessage{Attachments: []Attachment{{
		Title:   "worker is RUNNING",
		Fields:  []Field{{Title: "Networking Status", Value: "ATTACHED", Short: true}},
		Actions: []Action{{Type: "button", Text: "Logs", URL: "https://example.com"}},
		Color:   ColorGood,
		Footer:  "footer",
	}}}

	b, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"attachments":[{"title":"worker is RUNNING","fields":[{"title":"Networking Status","value":"ATTACHED","short":true}],"actions":[{"type":"button","text":"Logs","url":"https://example.com"}],"color":"good","footer":"footer"}]}`, string(b))
}

package notifier

import (
	"bytes"
	"encoding/json"

	"github.com/mosajjal/ecs-events-to-slack/pkg/redact"
)

// eventID reads the id of an event that may be malformed
func eventID(raw []byte) string {
	var head struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(raw, &head)
	return head.ID
}

// redactPayload masks excluded container override variables in a raw event.
// Payloads that are not JSON objects are returned unchanged.
func redactPayload(raw []byte, policy *redact.Policy) []byte {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc map[string]interface{}
	if err := dec.Decode(&doc); err != nil {
		return raw
	}

	detail, _ := doc["detail"].(map[string]interface{})
	overrides, _ := detail["overrides"].(map[string]interface{})
	containers, _ := overrides["containerOverrides"].([]interface{})

	changed := false
	for _, c := range containers {
		container, _ := c.(map[string]interface{})
		env, _ := container["environment"].([]interface{})
		for _, e := range env {
			v, ok := e.(map[string]interface{})
			if !ok {
				continue
			}
			if name, _ := v["name"].(string); policy.Redacted(name) {
				v["value"] = redact.Mask
				changed = true
			}
		}
	}
	if !changed {
		return raw
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return raw
	}
	return out
}

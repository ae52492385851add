package models

// Color is the Slack attachment color
type Color string

const (
	ColorGood    Color = "good"
	ColorWarning Color = "warning"
	ColorDanger  Color = "danger"
)

// ChatMessage is the payload posted to the Slack incoming webhook
type ChatMessage struct {
	Attachments []Attachment `json:"attachments"`
}

// Attachment is a Slack message attachment
type Attachment struct {
	Title   string   `json:"title"`
	Fields  []Field  `json:"fields"`
	Actions []Action `json:"actions"`
	Color   Color    `json:"color"`
	Footer  string   `json:"footer"`
}

// Field is a titled value rendered inside an attachment
type Field struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// Action is an attachment button
type Action struct {
	Type string `json:"type"`
	Text string `json:"text"`
	URL  string `json:"url"`
}

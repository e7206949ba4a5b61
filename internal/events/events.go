// Package events defines the progress-event contract between tools and the
// host UI. Tools report work-in-progress through an Emitter; the host decides
// how to surface the events (SSE frames, log lines, nothing).
package events

// Event is one notification sent to the host.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// StatusData is the payload of a "status" event.
type StatusData struct {
	Status      string `json:"status"`
	Level       string `json:"level"`
	Description string `json:"description"`
	Done        bool   `json:"done"`
}

// MessageData is the payload of a "message" event, used to push a complete
// chat message (e.g. the final council report) directly into the UI.
type MessageData struct {
	Content string `json:"content"`
}

// Emitter receives events from a running tool. A nil Emitter is valid and
// discards everything.
type Emitter func(Event)

// Status builds a status event. The status field mirrors done, matching the
// shape the host expects: "complete" once done, "in_progress" otherwise.
func Status(level, description string, done bool) Event {
	status := "in_progress"
	if done {
		status = "complete"
	}
	return Event{
		Type: "status",
		Data: StatusData{
			Status:      status,
			Level:       level,
			Description: description,
			Done:        done,
		},
	}
}

// Message builds a message event carrying a full chat message.
func Message(content string) Event {
	return Event{Type: "message", Data: MessageData{Content: content}}
}

// Emit sends ev through emit if a sink is attached.
func Emit(emit Emitter, ev Event) {
	if emit != nil {
		emit(ev)
	}
}

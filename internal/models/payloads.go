package models

// These structs define the payloads exchanged with the downstream image
// processing pipeline. The new-task notification itself carries only the raw
// TaskId bytes; these types cover the way back.

// TaskResult is published by the processing pipeline once it has handled a task.
type TaskResult struct {
	TaskId            string `json:"taskId" validate:"required,uuid"`
	State             string `json:"state" validate:"required"`
	ProcessedFilePath string `json:"processedFilePath,omitempty" validate:"omitempty,url"`
}

// MessagePublishedData is the CloudEvent data of a Pub/Sub push delivery.
type MessagePublishedData struct {
	Message      PubSubMessage `json:"message"`
	Subscription string        `json:"subscription"`
}

// PubSubMessage is the message part of MessagePublishedData.
// Data is base64 encoded on the wire and decoded by encoding/json.
type PubSubMessage struct {
	Data       []byte            `json:"data"`
	Attributes map[string]string `json:"attributes,omitempty"`
	MessageID  string            `json:"messageId"`
}

// WorkflowArgument is the execution argument passed when a task is handed to
// a Cloud Workflow instead of a topic.
type WorkflowArgument struct {
	TaskId string `json:"taskId"`
}

package models

import "encoding/json"

// StateCreated is the state every task record starts in.
const StateCreated = "created"

// TaskState is the record tracking one uploaded image in the document store.
// The document ID and the "id" field both hold TaskId.
type TaskState struct {
	TaskId            string `firestore:"id" json:"id"`
	FileName          string `firestore:"FileName" json:"FileName"`
	State             string `firestore:"State" json:"State"`
	OriginalFilePath  string `firestore:"OriginalFilePath" json:"OriginalFilePath"`
	ProcessedFilePath string `firestore:"ProcessedFilePath" json:"ProcessedFilePath"`
}

// String renders the record in its persisted JSON shape, for logs.
func (t TaskState) String() string {
	b, err := json.Marshal(t)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// StatusValue is what the status endpoint reports for the record.
func (t TaskState) StatusValue() string {
	if t.ProcessedFilePath != "" {
		return t.ProcessedFilePath
	}
	return t.State
}

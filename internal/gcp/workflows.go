package gcp

import (
	"context"
	"encoding/json"
	"fmt"

	executions "cloud.google.com/go/workflows/executions/apiv1"
	"cloud.google.com/go/workflows/executions/apiv1/executionspb"
	"github.com/Lllllllleong/imagetaskflow/internal/models"
)

// WorkflowNotifier hands new tasks to a Cloud Workflow by starting an execution.
type WorkflowNotifier struct {
	client *executions.Client
	parent string
}

// NewWorkflowNotifier returns a notifier for the workflow at
// projects/<projectID>/locations/<location>/workflows/<workflowID>.
func NewWorkflowNotifier(client *executions.Client, projectID, location, workflowID string) *WorkflowNotifier {
	return &WorkflowNotifier{
		client: client,
		parent: fmt.Sprintf("projects/%s/locations/%s/workflows/%s", projectID, location, workflowID),
	}
}

func (n *WorkflowNotifier) Publish(ctx context.Context, taskID string) error {
	payloadBytes, err := json.Marshal(models.WorkflowArgument{TaskId: taskID})
	if err != nil {
		return fmt.Errorf("failed to marshal workflow payload: %w", err)
	}
	req := &executionspb.CreateExecutionRequest{
		Parent: n.parent,
		Execution: &executionspb.Execution{
			Argument: string(payloadBytes),
		},
	}
	if _, err := n.client.CreateExecution(ctx, req); err != nil {
		return fmt.Errorf("failed to trigger workflow execution: %w", err)
	}
	return nil
}

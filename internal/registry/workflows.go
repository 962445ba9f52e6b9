package registry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	temporalworker "go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
)

const (
	certificationTaskQueue        = "johar-certification"
	certificationWorkflowName     = "registry.certification.batch"
	verifyAllActivityName         = "registry.verify_all"
	issueCertificatesActivityName = "registry.issue_certificates"
)

// BatchOp selects the registry operation a batch runs.
type BatchOp string

const (
	OpVerifyAll         BatchOp = "verify_all"
	OpIssueCertificates BatchOp = "issue_certificates"
)

// ParseBatchOp accepts the op names used on the wire and on the command line.
func ParseBatchOp(s string) (BatchOp, error) {
	switch op := BatchOp(s); op {
	case OpVerifyAll, OpIssueCertificates:
		return op, nil
	default:
		return "", fmt.Errorf("unknown batch op %q", s)
	}
}

type BatchInput struct {
	Op     BatchOp `json:"op"`
	Reason string  `json:"reason,omitempty"`
}

type BatchOutcome struct {
	Op          BatchOp     `json:"op"`
	Result      BatchResult `json:"result"`
	WorkflowID  string      `json:"workflowId,omitempty"`
	RunID       string      `json:"runId,omitempty"`
	StartedAt   time.Time   `json:"startedAt"`
	CompletedAt time.Time   `json:"completedAt"`
}

// BatchRunner executes registry batches, either through Temporal or in process.
type BatchRunner interface {
	RunBatch(ctx context.Context, input BatchInput) (BatchOutcome, error)
}

// CertificationActivities exposes the registry batch operations as activities.
type CertificationActivities struct {
	registry *Registry
	logger   *slog.Logger
}

func NewCertificationActivities(reg *Registry, logger *slog.Logger) *CertificationActivities {
	return &CertificationActivities{registry: reg, logger: logger}
}

func (a *CertificationActivities) VerifyAllActivity(ctx context.Context, input BatchInput) (BatchResult, error) {
	res, err := a.registry.VerifyAll(ctx)
	if err != nil {
		a.logger.Error("activity verify all failed", "error", err, "reason", input.Reason)
		return res, err
	}
	a.logger.Info("activity verify all", "total", res.Total, "verified", res.Verified, "issued", res.Issued, "reason", input.Reason)
	return res, nil
}

func (a *CertificationActivities) IssueCertificatesActivity(ctx context.Context, input BatchInput) (BatchResult, error) {
	res, err := a.registry.IssueCertificatesForAll(ctx)
	if err != nil {
		a.logger.Error("activity issue certificates failed", "error", err, "reason", input.Reason)
		return res, err
	}
	a.logger.Info("activity issue certificates", "total", res.Total, "verified", res.Verified, "issued", res.Issued, "reason", input.Reason)
	return res, nil
}

// CertificationWorkflow runs a single registry batch as a retried activity.
// Both operations are idempotent, so a retry after a partial failure is safe.
func CertificationWorkflow(ctx workflow.Context, input BatchInput) (BatchOutcome, error) {
	logger := workflow.GetLogger(ctx)
	var activityName string
	switch input.Op {
	case OpVerifyAll:
		activityName = verifyAllActivityName
	case OpIssueCertificates:
		activityName = issueCertificatesActivityName
	default:
		return BatchOutcome{}, temporal.NewNonRetryableApplicationError(fmt.Sprintf("unknown batch op %q", input.Op), "UnknownBatchOp", nil)
	}
	options := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:    5,
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    30 * time.Second,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, options)

	outcome := BatchOutcome{Op: input.Op, StartedAt: workflow.Now(ctx)}
	logger.Info("certification workflow started", "op", input.Op, "reason", input.Reason)

	if err := workflow.ExecuteActivity(ctx, activityName, input).Get(ctx, &outcome.Result); err != nil {
		logger.Error("certification activity failed", "op", input.Op, "error", err)
		return outcome, err
	}

	outcome.CompletedAt = workflow.Now(ctx)
	logger.Info("certification workflow finished", "op", input.Op, "verified", outcome.Result.Verified, "issued", outcome.Result.Issued)
	return outcome, nil
}

// RegisterCertificationWorker wires up the Temporal worker consuming the certification task queue.
func RegisterCertificationWorker(c client.Client, reg *Registry, logger *slog.Logger) temporalworker.Worker {
	w := temporalworker.New(c, certificationTaskQueue, temporalworker.Options{})
	w.RegisterWorkflowWithOptions(CertificationWorkflow, workflow.RegisterOptions{Name: certificationWorkflowName})
	activities := NewCertificationActivities(reg, logger.With("component", "certification.activities"))
	w.RegisterActivityWithOptions(activities.VerifyAllActivity, activity.RegisterOptions{Name: verifyAllActivityName})
	w.RegisterActivityWithOptions(activities.IssueCertificatesActivity, activity.RegisterOptions{Name: issueCertificatesActivityName})
	return w
}

// TemporalRunner starts certification workflows through the Temporal client.
type TemporalRunner struct {
	client client.Client
	logger *slog.Logger
}

func NewTemporalRunner(c client.Client, logger *slog.Logger) *TemporalRunner {
	return &TemporalRunner{client: c, logger: logger.With("component", "certification.runner")}
}

func (o *TemporalRunner) startOptions(op BatchOp) client.StartWorkflowOptions {
	return client.StartWorkflowOptions{
		ID:                       fmt.Sprintf("certification-%s-%d", op, time.Now().UnixNano()),
		TaskQueue:                certificationTaskQueue,
		WorkflowIDReusePolicy:    enums.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
		WorkflowExecutionTimeout: 15 * time.Minute,
	}
}

func (o *TemporalRunner) RunBatch(ctx context.Context, input BatchInput) (BatchOutcome, error) {
	we, err := o.client.ExecuteWorkflow(ctx, o.startOptions(input.Op), certificationWorkflowName, input)
	if err != nil {
		o.logger.Error("start workflow failed", "op", input.Op, "error", err)
		return BatchOutcome{}, err
	}
	var outcome BatchOutcome
	err = we.Get(ctx, &outcome)
	outcome.WorkflowID = we.GetID()
	outcome.RunID = we.GetRunID()
	if err != nil {
		o.logger.Error("wait workflow failed", "workflow_id", we.GetID(), "error", err)
		return outcome, err
	}
	o.logger.Info("workflow completed", "workflow_id", outcome.WorkflowID, "run_id", outcome.RunID, "op", input.Op, "verified", outcome.Result.Verified, "issued", outcome.Result.Issued)
	return outcome, nil
}

// RunBatchAsync dispatches a batch and returns its workflow id without waiting.
func (o *TemporalRunner) RunBatchAsync(ctx context.Context, input BatchInput) (string, error) {
	we, err := o.client.ExecuteWorkflow(ctx, o.startOptions(input.Op), certificationWorkflowName, input)
	if err != nil {
		o.logger.Error("start workflow async failed", "op", input.Op, "error", err)
		return "", err
	}
	o.logger.Info("workflow dispatched", "workflow_id", we.GetID(), "run_id", we.GetRunID(), "op", input.Op)
	return we.GetID(), nil
}

// DirectRunner runs batches in process, for deployments without a Temporal host.
type DirectRunner struct {
	registry *Registry
}

func NewDirectRunner(reg *Registry) *DirectRunner {
	return &DirectRunner{registry: reg}
}

func (d *DirectRunner) RunBatch(ctx context.Context, input BatchInput) (BatchOutcome, error) {
	outcome := BatchOutcome{Op: input.Op, StartedAt: time.Now().UTC()}
	var err error
	switch input.Op {
	case OpVerifyAll:
		outcome.Result, err = d.registry.VerifyAll(ctx)
	case OpIssueCertificates:
		outcome.Result, err = d.registry.IssueCertificatesForAll(ctx)
	default:
		return outcome, fmt.Errorf("unknown batch op %q", input.Op)
	}
	outcome.CompletedAt = time.Now().UTC()
	return outcome, err
}

// CertificationTaskQueue exposes the queue name so callers can reference it in logs and tests.
func CertificationTaskQueue() string {
	return certificationTaskQueue
}

package job

import (
	"context"

	"github.com/telemetra/fleetquery/internal/evaluation"
)

type EvaluationJob struct {
	svc *evaluation.Service
}

func NewEvaluationJob(svc *evaluation.Service) *EvaluationJob {
	return &EvaluationJob{svc: svc}
}

func (j *EvaluationJob) Name() string {
	return "query_evaluation"
}

func (j *EvaluationJob) Run(ctx context.Context) error {
	if j.svc == nil {
		return nil
	}
	return j.svc.Run(ctx)
}

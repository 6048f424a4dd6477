package evaluation

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/telemetra/fleetquery/internal/ai"
	"github.com/telemetra/fleetquery/internal/model"
	appErr "github.com/telemetra/fleetquery/internal/pkg/errors"
)

const judgeMaxTokens = 256

var ratingPattern = regexp.MustCompile(`[1-5]`)

// Judge scores historical answers with a second model. Calls are serial
// by design; the sampled cap bounds per-run cost.
type Judge struct {
	provider ai.IGenerateProvider
	model    string
	timeout  time.Duration
}

func NewJudge(provider ai.IGenerateProvider, model string, timeout time.Duration) *Judge {
	return &Judge{provider: provider, model: model, timeout: timeout}
}

func (j *Judge) Relevance(ctx context.Context, rec *model.ChatRecord) model.EvaluationResult {
	prompt := fmt.Sprintf(`Rate from 1 to 5 how well this answer addresses the question.
1 = does not answer it at all, 5 = answers it fully and directly.

Question: %s

Answer: %s

Reply with a single digit from 1 to 5 and nothing else.`, rec.Question, rec.Insights)
	return j.run(ctx, "relevance", prompt)
}

func (j *Judge) Hallucination(ctx context.Context, rec *model.ChatRecord) model.EvaluationResult {
	prompt := fmt.Sprintf(`The analytics database has exactly these tables:
fleet.devices(device_id, name, model, firmware_version, site, activated_at, last_seen_at, status)
fleet.telemetry(device_id, ts, temperature_c, humidity_pct, pressure_hpa, battery_v, rssi, charging)
fleet.alerts(device_id, ts, alert_type, value, acknowledged)
fleet.device_events(device_id, ts, event_type, detail)

Rate from 1 to 5 whether this SQL only references tables and columns that
exist and whether its logic plausibly answers the question.
1 = invented tables or columns, 5 = fully grounded.

Question: %s

SQL: %s

Reply with a single digit from 1 to 5 and nothing else.`, rec.Question, rec.SQL)
	return j.run(ctx, "hallucination", prompt)
}

func (j *Judge) run(ctx context.Context, name, prompt string) model.EvaluationResult {
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}
	res, err := j.provider.Generate(ctx, j.model, prompt, ai.GenerateOptions{MaxTokens: judgeMaxTokens})
	if err != nil {
		return judgeError(ctx, name, fmt.Errorf("%w: %v", appErr.ErrJudgeEvaluation, err))
	}
	match := ratingPattern.FindString(res.Text)
	if match == "" {
		return judgeError(ctx, name, fmt.Errorf("%w: unparsable judge reply %q", appErr.ErrJudgeEvaluation, res.Text))
	}
	raw, _ := strconv.Atoi(match)
	return model.EvaluationResult{
		Name:  name,
		Score: NormalizeJudgeScore(raw),
		Label: match,
	}
}

// judgeError marks the result as excluded-from-averages rather than a
// genuine zero score.
func judgeError(ctx context.Context, name string, err error) model.EvaluationResult {
	logutil.GetLogger(ctx).Warn("judge evaluation failed", zap.String("check", name), zap.Error(err))
	return model.EvaluationResult{
		Name:        name,
		Score:       0,
		Label:       "error",
		Explanation: err.Error(),
	}
}

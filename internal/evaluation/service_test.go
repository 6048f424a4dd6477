package evaluation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/telemetra/fleetquery/internal/ai"
	"github.com/telemetra/fleetquery/internal/model"
)

type fakeHistory struct {
	records []model.ChatRecord
	err     error
}

func (f *fakeHistory) ListWindow(ctx context.Context, fromTs, toTs int64) ([]model.ChatRecord, error) {
	return f.records, f.err
}

type fakeNotifier struct {
	messages []string
}

func (f *fakeNotifier) Notify(ctx context.Context, text string) error {
	f.messages = append(f.messages, text)
	return nil
}

type fakeStore struct {
	saves map[string][]byte
}

func (f *fakeStore) Save(ctx context.Context, key string, data []byte) error {
	if f.saves == nil {
		f.saves = map[string][]byte{}
	}
	f.saves[key] = data
	return nil
}

func (f *fakeStore) Open(ctx context.Context, key string) ([]byte, error) {
	return f.saves[key], nil
}

type fakeJudgeProvider struct {
	reply string
}

func (f *fakeJudgeProvider) Name() string {
	return "fake"
}

func (f *fakeJudgeProvider) Generate(ctx context.Context, model string, prompt string, opts ai.GenerateOptions) (*ai.GenerateResult, error) {
	return &ai.GenerateResult{Text: f.reply}, nil
}

func TestServiceRun_EmptyWindowIsSilentNoOp(t *testing.T) {
	notifier := &fakeNotifier{}
	store := &fakeStore{}
	svc := NewService(&fakeHistory{}, NewJudge(&fakeJudgeProvider{reply: "4"}, "judge", 0), 20, 24*time.Hour, notifier, store)

	require.NoError(t, svc.Run(context.Background()))
	require.Empty(t, notifier.messages)
	require.Empty(t, store.saves)
}

func TestServiceRun_ReportsAndArchives(t *testing.T) {
	history := &fakeHistory{records: []model.ChatRecord{
		{
			Question: "how many alerts fired yesterday?",
			SQL:      `SELECT COUNT(*) FROM fleet.alerts WHERE device_id IN (__DEVICE_IDS__) LIMIT 1`,
			Insights: "There were 12 alerts.",
		},
		{
			Question:       "battery trend",
			SQL:            `SELECT battery_v FROM fleet.telemetry WHERE device_id IN (__DEVICE_IDS__) LIMIT 500`,
			ExecutionError: "pq: connection refused",
		},
	}}
	notifier := &fakeNotifier{}
	store := &fakeStore{}
	svc := NewService(history, NewJudge(&fakeJudgeProvider{reply: "4"}, "judge", 0), 20, 24*time.Hour, notifier, store)

	require.NoError(t, svc.Run(context.Background()))

	require.Len(t, notifier.messages, 1)
	require.Contains(t, notifier.messages[0], "Query evaluation report")
	require.Contains(t, notifier.messages[0], "queries evaluated:      2")
	require.Contains(t, notifier.messages[0], "pq: connection refused (1)")

	require.Len(t, store.saves, 1)
	for key := range store.saves {
		require.Contains(t, key, "evaluation/")
	}
}

func TestServiceRun_JudgeSampleCapped(t *testing.T) {
	records := make([]model.ChatRecord, 5)
	for i := range records {
		records[i] = model.ChatRecord{
			Question: "question number",
			SQL:      `SELECT 1 FROM fleet.devices WHERE device_id IN (__DEVICE_IDS__) LIMIT 1`,
			Insights: "fine",
		}
	}
	notifier := &fakeNotifier{}
	svc := NewService(&fakeHistory{records: records}, NewJudge(&fakeJudgeProvider{reply: "5"}, "judge", 0), 2, 24*time.Hour, notifier, nil)

	require.NoError(t, svc.Run(context.Background()))
	require.Len(t, notifier.messages, 1)
	require.Contains(t, notifier.messages[0], "(judged 2)")
}

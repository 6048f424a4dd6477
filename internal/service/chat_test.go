package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/telemetra/fleetquery/internal/model"
	appErr "github.com/telemetra/fleetquery/internal/pkg/errors"
)

type fakeRetriever struct{}

func (f *fakeRetriever) Retrieve(ctx context.Context, question string) []model.RetrievedDocument {
	return nil
}

type fakePlanner struct {
	plan *QueryPlan
	err  error
}

func (f *fakePlanner) Generate(ctx context.Context, question string, docs []model.RetrievedDocument, deviceRule string) (*QueryPlan, error) {
	return f.plan, f.err
}

type fakeRunner struct {
	rows []map[string]interface{}
	err  error
}

func (f *fakeRunner) Execute(ctx context.Context, sqlText string, deviceIDs []string) ([]map[string]interface{}, error) {
	return f.rows, f.err
}

type fakeInsight struct {
	text string
	err  error
}

func (f *fakeInsight) Summarize(ctx context.Context, question, sqlText string, rowData []map[string]interface{}) (string, error) {
	return f.text, f.err
}

type fakeChatLog struct {
	inserted []model.ChatRecord
}

func (f *fakeChatLog) Insert(ctx context.Context, rec *model.ChatRecord) error {
	f.inserted = append(f.inserted, *rec)
	return nil
}

func (f *fakeChatLog) ListBySession(ctx context.Context, userID, sessionID string, limit int) ([]model.ChatRecord, error) {
	return f.inserted, nil
}

func askReq() AskRequest {
	return AskRequest{
		Question:  "which devices are running hot?",
		SessionID: "s1",
		UserID:    "u1",
		DeviceIDs: []string{"dev-001"},
	}
}

func TestAsk_ValidatorRejectionIsPersisted(t *testing.T) {
	log := &fakeChatLog{}
	svc := NewChatService(
		&fakeRetriever{},
		&fakePlanner{plan: &QueryPlan{SQL: "SELECT * FROM devices", VisualizationType: "table"}},
		&fakeRunner{},
		&fakeInsight{},
		log,
	)

	_, err := svc.Ask(context.Background(), askReq())
	require.ErrorIs(t, err, appErr.ErrUnsafeQuery)

	require.Len(t, log.inserted, 1)
	rec := log.inserted[0]
	require.Equal(t, "SELECT * FROM devices", rec.SQL)
	require.Contains(t, rec.ExecutionError, "missing device filter")
	require.Empty(t, rec.Insights)
}

func TestAsk_GenerationFailureIsPersisted(t *testing.T) {
	log := &fakeChatLog{}
	svc := NewChatService(
		&fakeRetriever{},
		&fakePlanner{err: fmt.Errorf("%w: response hit the token budget", appErr.ErrTruncatedGeneration)},
		&fakeRunner{},
		&fakeInsight{},
		log,
	)

	_, err := svc.Ask(context.Background(), askReq())
	require.ErrorIs(t, err, appErr.ErrTruncatedGeneration)

	require.Len(t, log.inserted, 1)
	rec := log.inserted[0]
	// The failure text stands in for the SQL, so window scans that skip
	// empty sql_text still pick the record up and score it as invalid.
	require.True(t, strings.HasPrefix(rec.SQL, "ERROR: "))
	require.NotEmpty(t, rec.ExecutionError)
	require.Equal(t, "which devices are running hot?", rec.Question)
}

func TestAsk_ExecutionFailureIsPersisted(t *testing.T) {
	log := &fakeChatLog{}
	svc := NewChatService(
		&fakeRetriever{},
		&fakePlanner{plan: &QueryPlan{SQL: "SELECT 1 FROM fleet.devices WHERE device_id IN (__DEVICE_IDS__) LIMIT 1"}},
		&fakeRunner{err: fmt.Errorf("%w: pq: relation does not exist", appErr.ErrExecution)},
		&fakeInsight{},
		log,
	)

	_, err := svc.Ask(context.Background(), askReq())
	require.ErrorIs(t, err, appErr.ErrExecution)

	require.Len(t, log.inserted, 1)
	require.Contains(t, log.inserted[0].ExecutionError, "relation does not exist")
}

func TestAsk_SuccessPersistsOnceWithInsights(t *testing.T) {
	log := &fakeChatLog{}
	svc := NewChatService(
		&fakeRetriever{},
		&fakePlanner{plan: &QueryPlan{SQL: "SELECT 1 FROM fleet.devices WHERE device_id IN (__DEVICE_IDS__) LIMIT 1", VisualizationType: "number"}},
		&fakeRunner{rows: []map[string]interface{}{{"count": int64(3)}}},
		&fakeInsight{text: "Three devices are running hot."},
		log,
	)

	result, err := svc.Ask(context.Background(), askReq())
	require.NoError(t, err)
	require.Equal(t, "Three devices are running hot.", result.Insights)
	require.Equal(t, 1, len(result.Data))

	require.Len(t, log.inserted, 1)
	rec := log.inserted[0]
	require.Empty(t, rec.ExecutionError)
	require.Equal(t, 1, rec.RowCount)
	require.Equal(t, "Three devices are running hot.", rec.Insights)
}

func TestAsk_InsightFailureDowngradesToDataOnly(t *testing.T) {
	log := &fakeChatLog{}
	svc := NewChatService(
		&fakeRetriever{},
		&fakePlanner{plan: &QueryPlan{SQL: "SELECT 1 FROM fleet.devices WHERE device_id IN (__DEVICE_IDS__) LIMIT 1"}},
		&fakeRunner{rows: []map[string]interface{}{{"count": int64(3)}}},
		&fakeInsight{err: fmt.Errorf("empty insight response")},
		log,
	)

	result, err := svc.Ask(context.Background(), askReq())
	require.NoError(t, err)
	require.Empty(t, result.Insights)
	require.Equal(t, 1, len(result.Data))
	require.Len(t, log.inserted, 1)
	require.Empty(t, log.inserted[0].Insights)
}

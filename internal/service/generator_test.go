package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRepairModelJSON_StripsFencing(t *testing.T) {
	raw := "```json\n{\"sql\": \"SELECT 1\"}\n```"
	repaired, err := RepairModelJSON(raw)
	require.NoError(t, err)
	require.JSONEq(t, `{"sql": "SELECT 1"}`, repaired)
}

func TestRepairModelJSON_ExtractsOutermostObject(t *testing.T) {
	raw := `Here is the query you asked for: {"sql": "SELECT 1", "explanation": "trivial"} hope it helps`
	repaired, err := RepairModelJSON(raw)
	require.NoError(t, err)

	var plan QueryPlan
	require.NoError(t, json.Unmarshal([]byte(repaired), &plan))
	require.Equal(t, "SELECT 1", plan.SQL)
}

func TestRepairModelJSON_EscapesLiteralNewlineInsideString(t *testing.T) {
	raw := "{\"sql\": \"SELECT device_id\nFROM fleet.telemetry\", \"visualization_type\": \"table\"}"
	repaired, err := RepairModelJSON(raw)
	require.NoError(t, err)

	var plan QueryPlan
	require.NoError(t, json.Unmarshal([]byte(repaired), &plan))
	require.Equal(t, "SELECT device_id\nFROM fleet.telemetry", plan.SQL)
}

func TestRepairModelJSON_LeavesEscapedSequencesAlone(t *testing.T) {
	raw := `{"sql": "SELECT device_id\nFROM fleet.telemetry"}`
	repaired, err := RepairModelJSON(raw)
	require.NoError(t, err)
	require.Equal(t, raw, repaired)

	// Repairing already-valid output must be idempotent.
	again, err := RepairModelJSON(repaired)
	require.NoError(t, err)
	require.Equal(t, repaired, again)
}

func TestRepairModelJSON_TabAndCarriageReturn(t *testing.T) {
	raw := "{\"sql\": \"SELECT\ta\r\nFROM fleet.devices\"}"
	repaired, err := RepairModelJSON(raw)
	require.NoError(t, err)

	var plan QueryPlan
	require.NoError(t, json.Unmarshal([]byte(repaired), &plan))
	require.Equal(t, "SELECT\ta\r\nFROM fleet.devices", plan.SQL)
}

func TestRepairModelJSON_NoObjectFound(t *testing.T) {
	_, err := RepairModelJSON("I could not produce a query for that question.")
	require.Error(t, err)
}

func TestEscapeControlChars_OutsideStringUntouched(t *testing.T) {
	raw := "{\n  \"sql\": \"SELECT 1\"\n}"
	require.Equal(t, raw, escapeControlChars(raw))
}

package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/telemetra/fleetquery/internal/pkg/errors"
)

func TestValidateSQL_AcceptsScopedSelect(t *testing.T) {
	sqlText := `SELECT device_id, AVG(temperature_c) FROM fleet.telemetry WHERE device_id IN (__DEVICE_IDS__) GROUP BY device_id LIMIT 500`
	require.NoError(t, ValidateSQL(sqlText))
}

func TestValidateSQL_AcceptsWithStatement(t *testing.T) {
	sqlText := `WITH latest AS (SELECT device_id, MAX(ts) AS max_ts FROM fleet.telemetry WHERE device_id IN (__DEVICE_IDS__) GROUP BY device_id) SELECT * FROM latest LIMIT 100`
	require.NoError(t, ValidateSQL(sqlText))
}

func TestValidateSQL_AcceptsLiteralDeviceEquality(t *testing.T) {
	sqlText := `SELECT ts, battery_v FROM fleet.telemetry WHERE device_id = 'dev-001' ORDER BY ts DESC LIMIT 10`
	require.NoError(t, ValidateSQL(sqlText))
}

func TestValidateSQL_RejectsMissingDeviceFilter(t *testing.T) {
	err := ValidateSQL(`SELECT * FROM devices`)
	require.ErrorIs(t, err, appErr.ErrUnsafeQuery)
	require.Contains(t, err.Error(), "device filter")
}

func TestValidateSQL_RejectsDangerousKeyword(t *testing.T) {
	err := ValidateSQL(`SELECT 1; DROP TABLE devices`)
	require.ErrorIs(t, err, appErr.ErrUnsafeQuery)
	require.Contains(t, err.Error(), "dangerous keyword: drop")
}

func TestValidateSQL_RejectsNonSelectStart(t *testing.T) {
	err := ValidateSQL(`EXPLAIN SELECT * FROM fleet.devices WHERE device_id IN (__DEVICE_IDS__)`)
	require.ErrorIs(t, err, appErr.ErrUnsafeQuery)
	require.Contains(t, err.Error(), "must start with SELECT or WITH")
}

func TestValidateSQL_KeywordMatchIsWholeWord(t *testing.T) {
	// Column names that merely contain a keyword must not trip the guard.
	sqlText := `SELECT last_updated_at, created_by FROM fleet.device_events WHERE device_id IN (__DEVICE_IDS__) LIMIT 50`
	require.NoError(t, ValidateSQL(sqlText))
}

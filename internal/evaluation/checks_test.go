package evaluation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/telemetra/fleetquery/internal/model"
)

func TestSyntaxCheck_FullyValidQuery(t *testing.T) {
	res := SyntaxCheck(`SELECT device_id FROM fleet.telemetry WHERE device_id IN (__DEVICE_IDS__) LIMIT 100`)
	require.Equal(t, 1.0, res.Score)
	require.Equal(t, "valid", res.Label)
}

func TestSyntaxCheck_NonSelectScoresZero(t *testing.T) {
	res := SyntaxCheck(`DROP TABLE fleet.telemetry`)
	require.Equal(t, 0.0, res.Score)
	require.Equal(t, "invalid", res.Label)
}

func TestSyntaxCheck_DangerousKeywordScoresZero(t *testing.T) {
	res := SyntaxCheck(`SELECT 1; DELETE FROM fleet.alerts`)
	require.Equal(t, 0.0, res.Score)
	require.Equal(t, "invalid", res.Label)
}

func TestSyntaxCheck_MissingDeviceFilterPenalty(t *testing.T) {
	res := SyntaxCheck(`SELECT COUNT(*) FROM fleet.alerts LIMIT 10`)
	require.InDelta(t, 0.7, res.Score, 1e-9)
	require.Equal(t, "degraded", res.Label)
	require.Contains(t, res.Explanation, "missing device filter")
}

func TestSyntaxCheck_MissingLimitPenalty(t *testing.T) {
	res := SyntaxCheck(`SELECT ts FROM fleet.telemetry WHERE device_id IN (__DEVICE_IDS__)`)
	require.InDelta(t, 0.8, res.Score, 1e-9)
	require.Contains(t, res.Explanation, "missing limit clause")
}

func TestSyntaxCheck_UnbalancedParensPenalty(t *testing.T) {
	res := SyntaxCheck(`SELECT COUNT(* FROM fleet.telemetry WHERE device_id IN (__DEVICE_IDS__) LIMIT 5`)
	require.InDelta(t, 0.7, res.Score, 1e-9)
	require.Contains(t, res.Explanation, "unbalanced parentheses")
}

func TestSyntaxCheck_PenaltiesStackAndFloorAtZero(t *testing.T) {
	res := SyntaxCheck(`SELECT COUNT(* FROM fleet.telemetry`)
	require.InDelta(t, 0.2, res.Score, 1e-9)
	require.Equal(t, "degraded", res.Label)
}

func TestSyntaxCheck_ParensInsideStringLiteralsIgnored(t *testing.T) {
	res := SyntaxCheck(`SELECT ':-(' FROM fleet.devices WHERE device_id IN (__DEVICE_IDS__) LIMIT 1`)
	require.Equal(t, 1.0, res.Score)
}

func TestExecutionCheck_SuccessAndFailure(t *testing.T) {
	ok := ExecutionCheck(&model.ChatRecord{SQL: "SELECT 1"})
	require.Equal(t, 1.0, ok.Score)
	require.Equal(t, "ok", ok.Label)

	failed := ExecutionCheck(&model.ChatRecord{SQL: "SELECT 1", ExecutionError: "relation does not exist"})
	require.Equal(t, 0.0, failed.Score)
	require.Equal(t, "failed", failed.Label)
	require.Equal(t, "relation does not exist", failed.Explanation)
}

func TestComplexityWeight_TwoCTEsOneJoin(t *testing.T) {
	sqlText := `WITH recent AS (SELECT device_id, battery_v FROM fleet.telemetry WHERE device_id IN (__DEVICE_IDS__)), low AS (SELECT device_id FROM recent WHERE battery_v < 3.3) SELECT d.name FROM fleet.devices d JOIN low ON d.device_id = low.device_id LIMIT 100`
	require.InDelta(t, 5.0, ComplexityWeight(sqlText), 1e-9)
	res := ComplexityCheck(sqlText)
	require.Equal(t, ComplexityComplex, res.Label)
	require.Equal(t, 1.0, res.Score)
}

func TestComplexityWeight_SubqueryNotDoubleCountedAsCTE(t *testing.T) {
	sqlText := `SELECT * FROM (SELECT device_id FROM fleet.telemetry WHERE device_id IN (__DEVICE_IDS__)) t LIMIT 5`
	require.InDelta(t, 1.0, ComplexityWeight(sqlText), 1e-9)
}

func TestComplexityWeight_WindowFunction(t *testing.T) {
	sqlText := `SELECT device_id, ROW_NUMBER() OVER (PARTITION BY device_id ORDER BY ts DESC) FROM fleet.telemetry WHERE device_id IN (__DEVICE_IDS__) LIMIT 10`
	require.InDelta(t, 1.5, ComplexityWeight(sqlText), 1e-9)
}

func TestComplexityCheck_Buckets(t *testing.T) {
	simple := ComplexityCheck(`SELECT 1 LIMIT 1`)
	require.Equal(t, ComplexitySimple, simple.Label)
	require.InDelta(t, 0.33, simple.Score, 1e-9)

	medium := ComplexityCheck(`SELECT * FROM fleet.devices d JOIN fleet.telemetry t ON d.device_id = t.device_id JOIN fleet.alerts a ON a.device_id = d.device_id LIMIT 5`)
	require.Equal(t, ComplexityMedium, medium.Label)
	require.InDelta(t, 0.66, medium.Score, 1e-9)
}

func TestNormalizeJudgeScore_LinearMapping(t *testing.T) {
	require.InDelta(t, 0.0, NormalizeJudgeScore(1), 1e-9)
	require.InDelta(t, 0.5, NormalizeJudgeScore(3), 1e-9)
	require.InDelta(t, 1.0, NormalizeJudgeScore(5), 1e-9)
}

func TestNormalizeJudgeScore_Monotonic(t *testing.T) {
	prev := NormalizeJudgeScore(1)
	for raw := 2; raw <= 5; raw++ {
		cur := NormalizeJudgeScore(raw)
		require.Greater(t, cur, prev)
		prev = cur
	}
}

func TestBalancedParens(t *testing.T) {
	require.True(t, balancedParens(`SELECT COUNT(*) FROM (SELECT 1) t`))
	require.False(t, balancedParens(`SELECT COUNT(* FROM x`))
	require.False(t, balancedParens(`SELECT 1)`))
	require.True(t, balancedParens(`SELECT '(' FROM x`))
}

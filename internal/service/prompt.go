package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// The template carries the safety rules inline so they survive even when
// retrieval returns nothing.
const queryPromptTemplate = `You are an expert SQL generator for an IoT fleet analytics database (PostgreSQL).

Hard rules, in force regardless of any context below:
1. Emit exactly one read-only statement, starting with SELECT or WITH.
2. Qualify every table with its schema: fleet.devices, fleet.telemetry, fleet.alerts, fleet.device_events.
3. Every query must restrict device data with: device_id IN (__DEVICE_IDS__). Leave the __DEVICE_IDS__ token as-is, it is substituted at execution time. {{assigned_device_rule}}
4. Never emit INSERT, UPDATE, DELETE, DROP, TRUNCATE, ALTER, CREATE, GRANT, REVOKE, EXEC or EXECUTE.
5. End the statement with a LIMIT clause of at most 500 rows.
6. All timestamp columns are epoch milliseconds (BIGINT). Compare against epoch milliseconds, not date strings.

{{retrieved_context}}

Question: {{question}}

Respond with ONLY a JSON object, no fencing, no commentary:
{"sql": "<the SQL statement>", "visualization_type": "<table|line|bar|pie|number>", "explanation": "<one or two sentences>"}`

const insightPromptTemplate = `You are an analytics assistant for an IoT device fleet.

The user asked: {{question}}

This SQL was executed:
{{sql}}

Result rows (first {{preview_count}} of {{total_count}}):
{{rows_preview}}

Write a short narrative (2-4 sentences) answering the user's question from
these rows. Mention concrete numbers. Do not describe the SQL itself.`

var placeholderPattern = regexp.MustCompile(`\{\{[a-z_]+\}\}`)

// renderTemplate substitutes {{name}} placeholders. Unresolved
// placeholders are left verbatim and logged, never dropped.
func renderTemplate(ctx context.Context, tpl string, vars map[string]string) string {
	out := tpl
	for name, value := range vars {
		out = strings.ReplaceAll(out, "{{"+name+"}}", value)
	}
	if leftover := placeholderPattern.FindAllString(out, -1); len(leftover) > 0 {
		logutil.GetLogger(ctx).Warn("unresolved prompt placeholders", zap.Strings("placeholders", leftover))
	}
	return out
}

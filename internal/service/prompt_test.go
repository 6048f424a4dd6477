package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderTemplate_SubstitutesAllPlaceholders(t *testing.T) {
	out := renderTemplate(context.Background(), "q={{question}} ctx={{retrieved_context}}", map[string]string{
		"question":          "how many alerts?",
		"retrieved_context": "schema docs",
	})
	require.Equal(t, "q=how many alerts? ctx=schema docs", out)
}

func TestRenderTemplate_LeavesUnknownPlaceholdersVerbatim(t *testing.T) {
	out := renderTemplate(context.Background(), "q={{question}} x={{never_bound}}", map[string]string{
		"question": "hi",
	})
	require.Equal(t, "q=hi x={{never_bound}}", out)
}

func TestRenderTemplate_EmptyValueIsValidSubstitution(t *testing.T) {
	out := renderTemplate(context.Background(), "rule: {{assigned_device_rule}}", map[string]string{
		"assigned_device_rule": "",
	})
	require.Equal(t, "rule: ", out)
}

func TestQueryPromptTemplate_CarriesHardRules(t *testing.T) {
	out := renderTemplate(context.Background(), queryPromptTemplate, map[string]string{
		"question":             "average temperature per site",
		"retrieved_context":    "## Database Schema\n...",
		"assigned_device_rule": "",
	})
	require.Contains(t, out, DeviceScopeToken)
	require.Contains(t, out, "LIMIT clause")
	require.Contains(t, out, "epoch milliseconds")
	require.False(t, strings.Contains(out, "{{question}}"))
}

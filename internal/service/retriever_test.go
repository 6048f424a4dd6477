package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/telemetra/fleetquery/internal/model"
)

func retrievedDoc(docType model.DocType, title, content string) model.RetrievedDocument {
	return model.RetrievedDocument{
		KnowledgeDocument: model.KnowledgeDocument{
			DocType: docType,
			Title:   title,
			Content: content,
		},
		Similarity: 0.9,
	}
}

func TestFormatContext_EmptyInputYieldsEmptyString(t *testing.T) {
	require.Equal(t, "", FormatContext(nil))
}

func TestFormatContext_GroupsByDocType(t *testing.T) {
	out := FormatContext([]model.RetrievedDocument{
		retrievedDoc(model.DocTypeDomain, "timestamps", "epoch ms everywhere"),
		retrievedDoc(model.DocTypeSchema, "fleet.devices table", "device_id TEXT ..."),
		retrievedDoc(model.DocTypeExample, "example: avg temp", "Q: ...\nSQL: ..."),
	})
	require.Contains(t, out, "## Database Schema")
	require.Contains(t, out, "## Query Examples")
	require.Contains(t, out, "## Domain Knowledge")

	// Sections render in a fixed order regardless of input order.
	schemaIdx := strings.Index(out, "## Database Schema")
	exampleIdx := strings.Index(out, "## Query Examples")
	domainIdx := strings.Index(out, "## Domain Knowledge")
	require.Less(t, schemaIdx, exampleIdx)
	require.Less(t, exampleIdx, domainIdx)
}

func TestFormatContext_SkipsEmptySections(t *testing.T) {
	out := FormatContext([]model.RetrievedDocument{
		retrievedDoc(model.DocTypeSchema, "fleet.alerts table", "alert_type TEXT"),
	})
	require.Contains(t, out, "## Database Schema")
	require.NotContains(t, out, "## Query Examples")
	require.NotContains(t, out, "## Domain Knowledge")
}

func TestFormatContext_IncludesTitleAndContent(t *testing.T) {
	out := FormatContext([]model.RetrievedDocument{
		retrievedDoc(model.DocTypeExample, "example: low battery", "Q: low battery?\nSQL: SELECT 1"),
	})
	require.Contains(t, out, "### example: low battery")
	require.Contains(t, out, "SQL: SELECT 1")
}

package service

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	appErr "github.com/telemetra/fleetquery/internal/pkg/errors"
)

const analyticsSchema = "fleet"

var knownTables = []string{"devices", "telemetry", "alerts", "device_events"}

var (
	// Device identifiers are interpolated into the IN-list as literals, so
	// their shape is allow-listed before any quoting happens.
	deviceIDPattern  = regexp.MustCompile(`^[A-Za-z0-9:_-]+$`)
	bareTablePattern = regexp.MustCompile(`(?i)(\bfrom\s+|\bjoin\s+)(` + strings.Join(knownTables, "|") + `)\b`)
)

type Executor struct {
	db *sql.DB
}

func NewExecutor(db *sql.DB) *Executor {
	return &Executor{db: db}
}

// Execute substitutes the device scope, qualifies bare table references
// and runs the statement. Result columns are mapped by declared type so
// zero and false survive as typed values, not truthiness casualties.
func (e *Executor) Execute(ctx context.Context, sqlText string, deviceIDs []string) ([]map[string]interface{}, error) {
	prepared, err := PrepareSQL(sqlText, deviceIDs)
	if err != nil {
		return nil, err
	}
	rows, err := e.db.QueryContext(ctx, prepared)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrExecution, err)
	}
	defer rows.Close()
	return scanTypedRows(rows)
}

// PrepareSQL performs the textual rewrites without touching the database.
func PrepareSQL(sqlText string, deviceIDs []string) (string, error) {
	prepared := sqlText
	if strings.Contains(prepared, DeviceScopeToken) {
		inList, err := buildDeviceInList(deviceIDs)
		if err != nil {
			return "", err
		}
		prepared = strings.ReplaceAll(prepared, DeviceScopeToken, inList)
	}
	if hasPositionalParam(prepared) {
		// Nothing binds these. Their presence is a model artifact.
		return "", fmt.Errorf("%w", appErr.ErrUnsupportedParameter)
	}
	prepared = bareTablePattern.ReplaceAllString(prepared, "${1}"+analyticsSchema+".${2}")
	return prepared, nil
}

// hasPositionalParam reports whether the statement carries a bind
// placeholder ($1, $2, ... or ?) outside single-quoted literals. A ? or
// $1 inside a string, as in LIKE '%?%', is data and stays legal.
func hasPositionalParam(sqlText string) bool {
	inString := false
	for i := 0; i < len(sqlText); i++ {
		ch := sqlText[i]
		if ch == '\'' {
			if inString && i+1 < len(sqlText) && sqlText[i+1] == '\'' {
				i++ // escaped quote inside the literal
				continue
			}
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		if ch == '?' {
			return true
		}
		if ch == '$' && i+1 < len(sqlText) && sqlText[i+1] >= '0' && sqlText[i+1] <= '9' {
			return true
		}
	}
	return false
}

func buildDeviceInList(deviceIDs []string) (string, error) {
	if len(deviceIDs) == 0 {
		return "", fmt.Errorf("%w: no device scope available for this request", appErr.ErrInvalid)
	}
	quoted := make([]string, 0, len(deviceIDs))
	for _, id := range deviceIDs {
		if !deviceIDPattern.MatchString(id) {
			return "", fmt.Errorf("%w: device id %q has unexpected format", appErr.ErrInvalid, id)
		}
		quoted = append(quoted, "'"+strings.ReplaceAll(id, "'", "''")+"'")
	}
	return strings.Join(quoted, ", "), nil
}

func scanTypedRows(rows *sql.Rows) ([]map[string]interface{}, error) {
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrExecution, err)
	}
	results := make([]map[string]interface{}, 0)
	for rows.Next() {
		holders := make([]interface{}, len(colTypes))
		for i, ct := range colTypes {
			holders[i] = holderFor(ct.DatabaseTypeName())
		}
		if err := rows.Scan(holders...); err != nil {
			return nil, fmt.Errorf("%w: %v", appErr.ErrExecution, err)
		}
		row := make(map[string]interface{}, len(colTypes))
		for i, ct := range colTypes {
			row[ct.Name()] = valueOf(holders[i])
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrExecution, err)
	}
	return results, nil
}

func holderFor(dbType string) interface{} {
	switch strings.ToUpper(dbType) {
	case "INT2", "INT4", "INT8":
		return new(sql.NullInt64)
	case "FLOAT4", "FLOAT8", "NUMERIC":
		return new(sql.NullFloat64)
	case "BOOL":
		return new(sql.NullBool)
	default:
		return new(sql.NullString)
	}
}

func valueOf(holder interface{}) interface{} {
	switch v := holder.(type) {
	case *sql.NullInt64:
		if v.Valid {
			return v.Int64
		}
	case *sql.NullFloat64:
		if v.Valid {
			return v.Float64
		}
	case *sql.NullBool:
		if v.Valid {
			return v.Bool
		}
	case *sql.NullString:
		if v.Valid {
			return v.String
		}
	}
	return nil
}

package service

import "github.com/telemetra/fleetquery/internal/model"

// builtinDocuments is the curated base corpus. Schema documents are pinned
// so every retrieval includes them regardless of similarity rank.
func builtinDocuments() []model.KnowledgeDocument {
	return []model.KnowledgeDocument{
		{
			DocType: model.DocTypeSchema,
			Title:   "fleet.devices table",
			Pinned:  true,
			Content: `fleet.devices: one row per provisioned device.
Columns: device_id TEXT, name TEXT, model TEXT, firmware_version TEXT,
site TEXT, activated_at BIGINT (epoch ms), last_seen_at BIGINT (epoch ms),
status TEXT ('active'|'offline'|'retired').`,
			Metadata: map[string]string{"source": "builtin"},
		},
		{
			DocType: model.DocTypeSchema,
			Title:   "fleet.telemetry table",
			Pinned:  true,
			Content: `fleet.telemetry: periodic sensor readings, one row per report.
Columns: device_id TEXT, ts BIGINT (epoch ms), temperature_c DOUBLE PRECISION,
humidity_pct DOUBLE PRECISION, pressure_hpa DOUBLE PRECISION,
battery_v DOUBLE PRECISION, rssi INTEGER, charging BOOLEAN.
Typical reporting interval is 5 minutes; gaps mean the device was offline.`,
			Metadata: map[string]string{"source": "builtin"},
		},
		{
			DocType: model.DocTypeSchema,
			Title:   "fleet.alerts and fleet.device_events tables",
			Pinned:  true,
			Content: `fleet.alerts: threshold breaches raised by the ingest pipeline.
Columns: device_id TEXT, ts BIGINT (epoch ms), alert_type TEXT
('temp_high'|'temp_low'|'battery_low'|'offline'), value DOUBLE PRECISION,
acknowledged BOOLEAN.
fleet.device_events: lifecycle events (boot, firmware update, config change).
Columns: device_id TEXT, ts BIGINT (epoch ms), event_type TEXT, detail TEXT.`,
			Metadata: map[string]string{"source": "builtin"},
		},
		{
			DocType: model.DocTypeExample,
			Title:   "example: average temperature per device last 24h",
			Content: `Q: What was the average temperature per device over the last day?
SQL: SELECT device_id, AVG(temperature_c) AS avg_temp
FROM fleet.telemetry
WHERE device_id IN (__DEVICE_IDS__)
  AND ts >= (EXTRACT(EPOCH FROM NOW()) * 1000 - 86400000)
GROUP BY device_id
ORDER BY avg_temp DESC
LIMIT 500
Visualization: bar`,
			Metadata: map[string]string{"source": "builtin"},
		},
		{
			DocType: model.DocTypeExample,
			Title:   "example: devices with low battery",
			Content: `Q: Which devices are below 3.3 volts right now?
SQL: SELECT t.device_id, t.battery_v, t.ts
FROM fleet.telemetry t
JOIN (
  SELECT device_id, MAX(ts) AS max_ts
  FROM fleet.telemetry
  WHERE device_id IN (__DEVICE_IDS__)
  GROUP BY device_id
) latest ON t.device_id = latest.device_id AND t.ts = latest.max_ts
WHERE t.device_id IN (__DEVICE_IDS__) AND t.battery_v < 3.3
ORDER BY t.battery_v
LIMIT 500
Visualization: table`,
			Metadata: map[string]string{"source": "builtin"},
		},
		{
			DocType: model.DocTypeExample,
			Title:   "example: alert counts by type this week",
			Content: `Q: How many alerts fired per type over the past week?
SQL: SELECT alert_type, COUNT(*) AS alert_count
FROM fleet.alerts
WHERE device_id IN (__DEVICE_IDS__)
  AND ts >= (EXTRACT(EPOCH FROM NOW()) * 1000 - 604800000)
GROUP BY alert_type
ORDER BY alert_count DESC
LIMIT 500
Visualization: pie`,
			Metadata: map[string]string{"source": "builtin"},
		},
		{
			DocType: model.DocTypeDomain,
			Title:   "timestamp conventions",
			Content: `All ts columns are epoch milliseconds. One hour is 3600000,
one day 86400000, one week 604800000. NOW() in PostgreSQL returns a
timestamp, so compare with EXTRACT(EPOCH FROM NOW()) * 1000.`,
			Metadata: map[string]string{"source": "builtin"},
		},
		{
			DocType: model.DocTypeDomain,
			Title:   "battery and signal interpretation",
			Content: `battery_v around 4.2 means fully charged, below 3.3 is low and
below 3.0 is critical. rssi is dBm: above -70 is good signal, below -90
the device is likely to drop reports. charging = TRUE means externally
powered, so battery trends on those rows are not meaningful.`,
			Metadata: map[string]string{"source": "builtin"},
		},
	}
}

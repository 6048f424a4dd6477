package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"

	"github.com/telemetra/fleetquery/internal/model"
)

type ChatRepo struct {
	db *sql.DB
}

func NewChatRepo(db *sql.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

const chatColumns = `user_id, ts, session_id, question, sql_text, visualization_type, explanation, row_count, insights, execution_error, feedback_rating, feedback_comment, feedback_rated_at`

func (r *ChatRepo) Insert(ctx context.Context, rec *model.ChatRecord) error {
	const query = `
		INSERT INTO chat_records (` + chatColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, '', '', 0)
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.UserID,
		rec.Timestamp,
		rec.SessionID,
		rec.Question,
		rec.SQL,
		rec.VisualizationType,
		rec.Explanation,
		rec.RowCount,
		rec.Insights,
		rec.ExecutionError,
	)
	return err
}

// AttachFeedback mutates a record exactly once to carry its rating.
func (r *ChatRepo) AttachFeedback(ctx context.Context, userID string, ts int64, fb *model.Feedback) error {
	const query = `
		UPDATE chat_records
		SET feedback_rating = $1, feedback_comment = $2, feedback_rated_at = $3
		WHERE user_id = $4 AND ts = $5
	`
	res, err := r.db.ExecContext(ctx, query, fb.Rating, fb.Comment, fb.RatedAt, userID, ts)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *ChatRepo) ClearFeedback(ctx context.Context, userID string, ts int64) error {
	const query = `
		UPDATE chat_records
		SET feedback_rating = '', feedback_comment = '', feedback_rated_at = 0
		WHERE user_id = $1 AND ts = $2
	`
	res, err := r.db.ExecContext(ctx, query, userID, ts)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *ChatRepo) ListBySession(ctx context.Context, userID, sessionID string, limit int) ([]model.ChatRecord, error) {
	where := map[string]interface{}{
		"user_id":  userID,
		"_orderby": "ts desc",
		"_limit":   []uint{uint(limit)},
	}
	if sessionID != "" {
		where["session_id"] = sessionID
	}
	return r.selectRecords(ctx, where)
}

// ListWindow returns records created in [fromTs, toTs) that carry SQL.
// The evaluation harness scans this.
func (r *ChatRepo) ListWindow(ctx context.Context, fromTs, toTs int64) ([]model.ChatRecord, error) {
	const query = `
		SELECT ` + chatColumns + `
		FROM chat_records
		WHERE ts >= $1 AND ts < $2 AND sql_text <> ''
		ORDER BY ts
	`
	rows, err := r.db.QueryContext(ctx, query, fromTs, toTs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChatRows(rows)
}

// ListAnswered returns records having both SQL and insights, most recent
// first. Presence of both implies the full pipeline succeeded.
func (r *ChatRepo) ListAnswered(ctx context.Context, limit int) ([]model.ChatRecord, error) {
	const query = `
		SELECT ` + chatColumns + `
		FROM chat_records
		WHERE sql_text <> '' AND insights <> ''
		ORDER BY ts DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChatRows(rows)
}

func (r *ChatRepo) ListNegativeFeedback(ctx context.Context) ([]model.ChatRecord, error) {
	where := map[string]interface{}{
		"feedback_rating": model.RatingNegative,
		"_orderby":        "feedback_rated_at desc",
	}
	return r.selectRecords(ctx, where)
}

func (r *ChatRepo) selectRecords(ctx context.Context, where map[string]interface{}) ([]model.ChatRecord, error) {
	sqlStr, args, err := builder.BuildSelect("chat_records", where, []string{
		"user_id", "ts", "session_id", "question", "sql_text", "visualization_type",
		"explanation", "row_count", "insights", "execution_error",
		"feedback_rating", "feedback_comment", "feedback_rated_at",
	})
	if err != nil {
		return nil, err
	}
	sqlStr = sqlx.Rebind(sqlx.DOLLAR, sqlStr)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChatRows(rows)
}

func scanChatRows(rows *sql.Rows) ([]model.ChatRecord, error) {
	var records []model.ChatRecord
	for rows.Next() {
		var rec model.ChatRecord
		var rating, comment string
		var ratedAt int64
		if err := rows.Scan(
			&rec.UserID, &rec.Timestamp, &rec.SessionID, &rec.Question,
			&rec.SQL, &rec.VisualizationType, &rec.Explanation, &rec.RowCount,
			&rec.Insights, &rec.ExecutionError, &rating, &comment, &ratedAt,
		); err != nil {
			return nil, err
		}
		if rating != "" {
			rec.Feedback = &model.Feedback{Rating: rating, Comment: comment, RatedAt: ratedAt}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/telemetra/fleetquery/internal/model"
	appErr "github.com/telemetra/fleetquery/internal/pkg/errors"
)

type KnowledgeRepo struct {
	db *sql.DB
}

func NewKnowledgeRepo(db *sql.DB) *KnowledgeRepo {
	return &KnowledgeRepo{db: db}
}

const knowledgeColumns = `id, doc_type, title, content, metadata, pinned, ctime, mtime`

// Upsert inserts or replaces a document keyed by its unique title. A title
// collision keeps the original id and ctime so feedback re-indexing stays
// idempotent.
func (r *KnowledgeRepo) Upsert(ctx context.Context, doc *model.KnowledgeDocument) error {
	meta, err := json.Marshal(doc.Metadata)
	if err != nil {
		return err
	}
	const query = `
		INSERT INTO knowledge_documents (id, doc_type, title, content, embedding, metadata, pinned, ctime, mtime)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (title) DO UPDATE SET
			doc_type = EXCLUDED.doc_type,
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding,
			metadata = EXCLUDED.metadata,
			pinned = EXCLUDED.pinned,
			mtime = EXCLUDED.mtime
	`
	_, err = r.db.ExecContext(ctx, query,
		doc.ID,
		string(doc.DocType),
		doc.Title,
		doc.Content,
		pgvector.NewVector(doc.Embedding),
		meta,
		doc.Pinned,
		doc.Ctime,
		doc.Mtime,
	)
	return err
}

func (r *KnowledgeRepo) GetByID(ctx context.Context, id string) (*model.KnowledgeDocument, error) {
	query := `SELECT ` + knowledgeColumns + ` FROM knowledge_documents WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)
	doc, err := scanKnowledge(row)
	if err == sql.ErrNoRows {
		return nil, appErr.ErrNotFound
	}
	return doc, err
}

func (r *KnowledgeRepo) List(ctx context.Context, docType model.DocType) ([]model.KnowledgeDocument, error) {
	where := map[string]interface{}{
		"_orderby": "mtime desc",
	}
	if docType != "" {
		where["doc_type"] = string(docType)
	}
	sqlStr, args, err := builder.BuildSelect("knowledge_documents",
		where,
		[]string{"id", "doc_type", "title", "content", "metadata", "pinned", "ctime", "mtime"})
	if err != nil {
		return nil, err
	}
	sqlStr = sqlx.Rebind(sqlx.DOLLAR, sqlStr)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var docs []model.KnowledgeDocument
	for rows.Next() {
		doc, err := scanKnowledge(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

func (r *KnowledgeRepo) ListPinned(ctx context.Context) ([]model.KnowledgeDocument, error) {
	query := `SELECT ` + knowledgeColumns + ` FROM knowledge_documents WHERE pinned = TRUE ORDER BY title`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var docs []model.KnowledgeDocument
	for rows.Next() {
		doc, err := scanKnowledge(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// SearchNearest runs a cosine nearest-neighbor scan over non-pinned
// documents. Titles already delivered as pinned are excluded so a document
// never appears twice in one retrieval.
func (r *KnowledgeRepo) SearchNearest(ctx context.Context, embedding []float32, topK int, excludeTitles []string) ([]model.RetrievedDocument, error) {
	if excludeTitles == nil {
		excludeTitles = []string{}
	}
	const query = `
		SELECT id, doc_type, title, content, metadata, pinned, ctime, mtime,
			1 - (embedding <=> $1) AS similarity
		FROM knowledge_documents
		WHERE pinned = FALSE AND NOT (title = ANY($2))
		ORDER BY embedding <=> $1
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, pgvector.NewVector(embedding), pq.Array(excludeTitles), topK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []model.RetrievedDocument
	for rows.Next() {
		var item model.RetrievedDocument
		var meta []byte
		var docType string
		if err := rows.Scan(&item.ID, &docType, &item.Title, &item.Content, &meta, &item.Pinned, &item.Ctime, &item.Mtime, &item.Similarity); err != nil {
			return nil, err
		}
		item.DocType = model.DocType(docType)
		if err := json.Unmarshal(meta, &item.Metadata); err != nil {
			return nil, err
		}
		results = append(results, item)
	}
	return results, rows.Err()
}

func (r *KnowledgeRepo) UpdateContent(ctx context.Context, id string, content string, embedding []float32, mtime int64) error {
	const query = `UPDATE knowledge_documents SET content = $1, embedding = $2, mtime = $3 WHERE id = $4`
	res, err := r.db.ExecContext(ctx, query, content, pgvector.NewVector(embedding), mtime, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *KnowledgeRepo) UpdateMeta(ctx context.Context, id string, title string, metadata map[string]string, mtime int64) error {
	meta, err := json.Marshal(metadata)
	if err != nil {
		return err
	}
	const query = `UPDATE knowledge_documents SET title = $1, metadata = $2, mtime = $3 WHERE id = $4`
	res, err := r.db.ExecContext(ctx, query, title, meta, mtime, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *KnowledgeRepo) SetPinned(ctx context.Context, id string, pinned bool, mtime int64) error {
	const query = `UPDATE knowledge_documents SET pinned = $1, mtime = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, pinned, mtime, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *KnowledgeRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM knowledge_documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanKnowledge(row rowScanner) (*model.KnowledgeDocument, error) {
	var doc model.KnowledgeDocument
	var docType string
	var meta []byte
	if err := row.Scan(&doc.ID, &docType, &doc.Title, &doc.Content, &meta, &doc.Pinned, &doc.Ctime, &doc.Mtime); err != nil {
		return nil, err
	}
	doc.DocType = model.DocType(docType)
	if err := json.Unmarshal(meta, &doc.Metadata); err != nil {
		return nil, err
	}
	return &doc, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

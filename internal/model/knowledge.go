package model

// DocType is a closed set. New values require touching every switch that
// formats or validates corpus documents.
type DocType string

const (
	DocTypeSchema  DocType = "schema"
	DocTypeExample DocType = "example"
	DocTypeDomain  DocType = "domain"
)

func (d DocType) IsValid() bool {
	switch d {
	case DocTypeSchema, DocTypeExample, DocTypeDomain:
		return true
	}
	return false
}

type KnowledgeDocument struct {
	ID        string            `json:"id"`
	DocType   DocType           `json:"doc_type"`
	Title     string            `json:"title"`
	Content   string            `json:"content"`
	Embedding []float32         `json:"-"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Pinned    bool              `json:"pinned"`
	Ctime     int64             `json:"created_at"`
	Mtime     int64             `json:"updated_at"`
}

// RetrievedDocument annotates a corpus document with its similarity to the
// query. Pinned documents carry similarity 1.0.
type RetrievedDocument struct {
	KnowledgeDocument
	Similarity float64 `json:"similarity"`
}

package document

import "time"

// Status tracks the indexing pipeline of a document.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusProcessed  Status = "processed"
	StatusFailed     Status = "failed"
)

// FileType is the coarse kind of an uploaded file.
type FileType string

const (
	FileTypeText  FileType = "text"
	FileTypeImage FileType = "image"
)

// Document is an advisory file uploaded by a session, such as a soil health
// card or an extension leaflet. It can be attached to any number of the
// session's chat threads.
type Document struct {
	ID            string    `json:"id"`
	Owner         string    `json:"-"`
	Filename      string    `json:"filename"`
	FileType      FileType  `json:"fileType"`
	ContentType   string    `json:"contentType"`
	Description   string    `json:"description,omitempty"`
	SizeBytes     int64     `json:"sizeBytes"`
	TextLength    int       `json:"textLength"`
	StorageKey    string    `json:"-"`
	Status        Status    `json:"status"`
	FailureReason string    `json:"failureReason,omitempty"`
	Threads       []string  `json:"threads"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Chunk is an embedded slice of a document's text.
type Chunk struct {
	ID         string
	DocumentID string
	Index      int
	Content    string
	TokenCount int
	Embedding  []float32
	CreatedAt  time.Time
}

// Hit is one chunk returned by a similarity search.
type Hit struct {
	DocumentID string   `json:"documentId"`
	Filename   string   `json:"filename"`
	FileType   FileType `json:"fileType"`
	ChunkIndex int      `json:"chunkIndex"`
	Score      float64  `json:"similarity"`
	Snippet    string   `json:"snippet"`
}

// Upload is a file received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Description string
	Data        []byte
}

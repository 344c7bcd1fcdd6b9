package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	apperrors "github.com/yanqian/krishi-vaani/pkg/errors"
	"github.com/yanqian/krishi-vaani/pkg/metrics"
	"github.com/yanqian/krishi-vaani/pkg/util"
)

// Config drives indexing and retrieval limits.
type Config struct {
	StoragePrefix string

	// SearchLimit is the default and MaxSearchLimit the ceiling of results
	// for an explicit search.
	SearchLimit    int
	MaxSearchLimit int

	// ContextChunks excerpts at most are offered to the chat assistant.
	ContextChunks int
	MinScore      float64
	SnippetChars  int
	ContextChars  int
}

// Service manages advisory documents and searches their content.
type Service interface {
	Upload(ctx context.Context, owner, threadID string, up Upload) (Document, error)
	List(ctx context.Context, owner string) ([]Document, error)
	ForThread(ctx context.Context, owner, threadID string) ([]Document, error)
	Associate(ctx context.Context, owner, id, threadID string) (Document, error)
	DetachThread(ctx context.Context, owner, threadID string) error
	Search(ctx context.Context, owner, query string, limit int) ([]Hit, error)
	Retrieve(ctx context.Context, owner, threadID, question string) ([]Hit, error)
}

type service struct {
	cfg      Config
	repo     Repository
	storage  Storage
	chunker  Chunker
	embedder Embedder
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

// NewService constructs the document service.
func NewService(cfg Config, repo Repository, storage Storage, chunker Chunker, embedder Embedder, logger *slog.Logger) Service {
	if cfg.StoragePrefix == "" {
		cfg.StoragePrefix = "documents"
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = 5
	}
	if cfg.MaxSearchLimit < cfg.SearchLimit {
		cfg.MaxSearchLimit = cfg.SearchLimit
	}
	if cfg.ContextChunks <= 0 {
		cfg.ContextChunks = 3
	}
	if cfg.SnippetChars <= 0 {
		cfg.SnippetChars = 300
	}
	if cfg.ContextChars <= 0 {
		cfg.ContextChars = 2000
	}
	return &service{
		cfg:      cfg,
		repo:     repo,
		storage:  storage,
		chunker:  chunker,
		embedder: embedder,
		logger:   logger.With("component", "document.service"),
		now:      util.NowUTC,
		newID:    uuid.NewString,
	}
}

// Upload stores the file, indexes its text and attaches it to threadID when
// one is given. Indexing failures leave the document in the failed state.
func (s *service) Upload(ctx context.Context, owner, threadID string, up Upload) (Document, error) {
	filename := filepath.Base(strings.TrimSpace(up.Filename))
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		return Document{}, apperrors.Wrap(apperrors.CodeInvalidInput, "no file provided", nil)
	}
	if len(up.Data) == 0 {
		return Document{}, apperrors.Wrap(apperrors.CodeInvalidInput, "file content cannot be empty", nil)
	}
	kind, text, err := extract(filename, up.Data)
	if errors.Is(err, errUnsupportedType) {
		return Document{}, apperrors.Wrap(apperrors.CodeInvalidInput,
			"unsupported file type, supported: "+strings.Join(SupportedExtensions(), ", "), err)
	}
	if err != nil {
		return Document{}, apperrors.Wrap(apperrors.CodeInvalidInput, "document could not be read", err)
	}
	if strings.TrimSpace(text) == "" {
		return Document{}, apperrors.Wrap(apperrors.CodeInvalidInput, "document contains no text", nil)
	}

	contentType := up.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(up.Data)
	}
	doc := Document{
		ID:          s.newID(),
		Owner:       owner,
		Filename:    filename,
		FileType:    kind,
		ContentType: contentType,
		Description: strings.TrimSpace(up.Description),
		SizeBytes:   int64(len(up.Data)),
		Status:      StatusProcessing,
		Threads:     []string{},
		CreatedAt:   s.now(),
	}
	if threadID != "" {
		doc.Threads = []string{threadID}
	}
	doc.StorageKey = fmt.Sprintf("%s/%s/%s/%s", s.cfg.StoragePrefix, owner, doc.ID, filename)

	if err := s.storage.PutObject(ctx, doc.StorageKey, up.Data, contentType, filename); err != nil {
		return Document{}, apperrors.Wrap("storage_error", "failed to store file", err)
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		return Document{}, apperrors.Wrap("storage_error", "failed to persist document", err)
	}

	if err := s.index(ctx, doc, text); err != nil {
		reason := err.Error()
		if updateErr := s.repo.UpdateStatus(ctx, doc.ID, StatusFailed, reason, 0); updateErr != nil {
			s.logger.Error("mark document failed", "document", doc.ID, "error", updateErr)
		}
		metrics.FlowOutcomesTotal.WithLabelValues("document", "index", "failed").Inc()
		s.logger.Warn("document indexing failed", "document", doc.ID, "error", err)
		return Document{}, apperrors.Wrap(apperrors.CodeUpstream, "document indexing failed", err)
	}

	textLength := utf8.RuneCountInString(text)
	if err := s.repo.UpdateStatus(ctx, doc.ID, StatusProcessed, "", textLength); err != nil {
		return Document{}, apperrors.Wrap("storage_error", "failed to update status", err)
	}
	doc.Status = StatusProcessed
	doc.TextLength = textLength
	metrics.FlowOutcomesTotal.WithLabelValues("document", "index", "succeeded").Inc()
	s.logger.Info("document indexed", "document", doc.ID, "file_type", kind, "thread", threadID)
	return doc, nil
}

func (s *service) index(ctx context.Context, doc Document, text string) error {
	candidates := s.chunker.Chunk(text)
	if len(candidates) == 0 {
		return fmt.Errorf("no chunks produced")
	}
	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Content
	}
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(candidates) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(candidates))
	}
	chunks := make([]Chunk, len(candidates))
	for i, c := range candidates {
		chunks[i] = Chunk{
			ID:         s.newID(),
			DocumentID: doc.ID,
			Index:      c.Index,
			Content:    c.Content,
			TokenCount: c.TokenCount,
			Embedding:  vectors[i],
			CreatedAt:  doc.CreatedAt,
		}
	}
	if err := s.repo.InsertChunks(ctx, chunks); err != nil {
		return fmt.Errorf("store chunks: %w", err)
	}
	return nil
}

func (s *service) List(ctx context.Context, owner string) ([]Document, error) {
	docs, err := s.repo.List(ctx, owner, "")
	if err != nil {
		return nil, apperrors.Wrap("storage_error", "failed to list documents", err)
	}
	return docs, nil
}

func (s *service) ForThread(ctx context.Context, owner, threadID string) ([]Document, error) {
	docs, err := s.repo.List(ctx, owner, threadID)
	if err != nil {
		return nil, apperrors.Wrap("storage_error", "failed to list thread documents", err)
	}
	return docs, nil
}

func (s *service) Associate(ctx context.Context, owner, id, threadID string) (Document, error) {
	doc, found, err := s.repo.Get(ctx, owner, id)
	if err != nil {
		return Document{}, apperrors.Wrap("storage_error", "failed to load document", err)
	}
	if !found {
		return Document{}, apperrors.Wrap(apperrors.CodeNotFound, "document not found", nil)
	}
	if err := s.repo.Associate(ctx, owner, id, threadID); err != nil {
		return Document{}, apperrors.Wrap("storage_error", "failed to associate document", err)
	}
	for _, existing := range doc.Threads {
		if existing == threadID {
			return doc, nil
		}
	}
	doc.Threads = append(doc.Threads, threadID)
	return doc, nil
}

func (s *service) DetachThread(ctx context.Context, owner, threadID string) error {
	n, err := s.repo.DetachThread(ctx, owner, threadID)
	if err != nil {
		return apperrors.Wrap("storage_error", "failed to detach documents", err)
	}
	if n > 0 {
		s.logger.Info("documents detached from thread", "thread", threadID, "documents", n)
	}
	return nil
}

// Search ranks chunks of every document the session uploaded.
func (s *service) Search(ctx context.Context, owner, query string, limit int) ([]Hit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "query parameter is required", nil)
	}
	if limit <= 0 {
		limit = s.cfg.SearchLimit
	}
	if limit > s.cfg.MaxSearchLimit {
		limit = s.cfg.MaxSearchLimit
	}
	hits, err := s.search(ctx, owner, query, SearchFilter{Limit: limit, MinScore: s.cfg.MinScore})
	if err != nil {
		return nil, err
	}
	for i := range hits {
		hits[i].Snippet = clip(hits[i].Snippet, s.cfg.SnippetChars)
	}
	return hits, nil
}

// Retrieve returns the excerpts of a thread's documents most relevant to a
// chat question.
func (s *service) Retrieve(ctx context.Context, owner, threadID, question string) ([]Hit, error) {
	question = strings.TrimSpace(question)
	if question == "" || threadID == "" {
		return nil, nil
	}
	hits, err := s.search(ctx, owner, question, SearchFilter{ThreadID: threadID, Limit: s.cfg.ContextChunks, MinScore: s.cfg.MinScore})
	if err != nil {
		return nil, err
	}
	for i := range hits {
		hits[i].Snippet = clip(hits[i].Snippet, s.cfg.ContextChars)
	}
	return hits, nil
}

func (s *service) search(ctx context.Context, owner, query string, filter SearchFilter) ([]Hit, error) {
	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeUpstream, "failed to embed query", err)
	}
	if len(vectors) != 1 {
		return nil, apperrors.Wrap(apperrors.CodeUpstream, "failed to embed query", fmt.Errorf("got %d vectors", len(vectors)))
	}
	hits, err := s.repo.Search(ctx, owner, vectors[0], filter)
	if err != nil {
		return nil, apperrors.Wrap("storage_error", "document search failed", err)
	}
	return hits, nil
}

func clip(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit]) + "..."
}

// Package engine wires extraction, chunking, embedding, indexing, and answer
// synthesis into the per-session question-answering pipeline.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/intelliquery/intelliquery/internal/chunker"
	"github.com/intelliquery/intelliquery/internal/config"
	"github.com/intelliquery/intelliquery/internal/embedding"
	"github.com/intelliquery/intelliquery/internal/extract"
	"github.com/intelliquery/intelliquery/internal/llm"
	"github.com/intelliquery/intelliquery/internal/models"
	"github.com/intelliquery/intelliquery/internal/storage"
	"github.com/intelliquery/intelliquery/internal/vector"
)

// ErrNoRelevantClauses is returned when retrieval yields nothing to answer from.
var ErrNoRelevantClauses = errors.New("could not find relevant clauses")

// noAnswerFallback is the bulk-flow answer when retrieval returns nothing.
const noAnswerFallback = "Could not find relevant information in the provided documents to answer this question."

// Engine runs the document pipeline: extract, chunk, embed, build, search,
// synthesize. Each request's pipeline is strictly sequential; concurrency
// happens across requests, with shared state confined to the session registry.
type Engine struct {
	registry    *vector.Registry
	embedder    embedding.Embedder
	chunker     *chunker.Chunker
	extractor   *extract.Extractor
	parser      *llm.QueryParser
	synthesizer *llm.Synthesizer
	store       storage.Store // optional; nil disables persistence
	cfg         *config.IngestConfig
	download    *http.Client
	logger      *zap.Logger // optional; when set, logs debug events
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithStore enables opt-in session persistence. Builds are mirrored to the
// store and session misses fall back to it before reporting "not built".
func WithStore(s storage.Store) Option {
	return func(e *Engine) { e.store = s }
}

// NewEngine creates an engine with the given dependencies.
func NewEngine(
	registry *vector.Registry,
	embedder embedding.Embedder,
	parser *llm.QueryParser,
	synthesizer *llm.Synthesizer,
	cfg *config.IngestConfig,
	opts ...Option,
) *Engine {
	e := &Engine{
		registry:    registry,
		embedder:    embedder,
		chunker:     chunker.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
		extractor:   extract.NewExtractor(),
		parser:      parser,
		synthesizer: synthesizer,
		cfg:         cfg,
		download:    &http.Client{Timeout: time.Duration(cfg.DownloadTimeoutSeconds) * time.Second},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IngestReader stores an uploaded document in the uploads directory, processes
// it into the session's index, and removes the temporary file. Returns the
// number of chunks indexed.
func (e *Engine) IngestReader(ctx context.Context, sessionID, filename string, r io.Reader) (int, error) {
	if err := os.MkdirAll(e.cfg.UploadsDir, 0755); err != nil {
		return 0, fmt.Errorf("create uploads dir: %w", err)
	}
	path := filepath.Join(e.cfg.UploadsDir, filepath.Base(filename))
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return 0, fmt.Errorf("write upload file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return 0, fmt.Errorf("close upload file: %w", err)
	}
	defer os.Remove(path)
	return e.IngestFile(ctx, sessionID, path)
}

// IngestFile extracts, chunks, and indexes a local document into the session.
func (e *Engine) IngestFile(ctx context.Context, sessionID, path string) (int, error) {
	text, err := e.extractor.Extract(path)
	if err != nil {
		return 0, err
	}
	chunks, err := e.chunker.Chunk(text, filepath.Base(path))
	if err != nil {
		return 0, err
	}
	if err := e.buildSession(ctx, sessionID, chunks); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// IngestURLs downloads each URL, extracts and chunks it, and builds one index
// over all accumulated chunks. Any per-document failure aborts the whole
// ingestion before indexing, naming the failing URL.
func (e *Engine) IngestURLs(ctx context.Context, sessionID string, urls []string) (int, error) {
	var allChunks []models.DocumentChunk
	for _, docURL := range urls {
		chunks, err := e.fetchAndChunk(ctx, docURL)
		if err != nil {
			return 0, fmt.Errorf("failed to download or process document %s: %w", docURL, err)
		}
		allChunks = append(allChunks, chunks...)
	}
	if len(allChunks) == 0 {
		return 0, fmt.Errorf("no documents could be processed from the provided URLs")
	}
	if err := e.buildSession(ctx, sessionID, allChunks); err != nil {
		return 0, err
	}
	return len(allChunks), nil
}

func (e *Engine) fetchAndChunk(ctx context.Context, docURL string) ([]models.DocumentChunk, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, docURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := e.download.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("download: server returned %s", resp.Status)
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	fileName := documentNameFromURL(docURL)
	text, err := e.extractor.ExtractBytes(content, strings.ToLower(filepath.Ext(fileName)))
	if err != nil {
		return nil, err
	}
	return e.chunker.Chunk(text, fileName)
}

// documentNameFromURL returns the last path segment of the URL, query stripped.
func documentNameFromURL(docURL string) string {
	name := docURL
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		name = "document"
	}
	return name
}

// buildSession embeds all chunks in one batched call, builds a complete new
// index, and publishes it atomically, discarding any prior index for the session.
func (e *Engine) buildSession(ctx context.Context, sessionID string, chunks []models.DocumentChunk) error {
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Content
	}
	vectors, err := e.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	idx, err := vector.NewIndex(vectors, chunks)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	session := e.registry.GetOrCreate(sessionID)
	session.Publish(idx)
	if e.logger != nil {
		e.logger.Debug("index built",
			zap.String("session_id", sessionID),
			zap.Int("vectors", idx.Size()),
			zap.Int("dimensions", idx.Dimensions()),
		)
	}
	if e.store != nil {
		if err := e.store.SaveSession(ctx, sessionID, chunks, vectors); err != nil && e.logger != nil {
			e.logger.Warn("session persistence failed", zap.String("session_id", sessionID), zap.Error(err))
		}
	}
	return nil
}

// session returns the registry session for id. On a miss with persistence
// enabled, the stored state is loaded and republished before reporting anything.
func (e *Engine) session(ctx context.Context, sessionID string) *vector.Session {
	if s, ok := e.registry.Get(sessionID); ok {
		return s
	}
	s := e.registry.GetOrCreate(sessionID)
	if e.store == nil {
		return s
	}
	chunks, vectors, err := e.store.LoadSession(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, storage.ErrSessionNotFound) && e.logger != nil {
			e.logger.Warn("session load failed", zap.String("session_id", sessionID), zap.Error(err))
		}
		return s
	}
	idx, err := vector.NewIndex(vectors, chunks)
	if err != nil {
		if e.logger != nil {
			e.logger.Warn("stored session rejected", zap.String("session_id", sessionID), zap.Error(err))
		}
		return s
	}
	s.Publish(idx)
	return s
}

// retrieve embeds the search query and returns the top-k chunks in
// ascending-distance order.
func (e *Engine) retrieve(ctx context.Context, session *vector.Session, query string) ([]models.DocumentChunk, error) {
	queryVec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	results, err := session.Search(queryVec, e.cfg.TopK)
	if err != nil {
		return nil, err
	}
	chunks := make([]models.DocumentChunk, len(results))
	for i, r := range results {
		chunks[i] = r.Chunk
	}
	return chunks, nil
}

// Ask answers one question against the session's documents: the question is
// classified into an enriched search string, the top chunks are retrieved, and
// the final structured answer is synthesized.
func (e *Engine) Ask(ctx context.Context, sessionID, question string) (*models.Answer, error) {
	session := e.session(ctx, sessionID)

	parsed, err := e.parser.Parse(ctx, question)
	if err != nil {
		return nil, err
	}
	chunks, err := e.retrieve(ctx, session, parsed.SearchString())
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, ErrNoRelevantClauses
	}
	return e.synthesizer.GenerateAnswer(ctx, question, chunks)
}

// DeleteSession discards the session's in-memory index and, when persistence
// is enabled, its stored state. Deleting an unknown session is not an error.
func (e *Engine) DeleteSession(ctx context.Context, sessionID string) error {
	e.registry.Evict(sessionID)
	if e.store != nil {
		if err := e.store.DeleteSession(ctx, sessionID); err != nil {
			return fmt.Errorf("delete stored session: %w", err)
		}
	}
	if e.logger != nil {
		e.logger.Debug("session deleted", zap.String("session_id", sessionID))
	}
	return nil
}

// BulkRun ingests all URLs into a fresh session, then answers every question
// in order. A per-question failure degrades to a placeholder answer so one bad
// question does not abort the rest; a per-document failure during ingestion is
// fatal to the whole run.
func (e *Engine) BulkRun(ctx context.Context, urls, questions []string) ([]string, error) {
	sessionID := "bulk_" + uuid.New().String()
	if _, err := e.IngestURLs(ctx, sessionID, urls); err != nil {
		return nil, err
	}
	session := e.session(ctx, sessionID)

	answers := make([]string, 0, len(questions))
	for _, question := range questions {
		answer, err := e.answerBulkQuestion(ctx, session, question)
		if err != nil {
			if e.logger != nil {
				e.logger.Warn("bulk question failed", zap.String("question", question), zap.Error(err))
			}
			answers = append(answers, fmt.Sprintf("An error occurred while processing the question: '%s'", question))
			continue
		}
		answers = append(answers, answer)
	}
	return answers, nil
}

// answerBulkQuestion retrieves with the raw question text (the bulk flow skips
// intent classification) and returns the synthesized justification.
func (e *Engine) answerBulkQuestion(ctx context.Context, session *vector.Session, question string) (string, error) {
	chunks, err := e.retrieve(ctx, session, question)
	if err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		return noAnswerFallback, nil
	}
	answer, err := e.synthesizer.GenerateAnswer(ctx, question, chunks)
	if err != nil {
		return "", err
	}
	return answer.Justification, nil
}

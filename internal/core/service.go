package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/opsdesk/internal/logging"
)

// DefaultSubmitTimeout is the maximum duration of one submit.
const DefaultSubmitTimeout = 2 * time.Minute

// ErrNoBackend is returned by operations that need the data backend when the
// service runs offline.
var ErrNoBackend = errors.New("no backend configured")

// Config holds the import settings the service needs.
type Config struct {
	MaxFileSize   int64
	PreviewRows   int
	ReferenceMode ReferenceMode
	Atomic        bool
	MaxConcurrent int
	MaxWaitTime   time.Duration
	SubmitTimeout time.Duration
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		MaxFileSize:   DefaultMaxFileSize,
		PreviewRows:   DefaultPreviewRows,
		ReferenceMode: ReferenceLenient,
		Atomic:        true,
		MaxConcurrent: DefaultMaxConcurrentImports,
		MaxWaitTime:   DefaultMaxWaitTime,
		SubmitTimeout: DefaultSubmitTimeout,
	}
}

// Service provides the import pipeline to any frontend (HTTP, CLI, tests).
type Service struct {
	backend   Backend
	sessions  SessionStore
	authz     *Authorizer
	submitter *Submitter
	limiter   *SubmitLimiter
	cfg       Config

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewService creates a Service over the registered entities. backend may be
// nil for offline use (templates and previews only).
func NewService(backend Backend, sessions SessionStore, cfg Config) (*Service, error) {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.PreviewRows <= 0 {
		cfg.PreviewRows = DefaultPreviewRows
	}
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = DefaultSubmitTimeout
	}
	switch cfg.ReferenceMode {
	case "":
		cfg.ReferenceMode = ReferenceLenient
	case ReferenceLenient, ReferenceStrict:
	default:
		return nil, fmt.Errorf("unknown reference mode %q", cfg.ReferenceMode)
	}
	if sessions == nil {
		sessions = NewMemorySessionStore(DefaultSessionTTL)
	}

	authz, err := NewAuthorizer(All())
	if err != nil {
		return nil, err
	}

	return &Service{
		backend:   backend,
		sessions:  sessions,
		authz:     authz,
		submitter: NewSubmitter(backend, authz, cfg.ReferenceMode, cfg.Atomic),
		limiter:   NewSubmitLimiter(cfg.MaxConcurrent, cfg.MaxWaitTime),
		cfg:       cfg,
		inflight:  make(map[string]struct{}),
	}, nil
}

// Config returns the effective configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// Entities returns every importable entity sorted by key.
func (s *Service) Entities() []EntityDefinition {
	return All()
}

// Template returns the download for an entity template in "csv" or "xlsx".
func (s *Service) Template(entity, format string) (string, []byte, error) {
	switch format {
	case "", "csv":
		return GenerateTemplate(entity)
	case "xlsx":
		return GenerateTemplateXLSX(entity)
	default:
		return "", nil, fmt.Errorf("%w: template format %q", ErrUnsupportedFile, format)
	}
}

// Preview is the read-only view of an uploaded file.
type Preview struct {
	Entity   string              `json:"entity"`
	Headers  []string            `json:"headers"`
	Rows     []map[string]string `json:"rows"`
	RowCount int                 `json:"rowCount"`
	Issues   []RowIssue          `json:"issues,omitempty"`
}

// PreviewFile reads and parses a file without creating a session. References
// are checked only when refs is non-nil.
func (s *Service) PreviewFile(entity, fileName string, r io.Reader, refs ReferenceSet) (*Preview, error) {
	def, ok := Get(entity)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}

	data, err := ReadFile(fileName, r, s.cfg.MaxFileSize)
	if err != nil {
		return nil, err
	}
	parsed, err := ParseCSV(data)
	if err != nil {
		return nil, err
	}

	return &Preview{
		Entity:   entity,
		Headers:  parsed.Headers,
		Rows:     parsed.Preview(s.cfg.PreviewRows),
		RowCount: len(parsed.Rows),
		Issues:   AllIssues(NewMapper(def, refs).MapAll(parsed.Rows)),
	}, nil
}

// StartImport reads an uploaded file into a new session and parses it.
// The returned session is in the parsed state with its preview filled in.
func (s *Service) StartImport(ctx context.Context, entity, callerID, fileName string, r io.Reader) (*Session, error) {
	def, ok := Get(entity)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}
	if callerID == "" {
		return nil, ErrNoCaller
	}

	sess := NewSession(uuid.NewString(), entity, callerID)
	log := logging.WithFields(ctx, "session_id", sess.ID, "entity", entity)

	data, err := ReadFile(fileName, r, s.cfg.MaxFileSize)
	if err != nil {
		log.Warn("import file rejected", "file", fileName, "error", err)
		return nil, err
	}
	sess.FileName = fileName
	sess.Data = data
	if err := sess.Transition(StateFileSelected); err != nil {
		return nil, err
	}

	parsed, err := ParseCSV(data)
	if err != nil {
		log.Warn("import file unparseable", "file", fileName, "error", err)
		return nil, err
	}

	sess.Headers = parsed.Headers
	sess.Preview = parsed.Preview(s.cfg.PreviewRows)
	sess.RowCount = len(parsed.Rows)
	sess.Issues = AllIssues(NewMapper(def, s.previewReferences(ctx, def)).MapAll(parsed.Rows))
	if err := sess.Transition(StateParsed); err != nil {
		return nil, err
	}

	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	log.Info("import parsed",
		"file", fileName,
		"rows", sess.RowCount,
		"issues", len(sess.Issues),
	)
	return sess, nil
}

// previewReferences loads reference lists for preview diagnostics. Failures
// only cost the reference checks, so they are logged and swallowed.
func (s *Service) previewReferences(ctx context.Context, def EntityDefinition) ReferenceSet {
	if s.backend == nil {
		return nil
	}
	refs, err := LoadReferences(ctx, s.backend, def.RefKinds())
	if err != nil {
		logging.FromContext(ctx).Warn("reference lists unavailable for preview", "entity", def.Info.Key, "error", err)
		return nil
	}
	return refs
}

// GetSession returns a session owned by callerID.
func (s *Service) GetSession(ctx context.Context, id, callerID string) (*Session, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	// Other callers' sessions are indistinguishable from missing ones
	if sess.CallerID != callerID {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Submit runs the full import for a parsed (or previously failed) session.
// The session is returned in succeeded or failed state together with any
// submit error; its preview is left intact either way.
func (s *Service) Submit(ctx context.Context, id, callerID string) (*Session, error) {
	if s.backend == nil {
		return nil, ErrNoBackend
	}
	if !s.claim(id) {
		return nil, ErrSubmitInProgress
	}
	defer s.unclaim(id)

	if _, err := s.submittable(ctx, id, callerID); err != nil {
		return nil, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	// The session may have been discarded or expired while waiting for a slot
	sess, err := s.submittable(ctx, id, callerID)
	if err != nil {
		return nil, err
	}
	if sess.State == StateFailed {
		if err := sess.Transition(StateParsed); err != nil {
			return nil, err
		}
	}
	if err := sess.Transition(StateSubmitting); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	submitCtx, cancel := context.WithTimeout(ctx, s.cfg.SubmitTimeout)
	defer cancel()

	result, submitErr := s.runSubmit(submitCtx, sess)
	sess.Result = result

	next := StateSucceeded
	if submitErr != nil {
		next = StateFailed
	}
	if err := sess.Transition(next); err != nil {
		return nil, err
	}

	// The caller's context may be gone by now; persist the outcome regardless
	if err := s.sessions.Save(context.WithoutCancel(ctx), sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return sess, submitErr
}

// submittable loads a caller's session and checks it may be submitted.
func (s *Service) submittable(ctx context.Context, id, callerID string) (*Session, error) {
	sess, err := s.GetSession(ctx, id, callerID)
	if err != nil {
		return nil, err
	}
	if !sess.CanSubmit() {
		return nil, fmt.Errorf("%w: cannot submit a %s import", ErrInvalidTransition, sess.State)
	}
	return sess, nil
}

func (s *Service) runSubmit(ctx context.Context, sess *Session) (*ImportResult, error) {
	parsed, err := ParseCSV(sess.Data)
	if err != nil {
		return &ImportResult{Entity: sess.Entity, Error: err.Error(), FinishedAt: time.Now()}, err
	}
	return s.submitter.Submit(ctx, sess.Entity, sess.CallerID, parsed.Rows)
}

// Discard abandons a session. Discarding a session with a submit queued or
// running is refused.
func (s *Service) Discard(ctx context.Context, id, callerID string) error {
	if !s.claim(id) {
		return ErrSubmitInProgress
	}
	defer s.unclaim(id)

	sess, err := s.GetSession(ctx, id, callerID)
	if err != nil {
		return err
	}
	if sess.State == StateSubmitting {
		return ErrSubmitInProgress
	}
	return s.sessions.Delete(ctx, id)
}

// Import reads, parses and submits a file in one call without a session.
func (s *Service) Import(ctx context.Context, entity, callerID, fileName string, r io.Reader) (*ImportResult, error) {
	if s.backend == nil {
		return nil, ErrNoBackend
	}
	if _, ok := Get(entity); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}

	data, err := ReadFile(fileName, r, s.cfg.MaxFileSize)
	if err != nil {
		return nil, err
	}
	parsed, err := ParseCSV(data)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	submitCtx, cancel := context.WithTimeout(ctx, s.cfg.SubmitTimeout)
	defer cancel()
	return s.submitter.Submit(submitCtx, entity, callerID, parsed.Rows)
}

// LimiterStatus reports submit concurrency for health checks.
func (s *Service) LimiterStatus() SubmitLimiterStatus {
	return s.limiter.Status()
}

// Shutdown waits for running submits to finish and closes the session store.
func (s *Service) Shutdown(ctx context.Context) error {
	drainErr := s.limiter.WaitForDrain(ctx)
	if err := s.sessions.Close(); err != nil {
		return err
	}
	return drainErr
}

func (s *Service) claim(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[id]; busy {
		return false
	}
	s.inflight[id] = struct{}{}
	return true
}

func (s *Service) unclaim(id string) {
	s.mu.Lock()
	delete(s.inflight, id)
	s.mu.Unlock()
}

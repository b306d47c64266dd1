package app

import (
	"context"
	"log"
	"sync"
	"time"

	"litmus-quiz-service/internal/domain"
)

// SessionRepository abstracts how quiz sessions are stored (in-memory, Redis, etc).
type SessionRepository interface {
	GetOrCreate(sessionID string) *Session
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// CatalogRepository loads question catalogs (from cache/backing store).
type CatalogRepository interface {
	GetCatalog(ctx context.Context, catalogID string) (domain.Catalog, error)
}

// Submitter forwards a captured lead to the marketing webhook. ValidateEmail
// gates the submitting transition; Submit makes exactly one attempt and
// always returns an explicit result, never an error.
type Submitter interface {
	ValidateEmail(email string) error
	Submit(ctx context.Context, lead domain.Lead) domain.SubmissionResult
}

// QuizService drives respondent sessions through the lead-qualification flow.
type QuizService struct {
	sessions     SessionRepository
	catalogs     CatalogRepository
	submitter    Submitter
	catalogID    string
	tiers        []domain.Tier
	advanceDelay time.Duration
	bookingURL   string
}

func NewQuizService(store SessionRepository, catalogs CatalogRepository, submitter Submitter, catalogID string, tiers []domain.Tier, advanceDelay time.Duration, bookingURL string) *QuizService {
	return &QuizService{
		sessions:     store,
		catalogs:     catalogs,
		submitter:    submitter,
		catalogID:    catalogID,
		tiers:        tiers,
		advanceDelay: advanceDelay,
		bookingURL:   bookingURL,
	}
}

// NewSession is exported for infrastructure layers that need to seed sessions.
func NewSession(id string) *Session {
	return newSession(id)
}

// NewSessionWithClock is test-only for deterministic timestamps.
func NewSessionWithClock(id string, now func() time.Time) *Session {
	return newSessionWithClock(id, now)
}

// sessionEnv carries the immutable per-quiz data transitions need to build
// state snapshots.
type sessionEnv struct {
	catalog    domain.Catalog
	tiers      []domain.Tier
	bookingURL string
}

func (s *QuizService) env(ctx context.Context) (sessionEnv, error) {
	catalog, err := s.catalogs.GetCatalog(ctx, s.catalogID)
	if err != nil {
		return sessionEnv{}, err
	}
	return sessionEnv{catalog: catalog, tiers: s.tiers, bookingURL: s.bookingURL}, nil
}

// Open registers (or refreshes) a respondent session and returns its state.
// Sessions cannot open against an unknown catalog.
func (s *QuizService) Open(ctx context.Context, sessionID string) (domain.StateView, error) {
	env, err := s.env(ctx)
	if err != nil {
		return domain.StateView{}, err
	}
	session := s.sessions.GetOrCreate(sessionID)
	return session.view(env), nil
}

// Start moves a welcome-state session onto the first question.
func (s *QuizService) Start(ctx context.Context, sessionID string) (domain.StateView, error) {
	env, session, err := s.lookup(ctx, sessionID)
	if err != nil {
		return domain.StateView{}, err
	}
	return session.start(env)
}

// Answer records the chosen option value for the current question and
// schedules the paced advance to the next step.
func (s *QuizService) Answer(ctx context.Context, sessionID, questionID string, value int) (domain.StateView, error) {
	env, session, err := s.lookup(ctx, sessionID)
	if err != nil {
		return domain.StateView{}, err
	}
	return session.recordAnswer(env, questionID, value, s.advanceDelay, func(epoch uint64) {
		s.fireAdvance(sessionID, epoch)
	})
}

// SetEmail stores the candidate email text during email capture.
func (s *QuizService) SetEmail(ctx context.Context, sessionID, email string) (domain.StateView, error) {
	env, session, err := s.lookup(ctx, sessionID)
	if err != nil {
		return domain.StateView{}, err
	}
	return session.setEmail(env, email)
}

// SubmitEmail validates the candidate email. On validation failure the
// session stays in email capture with an inline error and no webhook call is
// made. On success the session enters submitting, the lead is posted once in
// the background, and the session lands on the result step regardless of the
// webhook outcome.
func (s *QuizService) SubmitEmail(ctx context.Context, sessionID string) (domain.StateView, error) {
	env, session, err := s.lookup(ctx, sessionID)
	if err != nil {
		return domain.StateView{}, err
	}

	view, lead, epoch, err := session.beginSubmit(env, s.submitter.ValidateEmail)
	if err != nil {
		return domain.StateView{}, err
	}
	if lead == nil {
		// Validation failed; error is surfaced inline on the view.
		return view, nil
	}

	go func() {
		result := s.submitter.Submit(context.Background(), *lead)
		if result.Status == domain.SubmissionFailed {
			log.Printf("lead submission failed (session=%s status=%d err=%q body=%q)", sessionID, result.HTTPStatus, result.Err, result.Body)
		}
		session.completeSubmission(env, epoch, result)
	}()
	return view, nil
}

// Reset returns the session to a pristine welcome state from any step,
// cancelling any pending paced advance and orphaning any in-flight
// submission result.
func (s *QuizService) Reset(ctx context.Context, sessionID string) (domain.StateView, error) {
	env, session, err := s.lookup(ctx, sessionID)
	if err != nil {
		return domain.StateView{}, err
	}
	return session.reset(env), nil
}

// View returns the current state snapshot without mutating the session.
func (s *QuizService) View(ctx context.Context, sessionID string) (domain.StateView, error) {
	env, session, err := s.lookup(ctx, sessionID)
	if err != nil {
		return domain.StateView{}, err
	}
	return session.view(env), nil
}

// Subscribe returns a channel receiving state snapshots for a session.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(_ context.Context, sessionID string) (<-chan domain.StateView, func(), error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// Release drops a session once its respondent disconnects. Sessions are not
// persisted across connections.
func (s *QuizService) Release(_ context.Context, sessionID string) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	session.cancelPending()
	s.sessions.Delete(sessionID)
}

// Catalog exposes the active question catalog (read-only) for the transport.
func (s *QuizService) Catalog(ctx context.Context) (domain.Catalog, error) {
	return s.catalogs.GetCatalog(ctx, s.catalogID)
}

func (s *QuizService) lookup(ctx context.Context, sessionID string) (sessionEnv, *Session, error) {
	env, err := s.env(ctx)
	if err != nil {
		return sessionEnv{}, nil, err
	}
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return sessionEnv{}, nil, domain.ErrSessionNotFound
	}
	return env, session, nil
}

// fireAdvance runs when the pacing delay elapses. The epoch guard makes a
// timer scheduled before a reset a no-op against the fresh session.
func (s *QuizService) fireAdvance(sessionID string, epoch uint64) {
	env, err := s.env(context.Background())
	if err != nil {
		log.Printf("advance skipped, catalog unavailable: %v", err)
		// The fired timer must not linger as a pending reference, or no
		// re-answer could ever schedule a fresh advance.
		if session, ok := s.sessions.Get(sessionID); ok {
			session.clearAdvanceTimer(epoch)
		}
		return
	}
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	session.advance(env, epoch)
}

// Session is the mutable record of one respondent's progress. All
// transitions are serialized under its mutex; interleaved async callbacks
// (pacing timer, webhook completion) re-enter through epoch-guarded methods.
type Session struct {
	id        string
	createdAt time.Time
	now       func() time.Time

	mu            sync.Mutex
	step          domain.Step
	index         int
	answers       map[string]int
	email         string
	capturedEmail string
	emailError    string
	submission    domain.SubmissionStatus
	subResult     domain.SubmissionResult
	epoch         uint64
	advanceTimer  *time.Timer
	subscribers   map[chan domain.StateView]struct{}
}

func newSession(id string) *Session {
	return newSessionWithClock(id, time.Now)
}

// newSessionWithClock allows deterministic timestamps in tests.
func newSessionWithClock(id string, now func() time.Time) *Session {
	return &Session{
		id:          id,
		createdAt:   now(),
		now:         now,
		step:        domain.StepWelcome,
		answers:     make(map[string]int),
		submission:  domain.SubmissionNotStarted,
		subscribers: make(map[chan domain.StateView]struct{}),
	}
}

func (s *Session) start(env sessionEnv) (domain.StateView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != domain.StepWelcome {
		return domain.StateView{}, domain.ErrInvalidTransition
	}
	s.step = domain.StepAsking
	s.index = 0
	return s.broadcastLocked(env), nil
}

// recordAnswer writes the chosen value for the current question (last write
// wins on re-answer) and schedules exactly one paced advance per step; a
// re-answer arriving while the advance is pending only replaces the value.
func (s *Session) recordAnswer(env sessionEnv, questionID string, value int, delay time.Duration, fire func(epoch uint64)) (domain.StateView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != domain.StepAsking {
		return domain.StateView{}, domain.ErrInvalidTransition
	}
	if s.index >= env.catalog.Len() {
		// Index past the catalog would mean the step enum and counter
		// disagree; fail fast rather than mint an answer key.
		return domain.StateView{}, domain.ErrInvalidTransition
	}
	current := env.catalog.Questions[s.index]
	if current.ID != questionID {
		return domain.StateView{}, domain.ErrQuestionNotFound
	}
	if !current.HasValue(value) {
		return domain.StateView{}, domain.ErrOptionNotFound
	}

	s.answers[questionID] = value

	if s.advanceTimer == nil {
		epoch := s.epoch
		s.advanceTimer = time.AfterFunc(delay, func() { fire(epoch) })
	}
	return s.broadcastLocked(env), nil
}

// advance moves past the answered question once the pacing delay elapses.
func (s *Session) advance(env sessionEnv, epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch || s.step != domain.StepAsking {
		return
	}
	s.advanceTimer = nil
	if s.index+1 < env.catalog.Len() {
		s.index++
	} else {
		s.step = domain.StepEmailCapture
	}
	s.broadcastLocked(env)
}

func (s *Session) setEmail(env sessionEnv, email string) (domain.StateView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != domain.StepEmailCapture {
		return domain.StateView{}, domain.ErrInvalidTransition
	}
	s.email = email
	s.emailError = ""
	return s.broadcastLocked(env), nil
}

// beginSubmit validates the candidate email. On success it flips the
// session to submitting and returns the lead snapshot plus the epoch the
// completion callback must present. On validation failure it returns the
// refreshed view with the inline error and a nil lead.
func (s *Session) beginSubmit(env sessionEnv, validate func(string) error) (domain.StateView, *domain.Lead, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != domain.StepEmailCapture {
		return domain.StateView{}, nil, 0, domain.ErrInvalidTransition
	}
	if s.submission == domain.SubmissionInFlight {
		// A second submit while one is in flight would double the webhook
		// call; correct presentation ordering never gets here.
		return domain.StateView{}, nil, 0, domain.ErrInvalidTransition
	}

	if err := validate(s.email); err != nil {
		s.emailError = err.Error()
		return s.broadcastLocked(env), nil, 0, nil
	}

	s.capturedEmail = s.email
	s.emailError = ""
	s.step = domain.StepSubmitting
	s.submission = domain.SubmissionInFlight

	records := make([]domain.AnswerRecord, 0, len(s.answers))
	for _, question := range env.catalog.Questions {
		if value, ok := s.answers[question.ID]; ok {
			records = append(records, domain.AnswerRecord{QuestionID: question.ID, Prompt: question.Prompt, Value: value})
		}
	}
	score := Score(s.answers)
	lead := &domain.Lead{
		Email:      s.capturedEmail,
		Answers:    records,
		Score:      score,
		TierLabel:  Classify(score, env.tiers).Label,
		CapturedAt: s.now(),
	}
	return s.broadcastLocked(env), lead, s.epoch, nil
}

// completeSubmission records the webhook outcome and lands on the result
// step. A result from a pre-reset epoch is discarded.
func (s *Session) completeSubmission(env sessionEnv, epoch uint64, result domain.SubmissionResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch || s.step != domain.StepSubmitting {
		return
	}
	s.subResult = result
	s.submission = result.Status
	s.step = domain.StepResult
	s.broadcastLocked(env)
}

// reset restores every field to its initial value in one critical section
// and bumps the epoch so pending timers and in-flight submission results
// cannot touch the fresh session.
func (s *Session) reset(env sessionEnv) domain.StateView {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelPendingLocked()
	s.epoch++
	s.step = domain.StepWelcome
	s.index = 0
	s.answers = make(map[string]int)
	s.email = ""
	s.capturedEmail = ""
	s.emailError = ""
	s.submission = domain.SubmissionNotStarted
	s.subResult = domain.SubmissionResult{}
	return s.broadcastLocked(env)
}

func (s *Session) view(env sessionEnv) domain.StateView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(env)
}

func (s *Session) cancelPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelPendingLocked()
	s.epoch++
}

// clearAdvanceTimer drops the pending timer reference once its callback has
// already run but could not advance, so the next answer can schedule again.
func (s *Session) clearAdvanceTimer(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch == s.epoch {
		s.advanceTimer = nil
	}
}

func (s *Session) cancelPendingLocked() {
	if s.advanceTimer != nil {
		s.advanceTimer.Stop()
		s.advanceTimer = nil
	}
}

func (s *Session) subscribe() (<-chan domain.StateView, func()) {
	ch := make(chan domain.StateView, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked(env sessionEnv) domain.StateView {
	view := s.snapshotLocked(env)
	for ch := range s.subscribers {
		select {
		case ch <- view:
		default:
			// Drop the stale snapshot so slow readers never block a transition.
			select {
			case <-ch:
			default:
			}
			ch <- view
		}
	}
	return view
}

func (s *Session) snapshotLocked(env sessionEnv) domain.StateView {
	total := env.catalog.Len()
	view := domain.StateView{
		SessionID:        s.id,
		Step:             s.step,
		TotalQuestions:   total,
		SubmissionStatus: s.submission,
		UpdatedAt:        s.now(),
	}

	switch s.step {
	case domain.StepWelcome:
		view.Progress = 0
	case domain.StepAsking:
		view.QuestionIndex = s.index
		question := env.catalog.Questions[s.index]
		view.Question = &question
		if total > 0 {
			view.Progress = float64(s.index) / float64(total)
		}
	case domain.StepEmailCapture:
		view.Progress = 1
		view.EmailError = s.emailError
	case domain.StepSubmitting:
		view.Progress = 1
	case domain.StepResult:
		view.Progress = 1
		score := Score(s.answers)
		view.Score = score
		view.PercentScore = PercentScore(score, MaxPossibleScore(env.catalog))
		tier := Classify(score, env.tiers)
		view.Tier = &tier
		view.BookingURL = env.bookingURL
	}
	return view
}

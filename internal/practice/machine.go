// Package practice drives one speaking practice: a random question, a timed
// answer, an evaluation and the optional recording of a spoken answer.
package practice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/ielts-coach/internal/evaluation"
	"github.com/abhisek/ielts-coach/internal/questions"
	"github.com/abhisek/ielts-coach/internal/recorder"
)

// DefaultDuration is how long the candidate has to answer.
const DefaultDuration = 180 * time.Second

// Evaluator scores an answer. *evaluation.Client implements it.
type Evaluator interface {
	Evaluate(ctx context.Context, question, answer string) (*evaluation.Result, error)
}

// QuestionSource draws the next question. *questions.Bank implements it.
type QuestionSource interface {
	PickRandom() questions.Question
}

type Config struct {
	// Duration of the answer countdown, rounded down to whole seconds.
	Duration time.Duration
	// AllowEarlySubmit lets the answer be submitted before the countdown
	// reaches zero.
	AllowEarlySubmit bool
}

func DefaultConfig() Config {
	return Config{Duration: DefaultDuration}
}

type Option func(*Machine)

// WithClock replaces the wall clock driving the countdown.
func WithClock(c Clock) Option {
	return func(m *Machine) { m.clock = c }
}

// WithRecorderFactory sets how the recorder shown with a result is built.
// Without it results carry no recorder.
func WithRecorderFactory(fn func() *recorder.Recorder) Option {
	return func(m *Machine) { m.newRecorder = fn }
}

func WithLogger(log *zap.Logger) Option {
	return func(m *Machine) {
		if log != nil {
			m.log = log
		}
	}
}

// Submission identifies one accepted Submit call. Its outcome is applied only
// while it is still the latest submission of the current session.
type Submission struct {
	SessionID string
	Seq       uint64
}

// Machine is the practice state machine. It is safe for concurrent use.
type Machine struct {
	cfg         Config
	source      QuestionSource
	eval        Evaluator
	clock       Clock
	newRecorder func() *recorder.Recorder
	log         *zap.Logger

	mu         sync.Mutex
	state      State
	session    *Session
	err        error
	result     *evaluation.Result
	rec        *recorder.Recorder
	timer      Timer
	cancelEval context.CancelFunc
	seq        uint64
	version    uint64
	closed     bool
	subs       map[int]chan Snapshot
	nextSub    int
}

func New(source QuestionSource, eval Evaluator, cfg Config, opts ...Option) (*Machine, error) {
	if source == nil {
		return nil, errors.New("practice: question source is required")
	}
	if eval == nil {
		return nil, errors.New("practice: evaluator is required")
	}
	if cfg.Duration <= 0 {
		cfg.Duration = DefaultDuration
	}
	if cfg.Duration < time.Second {
		return nil, fmt.Errorf("practice: duration %s is shorter than one second", cfg.Duration)
	}
	m := &Machine{
		cfg:    cfg,
		source: source,
		eval:   eval,
		clock:  RealClock{},
		log:    zap.NewNop(),
		subs:   make(map[int]chan Snapshot),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.Named("practice")
	return m, nil
}

func (m *Machine) Config() Config { return m.cfg }

// Start begins a new session with a fresh question and a full countdown.
// Whatever the previous session was doing is abandoned.
func (m *Machine) Start() (Snapshot, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return Snapshot{}, ErrClosed
	}
	old := m.releaseLocked()

	q := m.source.PickRandom()
	id := uuid.NewString()
	m.session = &Session{ID: id, Question: q, Remaining: seconds(m.cfg.Duration)}
	m.state = StateAnswering
	m.err = nil
	m.result = nil
	m.timer = m.clock.Every(time.Second, func() { m.tick(id) })
	snap := m.publishLocked()
	m.mu.Unlock()

	m.log.Info("practice started", zap.String("session", id), zap.String("part", string(q.Part)))
	closeRecorder(old, m.log)
	return snap, nil
}

func (m *Machine) tick(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session
	if s == nil || s.ID != id || s.TimedOut {
		return
	}
	// The countdown is paused while an answer is being evaluated.
	if m.state != StateAnswering {
		return
	}
	if s.Remaining > 0 {
		s.Remaining--
	}
	if s.Remaining == 0 {
		s.TimedOut = true
		m.stopTimerLocked()
		if errors.Is(m.err, ErrTooEarly) {
			m.err = nil
		}
	}
	m.publishLocked()
}

// SetAnswer replaces the answer text of the running session.
func (m *Machine) SetAnswer(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateAnswering {
		return ErrWrongState
	}
	if m.session.TimedOut {
		m.err = ErrInputClosed
		m.publishLocked()
		return ErrInputClosed
	}
	if text == m.session.Answer && m.err == nil {
		return nil
	}
	m.session.Answer = text
	m.err = nil
	m.publishLocked()
	return nil
}

// Submit checks the answer and moves to StateEvaluating. The returned
// Submission must be passed to Evaluate.
func (m *Machine) Submit() (Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateAnswering {
		return Submission{}, ErrWrongState
	}
	s := m.session
	var err error
	switch {
	case strings.TrimSpace(s.Answer) == "":
		err = ErrEmptyAnswer
	case !s.TimedOut && !m.cfg.AllowEarlySubmit:
		err = ErrTooEarly
	}
	if err != nil {
		m.err = err
		m.publishLocked()
		return Submission{}, err
	}

	m.seq++
	m.state = StateEvaluating
	m.err = nil
	m.publishLocked()
	return Submission{SessionID: s.ID, Seq: m.seq}, nil
}

// Evaluate scores a submission. On success the machine shows the result; on
// failure it returns to answering with the answer kept. Outcomes for a
// submission that is no longer current are dropped with ErrStaleSubmission.
func (m *Machine) Evaluate(ctx context.Context, sub Submission) (*evaluation.Result, error) {
	m.mu.Lock()
	if !m.currentLocked(sub) {
		m.mu.Unlock()
		return nil, ErrStaleSubmission
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	m.cancelEval = cancel
	question, answer := m.session.Question.Text, m.session.Answer
	m.mu.Unlock()

	res, err := m.eval.Evaluate(ctx, question, answer)

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.currentLocked(sub) {
		m.log.Debug("dropping stale evaluation", zap.String("session", sub.SessionID))
		return nil, ErrStaleSubmission
	}
	m.cancelEval = nil

	if err != nil {
		if !errors.Is(err, evaluation.ErrFailed) {
			err = fmt.Errorf("%w: %w", evaluation.ErrFailed, err)
		}
		m.log.Warn("evaluation failed", zap.String("session", sub.SessionID), zap.Error(err))
		m.state = StateAnswering
		m.err = err
		m.publishLocked()
		return nil, err
	}

	m.state = StateResult
	m.result = res
	m.stopTimerLocked()
	if m.newRecorder != nil {
		rec := m.newRecorder()
		rec.OnChange(func() { m.recorderChanged(rec) })
		m.rec = rec
	}
	m.publishLocked()
	m.log.Info("practice evaluated", zap.String("session", sub.SessionID), zap.Float64("band", res.Band))
	return res, nil
}

// SubmitAndEvaluate runs Submit followed by Evaluate.
func (m *Machine) SubmitAndEvaluate(ctx context.Context) (*evaluation.Result, error) {
	sub, err := m.Submit()
	if err != nil {
		return nil, err
	}
	return m.Evaluate(ctx, sub)
}

func (m *Machine) currentLocked(sub Submission) bool {
	return m.state == StateEvaluating &&
		m.session != nil &&
		m.session.ID == sub.SessionID &&
		m.seq == sub.Seq
}

// Recorder returns the recorder of the current result, or nil.
func (m *Machine) Recorder() *recorder.Recorder {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rec
}

// StartRecording begins a recording cycle for the current result.
func (m *Machine) StartRecording(ctx context.Context) error {
	rec, err := m.resultRecorder()
	if err != nil {
		return err
	}
	return rec.Start(ctx)
}

// StopRecording completes the running recording cycle, if any.
func (m *Machine) StopRecording(ctx context.Context) error {
	rec, err := m.resultRecorder()
	if err != nil {
		return err
	}
	return rec.Stop(ctx)
}

func (m *Machine) resultRecorder() (*recorder.Recorder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateResult || m.rec == nil {
		return nil, ErrWrongState
	}
	return m.rec, nil
}

func (m *Machine) recorderChanged(rec *recorder.Recorder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rec != rec {
		return
	}
	m.publishLocked()
}

// Reset abandons the current session and returns to idle.
func (m *Machine) Reset() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	old := m.releaseLocked()
	m.state = StateIdle
	m.session = nil
	m.err = nil
	m.result = nil
	m.publishLocked()
	m.mu.Unlock()

	closeRecorder(old, m.log)
}

// Close releases the machine and ends every subscription.
func (m *Machine) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	old := m.releaseLocked()
	for id, ch := range m.subs {
		close(ch)
		delete(m.subs, id)
	}
	m.mu.Unlock()

	closeRecorder(old, m.log)
}

// releaseLocked stops the countdown and any running evaluation and detaches
// the recorder, which the caller closes after unlocking.
func (m *Machine) releaseLocked() *recorder.Recorder {
	m.stopTimerLocked()
	if m.cancelEval != nil {
		m.cancelEval()
		m.cancelEval = nil
	}
	rec := m.rec
	m.rec = nil
	return rec
}

func (m *Machine) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func closeRecorder(rec *recorder.Recorder, log *zap.Logger) {
	if rec == nil {
		return
	}
	if err := rec.Close(); err != nil {
		log.Warn("closing recorder", zap.Error(err))
	}
}

// Snapshot returns the current view model.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Machine) snapshotLocked() Snapshot {
	snap := Snapshot{
		Version:  m.version,
		State:    m.state,
		Duration: seconds(m.cfg.Duration),
		Error:    Message(m.err),
		Result:   m.result,
	}
	if s := m.session; s != nil {
		q := s.Question
		snap.SessionID = s.ID
		snap.Question = &q
		snap.Answer = s.Answer
		snap.Remaining = s.Remaining
		snap.TimedOut = s.TimedOut
		snap.CanEdit = m.state == StateAnswering && !s.TimedOut
		snap.CanSubmit = m.state == StateAnswering && (s.TimedOut || m.cfg.AllowEarlySubmit)
	}
	if m.rec != nil {
		snap.Recording = recordingView(m.rec.State())
	}
	return snap
}

// Subscribe returns a channel receiving the current snapshot followed by one
// snapshot per change. A slow reader only sees the latest one. The channel is
// closed by cancel or Close.
func (m *Machine) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		close(ch)
		return ch, func() {}
	}
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch
	ch <- m.snapshotLocked()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if c, ok := m.subs[id]; ok {
				close(c)
				delete(m.subs, id)
			}
		})
	}
}

func (m *Machine) publishLocked() Snapshot {
	m.version++
	snap := m.snapshotLocked()
	for _, ch := range m.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
	return snap
}

package streamclient

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/davidbz/cthai/internal/domain"
	"github.com/davidbz/cthai/internal/observability"
)

// Markers committed in place of the reply when it does not complete.
const (
	CancelledMessage = "Message cancelled."
	FailedMessage    = "Sorry, I encountered an error. Please try again."
)

// ErrRequestInFlight is returned by Send while a previous reply is still open.
var ErrRequestInFlight = errors.New("request already in flight")

// State is where a Session is in its request lifecycle.
type State int

const (
	StateIdle State = iota
	StateStreaming
	StateCancelling
	StateSettled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateCancelling:
		return "cancelling"
	case StateSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// OutcomeKind tags how a request settled.
type OutcomeKind int

const (
	OutcomeCompleted OutcomeKind = iota
	OutcomeCancelled
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeCompleted:
		return "completed"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the settled result of one Send. Message is the assistant
// message that was committed; Err is set for failures.
type Outcome struct {
	Kind    OutcomeKind
	Message domain.Message
	Err     error
}

// Transcript is the in-progress assistant text.
type Transcript struct {
	Text     string
	Complete bool
}

// Session is one conversation against the relay. At most one request is in
// flight; each Send commits exactly one assistant message.
type Session struct {
	client       *Client
	model        string
	systemPrompt string
	onTranscript func(Transcript)

	mu       sync.Mutex
	state    State
	cancel   context.CancelFunc
	messages []domain.Message
}

// NewSession creates a session. onTranscript, when set, receives every
// transcript update from the goroutine calling Send.
func NewSession(client *Client, model, systemPrompt string, onTranscript func(Transcript)) *Session {
	return &Session{
		client:       client,
		model:        model,
		systemPrompt: systemPrompt,
		onTranscript: onTranscript,
		state:        StateIdle,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Messages returns the committed conversation.
func (s *Session) Messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Send commits content as a user message, streams the reply and commits it.
// It blocks until the request settles.
func (s *Session) Send(ctx context.Context, content string) (Outcome, error) {
	s.mu.Lock()
	if s.state == StateStreaming || s.state == StateCancelling {
		s.mu.Unlock()
		return Outcome{}, ErrRequestInFlight
	}

	s.messages = append(s.messages, newMessage(domain.RoleUser, content))
	req := s.requestLocked()

	reqCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.state = StateStreaming
	s.mu.Unlock()

	outcome := s.stream(reqCtx, req)
	cancel()

	return s.settle(reqCtx, outcome), nil
}

// Cancel aborts the in-flight request. It reports whether there was one.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateStreaming || s.cancel == nil {
		return false
	}
	s.state = StateCancelling
	s.cancel()
	return true
}

func (s *Session) requestLocked() *domain.RelayRequest {
	turns := make([]domain.ConversationTurn, 0, len(s.messages))
	for _, m := range s.messages {
		turns = append(turns, domain.ConversationTurn{Role: m.Role, Content: m.Content})
	}
	return &domain.RelayRequest{
		Turns:        turns,
		SystemPrompt: s.systemPrompt,
		Model:        s.model,
	}
}

func (s *Session) stream(ctx context.Context, req *domain.RelayRequest) Outcome {
	stream, err := s.client.Open(ctx, req)
	if err != nil {
		return failure(err)
	}
	defer stream.Close()

	var text strings.Builder
	for {
		fragment, err := stream.Next()
		if errors.Is(err, io.EOF) {
			return Outcome{
				Kind:    OutcomeCompleted,
				Message: newMessage(domain.RoleAssistant, text.String()),
			}
		}
		if err != nil {
			return failure(err)
		}

		text.WriteString(fragment)
		if s.State() == StateStreaming {
			s.publish(Transcript{Text: text.String()})
		}
	}
}

// settle commits the reply and frees the session for the next Send.
func (s *Session) settle(ctx context.Context, outcome Outcome) Outcome {
	if s.State() == StateCancelling && outcome.Kind != OutcomeCancelled {
		outcome = Outcome{Kind: OutcomeCancelled, Err: domain.ErrCancelled}
	}

	switch outcome.Kind {
	case OutcomeCancelled:
		outcome.Message = newMessage(domain.RoleAssistant, CancelledMessage)
	case OutcomeFailed:
		outcome.Message = newMessage(domain.RoleAssistant, FailedMessage)
	}

	// Still streaming or cancelling here, so no Send can interleave.
	s.publish(Transcript{Text: outcome.Message.Content, Complete: true})

	s.mu.Lock()
	s.messages = append(s.messages, outcome.Message)
	s.state = StateSettled
	s.cancel = nil
	s.mu.Unlock()

	logger := observability.FromContext(ctx)
	if outcome.Kind == OutcomeFailed {
		logger.Error("chat reply failed", observability.Error(outcome.Err))
	} else {
		logger.Debug("chat reply settled", observability.String("outcome", outcome.Kind.String()))
	}

	return outcome
}

func (s *Session) publish(t Transcript) {
	if s.onTranscript != nil {
		s.onTranscript(t)
	}
}

func failure(err error) Outcome {
	if errors.Is(err, domain.ErrCancelled) || errors.Is(err, context.Canceled) {
		return Outcome{Kind: OutcomeCancelled, Err: err}
	}
	return Outcome{Kind: OutcomeFailed, Err: err}
}

func newMessage(role domain.Role, content string) domain.Message {
	return domain.Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

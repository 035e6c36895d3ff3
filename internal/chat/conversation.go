package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/suPer8Hu/chat-app/internal/history"
	"github.com/suPer8Hu/chat-app/internal/session"
	"github.com/suPer8Hu/chat-app/internal/settings"
)

var (
	ErrTurnInFlight    = errors.New("a reply is still being generated")
	ErrNoModelSelected = errors.New("no model selected")
	ErrEmptyMessage    = errors.New("empty message")

	errEmptyCompletion = errors.New("model returned no content")
)

// Conversation runs turns against one history handle and session state.
type Conversation struct {
	history  history.Handle
	state    *session.State
	settings *settings.Store
	orch     *Orchestrator
	logger   *slog.Logger
}

func NewConversation(h history.Handle, state *session.State, store *settings.Store, orch *Orchestrator, logger *slog.Logger) *Conversation {
	if logger == nil {
		logger = slog.Default()
	}
	return &Conversation{history: h, state: state, settings: store, orch: orch, logger: logger}
}

func (c *Conversation) History() history.Handle { return c.history }

func (c *Conversation) State() *session.State { return c.state }

// Submit stores the user message and starts generation. Input stays
// disabled until the returned Reply is drained or closed; on any error
// before that it is enabled again here.
func (c *Conversation) Submit(ctx context.Context, content string) (reply *Reply, err error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessage
	}
	model, ok := c.state.SelectedModel()
	if !ok {
		return nil, ErrNoModelSelected
	}
	params, err := c.params(model)
	if err != nil {
		return nil, err
	}

	if !c.state.Disable() {
		return nil, ErrTurnInFlight
	}
	defer func() {
		if err != nil {
			c.state.Enable()
		}
	}()

	turnID := uuid.NewString()
	log := c.logger.With("turn_id", turnID, "model", model)

	log.Debug("adding user input to history")
	if err := c.history.AppendHuman(ctx, content); err != nil {
		return nil, err
	}

	msgs, err := c.history.Messages(ctx)
	if err != nil {
		return nil, err
	}

	log.Debug("calling model", "messages", len(msgs))
	stream, err := c.orch.Generate(ctx, msgs, params)
	if err != nil {
		log.Error("generation failed to start", "error", err)
		return nil, err
	}

	return &Reply{ID: turnID, ctx: ctx, conv: c, stream: stream, model: model, log: log}, nil
}

func (c *Conversation) params(model string) (Params, error) {
	rec, err := c.settings.Read()
	if err != nil {
		return Params{}, err
	}
	if rec == nil {
		d := settings.Default()
		rec = &d
	}
	return Params{
		Model:       model,
		Temperature: rec.Temperature,
		TopP:        rec.TopP,
		TopK:        rec.TopK,
	}, nil
}

// Reply is the consumer side of one turn. The assistant message is
// appended only after the stream has been fully drained without error.
type Reply struct {
	ID string

	ctx      context.Context
	conv     *Conversation
	stream   *Stream
	model    string
	log      *slog.Logger
	buf      strings.Builder
	tok      string
	err      error
	finished bool
}

func (r *Reply) Next() bool {
	r.tok = ""
	if r.finished {
		return false
	}
	if r.stream.Next() {
		r.tok = r.stream.Token()
		r.buf.WriteString(r.tok)
		return true
	}
	r.finish(r.stream.Err())
	return false
}

func (r *Reply) Token() string { return r.tok }

// Err is the turn's outcome once Next has returned false.
func (r *Reply) Err() error { return r.err }

// Content is the text received so far.
func (r *Reply) Content() string { return r.buf.String() }

// Close abandons an unfinished reply: nothing is persisted and input is
// enabled again.
func (r *Reply) Close() error {
	if r.finished {
		return nil
	}
	r.finished = true
	r.err = fmt.Errorf("%w: reply abandoned", ErrGeneration)
	defer r.conv.state.Enable()
	r.log.Warn("reply closed before completion, not persisted")
	return r.stream.Close()
}

func (r *Reply) finish(streamErr error) {
	r.finished = true
	defer r.conv.state.Enable()
	defer r.log.Debug("enabling chat input")
	_ = r.stream.Close()

	if streamErr != nil {
		r.err = streamErr
		r.log.Error("generation failed", "error", streamErr, "received", r.buf.Len())
		return
	}
	if r.buf.Len() == 0 {
		r.err = &GenerationError{Model: r.model, Err: errEmptyCompletion}
		r.log.Error("generation failed", "error", r.err)
		return
	}

	r.log.Debug("adding assistant message to history", "length", r.buf.Len())
	if err := r.conv.history.AppendAssistant(r.ctx, r.buf.String()); err != nil {
		r.err = err
		r.log.Error("failed to store assistant message", "error", err)
	}
}

package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/krishi-vaani/internal/domain/flow"
	"github.com/yanqian/krishi-vaani/internal/domain/locale"
	"github.com/yanqian/krishi-vaani/internal/domain/textgen"
	apperrors "github.com/yanqian/krishi-vaani/pkg/errors"
	"github.com/yanqian/krishi-vaani/pkg/metrics"
	"github.com/yanqian/krishi-vaani/pkg/util"
)

// Service exposes the chat assistant. Every operation is scoped to the
// owning session; threads of other sessions are reported as not found.
type Service interface {
	CreateThread(ctx context.Context, owner string, loc locale.Code) (Thread, []Message, error)
	ListThreads(ctx context.Context, owner string) ([]Thread, error)
	History(ctx context.Context, owner, threadID string) ([]Message, error)
	DeleteThread(ctx context.Context, owner, threadID string) error
	Send(ctx context.Context, owner, threadID, text string, loc locale.Code) (SendResult, error)
}

type service struct {
	cfg       Config
	repo      Repository
	generator textgen.Generator
	counter   TokenCounter
	retriever Retriever
	gate      *flow.Gate
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// NewService wires the chat domain. A nil counter falls back to word counts
// and a nil retriever disables document grounding.
func NewService(cfg Config, repo Repository, generator textgen.Generator, counter TokenCounter, retriever Retriever, logger *slog.Logger) Service {
	if strings.TrimSpace(cfg.SystemPrompt) == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if counter == nil {
		counter = WordCounter{}
	}
	return &service{
		cfg:       cfg,
		repo:      repo,
		generator: generator,
		counter:   counter,
		retriever: retriever,
		gate:      flow.NewGate(),
		logger:    logger.With("component", "chat.service"),
		now:       util.NowUTC,
		newID:     uuid.NewString,
	}
}

func (s *service) CreateThread(ctx context.Context, owner string, loc locale.Code) (Thread, []Message, error) {
	threadID := s.newID()
	greeting := s.message(owner, threadID, RoleAssistant, locale.T(loc, locale.KeyChatGreeting))
	if err := s.repo.Append(ctx, greeting); err != nil {
		return Thread{}, nil, apperrors.Wrap("chat_error", "failed to create thread", err)
	}
	s.logger.Info("chat thread created", "thread", threadID, "locale", loc)
	return Thread{ID: threadID, LastActivity: greeting.Timestamp, MessageCount: 1}, []Message{greeting}, nil
}

func (s *service) ListThreads(ctx context.Context, owner string) ([]Thread, error) {
	threads, err := s.repo.Threads(ctx, owner)
	if err != nil {
		return nil, apperrors.Wrap("chat_error", "failed to list threads", err)
	}
	return threads, nil
}

func (s *service) History(ctx context.Context, owner, threadID string) ([]Message, error) {
	msgs, err := s.repo.History(ctx, owner, threadID)
	if err != nil {
		return nil, apperrors.Wrap("chat_error", "failed to load history", err)
	}
	if len(msgs) == 0 {
		return nil, apperrors.Wrap(apperrors.CodeNotFound, "thread not found", nil)
	}
	return msgs, nil
}

// DeleteThread holds the thread gate for the duration of the delete so a
// concurrent send cannot re-create the thread.
func (s *service) DeleteThread(ctx context.Context, owner, threadID string) error {
	release, ok := s.gate.TryAcquire(threadID)
	if !ok {
		return apperrors.Wrap(apperrors.CodeBusy, "a reply is still being generated", nil)
	}
	defer release()

	n, err := s.repo.Delete(ctx, owner, threadID)
	if err != nil {
		return apperrors.Wrap("chat_error", "failed to delete thread", err)
	}
	if n == 0 {
		return apperrors.Wrap(apperrors.CodeNotFound, "thread not found", nil)
	}
	s.logger.Info("chat thread deleted", "thread", threadID, "messages", n)
	return nil
}

// Send appends the user message, asks the generator once and appends its
// reply. A generator failure is answered with the localized error text.
func (s *service) Send(ctx context.Context, owner, threadID, text string, loc locale.Code) (SendResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return SendResult{}, nil
	}

	release, ok := s.gate.TryAcquire(threadID)
	if !ok {
		return SendResult{}, apperrors.Wrap(apperrors.CodeBusy, "a reply is still being generated", nil)
	}
	defer release()

	existing, err := s.repo.History(ctx, owner, threadID)
	if err != nil {
		return SendResult{}, apperrors.Wrap("chat_error", "failed to load history", err)
	}
	if len(existing) == 0 {
		return SendResult{}, apperrors.Wrap(apperrors.CodeNotFound, "thread not found", nil)
	}

	userMsg := s.message(owner, threadID, RoleUser, text)
	if err := s.repo.Append(ctx, userMsg); err != nil {
		return SendResult{}, apperrors.Wrap("chat_error", "failed to store message", err)
	}

	content, sources := s.reply(ctx, owner, threadID, text, loc)
	replyMsg := s.message(owner, threadID, RoleAssistant, content)
	if err := s.repo.Append(ctx, replyMsg); err != nil {
		return SendResult{User: &userMsg}, apperrors.Wrap("chat_error", "failed to store reply", err)
	}
	return SendResult{User: &userMsg, Reply: &replyMsg, Sources: sources}, nil
}

func (s *service) reply(ctx context.Context, owner, threadID, text string, loc locale.Code) (string, []Reference) {
	if s.cfg.ReplyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ReplyTimeout)
		defer cancel()
	}
	question := text
	if s.cfg.MaxPromptTokens > 0 && s.counter.Count(question) > s.cfg.MaxPromptTokens {
		question = s.counter.Truncate(question, s.cfg.MaxPromptTokens)
		s.logger.Info("chat prompt truncated", "limit", s.cfg.MaxPromptTokens)
	}

	sources := s.retrieve(ctx, owner, threadID, question)
	user := "User question: " + question
	if grounding := s.grounding(sources, question); grounding != "" {
		user = grounding + "\n\n" + user
	}

	answer, err := s.generator.Generate(ctx, textgen.Prompt{
		System: s.cfg.SystemPrompt,
		User:   user,
		Locale: loc,
	})
	if err == nil {
		answer = strings.TrimSpace(answer)
	}
	if err != nil || answer == "" {
		s.logger.Warn("chat reply failed", "error", err)
		metrics.FlowOutcomesTotal.WithLabelValues("chat", "primary", "failed").Inc()
		return locale.T(loc, locale.KeyChatError), nil
	}
	metrics.FlowOutcomesTotal.WithLabelValues("chat", "primary", "succeeded").Inc()
	return answer, sources
}

// retrieve never fails the reply; an unavailable index only loses grounding.
func (s *service) retrieve(ctx context.Context, owner, threadID, question string) []Reference {
	if s.retriever == nil {
		return nil
	}
	refs, err := s.retriever.Retrieve(ctx, owner, threadID, question)
	if err != nil {
		s.logger.Warn("document retrieval failed", "thread", threadID, "error", err)
		return nil
	}
	return refs
}

// grounding renders excerpts within whatever prompt budget the question left.
func (s *service) grounding(refs []Reference, question string) string {
	if len(refs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Relevant excerpts from documents attached to this conversation:")
	for i, ref := range refs {
		fmt.Fprintf(&b, "\n[%d] %s (relevance %.2f)\n%s", i+1, ref.Filename, ref.Score, strings.TrimSpace(ref.Snippet))
	}
	block := b.String()
	if s.cfg.MaxPromptTokens <= 0 {
		return block
	}
	budget := s.cfg.MaxPromptTokens - s.counter.Count(question)
	if budget <= 0 {
		return ""
	}
	if s.counter.Count(block) > budget {
		block = s.counter.Truncate(block, budget)
	}
	return block
}

func (s *service) message(owner, threadID string, role Role, content string) Message {
	return Message{
		ID:        s.newID(),
		ThreadID:  threadID,
		Owner:     owner,
		Role:      role,
		Content:   content,
		Timestamp: s.now(),
	}
}

// Package session orchestrates conversation lifecycle: it turns user prompts
// into sessions, drives the bounded call-model/execute-tools loop, and keeps
// the persisted log, the session index, and the external listener in sync.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/drover-cli/drover/src/agent"
	"github.com/drover-cli/drover/src/aisdk"
	"github.com/drover-cli/drover/src/droveragent"
	"github.com/drover-cli/drover/src/executor"
	"github.com/drover-cli/drover/src/state"
	"github.com/drover-cli/drover/src/store"
)

// MaxSessionEntries is the default retention cap for the session index.
const MaxSessionEntries = 50

// DefaultMaxIterations bounds the model-call loop per activation. Hitting the
// bound is a circuit breaker against runaway tool-call chains, not a failure.
const DefaultMaxIterations = 30

// Emitter is the sole notification channel to the UI layer, invoked once per
// appended (or synthetic) message.
type Emitter func(msg *store.Message, autoOpenTranscript bool)

// Config tunes the manager.
type Config struct {
	MaxIterations int
	MaxSessions   int
	// HiddenFailureTools lists tool names whose failed results are recorded
	// but not surfaced in the transcript. A single policy rather than a
	// bash-specific special case.
	HiddenFailureTools []string
	// SkillDirs are the well-known skill document directories, in priority
	// order.
	SkillDirs []string
}

// DefaultConfig returns the standard manager configuration.
func DefaultConfig(skillDirs []string) Config {
	return Config{
		MaxIterations:      DefaultMaxIterations,
		MaxSessions:        MaxSessionEntries,
		HiddenFailureTools: []string{"bash"},
		SkillDirs:          skillDirs,
	}
}

// Manager owns session lifecycle and the agent loop.
type Manager struct {
	fs           afero.Fs
	store        *store.Store
	model        aisdk.ModelClient // nil when no credential is configured
	toolbox      *agent.Toolbox
	exec         *executor.Executor
	cancels      *state.CancelRegistry
	emit         Emitter
	cfg          Config
	logger       *slog.Logger
	systemPrompt string

	mu       sync.Mutex
	activeID string

	// indexMu serializes index read-modify-write cycles: InterruptSession may
	// run on a different goroutine than the loop's snapshot writes.
	indexMu sync.Mutex
}

// NewManager wires a manager. model may be nil; the loop then fails sessions
// with a credential notice instead of calling out.
func NewManager(fs afero.Fs, st *store.Store, model aisdk.ModelClient, toolbox *agent.Toolbox, emit Emitter, cfg Config, systemPrompt string, logger *slog.Logger) *Manager {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = MaxSessionEntries
	}
	return &Manager{
		fs:           fs,
		store:        st,
		model:        model,
		toolbox:      toolbox,
		exec:         executor.New(toolbox, logger),
		cancels:      state.NewCancelRegistry(),
		emit:         emit,
		cfg:          cfg,
		logger:       logger,
		systemPrompt: systemPrompt,
	}
}

// ActiveSessionID returns the session the next prompt will continue, or "".
func (m *Manager) ActiveSessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeID
}

// HandleUserPrompt appends the prompt to the active session, creating a new
// session when none is active or the active one no longer exists, then runs
// the agent loop.
func (m *Manager) HandleUserPrompt(ctx context.Context, content string, images []string) error {
	m.mu.Lock()
	sessionID := m.activeID
	m.mu.Unlock()

	if sessionID == "" || m.store.FindSession(sessionID) == nil {
		created, err := m.createSession(content, images)
		if err != nil {
			return err
		}
		sessionID = created
	} else {
		if err := m.appendUserMessage(sessionID, content, images); err != nil {
			return err
		}
		m.touchSession(sessionID, store.StatusPending, "")
	}

	m.mu.Lock()
	m.activeID = sessionID
	m.mu.Unlock()

	return m.activateSession(ctx, sessionID)
}

// createSession starts a new session: a non-visible system message with the
// operating instructions, any invoked skill documents as further non-visible
// system messages, then the user's prompt.
func (m *Manager) createSession(content string, images []string) (string, error) {
	skillDoc, cleaned := m.resolveSkillInvocation(content)

	now := store.Now()
	session := &store.Session{
		ID:        uuid.NewString(),
		Summary:   summarize(cleaned),
		Status:    store.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := m.append(session.ID, &store.Message{
		Role:    store.RoleSystem,
		Content: ptr(m.systemPrompt),
		Visible: false,
	}); err != nil {
		return "", err
	}
	if skillDoc != "" {
		if err := m.append(session.ID, &store.Message{
			Role:    store.RoleSystem,
			Content: ptr(skillDoc),
			Visible: false,
		}); err != nil {
			return "", err
		}
	}
	if err := m.appendUserMessage(session.ID, cleaned, images); err != nil {
		return "", err
	}

	if err := m.store.UpsertSession(session); err != nil {
		return "", err
	}
	if err := m.store.PruneAndDeleteExcess(m.cfg.MaxSessions); err != nil {
		m.logger.Warn("session retention prune failed", "error", err)
	}
	return session.ID, nil
}

// resolveSkillInvocation parses a "/skillname" first line. On a match the
// skill document is returned and the slash line stripped from the prompt; on
// no match the prompt is left as-is, slash line included.
func (m *Manager) resolveSkillInvocation(content string) (string, string) {
	firstLine, rest, hasRest := strings.Cut(content, "\n")
	if !strings.HasPrefix(firstLine, "/") || len(firstLine) < 2 {
		return "", content
	}
	name := strings.TrimSpace(firstLine[1:])
	skills := droveragent.DiscoverSkills(m.fs, m.cfg.SkillDirs)
	skill, found := droveragent.FindSkill(skills, name)
	if !found {
		return "", content
	}
	doc, err := droveragent.LoadSkill(m.fs, skill)
	if err != nil {
		m.logger.Warn("failed to load skill document", "skill", skill.Name, "error", err)
		return "", content
	}
	m.logger.Info("skill invoked", "skill", skill.Name)
	if !hasRest {
		return doc, ""
	}
	return doc, strings.TrimLeft(rest, "\n")
}

func (m *Manager) appendUserMessage(sessionID, content string, images []string) error {
	msg := &store.Message{
		Role:    store.RoleUser,
		Content: ptr(content),
		Visible: true,
	}
	if len(images) > 0 {
		msg.ContentParams = &store.ContentParams{Images: images}
	}
	return m.append(sessionID, msg)
}

// append fills in identity fields, persists the message, and notifies the
// listener.
func (m *Manager) append(sessionID string, msg *store.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.SessionID = sessionID
	now := store.Now()
	msg.CreatedAt = now
	msg.UpdatedAt = now
	if err := m.store.AppendMessage(sessionID, msg); err != nil {
		return err
	}
	m.emit(msg, msg.Role == store.RoleAssistant)
	return nil
}

// notice emits a synthetic message that is not appended to the persisted log
// (there is no model output behind it).
func (m *Manager) notice(sessionID, role, text string) {
	now := store.Now()
	m.emit(&store.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Content:   ptr(text),
		Visible:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}, true)
}

func (m *Manager) touchSession(sessionID, status, reason string) {
	m.indexMu.Lock()
	defer m.indexMu.Unlock()
	session := m.store.FindSession(sessionID)
	if session == nil {
		return
	}
	session.Status = status
	session.Reason = reason
	session.UpdatedAt = store.Now()
	if err := m.store.UpsertSession(session); err != nil {
		m.logger.Warn("failed to update session index", "session_id", sessionID, "error", err)
	}
}

// InterruptSession cancels any in-flight model call for the session, marks it
// interrupted, and emits a synthetic notice. The notice is user-role for
// parity with the transcript's interruption affordance.
func (m *Manager) InterruptSession(sessionID string) {
	m.cancels.Interrupt(sessionID)
	m.touchSession(sessionID, store.StatusInterrupted, "interrupted")
	m.notice(sessionID, store.RoleUser, "Interrupted.")
	m.logger.Info("session interrupted", "session_id", sessionID)
}

// activateSession runs the bounded agent loop for the session.
func (m *Manager) activateSession(ctx context.Context, sessionID string) error {
	if m.model == nil {
		m.touchSession(sessionID, store.StatusFailed, "model credential missing")
		m.notice(sessionID, store.RoleAssistant, "No model credential is configured. Set DROVER_API_KEY and try again.")
		return nil
	}

	m.touchSession(sessionID, store.StatusProcessing, "")

	loopCtx := m.cancels.Register(ctx, sessionID)
	defer m.cancels.Release(sessionID)

	for iteration := 0; iteration < m.cfg.MaxIterations; iteration++ {
		if !m.cancels.Active(sessionID) {
			return nil
		}
		session := m.store.FindSession(sessionID)
		if session == nil || session.Status == store.StatusInterrupted || session.Status == store.StatusFailed {
			return nil
		}

		resp, err := m.model.CreateChatCompletion(loopCtx, &aisdk.ChatCompletionRequest{
			Model:    m.model.ModelID(),
			Messages: m.buildOutboundMessages(sessionID),
			Tools:    m.toolbox.ChatTools(),
		})
		if err != nil {
			if isCancellation(err, loopCtx) {
				// User-initiated; InterruptSession already handled status
				// and notice, so stop silently.
				m.touchSession(sessionID, store.StatusInterrupted, "interrupted")
				return nil
			}
			m.touchSession(sessionID, store.StatusFailed, err.Error())
			m.notice(sessionID, store.RoleAssistant, fmt.Sprintf("The model request failed: %v", err))
			return nil
		}

		if !m.cancels.Active(sessionID) {
			// Interrupted while the call was in flight; the response is
			// stale and must not be appended.
			return nil
		}

		if err := m.recordAssistantTurn(sessionID, resp); err != nil {
			m.touchSession(sessionID, store.StatusFailed, err.Error())
			m.notice(sessionID, store.RoleAssistant, fmt.Sprintf("Failed to persist the assistant turn: %v", err))
			return nil
		}

		if len(resp.ToolCalls) > 0 {
			outcomes := m.exec.ExecuteBatch(loopCtx, sessionID, resp.ToolCalls)
			if !m.cancels.Active(sessionID) {
				return nil
			}
			if err := m.recordToolOutcomes(sessionID, outcomes); err != nil {
				m.touchSession(sessionID, store.StatusFailed, err.Error())
				m.notice(sessionID, store.RoleAssistant, fmt.Sprintf("Failed to persist tool results: %v", err))
				return nil
			}
		}

		m.updateSnapshot(sessionID, resp)

		if resp.Refusal != "" {
			// The assistant turn itself is usually empty on a refusal, so
			// the refusal text is the only thing the user can see.
			m.notice(sessionID, store.RoleAssistant, resp.Refusal)
			return nil
		}
		if len(resp.ToolCalls) == 0 {
			return nil
		}
	}

	if !m.cancels.Active(sessionID) {
		return nil
	}
	m.touchSession(sessionID, store.StatusCompleted, "")
	m.notice(sessionID, store.RoleAssistant,
		fmt.Sprintf("Stopped after %d iterations. Reply to continue where we left off.", m.cfg.MaxIterations))
	return nil
}

func (m *Manager) recordAssistantTurn(sessionID string, resp *aisdk.ChatCompletionResponse) error {
	msg := &store.Message{
		Role:    store.RoleAssistant,
		Content: ptr(resp.Content),
		Visible: true,
	}
	if len(resp.ToolCalls) > 0 {
		msg.MessageParams = &store.MessageParams{ToolCalls: resp.ToolCalls}
		msg.Meta = &store.Meta{AsThinking: true}
	}
	return m.append(sessionID, msg)
}

func (m *Manager) recordToolOutcomes(sessionID string, outcomes []executor.Outcome) error {
	for _, outcome := range outcomes {
		visible := true
		if !outcome.Result.OK && m.failuresHidden(outcome.ToolName) {
			// Recorded but not surfaced; the next assistant turn sees it.
			visible = false
		}
		msg := &store.Message{
			Role:    store.RoleTool,
			Content: ptr(outcome.Payload),
			MessageParams: &store.MessageParams{
				ToolCallID: outcome.CallID,
				ToolName:   outcome.ToolName,
			},
			Visible: visible,
		}
		if outcome.Result.Output != "" {
			msg.Meta = &store.Meta{RenderedResult: summarize(outcome.Result.Output)}
		}
		if err := m.append(sessionID, msg); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) failuresHidden(toolName string) bool {
	for _, name := range m.cfg.HiddenFailureTools {
		if name == toolName {
			return true
		}
	}
	return false
}

func (m *Manager) updateSnapshot(sessionID string, resp *aisdk.ChatCompletionResponse) {
	m.indexMu.Lock()
	defer m.indexMu.Unlock()
	session := m.store.FindSession(sessionID)
	if session == nil || session.Status == store.StatusInterrupted {
		// Interruption is terminal; a snapshot landing late must not
		// overwrite it.
		return
	}
	session.LastContent = resp.Content
	session.LastThinking = resp.ReasoningContent
	session.LastRefusal = resp.Refusal
	session.LastToolCalls = resp.ToolCalls
	session.Usage.Add(resp.Usage)
	switch {
	case resp.Refusal != "":
		session.Status = store.StatusFailed
		session.Reason = resp.Refusal
	case len(resp.ToolCalls) > 0:
		session.Status = store.StatusProcessing
		session.Reason = ""
	default:
		session.Status = store.StatusCompleted
		session.Reason = ""
	}
	session.UpdatedAt = store.Now()
	if err := m.store.UpsertSession(session); err != nil {
		m.logger.Warn("failed to update session snapshot", "session_id", sessionID, "error", err)
	}
}

// buildOutboundMessages rebuilds the full model-facing message list from the
// persisted log, skipping compacted messages and carrying tool linkage and
// multimodal content through.
func (m *Manager) buildOutboundMessages(sessionID string) []*aisdk.Message {
	var out []*aisdk.Message
	for _, msg := range m.store.ListMessages(sessionID) {
		if msg.Compacted {
			continue
		}
		outbound := &aisdk.Message{Role: msg.Role}
		switch msg.Role {
		case store.RoleAssistant:
			outbound.Content = msg.Text()
			if msg.MessageParams != nil {
				outbound.ToolCalls = msg.MessageParams.ToolCalls
			}
		case store.RoleTool:
			outbound.Content = msg.Text()
			if msg.MessageParams != nil {
				outbound.ToolCallID = msg.MessageParams.ToolCallID
				outbound.Name = msg.MessageParams.ToolName
			}
		case store.RoleUser:
			if msg.ContentParams != nil && len(msg.ContentParams.Images) > 0 {
				parts := []aisdk.ContentPart{{Type: "text", Text: msg.Text()}}
				for _, image := range msg.ContentParams.Images {
					parts = append(parts, aisdk.ContentPart{Type: "image_url", ImageURL: image})
				}
				outbound.Parts = parts
			} else {
				outbound.Content = msg.Text()
			}
		default:
			outbound.Content = msg.Text()
		}
		out = append(out, outbound)
	}
	return out
}

// isCancellation classifies cancellation-shaped errors from the model call.
func isCancellation(err error, ctx context.Context) bool {
	return errors.Is(err, context.Canceled) || ctx.Err() != nil
}

// summarize returns the first line of content truncated to a short label.
func summarize(content string) string {
	line := content
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)
	if utf8.RuneCountInString(line) > 80 {
		// Truncate on a rune boundary so the summary stays valid UTF-8.
		line = string([]rune(line)[:77]) + "..."
	}
	return line
}

func ptr(s string) *string {
	return &s
}

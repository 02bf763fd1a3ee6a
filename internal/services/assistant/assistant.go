package assistant

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/deepgram/assistkit/internal/services/registry"
	"github.com/deepgram/assistkit/internal/services/snapshot"
	"github.com/deepgram/assistkit/pkg/logger"
	"github.com/sashabaranov/go-openai"
)

const (
	defaultPollInterval = time.Second
	defaultRunTimeout   = 10 * time.Minute
)

// Assistant owns one remote assistant and every thread created through it.
// Close deletes all of them.
type Assistant struct {
	api          API
	tracker      registry.Tracker
	snapshots    *snapshot.Writer
	pollInterval time.Duration
	runTimeout   time.Duration

	mu           sync.RWMutex
	info         openai.Assistant
	description  string
	fileIDs      []string
	metadata     map[string]any
	snapshotName string
	threadIDs    []string
	closed       bool
}

type Option func(*Assistant)

// WithTracker records created resources in a registry shared across processes.
func WithTracker(tracker registry.Tracker) Option {
	return func(a *Assistant) { a.tracker = tracker }
}

// WithSnapshots enables JSON debug snapshots for assistants and threads.
func WithSnapshots(w *snapshot.Writer) Option {
	return func(a *Assistant) { a.snapshots = w }
}

func WithPollInterval(d time.Duration) Option {
	return func(a *Assistant) {
		if d > 0 {
			a.pollInterval = d
		}
	}
}

// WithRunTimeout bounds how long Run waits for a terminal status. Zero disables the bound.
func WithRunTimeout(d time.Duration) Option {
	return func(a *Assistant) { a.runTimeout = d }
}

// New creates the remote assistant.
func New(ctx context.Context, api API, opts Options, options ...Option) (*Assistant, error) {
	if opts.Instructions == "" {
		return nil, ErrMissingInstructions
	}
	if opts.Name == "" {
		opts.Name = DefaultName
	}
	if opts.Tools == nil {
		opts.Tools = []string{string(openai.AssistantToolTypeCodeInterpreter)}
	}
	if opts.Model == "" {
		opts.Model = openai.GPT3Dot5Turbo
	}
	if err := checkLimits(opts.FileIDs, MaxAssistantFiles, opts.Metadata); err != nil {
		return nil, err
	}

	a := &Assistant{
		api:          api,
		pollInterval: defaultPollInterval,
		runTimeout:   defaultRunTimeout,
	}
	for _, o := range options {
		o(a)
	}

	req := openai.AssistantRequest{
		Model:         opts.Model,
		Name:          &opts.Name,
		Instructions:  &opts.Instructions,
		Tools:         assistantTools(opts.Tools),
		ToolResources: toolResources(opts.FileIDs),
		Metadata:      opts.Metadata,
	}
	if opts.Description != "" {
		req.Description = &opts.Description
	}

	info, err := api.CreateAssistant(ctx, req)
	if err != nil {
		logger.Error(logger.ASSISTANT, "Failed to create assistant %s: %v", opts.Name, err)
		return nil, fmt.Errorf("failed to create assistant: %w", err)
	}
	logger.Info(logger.ASSISTANT, "Created assistant %s (%s) on model %s", opts.Name, info.ID, info.Model)

	a.info = info
	a.description = opts.Description
	a.fileIDs = opts.FileIDs
	a.metadata = opts.Metadata

	if a.tracker != nil {
		if err := a.tracker.TrackAssistant(ctx, info.ID); err != nil {
			logger.Warn(logger.ASSISTANT, "Failed to track assistant %s: %v", info.ID, err)
		}
	}

	if boolOr(opts.SaveSnapshot, true) && a.snapshots != nil {
		a.snapshotName = "asst_" + opts.Name + "_" + info.ID
		a.saveSnapshot()
	}

	return a, nil
}

func (a *Assistant) ID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.info.ID
}

func (a *Assistant) Name() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return deref(a.info.Name)
}

func (a *Assistant) Model() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.info.Model
}

// Info returns the last known state of the remote assistant.
func (a *Assistant) Info() openai.Assistant {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.info
}

// ThreadIDs returns the threads created through this assistant that are still alive.
func (a *Assistant) ThreadIDs() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	ids := make([]string, len(a.threadIDs))
	copy(ids, a.threadIDs)
	return ids
}

// SnapshotPath is where the assistant snapshot lives, or "" when snapshots are off.
func (a *Assistant) SnapshotPath() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.snapshotName == "" {
		return ""
	}
	return a.snapshots.Path(a.snapshotName)
}

// Close deletes every tracked thread and then the assistant itself. Thread
// failures are logged; only a failure to delete the assistant is returned.
func (a *Assistant) Close(ctx context.Context) error {
	a.mu.RLock()
	closed := a.closed
	a.mu.RUnlock()
	if closed {
		return nil
	}

	threadsLeft := 0
	for _, threadID := range a.ThreadIDs() {
		if err := a.DeleteThread(ctx, threadID); err != nil {
			logger.Warn(logger.ASSISTANT, "Failed to delete thread %s during close: %v", threadID, err)
			threadsLeft++
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}

	if _, err := a.api.DeleteAssistant(ctx, a.info.ID); err != nil {
		logger.Error(logger.ASSISTANT, "Failed to delete assistant %s (%s), snapshot kept at %s: %v",
			deref(a.info.Name), a.info.ID, a.snapshots.Path(a.snapshotName), err)
		return fmt.Errorf("failed to delete assistant %s: %w", a.info.ID, err)
	}
	a.closed = true

	// Leaked threads stay registered under the assistant so a sweep can find them.
	if a.tracker != nil && threadsLeft == 0 {
		if err := a.tracker.UntrackAssistant(ctx, a.info.ID); err != nil {
			logger.Warn(logger.ASSISTANT, "Failed to untrack assistant %s: %v", a.info.ID, err)
		}
	} else if threadsLeft > 0 {
		logger.Warn(logger.ASSISTANT, "Assistant %s deleted with %d thread(s) left for the next sweep", a.info.ID, threadsLeft)
	}
	if a.snapshotName != "" {
		a.snapshots.Remove(a.snapshotName)
	}

	logger.Info(logger.ASSISTANT, "Deleted assistant %s", a.info.ID)
	return nil
}

// Modify changes the set fields of the assistant in a single update.
func (a *Assistant) Modify(ctx context.Context, opts ModifyOptions) error {
	if opts.empty() {
		return nil
	}
	if err := checkLimits(opts.FileIDs, MaxAssistantFiles, opts.Metadata); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// model is always sent by the client, so keep the current one unless overridden
	req := openai.AssistantRequest{Model: a.info.Model}
	if opts.Model != "" {
		req.Model = opts.Model
	}
	if opts.Name != "" {
		req.Name = &opts.Name
	}
	if opts.Instructions != "" {
		req.Instructions = &opts.Instructions
	}
	if opts.Description != "" {
		req.Description = &opts.Description
	}
	if len(opts.Tools) > 0 {
		req.Tools = assistantTools(opts.Tools)
	}
	if len(opts.FileIDs) > 0 {
		req.ToolResources = toolResources(opts.FileIDs)
	}
	if len(opts.Metadata) > 0 {
		req.Metadata = opts.Metadata
	}

	info, err := a.api.ModifyAssistant(ctx, a.info.ID, req)
	if err != nil {
		logger.Error(logger.ASSISTANT, "Failed to modify assistant %s: %v", a.info.ID, err)
		return fmt.Errorf("failed to modify assistant: %w", err)
	}

	a.info = info
	if opts.Description != "" {
		a.description = opts.Description
	}
	if len(opts.FileIDs) > 0 {
		a.fileIDs = opts.FileIDs
	}
	if len(opts.Metadata) > 0 {
		a.metadata = opts.Metadata
	}
	a.saveSnapshotLocked()

	logger.Info(logger.ASSISTANT, "Modified assistant %s", a.info.ID)
	return nil
}

// CreateThread opens a new thread, optionally seeded with a first user message.
func (a *Assistant) CreateThread(ctx context.Context, opts ThreadOptions) (openai.Thread, error) {
	if err := checkLimits(opts.FileIDs, MaxAssistantFiles, opts.Metadata); err != nil {
		return openai.Thread{}, err
	}

	var req openai.ThreadRequest
	if opts.Content != "" {
		req = openai.ThreadRequest{
			Messages: []openai.ThreadMessage{{
				Role:        openai.ThreadMessageRoleUser,
				Content:     opts.Content,
				Attachments: attachments(opts.FileIDs),
			}},
			Metadata: opts.Metadata,
		}
	}

	thread, err := a.api.CreateThread(ctx, req)
	if err != nil {
		logger.Error(logger.ASSISTANT, "Failed to create thread for assistant %s: %v", a.ID(), err)
		return openai.Thread{}, fmt.Errorf("failed to create thread: %w", err)
	}

	a.mu.Lock()
	a.threadIDs = append(a.threadIDs, thread.ID)
	assistantID := a.info.ID
	a.mu.Unlock()

	if a.tracker != nil {
		if err := a.tracker.TrackThread(ctx, assistantID, thread.ID); err != nil {
			logger.Warn(logger.ASSISTANT, "Failed to track thread %s: %v", thread.ID, err)
		}
	}

	if boolOr(opts.SaveSnapshot, true) {
		a.snapshots.Save("thread_"+thread.ID, threadSnapshot{
			ID:        thread.ID,
			Object:    thread.Object,
			CreatedAt: thread.CreatedAt,
			Metadata:  thread.Metadata,
		})
	}

	logger.Info(logger.ASSISTANT, "Created thread %s for assistant %s", thread.ID, assistantID)
	return thread, nil
}

// DeleteThread deletes a thread, whether or not it was created through this assistant.
func (a *Assistant) DeleteThread(ctx context.Context, threadID string) error {
	if threadID == "" {
		return ErrEmptyThreadID
	}

	a.mu.Lock()
	for i, id := range a.threadIDs {
		if id == threadID {
			a.threadIDs = append(a.threadIDs[:i], a.threadIDs[i+1:]...)
			break
		}
	}
	assistantID := a.info.ID
	a.mu.Unlock()

	if _, err := a.api.DeleteThread(ctx, threadID); err != nil {
		logger.Error(logger.ASSISTANT, "Failed to delete thread %s: %v", threadID, err)
		return fmt.Errorf("failed to delete thread %s: %w", threadID, err)
	}

	if a.tracker != nil {
		if err := a.tracker.UntrackThread(ctx, assistantID, threadID); err != nil {
			logger.Warn(logger.ASSISTANT, "Failed to untrack thread %s: %v", threadID, err)
		}
	}
	a.snapshots.Remove("thread_" + threadID)

	logger.Info(logger.ASSISTANT, "Deleted thread %s", threadID)
	return nil
}

// AddMessage posts a user message to a thread.
func (a *Assistant) AddMessage(ctx context.Context, threadID, content string, opts MessageOptions) (openai.Message, error) {
	if threadID == "" {
		return openai.Message{}, ErrEmptyThreadID
	}
	if content == "" {
		return openai.Message{}, ErrEmptyContent
	}
	if err := checkLimits(opts.FileIDs, MaxMessageFiles, opts.Metadata); err != nil {
		return openai.Message{}, err
	}

	msg, err := a.api.CreateMessage(ctx, threadID, openai.MessageRequest{
		Role:        string(openai.ThreadMessageRoleUser),
		Content:     content,
		Metadata:    opts.Metadata,
		Attachments: attachments(opts.FileIDs),
	})
	if err != nil {
		logger.Error(logger.ASSISTANT, "Failed to add message to thread %s: %v", threadID, err)
		return openai.Message{}, fmt.Errorf("failed to add message: %w", err)
	}

	logger.Debug(logger.ASSISTANT, "Added message %s to thread %s", msg.ID, threadID)
	return msg, nil
}

// Response returns the newest assistant reply in the thread.
func (a *Assistant) Response(ctx context.Context, threadID string) (string, error) {
	if threadID == "" {
		return "", ErrEmptyThreadID
	}
	return a.latestReply(ctx, threadID, nil)
}

func (a *Assistant) latestReply(ctx context.Context, threadID string, runID *string) (string, error) {
	order := "desc"
	messages, err := a.api.ListMessage(ctx, threadID, nil, &order, nil, nil, runID)
	if err != nil {
		return "", fmt.Errorf("failed to list messages: %w", err)
	}

	for _, msg := range messages.Messages {
		if msg.Role != string(openai.ThreadMessageRoleAssistant) {
			continue
		}
		for _, content := range msg.Content {
			if content.Text != nil {
				return content.Text.Value, nil
			}
		}
	}

	return "", ErrNoResponse
}

// CreateRun starts a run of this assistant on the thread. Overrides apply to
// this run only.
func (a *Assistant) CreateRun(ctx context.Context, threadID string, opts RunOptions) (openai.Run, error) {
	if threadID == "" {
		return openai.Run{}, ErrEmptyThreadID
	}
	if len(opts.Metadata) > MaxMetadataPairs {
		return openai.Run{}, ErrTooManyMetadata
	}

	req := openai.RunRequest{
		AssistantID:            a.ID(),
		Model:                  opts.Model,
		Instructions:           opts.Instructions,
		AdditionalInstructions: opts.AdditionalInstructions,
		Tools:                  runTools(opts.Tools),
		Metadata:               opts.Metadata,
	}

	run, err := a.api.CreateRun(ctx, threadID, req)
	if err != nil {
		logger.Error(logger.ASSISTANT, "Failed to create run on thread %s: %v", threadID, err)
		return openai.Run{}, fmt.Errorf("failed to create run: %w", err)
	}

	logger.Info(logger.ASSISTANT, "Started run %s on thread %s", run.ID, threadID)
	return run, nil
}

// Run starts a run and polls it until it reaches a terminal status. When the
// run completed, the result carries the assistant's reply.
func (a *Assistant) Run(ctx context.Context, threadID string, opts RunOptions) (RunResult, error) {
	if a.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.runTimeout)
		defer cancel()
	}

	run, err := a.CreateRun(ctx, threadID, opts)
	if err != nil {
		return RunResult{}, err
	}

	run, err = a.poll(ctx, threadID, run, opts.OnStatus)
	result := RunResult{RunID: run.ID, ThreadID: threadID, Status: run.Status}
	if err != nil {
		return result, err
	}

	if run.LastError != nil {
		result.Error = run.LastError.Message
	}

	if run.Status != openai.RunStatusCompleted {
		logger.Warn(logger.ASSISTANT, "Run %s ended with status %s", run.ID, run.Status)
		return result, nil
	}

	runID := run.ID
	result.Response, err = a.latestReply(ctx, threadID, &runID)
	if err != nil {
		return result, err
	}

	logger.Info(logger.ASSISTANT, "Run %s completed", run.ID)
	return result, nil
}

func (a *Assistant) poll(ctx context.Context, threadID string, run openai.Run, onStatus func(openai.Run)) (openai.Run, error) {
	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()

	for {
		if onStatus != nil {
			onStatus(run)
		}
		if IsTerminal(run.Status) {
			return run, nil
		}

		select {
		case <-ctx.Done():
			logger.Warn(logger.ASSISTANT, "Stopped polling run %s in status %s: %v", run.ID, run.Status, ctx.Err())
			return run, fmt.Errorf("run %s did not finish: %w", run.ID, ctx.Err())
		case <-ticker.C:
		}

		next, err := a.api.RetrieveRun(ctx, threadID, run.ID)
		if err != nil {
			logger.Error(logger.ASSISTANT, "Failed to retrieve run %s: %v", run.ID, err)
			return run, fmt.Errorf("failed to retrieve run %s: %w", run.ID, err)
		}
		logger.Debug(logger.ASSISTANT, "Run %s is %s", next.ID, next.Status)
		run = next
	}
}

type assistantSnapshot struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name"`
	Model        string                 `json:"model"`
	Instructions string                 `json:"instructions"`
	Tools        []openai.AssistantTool `json:"tools"`
	FileIDs      []string               `json:"file_ids"`
	Description  string                 `json:"description"`
	Metadata     map[string]any         `json:"metadata"`
}

type threadSnapshot struct {
	ID        string         `json:"id"`
	Object    string         `json:"object"`
	CreatedAt int64          `json:"created_at"`
	Metadata  map[string]any `json:"metadata"`
}

func (a *Assistant) saveSnapshot() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.saveSnapshotLocked()
}

func (a *Assistant) saveSnapshotLocked() {
	if a.snapshotName == "" {
		return
	}
	a.snapshots.Save(a.snapshotName, assistantSnapshot{
		ID:           a.info.ID,
		Name:         deref(a.info.Name),
		Model:        a.info.Model,
		Instructions: deref(a.info.Instructions),
		Tools:        a.info.Tools,
		FileIDs:      a.fileIDs,
		Description:  a.description,
		Metadata:     a.metadata,
	})
}

func checkLimits(fileIDs []string, maxFiles int, metadata map[string]any) error {
	if len(fileIDs) > maxFiles {
		return fmt.Errorf("%w: %d given, at most %d allowed", ErrTooManyFiles, len(fileIDs), maxFiles)
	}
	if len(metadata) > MaxMetadataPairs {
		return fmt.Errorf("%w: %d given, at most %d allowed", ErrTooManyMetadata, len(metadata), MaxMetadataPairs)
	}
	return nil
}

func assistantTools(names []string) []openai.AssistantTool {
	tools := make([]openai.AssistantTool, 0, len(names))
	for _, name := range names {
		tools = append(tools, openai.AssistantTool{Type: openai.AssistantToolType(name)})
	}
	return tools
}

func runTools(names []string) []openai.Tool {
	if len(names) == 0 {
		return nil
	}
	tools := make([]openai.Tool, 0, len(names))
	for _, name := range names {
		tools = append(tools, openai.Tool{Type: openai.ToolType(name)})
	}
	return tools
}

func toolResources(fileIDs []string) *openai.AssistantToolResource {
	if len(fileIDs) == 0 {
		return nil
	}
	return &openai.AssistantToolResource{
		CodeInterpreter: &openai.AssistantToolCodeInterpreter{FileIDs: fileIDs},
	}
}

// attachments makes files readable by the code interpreter of the thread.
func attachments(fileIDs []string) []openai.ThreadAttachment {
	if len(fileIDs) == 0 {
		return nil
	}
	out := make([]openai.ThreadAttachment, 0, len(fileIDs))
	for _, id := range fileIDs {
		out = append(out, openai.ThreadAttachment{
			FileID: id,
			Tools:  []openai.ThreadAttachmentTool{{Type: string(openai.AssistantToolTypeCodeInterpreter)}},
		})
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

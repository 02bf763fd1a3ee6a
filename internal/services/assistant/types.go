package assistant

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"
)

const (
	DefaultName = "Assistant"

	// Upper bounds enforced by the Assistants API
	MaxAssistantFiles = 20
	MaxMessageFiles   = 10
	MaxMetadataPairs  = 16
)

// RunStatusIncomplete is reported when a run ended early, e.g. on a token limit
const RunStatusIncomplete openai.RunStatus = "incomplete"

var (
	ErrMissingInstructions = errors.New("instructions are required")
	ErrEmptyContent        = errors.New("message content is empty")
	ErrEmptyThreadID       = errors.New("thread id is empty")
	ErrNoResponse          = errors.New("no assistant response in thread")
	ErrTooManyFiles        = errors.New("too many file ids")
	ErrTooManyMetadata     = errors.New("too many metadata pairs")
	ErrUnknownAssistant    = errors.New("unknown assistant")
)

// API is the subset of *openai.Client the wrapper forwards to.
type API interface {
	CreateAssistant(ctx context.Context, request openai.AssistantRequest) (openai.Assistant, error)
	ModifyAssistant(ctx context.Context, assistantID string, request openai.AssistantRequest) (openai.Assistant, error)
	DeleteAssistant(ctx context.Context, assistantID string) (openai.AssistantDeleteResponse, error)
	CreateThread(ctx context.Context, request openai.ThreadRequest) (openai.Thread, error)
	DeleteThread(ctx context.Context, threadID string) (openai.ThreadDeleteResponse, error)
	CreateMessage(ctx context.Context, threadID string, request openai.MessageRequest) (openai.Message, error)
	ListMessage(ctx context.Context, threadID string, limit *int, order *string, after *string, before *string, runID *string) (openai.MessagesList, error)
	CreateRun(ctx context.Context, threadID string, request openai.RunRequest) (openai.Run, error)
	RetrieveRun(ctx context.Context, threadID string, runID string) (openai.Run, error)
}

// Options configures a new assistant. Instructions are always honoured by the
// assistant, whatever messages its threads carry.
type Options struct {
	Name         string                 `json:"name,omitempty"`
	Instructions string                 `json:"instructions" validate:"required"`
	Tools        []string               `json:"tools,omitempty" validate:"dive,oneof=code_interpreter retrieval file_search"`
	Model        string                 `json:"model,omitempty"`
	Description  string                 `json:"description,omitempty"`
	FileIDs      []string               `json:"file_ids,omitempty" validate:"max=20"`
	Metadata     map[string]interface{} `json:"metadata,omitempty" validate:"max=16"`
	SaveSnapshot *bool                  `json:"save_snapshot,omitempty"`
}

// ModifyOptions lists assistant fields to change. Zero values are left untouched.
type ModifyOptions struct {
	Name         string                 `json:"name,omitempty"`
	Instructions string                 `json:"instructions,omitempty"`
	Tools        []string               `json:"tools,omitempty" validate:"dive,oneof=code_interpreter retrieval file_search"`
	Model        string                 `json:"model,omitempty"`
	Description  string                 `json:"description,omitempty"`
	FileIDs      []string               `json:"file_ids,omitempty" validate:"max=20"`
	Metadata     map[string]interface{} `json:"metadata,omitempty" validate:"max=16"`
}

func (o ModifyOptions) empty() bool {
	return o.Name == "" && o.Instructions == "" && len(o.Tools) == 0 && o.Model == "" &&
		o.Description == "" && len(o.FileIDs) == 0 && len(o.Metadata) == 0
}

// ThreadOptions configures a new thread. Files attached here are only visible
// inside that thread.
type ThreadOptions struct {
	Content      string                 `json:"content,omitempty"`
	FileIDs      []string               `json:"file_ids,omitempty" validate:"max=20"`
	Metadata     map[string]interface{} `json:"metadata,omitempty" validate:"max=16"`
	SaveSnapshot *bool                  `json:"save_snapshot,omitempty"`
}

type MessageOptions struct {
	FileIDs  []string               `json:"file_ids,omitempty" validate:"max=10"`
	Metadata map[string]interface{} `json:"metadata,omitempty" validate:"max=16"`
}

// RunOptions overrides assistant settings for a single run.
type RunOptions struct {
	Instructions           string                 `json:"instructions,omitempty"`
	AdditionalInstructions string                 `json:"additional_instructions,omitempty"`
	Model                  string                 `json:"model,omitempty"`
	Tools                  []string               `json:"tools,omitempty" validate:"dive,oneof=code_interpreter retrieval file_search"`
	Metadata               map[string]interface{} `json:"metadata,omitempty" validate:"max=16"`

	// OnStatus is called with every run state observed while polling
	OnStatus func(openai.Run) `json:"-"`
}

// RunResult is the outcome of a polled run
type RunResult struct {
	RunID    string           `json:"run_id"`
	ThreadID string           `json:"thread_id"`
	Status   openai.RunStatus `json:"status"`
	Response string           `json:"response"`
	Error    string           `json:"error,omitempty"`
}

// IsTerminal reports whether a run in this status will not change again
// without client action.
func IsTerminal(status openai.RunStatus) bool {
	switch status {
	case openai.RunStatusCompleted,
		openai.RunStatusFailed,
		openai.RunStatusExpired,
		openai.RunStatusCancelled,
		RunStatusIncomplete,
		openai.RunStatusRequiresAction:
		return true
	}
	return false
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

package registry

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/deepgram/assistkit/pkg/logger"
	"github.com/sashabaranov/go-openai"
)

// Deleter is the part of the OpenAI client needed to remove leftover resources.
type Deleter interface {
	DeleteThread(ctx context.Context, threadID string) (openai.ThreadDeleteResponse, error)
	DeleteAssistant(ctx context.Context, assistantID string) (openai.AssistantDeleteResponse, error)
}

// SweepResult counts what a sweep removed and what it had to leave behind.
type SweepResult struct {
	Assistants int
	Threads    int
	Failed     int
}

// Sweep deletes every assistant and thread still recorded in the tracker,
// typically left over by a process that exited without cleaning up.
// Resources that fail to delete stay tracked for the next sweep.
func Sweep(ctx context.Context, api Deleter, tracker Tracker) (SweepResult, error) {
	var result SweepResult

	assistantIDs, err := tracker.Assistants(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list tracked assistants: %w", err)
	}

	for _, assistantID := range assistantIDs {
		threadIDs, err := tracker.Threads(ctx, assistantID)
		if err != nil {
			return result, fmt.Errorf("failed to list threads of assistant %s: %w", assistantID, err)
		}

		threadsLeft := 0
		for _, threadID := range threadIDs {
			if _, err := api.DeleteThread(ctx, threadID); err != nil && !isNotFound(err) {
				logger.Warn(logger.REGISTRY, "Failed to sweep thread %s: %v", threadID, err)
				result.Failed++
				threadsLeft++
				continue
			}
			if err := tracker.UntrackThread(ctx, assistantID, threadID); err != nil {
				logger.Warn(logger.REGISTRY, "Failed to untrack thread %s: %v", threadID, err)
			}
			result.Threads++
		}

		if threadsLeft > 0 {
			logger.Warn(logger.REGISTRY, "Keeping assistant %s: %d thread(s) could not be swept", assistantID, threadsLeft)
			continue
		}

		// The assistant may already be gone when only leaked threads kept it here.
		if _, err := api.DeleteAssistant(ctx, assistantID); err != nil && !isNotFound(err) {
			logger.Warn(logger.REGISTRY, "Failed to sweep assistant %s: %v", assistantID, err)
			result.Failed++
			continue
		}
		if err := tracker.UntrackAssistant(ctx, assistantID); err != nil {
			logger.Warn(logger.REGISTRY, "Failed to untrack assistant %s: %v", assistantID, err)
		}
		result.Assistants++
	}

	logger.Info(logger.REGISTRY, "Sweep removed %d assistant(s) and %d thread(s), %d failure(s)",
		result.Assistants, result.Threads, result.Failed)
	return result, nil
}

func isNotFound(err error) bool {
	var apiErr *openai.APIError
	return errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusNotFound
}

package extract_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rulebook/internal/extract"
	"rulebook/mocks"
)

func TestRetryExtractor_SucceedsFirstTry(t *testing.T) {
	inner := new(mocks.MockStructuredExtractor)
	input := decisionInput()
	inner.On("Extract", mock.Anything, input).Return(decisionOutput("gpt-4o"), nil)

	re := extract.NewRetryExtractor(inner, 2)
	out, err := re.Extract(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", out.ModelUsed)
	inner.AssertNumberOfCalls(t, "Extract", 1)
}

func TestRetryExtractor_RetriesTransientThenSucceeds(t *testing.T) {
	inner := new(mocks.MockStructuredExtractor)
	input := decisionInput()
	inner.On("Extract", mock.Anything, input).
		Return(nil, extract.NewTransientError("openai", errors.New("503"), 1)).Once()
	inner.On("Extract", mock.Anything, input).Return(decisionOutput("gpt-4o"), nil).Once()

	re := extract.NewRetryExtractor(inner, 2)
	out, err := re.Extract(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", out.ModelUsed)
	inner.AssertNumberOfCalls(t, "Extract", 2)
}

func TestRetryExtractor_NonTransientNotRetried(t *testing.T) {
	inner := new(mocks.MockStructuredExtractor)
	input := decisionInput()
	invalid := &extract.InvalidResponseError{Err: errors.New("bad"), Provider: "openai"}
	inner.On("Extract", mock.Anything, input).Return(nil, invalid)

	re := extract.NewRetryExtractor(inner, 3)
	_, err := re.Extract(context.Background(), input)

	var ie *extract.InvalidResponseError
	require.ErrorAs(t, err, &ie)
	inner.AssertNumberOfCalls(t, "Extract", 1)
}

func TestRetryExtractor_ExhaustsBudget(t *testing.T) {
	inner := new(mocks.MockStructuredExtractor)
	input := decisionInput()
	inner.On("Extract", mock.Anything, input).
		Return(nil, extract.NewTransientError("openai", errors.New("503"), 1))

	re := extract.NewRetryExtractor(inner, 2)
	_, err := re.Extract(context.Background(), input)

	assert.True(t, extract.IsTransient(err))
	inner.AssertNumberOfCalls(t, "Extract", 3) // initial attempt + 2 retries
}

func TestRetryExtractor_CancelledContextStopsWaiting(t *testing.T) {
	inner := new(mocks.MockStructuredExtractor)
	input := decisionInput()
	inner.On("Extract", mock.Anything, input).
		Return(nil, extract.NewTransientError("openai", errors.New("503"), 60))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	re := extract.NewRetryExtractor(inner, 5)
	_, err := re.Extract(ctx, input)

	require.Error(t, err)
	assert.True(t, extract.IsTransient(err))
	inner.AssertNumberOfCalls(t, "Extract", 1)
}

package extract_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rulebook/internal/extract"
	"rulebook/internal/port"
	"rulebook/mocks"
)

func decisionInput() port.ExtractInput {
	return port.ExtractInput{
		Instruction: "decide",
		ContextText: "docs",
		Schema:      extract.DecisionSchema(),
	}
}

func decisionOutput(model string) *port.ExtractOutput {
	return &port.ExtractOutput{
		Document:  json.RawMessage(`{"significant":true,"explanation":"new areas"}`),
		ModelUsed: model,
	}
}

func TestFallbackExtractor_FirstSucceeds(t *testing.T) {
	e1 := new(mocks.MockStructuredExtractor)
	e2 := new(mocks.MockStructuredExtractor)

	input := decisionInput()
	e1.On("Extract", mock.Anything, input).Return(decisionOutput("gpt-4o"), nil)

	fe := extract.NewFallbackExtractor(
		[]port.StructuredExtractor{e1, e2},
		[]string{"openai", "gemini"},
	)

	out, err := fe.Extract(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", out.ModelUsed)
	e2.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
}

func TestFallbackExtractor_TransientFailureFallsThrough(t *testing.T) {
	e1 := new(mocks.MockStructuredExtractor)
	e2 := new(mocks.MockStructuredExtractor)

	input := decisionInput()
	e1.On("Extract", mock.Anything, input).
		Return(nil, extract.NewTransientError("openai", errors.New("429"), 60))
	e2.On("Extract", mock.Anything, input).Return(decisionOutput("gemini-2.0-flash"), nil)

	fe := extract.NewFallbackExtractor(
		[]port.StructuredExtractor{e1, e2},
		[]string{"openai", "gemini"},
	)

	out, err := fe.Extract(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-flash", out.ModelUsed)
}

func TestFallbackExtractor_NonTransientPropagatesImmediately(t *testing.T) {
	e1 := new(mocks.MockStructuredExtractor)
	e2 := new(mocks.MockStructuredExtractor)

	input := decisionInput()
	invalid := &extract.InvalidResponseError{Err: errors.New("bad json"), Provider: "openai"}
	e1.On("Extract", mock.Anything, input).Return(nil, invalid)

	fe := extract.NewFallbackExtractor(
		[]port.StructuredExtractor{e1, e2},
		[]string{"openai", "gemini"},
	)

	_, err := fe.Extract(context.Background(), input)

	var ie *extract.InvalidResponseError
	require.ErrorAs(t, err, &ie)
	e2.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
}

func TestFallbackExtractor_OpenCircuitSkipsProvider(t *testing.T) {
	e1 := new(mocks.MockStructuredExtractor)
	e2 := new(mocks.MockStructuredExtractor)

	input := decisionInput()
	e1.On("Extract", mock.Anything, input).
		Return(nil, extract.NewTransientError("openai", errors.New("429"), 120)).Once()
	e2.On("Extract", mock.Anything, input).Return(decisionOutput("gemini-2.0-flash"), nil).Twice()

	fe := extract.NewFallbackExtractor(
		[]port.StructuredExtractor{e1, e2},
		[]string{"openai", "gemini"},
	)

	// First call opens the circuit on openai, second call must skip it.
	_, err := fe.Extract(context.Background(), input)
	require.NoError(t, err)
	_, err = fe.Extract(context.Background(), input)
	require.NoError(t, err)

	e1.AssertNumberOfCalls(t, "Extract", 1)
	e2.AssertNumberOfCalls(t, "Extract", 2)
}

func TestFallbackExtractor_AllUnavailableIsTransient(t *testing.T) {
	e1 := new(mocks.MockStructuredExtractor)
	e2 := new(mocks.MockStructuredExtractor)

	input := decisionInput()
	e1.On("Extract", mock.Anything, input).
		Return(nil, extract.NewTransientError("openai", errors.New("429"), 30))
	e2.On("Extract", mock.Anything, input).
		Return(nil, extract.NewTransientError("gemini", errors.New("503"), 10))

	fe := extract.NewFallbackExtractor(
		[]port.StructuredExtractor{e1, e2},
		[]string{"openai", "gemini"},
	)

	_, err := fe.Extract(context.Background(), input)

	var te *extract.TransientError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "all", te.Provider)
}

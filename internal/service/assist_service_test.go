package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ieltsreader/internal/genai"
	"ieltsreader/internal/models"
	"ieltsreader/internal/validation"
)

func TestAssistService_Handle(t *testing.T) {
	quizItems := []models.QuizItem{{Word: "w", Question: "q", Options: []string{"a", "b"}}}

	tests := []struct {
		name      string
		client    *fakeGenAI
		req       AssistRequest
		wantErr   error
		invalid   bool
		wantCalls int
		check     func(t *testing.T, resp AssistResponse)
	}{
		{
			name:      "translate",
			client:    &fakeGenAI{translation: genai.Translation{Translation: "смягчать", Definition: "to lessen"}},
			req:       AssistRequest{Action: "translate", Word: "mitigate", Context: "to mitigate heat"},
			wantCalls: 1,
			check: func(t *testing.T, resp AssistResponse) {
				require.NotNil(t, resp.Translation)
				assert.Equal(t, "смягчать", resp.Translation.Translation)
				assert.Nil(t, resp.Quiz)
			},
		},
		{
			name:      "quiz",
			client:    &fakeGenAI{quiz: quizItems},
			req:       AssistRequest{Action: "Quiz", PassageContent: "Some passage text."},
			wantCalls: 1,
			check: func(t *testing.T, resp AssistResponse) {
				assert.Equal(t, quizItems, resp.Quiz)
				assert.Nil(t, resp.Translation)
			},
		},
		{name: "unknown action", client: &fakeGenAI{}, req: AssistRequest{Action: "summarize"}, invalid: true},
		{name: "translate without word", client: &fakeGenAI{}, req: AssistRequest{Action: "translate"}, invalid: true},
		{name: "quiz without content", client: &fakeGenAI{}, req: AssistRequest{Action: "quiz"}, invalid: true},
		{name: "disabled", req: AssistRequest{Action: "translate", Word: "urban"}, wantErr: ErrAssistDisabled},
		{
			name:      "backend failure",
			client:    &fakeGenAI{err: errBoom},
			req:       AssistRequest{Action: "quiz", PassageContent: "text"},
			wantErr:   ErrAssistUnavailable,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAssistService(nil, discardLogger())
			if tt.client != nil {
				svc = NewAssistService(tt.client, discardLogger())
			}

			resp, err := svc.Handle(context.Background(), tt.req)
			switch {
			case tt.invalid:
				assert.True(t, validation.IsValidationError(err), "got %v", err)
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			default:
				require.NoError(t, err)
				tt.check(t, resp)
			}
			if tt.client != nil {
				assert.Equal(t, tt.wantCalls, tt.client.calls)
			}
		})
	}
}

func TestAssistService_Enabled(t *testing.T) {
	assert.False(t, NewAssistService(nil, nil).Enabled())
	assert.True(t, NewAssistService(&fakeGenAI{}, nil).Enabled())
}

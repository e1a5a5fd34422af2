package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ieltsreader/internal/config"
	"ieltsreader/internal/models"
)

func newTestEmail(ses *fakeSES) *EmailService {
	return newEmailService(ses, config.EmailConfig{
		FromEmail:  "reader@example.com",
		FromName:   "IELTS Reader",
		AppBaseURL: "https://reader.example.com/",
	}, discardLogger())
}

func TestEmailService_SendDueDigest(t *testing.T) {
	ses := &fakeSES{}
	email := newTestEmail(ses)

	err := email.SendDueDigest(context.Background(), "learner@example.com", []models.SavedWord{
		{Word: "mitigate", Translation: "смягчать", Definition: "make <less> severe"},
		{Word: "urban", Translation: "городской"},
	})
	require.NoError(t, err)
	require.Len(t, ses.inputs, 1)

	in := ses.inputs[0]
	assert.Equal(t, "IELTS Reader <reader@example.com>", *in.FromEmailAddress)
	assert.Equal(t, []string{"learner@example.com"}, in.Destination.ToAddresses)
	assert.Equal(t, "2 IELTS words are ready for review", *in.Content.Simple.Subject.Data)

	htmlBody := *in.Content.Simple.Body.Html.Data
	assert.Contains(t, htmlBody, "make &lt;less&gt; severe")
	assert.Contains(t, htmlBody, "https://reader.example.com/#/vocabulary")
	assert.Contains(t, *in.Content.Simple.Body.Text.Data, "- urban: городской")
}

func TestEmailService_Disabled(t *testing.T) {
	email, err := NewEmailService(context.Background(), config.EmailConfig{}, discardLogger())
	require.NoError(t, err)
	assert.False(t, email.IsEnabled())
	assert.NoError(t, email.SendDueDigest(context.Background(), "x@example.com", []models.SavedWord{{Word: "a"}}))
}

func TestEmailService_SendError(t *testing.T) {
	email := newTestEmail(&fakeSES{err: errBoom})
	err := email.SendDueDigest(context.Background(), "x@example.com", []models.SavedWord{{Word: "a"}})
	assert.ErrorIs(t, err, errBoom)
}

func TestReminderService_CheckOnce(t *testing.T) {
	env := newTestEnv(t)
	ses := &fakeSES{}
	reminder := NewReminderService(newTestEmail(ses), env.vocab, "learner@example.com", 0, discardLogger())
	ctx := context.Background()

	sent, err := reminder.CheckOnce(ctx)
	require.NoError(t, err)
	assert.False(t, sent, "nothing due")

	_, _, err = env.vocab.SaveWord(ctx, SaveWordRequest{Word: "urban"})
	require.NoError(t, err)

	sent, err = reminder.CheckOnce(ctx)
	require.NoError(t, err)
	assert.True(t, sent)

	sent, err = reminder.CheckOnce(ctx)
	require.NoError(t, err)
	assert.False(t, sent, "same due set is not resent")

	_, _, err = env.vocab.SaveWord(ctx, SaveWordRequest{Word: "ritual"})
	require.NoError(t, err)
	sent, err = reminder.CheckOnce(ctx)
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Len(t, ses.inputs, 2)
}

func TestReminderService_FailedSendRetries(t *testing.T) {
	env := newTestEnv(t)
	ses := &fakeSES{err: errBoom}
	reminder := NewReminderService(newTestEmail(ses), env.vocab, "learner@example.com", 0, discardLogger())
	ctx := context.Background()

	_, _, err := env.vocab.SaveWord(ctx, SaveWordRequest{Word: "urban"})
	require.NoError(t, err)

	_, err = reminder.CheckOnce(ctx)
	require.Error(t, err)

	ses.err = nil
	sent, err := reminder.CheckOnce(ctx)
	require.NoError(t, err)
	assert.True(t, sent)
}

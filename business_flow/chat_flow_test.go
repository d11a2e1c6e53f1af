package businessflow_test

import (
	"context"
	"testing"

	"github.com/propmatch/PropMatch/app/dto"
	"github.com/propmatch/PropMatch/app/services"
	businessflow "github.com/propmatch/PropMatch/business_flow"
	"github.com/propmatch/PropMatch/repository"
	testingutil "github.com/propmatch/PropMatch/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChatFlowForTest(testDB *testingutil.TestDB, webhook services.WebhookClient) businessflow.ChatFlow {
	return businessflow.NewChatFlow(
		repository.NewProfileRepository(testDB.DB),
		repository.NewChatMessageRepository(testDB.DB),
		webhook,
		testDB.DB,
	)
}

func TestSendMessage(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		chatRepo := repository.NewChatMessageRepository(testDB.DB)

		profile, err := fixtures.CreateTestProfile()
		require.NoError(t, err)

		t.Run("ReplyFromAssistant", func(t *testing.T) {
			webhook := services.NewMockWebhookClient()
			webhook.ChatReply = &services.ChatEventResponse{Reply: "Three listings match your budget."}
			flow := newChatFlowForTest(testDB, webhook)

			result, err := flow.SendMessage(context.Background(), profile.ID, &dto.ChatMessageRequest{
				Message: "What can I afford in Amsterdam?",
			}, nil)
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, "Three listings match your budget.", result.Reply)

			// The exchange lands in the history
			messages, err := chatRepo.ListByUser(context.Background(), profile.ID, 0, 0)
			require.NoError(t, err)
			require.Len(t, messages, 1)
			assert.Equal(t, "What can I afford in Amsterdam?", messages[0].Message)
			require.NotNil(t, messages[0].Reply)
			assert.Equal(t, "Three listings match your budget.", *messages[0].Reply)

			// The chat event carried the profile UUID, not the numeric ID
			require.Len(t, webhook.ChatEvents, 1)
			assert.Equal(t, profile.UUID.String(), webhook.ChatEvents[0].UserID)
		})

		t.Run("BackendFailureDegradesToFallback", func(t *testing.T) {
			webhook := services.NewMockWebhookClient()
			webhook.FailEvents = true
			flow := newChatFlowForTest(testDB, webhook)

			result, err := flow.SendMessage(context.Background(), profile.ID, &dto.ChatMessageRequest{
				Message: "Hello?",
			}, nil)
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.NotEmpty(t, result.Reply)
			assert.NotEqual(t, "Hello?", result.Reply)
		})

		t.Run("AlternateReplyFieldAccepted", func(t *testing.T) {
			webhook := services.NewMockWebhookClient()
			webhook.ChatReply = &services.ChatEventResponse{Message: "Reply in the message field."}
			flow := newChatFlowForTest(testDB, webhook)

			result, err := flow.SendMessage(context.Background(), profile.ID, &dto.ChatMessageRequest{
				Message: "Which field do you use?",
			}, nil)
			require.NoError(t, err)
			assert.Equal(t, "Reply in the message field.", result.Reply)
		})

		t.Run("EmptyMessageRejected", func(t *testing.T) {
			webhook := services.NewMockWebhookClient()
			flow := newChatFlowForTest(testDB, webhook)

			result, err := flow.SendMessage(context.Background(), profile.ID, &dto.ChatMessageRequest{}, nil)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, businessflow.IsEmptyChatMessage(err))
		})

		t.Run("UnknownUserRejected", func(t *testing.T) {
			webhook := services.NewMockWebhookClient()
			flow := newChatFlowForTest(testDB, webhook)

			result, err := flow.SendMessage(context.Background(), 999999, &dto.ChatMessageRequest{
				Message: "Anyone there?",
			}, nil)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, businessflow.IsProfileNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestGetHistory(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		profile, err := fixtures.CreateTestProfile()
		require.NoError(t, err)

		webhook := services.NewMockWebhookClient()
		webhook.ChatReply = &services.ChatEventResponse{Reply: "noted"}
		flow := newChatFlowForTest(testDB, webhook)

		for _, msg := range []string{"first", "second", "third"} {
			_, err := flow.SendMessage(context.Background(), profile.ID, &dto.ChatMessageRequest{Message: msg}, nil)
			require.NoError(t, err)
		}

		result, err := flow.GetHistory(context.Background(), profile.ID)
		require.NoError(t, err)
		require.Len(t, result.Messages, 3)
		assert.Equal(t, "first", result.Messages[0].Message)
		assert.Equal(t, "third", result.Messages[2].Message)

		// Another user's history stays empty
		other, err := fixtures.CreateTestProfile()
		require.NoError(t, err)
		otherHistory, err := flow.GetHistory(context.Background(), other.ID)
		require.NoError(t, err)
		assert.Empty(t, otherHistory.Messages)

		return nil
	})
	require.NoError(t, err)
}

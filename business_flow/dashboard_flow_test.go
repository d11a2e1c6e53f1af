package businessflow_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/propmatch/PropMatch/app/dto"
	"github.com/propmatch/PropMatch/app/services"
	businessflow "github.com/propmatch/PropMatch/business_flow"
	"github.com/propmatch/PropMatch/models"
	"github.com/propmatch/PropMatch/repository"
	testingutil "github.com/propmatch/PropMatch/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDashboardFlowForTest(testDB *testingutil.TestDB, webhook services.WebhookClient) businessflow.DashboardFlow {
	return businessflow.NewDashboardFlow(
		repository.NewProfileRepository(testDB.DB),
		repository.NewPreferenceRepository(testDB.DB),
		repository.NewPropertyRepository(testDB.DB),
		repository.NewPropertyMatchRepository(testDB.DB),
		repository.NewChatMessageRepository(testDB.DB),
		repository.NewSearchHistoryRepository(testDB.DB),
		repository.NewAuditLogRepository(testDB.DB),
		webhook,
		nil, // cache config
		nil, // redis client
		testDB.DB,
	)
}

func TestGetDashboard(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		profile, err := fixtures.CreateTestProfile()
		require.NoError(t, err)
		prop1, err := fixtures.CreateTestProperty("Amsterdam", "apartment", 400000, 2)
		require.NoError(t, err)
		prop2, err := fixtures.CreateTestProperty("Rotterdam", "house", 600000, 4)
		require.NoError(t, err)

		_, err = fixtures.CreateTestMatch(profile.ID, prop1.ID, 85)
		require.NoError(t, err)
		_, err = fixtures.CreateTestMatch(profile.ID, prop2.ID, 60)
		require.NoError(t, err)
		_, err = fixtures.CreateTestPreference(profile.ID, "Amsterdam", "apartment", 450000, 2)
		require.NoError(t, err)

		t.Run("AggregatesUserActivity", func(t *testing.T) {
			webhook := services.NewMockWebhookClient()
			webhook.DashboardView = json.RawMessage(`{"weekly_report":"available"}`)
			flow := newDashboardFlowForTest(testDB, webhook)

			result, err := flow.GetDashboard(context.Background(), profile.ID)
			require.NoError(t, err)
			require.NotNil(t, result)

			assert.Equal(t, int64(1), result.TotalUsers)
			assert.Equal(t, int64(2), result.TotalProperties)
			assert.Equal(t, int64(2), result.TotalMatches)
			assert.Equal(t, int64(2), result.UnviewedMatches)
			assert.Equal(t, int64(0), result.SearchesRun)
			assert.Equal(t, int64(0), result.ChatMessages)
			assert.True(t, result.HasPreferences)
			assert.JSONEq(t, `{"weekly_report":"available"}`, string(result.External))
		})

		t.Run("ExternalFetchFailureOnlyDropsExternalBlock", func(t *testing.T) {
			webhook := services.NewMockWebhookClient()
			webhook.FailEvents = true
			flow := newDashboardFlowForTest(testDB, webhook)

			result, err := flow.GetDashboard(context.Background(), profile.ID)
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, int64(2), result.TotalMatches)
			assert.Empty(t, result.External)
		})

		t.Run("UnknownUserFails", func(t *testing.T) {
			webhook := services.NewMockWebhookClient()
			flow := newDashboardFlowForTest(testDB, webhook)

			result, err := flow.GetDashboard(context.Background(), 999999)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, businessflow.IsProfileNotFound(err))
		})

		t.Run("NoPreferencesMeansNoCheckpoint", func(t *testing.T) {
			other, err := fixtures.CreateTestProfile()
			require.NoError(t, err)

			webhook := services.NewMockWebhookClient()
			flow := newDashboardFlowForTest(testDB, webhook)

			result, err := flow.GetDashboard(context.Background(), other.ID)
			require.NoError(t, err)
			assert.False(t, result.HasPreferences)
			assert.Nil(t, result.LastMatchCheck)
			assert.Equal(t, int64(0), result.TotalMatches)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestListAuditTrail(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		profile, err := fixtures.CreateTestProfile()
		require.NoError(t, err)
		other, err := fixtures.CreateTestProfile()
		require.NoError(t, err)

		_, err = fixtures.CreateTestAuditLog(&profile.ID, models.AuditActionLoginSuccessful, true)
		require.NoError(t, err)
		_, err = fixtures.CreateTestAuditLog(&profile.ID, models.AuditActionLoginFailed, false)
		require.NoError(t, err)
		_, err = fixtures.CreateTestAuditLog(&other.ID, models.AuditActionMatchRunCompleted, true)
		require.NoError(t, err)

		flow := newDashboardFlowForTest(testDB, services.NewMockWebhookClient())

		t.Run("DefaultListsEverything", func(t *testing.T) {
			result, err := flow.ListAuditTrail(context.Background(), &dto.AuditTrailRequest{})
			require.NoError(t, err)
			assert.Len(t, result.Entries, 3)
		})

		t.Run("NarrowsByProfile", func(t *testing.T) {
			result, err := flow.ListAuditTrail(context.Background(), &dto.AuditTrailRequest{ProfileID: &profile.ID})
			require.NoError(t, err)
			require.Len(t, result.Entries, 2)
			for _, entry := range result.Entries {
				require.NotNil(t, entry.ProfileID)
				assert.Equal(t, profile.ID, *entry.ProfileID)
			}
		})

		t.Run("NarrowsToFailures", func(t *testing.T) {
			result, err := flow.ListAuditTrail(context.Background(), &dto.AuditTrailRequest{FailedOnly: true})
			require.NoError(t, err)
			require.Len(t, result.Entries, 1)
			assert.Equal(t, models.AuditActionLoginFailed, result.Entries[0].Action)
			require.NotNil(t, result.Entries[0].ErrorMessage)
		})

		t.Run("NarrowsByAction", func(t *testing.T) {
			action := models.AuditActionMatchRunCompleted
			result, err := flow.ListAuditTrail(context.Background(), &dto.AuditTrailRequest{Action: &action})
			require.NoError(t, err)
			require.Len(t, result.Entries, 1)
			require.NotNil(t, result.Entries[0].ProfileID)
			assert.Equal(t, other.ID, *result.Entries[0].ProfileID)
		})

		t.Run("LimitCapsTheList", func(t *testing.T) {
			result, err := flow.ListAuditTrail(context.Background(), &dto.AuditTrailRequest{Limit: 2})
			require.NoError(t, err)
			assert.Len(t, result.Entries, 2)
		})

		return nil
	})
	require.NoError(t, err)
}

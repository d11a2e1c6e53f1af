package businessflow_test

import (
	"context"
	"testing"

	"github.com/propmatch/PropMatch/app/dto"
	"github.com/propmatch/PropMatch/app/services"
	businessflow "github.com/propmatch/PropMatch/business_flow"
	"github.com/propmatch/PropMatch/models"
	"github.com/propmatch/PropMatch/repository"
	testingutil "github.com/propmatch/PropMatch/testing"
	"github.com/propmatch/PropMatch/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPreferenceFlowForTest(testDB *testingutil.TestDB, finder repository.MatchFinder, webhook services.WebhookClient) businessflow.PreferenceFlow {
	return businessflow.NewPreferenceFlow(
		repository.NewProfileRepository(testDB.DB),
		repository.NewPreferenceRepository(testDB.DB),
		repository.NewAuditLogRepository(testDB.DB),
		newMatchFlowForTest(testDB, finder, webhook),
		webhook,
		testDB.DB,
	)
}

func TestSavePreferences(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		prefRepo := repository.NewPreferenceRepository(testDB.DB)

		t.Run("EmptySurveyRejected", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			profile, err := fixtures.CreateTestProfile()
			require.NoError(t, err)

			webhook := services.NewMockWebhookClient()
			flow := newPreferenceFlowForTest(testDB, &stubMatchFinder{}, webhook)

			result, err := flow.SavePreferences(context.Background(), profile.ID, &dto.SavePreferencesRequest{}, nil)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, businessflow.IsEmptyPreferences(err))
		})

		t.Run("SaveTriggersImmediateMatchCheck", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			profile, err := fixtures.CreateTestProfile()
			require.NoError(t, err)
			prop, err := fixtures.CreateTestProperty("Amsterdam", "apartment", 400000, 2)
			require.NoError(t, err)

			webhook := services.NewMockWebhookClient()
			finder := &stubMatchFinder{results: map[uint][]models.MatchResult{
				profile.ID: {
					{PropertyID: prop.ID, MatchScore: 100, MatchDetails: models.MatchDetails{CityMatch: true, TypeMatch: true, PriceMatch: true, BedroomsMatch: true}},
				},
			}}
			flow := newPreferenceFlowForTest(testDB, finder, webhook)

			result, err := flow.SavePreferences(context.Background(), profile.ID, &dto.SavePreferencesRequest{
				City:         utils.ToPtr("Amsterdam"),
				MaxPrice:     utils.ToPtr(int64(450000)),
				PropertyType: utils.ToPtr("apartment"),
				Bedrooms:     utils.ToPtr(2),
			}, businessflow.NewClientMetadata("127.0.0.1", "test-agent"))
			require.NoError(t, err)
			require.NotNil(t, result)

			assert.Equal(t, 1, result.NewMatches)
			require.NotNil(t, result.Preference.City)
			assert.Equal(t, "Amsterdam", *result.Preference.City)
			assert.Equal(t, []uint{profile.ID}, finder.calls)

			// Survey event went out with the submitted answers
			require.Len(t, webhook.SurveyEvents, 1)
			assert.Equal(t, profile.UUID.String(), webhook.SurveyEvents[0].UserID)
			require.NotNil(t, webhook.SurveyEvents[0].Preferences.City)
			assert.Equal(t, "Amsterdam", *webhook.SurveyEvents[0].Preferences.City)
		})

		t.Run("ResubmissionUpdatesExistingRow", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			profile, err := fixtures.CreateTestProfile()
			require.NoError(t, err)

			webhook := services.NewMockWebhookClient()
			flow := newPreferenceFlowForTest(testDB, &stubMatchFinder{}, webhook)

			_, err = flow.SavePreferences(context.Background(), profile.ID, &dto.SavePreferencesRequest{
				City: utils.ToPtr("Utrecht"),
			}, nil)
			require.NoError(t, err)

			_, err = flow.SavePreferences(context.Background(), profile.ID, &dto.SavePreferencesRequest{
				City:     utils.ToPtr("Rotterdam"),
				Bedrooms: utils.ToPtr(3),
			}, nil)
			require.NoError(t, err)

			prefs, err := prefRepo.ByFilter(context.Background(), models.PreferenceFilter{UserID: &profile.ID})
			require.NoError(t, err)
			require.Len(t, prefs, 1)
			require.NotNil(t, prefs[0].City)
			assert.Equal(t, "Rotterdam", *prefs[0].City)
		})

		t.Run("UnknownUserRejected", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			webhook := services.NewMockWebhookClient()
			flow := newPreferenceFlowForTest(testDB, &stubMatchFinder{}, webhook)

			result, err := flow.SavePreferences(context.Background(), 999999, &dto.SavePreferencesRequest{
				City: utils.ToPtr("Amsterdam"),
			}, nil)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, businessflow.IsProfileNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestGetPreferences(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		profile, err := fixtures.CreateTestProfile()
		require.NoError(t, err)
		_, err = fixtures.CreateTestPreference(profile.ID, "Amsterdam", "apartment", 450000, 2)
		require.NoError(t, err)

		webhook := services.NewMockWebhookClient()
		flow := newPreferenceFlowForTest(testDB, &stubMatchFinder{}, webhook)

		t.Run("ReturnsStoredAnswers", func(t *testing.T) {
			result, err := flow.GetPreferences(context.Background(), profile.ID)
			require.NoError(t, err)
			require.NotNil(t, result)
			require.NotNil(t, result.City)
			assert.Equal(t, "Amsterdam", *result.City)
			require.NotNil(t, result.MaxPrice)
			assert.Equal(t, int64(450000), *result.MaxPrice)
		})

		t.Run("NotFoundWithoutSurvey", func(t *testing.T) {
			other, err := fixtures.CreateTestProfile()
			require.NoError(t, err)

			result, err := flow.GetPreferences(context.Background(), other.ID)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, businessflow.IsPreferenceNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}

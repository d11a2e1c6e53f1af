package businessflow_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/propmatch/PropMatch/app/services"
	businessflow "github.com/propmatch/PropMatch/business_flow"
	"github.com/propmatch/PropMatch/models"
	"github.com/propmatch/PropMatch/repository"
	testingutil "github.com/propmatch/PropMatch/testing"
	"github.com/propmatch/PropMatch/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubMatchFinder returns canned results per user, recording every call.
type stubMatchFinder struct {
	results map[uint][]models.MatchResult
	err     error
	calls   []uint
}

func (f *stubMatchFinder) FindMatchesForUser(ctx context.Context, userID uint) ([]models.MatchResult, error) {
	f.calls = append(f.calls, userID)
	if f.err != nil {
		return nil, f.err
	}
	return f.results[userID], nil
}

// hidingPropertyRepo hides one listing from lookups, standing in for a row
// deleted between the batch insert and the notification join.
type hidingPropertyRepo struct {
	repository.PropertyRepository
	hiddenID uint
}

func (r *hidingPropertyRepo) ByIDs(ctx context.Context, ids []uint) ([]*models.Property, error) {
	properties, err := r.PropertyRepository.ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	visible := properties[:0]
	for _, property := range properties {
		if property.ID != r.hiddenID {
			visible = append(visible, property)
		}
	}
	return visible, nil
}

func newMatchFlowForTest(testDB *testingutil.TestDB, finder repository.MatchFinder, webhook services.WebhookClient) businessflow.MatchFlow {
	return businessflow.NewMatchFlow(
		repository.NewProfileRepository(testDB.DB),
		repository.NewPreferenceRepository(testDB.DB),
		repository.NewPropertyRepository(testDB.DB),
		repository.NewPropertyMatchRepository(testDB.DB),
		repository.NewAuditLogRepository(testDB.DB),
		finder,
		services.NewMatchNotifier(webhook),
		webhook,
		testDB.DB,
	)
}

func TestRunMatchCheckForUser(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		matchRepo := repository.NewPropertyMatchRepository(testDB.DB)
		prefRepo := repository.NewPreferenceRepository(testDB.DB)

		t.Run("FinderFailureIsSwallowed", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			profile, err := fixtures.CreateTestProfile()
			require.NoError(t, err)
			_, err = fixtures.CreateTestPreference(profile.ID, "Amsterdam", "apartment", 450000, 2)
			require.NoError(t, err)

			webhook := services.NewMockWebhookClient()
			finder := &stubMatchFinder{err: fmt.Errorf("matching function unavailable")}
			flow := newMatchFlowForTest(testDB, finder, webhook)

			count, err := flow.RunMatchCheckForUser(context.Background(), profile.ID)
			require.NoError(t, err)
			assert.Zero(t, count)

			// Nothing persisted, checkpoint untouched, nothing notified
			total, err := matchRepo.Count(context.Background(), models.PropertyMatchFilter{UserID: &profile.ID})
			require.NoError(t, err)
			assert.Zero(t, total)

			pref, err := prefRepo.ByUserID(context.Background(), profile.ID)
			require.NoError(t, err)
			require.NotNil(t, pref)
			assert.Nil(t, pref.LastMatchCheck)

			assert.Empty(t, webhook.Notifications)
		})

		t.Run("NoResultsNoWrites", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			profile, err := fixtures.CreateTestProfile()
			require.NoError(t, err)
			_, err = fixtures.CreateTestPreference(profile.ID, "Utrecht", "house", 600000, 3)
			require.NoError(t, err)

			webhook := services.NewMockWebhookClient()
			finder := &stubMatchFinder{results: map[uint][]models.MatchResult{}}
			flow := newMatchFlowForTest(testDB, finder, webhook)

			count, err := flow.RunMatchCheckForUser(context.Background(), profile.ID)
			require.NoError(t, err)
			assert.Zero(t, count)

			pref, err := prefRepo.ByUserID(context.Background(), profile.ID)
			require.NoError(t, err)
			assert.Nil(t, pref.LastMatchCheck)
			assert.Empty(t, webhook.Notifications)
		})

		t.Run("PersistsResultsVerbatimAndNotifies", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			profile, err := fixtures.CreateTestProfile()
			require.NoError(t, err)
			_, err = fixtures.CreateTestPreference(profile.ID, "Amsterdam", "apartment", 450000, 2)
			require.NoError(t, err)

			prop1, err := fixtures.CreateTestProperty("Amsterdam", "apartment", 400000, 2)
			require.NoError(t, err)
			prop2, err := fixtures.CreateTestProperty("Amsterdam", "apartment", 425000, 3)
			require.NoError(t, err)

			webhook := services.NewMockWebhookClient()
			finder := &stubMatchFinder{results: map[uint][]models.MatchResult{
				profile.ID: {
					{PropertyID: prop1.ID, MatchScore: 100, MatchDetails: models.MatchDetails{CityMatch: true, TypeMatch: true, PriceMatch: true, BedroomsMatch: true}},
					{PropertyID: prop2.ID, MatchScore: 80, MatchDetails: models.MatchDetails{CityMatch: true, TypeMatch: true, PriceMatch: true}},
				},
			}}
			flow := newMatchFlowForTest(testDB, finder, webhook)

			count, err := flow.RunMatchCheckForUser(context.Background(), profile.ID)
			require.NoError(t, err)
			assert.Equal(t, 2, count)

			matches, err := matchRepo.ListByUser(context.Background(), profile.ID, 0, 0)
			require.NoError(t, err)
			require.Len(t, matches, 2)
			for _, match := range matches {
				assert.False(t, utils.IsTrue(match.Viewed))
			}

			byProperty := map[uint]*models.PropertyMatch{}
			for _, match := range matches {
				byProperty[match.PropertyID] = match
			}
			require.Contains(t, byProperty, prop1.ID)
			require.Contains(t, byProperty, prop2.ID)
			assert.Equal(t, 100, byProperty[prop1.ID].MatchScore)
			assert.True(t, byProperty[prop1.ID].MatchDetails.BedroomsMatch)
			assert.Equal(t, 80, byProperty[prop2.ID].MatchScore)
			assert.False(t, byProperty[prop2.ID].MatchDetails.BedroomsMatch)

			pref, err := prefRepo.ByUserID(context.Background(), profile.ID)
			require.NoError(t, err)
			require.NotNil(t, pref.LastMatchCheck)
			assert.WithinDuration(t, time.Now().UTC(), *pref.LastMatchCheck, time.Minute)

			require.Len(t, webhook.Notifications, 1)
			notification := webhook.Notifications[0]
			assert.Equal(t, profile.UUID.String(), notification.UserID)
			assert.Equal(t, profile.Email, notification.UserEmail)
			require.Len(t, notification.Matches, 2)
			assert.Equal(t, fmt.Sprintf("%d", prop1.ID), notification.Matches[0].PropertyID)
		})

		t.Run("MissingPropertyDroppedFromPayloadOnly", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			profile, err := fixtures.CreateTestProfile()
			require.NoError(t, err)
			_, err = fixtures.CreateTestPreference(profile.ID, "Amsterdam", "apartment", 450000, 2)
			require.NoError(t, err)

			visible, err := fixtures.CreateTestProperty("Amsterdam", "apartment", 400000, 2)
			require.NoError(t, err)
			vanished, err := fixtures.CreateTestProperty("Amsterdam", "apartment", 425000, 3)
			require.NoError(t, err)

			webhook := services.NewMockWebhookClient()
			finder := &stubMatchFinder{results: map[uint][]models.MatchResult{
				profile.ID: {
					{PropertyID: visible.ID, MatchScore: 100, MatchDetails: models.MatchDetails{CityMatch: true, TypeMatch: true, PriceMatch: true, BedroomsMatch: true}},
					{PropertyID: vanished.ID, MatchScore: 80, MatchDetails: models.MatchDetails{CityMatch: true, TypeMatch: true, PriceMatch: true}},
				},
			}}
			flow := businessflow.NewMatchFlow(
				repository.NewProfileRepository(testDB.DB),
				repository.NewPreferenceRepository(testDB.DB),
				&hidingPropertyRepo{PropertyRepository: repository.NewPropertyRepository(testDB.DB), hiddenID: vanished.ID},
				repository.NewPropertyMatchRepository(testDB.DB),
				repository.NewAuditLogRepository(testDB.DB),
				finder,
				services.NewMatchNotifier(webhook),
				webhook,
				testDB.DB,
			)

			count, err := flow.RunMatchCheckForUser(context.Background(), profile.ID)
			require.NoError(t, err)
			assert.Equal(t, 2, count)

			// Both rows survive; only the payload shrinks
			matches, err := matchRepo.ListByUser(context.Background(), profile.ID, 0, 0)
			require.NoError(t, err)
			assert.Len(t, matches, 2)

			pref, err := prefRepo.ByUserID(context.Background(), profile.ID)
			require.NoError(t, err)
			assert.NotNil(t, pref.LastMatchCheck)

			require.Len(t, webhook.Notifications, 1)
			notification := webhook.Notifications[0]
			require.Len(t, notification.Matches, 1)
			assert.Equal(t, fmt.Sprintf("%d", visible.ID), notification.Matches[0].PropertyID)
		})

		t.Run("NotificationFailureDoesNotAffectCount", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			profile, err := fixtures.CreateTestProfile()
			require.NoError(t, err)
			_, err = fixtures.CreateTestPreference(profile.ID, "Rotterdam", "studio", 300000, 1)
			require.NoError(t, err)

			prop, err := fixtures.CreateTestProperty("Rotterdam", "studio", 250000, 1)
			require.NoError(t, err)

			webhook := services.NewMockWebhookClient()
			webhook.FailNotify = true
			finder := &stubMatchFinder{results: map[uint][]models.MatchResult{
				profile.ID: {
					{PropertyID: prop.ID, MatchScore: 75, MatchDetails: models.MatchDetails{CityMatch: true, TypeMatch: true}},
				},
			}}
			flow := newMatchFlowForTest(testDB, finder, webhook)

			count, err := flow.RunMatchCheckForUser(context.Background(), profile.ID)
			require.NoError(t, err)
			assert.Equal(t, 1, count)

			// The row and the checkpoint survive the delivery failure
			matches, err := matchRepo.ListByUser(context.Background(), profile.ID, 0, 0)
			require.NoError(t, err)
			assert.Len(t, matches, 1)

			pref, err := prefRepo.ByUserID(context.Background(), profile.ID)
			require.NoError(t, err)
			assert.NotNil(t, pref.LastMatchCheck)
		})

		t.Run("PersistFailureRollsBackCheckpoint", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			profile, err := fixtures.CreateTestProfile()
			require.NoError(t, err)
			_, err = fixtures.CreateTestPreference(profile.ID, "Amsterdam", "apartment", 450000, 2)
			require.NoError(t, err)

			webhook := services.NewMockWebhookClient()
			// A property ID that violates the foreign key makes the batch
			// insert fail inside the transaction.
			finder := &stubMatchFinder{results: map[uint][]models.MatchResult{
				profile.ID: {
					{PropertyID: 999999, MatchScore: 90, MatchDetails: models.MatchDetails{CityMatch: true}},
				},
			}}
			flow := newMatchFlowForTest(testDB, finder, webhook)

			count, err := flow.RunMatchCheckForUser(context.Background(), profile.ID)
			require.Error(t, err)
			assert.Zero(t, count)
			assert.True(t, businessflow.IsPersistenceFailed(err))

			total, err := matchRepo.Count(context.Background(), models.PropertyMatchFilter{UserID: &profile.ID})
			require.NoError(t, err)
			assert.Zero(t, total)

			pref, err := prefRepo.ByUserID(context.Background(), profile.ID)
			require.NoError(t, err)
			assert.Nil(t, pref.LastMatchCheck)
			assert.Empty(t, webhook.Notifications)
		})

		t.Run("RepeatedRunsAppendNewRows", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			profile, err := fixtures.CreateTestProfile()
			require.NoError(t, err)
			_, err = fixtures.CreateTestPreference(profile.ID, "Amsterdam", "apartment", 450000, 2)
			require.NoError(t, err)

			prop, err := fixtures.CreateTestProperty("Amsterdam", "apartment", 400000, 2)
			require.NoError(t, err)

			webhook := services.NewMockWebhookClient()
			finder := &stubMatchFinder{results: map[uint][]models.MatchResult{
				profile.ID: {
					{PropertyID: prop.ID, MatchScore: 100, MatchDetails: models.MatchDetails{CityMatch: true, TypeMatch: true, PriceMatch: true, BedroomsMatch: true}},
				},
			}}
			flow := newMatchFlowForTest(testDB, finder, webhook)

			for i := 0; i < 2; i++ {
				count, err := flow.RunMatchCheckForUser(context.Background(), profile.ID)
				require.NoError(t, err)
				assert.Equal(t, 1, count)
			}

			// Each run is a distinct match event for the same pair
			total, err := matchRepo.Count(context.Background(), models.PropertyMatchFilter{UserID: &profile.ID, PropertyID: &prop.ID})
			require.NoError(t, err)
			assert.Equal(t, int64(2), total)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestRunDailySweep(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		prefRepo := repository.NewPreferenceRepository(testDB.DB)

		staleUser, err := fixtures.CreateTestProfile()
		require.NoError(t, err)
		_, err = fixtures.CreateTestPreference(staleUser.ID, "Amsterdam", "apartment", 450000, 2)
		require.NoError(t, err)
		twoDaysAgo := time.Now().UTC().Add(-48 * time.Hour)
		require.NoError(t, prefRepo.UpdateLastMatchCheck(context.Background(), staleUser.ID, twoDaysAgo))

		neverChecked, err := fixtures.CreateTestProfile()
		require.NoError(t, err)
		_, err = fixtures.CreateTestPreference(neverChecked.ID, "Utrecht", "house", 600000, 3)
		require.NoError(t, err)

		freshUser, err := fixtures.CreateTestProfile()
		require.NoError(t, err)
		_, err = fixtures.CreateTestPreference(freshUser.ID, "Rotterdam", "studio", 300000, 1)
		require.NoError(t, err)
		require.NoError(t, prefRepo.UpdateLastMatchCheck(context.Background(), freshUser.ID, time.Now().UTC().Add(-1*time.Hour)))

		prop, err := fixtures.CreateTestProperty("Amsterdam", "apartment", 400000, 2)
		require.NoError(t, err)

		webhook := services.NewMockWebhookClient()
		finder := &stubMatchFinder{results: map[uint][]models.MatchResult{
			staleUser.ID: {
				{PropertyID: prop.ID, MatchScore: 100, MatchDetails: models.MatchDetails{CityMatch: true, TypeMatch: true, PriceMatch: true, BedroomsMatch: true}},
			},
		}}
		flow := newMatchFlowForTest(testDB, finder, webhook)

		summary, err := flow.RunDailySweep(context.Background(), 24*time.Hour)
		require.NoError(t, err)
		require.NotNil(t, summary)

		// Only the stale user is swept. The fresh checkpoint and the
		// never-checked row (handled at survey submission) both stay out.
		assert.Equal(t, 1, summary.UsersChecked)
		assert.Zero(t, summary.UsersFailed)
		assert.Equal(t, 1, summary.MatchesFound)
		assert.Equal(t, []uint{staleUser.ID}, finder.calls)

		pref, err := prefRepo.ByUserID(context.Background(), neverChecked.ID)
		require.NoError(t, err)
		assert.Nil(t, pref.LastMatchCheck)

		return nil
	})
	require.NoError(t, err)
}

func TestMarkMatchViewed(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		matchRepo := repository.NewPropertyMatchRepository(testDB.DB)

		owner, err := fixtures.CreateTestProfile()
		require.NoError(t, err)
		other, err := fixtures.CreateTestProfile()
		require.NoError(t, err)
		prop, err := fixtures.CreateTestProperty("Amsterdam", "apartment", 400000, 2)
		require.NoError(t, err)
		match, err := fixtures.CreateTestMatch(owner.ID, prop.ID, 90)
		require.NoError(t, err)

		webhook := services.NewMockWebhookClient()
		flow := newMatchFlowForTest(testDB, &stubMatchFinder{}, webhook)

		t.Run("OwnerCanMarkViewed", func(t *testing.T) {
			err := flow.MarkMatchViewed(context.Background(), owner.ID, match.ID)
			require.NoError(t, err)

			stored, err := matchRepo.ByID(context.Background(), match.ID)
			require.NoError(t, err)
			assert.True(t, utils.IsTrue(stored.Viewed))
		})

		t.Run("OtherUserGetsNotFound", func(t *testing.T) {
			err := flow.MarkMatchViewed(context.Background(), other.ID, match.ID)
			require.Error(t, err)
			assert.True(t, businessflow.IsMatchNotFound(err))
		})

		t.Run("UnknownMatchGetsNotFound", func(t *testing.T) {
			err := flow.MarkMatchViewed(context.Background(), owner.ID, 999999)
			require.Error(t, err)
			assert.True(t, businessflow.IsMatchNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestListMatches(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		profile, err := fixtures.CreateTestProfile()
		require.NoError(t, err)
		prop1, err := fixtures.CreateTestProperty("Amsterdam", "apartment", 400000, 2)
		require.NoError(t, err)
		prop2, err := fixtures.CreateTestProperty("Utrecht", "house", 550000, 4)
		require.NoError(t, err)

		_, err = fixtures.CreateTestMatch(profile.ID, prop1.ID, 100)
		require.NoError(t, err)
		viewed, err := fixtures.CreateTestMatch(profile.ID, prop2.ID, 60)
		require.NoError(t, err)
		require.NoError(t, testDB.DB.Model(viewed).Update("viewed", true).Error)

		webhook := services.NewMockWebhookClient()
		flow := newMatchFlowForTest(testDB, &stubMatchFinder{}, webhook)

		result, err := flow.ListMatches(context.Background(), profile.ID)
		require.NoError(t, err)
		require.Len(t, result.Matches, 2)
		assert.Equal(t, int64(1), result.UnviewedCount)

		// Properties ride along with the feed
		for _, match := range result.Matches {
			require.NotNil(t, match.Property)
		}

		return nil
	})
	require.NoError(t, err)
}

package businessflow_test

import (
	"bytes"
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
	"github.com/xuri/excelize/v2"
)

func newPropertyFlowForTest(testDB *testingutil.TestDB, webhook services.WebhookClient) businessflow.PropertyFlow {
	return businessflow.NewPropertyFlow(
		repository.NewProfileRepository(testDB.DB),
		repository.NewPropertyRepository(testDB.DB),
		repository.NewSearchHistoryRepository(testDB.DB),
		repository.NewAuditLogRepository(testDB.DB),
		webhook,
		testDB.DB,
	)
}

func TestCreateProperty(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		webhook := services.NewMockWebhookClient()
		flow := newPropertyFlowForTest(testDB, webhook)

		t.Run("SuccessfulCreate", func(t *testing.T) {
			result, err := flow.CreateProperty(context.Background(), &dto.CreatePropertyRequest{
				Title:    "Bright 2-bedroom apartment",
				Price:    425000,
				Type:     "apartment",
				Location: "Keizersgracht 123, Amsterdam",
				City:     "Amsterdam",
				Size:     85,
				Rooms:    3,
			}, nil)
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.NotZero(t, result.ID)
			assert.Equal(t, "Bright 2-bedroom apartment", result.Title)
			assert.Equal(t, int64(425000), result.Price)
		})

		t.Run("InvalidTypeRejected", func(t *testing.T) {
			result, err := flow.CreateProperty(context.Background(), &dto.CreatePropertyRequest{
				Title:    "Houseboat on the Amstel",
				Price:    300000,
				Type:     "houseboat",
				Location: "Amstel 1",
				City:     "Amsterdam",
				Size:     60,
				Rooms:    2,
			}, nil)
			require.Error(t, err)
			assert.Nil(t, result)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestUpdateProperty(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		webhook := services.NewMockWebhookClient()
		flow := newPropertyFlowForTest(testDB, webhook)

		prop, err := fixtures.CreateTestProperty("Amsterdam", "apartment", 400000, 2)
		require.NoError(t, err)

		t.Run("PartialUpdateOnlyTouchesGivenFields", func(t *testing.T) {
			result, err := flow.UpdateProperty(context.Background(), prop.ID, &dto.UpdatePropertyRequest{
				Price: utils.ToPtr(int64(395000)),
			}, nil)
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, int64(395000), result.Price)
			assert.Equal(t, prop.Title, result.Title)
			assert.Equal(t, "Amsterdam", result.City)
		})

		t.Run("UnknownPropertyNotFound", func(t *testing.T) {
			result, err := flow.UpdateProperty(context.Background(), 999999, &dto.UpdatePropertyRequest{
				Price: utils.ToPtr(int64(100)),
			}, nil)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, businessflow.IsPropertyNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestDeleteProperty(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		webhook := services.NewMockWebhookClient()
		flow := newPropertyFlowForTest(testDB, webhook)

		prop, err := fixtures.CreateTestProperty("Utrecht", "house", 550000, 4)
		require.NoError(t, err)

		require.NoError(t, flow.DeleteProperty(context.Background(), prop.ID, nil))

		_, err = flow.GetProperty(context.Background(), prop.ID)
		require.Error(t, err)
		assert.True(t, businessflow.IsPropertyNotFound(err))

		err = flow.DeleteProperty(context.Background(), prop.ID, nil)
		require.Error(t, err)
		assert.True(t, businessflow.IsPropertyNotFound(err))

		return nil
	})
	require.NoError(t, err)
}

func TestSearchProperties(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		historyRepo := repository.NewSearchHistoryRepository(testDB.DB)

		profile, err := fixtures.CreateTestProfile()
		require.NoError(t, err)

		_, err = fixtures.CreateTestProperty("Amsterdam", "apartment", 400000, 2)
		require.NoError(t, err)
		_, err = fixtures.CreateTestProperty("Amsterdam", "house", 700000, 5)
		require.NoError(t, err)
		_, err = fixtures.CreateTestProperty("Rotterdam", "apartment", 300000, 2)
		require.NoError(t, err)

		webhook := services.NewMockWebhookClient()
		flow := newPropertyFlowForTest(testDB, webhook)

		t.Run("FiltersByCityAndPrice", func(t *testing.T) {
			result, err := flow.SearchProperties(context.Background(), profile.ID, &dto.SearchPropertiesRequest{
				City:     utils.ToPtr("Amsterdam"),
				MaxPrice: utils.ToPtr(int64(500000)),
			})
			require.NoError(t, err)
			require.Len(t, result.Properties, 1)
			assert.Equal(t, "Amsterdam", result.Properties[0].City)
			assert.Equal(t, int64(1), result.Total)
		})

		t.Run("RecordsHistoryAndSendsEvent", func(t *testing.T) {
			before, err := historyRepo.Count(context.Background(), models.SearchHistoryFilter{UserID: &profile.ID})
			require.NoError(t, err)

			_, err = flow.SearchProperties(context.Background(), profile.ID, &dto.SearchPropertiesRequest{
				City: utils.ToPtr("Rotterdam"),
			})
			require.NoError(t, err)

			after, err := historyRepo.Count(context.Background(), models.SearchHistoryFilter{UserID: &profile.ID})
			require.NoError(t, err)
			assert.Equal(t, before+1, after)

			require.NotEmpty(t, webhook.SearchEvents)
			last := webhook.SearchEvents[len(webhook.SearchEvents)-1]
			assert.Equal(t, profile.UUID.String(), last.UserID)
			require.NotNil(t, last.Filters.City)
			assert.Equal(t, "Rotterdam", *last.Filters.City)
		})

		t.Run("EventFailureDoesNotHideResults", func(t *testing.T) {
			webhook.FailEvents = true
			defer func() { webhook.FailEvents = false }()

			result, err := flow.SearchProperties(context.Background(), profile.ID, &dto.SearchPropertiesRequest{
				City: utils.ToPtr("Amsterdam"),
			})
			require.NoError(t, err)
			assert.Len(t, result.Properties, 2)
		})

		t.Run("AnonymousSearchLeavesNoTrace", func(t *testing.T) {
			before, err := historyRepo.Count(context.Background(), models.SearchHistoryFilter{})
			require.NoError(t, err)
			eventsBefore := len(webhook.SearchEvents)

			result, err := flow.SearchProperties(context.Background(), 0, &dto.SearchPropertiesRequest{
				City: utils.ToPtr("Amsterdam"),
			})
			require.NoError(t, err)
			assert.Len(t, result.Properties, 2)

			after, err := historyRepo.Count(context.Background(), models.SearchHistoryFilter{})
			require.NoError(t, err)
			assert.Equal(t, before, after)
			assert.Len(t, webhook.SearchEvents, eventsBefore)
		})

		t.Run("PaginationDefaults", func(t *testing.T) {
			result, err := flow.SearchProperties(context.Background(), profile.ID, &dto.SearchPropertiesRequest{})
			require.NoError(t, err)
			assert.Equal(t, 1, result.Page)
			assert.Equal(t, 20, result.PageSize)
			assert.Equal(t, int64(3), result.Total)
		})

		t.Run("OversizedPageRejected", func(t *testing.T) {
			result, err := flow.SearchProperties(context.Background(), profile.ID, &dto.SearchPropertiesRequest{
				PageSize: 500,
			})
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, businessflow.IsInvalidPageSize(err))
		})

		t.Run("NegativePageRejected", func(t *testing.T) {
			result, err := flow.SearchProperties(context.Background(), profile.ID, &dto.SearchPropertiesRequest{
				Page: -1,
			})
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, businessflow.IsInvalidPage(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestListSearchHistory(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		profile, err := fixtures.CreateTestProfile()
		require.NoError(t, err)

		webhook := services.NewMockWebhookClient()
		flow := newPropertyFlowForTest(testDB, webhook)

		for _, city := range []string{"Amsterdam", "Utrecht"} {
			_, err := flow.SearchProperties(context.Background(), profile.ID, &dto.SearchPropertiesRequest{
				City: utils.ToPtr(city),
			})
			require.NoError(t, err)
		}

		items, err := flow.ListSearchHistory(context.Background(), profile.ID)
		require.NoError(t, err)
		require.Len(t, items, 2)
		// Newest first
		require.NotNil(t, items[0].City)
		assert.Equal(t, "Utrecht", *items[0].City)

		return nil
	})
	require.NoError(t, err)
}

func TestExportProperties(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		_, err := fixtures.CreateTestProperty("Amsterdam", "apartment", 400000, 2)
		require.NoError(t, err)
		_, err = fixtures.CreateTestProperty("Rotterdam", "house", 650000, 4)
		require.NoError(t, err)

		webhook := services.NewMockWebhookClient()
		flow := newPropertyFlowForTest(testDB, webhook)

		data, filename, err := flow.ExportProperties(context.Background())
		require.NoError(t, err)
		assert.Contains(t, filename, ".xlsx")
		require.NotEmpty(t, data)

		// Workbook holds a header row plus one row per listing
		wb, err := excelize.OpenReader(bytes.NewReader(data))
		require.NoError(t, err)
		defer func() { _ = wb.Close() }()

		rows, err := wb.GetRows("Properties")
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, "ID", rows[0][0])
		assert.Equal(t, "City", rows[0][5])

		return nil
	})
	require.NoError(t, err)
}

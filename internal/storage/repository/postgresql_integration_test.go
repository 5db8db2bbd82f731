package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/filmland/internal/lib/money"
	"github.com/magabrotheeeer/filmland/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestStorage_SaveNewSubscription(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	userUID := uuid.New().String()
	factory.CreateUser(t, userUID, "java@rent-all.com", "java")
	categoryID := factory.CreateCategory(t, "Dutch Films", money.Amount(400), 10)

	start := date(2024, 1, 15)
	sub := &models.Subscription{
		CategoryID:  categoryID,
		StartDate:   start,
		Subscribers: []models.User{{UID: userUID}},
		Periods: []models.SubscriptionPeriod{{
			StartDate:        start,
			EndDate:          date(2024, 2, 15),
			RemainingContent: 10,
			Invoices: []models.SubscriptionInvoice{{
				SubscriberUID: userUID,
				Price:         0,
				Date:          start,
			}},
		}},
	}

	id, err := storage.SaveNewSubscription(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, id, sub.ID)
	assert.NotZero(t, sub.Periods[0].ID)
	assert.NotZero(t, sub.Periods[0].Invoices[0].ID)

	// агрегат читается обратно целиком
	subs, err := storage.FindSubscribedSubscriptions(context.Background(), "JAVA@rent-all.com")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, id, subs[0].ID)
	assert.Equal(t, "Dutch Films", subs[0].Category.Name)
	assert.Equal(t, money.Amount(400), subs[0].Category.Price)
	require.Len(t, subs[0].Periods, 1)
	assert.True(t, subs[0].Periods[0].StartDate.Equal(start))
	require.Len(t, subs[0].Subscribers, 1)
	assert.Equal(t, "java@rent-all.com", subs[0].Subscribers[0].Email)
}

func TestStorage_IsSubscribed(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	userUID := uuid.New().String()
	factory.CreateUser(t, userUID, "java@rent-all.com", "java")
	categoryID := factory.CreateCategory(t, "Dutch Films", money.Amount(400), 10)
	factory.CreateSubscription(t, categoryID, userUID, date(2024, 1, 15))

	subscribed, err := storage.IsSubscribed(context.Background(), "Java@Rent-All.com", "dutch films")
	require.NoError(t, err)
	assert.True(t, subscribed)

	subscribed, err = storage.IsSubscribed(context.Background(), "java@rent-all.com", "Dutch Series")
	require.NoError(t, err)
	assert.False(t, subscribed)
}

func TestStorage_FindUserByEmail(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	userUID := uuid.New().String()
	factory.CreateUser(t, userUID, "java@rent-all.com", "java")

	user, err := storage.FindUserByEmail(context.Background(), "JAVA@RENT-ALL.COM")
	require.NoError(t, err)
	assert.Equal(t, userUID, user.UID)

	_, err = storage.FindUserByEmail(context.Background(), "ghost@rent-all.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStorage_FindRenewableSubscriptionIDs(t *testing.T) {
	today := date(2024, 3, 10)
	in3days := today.AddDate(0, 0, 3)

	tests := []struct {
		name    string
		periods [][2]time.Time
		want    bool
	}{
		{
			name:    "current period ends within three days",
			periods: [][2]time.Time{{date(2024, 2, 12), date(2024, 3, 12)}},
			want:    true,
		},
		{
			name:    "only period has not started yet",
			periods: [][2]time.Time{{date(2024, 3, 20), date(2024, 4, 20)}},
			want:    true,
		},
		{
			name: "already renewed: current plus future period",
			periods: [][2]time.Time{
				{date(2024, 2, 12), date(2024, 3, 12)},
				{date(2024, 3, 13), date(2024, 4, 13)},
			},
			want: false,
		},
		{
			name:    "current period ends far in the future",
			periods: [][2]time.Time{{date(2024, 3, 1), date(2024, 4, 1)}},
			want:    false,
		},
		{
			name:    "period ended in the past",
			periods: [][2]time.Time{{date(2024, 1, 1), date(2024, 2, 1)}},
			want:    false,
		},
	}

	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	userUID := uuid.New().String()
	factory.CreateUser(t, userUID, "java@rent-all.com", "java")
	categoryID := factory.CreateCategory(t, "Dutch Films", money.Amount(400), 10)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subscriptionID := factory.CreateSubscription(t, categoryID, userUID, tt.periods[0][0])
			for _, p := range tt.periods {
				factory.CreatePeriod(t, subscriptionID, p[0], p[1], 10)
			}

			ids, err := storage.FindRenewableSubscriptionIDs(context.Background(), today, in3days)
			require.NoError(t, err)
			assert.Equal(t, tt.want, contains(ids, subscriptionID))
		})
	}
}

func contains(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func TestStorage_SaveRenewals(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	uidA := uuid.New().String()
	uidB := uuid.New().String()
	factory.CreateUser(t, uidA, "java@rent-all.com", "java")
	factory.CreateUser(t, uidB, "kotlin@rent-all.com", "kotlin")
	categoryID := factory.CreateCategory(t, "Dutch Series", money.Amount(900), 20)

	start := date(2024, 1, 15)
	subscriptionID := factory.CreateSubscription(t, categoryID, uidA, start)
	factory.CreatePeriod(t, subscriptionID, start, date(2024, 2, 15), 20)

	renewals := []models.Renewal{{
		SubscriptionID: subscriptionID,
		CategoryName:   "Dutch Series",
		Period: models.SubscriptionPeriod{
			StartDate:        date(2024, 2, 16),
			EndDate:          date(2024, 3, 16),
			RemainingContent: 20,
			Invoices: []models.SubscriptionInvoice{
				{SubscriberUID: uidA, Price: money.Amount(450), Date: start},
				{SubscriberUID: uidB, Price: money.Amount(450), Date: start},
			},
		},
	}}

	require.NoError(t, storage.SaveRenewals(context.Background(), renewals))

	var periodCount, invoiceCount int
	require.NoError(t, storage.DB.QueryRow(
		`SELECT COUNT(*) FROM subscription_periods WHERE subscription_id = $1`, subscriptionID).Scan(&periodCount))
	require.NoError(t, storage.DB.QueryRow(
		`SELECT COUNT(*) FROM subscription_invoices WHERE period_id = $1`, renewals[0].Period.ID).Scan(&invoiceCount))
	assert.Equal(t, 2, periodCount)
	assert.Equal(t, 2, invoiceCount)
}

func TestStorage_ListCategoriesExcluding(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	filmsID := factory.CreateCategory(t, "Dutch Films", money.Amount(400), 10)
	factory.CreateCategory(t, "Dutch Series", money.Amount(600), 20)
	factory.CreateCategory(t, "International Films", money.Amount(800), 40)

	all, err := storage.ListCategoriesExcluding(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	rest, err := storage.ListCategoriesExcluding(context.Background(), []int{filmsID})
	require.NoError(t, err)
	require.Len(t, rest, 2)
	for _, c := range rest {
		assert.NotEqual(t, "Dutch Films", c.Name)
	}
}

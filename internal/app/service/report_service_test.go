package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ikkim/restaurant-pos/internal/app/model"
	"github.com/ikkim/restaurant-pos/internal/app/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeUploader struct {
	key         string
	body        []byte
	contentType string
	err         error
}

func (u *fakeUploader) Upload(_ context.Context, key string, body []byte, contentType string) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	u.key, u.body, u.contentType = key, body, contentType
	return "https://cdn.example.com/" + key, nil
}

func setupReports(t *testing.T, uploader ExportUploader) (*testEnv, ReportService) {
	env := setupServices(t)
	env.createProduct(t, 10, "Pho Bo", 50000)
	env.createProduct(t, 11, "Tra Da", 5000)
	reports := NewReportService(
		repository.NewReportRepository(env.db),
		repository.NewIngredientRepository(env.db),
		uploader,
	)
	return env, reports
}

func TestReportService_SalesSummary(t *testing.T) {
	env, reports := setupReports(t, nil)
	ctx := context.Background()

	env.paidOrder(t, 7, 10, 2) // 100,000 cash
	card := env.placeOrder(t, 8, 11, 4)
	_, err := env.payments.ProcessPayment(ctx, card.ID, model.PayMethodCard, PaymentRequest{})
	require.NoError(t, err)
	env.placeOrder(t, 9, 10, 1) // unpaid
	refunded := env.paidOrder(t, 10, 10, 1)
	_, err = env.payments.Refund(ctx, refunded.ID, "wrong table")
	require.NoError(t, err)

	from, to := time.Now().Add(-time.Hour), time.Now().Add(time.Hour)
	summary, err := reports.SalesSummary(from, to)
	require.NoError(t, err)

	assert.Equal(t, int64(4), summary.Orders)
	assert.Equal(t, int64(3), summary.PaidOrders)
	assert.True(t, dec(170000).Equal(summary.Revenue), "revenue %s", summary.Revenue)
	assert.True(t, dec(50000).Equal(summary.Refunds))
	assert.Equal(t, int64(1), summary.RefundCount)
	assert.True(t, dec(120000).Equal(summary.Net), "net %s", summary.Net)
	assert.Equal(t, int64(2), summary.ByPayMethod["cash"].Orders)
	assert.True(t, dec(20000).Equal(summary.ByPayMethod["card"].Revenue))
	assert.Equal(t, int64(4), summary.ByStatus["new"])
}

func TestReportService_RangeValidation(t *testing.T) {
	_, reports := setupReports(t, nil)
	now := time.Now()

	_, err := reports.SalesSummary(now, now)
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = reports.SalesSummary(now, now.Add(-time.Hour))
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = reports.RevenueByDay(now, now.AddDate(2, 0, 0))
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = reports.TopProducts(now, now, 5)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestReportService_RevenueByDayFillsGaps(t *testing.T) {
	env, reports := setupReports(t, nil)
	env.paidOrder(t, 7, 10, 1)
	env.paidOrder(t, 8, 11, 2)

	from := StartOfDay(time.Now()).AddDate(0, 0, -2)
	to := StartOfDay(time.Now()).AddDate(0, 0, 1)
	days, err := reports.RevenueByDay(from, to)
	require.NoError(t, err)
	require.Len(t, days, 3)

	assert.Zero(t, days[0].Orders)
	assert.True(t, days[0].Revenue.IsZero())
	assert.Zero(t, days[1].Orders)
	assert.Equal(t, time.Now().Format("2006-01-02"), days[2].Date)
	assert.Equal(t, int64(2), days[2].Orders)
	assert.True(t, dec(60000).Equal(days[2].Revenue))
}

func TestReportService_TopProducts(t *testing.T) {
	env, reports := setupReports(t, nil)
	env.placeOrder(t, 7, 11, 5)
	env.placeOrder(t, 8, 10, 2)
	cancelled := env.placeOrder(t, 9, 10, 10)
	_, err := env.orders.Cancel(cancelled.ID, "")
	require.NoError(t, err)

	top, err := reports.TopProducts(time.Now().Add(-time.Hour), time.Now().Add(time.Hour), 0)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, uint(11), top[0].ProductID)
	assert.Equal(t, int64(5), top[0].Quantity)
	assert.Equal(t, int64(2), top[1].Quantity)
}

func TestReportService_ExportSales(t *testing.T) {
	env, reports := setupReports(t, nil)
	env.paidOrder(t, 7, 10, 3)

	from := StartOfDay(time.Now())
	body, err := reports.ExportSales(from, from.AddDate(0, 0, 1))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(body))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "Daily", "Top Products"}, f.GetSheetList())

	revenue, err := f.GetCellValue("Summary", "B5")
	require.NoError(t, err)
	assert.Equal(t, "150000", revenue)

	rows, err := f.GetRows("Top Products")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Pho Bo", rows[1][1])
	assert.Equal(t, "3", rows[1][2])
}

func TestReportService_PublishSalesExport(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.Local)
	to := from.AddDate(0, 1, 0)
	ctx := context.Background()

	t.Run("storage not configured", func(t *testing.T) {
		_, reports := setupReports(t, nil)
		_, err := reports.PublishSalesExport(ctx, from, to)
		assert.ErrorIs(t, err, ErrStorageDisabled)
	})

	t.Run("uploads workbook", func(t *testing.T) {
		up := &fakeUploader{}
		_, reports := setupReports(t, up)
		url, err := reports.PublishSalesExport(ctx, from, to)
		require.NoError(t, err)
		assert.Equal(t, "reports/sales_20260301_20260401.xlsx", up.key)
		assert.Equal(t, "https://cdn.example.com/reports/sales_20260301_20260401.xlsx", url)
		assert.Equal(t, xlsxContentType, up.contentType)
		assert.NotEmpty(t, up.body)
	})

	t.Run("upload failure", func(t *testing.T) {
		_, reports := setupReports(t, &fakeUploader{err: errors.New("s3 down")})
		_, err := reports.PublishSalesExport(ctx, from, to)
		assert.ErrorIs(t, err, ErrUploadFailed)
	})
}

func TestReportService_InventoryAndDashboard(t *testing.T) {
	env, reports := setupReports(t, nil)
	ingredients := NewIngredientService(repository.NewIngredientRepository(env.db), env.events, 5)
	_, err := ingredients.CreateIngredient(IngredientInput{Name: "Beef", Quantity: 20, Unit: "kg"})
	require.NoError(t, err)
	_, err = ingredients.CreateIngredient(IngredientInput{Name: "Basil", Quantity: 1, Unit: "bunch"})
	require.NoError(t, err)
	env.paidOrder(t, 7, 10, 1)

	inv, err := reports.InventorySummary()
	require.NoError(t, err)
	assert.Equal(t, int64(2), inv.Total)
	assert.Equal(t, int64(1), inv.ByStatus["low"])
	assert.Equal(t, int64(0), inv.ByStatus["expired"])
	require.Len(t, inv.LowStock, 1)
	assert.Equal(t, "Basil", inv.LowStock[0].Name)

	dash, err := reports.Dashboard(time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), dash["orders"])
	assert.Equal(t, int64(1), dash["active_orders"])
	assert.Equal(t, 1, dash["low_stock"])
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ikkim/restaurant-pos/internal/app/model"
	"github.com/ikkim/restaurant-pos/internal/app/repository"
	apperrors "github.com/ikkim/restaurant-pos/internal/errors"
	"github.com/ikkim/restaurant-pos/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// MaxReportRange caps a single report query.
const MaxReportRange = 366 * 24 * time.Hour

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportUploader stores a finished export; *storage.S3Storage satisfies it.
type ExportUploader interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

type MethodTotal struct {
	Orders  int64           `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

type SalesSummary struct {
	From          time.Time              `json:"from"`
	To            time.Time              `json:"to"`
	Orders        int64                  `json:"orders"`
	PaidOrders    int64                  `json:"paid_orders"`
	Revenue       decimal.Decimal        `json:"revenue"`
	Refunds       decimal.Decimal        `json:"refunds"`
	RefundCount   int64                  `json:"refund_count"`
	Net           decimal.Decimal        `json:"net"`
	AverageTicket decimal.Decimal        `json:"average_ticket"`
	ByStatus      map[string]int64       `json:"by_status"`
	ByPayMethod   map[string]MethodTotal `json:"by_pay_method"`
}

type DailyRevenue struct {
	Date       string          `json:"date"`
	Orders     int64           `json:"orders"`
	PaidOrders int64           `json:"paid_orders"`
	Revenue    decimal.Decimal `json:"revenue"`
	Refunds    decimal.Decimal `json:"refunds"`
	Net        decimal.Decimal `json:"net"`
}

type DayRevenue struct {
	Date    string          `json:"date"`
	Orders  int64           `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

type InventorySummary struct {
	Total    int64              `json:"total"`
	ByStatus map[string]int64   `json:"by_status"`
	LowStock []model.Ingredient `json:"low_stock"`
}

type ReportService interface {
	DailyRevenue(day time.Time) (*DailyRevenue, error)
	SalesSummary(from, to time.Time) (*SalesSummary, error)
	RevenueByDay(from, to time.Time) ([]DayRevenue, error)
	TopProducts(from, to time.Time, limit int) ([]repository.ProductSales, error)
	InventorySummary() (*InventorySummary, error)
	Dashboard(day time.Time) (map[string]interface{}, error)
	ExportSales(from, to time.Time) ([]byte, error)
	PublishSalesExport(ctx context.Context, from, to time.Time) (string, error)
}

type reportService struct {
	reportRepo     repository.ReportRepository
	ingredientRepo repository.IngredientRepository
	uploader       ExportUploader
}

// NewReportService wires reporting. uploader may be nil when S3 is not
// configured; PublishSalesExport then fails with ErrStorageDisabled.
func NewReportService(
	reportRepo repository.ReportRepository,
	ingredientRepo repository.IngredientRepository,
	uploader ExportUploader,
) ReportService {
	return &reportService{
		reportRepo:     reportRepo,
		ingredientRepo: ingredientRepo,
		uploader:       uploader,
	}
}

// StartOfDay truncates t to local midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func checkRange(op string, from, to time.Time) error {
	if !from.Before(to) {
		return ErrInvalidRange.WithOp(op).WithMessage("from must be before to")
	}
	if to.Sub(from) > MaxReportRange {
		return ErrInvalidRange.WithOp(op).WithMessage("range must not exceed 366 days")
	}
	return nil
}

func (s *reportService) SalesSummary(from, to time.Time) (*SalesSummary, error) {
	const op = "report.SalesSummary"

	if err := checkRange(op, from, to); err != nil {
		return nil, err
	}

	paid, err := s.reportRepo.PaidOrderTotal(from, to)
	if err != nil {
		return nil, apperrors.Storage(op, err)
	}
	refunds, err := s.reportRepo.RefundTotal(from, to)
	if err != nil {
		return nil, apperrors.Storage(op, err)
	}
	byStatus, err := s.reportRepo.OrdersByStatus(from, to)
	if err != nil {
		return nil, apperrors.Storage(op, err)
	}
	byMethod, err := s.reportRepo.PaidOrdersByMethod(from, to)
	if err != nil {
		return nil, apperrors.Storage(op, err)
	}

	summary := &SalesSummary{
		From:        from,
		To:          to,
		PaidOrders:  paid.Count,
		Revenue:     paid.Total,
		Refunds:     refunds.Total,
		RefundCount: refunds.Count,
		Net:         paid.Total.Sub(refunds.Total),
		ByStatus:    make(map[string]int64, len(byStatus)),
		ByPayMethod: make(map[string]MethodTotal, len(byMethod)),
	}
	for st, n := range byStatus {
		summary.Orders += n
		summary.ByStatus[st.String()] = n
	}
	for m, agg := range byMethod {
		summary.ByPayMethod[m.String()] = MethodTotal{Orders: agg.Count, Revenue: agg.Total}
	}
	if paid.Count > 0 {
		summary.AverageTicket = paid.Total.Div(decimal.NewFromInt(paid.Count)).Round(2)
	}
	return summary, nil
}

func (s *reportService) DailyRevenue(day time.Time) (*DailyRevenue, error) {
	from := StartOfDay(day)
	summary, err := s.SalesSummary(from, from.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	return &DailyRevenue{
		Date:       from.Format("2006-01-02"),
		Orders:     summary.Orders,
		PaidOrders: summary.PaidOrders,
		Revenue:    summary.Revenue,
		Refunds:    summary.Refunds,
		Net:        summary.Net,
	}, nil
}

// RevenueByDay buckets paid orders per calendar day in from's location.
// Days without sales are present with zero values.
func (s *reportService) RevenueByDay(from, to time.Time) ([]DayRevenue, error) {
	const op = "report.RevenueByDay"

	if err := checkRange(op, from, to); err != nil {
		return nil, err
	}

	orders, err := s.reportRepo.PaidOrdersBetween(from, to)
	if err != nil {
		return nil, apperrors.Storage(op, err)
	}

	loc := from.Location()
	var days []DayRevenue
	index := make(map[string]int)
	for d := StartOfDay(from); d.Before(to); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		index[key] = len(days)
		days = append(days, DayRevenue{Date: key, Revenue: decimal.Zero})
	}
	for _, o := range orders {
		key := o.CreatedAt.In(loc).Format("2006-01-02")
		i, ok := index[key]
		if !ok {
			continue
		}
		days[i].Orders++
		days[i].Revenue = days[i].Revenue.Add(o.TotalAmount)
	}
	return days, nil
}

func (s *reportService) TopProducts(from, to time.Time, limit int) ([]repository.ProductSales, error) {
	const op = "report.TopProducts"

	if err := checkRange(op, from, to); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	rows, err := s.reportRepo.TopProducts(from, to, limit)
	if err != nil {
		return nil, apperrors.Storage(op, err)
	}
	if rows == nil {
		rows = []repository.ProductSales{}
	}
	return rows, nil
}

func (s *reportService) InventorySummary() (*InventorySummary, error) {
	const op = "report.InventorySummary"

	counts, err := s.ingredientRepo.CountByStatus()
	if err != nil {
		return nil, apperrors.Storage(op, err)
	}
	low, err := s.ingredientRepo.FindByStatus(model.IngredientLow, model.IngredientOutOfStock, model.IngredientExpired)
	if err != nil {
		return nil, apperrors.Storage(op, err)
	}

	summary := &InventorySummary{
		ByStatus: map[string]int64{
			string(model.IngredientAvailable):  0,
			string(model.IngredientLow):        0,
			string(model.IngredientOutOfStock): 0,
			string(model.IngredientExpired):    0,
		},
		LowStock: low,
	}
	for st, n := range counts {
		summary.ByStatus[string(st)] = n
		summary.Total += n
	}
	if summary.LowStock == nil {
		summary.LowStock = []model.Ingredient{}
	}
	return summary, nil
}

// Dashboard is the manager panel's landing payload.
func (s *reportService) Dashboard(day time.Time) (map[string]interface{}, error) {
	from := StartOfDay(day)
	to := from.AddDate(0, 0, 1)

	summary, err := s.SalesSummary(from, to)
	if err != nil {
		return nil, err
	}
	top, err := s.TopProducts(from, to, 5)
	if err != nil {
		return nil, err
	}
	inventory, err := s.InventorySummary()
	if err != nil {
		return nil, err
	}

	active := int64(0)
	for _, st := range []model.OrderStatus{
		model.OrderStatusNew, model.OrderStatusConfirmed, model.OrderStatusPreparing,
		model.OrderStatusCooking, model.OrderStatusReady,
	} {
		active += summary.ByStatus[st.String()]
	}

	return map[string]interface{}{
		"date":           from.Format("2006-01-02"),
		"orders":         summary.Orders,
		"active_orders":  active,
		"paid_orders":    summary.PaidOrders,
		"revenue":        summary.Revenue,
		"refunds":        summary.Refunds,
		"net":            summary.Net,
		"average_ticket": summary.AverageTicket,
		"by_status":      summary.ByStatus,
		"by_pay_method":  summary.ByPayMethod,
		"top_products":   top,
		"low_stock":      len(inventory.LowStock),
	}, nil
}

// ExportSales renders the range as an XLSX workbook with Summary, Daily and
// Top Products sheets.
func (s *reportService) ExportSales(from, to time.Time) ([]byte, error) {
	const op = "report.ExportSales"

	summary, err := s.SalesSummary(from, to)
	if err != nil {
		return nil, err
	}
	days, err := s.RevenueByDay(from, to)
	if err != nil {
		return nil, err
	}
	top, err := s.TopProducts(from, to, 20)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const summarySheet, dailySheet, topSheet = "Summary", "Daily", "Top Products"
	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		return nil, apperrors.Internal(op, err)
	}
	for _, name := range []string{dailySheet, topSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, apperrors.Internal(op, err)
		}
	}

	rows := [][]interface{}{
		{"From", from.Format(time.RFC3339)},
		{"To", to.Format(time.RFC3339)},
		{"Orders", summary.Orders},
		{"Paid orders", summary.PaidOrders},
		{"Revenue", summary.Revenue.InexactFloat64()},
		{"Refunds", summary.Refunds.InexactFloat64()},
		{"Net", summary.Net.InexactFloat64()},
		{"Average ticket", summary.AverageTicket.InexactFloat64()},
	}
	if err := writeRows(f, summarySheet, rows); err != nil {
		return nil, apperrors.Internal(op, err)
	}

	rows = [][]interface{}{{"Date", "Paid orders", "Revenue"}}
	for _, d := range days {
		rows = append(rows, []interface{}{d.Date, d.Orders, d.Revenue.InexactFloat64()})
	}
	if err := writeRows(f, dailySheet, rows); err != nil {
		return nil, apperrors.Internal(op, err)
	}

	rows = [][]interface{}{{"Product ID", "Product", "Quantity", "Revenue"}}
	for _, p := range top {
		rows = append(rows, []interface{}{p.ProductID, p.ProductName, p.Quantity, p.Revenue.InexactFloat64()})
	}
	if err := writeRows(f, topSheet, rows); err != nil {
		return nil, apperrors.Internal(op, err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, apperrors.Internal(op, err)
	}

	logger.Info("Sales export generated", map[string]interface{}{
		"from":  from,
		"to":    to,
		"days":  len(days),
		"bytes": buf.Len(),
	})
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return err
		}
	}
	return nil
}

func (s *reportService) PublishSalesExport(ctx context.Context, from, to time.Time) (string, error) {
	const op = "report.PublishSalesExport"

	if s.uploader == nil {
		return "", ErrStorageDisabled.WithOp(op)
	}
	body, err := s.ExportSales(from, to)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("reports/sales_%s_%s.xlsx", from.Format("20060102"), to.Format("20060102"))
	url, err := s.uploader.Upload(ctx, key, body, xlsxContentType)
	if err != nil {
		return "", ErrUploadFailed.WithOp(op).Wrap(err)
	}
	return url, nil
}

package controller

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/restaurant-pos/internal/app/service"
	apperrors "github.com/ikkim/restaurant-pos/internal/errors"
	"github.com/ikkim/restaurant-pos/internal/middleware"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportController 매출/재고 리포트 (manager)
type ReportController struct {
	reportService service.ReportService
}

func NewReportController(reportService service.ReportService) *ReportController {
	return &ReportController{
		reportService: reportService,
	}
}

// DailyRevenue GET /api/v1/reports/daily?date=2024-05-01
func (ctrl *ReportController) DailyRevenue(c *gin.Context) {
	day, ok := parseDay(c, "date", truncateDay(time.Now()))
	if !ok {
		return
	}
	report, err := ctrl.reportService.DailyRevenue(day)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// SalesSummary GET /api/v1/reports/summary?from=&to=
func (ctrl *ReportController) SalesSummary(c *gin.Context) {
	from, to, ok := dateRange(c)
	if !ok {
		return
	}
	summary, err := ctrl.reportService.SalesSummary(from, to)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// RevenueByDay GET /api/v1/reports/revenue?from=&to=
func (ctrl *ReportController) RevenueByDay(c *gin.Context) {
	from, to, ok := dateRange(c)
	if !ok {
		return
	}
	days, err := ctrl.reportService.RevenueByDay(from, to)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"days": days,
	})
}

// TopProducts GET /api/v1/reports/top-products?from=&to=&limit=10
func (ctrl *ReportController) TopProducts(c *gin.Context) {
	from, to, ok := dateRange(c)
	if !ok {
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 || limit > 100 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "limit must be between 1 and 100")
		return
	}

	products, err := ctrl.reportService.TopProducts(from, to, limit)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"products": products,
	})
}

// InventorySummary GET /api/v1/reports/inventory
func (ctrl *ReportController) InventorySummary(c *gin.Context) {
	summary, err := ctrl.reportService.InventorySummary()
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Dashboard GET /api/v1/reports/dashboard
func (ctrl *ReportController) Dashboard(c *gin.Context) {
	data, err := ctrl.reportService.Dashboard(truncateDay(time.Now()))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

// ExportSales 매출 엑셀 다운로드
// GET /api/v1/reports/export?from=&to=
func (ctrl *ReportController) ExportSales(c *gin.Context) {
	from, to, ok := dateRange(c)
	if !ok {
		return
	}
	data, err := ctrl.reportService.ExportSales(from, to)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	filename := fmt.Sprintf("sales_%s_%s.xlsx", from.Format(dateLayout), to.AddDate(0, 0, -1).Format(dateLayout))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

// PublishSalesExport 엑셀을 S3 에 올리고 URL 반환
// POST /api/v1/reports/export?from=&to=
func (ctrl *ReportController) PublishSalesExport(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	from, to, ok := dateRange(c)
	if !ok {
		return
	}
	url, err := ctrl.reportService.PublishSalesExport(c.Request.Context(), from, to)
	if err != nil {
		log.Warn("Sales export upload failed", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.Respond(c, err)
		return
	}

	log.Info("Sales export published", map[string]interface{}{
		"url": url,
	})
	c.JSON(http.StatusCreated, gin.H{
		"url": url,
	})
}

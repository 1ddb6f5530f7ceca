package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"dcare-crm/config"
	"dcare-crm/internal/funnel"
	"dcare-crm/models"

	"github.com/gin-gonic/gin"
	"github.com/google/generative-ai-go/genai"
	"github.com/xuri/excelize/v2"
)

// MonthlyReport - месячный отчет по обращениям: воронка, выручка и
// детализация по пациентам за один календарный месяц.
type MonthlyReport struct {
	Month      string                        `json:"month"` // YYYY-MM
	Funnel     funnel.FunnelStats            `json:"funnel"`
	Revenue    funnel.RevenueAnalysis        `json:"revenue"`
	Urgent     funnel.UrgentStats            `json:"urgent"`
	Achieved   []funnel.RevenuePatientDetail `json:"achievedPatients"`
	Potential  []funnel.RevenuePatientDetail `json:"potentialPatients"`
	Lost       []funnel.RevenuePatientDetail `json:"lostPatients"`
	Commentary string                        `json:"commentary,omitempty"`
}

// monthPatients выбирает пациентов, обратившихся в заданном месяце
// (по дате входящего звонка).
func monthPatients(month string) ([]models.Patient, error) {
	var patients []models.Patient
	err := config.DB.Where("call_in_date LIKE ?", month+"-%").Find(&patients).Error
	return patients, err
}

func reportMonth(c *gin.Context) (string, bool) {
	month := c.Query("month")
	if month == "" {
		month = time.Now().Format("2006-01")
	}
	if _, err := time.Parse("2006-01", month); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Month must be in YYYY-MM format"})
		return "", false
	}
	return month, true
}

func buildMonthlyReport(month string, withCommentary bool) (*MonthlyReport, error) {
	patients, err := monthPatients(month)
	if err != nil {
		return nil, err
	}

	today := todayDate()
	report := &MonthlyReport{
		Month:     month,
		Funnel:    funnel.AggregateFunnel(patients),
		Revenue:   funnel.AggregateRevenue(patients),
		Urgent:    funnel.AggregateUrgent(patients, today),
		Achieved:  funnel.RevenuePatientDetails(funnel.FilterByBucket(patients, funnel.BucketAchieved, "")),
		Potential: funnel.RevenuePatientDetails(funnel.FilterByBucket(patients, funnel.BucketPotential, "")),
		Lost:      funnel.RevenuePatientDetails(funnel.FilterByBucket(patients, funnel.BucketLost, "")),
	}

	if withCommentary {
		report.Commentary = generateReportCommentary(report)
	}
	return report, nil
}

// GetMonthlyReportHandler возвращает месячный отчет. Параметр month в
// формате YYYY-MM, по умолчанию текущий месяц. commentary=true добавляет
// текстовый разбор от Gemini.
func GetMonthlyReportHandler(c *gin.Context) {
	month, ok := reportMonth(c)
	if !ok {
		return
	}

	report, err := buildMonthlyReport(month, c.Query("commentary") == "true")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not build report"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// generateReportCommentary просит Gemini кратко разобрать итоги месяца.
// Без клиента или при ошибке возвращает пустую строку, отчет от этого
// не страдает.
func generateReportCommentary(report *MonthlyReport) string {
	if config.GeminiClient == nil {
		return ""
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	prompt := fmt.Sprintf(
		"Ты — аналитик стоматологической клиники. Кратко (3-4 предложения, на русском) разбери итоги месяца %s: "+
			"всего обращений %d, лечение начато у %d пациентов на сумму %s, в работе %d пациентов на %s, "+
			"потеряно %d пациентов на %s. Конверсия в реализованную выручку %d%%. "+
			"Назови главный риск и одно конкретное действие для менеджера.",
		report.Month,
		report.Funnel.Total,
		report.Revenue.AchievedRevenue.Patients, funnel.FormatAmount(report.Revenue.AchievedRevenue.Amount),
		report.Revenue.PotentialRevenue.TotalPatients, funnel.FormatAmount(report.Revenue.PotentialRevenue.TotalAmount),
		report.Revenue.LostRevenue.TotalPatients, funnel.FormatAmount(report.Revenue.LostRevenue.TotalAmount),
		report.Revenue.Summary.AchievementRate,
	)

	resp, err := config.GeminiClient.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		slog.Error("Gemini report commentary error", "error", err)
		return ""
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return ""
	}
	if textPart, ok := resp.Candidates[0].Content.Parts[0].(genai.Text); ok {
		return string(textPart)
	}
	return ""
}

// ExportMonthlyReportHandler выгружает месячный отчет в Excel.
func ExportMonthlyReportHandler(c *gin.Context) {
	month, ok := reportMonth(c)
	if !ok {
		return
	}

	report, err := buildMonthlyReport(month, false)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch data for export"})
		return
	}

	f := excelize.NewFile()
	sheetName := "월간보고"
	index, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	f.SetCellValue(sheetName, "A1", fmt.Sprintf("월간 상담 보고서 %s", report.Month))
	f.SetCellValue(sheetName, "A3", "전체 문의")
	f.SetCellValue(sheetName, "B3", report.Funnel.Total)

	stageRow := 5
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", stageRow), "퍼널 단계")
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", stageRow), "환자수")
	for i, stage := range funnel.AllStages {
		row := stageRow + 1 + i
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), stage.Label())
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), report.Funnel.Count(stage))
	}

	revRow := stageRow + len(funnel.AllStages) + 2
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", revRow), "매출 구분")
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", revRow), "환자수")
	f.SetCellValue(sheetName, fmt.Sprintf("C%d", revRow), "금액")
	revRows := []struct {
		label    string
		patients int
		amount   int64
	}{
		{"실현 매출 (치료시작)", report.Revenue.AchievedRevenue.Patients, report.Revenue.AchievedRevenue.Amount},
		{"잠재 매출 (진행중)", report.Revenue.PotentialRevenue.TotalPatients, report.Revenue.PotentialRevenue.TotalAmount},
		{"손실 매출 (종결)", report.Revenue.LostRevenue.TotalPatients, report.Revenue.LostRevenue.TotalAmount},
	}
	for i, r := range revRows {
		row := revRow + 1 + i
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), r.label)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), r.patients)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), funnel.FormatAmount(r.amount))
	}

	detailRow := revRow + len(revRows) + 2
	headers := []string{"이름", "전화번호", "유입일", "구분", "예상 금액"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, detailRow)
		f.SetCellValue(sheetName, cell, header)
	}
	details := append(append(report.Achieved, report.Potential...), report.Lost...)
	for i, d := range details {
		row := detailRow + 1 + i
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), d.Name)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), d.PhoneNumber)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), d.CallInDate)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), d.Category)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), funnel.FormatAmount(d.EstimatedAmount))
	}

	fileName := fmt.Sprintf("monthly_report_%s.xlsx", report.Month)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	if err := f.Write(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write Excel file"})
	}
}

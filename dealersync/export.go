package dealersync

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/dealersync_backend/config"
	"bitbucket.org/mmdatafocus/dealersync_backend/models"
	"bitbucket.org/mmdatafocus/dealersync_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// FetchLogExportHandler streams the fetch log as an xlsx workbook, newest
// first, optionally filtered by dealer.
func FetchLogExportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		db := config.GetDB()
		if db == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database not ready"})
			return
		}

		query := db.WithContext(c.Request.Context()).Model(&models.FetchLog{})
		if dealerId := strings.TrimSpace(c.Query("dealer_id")); dealerId != "" {
			query = query.Where("dealer_id = ?", dealerId)
		}

		var logs []models.FetchLog
		if err := query.Order("id desc").Limit(5000).Find(&logs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		f := excelize.NewFile()
		sheet := "Sheet1"
		if _, err := f.NewSheet(sheet); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		// Add headers
		f.SetCellValue(sheet, "A1", "JobId")
		f.SetCellValue(sheet, "B1", "DealerId")
		f.SetCellValue(sheet, "C1", "DocumentType")
		f.SetCellValue(sheet, "D1", "Status")
		f.SetCellValue(sheet, "E1", "RecordsFetched")
		f.SetCellValue(sheet, "F1", "DurationSeconds")
		f.SetCellValue(sheet, "G1", "StartedAt")
		f.SetCellValue(sheet, "H1", "ErrorMessage")

		// Add data
		for i, entry := range logs {
			row := fmt.Sprint(i + 2)
			f.SetCellValue(sheet, "A"+row, entry.JobId)
			f.SetCellValue(sheet, "B"+row, entry.DealerId)
			f.SetCellValue(sheet, "C"+row, entry.DocumentType)
			f.SetCellValue(sheet, "D"+row, entry.Status)
			f.SetCellValue(sheet, "E"+row, entry.RecordsFetched)
			f.SetCellValue(sheet, "F"+row, entry.DurationSeconds)
			f.SetCellValue(sheet, "G"+row, entry.StartedAt.UTC().Format(time.RFC3339))
			f.SetCellValue(sheet, "H"+row, utils.DereferencePtr(entry.ErrorMessage, ""))
		}

		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", "attachment; filename=fetch-logs.xlsx")
		if err := f.Write(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to write file"})
		}
	}
}

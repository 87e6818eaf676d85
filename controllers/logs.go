package controllers

import (
	"io"

	"unitimetable/database"
	"unitimetable/models"
	"unitimetable/services"

	"github.com/gofiber/fiber/v2"
)

// LogController exposes the activity log and its S3 archives to admins.
type LogController struct {
	archive *services.LogArchiveService
}

func NewLogController(archive *services.LogArchiveService) *LogController {
	return &LogController{archive: archive}
}

// GetLogs lists recent activity logs, newest first.
func (lc *LogController) GetLogs(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)
	if limit < 1 || limit > 1000 {
		limit = 100
	}

	query := database.DB.Preload("User").Order("created_at DESC").Limit(limit)
	if userID := uint(c.QueryInt("user_id")); userID != 0 {
		query = query.Where("user_id = ?", userID)
	}
	if resource := c.Query("resource"); resource != "" {
		query = query.Where("resource = ?", resource)
	}

	var logs []models.ActivityLog
	if err := query.Find(&logs).Error; err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"logs":    logs,
	})
}

// GetArchives lists archived log files.
func (lc *LogController) GetArchives(c *fiber.Ctx) error {
	archives, err := lc.archive.ListArchives()
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"archives": archives,
	})
}

// DownloadArchive streams one archived log zip from S3.
func (lc *LogController) DownloadArchive(c *fiber.Ctx) error {
	archiveID, err := c.ParamsInt("id")
	if err != nil || archiveID < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid archive id",
		})
	}

	reader, name, err := lc.archive.DownloadArchive(uint(archiveID))
	if err != nil {
		return respondServiceError(c, err)
	}
	defer reader.Close()

	payload, err := io.ReadAll(reader)
	if err != nil {
		return respondServiceError(c, err)
	}

	c.Set("Content-Type", "application/zip")
	c.Set("Content-Disposition", `attachment; filename="`+name+`"`)
	return c.Send(payload)
}

// FlushLogs forces a flush of the Redis log queue into the database.
func (lc *LogController) FlushLogs(c *fiber.Ctx) error {
	if err := lc.archive.FlushCachedLogs(); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Cached logs flushed",
	})
}

package controllers

import (
	"unitimetable/middleware"
	"unitimetable/services"

	"github.com/gofiber/fiber/v2"
)

// ClassStatusController applies cancel/reschedule/reset actions to
// scheduled classes.
type ClassStatusController struct {
	status *services.StatusService
}

func NewClassStatusController(status *services.StatusService) *ClassStatusController {
	return &ClassStatusController{status: status}
}

// UpdateStatus applies a status action to one timetable entry. Admins can
// act on any entry; professors only on entries they teach, and only on
// their own slot of a two-professor split.
func (cc *ClassStatusController) UpdateStatus(c *fiber.Ctx) error {
	var req struct {
		ID     uint   `json:"id"`
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Missing user claims",
		})
	}

	entry, err := cc.status.ApplyStatus(req.ID, req.Status, claims.UserID, claims.Role)
	if err != nil {
		return respondServiceError(c, err)
	}

	middleware.LogActivity(c, "UPDATE", "timetable_entries", entry.ID, fiber.Map{
		"action":        req.Status,
		"is_canceled":   entry.IsCanceled,
		"is_reschedule": entry.IsReschedule,
	})

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Status updated",
		"entry":   entry,
	})
}

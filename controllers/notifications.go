package controllers

import (
	"unitimetable/services"

	"github.com/gofiber/fiber/v2"
)

// NotificationController serves the admin status-notification feed.
type NotificationController struct {
	notifications *services.NotificationService
}

func NewNotificationController(notifications *services.NotificationService) *NotificationController {
	return &NotificationController{notifications: notifications}
}

// List returns the cards matching ?filter= plus the pill counts. The
// counts always cover the full flagged set, not just the filtered view.
func (nc *NotificationController) List(c *fiber.Ctx) error {
	filter := c.Query("filter", services.FilterAll)

	cards, counts, err := nc.notifications.List(filter)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"filter":        filter,
		"notifications": cards,
		"counts":        counts,
	})
}

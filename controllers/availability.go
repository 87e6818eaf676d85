package controllers

import (
	"errors"

	"unitimetable/middleware"
	"unitimetable/services"

	"github.com/gofiber/fiber/v2"
)

// AvailabilityController exposes the pre-save conflict checks the editing
// UI runs before an admin commits a cell.
type AvailabilityController struct {
	availability *services.AvailabilityService
}

func NewAvailabilityController(availability *services.AvailabilityService) *AvailabilityController {
	return &AvailabilityController{availability: availability}
}

func availabilityMessage(result *services.AvailabilityResult, resource string) string {
	if result.Available {
		if result.SelfPaired {
			return "Available, but the same professor is assigned to both subgroups"
		}
		return "Available"
	}
	if result.SelfPaired && len(result.Conflicts) == 0 {
		return "The same professor cannot take both subgroups of this slot"
	}
	return "The " + resource + " is already booked at this time"
}

// respondCheckError keeps the check response shape on failures: a check
// that never ran reports available:false alongside the error message.
func respondCheckError(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrInvalidInput) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success":   false,
			"available": false,
			"message":   err.Error(),
		})
	}
	return respondServiceError(c, err)
}

// CheckRoom reports whether a room is free for a day/time slot, split
// configuration included.
func (ac *AvailabilityController) CheckRoom(c *fiber.Ctx) error {
	var probe services.RoomProbe
	if err := c.BodyParser(&probe); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success":   false,
			"available": false,
			"message":   "Invalid request body",
		})
	}

	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Missing user claims",
		})
	}

	result, err := ac.availability.CheckRoom(c.Context(), probe, claims.UserID)
	if err != nil {
		return respondCheckError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"available": result.Available,
		"message":   availabilityMessage(result, "room"),
		"conflicts": result.Conflicts,
	})
}

// CheckProfessor reports whether a professor (and optional second
// professor of a same_time split) is free for a day/time slot.
func (ac *AvailabilityController) CheckProfessor(c *fiber.Ctx) error {
	var probe services.ProfessorProbe
	if err := c.BodyParser(&probe); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success":   false,
			"available": false,
			"message":   "Invalid request body",
		})
	}

	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Missing user claims",
		})
	}

	result, err := ac.availability.CheckProfessor(c.Context(), probe, claims.UserID)
	if err != nil {
		return respondCheckError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"available":   result.Available,
		"message":     availabilityMessage(result, "professor"),
		"conflicts":   result.Conflicts,
		"self_paired": result.SelfPaired,
	})
}

package controllers

import (
	"fmt"

	"unitimetable/middleware"
	"unitimetable/services"

	"github.com/gofiber/fiber/v2"
)

// TimetableController serves the weekly grid and the save / publish /
// delete flows around it.
type TimetableController struct {
	publish *services.PublishService
	export  *services.ExportService
}

func NewTimetableController(publish *services.PublishService, export *services.ExportService) *TimetableController {
	return &TimetableController{publish: publish, export: export}
}

type saveRequest struct {
	Year  uint                   `json:"year"`
	Group uint                   `json:"group"`
	Data  services.TimetableData `json:"data"`
}

type cellRequest struct {
	Year     uint   `json:"year"`
	Group    uint   `json:"group"`
	Day      string `json:"day"`
	TimeSlot string `json:"time_slot"`
}

// Get returns the grid for a (year, group), or a professor's personal
// grid when professor_id is set. Draft rows are only visible to admins
// asking for them with admin=true.
func (tc *TimetableController) Get(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Missing user claims",
		})
	}

	if professorID := uint(c.QueryInt("professor_id")); professorID != 0 {
		// Professors may only read their own grid.
		if claims.Role == "professor" && claims.UserID != professorID {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"message": "Insufficient permissions",
			})
		}
		grid, err := tc.publish.GetForProfessor(professorID)
		if err != nil {
			return respondServiceError(c, err)
		}
		return c.JSON(fiber.Map{
			"success": true,
			"data":    grid,
		})
	}

	yearID := uint(c.QueryInt("year"))
	groupID := uint(c.QueryInt("group"))
	admin := c.Query("admin") == "true" && claims.Role == "admin"

	grid, state, err := tc.publish.Get(yearID, groupID, admin)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":           true,
		"data":              grid,
		"is_published":      state.IsPublished,
		"has_draft_changes": state.HasDraftChanges,
	})
}

// Save merges the submitted grid into draft rows.
func (tc *TimetableController) Save(c *fiber.Ctx) error {
	var req saveRequest
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

	state, err := tc.publish.Save(c.Context(), req.Year, req.Group, req.Data, claims.UserID)
	if err != nil {
		return respondServiceError(c, err)
	}

	middleware.LogActivity(c, "UPDATE", "timetables", req.Year, fiber.Map{
		"year_id":  req.Year,
		"group_id": req.Group,
		"action":   "save_draft",
	})

	return c.JSON(fiber.Map{
		"success":           true,
		"is_published":      state.IsPublished,
		"has_draft_changes": state.HasDraftChanges,
	})
}

// Publish saves the submitted grid and promotes the whole (year, group)
// batch to published.
func (tc *TimetableController) Publish(c *fiber.Ctx) error {
	var req saveRequest
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

	state, err := tc.publish.Publish(c.Context(), req.Year, req.Group, req.Data, claims.UserID)
	if err != nil {
		return respondServiceError(c, err)
	}

	middleware.LogActivity(c, "UPDATE", "timetables", req.Year, fiber.Map{
		"year_id":  req.Year,
		"group_id": req.Group,
		"action":   "publish",
	})

	return c.JSON(fiber.Map{
		"success":           true,
		"is_published":      state.IsPublished,
		"has_draft_changes": state.HasDraftChanges,
	})
}

// PublishAll promotes every (year, group) batch with pending rows. Each
// batch publishes independently so one failure never rolls back the rest.
func (tc *TimetableController) PublishAll(c *fiber.Ctx) error {
	published, failed, err := tc.publish.PublishAll()
	if err != nil {
		return respondServiceError(c, err)
	}

	middleware.LogActivity(c, "UPDATE", "timetables", 0, fiber.Map{
		"action":          "publish_all",
		"published_count": len(published),
		"failed_count":    len(failed),
	})

	resp := fiber.Map{
		"success":         true,
		"published_count": len(published),
		"published":       published,
	}
	if len(failed) > 0 {
		resp["failed"] = failed
		resp["message"] = fmt.Sprintf("%d timetable(s) failed to publish", len(failed))
	}
	return c.JSON(resp)
}

// Delete removes one cell's draft and published rows.
func (tc *TimetableController) Delete(c *fiber.Ctx) error {
	var req cellRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	if err := tc.publish.DeleteCell(req.Year, req.Group, req.Day, req.TimeSlot); err != nil {
		return respondServiceError(c, err)
	}

	middleware.LogActivity(c, "DELETE", "timetable_entries", req.Year, fiber.Map{
		"year_id":   req.Year,
		"group_id":  req.Group,
		"day":       req.Day,
		"time_slot": req.TimeSlot,
	})

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Cell deleted",
	})
}

// Clear truncates every timetable row.
func (tc *TimetableController) Clear(c *fiber.Ctx) error {
	if err := tc.publish.Clear(); err != nil {
		return respondServiceError(c, err)
	}

	middleware.LogActivity(c, "DELETE", "timetables", 0, fiber.Map{"action": "clear_all"})

	return c.JSON(fiber.Map{
		"success": true,
		"message": "All timetables cleared",
	})
}

// Export streams the (year, group) grid as an xlsx download.
func (tc *TimetableController) Export(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Missing user claims",
		})
	}

	yearID := uint(c.QueryInt("year"))
	groupID := uint(c.QueryInt("group"))
	admin := c.Query("admin") == "true" && claims.Role == "admin"

	payload, name, err := tc.export.Export(yearID, groupID, admin)
	if err != nil {
		return respondServiceError(c, err)
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", `attachment; filename="`+name+`"`)
	return c.Send(payload)
}

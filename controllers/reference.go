package controllers

import (
	"unitimetable/database"
	"unitimetable/middleware"
	"unitimetable/models"
	"unitimetable/utils"

	"github.com/gofiber/fiber/v2"
)

// ReferenceController serves the lookup data the timetable editor's
// pickers are built from: years, groups, subjects, rooms and professors.
type ReferenceController struct{}

// GetYears lists academic years in display order.
func (rc *ReferenceController) GetYears(c *fiber.Ctx) error {
	var years []models.Year
	if err := database.DB.Preload("Groups").Order("sort_order, name").Find(&years).Error; err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"years":   years,
	})
}

// GetGroups lists the groups of one year, or all groups without ?year=.
func (rc *ReferenceController) GetGroups(c *fiber.Ctx) error {
	query := database.DB.Preload("Year").Order("name")
	if yearID := uint(c.QueryInt("year")); yearID != 0 {
		query = query.Where("year_id = ?", yearID)
	}

	var groups []models.Group
	if err := query.Find(&groups).Error; err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"groups":  groups,
	})
}

// GetSubjects lists subjects, optionally restricted to one year.
func (rc *ReferenceController) GetSubjects(c *fiber.Ctx) error {
	query := database.DB.Order("name")
	if yearID := uint(c.QueryInt("year")); yearID != 0 {
		query = query.Where("year_id = ?", yearID)
	}

	var subjects []models.Subject
	if err := query.Find(&subjects).Error; err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"subjects": subjects,
	})
}

// GetRooms lists the active rooms backing the room picker.
func (rc *ReferenceController) GetRooms(c *fiber.Ctx) error {
	var rooms []models.Room
	if err := database.DB.Where("active = ?", true).Order("name").Find(&rooms).Error; err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"rooms":   rooms,
	})
}

// GetProfessors lists active professor accounts.
func (rc *ReferenceController) GetProfessors(c *fiber.Ctx) error {
	var professors []models.User
	err := database.DB.
		Where("role = ? AND status = ?", "professor", "active").
		Order("last_name, first_name, username").
		Find(&professors).Error
	if err != nil {
		return respondServiceError(c, err)
	}

	list := make([]fiber.Map, 0, len(professors))
	for i := range professors {
		p := &professors[i]
		list = append(list, fiber.Map{
			"id":         p.ID,
			"username":   p.Username,
			"first_name": p.FirstName,
			"last_name":  p.LastName,
			"name":       p.DisplayName(),
		})
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"professors": list,
	})
}

type roomRequest struct {
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
	Kind     string `json:"kind"`
	Active   *bool  `json:"active"`
}

// CreateRoom adds a room to the picker catalogue.
func (rc *ReferenceController) CreateRoom(c *fiber.Ctx) error {
	var req roomRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Room name is required",
		})
	}

	room := models.Room{
		Name:     utils.SanitizeString(req.Name),
		Capacity: req.Capacity,
		Kind:     req.Kind,
		Active:   true,
	}
	if room.Kind == "" {
		room.Kind = "salle"
	}
	if err := database.DB.Create(&room).Error; err != nil {
		return respondServiceError(c, err)
	}

	middleware.LogActivity(c, "CREATE", "rooms", room.ID, fiber.Map{"name": room.Name})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Room created",
		"room":    room,
	})
}

// UpdateRoom edits name, capacity, kind or the active flag. Deactivating
// a room hides it from pickers without touching existing cells.
func (rc *ReferenceController) UpdateRoom(c *fiber.Ctx) error {
	roomID, err := c.ParamsInt("id")
	if err != nil || roomID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid room id",
		})
	}

	var room models.Room
	if err := database.DB.First(&room, roomID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Room not found",
		})
	}

	var req roomRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	if req.Name != "" {
		room.Name = utils.SanitizeString(req.Name)
	}
	if req.Capacity > 0 {
		room.Capacity = req.Capacity
	}
	if req.Kind != "" {
		room.Kind = req.Kind
	}
	if req.Active != nil {
		room.Active = *req.Active
	}
	if err := database.DB.Save(&room).Error; err != nil {
		return respondServiceError(c, err)
	}

	middleware.LogActivity(c, "UPDATE", "rooms", room.ID, fiber.Map{"name": room.Name})
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Room updated",
		"room":    room,
	})
}

type subjectRequest struct {
	Name   string `json:"name"`
	Code   string `json:"code"`
	YearID uint   `json:"year_id"`
}

// CreateSubject adds a subject to a year's catalogue.
func (rc *ReferenceController) CreateSubject(c *fiber.Ctx) error {
	var req subjectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	if req.Name == "" || req.YearID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Subject name and year_id are required",
		})
	}

	var year models.Year
	if err := database.DB.First(&year, req.YearID).Error; err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Unknown year_id",
		})
	}

	subject := models.Subject{Name: utils.SanitizeString(req.Name), Code: req.Code, YearID: req.YearID}
	if err := database.DB.Create(&subject).Error; err != nil {
		return respondServiceError(c, err)
	}

	middleware.LogActivity(c, "CREATE", "subjects", subject.ID, fiber.Map{"name": subject.Name})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Subject created",
		"subject": subject,
	})
}

// UpdateSubject edits a subject's name, code or year.
func (rc *ReferenceController) UpdateSubject(c *fiber.Ctx) error {
	subjectID, err := c.ParamsInt("id")
	if err != nil || subjectID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid subject id",
		})
	}

	var subject models.Subject
	if err := database.DB.First(&subject, subjectID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Subject not found",
		})
	}

	var req subjectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	if req.Name != "" {
		subject.Name = utils.SanitizeString(req.Name)
	}
	if req.Code != "" {
		subject.Code = req.Code
	}
	if req.YearID != 0 {
		var year models.Year
		if err := database.DB.First(&year, req.YearID).Error; err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Unknown year_id",
			})
		}
		subject.YearID = req.YearID
	}
	if err := database.DB.Save(&subject).Error; err != nil {
		return respondServiceError(c, err)
	}

	middleware.LogActivity(c, "UPDATE", "subjects", subject.ID, fiber.Map{"name": subject.Name})
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Subject updated",
		"subject": subject,
	})
}

// DeleteSubject removes a subject. Timetable cells keep their stored
// subject_id; stale references render through the preload as missing.
func (rc *ReferenceController) DeleteSubject(c *fiber.Ctx) error {
	subjectID, err := c.ParamsInt("id")
	if err != nil || subjectID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid subject id",
		})
	}

	var subject models.Subject
	if err := database.DB.First(&subject, subjectID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Subject not found",
		})
	}
	if err := database.DB.Delete(&subject).Error; err != nil {
		return respondServiceError(c, err)
	}

	middleware.LogActivity(c, "DELETE", "subjects", subject.ID, fiber.Map{"name": subject.Name})
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Subject deleted",
	})
}

// GetVocabularies returns the fixed day/slot/class-type vocabularies so
// the frontend never hardcodes them.
func (rc *ReferenceController) GetVocabularies(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success":     true,
		"days":        models.Days,
		"time_slots":  models.TimeSlots,
		"class_types": models.ClassTypes,
	})
}

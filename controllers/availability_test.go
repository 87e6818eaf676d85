package controllers

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"unitimetable/middleware"
	"unitimetable/services"
)

// newCheckApp mounts the availability handlers behind a stub auth layer so
// the request-shape behavior can be exercised without a database. Invalid
// probes are rejected by validation before any query runs.
func newCheckApp() *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("claims", &middleware.Claims{UserID: 1, Username: "admin", Role: "admin"})
		return c.Next()
	})

	ac := NewAvailabilityController(services.NewAvailabilityService(services.NewReservationService()))
	app.Post("/availability/check_room", ac.CheckRoom)
	app.Post("/availability/check_professor", ac.CheckProfessor)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path, body string) (int, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading response body: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decoding response %q: %v", raw, err)
	}
	return resp.StatusCode, decoded
}

func TestAvailabilityCheckRejectionsKeepResponseShape(t *testing.T) {
	app := newCheckApp()

	tests := []struct {
		name string
		path string
		body string
	}{
		{
			name: "room check missing room",
			path: "/availability/check_room",
			body: `{"day":"monday","time_slot":"08:00-09:30"}`,
		},
		{
			name: "room check unknown day",
			path: "/availability/check_room",
			body: `{"room":"Salle 101","day":"noday","time_slot":"08:00-09:30"}`,
		},
		{
			name: "professor check missing professor",
			path: "/availability/check_professor",
			body: `{"day":"monday","time_slot":"08:00-09:30"}`,
		},
		{
			name: "professor check unknown slot",
			path: "/availability/check_professor",
			body: `{"professor_id":3,"day":"monday","time_slot":"07:00-08:00"}`,
		},
		{
			name: "malformed body",
			path: "/availability/check_room",
			body: `{"room":`,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			status, body := postJSON(t, app, tc.path, tc.body)
			if status != fiber.StatusBadRequest {
				t.Fatalf("status = %d, want %d", status, fiber.StatusBadRequest)
			}
			if success, ok := body["success"].(bool); !ok || success {
				t.Fatalf("success = %v, want false", body["success"])
			}
			available, ok := body["available"].(bool)
			if !ok {
				t.Fatalf("response %v is missing the available key", body)
			}
			if available {
				t.Fatal("available = true on a rejected check")
			}
			if msg, _ := body["message"].(string); msg == "" {
				t.Fatal("rejected check carries no message")
			}
		})
	}
}

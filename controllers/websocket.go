package controllers

import (
	"unitimetable/config"
	"unitimetable/database"
	"unitimetable/middleware"
	"unitimetable/models"
	"unitimetable/services/websocket"

	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"
)

// WebSocketController connects clients to the event hub so timetable
// publications and status changes reach open browsers live.
type WebSocketController struct {
	hub *websocket.Hub
}

func NewWebSocketController(hub *websocket.Hub) *WebSocketController {
	return &WebSocketController{hub: hub}
}

// validateToken checks the JWT passed via query parameter; browsers cannot
// set headers on a websocket upgrade.
func (wsc *WebSocketController) validateToken(tokenString string) (*models.User, error) {
	token, err := jwt.ParseWithClaims(tokenString, &middleware.Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(config.AppConfig.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*middleware.Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	var user models.User
	if err := database.DB.Where("id = ? AND status = ?", claims.UserID, "active").First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Handler returns the Fiber websocket handler for /ws?token=JWT.
func (wsc *WebSocketController) Handler() fiber.Handler {
	return fiberws.New(func(c *fiberws.Conn) {
		token := c.Query("token")
		if token == "" {
			c.WriteMessage(fiberws.CloseMessage, []byte("Missing token"))
			c.Close()
			return
		}

		user, err := wsc.validateToken(token)
		if err != nil {
			logrus.WithError(err).Debug("websocket connection rejected")
			c.WriteMessage(fiberws.CloseMessage, []byte("Invalid token"))
			c.Close()
			return
		}

		wsc.hub.ServeFiberWS(c, user.ID, user.Role)
	})
}

// Stats reports connection counts for the admin dashboard.
func (wsc *WebSocketController) Stats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success":           true,
		"connected_clients": wsc.hub.ClientCount(),
	})
}

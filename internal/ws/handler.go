package ws

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/collabnest/backend/internal/db"
	"github.com/collabnest/backend/internal/models"
	"github.com/collabnest/backend/internal/services"
)

// Upgrade rejects non-websocket requests and authenticates the socket via a
// token query parameter, since browsers cannot set headers on a websocket
// handshake. The user id lands in Locals for Handler.
func Upgrade(jwtSecret string, database *mongo.Database) fiber.Handler {
	secret := []byte(jwtSecret)
	users := database.Collection(db.ColUsers)

	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		tokenString := c.Query("token")
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing token"})
		}
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token claims"})
		}
		userHex, _ := claims["user_id"].(string)
		userID, err := primitive.ObjectIDFromHex(userHex)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token payload"})
		}

		var user models.User
		if err := users.FindOne(c.Context(), bson.M{"_id": userID}).Decode(&user); err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unknown user"})
		}
		if !user.IsActive {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "account is deactivated"})
		}

		c.Locals("ws_user_id", userID)
		return c.Next()
	}
}

// Handler runs one connection: a write pump goroutine plus the blocking read
// loop.
func Handler(hub *Hub, messages *services.MessageService) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, ok := conn.Locals("ws_user_id").(primitive.ObjectID)
		if !ok {
			conn.Close()
			return
		}
		client := newClient(hub, conn, userID, messages)
		go client.writePump()
		client.readPump()
	})
}

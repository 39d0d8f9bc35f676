package rayid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Header carries the request's RayID in and out of the service.
const Header = "X-Ray-ID"

// New creates a middleware that assigns every request a RayID. An incoming
// header value is reused so traces can span services; otherwise a fresh UUID
// is generated. The ID is stored in locals and echoed on the response.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := c.Get(Header)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Locals("ray_id", rid)
		c.Set(Header, rid)
		return c.Next()
	}
}

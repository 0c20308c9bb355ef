package rayid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// HeaderName is the response header carrying the request's ray ID.
const HeaderName = "X-Ray-ID"

// LocalsKey is the Fiber locals key the ray ID is stored under.
const LocalsKey = "ray_id"

// New creates a middleware that assigns every request a ray ID. An ID
// supplied by the client in the request header is kept so traces can
// span services.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := c.Get(HeaderName)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Locals(LocalsKey, rid)
		c.Set(HeaderName, rid)
		return c.Next()
	}
}

package server

import "github.com/gofiber/fiber/v2"

// AboutAuthor handles GET /about/author/
func (s *Server) AboutAuthor(c *fiber.Ctx) error {
	return render(c, fiber.StatusOK, "about/author", nil, fiber.Map{"page": "author"})
}

// AboutTech handles GET /about/tech/
func (s *Server) AboutTech(c *fiber.Ctx) error {
	return render(c, fiber.StatusOK, "about/tech", nil, fiber.Map{"page": "tech"})
}

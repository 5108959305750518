package handlers

import "github.com/gofiber/fiber/v2"

type languagesResponse struct {
	Languages []string `json:"languages"`
}

// Languages returns the model's supported ISO-639-3 tags, optionally
// filtered by the "q" query parameter through the fuzzy language
// catalog.
func Languages(deps *Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := c.Query("q")
		if query == "" {
			return c.JSON(languagesResponse{Languages: deps.Model.Labels()})
		}

		limit := c.QueryInt("limit", 10)
		hits, err := deps.Catalog.Search(query, limit)
		if err != nil {
			deps.Logger.WithError(err).Error("language catalog search failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "search unavailable",
			})
		}
		return c.JSON(languagesResponse{Languages: hits})
	}
}

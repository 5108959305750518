package handlers

import (
	"github.com/gofiber/fiber/v2"
)

type detectRequest struct {
	Text string `json:"text"`
}

type detectResultDTO struct {
	Label           string  `json:"label"`
	Band            string  `json:"band"`
	RawProb         float32 `json:"raw_prob"`
	ConfidenceScore float64 `json:"confidence_score"`
}

type detectResponse struct {
	Results []detectResultDTO `json:"results"`
}

// Detect runs a single-shot detection over the request body's text.
func Detect(deps *Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req detectRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}

		d, err := deps.NewDetector()
		if err != nil {
			deps.Logger.WithError(err).Error("failed to construct detector")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "detector unavailable",
			})
		}

		d.AddText(req.Text)
		results := d.DetectAll()

		dto := make([]detectResultDTO, len(results))
		for i, r := range results {
			dto[i] = detectResultDTO{
				Label:           r.Label,
				Band:            r.Band.String(),
				RawProb:         r.RawProb,
				ConfidenceScore: r.ConfidenceScore,
			}
		}
		return c.JSON(detectResponse{Results: dto})
	}
}

package handlers

import (
	"github.com/agentx/charsoup/internal/arbitration"
	"github.com/gofiber/fiber/v2"
)

type arbitrateRequest struct {
	Candidates map[string]string `json:"candidates"`
	Default    string            `json:"default"`
}

type arbitrateResponse struct {
	WinnerKey  string  `json:"winner_key,omitempty"`
	Found      bool    `json:"found"`
	Outcome    string  `json:"outcome"`
	Confidence float64 `json:"confidence"`
	DecisionID string  `json:"decision_id"`
}

// Arbitrate picks among competing candidate decodings of the same raw
// byte stream, per the request's candidate map and default key.
func Arbitrate(deps *Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req arbitrateRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}

		extractor, err := deps.Model.CreateExtractor()
		if err != nil {
			deps.Logger.WithError(err).Error("failed to construct extractor")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "arbitration unavailable",
			})
		}

		result := arbitration.Compare(deps.Model, extractor, deps.ArbitrationCfg, req.Candidates, req.Default, deps.Logger)
		return c.JSON(arbitrateResponse{
			WinnerKey:  result.WinnerKey,
			Found:      result.Found,
			Outcome:    string(result.Outcome),
			Confidence: result.Confidence,
			DecisionID: result.DecisionID,
		})
	}
}

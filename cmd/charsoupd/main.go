// Command charsoupd serves character-based language identification and
// encoding arbitration over HTTP and websocket.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/agentx/charsoup/internal/api"
	"github.com/agentx/charsoup/internal/api/handlers"
	"github.com/agentx/charsoup/internal/config"
	"github.com/agentx/charsoup/internal/langindex"
	"github.com/agentx/charsoup/internal/model"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	m, err := loadModel(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to load model")
	}
	defer m.Close()

	catalog, err := langindex.NewCatalog(m.Labels())
	if err != nil {
		log.WithError(err).Fatal("failed to build language catalog")
	}
	defer catalog.Close()

	deps := &handlers.Deps{
		Model:          m,
		Catalog:        catalog,
		DetectorConfig: cfg.Detector.ToDetectorConfig(),
		ArbitrationCfg: cfg.Arbitration.ToArbitrationConfig(),
		Logger:         log,
	}

	app := fiber.New(fiber.Config{
		AppName:      "charsoupd",
		ErrorHandler: customErrorHandler,
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: getOrigins(),
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	api.SetupRoutes(app, deps)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.WithFields(logrus.Fields{
		"addr":        addr,
		"num_classes": m.NumClasses(),
		"num_buckets": m.NumBuckets(),
	}).Info("charsoupd starting")

	if err := app.Listen(addr); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func loadModel(cfg *config.Config) (*model.Model, error) {
	opts := model.LoadOptions{IncludeTrigrams: cfg.Model.IncludeTrigrams}

	if cfg.Model.MetaPath != "" {
		return model.LoadSplit(cfg.Model.WeightsPath, cfg.Model.MetaPath, opts)
	}
	if cfg.Model.MMap {
		return model.LoadFile(cfg.Model.WeightsPath, opts)
	}

	f, err := os.Open(cfg.Model.WeightsPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return model.Load(bufio.NewReader(f), opts)
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}

func getOrigins() string {
	if origins := os.Getenv("CHARSOUP_CORS_ORIGINS"); origins != "" {
		return origins
	}
	return "*"
}

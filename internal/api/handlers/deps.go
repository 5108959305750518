// Package handlers implements charsoupd's HTTP and websocket request
// handlers: language detection, encoding arbitration, and the language
// catalog.
package handlers

import (
	"github.com/agentx/charsoup/internal/arbitration"
	"github.com/agentx/charsoup/internal/detector"
	"github.com/agentx/charsoup/internal/langindex"
	"github.com/agentx/charsoup/internal/model"
	"github.com/sirupsen/logrus"
)

// Deps bundles the shared, read-only state every handler needs. A
// single Deps value is constructed at startup and closed over by every
// route handler; nothing in it is mutated after construction, so it is
// safe to share across concurrent requests.
type Deps struct {
	Model          *model.Model
	Catalog        *langindex.Catalog
	DetectorConfig detector.Config
	ArbitrationCfg arbitration.Config
	Logger         *logrus.Logger
}

// NewDetector builds a fresh, request-scoped Detector over Deps' model.
// Detector is not safe for concurrent use, so handlers must never share
// one across requests.
func (d *Deps) NewDetector() (*detector.Detector, error) {
	return detector.New(d.Model, d.DetectorConfig, d.Logger)
}

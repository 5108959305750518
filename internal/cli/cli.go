// Package cli implements charsoup-cli's subcommands: one-shot
// detection, language catalog lookup, and model artifact inspection.
package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/agentx/charsoup/internal/arbitration"
	"github.com/agentx/charsoup/internal/confusables"
	"github.com/agentx/charsoup/internal/detector"
	"github.com/agentx/charsoup/internal/langindex"
	"github.com/agentx/charsoup/internal/model"
)

// App holds the CLI's version for banner/help output.
type App struct {
	Version string
}

func New(version string) *App {
	return &App{Version: version}
}

func openModel(path string) (*model.Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model: %w", err)
	}
	defer f.Close()
	return model.Load(bufio.NewReader(f), model.LoadOptions{})
}

func readText(textFlag string) (string, error) {
	if textFlag != "" {
		return textFlag, nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

type detectOutput struct {
	Label           string  `json:"label"`
	Band            string  `json:"band"`
	RawProb         float32 `json:"raw_prob"`
	ConfidenceScore float64 `json:"confidence_score"`
}

// RunDetect implements `charsoup-cli detect --model path [--text "..."]`.
// With no --text flag it reads the text to classify from stdin.
func (a *App) RunDetect(modelPath, text string) error {
	m, err := openModel(modelPath)
	if err != nil {
		return err
	}
	defer m.Close()

	input, err := readText(text)
	if err != nil {
		return err
	}

	d, err := detector.New(m, detector.DefaultConfig(), nil)
	if err != nil {
		return fmt.Errorf("construct detector: %w", err)
	}
	d.AddText(input)
	results := d.DetectAll()

	out := make([]detectOutput, len(results))
	for i, r := range results {
		out[i] = detectOutput{
			Label:           r.Label,
			Band:            r.Band.String(),
			RawProb:         r.RawProb,
			ConfidenceScore: r.ConfidenceScore,
		}
	}
	return json.NewEncoder(os.Stdout).Encode(out)
}

// RunLangs implements `charsoup-cli langs --model path [--query q]`.
// With no --query it lists every label the model supports.
func (a *App) RunLangs(modelPath, query string) error {
	m, err := openModel(modelPath)
	if err != nil {
		return err
	}
	defer m.Close()

	if query == "" {
		return json.NewEncoder(os.Stdout).Encode(m.Labels())
	}

	catalog, err := langindex.NewCatalog(m.Labels())
	if err != nil {
		return fmt.Errorf("build catalog: %w", err)
	}
	defer catalog.Close()

	hits, err := catalog.Search(query, 20)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	return json.NewEncoder(os.Stdout).Encode(hits)
}

type inspectOutput struct {
	NumBuckets      int32    `json:"num_buckets"`
	NumClasses      int32    `json:"num_classes"`
	Labels          []string `json:"labels"`
	IncludeTrigrams bool     `json:"include_trigrams"`
	GroupCount      int      `json:"group_count"`
}

// RunInspect implements `charsoup-cli inspect --model path`, printing
// an LDM1 artifact's shape without running any inference.
func (a *App) RunInspect(modelPath string) error {
	m, err := openModel(modelPath)
	if err != nil {
		return err
	}
	defer m.Close()

	table, err := confusables.Compile(m.Labels(), confusables.DefaultGroups)
	if err != nil {
		return fmt.Errorf("compile confusable groups: %w", err)
	}

	return json.NewEncoder(os.Stdout).Encode(inspectOutput{
		NumBuckets:      m.NumBuckets(),
		NumClasses:      m.NumClasses(),
		Labels:          m.Labels(),
		IncludeTrigrams: m.IncludeTrigrams(),
		GroupCount:      table.GroupCount(),
	})
}

type arbitrateOutput struct {
	WinnerKey  string  `json:"winner_key,omitempty"`
	Found      bool    `json:"found"`
	Outcome    string  `json:"outcome"`
	Confidence float64 `json:"confidence"`
	DecisionID string  `json:"decision_id"`
}

// RunArbitrate implements `charsoup-cli arbitrate --model path --candidates file.json --default key`.
// candidates.json holds a {"key": "decoded text", ...} object.
func (a *App) RunArbitrate(modelPath, candidatesPath, defaultKey string) error {
	m, err := openModel(modelPath)
	if err != nil {
		return err
	}
	defer m.Close()

	data, err := os.ReadFile(candidatesPath)
	if err != nil {
		return fmt.Errorf("read candidates: %w", err)
	}
	var candidates map[string]string
	if err := json.Unmarshal(data, &candidates); err != nil {
		return fmt.Errorf("parse candidates: %w", err)
	}

	extractor, err := m.CreateExtractor()
	if err != nil {
		return fmt.Errorf("construct extractor: %w", err)
	}

	result := arbitration.Compare(m, extractor, arbitration.DefaultConfig(), candidates, defaultKey, nil)
	return json.NewEncoder(os.Stdout).Encode(arbitrateOutput{
		WinnerKey:  result.WinnerKey,
		Found:      result.Found,
		Outcome:    string(result.Outcome),
		Confidence: result.Confidence,
		DecisionID: result.DecisionID,
	})
}

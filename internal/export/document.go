package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"foodlog-go/internal/foodlog"
)

type document struct {
	ExportedAt string               `json:"exported_at" yaml:"exported_at"`
	From       string               `json:"from" yaml:"from"`
	To         string               `json:"to" yaml:"to"`
	Count      int                  `json:"count" yaml:"count"`
	Days       []foodlog.DaySummary `json:"days" yaml:"days"`
	Entries    []entryRecord        `json:"entries" yaml:"entries"`
}

type entryRecord struct {
	ID         string   `json:"id" yaml:"id"`
	Date       string   `json:"date" yaml:"date"`
	Timestamp  string   `json:"timestamp" yaml:"timestamp"`
	Food       string   `json:"food" yaml:"food"`
	Quantity   float64  `json:"quantity" yaml:"quantity"`
	Unit       string   `json:"unit" yaml:"unit"`
	Kcal       float64  `json:"kcal" yaml:"kcal"`
	Fat        float64  `json:"fat" yaml:"fat"`
	Carbs      float64  `json:"carbs" yaml:"carbs"`
	Protein    float64  `json:"protein" yaml:"protein"`
	Method     string   `json:"method" yaml:"method"`
	Confidence *float64 `json:"confidence,omitempty" yaml:"confidence,omitempty"`
}

func newDocument(r *Report) document {
	doc := document{
		ExportedAt: r.ExportedAt.UTC().Format(time.RFC3339),
		From:       r.From,
		To:         r.To,
		Count:      len(r.Entries),
		Days:       r.Days,
		Entries:    make([]entryRecord, 0, len(r.Entries)),
	}
	if doc.Days == nil {
		doc.Days = []foodlog.DaySummary{}
	}
	for _, e := range r.Entries {
		doc.Entries = append(doc.Entries, entryRecord{
			ID:         e.ID,
			Date:       e.Date,
			Timestamp:  e.Timestamp.UTC().Format(time.RFC3339Nano),
			Food:       e.Food,
			Quantity:   e.Quantity,
			Unit:       string(e.Unit),
			Kcal:       e.Kcal,
			Fat:        e.Fat,
			Carbs:      e.Carbs,
			Protein:    e.Protein,
			Method:     string(e.Method),
			Confidence: e.Confidence,
		})
	}
	return doc
}

// WriteJSON writes r as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(newDocument(r)); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}

// WriteYAML writes r as a YAML document.
func WriteYAML(w io.Writer, r *Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(newDocument(r)); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return nil
}

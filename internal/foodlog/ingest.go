package foodlog

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// ParsedFoodResponse is the envelope returned by the food-parsing API.
type ParsedFoodResponse struct {
	Success bool        `json:"success"`
	Data    *ParsedFood `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ParsedFood is a single food item recognised by the parsing API. Nutrient
// fields may be absent.
type ParsedFood struct {
	Food     string   `json:"food"`
	Quantity float64  `json:"quantity"`
	Unit     string   `json:"unit"`
	Kcal     *float64 `json:"kcal,omitempty"`
	Fat      *float64 `json:"fat,omitempty"`
	Carbs    *float64 `json:"carbs,omitempty"`
	Protein  *float64 `json:"protein,omitempty"`
}

// DecodeParsedFood reads a ParsedFoodResponse as JSON.
func DecodeParsedFood(r io.Reader) (ParsedFoodResponse, error) {
	var resp ParsedFoodResponse
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return ParsedFoodResponse{}, fmt.Errorf("decoding parsed food: %w", &ValidationError{Field: "response", Reason: err.Error()})
	}
	return resp, nil
}

// RawEntry converts a successful response into codec input. method is the
// capture method the caller used (voice or text, typically).
func (r ParsedFoodResponse) RawEntry(method string) (RawEntry, error) {
	if !r.Success {
		reason := strings.TrimSpace(r.Error)
		if reason == "" {
			reason = "parser reported failure"
		}
		return RawEntry{}, invalid("response", "%s", reason)
	}
	if r.Data == nil {
		return RawEntry{}, invalid("response", "missing data")
	}
	return RawEntry{
		Food:     r.Data.Food,
		Quantity: r.Data.Quantity,
		Unit:     r.Data.Unit,
		Kcal:     r.Data.Kcal,
		Fat:      r.Data.Fat,
		Carbs:    r.Data.Carbs,
		Protein:  r.Data.Protein,
		Method:   method,
	}, nil
}

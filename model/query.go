package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// RecommendationRequest is the body of POST /recommendation/.
type RecommendationRequest struct {
	Message string `json:"message" binding:"required"`
}

// RecommendationResponse wraps a successful envelope.
type RecommendationResponse struct {
	Response ResponseEnvelope `json:"response"`
}

// ErrorResponse is the uniform error body across every endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Medicine is a single product suggestion grounded in the catalog.
type Medicine struct {
	Name       string `json:"name"`
	Price      Price  `json:"price"`
	Image      string `json:"image"`
	Department string `json:"department,omitempty"`
}

// Price accepts either a JSON string ("$4.99") or a JSON number (4.99).
// Models are inconsistent about which one they emit.
type Price string

func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = Price(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("price must be a string or number: %w", err)
	}
	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("price: %w", err)
	}
	*p = Price(strconv.FormatFloat(f, 'f', 2, 64))
	return nil
}

// StructuredReply is the contract of every successful medical-path response.
// Medicines is always serialized, even when empty.
type StructuredReply struct {
	Message    string     `json:"message"`
	Medicines  []Medicine `json:"medicines"`
	Disclaimer string     `json:"disclaimer"`
}

package tool

import (
	"encoding/json"
	"fmt"
)

type ParamSchema struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Minimum     *int     `json:"minimum,omitempty"`
	Maximum     *int     `json:"maximum,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

type webSearchParameterSchema struct {
	Type       string               `json:"type"`
	Properties webSearchSchemaProps `json:"properties"`
	Required   []string             `json:"required,omitempty"`
}

type webSearchSchemaProps struct {
	Query    ParamSchema `json:"query"`
	Count    ParamSchema `json:"count"`
	Provider ParamSchema `json:"provider"`
}

func intPtr(v int) *int { return &v }

// MustSchemaMap переводит типизированную схему в map, как её ждут хосты тулов.
func MustSchemaMap[T any](schema T) map[string]interface{} {
	raw, err := json.Marshal(schema)
	if err != nil {
		panic(fmt.Sprintf("marshal schema: %v", err))
	}

	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(fmt.Sprintf("unmarshal schema: %v", err))
	}
	return out
}

// Definition - то, что отдаём при листинге тулов.
type Definition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

package restaurants

import (
	"bytes"
	"encoding/json"
	"fmt"

	"bibhub/internal/query"
)

// choice is a select value sent either as a plain string or as the
// {"value": "...", "label": "..."} object of the UI dropdowns.
type choice string

func (c *choice) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*c = ""
		return nil
	}
	if len(b) > 0 && b[0] == '{' {
		var obj struct {
			Value string `json:"value"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		*c = choice(obj.Value)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("expected a string or an object with a value: %w", err)
	}
	*c = choice(s)
	return nil
}

// searchBody is the POST /restaurants payload.
type searchBody struct {
	Distinction  choice         `json:"distinction"`
	Cooking      choice         `json:"cooking"`
	Sorting      choice         `json:"sorting"`
	Query        string         `json:"query"`
	UserLocation *query.LatLong `json:"userLocation"`
}

func (b searchBody) request() query.Request {
	return query.Request{
		Distinction:  string(b.Distinction),
		CookingType:  string(b.Cooking),
		Query:        b.Query,
		Sort:         string(b.Sorting),
		UserLocation: b.UserLocation,
	}
}

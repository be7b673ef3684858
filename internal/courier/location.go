package courier

import (
	"encoding/json"
	"strings"
)

// location accepts either a plain string or one of the object shapes
// couriers use, and flattens it to a display string.
type location string

func (l *location) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*l = location(strings.TrimSpace(s))
		return nil
	}
	var obj struct {
		Name        string `json:"name"`
		DisplayName string `json:"displayName"`
		City        string `json:"city"`
		PostalCode  string `json:"postalCode"`
		CountryCode string `json:"countryCode"`
		Address     struct {
			AddressLocality string `json:"addressLocality"`
			CountryCode     string `json:"countryCode"`
		} `json:"address"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		// Location is informational; an odd shape never rejects a payload.
		*l = ""
		return nil
	}
	var parts []string
	switch {
	case obj.DisplayName != "":
		parts = append(parts, obj.DisplayName)
	case obj.Name != "":
		parts = append(parts, obj.Name)
	}
	if obj.City != "" {
		parts = append(parts, obj.City)
	}
	if obj.Address.AddressLocality != "" {
		parts = append(parts, obj.Address.AddressLocality)
	}
	country := obj.CountryCode
	if country == "" {
		country = obj.Address.CountryCode
	}
	if country != "" {
		parts = append(parts, country)
	}
	*l = location(strings.Join(parts, ", "))
	return nil
}

func decodeDocument(body []byte) (map[string]json.RawMessage, bool) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, false
	}
	return doc, true
}

func nonEmptyString(raw json.RawMessage) bool {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s) != ""
	}
	var n json.Number
	return json.Unmarshal(raw, &n) == nil
}

func nonEmptyArray(raw json.RawMessage) ([]json.RawMessage, bool) {
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err != nil || len(arr) == 0 {
		return nil, false
	}
	return arr, true
}

func isObject(raw json.RawMessage) bool {
	var obj map[string]json.RawMessage
	return json.Unmarshal(raw, &obj) == nil && obj != nil
}

// flexString decodes a JSON string or number as a string.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

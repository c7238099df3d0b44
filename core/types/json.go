package types

import "encoding/json"

func marshalEntries(entries []CompositionEntry) ([]byte, error) {
	if entries == nil {
		entries = []CompositionEntry{}
	}
	return json.Marshal(entries)
}

func unmarshalEntries(data []byte) ([]CompositionEntry, error) {
	var entries []CompositionEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// MarshalJSON encodes the catalog as its category list in declaration order
func (c *Catalog) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Categories())
}

// UnmarshalJSON decodes a category list
func (c *Catalog) UnmarshalJSON(data []byte) error {
	var cats []PassengerCategory
	if err := json.Unmarshal(data, &cats); err != nil {
		return err
	}
	parsed, err := NewCatalog(cats...)
	if err != nil {
		return err
	}
	*c = *parsed
	return nil
}

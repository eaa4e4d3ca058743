package schema

import (
	"encoding/json"
	"fmt"
	"os"
)

// document is the on-disk JSON shape Load reads. It mirrors Schema/Model/
// Column/Relation field-for-field so the decoder needs no custom
// UnmarshalJSON, but keeps the wire format decoupled from the in-memory
// types in types.go.
type document struct {
	Models map[string]struct {
		Columns []struct {
			Name string `json:"name"`
			Type struct {
				Name         string `json:"name"`
				IsCollection bool   `json:"isCollection"`
				IsNullable   bool   `json:"isNullable"`
			} `json:"type"`
			Relation *struct {
				LocalFields      []string `json:"localFields"`
				ReferencedFields []string `json:"referencedFields"`
			} `json:"relation"`
			IsUnique     bool `json:"isUnique"`
			IsPrimaryKey bool `json:"isPrimaryKey"`
		} `json:"columns"`
		UniqueFields []string `json:"uniqueFields"`
	} `json:"models"`
}

// Load reads a pre-parsed schema document from path and validates it. The
// document format is the JSON object a .prisma-file compiler would emit as
// its final artifact; prismerge itself never parses Prisma's schema
// grammar (spec non-goal).
func Load(path string) (Schema, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is an operator-supplied CLI flag
	if err != nil {
		return nil, fmt.Errorf("read schema file %s: %w", path, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse schema file %s: %w", path, err)
	}

	s := make(Schema, len(doc.Models))
	for name, dm := range doc.Models {
		m := &Model{
			Name:         name,
			UniqueFields: dm.UniqueFields,
		}
		for _, dc := range dm.Columns {
			c := Column{
				Name: dc.Name,
				Type: ColumnType{
					Name:         dc.Type.Name,
					IsCollection: dc.Type.IsCollection,
					IsNullable:   dc.Type.IsNullable,
				},
				IsUnique:     dc.IsUnique,
				IsPrimaryKey: dc.IsPrimaryKey,
			}
			if dc.Relation != nil {
				c.Relation = &Relation{
					LocalFields:      dc.Relation.LocalFields,
					ReferencedFields: dc.Relation.ReferencedFields,
				}
			}
			m.Columns = append(m.Columns, c)
		}
		s[name] = m
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return s, nil
}

package store

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ConstraintSource looks up the referential-integrity record for an entity
// type. A nil record means no constraints are declared for the prefix.
// Constraint records are seeded and maintained by the schema registry;
// the access layer only reads them.
type ConstraintSource interface {
	GetConstraint(ctx context.Context, prefix string) (*Constraint, error)
}

// StaticConstraints is a read-only, file-seeded constraint registry.
type StaticConstraints struct {
	byName map[string]Constraint
}

// LoadConstraints reads constraint records from YAML.
func LoadConstraints(r io.Reader) (*StaticConstraints, error) {
	var records []Constraint
	if err := yaml.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode constraints: %w", err)
	}

	s := &StaticConstraints{byName: make(map[string]Constraint, len(records))}
	for _, c := range records {
		s.byName[c.Name] = c
	}
	return s, nil
}

// LoadConstraintsFile reads constraint records from a YAML file.
func LoadConstraintsFile(path string) (*StaticConstraints, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadConstraints(f)
}

// GetConstraint implements ConstraintSource.
func (s *StaticConstraints) GetConstraint(_ context.Context, prefix string) (*Constraint, error) {
	c, ok := s.byName[prefix]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator"
	"github.com/invopop/jsonschema"
)

// ValidationError reports a batch file that does not match the expected
// graph-file shape. The offending file is skipped; it never aborts a
// directory import.
type ValidationError struct {
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid graph batch file %s: %s", e.Path, e.Reason)
}

var validate = validator.New()

// batchFile mirrors Batch with pointer collections so that a missing nodes
// or edges key is distinguishable from an empty one.
type batchFile struct {
	Name  string  `json:"name"`
	Nodes *[]Node `json:"nodes"`
	Edges *[]Edge `json:"edges"`
}

// LoadBatchFile reads and validates one graph batch file. Shape violations
// are returned as *ValidationError so callers can skip the file and
// continue.
func LoadBatchFile(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file %s: %w", path, err)
	}

	var file batchFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, &ValidationError{Path: path, Reason: fmt.Sprintf("not valid JSON: %v", err)}
	}
	if file.Nodes == nil {
		return nil, &ValidationError{Path: path, Reason: "missing node collection"}
	}
	if file.Edges == nil {
		return nil, &ValidationError{Path: path, Reason: "missing edge collection"}
	}

	batch := &Batch{
		Name:  file.Name,
		Nodes: *file.Nodes,
		Edges: *file.Edges,
	}
	if batch.Name == "" {
		batch.Name = path
	}

	if err := ValidateBatch(batch); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			verr.Path = path
			return nil, verr
		}
		return nil, err
	}

	return batch, nil
}

// ValidateBatch checks every node and edge against the minimal graph-file
// shape: node ids and labels, edge endpoints and types.
func ValidateBatch(batch *Batch) error {
	for i := range batch.Nodes {
		if err := validate.Struct(&batch.Nodes[i]); err != nil {
			return &ValidationError{Reason: fmt.Sprintf("node %d: %v", i, err)}
		}
	}
	for i := range batch.Edges {
		if err := validate.Struct(&batch.Edges[i]); err != nil {
			return &ValidationError{Reason: fmt.Sprintf("edge %d: %v", i, err)}
		}
	}
	return nil
}

// WriteBatchFile serializes a batch for later import.
func WriteBatchFile(batch *Batch, path string) error {
	data, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode batch %s: %w", batch.Name, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write batch file %s: %w", path, err)
	}
	return nil
}

// BatchSchema returns the JSON schema of the batch file format, published
// so external producers can validate files before handing them off.
func BatchSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{ExpandedStruct: true}
	return reflector.Reflect(&Batch{})
}

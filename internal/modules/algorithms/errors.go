package algorithms

import "fmt"

// MissingDataError reports that a scoring algorithm could not compute a score
// because a required snapshot field was absent for a symbol. Callers decide
// whether to skip the symbol or abort the category.
type MissingDataError struct {
	Symbol string
	Field  string
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("missing data for %s: field %q", e.Symbol, e.Field)
}

// UnknownAlgorithmError reports a registry lookup miss. This indicates a
// configuration error and is fatal to the pipeline run requesting it.
type UnknownAlgorithmError struct {
	ID      string
	Version string
}

func (e *UnknownAlgorithmError) Error() string {
	return fmt.Sprintf("unknown algorithm %s@%s", e.ID, e.Version)
}

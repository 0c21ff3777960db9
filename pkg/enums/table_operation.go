package enums

import "fmt"

// TableOperationType distinguishes a merge (combine parties) from a transfer
// (move a party to another table). Both reassign open orders the same way.
type TableOperationType string

const (
	TableOperationMerge    TableOperationType = "merge"
	TableOperationTransfer TableOperationType = "transfer"
)

var validTableOperationTypes = []TableOperationType{
	TableOperationMerge,
	TableOperationTransfer,
}

// String implements fmt.Stringer.
func (t TableOperationType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TableOperationType.
func (t TableOperationType) IsValid() bool {
	for _, candidate := range validTableOperationTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTableOperationType converts raw input into a TableOperationType.
func ParseTableOperationType(value string) (TableOperationType, error) {
	for _, candidate := range validTableOperationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid table operation type %q", value)
}

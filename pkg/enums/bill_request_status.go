package enums

import "fmt"

// BillRequestStatus tracks a settlement request from the waiter's signal to
// the cashier's resolution.
type BillRequestStatus string

const (
	BillRequestStatusPending    BillRequestStatus = "pending"
	BillRequestStatusInProgress BillRequestStatus = "in_progress"
	BillRequestStatusCompleted  BillRequestStatus = "completed"
	BillRequestStatusCancelled  BillRequestStatus = "cancelled"
)

var validBillRequestStatuses = []BillRequestStatus{
	BillRequestStatusPending,
	BillRequestStatusInProgress,
	BillRequestStatusCompleted,
	BillRequestStatusCancelled,
}

// String implements fmt.Stringer.
func (s BillRequestStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known BillRequestStatus.
func (s BillRequestStatus) IsValid() bool {
	for _, candidate := range validBillRequestStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the request is resolved.
func (s BillRequestStatus) IsTerminal() bool {
	return s == BillRequestStatusCompleted || s == BillRequestStatusCancelled
}

// ParseBillRequestStatus converts raw input into a BillRequestStatus.
func ParseBillRequestStatus(value string) (BillRequestStatus, error) {
	for _, candidate := range validBillRequestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid bill request status %q", value)
}

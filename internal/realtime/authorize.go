package realtime

import (
	"github.com/google/uuid"

	"github.com/comandapos/comanda-backend/pkg/enums"
	"github.com/comandapos/comanda-backend/pkg/outbox"
)

// Principal is the authenticated identity behind a realtime connection.
type Principal struct {
	UserID uuid.UUID
	Role   enums.StaffRole
}

// CanReceive decides whether a principal may see an event, from the event's
// targets alone. Admins also receive cashier-room traffic.
func CanReceive(envelope *outbox.PayloadEnvelope, principal Principal) bool {
	if envelope == nil {
		return false
	}
	for _, target := range envelope.Targets {
		if targetMatches(target, principal) {
			return true
		}
	}
	return false
}

func targetMatches(target string, principal Principal) bool {
	switch target {
	case outbox.RoomBroadcast:
		return true
	case outbox.RoomKitchen:
		return principal.Role == enums.StaffRoleKitchen
	case outbox.RoomCashier:
		return principal.Role == enums.StaffRoleCashier || principal.Role == enums.StaffRoleAdmin
	case outbox.RoomAdmin:
		return principal.Role == enums.StaffRoleAdmin
	}
	if rawID, ok := outbox.IsUserRoom(target); ok {
		return rawID == principal.UserID.String()
	}
	return false
}

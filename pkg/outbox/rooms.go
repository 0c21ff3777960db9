package outbox

import "github.com/google/uuid"

// Delivery rooms recognised by the realtime gateway.
const (
	RoomKitchen   = "kitchen"
	RoomCashier   = "cashier"
	RoomAdmin     = "admin"
	RoomBroadcast = "*"

	userRoomPrefix = "user:"
)

// UserRoom returns the private room for one staff member.
func UserRoom(userID uuid.UUID) string {
	return userRoomPrefix + userID.String()
}

// IsUserRoom reports whether target names a private user room and, if so,
// returns the raw user id segment.
func IsUserRoom(target string) (string, bool) {
	if len(target) <= len(userRoomPrefix) || target[:len(userRoomPrefix)] != userRoomPrefix {
		return "", false
	}
	return target[len(userRoomPrefix):], true
}

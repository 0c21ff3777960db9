package realtime

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/comandapos/comanda-backend/pkg/enums"
	"github.com/comandapos/comanda-backend/pkg/outbox"
)

func envelopeFor(targets ...string) *outbox.PayloadEnvelope {
	return &outbox.PayloadEnvelope{
		Version:   1,
		EventID:   uuid.NewString(),
		EventType: "order:new",
		Targets:   targets,
	}
}

func TestCanReceiveBroadcastReachesEveryone(t *testing.T) {
	envelope := envelopeFor(outbox.RoomBroadcast)
	for _, role := range []enums.StaffRole{
		enums.StaffRoleWaiter,
		enums.StaffRoleKitchen,
		enums.StaffRoleCashier,
		enums.StaffRoleAdmin,
	} {
		assert.True(t, CanReceive(envelope, Principal{UserID: uuid.New(), Role: role}), "role %s", role)
	}
}

func TestCanReceiveRoleRooms(t *testing.T) {
	waiter := Principal{UserID: uuid.New(), Role: enums.StaffRoleWaiter}
	kitchen := Principal{UserID: uuid.New(), Role: enums.StaffRoleKitchen}
	cashier := Principal{UserID: uuid.New(), Role: enums.StaffRoleCashier}
	admin := Principal{UserID: uuid.New(), Role: enums.StaffRoleAdmin}

	kitchenEvent := envelopeFor(outbox.RoomKitchen)
	assert.True(t, CanReceive(kitchenEvent, kitchen))
	assert.False(t, CanReceive(kitchenEvent, waiter))
	assert.False(t, CanReceive(kitchenEvent, cashier))

	cashierEvent := envelopeFor(outbox.RoomCashier)
	assert.True(t, CanReceive(cashierEvent, cashier))
	// Admins see the cashier room too.
	assert.True(t, CanReceive(cashierEvent, admin))
	assert.False(t, CanReceive(cashierEvent, waiter))

	adminEvent := envelopeFor(outbox.RoomAdmin)
	assert.True(t, CanReceive(adminEvent, admin))
	assert.False(t, CanReceive(adminEvent, cashier))
}

func TestCanReceiveUserRoom(t *testing.T) {
	userID := uuid.New()
	envelope := envelopeFor(outbox.UserRoom(userID))

	assert.True(t, CanReceive(envelope, Principal{UserID: userID, Role: enums.StaffRoleWaiter}))
	assert.False(t, CanReceive(envelope, Principal{UserID: uuid.New(), Role: enums.StaffRoleWaiter}))
	assert.False(t, CanReceive(envelope, Principal{UserID: uuid.New(), Role: enums.StaffRoleAdmin}))
}

func TestCanReceiveMultipleTargets(t *testing.T) {
	waiterID := uuid.New()
	envelope := envelopeFor(outbox.RoomKitchen, outbox.UserRoom(waiterID))

	assert.True(t, CanReceive(envelope, Principal{UserID: waiterID, Role: enums.StaffRoleWaiter}))
	assert.True(t, CanReceive(envelope, Principal{UserID: uuid.New(), Role: enums.StaffRoleKitchen}))
	assert.False(t, CanReceive(envelope, Principal{UserID: uuid.New(), Role: enums.StaffRoleCashier}))
}

func TestCanReceiveNilEnvelope(t *testing.T) {
	assert.False(t, CanReceive(nil, Principal{UserID: uuid.New(), Role: enums.StaffRoleAdmin}))
}

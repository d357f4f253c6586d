package broker

import (
	"context"

	"harbor-chat/internal/domain/call"
)

// RoomBroker is the contract consumed from the external call service.
// Only provisioning and teardown of media rooms are this subsystem's
// concern; signaling and media transport live with the provider.
type RoomBroker interface {
	// ProvisionRoom creates a media room for the call and returns its id.
	ProvisionRoom(ctx context.Context, c call.Call) (string, error)
	// TeardownRoom releases the room. A missing room reports
	// ErrRoomGone; callers treat that as success.
	TeardownRoom(ctx context.Context, roomID string) error
}

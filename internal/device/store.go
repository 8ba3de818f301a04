package device

import "context"

type Store interface {
	Save(ctx context.Context, device Device) error
	Find(ctx context.Context, userID, deviceID string) (Device, error)
	ListByUser(ctx context.Context, userID string) ([]Device, error)
	Delete(ctx context.Context, userID, deviceID string) error
}

package integration

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ItemKind distinguishes product and variation updates
type ItemKind string

const (
	ItemKindProduct   ItemKind = "product"
	ItemKindVariation ItemKind = "variation"
)

// DefaultCooldownWindow suppresses repeat updates to the same remote item
const DefaultCooldownWindow = 5 * time.Minute

// CooldownKey identifies a remote item for echo suppression
type CooldownKey struct {
	StoreID  uuid.UUID
	Kind     ItemKind
	RemoteID int64
}

// String renders the key used by cooldown stores
func (k CooldownKey) String() string {
	return fmt.Sprintf("%s:%s:%d", k.StoreID, k.Kind, k.RemoteID)
}

// CooldownStore remembers when an item was last applied. Implementations
// expire entries after the given TTL.
type CooldownStore interface {
	// LastApplied returns the last recorded time for the key
	LastApplied(ctx context.Context, key string) (time.Time, bool, error)

	// RecordApplied stores the time for the key with a TTL
	RecordApplied(ctx context.Context, key string, at time.Time, ttl time.Duration) error

	// Close releases resources
	Close() error
}

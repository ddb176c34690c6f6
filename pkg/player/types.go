package player

import (
	"context"
	"fmt"
	"strings"
)

const maxHandleLength = 50

// Handle identifies an account by its unique login handle.
type Handle struct {
	value string
}

// NewHandle validates and normalizes a handle.
func NewHandle(raw string) (Handle, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Handle{}, fmt.Errorf("%w: empty value", ErrInvalidHandle)
	}
	if len(trimmed) > maxHandleLength {
		return Handle{}, fmt.Errorf("%w: longer than %d characters", ErrInvalidHandle, maxHandleLength)
	}
	return Handle{value: trimmed}, nil
}

// String returns the normalized handle.
func (handle Handle) String() string {
	return handle.value
}

// ItemID identifies a catalog entry (weapon name or game item id).
type ItemID struct {
	value string
}

// NewItemID validates and normalizes a catalog entry id.
func NewItemID(raw string) (ItemID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ItemID{}, fmt.Errorf("%w: empty value", ErrInvalidItemID)
	}
	return ItemID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id ItemID) String() string {
	return id.value
}

// Category partitions the catalog.
type Category string

const (
	CategoryWeapons   Category = "weapons"
	CategoryTurrets   Category = "turrets"
	CategoryDrones    Category = "drones"
	CategoryOrbs      Category = "orbs"
	CategorySkills    Category = "skills"
	CategoryUltimates Category = "ultimates"
)

// String returns the category name.
func (category Category) String() string {
	return string(category)
}

// ParseCategory normalizes and validates a category name (case-insensitive).
func ParseCategory(raw string) (Category, error) {
	normalized := Category(strings.ToLower(strings.TrimSpace(raw)))
	switch normalized {
	case CategoryWeapons, CategoryTurrets, CategoryDrones, CategoryOrbs, CategorySkills, CategoryUltimates:
		return normalized, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, raw)
	}
}

// Stats holds the persistent progress counters of one account.
type Stats struct {
	Currency  int64
	Level     float64
	Kills     int64
	BestScore int64
}

// NewStats validates progress counters; all must be non-negative.
func NewStats(currency int64, level float64, kills int64, bestScore int64) (Stats, error) {
	if currency < 0 {
		return Stats{}, fmt.Errorf("%w: negative currency", ErrInvalidStats)
	}
	if level < 0 {
		return Stats{}, fmt.Errorf("%w: negative level", ErrInvalidStats)
	}
	if kills < 0 {
		return Stats{}, fmt.Errorf("%w: negative kills", ErrInvalidStats)
	}
	if bestScore < 0 {
		return Stats{}, fmt.Errorf("%w: negative best score", ErrInvalidStats)
	}
	return Stats{Currency: currency, Level: level, Kills: kills, BestScore: bestScore}, nil
}

// StatsUpdate carries a client-reported progress overwrite. BestScore is
// applied only when present; EquippedWeapon and ActiveSkillIDs are applied
// only when present and backed by ownership, and dropped otherwise.
type StatsUpdate struct {
	Currency       int64
	Level          float64
	Kills          int64
	BestScore      *int64
	EquippedWeapon *string
	ActiveSkillIDs []string
}

// Validate checks the unconditional fields of the update.
func (update StatsUpdate) Validate() error {
	if update.Currency < 0 {
		return fmt.Errorf("%w: negative currency", ErrInvalidStats)
	}
	if update.Level < 0 {
		return fmt.Errorf("%w: negative level", ErrInvalidStats)
	}
	if update.Kills < 0 {
		return fmt.Errorf("%w: negative kills", ErrInvalidStats)
	}
	if update.BestScore != nil && *update.BestScore < 0 {
		return fmt.Errorf("%w: negative best score", ErrInvalidStats)
	}
	return nil
}

// AccountRecord is the stored identity row of one account.
type AccountRecord struct {
	AccountID    string
	Handle       string
	PasswordHash string
}

// StatsRecord is the stored progress row of one account.
type StatsRecord struct {
	AccountID         string
	Stats             Stats
	CurrentWeaponName string
	ActiveSkillIDs    []string
}

// OwnedItem is one row of the item ownership relation.
type OwnedItem struct {
	ItemID   string
	Category Category
}

// AccountView is the full snapshot of an account's economy state.
type AccountView struct {
	Currency             int64               `json:"currency"`
	Level                float64             `json:"level"`
	Kills                int64               `json:"kills"`
	BestScore            int64               `json:"highestScore"`
	CurrentWeaponName    string              `json:"currentWeaponName"`
	OwnedWeaponNames     []string            `json:"ownedWeaponNames"`
	OwnedItemsByCategory map[string][]string `json:"ownedItemsByCategory"`
	ActiveSkillIDs       []string            `json:"activeSkillIds"`
}

// CatalogView is the public store projection of one catalog entry.
type CatalogView struct {
	ID          string `json:"id"`
	DisplayName string `json:"name"`
	Price       int64  `json:"price"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Available   bool   `json:"available"`
}

// Store is the persistence contract used by Service.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error

	CreateAccount(ctx context.Context, handle Handle, passwordHash string) (AccountRecord, error)
	GetAccount(ctx context.Context, handle Handle) (AccountRecord, error)
	DeleteAccount(ctx context.Context, accountID string) error

	CreateStats(ctx context.Context, record StatsRecord) error
	GetStats(ctx context.Context, accountID string) (StatsRecord, error)
	GetStatsForUpdate(ctx context.Context, accountID string) (StatsRecord, error)
	SaveStats(ctx context.Context, record StatsRecord) error

	FindWeapon(ctx context.Context, name string) (WeaponDef, error)
	FindItem(ctx context.Context, itemID string) (ItemDef, error)
	ListUnlockableWeapons(ctx context.Context) ([]WeaponDef, error)
	ListItems(ctx context.Context) ([]ItemDef, error)

	GrantWeapon(ctx context.Context, accountID string, weaponName string) error
	GrantItem(ctx context.Context, accountID string, itemID string) error
	HasWeapon(ctx context.Context, accountID string, weaponName string) (bool, error)
	HasItem(ctx context.Context, accountID string, itemID string) (bool, error)
	OwnedWeaponNames(ctx context.Context, accountID string) ([]string, error)
	OwnedItems(ctx context.Context, accountID string) ([]OwnedItem, error)
}

package player

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

// stubStore is an in-memory Store. WithTx serializes callers with a mutex,
// mirroring the per-account exclusivity the real store gets from row locks.
type stubStore struct {
	mutex        sync.Mutex
	nextID       int
	accounts     map[string]AccountRecord
	stats        map[string]StatsRecord
	weapons      map[string]WeaponDef
	items        map[string]ItemDef
	ownedWeapons map[string]map[string]bool
	ownedItems   map[string]map[string]bool
}

func newStubStore(test *testing.T) *stubStore {
	test.Helper()
	store := &stubStore{
		accounts:     map[string]AccountRecord{},
		stats:        map[string]StatsRecord{},
		weapons:      map[string]WeaponDef{},
		items:        map[string]ItemDef{},
		ownedWeapons: map[string]map[string]bool{},
		ownedItems:   map[string]map[string]bool{},
	}
	for _, weapon := range []WeaponDef{
		{Name: "pistol", Price: 0, Unlockable: true},
		{Name: "shotgun", Price: 500, Unlockable: true},
		{Name: "machinegun", Price: 800, Unlockable: true},
	} {
		store.weapons[weapon.Name] = weapon
	}
	for _, item := range []ItemDef{
		{ItemID: "basic_turret", DisplayName: "Basic Turret", Category: CategoryTurrets, Price: 1000, Available: true},
		{ItemID: "sniper_turret", DisplayName: "Sniper Turret", Category: CategoryTurrets, Price: 1500, Available: false},
		{ItemID: "recovery", DisplayName: "Recovery", Category: CategorySkills, Price: 400, Available: true},
		{ItemID: "lifeSteal", DisplayName: "Life Steal", Category: CategorySkills, Price: 600, Available: true},
	} {
		store.items[item.ItemID] = item
	}
	return store
}

func (store *stubStore) WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	return fn(ctx, store)
}

func (store *stubStore) CreateAccount(_ context.Context, handle Handle, passwordHash string) (AccountRecord, error) {
	if _, exists := store.accounts[handle.String()]; exists {
		return AccountRecord{}, ErrHandleTaken
	}
	store.nextID++
	record := AccountRecord{
		AccountID:    fmt.Sprintf("account-%d", store.nextID),
		Handle:       handle.String(),
		PasswordHash: passwordHash,
	}
	store.accounts[handle.String()] = record
	return record, nil
}

func (store *stubStore) GetAccount(_ context.Context, handle Handle) (AccountRecord, error) {
	record, exists := store.accounts[handle.String()]
	if !exists {
		return AccountRecord{}, ErrAccountNotFound
	}
	return record, nil
}

func (store *stubStore) DeleteAccount(_ context.Context, accountID string) error {
	for handle, record := range store.accounts {
		if record.AccountID == accountID {
			delete(store.accounts, handle)
			delete(store.stats, accountID)
			delete(store.ownedWeapons, accountID)
			delete(store.ownedItems, accountID)
			return nil
		}
	}
	return ErrAccountNotFound
}

func (store *stubStore) CreateStats(_ context.Context, record StatsRecord) error {
	store.stats[record.AccountID] = record
	return nil
}

func (store *stubStore) GetStats(_ context.Context, accountID string) (StatsRecord, error) {
	record, exists := store.stats[accountID]
	if !exists {
		return StatsRecord{}, ErrAccountNotFound
	}
	return record, nil
}

func (store *stubStore) GetStatsForUpdate(ctx context.Context, accountID string) (StatsRecord, error) {
	return store.GetStats(ctx, accountID)
}

func (store *stubStore) SaveStats(_ context.Context, record StatsRecord) error {
	if _, exists := store.stats[record.AccountID]; !exists {
		return ErrAccountNotFound
	}
	store.stats[record.AccountID] = record
	return nil
}

func (store *stubStore) FindWeapon(_ context.Context, name string) (WeaponDef, error) {
	weapon, exists := store.weapons[name]
	if !exists {
		return WeaponDef{}, ErrItemNotFound
	}
	return weapon, nil
}

func (store *stubStore) FindItem(_ context.Context, itemID string) (ItemDef, error) {
	item, exists := store.items[itemID]
	if !exists {
		return ItemDef{}, ErrItemNotFound
	}
	return item, nil
}

func (store *stubStore) ListUnlockableWeapons(_ context.Context) ([]WeaponDef, error) {
	weapons := make([]WeaponDef, 0, len(store.weapons))
	for _, weapon := range store.weapons {
		if weapon.Unlockable {
			weapons = append(weapons, weapon)
		}
	}
	return weapons, nil
}

func (store *stubStore) ListItems(_ context.Context) ([]ItemDef, error) {
	items := make([]ItemDef, 0, len(store.items))
	for _, item := range store.items {
		items = append(items, item)
	}
	return items, nil
}

func (store *stubStore) GrantWeapon(_ context.Context, accountID string, weaponName string) error {
	owned := store.ownedWeapons[accountID]
	if owned == nil {
		owned = map[string]bool{}
		store.ownedWeapons[accountID] = owned
	}
	if owned[weaponName] {
		return ErrAlreadyOwned
	}
	owned[weaponName] = true
	return nil
}

func (store *stubStore) GrantItem(_ context.Context, accountID string, itemID string) error {
	owned := store.ownedItems[accountID]
	if owned == nil {
		owned = map[string]bool{}
		store.ownedItems[accountID] = owned
	}
	if owned[itemID] {
		return ErrAlreadyOwned
	}
	owned[itemID] = true
	return nil
}

func (store *stubStore) HasWeapon(_ context.Context, accountID string, weaponName string) (bool, error) {
	return store.ownedWeapons[accountID][weaponName], nil
}

func (store *stubStore) HasItem(_ context.Context, accountID string, itemID string) (bool, error) {
	return store.ownedItems[accountID][itemID], nil
}

func (store *stubStore) OwnedWeaponNames(_ context.Context, accountID string) ([]string, error) {
	names := make([]string, 0, len(store.ownedWeapons[accountID]))
	for name := range store.ownedWeapons[accountID] {
		names = append(names, name)
	}
	return names, nil
}

func (store *stubStore) OwnedItems(_ context.Context, accountID string) ([]OwnedItem, error) {
	owned := make([]OwnedItem, 0, len(store.ownedItems[accountID]))
	for itemID := range store.ownedItems[accountID] {
		item := store.items[itemID]
		owned = append(owned, OwnedItem{ItemID: itemID, Category: item.Category})
	}
	return owned, nil
}

func mustNewService(test *testing.T, store Store, options ...ServiceOption) *Service {
	test.Helper()
	service, err := NewService(store, options...)
	if err != nil {
		test.Fatalf("new service: %v", err)
	}
	return service
}

func mustHandle(test *testing.T, raw string) Handle {
	test.Helper()
	handle, err := NewHandle(raw)
	if err != nil {
		test.Fatalf("new handle: %v", err)
	}
	return handle
}

func mustItemID(test *testing.T, raw string) ItemID {
	test.Helper()
	id, err := NewItemID(raw)
	if err != nil {
		test.Fatalf("new item id: %v", err)
	}
	return id
}

func mustCreateAccount(test *testing.T, service *Service, handle Handle) AccountView {
	test.Helper()
	view, err := service.CreateAccount(context.Background(), handle, "hash")
	if err != nil {
		test.Fatalf("create account: %v", err)
	}
	return view
}

func mustSetCurrency(test *testing.T, service *Service, handle Handle, currency int64) {
	test.Helper()
	_, err := service.UpdateStats(context.Background(), handle, StatsUpdate{Currency: currency, Level: 1})
	if err != nil {
		test.Fatalf("set currency: %v", err)
	}
}

package player

// WeaponDef is a purchasable weapon definition. Gameplay stats are carried
// through to clients unchanged; the ledger only reads Name, Price, and
// Unlockable.
type WeaponDef struct {
	Name         string
	Price        int64
	Description  string
	Unlockable   bool
	Damage       int
	Pellets      int
	Spread       float64
	RangeValue   int
	BulletSpeed  int
	BulletSize   int
	MaxAmmo      int
	ReloadMillis int
	Automatic    bool
	RecoilForce  int
}

// ItemDef is a purchasable non-weapon definition (turrets, drones, orbs,
// skills, ultimates).
type ItemDef struct {
	ItemID      string
	DisplayName string
	Category    Category
	Description string
	Price       int64
	Available   bool
}

// CatalogView projects a weapon for store browsing. Weapon names double as
// catalog ids; availability mirrors the unlockable flag.
func (weapon WeaponDef) CatalogView() CatalogView {
	return CatalogView{
		ID:          weapon.Name,
		DisplayName: weapon.Name,
		Price:       weapon.Price,
		Description: weapon.Description,
		Category:    CategoryWeapons.String(),
		Available:   weapon.Unlockable,
	}
}

// CatalogView projects an item for store browsing. The availability flag is
// surfaced for the client to render; it is enforced only at purchase time.
func (item ItemDef) CatalogView() CatalogView {
	return CatalogView{
		ID:          item.ItemID,
		DisplayName: item.DisplayName,
		Price:       item.Price,
		Description: item.Description,
		Category:    item.Category.String(),
		Available:   item.Available,
	}
}

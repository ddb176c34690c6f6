package gormstore

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Account represents the accounts table.
type Account struct {
	AccountID    string    `gorm:"type:uuid;primaryKey"`
	Handle       string    `gorm:"size:50;not null;uniqueIndex:uniq_accounts_handle"`
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (Account) TableName() string { return "accounts" }

func (account *Account) BeforeCreate(tx *gorm.DB) error {
	if account.AccountID == "" {
		account.AccountID = uuid.NewString()
	}
	return nil
}

// PlayerStats mirrors the player_stats table, one row per account.
type PlayerStats struct {
	AccountID         string         `gorm:"type:uuid;primaryKey"`
	Currency          int64          `gorm:"not null;default:0"`
	Level             float64        `gorm:"not null;default:1"`
	Kills             int64          `gorm:"not null;default:0"`
	BestScore         int64          `gorm:"not null;default:0"`
	CurrentWeaponName string         `gorm:"not null"`
	ActiveSkillIDs    datatypes.JSON `gorm:"not null"`
	UpdatedAt         time.Time      `gorm:"not null"`
}

func (PlayerStats) TableName() string { return "player_stats" }

// Weapon mirrors the weapons catalog table. The name is the catalog id.
type Weapon struct {
	Name         string  `gorm:"primaryKey;size:50"`
	Price        int64   `gorm:"not null;default:0"`
	Description  string  `gorm:"type:text"`
	Unlockable   bool    `gorm:"not null;default:false"`
	Damage       int     `gorm:"not null;default:0"`
	Pellets      int     `gorm:"not null;default:1"`
	Spread       float64 `gorm:"not null;default:0"`
	RangeValue   int     `gorm:"not null;default:0"`
	BulletSpeed  int     `gorm:"not null;default:0"`
	BulletSize   int     `gorm:"not null;default:0"`
	MaxAmmo      int     `gorm:"not null;default:0"`
	ReloadMillis int     `gorm:"not null;default:0"`
	Automatic    bool    `gorm:"not null;default:false"`
	RecoilForce  int     `gorm:"not null;default:0"`
}

func (Weapon) TableName() string { return "weapons" }

// GameItem mirrors the game_items catalog table. Type-specific stats are
// nullable; only rows of the matching category populate them.
type GameItem struct {
	ItemID      string `gorm:"primaryKey;size:64"`
	DisplayName string `gorm:"not null"`
	Category    string `gorm:"not null;index:idx_game_items_category"`
	Description string `gorm:"type:text"`
	Price       int64  `gorm:"not null;default:0"`
	Available   bool   `gorm:"not null;default:true"`

	TurretSpread      *float64
	TurretBulletSpeed *int
	TurretDamage      *int
	TurretFireRate    *int
	TurretRange       *int
	DroneAttackRange  *int
	DroneDamage       *int
	DroneDuration     *int
}

func (GameItem) TableName() string { return "game_items" }

// WeaponOwnership is the (account, weapon) ownership relation. The composite
// primary key enforces at most one record per pair.
type WeaponOwnership struct {
	AccountID  string    `gorm:"type:uuid;primaryKey"`
	WeaponName string    `gorm:"primaryKey;size:50"`
	CreatedAt  time.Time `gorm:"not null"`
}

func (WeaponOwnership) TableName() string { return "weapon_ownerships" }

// ItemOwnership is the (account, item) ownership relation.
type ItemOwnership struct {
	AccountID string    `gorm:"type:uuid;primaryKey"`
	ItemID    string    `gorm:"primaryKey;size:64"`
	CreatedAt time.Time `gorm:"not null"`
}

func (ItemOwnership) TableName() string { return "item_ownerships" }

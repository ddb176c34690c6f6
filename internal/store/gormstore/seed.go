package gormstore

import (
	"context"
	"fmt"
	"math"
)

// Seed inserts the default catalog when the weapon or item table is empty.
// Safe to run on every process start; a populated table is left untouched.
func (store *Store) Seed(ctx context.Context) error {
	db := store.db.WithContext(ctx)

	var weaponCount int64
	if err := db.Model(&Weapon{}).Count(&weaponCount).Error; err != nil {
		return fmt.Errorf("count weapons: %w", err)
	}
	if weaponCount == 0 {
		weapons := defaultWeapons()
		if err := db.Create(&weapons).Error; err != nil {
			return fmt.Errorf("seed weapons: %w", err)
		}
	}

	var itemCount int64
	if err := db.Model(&GameItem{}).Count(&itemCount).Error; err != nil {
		return fmt.Errorf("count game items: %w", err)
	}
	if itemCount == 0 {
		items := defaultGameItems()
		if err := db.Create(&items).Error; err != nil {
			return fmt.Errorf("seed game items: %w", err)
		}
	}
	return nil
}

func defaultWeapons() []Weapon {
	return []Weapon{
		{
			Name:         "pistol",
			Price:        0,
			Description:  "Standard sidearm.",
			Unlockable:   true,
			Damage:       15,
			Pellets:      1,
			Spread:       0,
			RangeValue:   1000,
			BulletSpeed:  12,
			BulletSize:   15,
			MaxAmmo:      15,
			ReloadMillis: 1500,
			Automatic:    false,
			RecoilForce:  1,
		},
		{
			Name:         "shotgun",
			Price:        500,
			Description:  "Wide spread, high damage at close range",
			Unlockable:   true,
			Damage:       35,
			Pellets:      8,
			Spread:       math.Pi / 12,
			RangeValue:   305,
			BulletSpeed:  18,
			BulletSize:   12,
			MaxAmmo:      8,
			ReloadMillis: 2500,
			Automatic:    false,
			RecoilForce:  15,
		},
		{
			Name:         "machinegun",
			Price:        800,
			Description:  "Rapid fire with moderate damage",
			Unlockable:   true,
			Damage:       30,
			Pellets:      1,
			Spread:       0,
			RangeValue:   500,
			BulletSpeed:  20,
			BulletSize:   10,
			MaxAmmo:      100,
			ReloadMillis: 3000,
			Automatic:    true,
			RecoilForce:  3,
		},
	}
}

func defaultGameItems() []GameItem {
	return []GameItem{
		{
			ItemID:      "basic_turret",
			DisplayName: "Basic Turret",
			Category:    "turrets",
			Description: "Automatic targeting with moderate damage",
			Price:       1000,
			Available:   true,
		},
		{
			ItemID:      "sniper_turret",
			DisplayName: "Sniper Turret",
			Category:    "turrets",
			Description: "High damage, low rate of fire",
			Price:       1500,
			Available:   false,
		},
		{
			ItemID:      "attack_orb",
			DisplayName: "Attack Orb",
			Category:    "orbs",
			Description: "Attacks nearby enemies",
			Price:       700,
			Available:   true,
		},
		{
			ItemID:      "recovery",
			DisplayName: "Recovery",
			Category:    "skills",
			Description: "Slowly regenerate health over time",
			Price:       400,
			Available:   true,
		},
		{
			ItemID:      "lifeSteal",
			DisplayName: "Life Steal",
			Category:    "skills",
			Description: "Heal when dealing damage to enemies",
			Price:       600,
			Available:   true,
		},
		{
			ItemID:      "dragons_breath",
			DisplayName: "Dragons Breath",
			Category:    "ultimates",
			Description: "Call in a dragon to clear a massive amount of enemies at once",
			Price:       5000,
			Available:   false,
		},
	}
}

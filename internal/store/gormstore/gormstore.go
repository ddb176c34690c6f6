package gormstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/MarkoPoloResearchLab/fortress/pkg/player"
)

const (
	pgUniqueViolationCode = "23505"
	sqliteConstraintCode  = 19

	errorOperationStore   = "store"
	errorSubjectAccount   = "account"
	errorSubjectStats     = "stats"
	errorSubjectCatalog   = "catalog"
	errorSubjectOwnership = "ownership"
	errorCodeCreate       = "create"
	errorCodeDelete       = "delete"
	errorCodeDuplicate    = "duplicate"
	errorCodeFind         = "find"
	errorCodeGet          = "get"
	errorCodeGrant        = "grant"
	errorCodeInvalid      = "invalid"
	errorCodeList         = "list"
	errorCodeSave         = "save"
)

// Store implements player.Store using GORM.
type Store struct {
	db *gorm.DB
}

// New returns a Store backed by gorm.DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the schema.
func (store *Store) Migrate() error {
	return store.db.AutoMigrate(
		&Account{},
		&PlayerStats{},
		&Weapon{},
		&GameItem{},
		&WeaponOwnership{},
		&ItemOwnership{},
	)
}

// WithTx executes fn within a transaction.
func (store *Store) WithTx(ctx context.Context, fn func(ctx context.Context, txStore player.Store) error) error {
	return store.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		return fn(ctx, &Store{db: transaction})
	})
}

func (store *Store) CreateAccount(ctx context.Context, handle player.Handle, passwordHash string) (player.AccountRecord, error) {
	account := Account{Handle: handle.String(), PasswordHash: passwordHash}
	err := store.db.WithContext(ctx).Create(&account).Error
	if isUniqueViolation(err) {
		return player.AccountRecord{}, wrapStoreError(errorSubjectAccount, errorCodeDuplicate, player.ErrHandleTaken)
	}
	if err != nil {
		return player.AccountRecord{}, wrapStoreError(errorSubjectAccount, errorCodeCreate, err)
	}
	return player.AccountRecord{
		AccountID:    account.AccountID,
		Handle:       account.Handle,
		PasswordHash: account.PasswordHash,
	}, nil
}

func (store *Store) GetAccount(ctx context.Context, handle player.Handle) (player.AccountRecord, error) {
	var account Account
	err := store.db.WithContext(ctx).
		Where("handle = ?", handle.String()).
		Take(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return player.AccountRecord{}, wrapStoreError(errorSubjectAccount, errorCodeGet, player.ErrAccountNotFound)
	}
	if err != nil {
		return player.AccountRecord{}, wrapStoreError(errorSubjectAccount, errorCodeGet, err)
	}
	return player.AccountRecord{
		AccountID:    account.AccountID,
		Handle:       account.Handle,
		PasswordHash: account.PasswordHash,
	}, nil
}

// DeleteAccount removes the account row and cascades to its stats and
// ownership relations.
func (store *Store) DeleteAccount(ctx context.Context, accountID string) error {
	if err := store.db.WithContext(ctx).Where("account_id = ?", accountID).Delete(&WeaponOwnership{}).Error; err != nil {
		return wrapStoreError(errorSubjectOwnership, errorCodeDelete, err)
	}
	if err := store.db.WithContext(ctx).Where("account_id = ?", accountID).Delete(&ItemOwnership{}).Error; err != nil {
		return wrapStoreError(errorSubjectOwnership, errorCodeDelete, err)
	}
	if err := store.db.WithContext(ctx).Where("account_id = ?", accountID).Delete(&PlayerStats{}).Error; err != nil {
		return wrapStoreError(errorSubjectStats, errorCodeDelete, err)
	}
	result := store.db.WithContext(ctx).Where("account_id = ?", accountID).Delete(&Account{})
	if result.Error != nil {
		return wrapStoreError(errorSubjectAccount, errorCodeDelete, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectAccount, errorCodeDelete, player.ErrAccountNotFound)
	}
	return nil
}

func (store *Store) CreateStats(ctx context.Context, record player.StatsRecord) error {
	model, err := statsModel(record)
	if err != nil {
		return wrapStoreError(errorSubjectStats, errorCodeInvalid, err)
	}
	if err := store.db.WithContext(ctx).Create(&model).Error; err != nil {
		return wrapStoreError(errorSubjectStats, errorCodeCreate, err)
	}
	return nil
}

func (store *Store) GetStats(ctx context.Context, accountID string) (player.StatsRecord, error) {
	return store.getStats(ctx, accountID, false)
}

// GetStatsForUpdate row-locks the stats row so concurrent mutations on the
// same account serialize. SQLite ignores the lock clause but serializes
// writers on its own.
func (store *Store) GetStatsForUpdate(ctx context.Context, accountID string) (player.StatsRecord, error) {
	return store.getStats(ctx, accountID, true)
}

func (store *Store) getStats(ctx context.Context, accountID string, forUpdate bool) (player.StatsRecord, error) {
	query := store.db.WithContext(ctx)
	if forUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var model PlayerStats
	err := query.Where("account_id = ?", accountID).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return player.StatsRecord{}, wrapStoreError(errorSubjectStats, errorCodeGet, player.ErrAccountNotFound)
	}
	if err != nil {
		return player.StatsRecord{}, wrapStoreError(errorSubjectStats, errorCodeGet, err)
	}
	record, err := statsRecord(model)
	if err != nil {
		return player.StatsRecord{}, wrapStoreError(errorSubjectStats, errorCodeInvalid, err)
	}
	return record, nil
}

func (store *Store) SaveStats(ctx context.Context, record player.StatsRecord) error {
	model, err := statsModel(record)
	if err != nil {
		return wrapStoreError(errorSubjectStats, errorCodeInvalid, err)
	}
	result := store.db.WithContext(ctx).
		Model(&PlayerStats{}).
		Where("account_id = ?", record.AccountID).
		Updates(map[string]interface{}{
			"currency":            model.Currency,
			"level":               model.Level,
			"kills":               model.Kills,
			"best_score":          model.BestScore,
			"current_weapon_name": model.CurrentWeaponName,
			"active_skill_ids":    model.ActiveSkillIDs,
		})
	if result.Error != nil {
		return wrapStoreError(errorSubjectStats, errorCodeSave, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectStats, errorCodeSave, player.ErrAccountNotFound)
	}
	return nil
}

func (store *Store) FindWeapon(ctx context.Context, name string) (player.WeaponDef, error) {
	var model Weapon
	err := store.db.WithContext(ctx).Where("name = ?", name).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return player.WeaponDef{}, wrapStoreError(errorSubjectCatalog, errorCodeFind, player.ErrItemNotFound)
	}
	if err != nil {
		return player.WeaponDef{}, wrapStoreError(errorSubjectCatalog, errorCodeFind, err)
	}
	return weaponDef(model), nil
}

func (store *Store) FindItem(ctx context.Context, itemID string) (player.ItemDef, error) {
	var model GameItem
	err := store.db.WithContext(ctx).Where("item_id = ?", itemID).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return player.ItemDef{}, wrapStoreError(errorSubjectCatalog, errorCodeFind, player.ErrItemNotFound)
	}
	if err != nil {
		return player.ItemDef{}, wrapStoreError(errorSubjectCatalog, errorCodeFind, err)
	}
	return itemDef(model)
}

func (store *Store) ListUnlockableWeapons(ctx context.Context) ([]player.WeaponDef, error) {
	var models []Weapon
	err := store.db.WithContext(ctx).
		Where("unlockable = ?", true).
		Order("price ASC").
		Find(&models).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectCatalog, errorCodeList, err)
	}
	weapons := make([]player.WeaponDef, 0, len(models))
	for _, model := range models {
		weapons = append(weapons, weaponDef(model))
	}
	return weapons, nil
}

func (store *Store) ListItems(ctx context.Context) ([]player.ItemDef, error) {
	var models []GameItem
	err := store.db.WithContext(ctx).
		Order("category ASC, price ASC").
		Find(&models).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectCatalog, errorCodeList, err)
	}
	items := make([]player.ItemDef, 0, len(models))
	for _, model := range models {
		item, err := itemDef(model)
		if err != nil {
			return nil, wrapStoreError(errorSubjectCatalog, errorCodeInvalid, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func (store *Store) GrantWeapon(ctx context.Context, accountID string, weaponName string) error {
	ownership := WeaponOwnership{AccountID: accountID, WeaponName: weaponName}
	err := store.db.WithContext(ctx).Create(&ownership).Error
	if isUniqueViolation(err) {
		return wrapStoreError(errorSubjectOwnership, errorCodeDuplicate, player.ErrAlreadyOwned)
	}
	if err != nil {
		return wrapStoreError(errorSubjectOwnership, errorCodeGrant, err)
	}
	return nil
}

func (store *Store) GrantItem(ctx context.Context, accountID string, itemID string) error {
	ownership := ItemOwnership{AccountID: accountID, ItemID: itemID}
	err := store.db.WithContext(ctx).Create(&ownership).Error
	if isUniqueViolation(err) {
		return wrapStoreError(errorSubjectOwnership, errorCodeDuplicate, player.ErrAlreadyOwned)
	}
	if err != nil {
		return wrapStoreError(errorSubjectOwnership, errorCodeGrant, err)
	}
	return nil
}

func (store *Store) HasWeapon(ctx context.Context, accountID string, weaponName string) (bool, error) {
	var count int64
	err := store.db.WithContext(ctx).
		Model(&WeaponOwnership{}).
		Where("account_id = ? AND weapon_name = ?", accountID, weaponName).
		Count(&count).Error
	if err != nil {
		return false, wrapStoreError(errorSubjectOwnership, errorCodeGet, err)
	}
	return count > 0, nil
}

func (store *Store) HasItem(ctx context.Context, accountID string, itemID string) (bool, error) {
	var count int64
	err := store.db.WithContext(ctx).
		Model(&ItemOwnership{}).
		Where("account_id = ? AND item_id = ?", accountID, itemID).
		Count(&count).Error
	if err != nil {
		return false, wrapStoreError(errorSubjectOwnership, errorCodeGet, err)
	}
	return count > 0, nil
}

func (store *Store) OwnedWeaponNames(ctx context.Context, accountID string) ([]string, error) {
	var names []string
	err := store.db.WithContext(ctx).
		Model(&WeaponOwnership{}).
		Where("account_id = ?", accountID).
		Pluck("weapon_name", &names).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectOwnership, errorCodeList, err)
	}
	return names, nil
}

// OwnedItems joins the ownership relation with the catalog to recover each
// item's category.
func (store *Store) OwnedItems(ctx context.Context, accountID string) ([]player.OwnedItem, error) {
	type ownedRow struct {
		ItemID   string
		Category string
	}
	var rows []ownedRow
	err := store.db.WithContext(ctx).
		Model(&ItemOwnership{}).
		Select("item_ownerships.item_id, game_items.category").
		Joins("JOIN game_items ON game_items.item_id = item_ownerships.item_id").
		Where("item_ownerships.account_id = ?", accountID).
		Scan(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectOwnership, errorCodeList, err)
	}
	owned := make([]player.OwnedItem, 0, len(rows))
	for _, row := range rows {
		category, err := player.ParseCategory(row.Category)
		if err != nil {
			return nil, wrapStoreError(errorSubjectOwnership, errorCodeInvalid, err)
		}
		owned = append(owned, player.OwnedItem{ItemID: row.ItemID, Category: category})
	}
	return owned, nil
}

func statsModel(record player.StatsRecord) (PlayerStats, error) {
	skillIDs := record.ActiveSkillIDs
	if skillIDs == nil {
		skillIDs = []string{}
	}
	raw, err := json.Marshal(skillIDs)
	if err != nil {
		return PlayerStats{}, fmt.Errorf("marshal active skill ids: %w", err)
	}
	return PlayerStats{
		AccountID:         record.AccountID,
		Currency:          record.Stats.Currency,
		Level:             record.Stats.Level,
		Kills:             record.Stats.Kills,
		BestScore:         record.Stats.BestScore,
		CurrentWeaponName: record.CurrentWeaponName,
		ActiveSkillIDs:    datatypes.JSON(raw),
	}, nil
}

func statsRecord(model PlayerStats) (player.StatsRecord, error) {
	skillIDs := []string{}
	if len(model.ActiveSkillIDs) > 0 {
		if err := json.Unmarshal(model.ActiveSkillIDs, &skillIDs); err != nil {
			return player.StatsRecord{}, fmt.Errorf("unmarshal active skill ids: %w", err)
		}
	}
	stats, err := player.NewStats(model.Currency, model.Level, model.Kills, model.BestScore)
	if err != nil {
		return player.StatsRecord{}, err
	}
	return player.StatsRecord{
		AccountID:         model.AccountID,
		Stats:             stats,
		CurrentWeaponName: model.CurrentWeaponName,
		ActiveSkillIDs:    skillIDs,
	}, nil
}

func weaponDef(model Weapon) player.WeaponDef {
	return player.WeaponDef{
		Name:         model.Name,
		Price:        model.Price,
		Description:  model.Description,
		Unlockable:   model.Unlockable,
		Damage:       model.Damage,
		Pellets:      model.Pellets,
		Spread:       model.Spread,
		RangeValue:   model.RangeValue,
		BulletSpeed:  model.BulletSpeed,
		BulletSize:   model.BulletSize,
		MaxAmmo:      model.MaxAmmo,
		ReloadMillis: model.ReloadMillis,
		Automatic:    model.Automatic,
		RecoilForce:  model.RecoilForce,
	}
}

func itemDef(model GameItem) (player.ItemDef, error) {
	category, err := player.ParseCategory(model.Category)
	if err != nil {
		return player.ItemDef{}, err
	}
	return player.ItemDef{
		ItemID:      model.ItemID,
		DisplayName: model.DisplayName,
		Category:    category,
		Description: model.Description,
		Price:       model.Price,
		Available:   model.Available,
	}, nil
}

func wrapStoreError(subject string, code string, err error) error {
	return player.WrapError(errorOperationStore, subject, code, err)
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolationCode
	}
	var sqliteErr *gosqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xFF == sqliteConstraintCode
	}
	return false
}

package player

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Service enforces the currency and ownership invariants over a Store.
type Service struct {
	store  Store
	logger OperationLogger
}

// NewService wires a Service.
func NewService(store Store, options ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidServiceConfig)
	}
	service := &Service{store: store}
	for _, option := range options {
		if option != nil {
			option(service)
		}
	}
	return service, nil
}

// GetSnapshot returns the full economy state of the account. Read-only.
func (service *Service) GetSnapshot(ctx context.Context, handle Handle) (AccountView, error) {
	account, err := service.store.GetAccount(ctx, handle)
	if err != nil {
		return AccountView{}, err
	}
	return buildView(ctx, service.store, account.AccountID)
}

// UpdateStats overwrites the progress counters with the caller-supplied
// values. The optional weapon and skill fields are applied only when backed
// by ownership and dropped otherwise; the rest of the update still commits.
func (service *Service) UpdateStats(ctx context.Context, handle Handle, update StatsUpdate) (AccountView, error) {
	var view AccountView
	var detail string
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		if err := update.Validate(); err != nil {
			return err
		}
		account, err := transactionStore.GetAccount(ctx, handle)
		if err != nil {
			return err
		}
		record, err := transactionStore.GetStatsForUpdate(ctx, account.AccountID)
		if err != nil {
			return err
		}
		record.Stats.Currency = update.Currency
		record.Stats.Level = update.Level
		record.Stats.Kills = update.Kills
		if update.BestScore != nil {
			record.Stats.BestScore = *update.BestScore
		}
		if update.EquippedWeapon != nil {
			owned, err := transactionStore.HasWeapon(ctx, account.AccountID, *update.EquippedWeapon)
			if err != nil {
				return err
			}
			if owned {
				record.CurrentWeaponName = *update.EquippedWeapon
			} else {
				detail = detailWeaponChangeDropped
			}
		}
		if update.ActiveSkillIDs != nil {
			allOwned, err := allItemsOwned(ctx, transactionStore, account.AccountID, update.ActiveSkillIDs)
			if err != nil {
				return err
			}
			if allOwned {
				record.ActiveSkillIDs = append([]string(nil), update.ActiveSkillIDs...)
			} else {
				detail = detailSkillChangeDropped
			}
		}
		if err := transactionStore.SaveStats(ctx, record); err != nil {
			return err
		}
		view, err = buildView(ctx, transactionStore, account.AccountID)
		return err
	})
	service.logOperation(ctx, OperationLog{
		Operation: operationUpdateStats,
		Handle:    handle,
		Detail:    detail,
		Error:     operationError,
	})
	if operationError != nil {
		return AccountView{}, operationError
	}
	return view, nil
}

// PurchaseItem debits the entry's price and grants ownership as one atomic
// unit. Validation is re-read under the same transaction as the commit, so a
// concurrent duplicate purchase fails rather than double-spending.
func (service *Service) PurchaseItem(ctx context.Context, handle Handle, entryID ItemID, expectedCategory Category) (AccountView, error) {
	var view AccountView
	var price int64
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		account, err := transactionStore.GetAccount(ctx, handle)
		if err != nil {
			return err
		}
		record, err := transactionStore.GetStatsForUpdate(ctx, account.AccountID)
		if err != nil {
			return err
		}
		if expectedCategory == CategoryWeapons {
			price, err = purchaseWeapon(ctx, transactionStore, account.AccountID, entryID.String())
		} else {
			price, err = purchaseGameItem(ctx, transactionStore, account.AccountID, entryID.String(), expectedCategory)
		}
		if err != nil {
			return err
		}
		if record.Stats.Currency < price {
			return ErrInsufficientFunds
		}
		record.Stats.Currency -= price
		if err := transactionStore.SaveStats(ctx, record); err != nil {
			return err
		}
		if expectedCategory == CategoryWeapons {
			err = transactionStore.GrantWeapon(ctx, account.AccountID, entryID.String())
		} else {
			err = transactionStore.GrantItem(ctx, account.AccountID, entryID.String())
		}
		if err != nil {
			return err
		}
		view, err = buildView(ctx, transactionStore, account.AccountID)
		return err
	})
	service.logOperation(ctx, OperationLog{
		Operation: operationPurchase,
		Handle:    handle,
		ItemID:    entryID.String(),
		Category:  expectedCategory,
		Amount:    price,
		Error:     operationError,
	})
	if operationError != nil {
		return AccountView{}, operationError
	}
	return view, nil
}

// SetEquippedWeapon equips an owned weapon.
func (service *Service) SetEquippedWeapon(ctx context.Context, handle Handle, weaponName string) (AccountView, error) {
	var view AccountView
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		if strings.TrimSpace(weaponName) == "" {
			return fmt.Errorf("%w: empty value", ErrInvalidWeaponName)
		}
		account, err := transactionStore.GetAccount(ctx, handle)
		if err != nil {
			return err
		}
		record, err := transactionStore.GetStatsForUpdate(ctx, account.AccountID)
		if err != nil {
			return err
		}
		owned, err := transactionStore.HasWeapon(ctx, account.AccountID, weaponName)
		if err != nil {
			return err
		}
		if !owned {
			return fmt.Errorf("%w: weapon %q", ErrNotOwned, weaponName)
		}
		record.CurrentWeaponName = weaponName
		if err := transactionStore.SaveStats(ctx, record); err != nil {
			return err
		}
		view, err = buildView(ctx, transactionStore, account.AccountID)
		return err
	})
	service.logOperation(ctx, OperationLog{
		Operation: operationEquipWeapon,
		Handle:    handle,
		ItemID:    weaponName,
		Category:  CategoryWeapons,
		Error:     operationError,
	})
	if operationError != nil {
		return AccountView{}, operationError
	}
	return view, nil
}

// SetActiveSkills replaces the active skill list atomically. Every id must be
// owned; an empty list always succeeds and clears the selection.
func (service *Service) SetActiveSkills(ctx context.Context, handle Handle, skillIDs []string) (AccountView, error) {
	var view AccountView
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		account, err := transactionStore.GetAccount(ctx, handle)
		if err != nil {
			return err
		}
		record, err := transactionStore.GetStatsForUpdate(ctx, account.AccountID)
		if err != nil {
			return err
		}
		allOwned, err := allItemsOwned(ctx, transactionStore, account.AccountID, skillIDs)
		if err != nil {
			return err
		}
		if !allOwned {
			return fmt.Errorf("%w: unowned skill in active list", ErrNotOwned)
		}
		record.ActiveSkillIDs = append([]string(nil), skillIDs...)
		if err := transactionStore.SaveStats(ctx, record); err != nil {
			return err
		}
		view, err = buildView(ctx, transactionStore, account.AccountID)
		return err
	})
	service.logOperation(ctx, OperationLog{
		Operation: operationSetActiveSkills,
		Handle:    handle,
		Error:     operationError,
	})
	if operationError != nil {
		return AccountView{}, operationError
	}
	return view, nil
}

// DeleteAccount removes the account and all of its ownership records.
func (service *Service) DeleteAccount(ctx context.Context, handle Handle) error {
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		account, err := transactionStore.GetAccount(ctx, handle)
		if err != nil {
			return err
		}
		return transactionStore.DeleteAccount(ctx, account.AccountID)
	})
	service.logOperation(ctx, OperationLog{
		Operation: operationDeleteAccount,
		Handle:    handle,
		Error:     operationError,
	})
	return operationError
}

func purchaseWeapon(ctx context.Context, store Store, accountID string, weaponName string) (int64, error) {
	weapon, err := store.FindWeapon(ctx, weaponName)
	if err != nil {
		return 0, err
	}
	owned, err := store.HasWeapon(ctx, accountID, weapon.Name)
	if err != nil {
		return 0, err
	}
	if owned {
		return 0, fmt.Errorf("%w: weapon %q", ErrAlreadyOwned, weapon.Name)
	}
	return weapon.Price, nil
}

func purchaseGameItem(ctx context.Context, store Store, accountID string, itemID string, expectedCategory Category) (int64, error) {
	item, err := store.FindItem(ctx, itemID)
	if err != nil {
		return 0, err
	}
	if item.Category != expectedCategory {
		return 0, fmt.Errorf("%w: %q is %q, requested %q", ErrCategoryMismatch, itemID, item.Category, expectedCategory)
	}
	if !item.Available {
		return 0, fmt.Errorf("%w: %q", ErrItemUnavailable, itemID)
	}
	owned, err := store.HasItem(ctx, accountID, item.ItemID)
	if err != nil {
		return 0, err
	}
	if owned {
		return 0, fmt.Errorf("%w: item %q", ErrAlreadyOwned, item.ItemID)
	}
	return item.Price, nil
}

func allItemsOwned(ctx context.Context, store Store, accountID string, itemIDs []string) (bool, error) {
	if len(itemIDs) == 0 {
		return true, nil
	}
	owned, err := store.OwnedItems(ctx, accountID)
	if err != nil {
		return false, err
	}
	ownedSet := make(map[string]struct{}, len(owned))
	for _, item := range owned {
		ownedSet[item.ItemID] = struct{}{}
	}
	for _, itemID := range itemIDs {
		if _, ok := ownedSet[itemID]; !ok {
			return false, nil
		}
	}
	return true, nil
}

func buildView(ctx context.Context, store Store, accountID string) (AccountView, error) {
	record, err := store.GetStats(ctx, accountID)
	if err != nil {
		return AccountView{}, err
	}
	weaponNames, err := store.OwnedWeaponNames(ctx, accountID)
	if err != nil {
		return AccountView{}, err
	}
	sort.Strings(weaponNames)
	ownedItems, err := store.OwnedItems(ctx, accountID)
	if err != nil {
		return AccountView{}, err
	}
	itemsByCategory := make(map[string][]string)
	for _, item := range ownedItems {
		itemsByCategory[item.Category.String()] = append(itemsByCategory[item.Category.String()], item.ItemID)
	}
	for category := range itemsByCategory {
		sort.Strings(itemsByCategory[category])
	}
	return AccountView{
		Currency:             record.Stats.Currency,
		Level:                record.Stats.Level,
		Kills:                record.Stats.Kills,
		BestScore:            record.Stats.BestScore,
		CurrentWeaponName:    record.CurrentWeaponName,
		OwnedWeaponNames:     weaponNames,
		OwnedItemsByCategory: itemsByCategory,
		ActiveSkillIDs:       append([]string(nil), record.ActiveSkillIDs...),
	}, nil
}

func (service *Service) logOperation(ctx context.Context, entry OperationLog) {
	if service.logger == nil {
		return
	}
	if entry.Status == "" {
		if entry.Error != nil {
			entry.Status = operationStatusError
		} else {
			entry.Status = operationStatusOK
		}
	}
	service.logger.LogOperation(ctx, entry)
}

package player

import (
	"context"
	"errors"
	"fmt"
)

// CreateAccount creates the account row, its default stats, and the starter
// weapon grant as one atomic unit. A partially created account is never
// visible.
func (service *Service) CreateAccount(ctx context.Context, handle Handle, passwordHash string) (AccountView, error) {
	var view AccountView
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		starter, err := transactionStore.FindWeapon(ctx, StarterWeaponName)
		if err != nil {
			if errors.Is(err, ErrItemNotFound) {
				return fmt.Errorf("%w: %q", ErrStarterWeaponMissing, StarterWeaponName)
			}
			return err
		}
		account, err := transactionStore.CreateAccount(ctx, handle, passwordHash)
		if err != nil {
			return err
		}
		record := StatsRecord{
			AccountID:         account.AccountID,
			Stats:             Stats{Currency: 0, Level: 1, Kills: 0, BestScore: 0},
			CurrentWeaponName: starter.Name,
			ActiveSkillIDs:    []string{},
		}
		if err := transactionStore.CreateStats(ctx, record); err != nil {
			return err
		}
		if err := transactionStore.GrantWeapon(ctx, account.AccountID, starter.Name); err != nil {
			return err
		}
		view, err = buildView(ctx, transactionStore, account.AccountID)
		return err
	})
	service.logOperation(ctx, OperationLog{
		Operation: operationCreateAccount,
		Handle:    handle,
		Error:     operationError,
	})
	if operationError != nil {
		return AccountView{}, operationError
	}
	return view, nil
}

// Credentials returns the stored identity row for the handle, for use by the
// authentication layer.
func (service *Service) Credentials(ctx context.Context, handle Handle) (AccountRecord, error) {
	return service.store.GetAccount(ctx, handle)
}

// ListCatalog returns every unlockable weapon followed by every item
// definition. Item availability is surfaced, not filtered; it is enforced at
// purchase time.
func (service *Service) ListCatalog(ctx context.Context) ([]CatalogView, error) {
	weapons, err := service.store.ListUnlockableWeapons(ctx)
	if err != nil {
		return nil, err
	}
	items, err := service.store.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]CatalogView, 0, len(weapons)+len(items))
	for _, weapon := range weapons {
		views = append(views, weapon.CatalogView())
	}
	for _, item := range items {
		views = append(views, item.CatalogView())
	}
	return views, nil
}

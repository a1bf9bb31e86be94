package main

import (
	"regexp"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AccountType classifies a node in the chart of accounts.
// Only analytic, cash and bank accounts may carry journal lines;
// main and sub accounts are aggregation nodes.
type AccountType string

const (
	AccountTypeMain     AccountType = "main"
	AccountTypeSub      AccountType = "sub"
	AccountTypeAnalytic AccountType = "analytic"
	AccountTypeCash     AccountType = "cash"
	AccountTypeBank     AccountType = "bank"
)

var accountCodeRegex = regexp.MustCompile(`^[0-9]+$`)

// ParseAccountType converts a string to an AccountType.
func ParseAccountType(s string) (AccountType, bool) {
	switch AccountType(s) {
	case AccountTypeMain, AccountTypeSub, AccountTypeAnalytic, AccountTypeCash, AccountTypeBank:
		return AccountType(s), true
	}
	return "", false
}

// IsPostable reports whether journal lines may target this account type.
func (t AccountType) IsPostable() bool {
	switch t {
	case AccountTypeAnalytic, AccountTypeCash, AccountTypeBank:
		return true
	}
	return false
}

// Account is a node in the chart-of-accounts tree.
// Balance is a denormalized running total of posted lines and is written
// exclusively by the posting engine.
type Account struct {
	ID        string          `gorm:"column:id;primaryKey;type:varchar(32)"`
	Name      string          `gorm:"column:name;type:varchar(255);not null"`
	Type      AccountType     `gorm:"column:account_type;type:varchar(16);not null;index:idx_account_type"`
	ParentID  *string         `gorm:"column:parent_id;type:varchar(32);index:idx_account_parent"`
	Balance   decimal.Decimal `gorm:"column:balance;type:decimal(20,4);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Account) TableName() string {
	return "accounts"
}

// AccountService owns the chart of accounts.
type AccountService struct {
	db *gorm.DB
}

func NewAccountService(db *gorm.DB) *AccountService {
	return &AccountService{db: db}
}

// CreateAccount adds a new account with a zero balance.
func (s *AccountService) CreateAccount(id, name string, accountType AccountType, parentID *string) (*Account, error) {
	if !accountCodeRegex.MatchString(id) {
		return nil, LedgerErrorf(KindInvalidLine, "account code must be digits: %q", id)
	}

	account := &Account{
		ID:       id,
		Name:     name,
		Type:     accountType,
		ParentID: normalizeParent(parentID),
		Balance:  decimal.Zero,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Account{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return LedgerErrorf(KindDuplicateID, "account %s already exists", id)
		}

		if err := s.checkParent(tx, id, account.ParentID); err != nil {
			return err
		}

		return tx.Create(account).Error
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// UpdateAccount changes an account's name, type or parent.
// The code and the balance are not user-editable.
func (s *AccountService) UpdateAccount(id, name string, accountType AccountType, parentID *string) (*Account, error) {
	var account Account
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&account, "id = ?", id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return LedgerErrorf(KindNotFound, "account %s not found", id)
			}
			return err
		}

		account.Name = name
		account.Type = accountType
		account.ParentID = normalizeParent(parentID)

		if err := s.checkParent(tx, id, account.ParentID); err != nil {
			return err
		}

		return tx.Save(&account).Error
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// DeleteAccount removes a childless account that appears on no journal line.
func (s *AccountService) DeleteAccount(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var account Account
		if err := tx.First(&account, "id = ?", id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return LedgerErrorf(KindNotFound, "account %s not found", id)
			}
			return err
		}

		var children int64
		if err := tx.Model(&Account{}).Where("parent_id = ?", id).Count(&children).Error; err != nil {
			return err
		}
		if children > 0 {
			return LedgerErrorf(KindHasChildren, "account %s has %d child accounts", id, children)
		}

		var lines int64
		if err := tx.Model(&JournalEntryLine{}).Where("account_id = ?", id).Count(&lines).Error; err != nil {
			return err
		}
		if lines > 0 {
			return LedgerErrorf(KindHasEntries, "account %s is referenced by %d journal lines", id, lines)
		}

		return tx.Delete(&account).Error
	})
}

// GetAccount fetches a single account by code.
func (s *AccountService) GetAccount(id string) (*Account, error) {
	var account Account
	if err := s.db.First(&account, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, LedgerErrorf(KindNotFound, "account %s not found", id)
		}
		return nil, err
	}
	return &account, nil
}

// GetAccounts lists accounts with optional type and parent filters.
func (s *AccountService) GetAccounts(accountType *AccountType, parentID *string, options *ListOptions) ([]Account, error) {
	query := applyListOptions(s.db, "id", SortTypeAscending, options)

	if accountType != nil {
		query = query.Where("account_type = ?", *accountType)
	}
	if parentID != nil && *parentID != "" {
		query = query.Where("parent_id = ?", *parentID)
	}

	var accounts []Account
	if err := query.Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// checkParent verifies that the parent exists and that following parent
// links from it never reaches id again. A cycle is rejected as an
// invalid parent.
func (s *AccountService) checkParent(tx *gorm.DB, id string, parentID *string) error {
	if parentID == nil {
		return nil
	}

	seen := map[string]struct{}{id: {}}
	current := *parentID
	for {
		if _, ok := seen[current]; ok {
			return LedgerErrorf(KindInvalidParent, "parent %s would create a cycle for account %s", *parentID, id)
		}
		seen[current] = struct{}{}

		var parent Account
		if err := tx.First(&parent, "id = ?", current).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return LedgerErrorf(KindInvalidParent, "parent account %s not found", current)
			}
			return err
		}
		if parent.ParentID == nil {
			return nil
		}
		current = *parent.ParentID
	}
}

// applyBalanceDelta shifts an account balance by a signed amount.
// It must only be called by the posting engine inside the transaction
// that flips the owning entry's status. The delta is applied with a single
// relative UPDATE so concurrent postings compose under the store's
// isolation instead of clobbering each other.
func applyBalanceDelta(tx *gorm.DB, accountID string, delta decimal.Decimal) error {
	if delta.IsZero() {
		return nil
	}

	res := tx.Model(&Account{}).
		Where("id = ?", accountID).
		UpdateColumn("balance", gorm.Expr("balance + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return LedgerErrorf(KindInvalidLine, "account %s not found", accountID)
	}
	return nil
}

func normalizeParent(parentID *string) *string {
	if parentID == nil || *parentID == "" {
		return nil
	}
	return parentID
}

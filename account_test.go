package main

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAccount(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	service := NewAccountService(db)

	t.Run("creates root account with zero balance", func(t *testing.T) {
		account, err := service.CreateAccount("1000", "Assets", AccountTypeMain, nil)
		require.NoError(t, err)
		assert.Equal(t, "1000", account.ID)
		assert.True(t, account.Balance.IsZero())
		assert.Nil(t, account.ParentID)
	})

	t.Run("creates child under existing parent", func(t *testing.T) {
		parent := "1000"
		account, err := service.CreateAccount("1010", "Cash", AccountTypeCash, &parent)
		require.NoError(t, err)
		require.NotNil(t, account.ParentID)
		assert.Equal(t, "1000", *account.ParentID)
	})

	t.Run("rejects duplicate code", func(t *testing.T) {
		_, err := service.CreateAccount("1000", "Assets Again", AccountTypeMain, nil)
		require.Error(t, err)
		assert.Equal(t, KindDuplicateID, KindOf(err))
	})

	t.Run("rejects missing parent", func(t *testing.T) {
		parent := "9999"
		_, err := service.CreateAccount("1020", "Bank", AccountTypeBank, &parent)
		require.Error(t, err)
		assert.Equal(t, KindInvalidParent, KindOf(err))
	})

	t.Run("rejects non-numeric code", func(t *testing.T) {
		_, err := service.CreateAccount("10A0", "Bad", AccountTypeMain, nil)
		require.Error(t, err)
		assert.Equal(t, KindInvalidLine, KindOf(err))
	})

	t.Run("empty parent string means no parent", func(t *testing.T) {
		empty := ""
		account, err := service.CreateAccount("2000", "Liabilities", AccountTypeMain, &empty)
		require.NoError(t, err)
		assert.Nil(t, account.ParentID)
	})
}

func TestUpdateAccount(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	service := NewAccountService(db)

	_, err := service.CreateAccount("1000", "Assets", AccountTypeMain, nil)
	require.NoError(t, err)
	parent := "1000"
	_, err = service.CreateAccount("1010", "Cash", AccountTypeCash, &parent)
	require.NoError(t, err)

	t.Run("renames account", func(t *testing.T) {
		account, err := service.UpdateAccount("1010", "Petty Cash", AccountTypeCash, &parent)
		require.NoError(t, err)
		assert.Equal(t, "Petty Cash", account.Name)
	})

	t.Run("rejects unknown account", func(t *testing.T) {
		_, err := service.UpdateAccount("9999", "Ghost", AccountTypeMain, nil)
		require.Error(t, err)
		assert.Equal(t, KindNotFound, KindOf(err))
	})

	t.Run("rejects self as parent", func(t *testing.T) {
		self := "1010"
		_, err := service.UpdateAccount("1010", "Cash", AccountTypeCash, &self)
		require.Error(t, err)
		assert.Equal(t, KindInvalidParent, KindOf(err))
	})

	t.Run("rejects parent cycle", func(t *testing.T) {
		child := "1010"
		// 1000 -> 1010 -> 1000 would loop
		_, err := service.UpdateAccount("1000", "Assets", AccountTypeMain, &child)
		require.Error(t, err)
		assert.Equal(t, KindInvalidParent, KindOf(err))
	})
}

func TestDeleteAccount(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	service := NewAccountService(db)

	_, err := service.CreateAccount("1000", "Assets", AccountTypeMain, nil)
	require.NoError(t, err)
	parent := "1000"
	_, err = service.CreateAccount("1010", "Cash", AccountTypeCash, &parent)
	require.NoError(t, err)
	_, err = service.CreateAccount("4000", "Revenue", AccountTypeAnalytic, nil)
	require.NoError(t, err)

	t.Run("rejects account with children", func(t *testing.T) {
		err := service.DeleteAccount("1000")
		require.Error(t, err)
		assert.Equal(t, KindHasChildren, KindOf(err))
	})

	t.Run("rejects account referenced by journal lines", func(t *testing.T) {
		require.NoError(t, db.Create(&JournalEntry{
			Date:        testDate(2026, 1, 10),
			Description: "Sale",
			Status:      StatusDraft,
			TotalAmount: decimal.NewFromInt(100),
			Lines: []JournalEntryLine{
				{AccountID: "1010", Debit: decimal.NewFromInt(100)},
				{AccountID: "4000", Credit: decimal.NewFromInt(100)},
			},
		}).Error)

		err := service.DeleteAccount("1010")
		require.Error(t, err)
		assert.Equal(t, KindHasEntries, KindOf(err))
	})

	t.Run("deletes unused leaf", func(t *testing.T) {
		_, err := service.CreateAccount("5000", "Expenses", AccountTypeAnalytic, nil)
		require.NoError(t, err)
		require.NoError(t, service.DeleteAccount("5000"))

		_, err = service.GetAccount("5000")
		assert.Equal(t, KindNotFound, KindOf(err))
	})
}

func TestGetAccounts(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	service := NewAccountService(db)

	_, err := service.CreateAccount("1000", "Assets", AccountTypeMain, nil)
	require.NoError(t, err)
	parent := "1000"
	_, err = service.CreateAccount("1010", "Cash", AccountTypeCash, &parent)
	require.NoError(t, err)
	_, err = service.CreateAccount("1020", "Bank", AccountTypeBank, &parent)
	require.NoError(t, err)

	t.Run("filters by type", func(t *testing.T) {
		cash := AccountTypeCash
		accounts, err := service.GetAccounts(&cash, nil, nil)
		require.NoError(t, err)
		require.Len(t, accounts, 1)
		assert.Equal(t, "1010", accounts[0].ID)
	})

	t.Run("filters by parent", func(t *testing.T) {
		accounts, err := service.GetAccounts(nil, &parent, nil)
		require.NoError(t, err)
		assert.Len(t, accounts, 2)
	})

	t.Run("sorted by code ascending by default", func(t *testing.T) {
		accounts, err := service.GetAccounts(nil, nil, nil)
		require.NoError(t, err)
		require.Len(t, accounts, 3)
		assert.Equal(t, "1000", accounts[0].ID)
		assert.Equal(t, "1020", accounts[2].ID)
	})
}

func TestApplyBalanceDelta(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	service := NewAccountService(db)

	_, err := service.CreateAccount("1010", "Cash", AccountTypeCash, nil)
	require.NoError(t, err)

	require.NoError(t, applyBalanceDelta(db, "1010", decimal.NewFromInt(250)))
	require.NoError(t, applyBalanceDelta(db, "1010", decimal.RequireFromString("-100.5")))

	account, err := service.GetAccount("1010")
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(decimal.RequireFromString("149.5")), "got %s", account.Balance)

	t.Run("unknown account fails", func(t *testing.T) {
		err := applyBalanceDelta(db, "9999", decimal.NewFromInt(1))
		require.Error(t, err)
	})
}

func TestAccountTypePostable(t *testing.T) {
	assert.False(t, AccountTypeMain.IsPostable())
	assert.False(t, AccountTypeSub.IsPostable())
	assert.True(t, AccountTypeAnalytic.IsPostable())
	assert.True(t, AccountTypeCash.IsPostable())
	assert.True(t, AccountTypeBank.IsPostable())
}

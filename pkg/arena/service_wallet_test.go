package arena

import (
	"context"
	"errors"
	"testing"
)

func TestDepositCreditsBalanceAndAppendsTransaction(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	service := mustNewService(test, store)
	user := seedUser(test, store, "depositor", 10000)

	transaction, err := service.Deposit(context.Background(), user.ID, 5000, "UPI")
	if err != nil {
		test.Fatalf("deposit: %v", err)
	}
	if transaction.Type != TransactionDeposit {
		test.Fatalf("expected deposit transaction, got %s", transaction.Type)
	}
	if transaction.AmountCents != 5000 {
		test.Fatalf("expected amount +5000, got %d", transaction.AmountCents)
	}
	updated, err := store.GetUser(context.Background(), user.ID)
	if err != nil {
		test.Fatalf("get user: %v", err)
	}
	if updated.BalanceCents != 15000 {
		test.Fatalf("expected balance 15000, got %d", updated.BalanceCents)
	}
	sum, err := store.SumTransactionsByUser(context.Background(), user.ID)
	if err != nil {
		test.Fatalf("sum transactions: %v", err)
	}
	if sum != updated.BalanceCents {
		test.Fatalf("balance %d does not match transaction sum %d", updated.BalanceCents, sum)
	}
}

func TestDepositRejectsNonPositiveAmount(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	service := mustNewService(test, store)
	user := seedUser(test, store, "zero-deposit", 0)

	for _, amount := range []AmountCents{0, -100} {
		if _, err := service.Deposit(context.Background(), user.ID, amount, "UPI"); !errors.Is(err, ErrInvalidAmount) {
			test.Fatalf("expected ErrInvalidAmount for amount %d, got %v", amount, err)
		}
	}
	if len(store.transactions) != 0 {
		test.Fatalf("expected no transactions, got %d", len(store.transactions))
	}
}

func TestDepositUnknownUser(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	service := mustNewService(test, store)

	if _, err := service.Deposit(context.Background(), 42, 1000, "card"); !errors.Is(err, ErrUserNotFound) {
		test.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestWithdrawDebitsBalance(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	service := mustNewService(test, store)
	user := seedUser(test, store, "withdrawer", 10000)

	transaction, err := service.Withdraw(context.Background(), user.ID, 4000, "bank")
	if err != nil {
		test.Fatalf("withdraw: %v", err)
	}
	if transaction.AmountCents != -4000 {
		test.Fatalf("expected amount -4000, got %d", transaction.AmountCents)
	}
	if transaction.Type != TransactionWithdrawal {
		test.Fatalf("expected withdrawal transaction, got %s", transaction.Type)
	}
	updated, _ := store.GetUser(context.Background(), user.ID)
	if updated.BalanceCents != 6000 {
		test.Fatalf("expected balance 6000, got %d", updated.BalanceCents)
	}
}

func TestWithdrawInsufficientBalance(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	service := mustNewService(test, store)
	user := seedUser(test, store, "overdrawer", 2000)

	if _, err := service.Withdraw(context.Background(), user.ID, 3000, "bank"); !errors.Is(err, ErrInsufficientBalance) {
		test.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	updated, _ := store.GetUser(context.Background(), user.ID)
	if updated.BalanceCents != 2000 {
		test.Fatalf("expected balance unchanged at 2000, got %d", updated.BalanceCents)
	}
	transactions, _ := store.ListTransactionsByUser(context.Background(), user.ID)
	if len(transactions) != 1 {
		test.Fatalf("expected only the seed transaction, got %d", len(transactions))
	}
}

func TestUserTransactionsNewestFirst(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	service := mustNewService(test, store)
	user := seedUser(test, store, "historian", 0)

	for _, amount := range []AmountCents{1000, 2000, 3000} {
		if _, err := service.Deposit(context.Background(), user.ID, amount, "UPI"); err != nil {
			test.Fatalf("deposit: %v", err)
		}
	}
	transactions, err := service.UserTransactions(context.Background(), user.ID)
	if err != nil {
		test.Fatalf("list transactions: %v", err)
	}
	if len(transactions) != 3 {
		test.Fatalf("expected 3 transactions, got %d", len(transactions))
	}
	if transactions[0].AmountCents != 3000 || transactions[2].AmountCents != 1000 {
		test.Fatalf("expected newest-first ordering, got %v", transactions)
	}
}

func TestSignUpRejectsBlankFields(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	service := mustNewService(test, store)

	cases := []struct {
		name string
		user User
	}{
		{name: "blank username", user: User{Email: "a@b.c", PasswordHash: "x"}},
		{name: "blank email", user: User{Username: "a", PasswordHash: "x"}},
		{name: "blank password", user: User{Username: "a", Email: "a@b.c"}},
	}
	for _, testCase := range cases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			if _, err := service.SignUp(context.Background(), testCase.user); !errors.Is(err, ErrInvalidUser) {
				test.Fatalf("expected ErrInvalidUser, got %v", err)
			}
		})
	}
}

func TestSignUpStartsWithZeroBalance(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	service := mustNewService(test, store)

	user, err := service.SignUp(context.Background(), User{
		Username:     "fresh",
		Email:        "fresh@example.com",
		PasswordHash: "hash",
		BalanceCents: 999999,
	})
	if err != nil {
		test.Fatalf("sign up: %v", err)
	}
	if user.BalanceCents != 0 {
		test.Fatalf("expected zero starting balance, got %d", user.BalanceCents)
	}
}

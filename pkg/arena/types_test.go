package arena

import (
	"errors"
	"testing"
)

func TestParseTournamentScope(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		input   string
		want    TournamentScope
		wantErr error
	}{
		{name: "empty defaults to all", input: "", want: ScopeAll},
		{name: "featured", input: "featured", want: ScopeFeatured},
		{name: "mixed case", input: " Live ", want: ScopeLive},
		{name: "free", input: "free", want: ScopeFree},
		{name: "unknown", input: "archived", wantErr: ErrInvalidTournamentScope},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			scope, err := ParseTournamentScope(tc.input)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected error %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if scope != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, scope)
			}
		})
	}
}

func TestParseTournamentStatus(t *testing.T) {
	t.Parallel()
	if _, err := ParseTournamentStatus("cancelled"); !errors.Is(err, ErrInvalidTournamentStatus) {
		t.Fatalf("expected ErrInvalidTournamentStatus, got %v", err)
	}
	status, err := ParseTournamentStatus("LIVE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != TournamentLive {
		t.Fatalf("expected live, got %q", status)
	}
}

func TestValidateTransactionAmount(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		kind    TransactionType
		amount  AmountCents
		wantErr error
	}{
		{name: "deposit positive", kind: TransactionDeposit, amount: 100},
		{name: "deposit negative", kind: TransactionDeposit, amount: -100, wantErr: ErrInvalidAmount},
		{name: "prize zero", kind: TransactionPrize, amount: 0, wantErr: ErrInvalidAmount},
		{name: "withdrawal negative", kind: TransactionWithdrawal, amount: -100},
		{name: "withdrawal positive", kind: TransactionWithdrawal, amount: 100, wantErr: ErrInvalidAmount},
		{name: "entry fee negative", kind: TransactionEntryFee, amount: -100},
		{name: "unknown type", kind: TransactionType("refund"), amount: 100, wantErr: ErrInvalidTransactionType},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := validateTransactionAmount(tc.kind, tc.amount)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected error %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

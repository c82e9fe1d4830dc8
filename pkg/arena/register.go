package arena

import (
	"context"
	"fmt"
)

// Register enrolls a user into a tournament, charging the entry fee when one
// is set. The capacity check, duplicate check, balance check and all writes
// run inside one store transaction with the tournament (and, for paid
// tournaments, the user) row locked, so concurrent attempts serialize: no
// overbooking, no double charge, no duplicate registration.
func (service *Service) Register(ctx context.Context, userID uint64, tournamentID uint64) (Registration, error) {
	var (
		created Registration
		fee     AmountCents
	)
	operationError := service.store.WithTx(ctx, func(ctx context.Context, txStore Store) error {
		tournament, err := txStore.GetTournamentForUpdate(ctx, tournamentID)
		if err != nil {
			return err
		}
		if tournament.CurrentPlayers >= tournament.MaxPlayers {
			return ErrTournamentFull
		}
		registered, err := txStore.HasRegistration(ctx, userID, tournamentID)
		if err != nil {
			return err
		}
		if registered {
			return ErrDuplicateRegistration
		}
		fee = tournament.EntryFeeCents
		if fee > 0 {
			if err := service.chargeEntryFee(ctx, txStore, userID, tournament); err != nil {
				return err
			}
		} else if _, err := txStore.GetUser(ctx, userID); err != nil {
			return err
		}
		created, err = txStore.CreateRegistration(ctx, Registration{
			UserID:        userID,
			TournamentID:  tournamentID,
			RegisteredAt:  service.nowFn(),
			Status:        RegistrationRegistered,
			Placement:     nil,
			EarningsCents: 0,
		})
		if err != nil {
			return err
		}
		return txStore.IncrementTournamentPlayers(ctx, tournamentID)
	})
	service.logOperation(ctx, OperationLog{
		Operation:      operationRegister,
		UserID:         userID,
		TournamentID:   tournamentID,
		RegistrationID: created.ID,
		Amount:         fee,
		Error:          operationError,
	})
	if operationError != nil {
		return Registration{}, operationError
	}
	return created, nil
}

// chargeEntryFee debits the entry fee from the locked user row and appends
// the paired entry_fee transaction. The balance check is re-run here, inside
// the same transaction, rather than trusting an earlier read.
func (service *Service) chargeEntryFee(ctx context.Context, txStore Store, userID uint64, tournament Tournament) error {
	user, err := txStore.GetUserForUpdate(ctx, userID)
	if err != nil {
		return err
	}
	if user.BalanceCents < tournament.EntryFeeCents {
		return ErrInsufficientBalance
	}
	tournamentID := tournament.ID
	_, err = service.applyTransaction(ctx, txStore, Transaction{
		UserID:       userID,
		AmountCents:  -tournament.EntryFeeCents,
		Type:         TransactionEntryFee,
		Description:  fmt.Sprintf("Entry fee for %s", tournament.Title),
		TournamentID: &tournamentID,
	})
	return err
}

// RecordResult finalizes a registration with its placement and earnings and,
// for a positive prize, credits the winnings through the ledger. A
// registration is finalized at most once; a repeat call fails with
// ErrResultAlreadyRecorded so a prize can never be paid twice.
func (service *Service) RecordResult(ctx context.Context, registrationID uint64, placement int, earnings AmountCents) (Registration, error) {
	if placement < 1 {
		return Registration{}, fmt.Errorf("%w: placement must be at least 1", ErrInvalidPlacement)
	}
	if earnings < 0 {
		return Registration{}, fmt.Errorf("%w: earnings must not be negative", ErrInvalidAmount)
	}
	var updated Registration
	operationError := service.store.WithTx(ctx, func(ctx context.Context, txStore Store) error {
		registration, err := txStore.GetRegistration(ctx, registrationID)
		if err != nil {
			return err
		}
		if registration.Status == RegistrationCompleted {
			return ErrResultAlreadyRecorded
		}
		updated, err = txStore.UpdateRegistrationResult(ctx, registrationID, RegistrationCompleted, &placement, earnings)
		if err != nil {
			return err
		}
		if earnings == 0 {
			return nil
		}
		return service.creditEarnings(ctx, txStore, registration, placement, earnings)
	})
	service.logOperation(ctx, OperationLog{
		Operation:      operationRecordResult,
		UserID:         updated.UserID,
		TournamentID:   updated.TournamentID,
		RegistrationID: registrationID,
		Amount:         earnings,
		Error:          operationError,
	})
	if operationError != nil {
		return Registration{}, operationError
	}
	return updated, nil
}

// creditEarnings appends the prize transaction paired with a finalized
// registration.
func (service *Service) creditEarnings(ctx context.Context, txStore Store, registration Registration, placement int, earnings AmountCents) error {
	tournament, err := txStore.GetTournament(ctx, registration.TournamentID)
	if err != nil {
		return err
	}
	tournamentID := tournament.ID
	_, err = service.applyTransaction(ctx, txStore, Transaction{
		UserID:       registration.UserID,
		AmountCents:  earnings,
		Type:         TransactionPrize,
		Description:  fmt.Sprintf("Prize for %s", tournament.Title),
		TournamentID: &tournamentID,
		MetadataJSON: marshalMetadata(map[string]any{"placement": placement}),
	})
	return err
}

package validator

import (
	"errors"
	"fmt"

	"finance_ledger/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInvalidOwner           = errors.New("invalid account owner")
	ErrTransferLimitExceeded  = errors.New("transfer limit exceeded")
	ErrInitialDepositTooLarge = errors.New("initial deposit exceeds limit")
)

// PolicyValidator enforces the configured ledger limits. Its checks run
// before any account is touched.
type PolicyValidator struct {
	maxTransfer       decimal.Decimal
	maxInitialDeposit decimal.Decimal
}

func NewPolicyValidator(maxTransfer, maxInitialDeposit decimal.Decimal) *PolicyValidator {
	return &PolicyValidator{
		maxTransfer:       maxTransfer,
		maxInitialDeposit: maxInitialDeposit,
	}
}

func (v *PolicyValidator) MaxTransfer() decimal.Decimal {
	return v.maxTransfer
}

func (v *PolicyValidator) MaxInitialDeposit() decimal.Decimal {
	return v.maxInitialDeposit
}

// ValidateTransferAmount rejects transfers above the configured maximum. The
// maximum itself is allowed.
func (v *PolicyValidator) ValidateTransferAmount(amount decimal.Decimal) error {
	if amount.GreaterThan(v.maxTransfer) {
		return fmt.Errorf("%w: %s exceeds the maximum of %s",
			ErrTransferLimitExceeded, amount.StringFixed(2), v.maxTransfer.StringFixed(2))
	}
	return nil
}

// ValidateAccountOpening checks the owner and the initial deposit of a new
// account and reports every problem found.
func (v *PolicyValidator) ValidateAccountOpening(owner *domain.User, initialDeposit decimal.Decimal) error {
	var errs []error

	if owner == nil || owner.ID == "" {
		errs = append(errs, ErrInvalidOwner)
	}

	if err := v.ValidateInitialDeposit(initialDeposit); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// ValidateInitialDeposit accepts deposits from zero up to the configured
// maximum.
func (v *PolicyValidator) ValidateInitialDeposit(initialDeposit decimal.Decimal) error {
	if initialDeposit.IsNegative() {
		return fmt.Errorf("%w: initial deposit cannot be negative", ErrInvalidAmount)
	}
	if initialDeposit.GreaterThan(v.maxInitialDeposit) {
		return fmt.Errorf("%w: %s exceeds the maximum of %s",
			ErrInitialDepositTooLarge, initialDeposit.StringFixed(2), v.maxInitialDeposit.StringFixed(2))
	}
	return nil
}

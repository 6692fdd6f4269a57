package memory

import (
	"finance_ledger/internal/repository"
)

var (
	_ repository.UserRepository        = (*UserRepository)(nil)
	_ repository.AccountRepository     = (*AccountRepository)(nil)
	_ repository.TransactionRepository = (*TransactionRepository)(nil)
)

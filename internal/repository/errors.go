package repository

import "errors"

// ErrNotFound indicates an entity was not located.
var ErrNotFound = errors.New("repository: not found")

// ErrInsufficientCredits indicates a conditional debit found no spendable balance.
var ErrInsufficientCredits = errors.New("repository: insufficient credits")

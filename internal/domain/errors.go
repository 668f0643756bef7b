package domain

import "errors"

var (
	ErrNotFound                 = errors.New("not found")
	ErrInvalidArgument          = errors.New("invalid argument")
	ErrUnauthorized             = errors.New("unauthorized")
	ErrInvalidState             = errors.New("invalid state")
	ErrInsufficientContribution = errors.New("contribution amount is too low")
	ErrNotAContributor          = errors.New("only contributors can vote")
	ErrAlreadyVoted             = errors.New("already voted")
	ErrInsufficientVotes        = errors.New("not enough contributor votes")
	ErrAlreadyCompleted         = errors.New("request already completed")
	ErrInsufficientBalance      = errors.New("requested amount exceeds custodied balance")
)

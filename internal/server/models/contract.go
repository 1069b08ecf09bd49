package models

import (
	"fmt"
	"strings"
	"time"
)

// ContractStatus is the state of a user's application to a job posting.
type ContractStatus string

const (
	ContractPending   ContractStatus = "PENDING"
	ContractActive    ContractStatus = "ACTIVE"
	ContractInactive  ContractStatus = "INACTIVE"
	ContractCompleted ContractStatus = "COMPLETED"
	ContractCancelled ContractStatus = "CANCELLED"
)

var contractTransitions = map[ContractStatus][]ContractStatus{
	ContractPending:   {ContractActive, ContractInactive, ContractCancelled},
	ContractActive:    {ContractInactive, ContractCompleted, ContractCancelled},
	ContractInactive:  {ContractActive, ContractCancelled},
	ContractCompleted: nil,
	ContractCancelled: nil,
}

// ParseContractStatus accepts a status name in any case.
func ParseContractStatus(s string) (ContractStatus, error) {
	st := ContractStatus(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := contractTransitions[st]; !ok {
		return "", fmt.Errorf("unknown contract status %q", s)
	}
	return st, nil
}

// CanTransition reports whether a contract may move from s to next.
// Staying in the same status is always allowed.
func (s ContractStatus) CanTransition(next ContractStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range contractTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s ContractStatus) Terminal() bool {
	return len(contractTransitions[s]) == 0
}

// MaxLinkHashLength bounds Contract.LinkHash.
const MaxLinkHashLength = 64

// Contract tracks a user's application to one scraped job posting,
// identified by the hash of its link.
type Contract struct {
	ID        string
	UserID    string
	LinkHash  string
	Status    ContractStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

package service

import (
	"fmt"
	"strings"

	"github.com/savanna-table/savanna-backend/internal/app/model"
)

// StatusPolicy decides whether an admin may move an order between two statuses
type StatusPolicy interface {
	CanTransition(from, to model.OrderStatus) error
	Strict() bool
}

// NewStatusPolicy returns the kitchen workflow when strict, otherwise a policy that allows any move
func NewStatusPolicy(strict bool) StatusPolicy {
	if strict {
		return strictPolicy{}
	}
	return permissivePolicy{}
}

type permissivePolicy struct{}

func (permissivePolicy) CanTransition(from, to model.OrderStatus) error {
	if !to.Valid() {
		return ErrInvalidOrderStatus
	}
	return nil
}

func (permissivePolicy) Strict() bool { return false }

// forwardTransitions is the kitchen workflow; cancelled is reachable from every non-terminal status
var forwardTransitions = map[model.OrderStatus]model.OrderStatus{
	model.OrderStatusPending:        model.OrderStatusConfirmed,
	model.OrderStatusConfirmed:      model.OrderStatusPreparing,
	model.OrderStatusPreparing:      model.OrderStatusOutForDelivery,
	model.OrderStatusOutForDelivery: model.OrderStatusDelivered,
}

type strictPolicy struct{}

func (strictPolicy) Strict() bool { return true }

func (strictPolicy) CanTransition(from, to model.OrderStatus) error {
	if !to.Valid() {
		return ErrInvalidOrderStatus
	}
	if from == to {
		return nil
	}
	for _, next := range ValidTransitionsFrom(from) {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s (allowed from %s: %s)",
		ErrInvalidTransition, from, to, from, describeValidFrom(from))
}

// IsTerminal reports whether no further status change is possible in the workflow
func IsTerminal(status model.OrderStatus) bool {
	return status == model.OrderStatusDelivered || status == model.OrderStatusCancelled
}

// ValidTransitionsFrom lists the workflow successors of status
func ValidTransitionsFrom(status model.OrderStatus) []model.OrderStatus {
	if IsTerminal(status) {
		return nil
	}
	var nexts []model.OrderStatus
	if next, ok := forwardTransitions[status]; ok {
		nexts = append(nexts, next)
	}
	return append(nexts, model.OrderStatusCancelled)
}

func describeValidFrom(status model.OrderStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	names := make([]string, len(nexts))
	for i, s := range nexts {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

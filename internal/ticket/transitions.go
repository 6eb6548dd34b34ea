package ticket

import (
	"fmt"

	"repairshop-backend/internal/models"
)

// Void is reachable only through VoidOrder and VoidService, so it is not
// listed as a target here.
var orderTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending: {
		models.OrderStatusInProgress,
		models.OrderStatusReadyForPickup,
		models.OrderStatusCompleted,
	},
	models.OrderStatusInProgress: {
		models.OrderStatusPending,
		models.OrderStatusReadyForPickup,
		models.OrderStatusCompleted,
	},
	models.OrderStatusReadyForPickup: {
		models.OrderStatusInProgress,
		models.OrderStatusCompleted,
		models.OrderStatusCollected,
	},
	models.OrderStatusCompleted: {
		models.OrderStatusReadyForPickup,
		models.OrderStatusCollected,
	},
	models.OrderStatusCollected: {
		models.OrderStatusReadyForPickup,
	},
	models.OrderStatusVoid: {},
}

var serviceTransitions = map[models.ServiceStatus][]models.ServiceStatus{
	models.ServiceStatusPending: {
		models.ServiceStatusInProgress,
		models.ServiceStatusCompleted,
	},
	models.ServiceStatusInProgress: {
		models.ServiceStatusPending,
		models.ServiceStatusCompleted,
	},
	models.ServiceStatusCompleted: {
		models.ServiceStatusInProgress,
	},
	models.ServiceStatusVoid: {},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to models.OrderStatus) bool {
	for _, s := range orderTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CanTransitionService reports whether a service line may move between statuses.
func CanTransitionService(from, to models.ServiceStatus) bool {
	for _, s := range serviceTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s models.OrderStatus) bool {
	_, ok := orderTransitions[s]
	return ok
}

func ValidServiceStatus(s models.ServiceStatus) bool {
	_, ok := serviceTransitions[s]
	return ok
}

func checkOrderTransition(from, to models.OrderStatus) error {
	if !ValidOrderStatus(to) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

func checkServiceTransition(from, to models.ServiceStatus) error {
	if !ValidServiceStatus(to) {
		return fmt.Errorf("%w: unknown service status %q", ErrInvalidTransition, to)
	}
	if !CanTransitionService(from, to) {
		return fmt.Errorf("%w: service %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

package domain

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions leave s.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

type Actor string

const (
	ActorCustomer Actor = "customer"
	ActorStaff    Actor = "staff"
)

// CanTransition encodes the order lifecycle edges. Customers may only cancel
// while the order is still pending; cancelling in-flight work is staff-only.
func CanTransition(from, to Status, by Actor) bool {
	switch from {
	case StatusPending:
		switch to {
		case StatusProcessing:
			return by == ActorStaff
		case StatusCancelled:
			return by == ActorCustomer || by == ActorStaff
		}
	case StatusProcessing:
		switch to {
		case StatusShipped, StatusCancelled:
			return by == ActorStaff
		}
	case StatusShipped:
		return to == StatusDelivered && by == ActorStaff
	}
	return false
}

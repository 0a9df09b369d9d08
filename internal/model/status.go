package model

// Status is an order's lifecycle state. The string values are part of the
// external contract and must not change.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusPaid       Status = "Paid"
	StatusProcessing Status = "Processing"
	StatusShipped    Status = "Shipped"
	StatusDelivered  Status = "Delivered"
	StatusCancelled  Status = "Cancelled"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []Status{
	StatusPending,
	StatusPaid,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

func (s Status) String() string {
	return string(s)
}

type transitionKey struct {
	from Status
	role Role
}

// transitions maps (current status, actor role) to the statuses that actor may set.
var transitions = map[transitionKey][]Status{
	// Customers may only withdraw an order that nobody has started on.
	{StatusPending, RoleCustomer}: {StatusCancelled},

	{StatusPending, RoleSeller}:    {StatusProcessing, StatusCancelled},
	{StatusPaid, RoleSeller}:       {StatusProcessing, StatusCancelled},
	{StatusProcessing, RoleSeller}: {StatusShipped, StatusCancelled},

	{StatusProcessing, RoleCourier}: {StatusShipped},
	{StatusShipped, RoleCourier}:    {StatusDelivered},

	{StatusPending, RoleAdmin}:    {StatusPaid, StatusProcessing, StatusCancelled},
	{StatusPaid, RoleAdmin}:       {StatusProcessing, StatusCancelled},
	{StatusProcessing, RoleAdmin}: {StatusShipped, StatusCancelled},
	{StatusShipped, RoleAdmin}:    {StatusDelivered, StatusCancelled},

	{StatusPending, RoleSupervisor}:    {StatusProcessing, StatusCancelled},
	{StatusPaid, RoleSupervisor}:       {StatusProcessing, StatusCancelled},
	{StatusProcessing, RoleSupervisor}: {StatusShipped, StatusCancelled},
	{StatusShipped, RoleSupervisor}:    {StatusDelivered, StatusCancelled},
}

// AllowedTransitions returns the statuses role may move an order to from current.
func AllowedTransitions(current Status, role Role) []Status {
	allowed := transitions[transitionKey{current, role}]
	out := make([]Status, len(allowed))
	copy(out, allowed)
	return out
}

// CanTransition reports whether role may move an order from current to next.
func CanTransition(current, next Status, role Role) bool {
	for _, s := range transitions[transitionKey{current, role}] {
		if s == next {
			return true
		}
	}
	return false
}

// CanMove reports whether the actor may move this order to next. Sellers may
// only move orders they supply alone; an order spanning several sellers is
// moved by staff.
func (o *Order) CanMove(next Status, role Role, actorID string) bool {
	if role == RoleSeller && (o.SellerID == nil || *o.SellerID != actorID) {
		return false
	}
	return CanTransition(o.Status, next, role)
}

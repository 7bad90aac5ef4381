package models

// WizardState is a step of the search conversation.
type WizardState int

const (
	StateIdle WizardState = iota
	StateAwaitingLocation
	StateAwaitingCheckIn
	StateAwaitingCheckOut
	StateAwaitingGuests
	StateAwaitingAmenities
	StateAwaitingPriceRange
	StateCompleted
	StateCancelled
)

var stateNames = map[WizardState]string{
	StateIdle:               "idle",
	StateAwaitingLocation:   "awaiting_location",
	StateAwaitingCheckIn:    "awaiting_check_in",
	StateAwaitingCheckOut:   "awaiting_check_out",
	StateAwaitingGuests:     "awaiting_guests",
	StateAwaitingAmenities:  "awaiting_amenities",
	StateAwaitingPriceRange: "awaiting_price_range",
	StateCompleted:          "completed",
	StateCancelled:          "cancelled",
}

func (s WizardState) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// Active reports whether the wizard is mid-flow.
func (s WizardState) Active() bool {
	return s >= StateAwaitingLocation && s <= StateAwaitingPriceRange
}

// CalendarState is scoped to the date-picking sub-flow.
type CalendarState struct {
	DisplayedYear  int
	DisplayedMonth int
	PendingCheckIn *Date
}

// Wizard is the in-flight search of one user.
type Wizard struct {
	State    WizardState
	Criteria SearchCriteria
	Calendar CalendarState
}

// NewWizard starts an empty search at the location step.
func NewWizard() *Wizard {
	return &Wizard{State: StateAwaitingLocation}
}

// Discard drops collected criteria and calendar state and moves to state.
func (w *Wizard) Discard(state WizardState) {
	w.Criteria = SearchCriteria{}
	w.Calendar = CalendarState{}
	w.State = state
}

// Package bot implements the search conversation: the wizard state machine,
// result presentation, feedback and stats replies. It is transport-agnostic;
// inbound updates arrive as Events and outbound operations leave as Replies.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"airbnb-bot/calendar"
	"airbnb-bot/events"
	"airbnb-bot/metrics"
	"airbnb-bot/models"
	"airbnb-bot/services"
	"airbnb-bot/session"
	"airbnb-bot/utils"
)

// EventKind distinguishes inbound updates.
type EventKind int

const (
	EventText EventKind = iota
	EventCommand
	EventCallback
)

func (k EventKind) String() string {
	switch k {
	case EventCommand:
		return "command"
	case EventCallback:
		return "callback"
	}
	return "text"
}

// Event is one inbound update from the chat transport. For commands Text
// holds the command name without the slash; for callbacks Data holds the
// token and MessageID the message carrying the keyboard.
type Event struct {
	Kind      EventKind
	UserID    string
	FirstName string
	MessageID int
	Text      string
	Data      string
}

// Responder delivers replies to the user.
type Responder interface {
	Respond(ctx context.Context, r Reply) error
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(ctx context.Context, r Reply) error

func (f ResponderFunc) Respond(ctx context.Context, r Reply) error { return f(ctx, r) }

type Searcher interface {
	Search(ctx context.Context, criteria models.SearchCriteria) ([]*models.Listing, error)
}

type FeedbackRecorder interface {
	OnFeedback(ctx context.Context, userID, listingID string, liked bool) (services.Ack, error)
}

type Profiles interface {
	Touch(ctx context.Context, userID string) (*models.UserProfile, bool, error)
	RecordSearch(ctx context.Context, userID string, c models.SearchCriteria) error
	Summary(ctx context.Context, userID string) (models.ProfileSummary, error)
}

type Scorer interface {
	Score(ctx context.Context, userID string, f models.Features) (float64, bool, error)
}

// Deps wires the engine to its collaborators. Publisher, Metrics, Location
// and Now are optional.
type Deps struct {
	Sessions     *session.Store
	Search       Searcher
	Ledger       FeedbackRecorder
	Profiles     Profiles
	Scorer       Scorer
	Publisher    events.Publisher
	Metrics      *metrics.Metrics
	Logger       *utils.Logger
	Location     *time.Location
	Now          func() time.Time
	ScoreTimeout time.Duration
}

// Engine drives one wizard per user. Events for the same user must be
// delivered one at a time and in order; different users may run in parallel.
type Engine struct {
	deps Deps
}

func New(deps Deps) *Engine {
	if deps.Publisher == nil {
		deps.Publisher = events.NopPublisher{}
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.ScoreTimeout <= 0 {
		deps.ScoreTimeout = 2 * time.Second
	}
	if deps.Logger == nil {
		deps.Logger = utils.NewNopLogger()
	}
	return &Engine{deps: deps}
}

// State reports the user's wizard state, StateIdle when there is none.
func (e *Engine) State(userID string) models.WizardState {
	if w := e.deps.Sessions.Wizard(userID); w != nil {
		return w.State
	}
	return models.StateIdle
}

func (e *Engine) today() models.Date {
	return models.DateOf(e.deps.Now().In(e.deps.Location))
}

// Handle processes one event and writes its replies to out.
func (e *Engine) Handle(ctx context.Context, ev Event, out Responder) {
	e.deps.Metrics.Event(ev.Kind.String())

	var replies []Reply
	switch ev.Kind {
	case EventCommand:
		replies = e.command(ctx, ev)
	case EventCallback:
		replies = e.callback(ctx, ev)
	default:
		replies = e.text(ctx, ev, out)
	}
	e.emit(ctx, ev.UserID, out, replies...)
}

func (e *Engine) emit(ctx context.Context, userID string, out Responder, replies ...Reply) {
	for _, r := range replies {
		if err := out.Respond(ctx, r); err != nil {
			e.deps.Logger.Error("[bot] reply to %s failed: %v", userID, err)
		}
	}
}

// ── commands ────────────────────────────────────────────────────────────────

const (
	msgGeneric      = "Sorry, something went wrong. Please try again."
	msgUseSearch    = "Use /search to start a new search!"
	msgUseCalendar  = "Please use the calendar to select your %s date."
	msgGuestsPrompt = "How many guests will be staying?"
	msgGuestsRange  = "Please enter a valid number of guests (1-16)"
	msgPricePrompt  = "Great! Now, what's your price range per night? (format: min-max)\n" +
		"Example: 100-200\n" +
		"Or just enter a maximum price like: 200"
	msgPriceFormat   = "Please enter a valid number or range (e.g., 100-200)"
	msgPriceInverted = "The minimum price is above the maximum. Please enter a range like 100-200."
	msgAfterCheckIn  = "Please select a date after check-in"
	msgPastDate      = "That date is in the past. Please pick another one."
	msgExpired       = "Sorry, I couldn't find this listing's information. Please try searching again."
	msgFeedbackError = "Sorry, there was an error processing your feedback. Please try again."
	msgSearchError   = "Sorry, something went wrong while searching. Please send your price range again to retry."
	msgHelp          = "Here are the available commands:\n\n" +
		"/start - Start the bot\n" +
		"/search - Search for Airbnb properties\n" +
		"/stats - View your search statistics and learning profile\n" +
		"/preferences - View your current preferences\n" +
		"/help - Show this help message\n" +
		"/cancel - Cancel the current operation"
)

func (e *Engine) command(ctx context.Context, ev Event) []Reply {
	switch strings.ToLower(ev.Text) {
	case "start":
		return e.start(ctx, ev)
	case "help":
		return []Reply{send(msgHelp)}
	case "search":
		return e.startSearch(ctx, ev.UserID)
	case "cancel":
		return e.cancel(ev.UserID)
	case "stats":
		return e.stats(ctx, ev.UserID)
	case "preferences":
		return e.preferences(ctx, ev.UserID)
	}
	return []Reply{send("Sorry, I don't know that command. Send /help to see what I can do.")}
}

func (e *Engine) start(ctx context.Context, ev Event) []Reply {
	if _, created, err := e.deps.Profiles.Touch(ctx, ev.UserID); err != nil {
		e.deps.Logger.Error("[bot] start for %s: %v", ev.UserID, err)
		return []Reply{send(msgGeneric)}
	} else if created {
		e.deps.Logger.Info("[bot] new user %s", ev.UserID)
	}

	name := ev.FirstName
	if name == "" {
		name = "there"
	}
	return []Reply{send(fmt.Sprintf(
		"👋 Hi %s! I'm your Airbnb recommendation assistant.\n\n"+
			"I can help you find the perfect place to stay based on your preferences.\n\n"+
			"Commands:\n"+
			"/search - Start searching for accommodations\n"+
			"/stats - View your search statistics and preferences\n"+
			"/help - Show this help message", name))}
}

func (e *Engine) startSearch(ctx context.Context, userID string) []Reply {
	if _, _, err := e.deps.Profiles.Touch(ctx, userID); err != nil {
		e.deps.Logger.Warn("[bot] touch %s: %v", userID, err)
	}
	e.deps.Sessions.SaveWizard(userID, models.NewWizard())
	return []Reply{send("Let's find you a great place to stay! 🏠\nWhere would you like to go?")}
}

func (e *Engine) cancel(userID string) []Reply {
	if w := e.deps.Sessions.Wizard(userID); w != nil && w.State.Active() {
		w.Discard(models.StateCancelled)
		e.deps.Sessions.SaveWizard(userID, w)
		e.deps.Logger.Info("[bot] search cancelled by user %s", userID)
	}
	return []Reply{send("Search cancelled. " + msgUseSearch)}
}

func (e *Engine) stats(ctx context.Context, userID string) []Reply {
	summary, err := e.deps.Profiles.Summary(ctx, userID)
	if err != nil {
		e.deps.Logger.Error("[bot] stats for %s: %v", userID, err)
		return []Reply{send("Sorry, there was an error retrieving your statistics.")}
	}
	return []Reply{{Kind: SendMessage, Text: renderStats(summary), Markdown: true}}
}

func (e *Engine) preferences(ctx context.Context, userID string) []Reply {
	summary, err := e.deps.Profiles.Summary(ctx, userID)
	if err != nil {
		e.deps.Logger.Error("[bot] preferences for %s: %v", userID, err)
		return []Reply{send("Sorry, there was an error retrieving your preferences.")}
	}
	if summary.IsEmpty() && summary.SearchCount == 0 {
		return []Reply{send("I don't have any preferences saved for you yet. Use /search to start looking for properties!")}
	}
	return []Reply{send(renderPreferences(summary))}
}

// ── free text ───────────────────────────────────────────────────────────────

func (e *Engine) text(ctx context.Context, ev Event, out Responder) []Reply {
	w := e.deps.Sessions.Wizard(ev.UserID)
	if w == nil || !w.State.Active() {
		return []Reply{send(msgUseSearch)}
	}

	switch w.State {
	case models.StateAwaitingLocation:
		return e.onLocation(ev.UserID, w, ev.Text)
	case models.StateAwaitingCheckIn:
		return []Reply{send(fmt.Sprintf(msgUseCalendar, "check-in"))}
	case models.StateAwaitingCheckOut:
		return []Reply{send(fmt.Sprintf(msgUseCalendar, "check-out"))}
	case models.StateAwaitingGuests:
		return e.onGuests(ev.UserID, w, ev.Text)
	case models.StateAwaitingAmenities:
		return []Reply{send("Please choose amenities with the buttons above, then press ✅ Done.")}
	case models.StateAwaitingPriceRange:
		return e.onPrice(ctx, ev.UserID, w, ev.Text, out)
	}
	return nil
}

func (e *Engine) onLocation(userID string, w *models.Wizard, text string) []Reply {
	location := strings.TrimSpace(text)
	if location == "" {
		return []Reply{send("Where would you like to go? Please type a city or area.")}
	}

	today := e.today()
	w.Criteria.Location = location
	w.Calendar.DisplayedYear = today.Year
	w.Calendar.DisplayedMonth = int(today.Month)
	w.State = models.StateAwaitingCheckIn
	e.deps.Sessions.SaveWizard(userID, w)

	e.deps.Logger.Info("[bot] user %s location %q", userID, location)
	grid := calendar.Render(today.Year, today.Month, today)
	return []Reply{sendWithKeyboard("Please select your check-in date:", calendarKeyboard(grid))}
}

func (e *Engine) onGuests(userID string, w *models.Wizard, text string) []Reply {
	guests, err := models.ParseGuestCount(text)
	if err != nil {
		return []Reply{send(msgGuestsRange)}
	}

	w.Criteria.GuestCount = guests
	w.Criteria.Amenities = models.NewAmenitySet()
	w.State = models.StateAwaitingAmenities
	e.deps.Sessions.SaveWizard(userID, w)

	return []Reply{sendWithKeyboard(
		"What amenities are important to you? Select all that apply:\n"+
			"(Click an option to select/unselect, then click Done when finished)",
		amenitiesKeyboard(w.Criteria.Amenities),
	)}
}

func (e *Engine) onPrice(ctx context.Context, userID string, w *models.Wizard, text string, out Responder) []Reply {
	price, err := models.ParsePriceRange(text)
	if err != nil {
		return []Reply{send(msgPriceFormat)}
	}
	if err := price.Validate(); err != nil {
		if errors.Is(err, models.ErrPriceInverted) {
			return []Reply{send(msgPriceInverted)}
		}
		return []Reply{send(msgPriceFormat)}
	}

	criteria := w.Criteria
	criteria.Amenities = w.Criteria.Amenities.Clone()
	criteria.Price = price

	today := e.today()
	if err := criteria.Validate(today); err != nil {
		if errors.Is(err, models.ErrDateInPast) {
			// The wizard sat idle past the chosen dates; pick them again.
			w.Criteria.CheckIn, w.Criteria.CheckOut = models.Date{}, models.Date{}
			w.Calendar = models.CalendarState{DisplayedYear: today.Year, DisplayedMonth: int(today.Month)}
			w.State = models.StateAwaitingCheckIn
			e.deps.Sessions.SaveWizard(userID, w)
			grid := calendar.Render(today.Year, today.Month, today)
			return []Reply{sendWithKeyboard("Your dates are now in the past. Please select a new check-in date:", calendarKeyboard(grid))}
		}
		e.deps.Logger.Warn("[bot] user %s criteria rejected: %v", userID, err)
		return []Reply{send(msgGeneric)}
	}

	e.emit(ctx, userID, out, send("🔍 Searching for properties..."))
	e.deps.Logger.Info("[bot] user %s searching location=%q dates=%s..%s guests=%d price=%d-%d amenities=%v",
		userID, criteria.Location, criteria.CheckIn, criteria.CheckOut, criteria.GuestCount,
		criteria.Price.Min, criteria.Price.Max, criteria.Amenities.Strings())

	listings, err := e.deps.Search.Search(ctx, criteria)
	if err != nil {
		e.deps.Logger.Error("[bot] search for %s failed: %v", userID, err)
		return []Reply{send(msgSearchError)}
	}

	w.Criteria = criteria
	w.State = models.StateCompleted
	e.deps.Sessions.SaveWizard(userID, w)
	e.afterSearch(ctx, userID, criteria, listings)

	if len(listings) == 0 {
		return []Reply{send("Sorry, no properties found matching your criteria. 😔\n" +
			"Try adjusting your price range, dates, location or number of guests.\n\n" +
			msgUseSearch)}
	}
	return e.presentResults(ctx, userID, criteria, listings)
}

func (e *Engine) afterSearch(ctx context.Context, userID string, c models.SearchCriteria, listings []*models.Listing) {
	if err := e.deps.Profiles.RecordSearch(ctx, userID, c); err != nil {
		e.deps.Logger.Error("[bot] record search for %s: %v", userID, err)
	}

	ids := make([]string, len(listings))
	for i, l := range listings {
		ids[i] = l.ID
	}
	err := e.deps.Publisher.PublishSearch(ctx, events.SearchCompleted{
		UserID:     userID,
		Location:   c.Location,
		CheckIn:    c.CheckIn.String(),
		CheckOut:   c.CheckOut.String(),
		Guests:     c.GuestCount,
		ListingIDs: ids,
		At:         e.deps.Now(),
	})
	if err != nil {
		e.deps.Logger.Warn("[bot] publish search for %s: %v", userID, err)
	}
}

func (e *Engine) presentResults(ctx context.Context, userID string, c models.SearchCriteria, listings []*models.Listing) []Reply {
	replies := make([]Reply, 0, len(listings)+2)
	replies = append(replies, send(fmt.Sprintf(
		"🏠 Found %d properties matching your criteria!\nHere are the best matches:", len(listings))))

	shownAt := e.deps.Now()
	for _, l := range listings {
		r := Reply{Kind: SendMessage, Markdown: true}

		// Feedback needs the snapshot; without it the buttons would only
		// ever produce "expired".
		if err := e.deps.Sessions.PutSnapshot(ctx, userID, l.Snapshot(shownAt)); err != nil {
			e.deps.Logger.Error("[bot] snapshot %s for %s: %v", l.ID, userID, err)
		} else {
			r.Keyboard = feedbackKeyboard(l.ID)
		}

		score, scored := e.score(ctx, userID, l)
		r.Text = renderListing(l, score, scored)
		replies = append(replies, r)
	}

	replies = append(replies, Reply{
		Kind: SendMessage,
		Text: "Those are the best matches I found! 🎉\n\n" + renderCriteria(c) +
			"\nThe more feedback you provide on listings, the better I can learn your preferences! 🎯",
		Markdown: true,
	})
	return replies
}

func (e *Engine) score(ctx context.Context, userID string, l *models.Listing) (float64, bool) {
	if e.deps.Scorer == nil {
		return 0, false
	}
	scoreCtx, cancel := context.WithTimeout(ctx, e.deps.ScoreTimeout)
	defer cancel()
	score, trained, err := e.deps.Scorer.Score(scoreCtx, userID, l.Features())
	if err != nil {
		e.deps.Logger.Warn("[bot] score %s for %s: %v", l.ID, userID, err)
		return 0, false
	}
	return score, trained
}

// ── callbacks ───────────────────────────────────────────────────────────────

func (e *Engine) callback(ctx context.Context, ev Event) []Reply {
	tok := ParseToken(ev.Data)
	switch tok.Kind {
	case TokenIgnore:
		return nil
	case TokenUnknown:
		e.deps.Logger.Debug("[bot] unknown callback %q from %s", ev.Data, ev.UserID)
		return nil
	case TokenFeedback:
		return e.onFeedback(ctx, ev, tok)
	}

	w := e.deps.Sessions.Wizard(ev.UserID)
	if w == nil {
		return nil
	}

	switch tok.Kind {
	case TokenNavigate:
		return e.onNavigate(ev, w, tok)
	case TokenDate:
		return e.onDate(ev, w, tok.Date)
	case TokenAmenityToggle:
		if w.State != models.StateAwaitingAmenities {
			return nil
		}
		w.Criteria.Amenities.Toggle(tok.Amenity)
		e.deps.Sessions.SaveWizard(ev.UserID, w)
		return []Reply{editKeyboard(ev.MessageID, amenitiesKeyboard(w.Criteria.Amenities))}
	case TokenAmenitiesDone:
		if w.State != models.StateAwaitingAmenities {
			return nil
		}
		w.State = models.StateAwaitingPriceRange
		e.deps.Sessions.SaveWizard(ev.UserID, w)
		return []Reply{edit(ev.MessageID, msgPricePrompt, nil)}
	}
	return nil
}

func (e *Engine) onNavigate(ev Event, w *models.Wizard, tok Token) []Reply {
	if w.State != models.StateAwaitingCheckIn && w.State != models.StateAwaitingCheckOut {
		return nil
	}
	today := e.today()
	if !calendar.CanDisplay(tok.Year, tok.Month, today) {
		return nil
	}

	w.Calendar.DisplayedYear = tok.Year
	w.Calendar.DisplayedMonth = int(tok.Month)
	e.deps.Sessions.SaveWizard(ev.UserID, w)

	grid := calendar.Render(tok.Year, tok.Month, today)
	if w.Calendar.PendingCheckIn != nil {
		grid.Mark(*w.Calendar.PendingCheckIn)
	}
	return []Reply{editKeyboard(ev.MessageID, calendarKeyboard(grid))}
}

func (e *Engine) onDate(ev Event, w *models.Wizard, d models.Date) []Reply {
	today := e.today()
	switch w.State {
	case models.StateAwaitingCheckIn:
		if d.Before(today) {
			return []Reply{alert(msgPastDate)}
		}
		checkIn := d
		w.Criteria.CheckIn = checkIn
		w.Calendar.PendingCheckIn = &checkIn
		next := d.AddDays(1)
		w.Calendar.DisplayedYear = next.Year
		w.Calendar.DisplayedMonth = int(next.Month)
		w.State = models.StateAwaitingCheckOut
		e.deps.Sessions.SaveWizard(ev.UserID, w)

		grid := calendar.Render(next.Year, next.Month, today)
		grid.Mark(checkIn)
		return []Reply{edit(ev.MessageID,
			fmt.Sprintf("✅ Check-in: %s\nSelect check-out date:", checkIn),
			calendarKeyboard(grid))}

	case models.StateAwaitingCheckOut:
		if !d.After(w.Criteria.CheckIn) {
			return []Reply{alert(msgAfterCheckIn)}
		}
		w.Criteria.CheckOut = d
		w.Calendar.PendingCheckIn = nil
		w.State = models.StateAwaitingGuests
		e.deps.Sessions.SaveWizard(ev.UserID, w)

		return []Reply{
			edit(ev.MessageID, fmt.Sprintf("✅ Dates selected!\nCheck-in: %s\nCheck-out: %s",
				w.Criteria.CheckIn, w.Criteria.CheckOut), nil),
			send(msgGuestsPrompt),
		}
	}
	return nil
}

func (e *Engine) onFeedback(ctx context.Context, ev Event, tok Token) []Reply {
	_, err := e.deps.Ledger.OnFeedback(ctx, ev.UserID, tok.ListingID, tok.Liked)
	switch {
	case err == nil:
		return []Reply{
			editKeyboard(ev.MessageID, ratedKeyboard(tok.Liked)),
			send(thumb(tok.Liked) + " Thanks for your feedback! I'll use this to improve your recommendations.\n" +
				"The more feedback you provide, the better I'll understand your preferences!"),
		}
	case errors.Is(err, services.ErrListingExpired):
		return []Reply{editKeyboard(ev.MessageID, nil), send(msgExpired)}
	default:
		e.deps.Logger.Error("[bot] feedback from %s on %s: %v", ev.UserID, tok.ListingID, err)
		return []Reply{send(msgFeedbackError)}
	}
}

package bot

// ReplyKind is the outbound operation the transport must perform.
type ReplyKind int

const (
	// SendMessage posts a new message, optionally with an inline keyboard.
	SendMessage ReplyKind = iota
	// EditMessage replaces the text (and keyboard) of MessageID.
	EditMessage
	// EditKeyboard replaces only the keyboard of MessageID. A nil Keyboard
	// removes it.
	EditKeyboard
	// Notify answers the pending callback query, as a toast or an alert.
	Notify
)

// Button is one inline action.
type Button struct {
	Label string
	Token string
}

// Keyboard is an inline action grid, row by row.
type Keyboard [][]Button

// Reply is one outbound operation produced by the engine.
type Reply struct {
	Kind      ReplyKind
	MessageID int
	Text      string
	Keyboard  Keyboard
	// Markdown asks the transport to parse Text as Markdown.
	Markdown bool
	// Alert shows a Notify as a modal dialog instead of a toast.
	Alert bool
}

func send(text string) Reply {
	return Reply{Kind: SendMessage, Text: text}
}

func sendWithKeyboard(text string, kb Keyboard) Reply {
	return Reply{Kind: SendMessage, Text: text, Keyboard: kb}
}

func edit(messageID int, text string, kb Keyboard) Reply {
	return Reply{Kind: EditMessage, MessageID: messageID, Text: text, Keyboard: kb}
}

func editKeyboard(messageID int, kb Keyboard) Reply {
	return Reply{Kind: EditKeyboard, MessageID: messageID, Keyboard: kb}
}

func alert(text string) Reply {
	return Reply{Kind: Notify, Text: text, Alert: true}
}

package domain

// EventName identifies an event on the in-process bus.
type EventName string

// Event names shared with the dialogs that handle them.
const (
	EventOpenTagDialog     EventName = "OPEN_TAG_DIALOG"
	EventOpenShareDialog   EventName = "OPEN_SHARE_DIALOG"
	EventOpenRenameDialog  EventName = "OPEN_RENAME_DIALOG"
	EventOpenCompareDialog EventName = "OPEN_COMPARE_DIALOG"
	EventConfirmAction     EventName = "confirm-action"
)

// Event is a payload published on the bus.
type Event interface {
	// Name returns the event name subscribers register for.
	Name() EventName

	// Detail returns the payload in its integration shape.
	Detail() any
}

// OpenTagDialog asks for the tag editor on the given records.
type OpenTagDialog struct {
	GlobalIDs []GlobalID `json:"globalIds"`
	Tags      []string   `json:"tags,omitempty"`
}

func (e OpenTagDialog) Name() EventName { return EventOpenTagDialog }
func (e OpenTagDialog) Detail() any     { return e }

// OpenShareDialog asks for the share dialog on the given records.
type OpenShareDialog struct {
	GlobalIDs []GlobalID `json:"globalIds"`
	Names     []string   `json:"names"`
}

func (e OpenShareDialog) Name() EventName { return EventOpenShareDialog }
func (e OpenShareDialog) Detail() any     { return e }

// OpenRenameDialog asks for the rename dialog on one record.
type OpenRenameDialog struct {
	GlobalID   GlobalID `json:"globalId"`
	RecordName string   `json:"name"`
}

func (e OpenRenameDialog) Name() EventName { return EventOpenRenameDialog }
func (e OpenRenameDialog) Detail() any     { return e }

// OpenCompareDialog asks for a side by side comparison of records.
type OpenCompareDialog struct {
	GlobalIDs []GlobalID `json:"globalIds"`
}

func (e OpenCompareDialog) Name() EventName { return EventOpenCompareDialog }
func (e OpenCompareDialog) Detail() any     { return e }

// ConfirmAction asks the user to confirm a destructive action.
// The handler that shows the prompt reports the answer through Respond.
type ConfirmAction struct {
	Title        string `json:"title"`
	Message      string `json:"message"`
	ConfirmLabel string `json:"confirmLabel"`

	Respond func(confirmed bool) `json:"-"`
}

func (e ConfirmAction) Name() EventName { return EventConfirmAction }
func (e ConfirmAction) Detail() any     { return e }

package room

// Envelope is the JSON frame exchanged with the editing client over the
// realtime transport.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Wire event names. Inbound events are parsed by the transport handler;
// outbound events are produced by the collaboration engine.
const (
	// inbound
	EventGetDocument  = "get-document"
	EventSendChanges  = "send-changes"
	EventSaveDocument = "save-document"

	// outbound
	EventLoadDocument    = "load-document"
	EventRoleUpdate      = "role-update"
	EventActiveUsers     = "active-users"
	EventReceiveChanges  = "receive-changes"
	EventAccessDenied    = "access-denied"
	EventDocumentDeleted = "document-deleted"
	EventSaveError       = "save-error"
)

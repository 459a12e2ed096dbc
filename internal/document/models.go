package document

import "time"

// Role is the access level an identity holds on a document.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
	// RoleNone denies all access including the initial load.
	RoleNone Role = "none"
)

// ValidMemberRole reports whether r can be stored in a member entry.
func ValidMemberRole(r Role) bool {
	return r == RoleAdmin || r == RoleEditor || r == RoleViewer
}

// ValidLinkAccess reports whether r can be used as a document's link-access
// fallback. Link access never grants admin.
func ValidLinkAccess(r Role) bool {
	return r == RoleNone || r == RoleViewer || r == RoleEditor
}

// CanEdit reports whether r may submit change deltas and snapshots.
func (r Role) CanEdit() bool { return r == RoleAdmin || r == RoleEditor }

// Member binds an identity to its stored role. Identities are opaque strings
// supplied by the caller (the original deployment used email addresses).
type Member struct {
	Identity string `json:"identity" bson:"identity"`
	Role     Role   `json:"role" bson:"role"`
}

// Document is the shared record a room collaborates on. Data is an opaque
// serialized snapshot produced by the editing widget; the server never
// interprets it.
type Document struct {
	ID         string    `json:"id" bson:"_id"`
	Data       string    `json:"data" bson:"data"`
	Title      string    `json:"title" bson:"title"`
	Owner      string    `json:"owner" bson:"owner"`
	Members    []Member  `json:"members" bson:"members"`
	IsPrivate  bool      `json:"isPrivate" bson:"isPrivate"`
	LinkAccess Role      `json:"linkAccess" bson:"linkAccess"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt" bson:"updatedAt"`
}

// DefaultTitle is given to documents created through find-or-create.
const DefaultTitle = "Untitled Document"

// New builds a fresh private document owned by identity. The owner is always
// the first member, with role admin.
func New(id, identity string) *Document {
	now := time.Now().UTC()
	return &Document{
		ID:         id,
		Data:       "",
		Title:      DefaultTitle,
		Owner:      identity,
		Members:    []Member{{Identity: identity, Role: RoleAdmin}},
		IsPrivate:  true,
		LinkAccess: RoleNone,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Clone returns a deep copy so registry callers never share member slices
// with the live record.
func (d *Document) Clone() *Document {
	cp := *d
	cp.Members = make([]Member, len(d.Members))
	copy(cp.Members, d.Members)
	return &cp
}

package document

// Resolve computes the access level identity holds on doc. Pure function, no
// caching: callers re-resolve on every access-sensitive operation because
// membership can change mid-session.
//
// Precedence: public documents grant editor to everyone; an explicit member
// entry wins over link access; link access is the fallback for strangers.
func Resolve(doc *Document, identity string) Role {
	if doc == nil {
		return RoleNone
	}
	if !doc.IsPrivate {
		return RoleEditor
	}
	for _, m := range doc.Members {
		if m.Identity == identity {
			return m.Role
		}
	}
	if doc.LinkAccess != RoleNone {
		return doc.LinkAccess
	}
	return RoleNone
}

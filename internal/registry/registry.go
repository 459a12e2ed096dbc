package registry

import (
	"errors"
	"sync"
	"time"

	"github.com/syncpad/syncpad/internal/document"
)

var (
	ErrNotFound     = errors.New("document not found")
	ErrAccessDenied = errors.New("access denied")
)

// Listing is one row of ListFor: a document the identity is a member of,
// annotated with that identity's resolved role.
type Listing struct {
	ID    string        `json:"id"`
	Title string        `json:"title"`
	Role  document.Role `json:"role"`
}

// entry pairs a document record with its own lock so mutations on one
// document never contend with unrelated documents.
type entry struct {
	mu  sync.RWMutex
	doc *document.Document
}

// Registry owns every in-memory document record. All access goes through its
// methods; records are handed out as deep copies so callers cannot bypass
// the per-document exclusive region.
type Registry struct {
	mu   sync.RWMutex
	docs map[string]*entry

	// onDelete is invoked after a document is removed so the room layer can
	// force-disconnect its active sessions.
	onDelete func(docID string)
	// onMembership is invoked after a membership upsert so live sessions of
	// the target identity learn their new role.
	onMembership func(docID, identity string, role document.Role)
}

func New() *Registry {
	return &Registry{docs: make(map[string]*entry)}
}

// OnDelete registers the deletion hook. Must be called during wiring, before
// the registry is shared.
func (r *Registry) OnDelete(fn func(docID string)) { r.onDelete = fn }

// OnMembershipChange registers the membership hook. Must be called during
// wiring, before the registry is shared.
func (r *Registry) OnMembershipChange(fn func(docID, identity string, role document.Role)) {
	r.onMembership = fn
}

// FindOrCreate returns the document for id, creating a private one owned by
// identity when absent. Creation is unconditional: no record exists yet, so
// there is nothing to access-check. A concurrent create for the same id
// returns the record that won the race.
func (r *Registry) FindOrCreate(id, identity string) *document.Document {
	r.mu.RLock()
	e, ok := r.docs[id]
	r.mu.RUnlock()
	if !ok {
		r.mu.Lock()
		if e, ok = r.docs[id]; !ok {
			e = &entry{doc: document.New(id, identity)}
			r.docs[id] = e
		}
		r.mu.Unlock()
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.doc.Clone()
}

// Get returns a copy of the document or ErrNotFound. No access check: the
// caller decides how to gate what it reads (role resolution itself needs the
// record).
func (r *Registry) Get(id string) (*document.Document, error) {
	e, err := r.entry(id)
	if err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.doc.Clone(), nil
}

// Resolve re-reads the live record and computes identity's current role.
func (r *Registry) Resolve(id, identity string) (document.Role, error) {
	e, err := r.entry(id)
	if err != nil {
		return document.RoleNone, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return document.Resolve(e.doc, identity), nil
}

// Delete removes the document when identity resolves to admin, then signals
// the deletion hook so every active session on the id is force-disconnected.
func (r *Registry) Delete(id, identity string) error {
	e, err := r.entry(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	if document.Resolve(e.doc, identity) != document.RoleAdmin {
		e.mu.Unlock()
		return ErrAccessDenied
	}
	e.mu.Unlock()

	r.mu.Lock()
	delete(r.docs, id)
	r.mu.Unlock()

	if r.onDelete != nil {
		r.onDelete(id)
	}
	return nil
}

// UpdateMembership upserts target's role when requester resolves to admin.
// There is no self-demotion guard: an admin may demote itself, possibly
// leaving a document with no admin at all.
func (r *Registry) UpdateMembership(id, requester, target string, role document.Role) error {
	e, err := r.entry(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	if document.Resolve(e.doc, requester) != document.RoleAdmin {
		e.mu.Unlock()
		return ErrAccessDenied
	}
	updated := false
	for i := range e.doc.Members {
		if e.doc.Members[i].Identity == target {
			e.doc.Members[i].Role = role
			updated = true
			break
		}
	}
	if !updated {
		e.doc.Members = append(e.doc.Members, document.Member{Identity: target, Role: role})
	}
	e.doc.UpdatedAt = time.Now().UTC()
	newRole := document.Resolve(e.doc, target)
	e.mu.Unlock()

	if r.onMembership != nil {
		r.onMembership(id, target, newRole)
	}
	return nil
}

// SetData overwrites the document content, last write wins. Role gating
// happens in the persistence scheduler; this is the single mutation point
// for content so concurrent snapshots serialize on the entry lock.
func (r *Registry) SetData(id, content string) error {
	e, err := r.entry(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.doc.Data = content
	e.doc.UpdatedAt = time.Now().UTC()
	e.mu.Unlock()
	return nil
}

// SetTitle renames the document; editors and admins may rename.
func (r *Registry) SetTitle(id, identity, title string) error {
	e, err := r.entry(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !document.Resolve(e.doc, identity).CanEdit() {
		return ErrAccessDenied
	}
	e.doc.Title = title
	e.doc.UpdatedAt = time.Now().UTC()
	return nil
}

// SetSharing updates the visibility flags; admin only.
func (r *Registry) SetSharing(id, identity string, isPrivate bool, linkAccess document.Role) error {
	e, err := r.entry(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if document.Resolve(e.doc, identity) != document.RoleAdmin {
		return ErrAccessDenied
	}
	e.doc.IsPrivate = isPrivate
	e.doc.LinkAccess = linkAccess
	e.doc.UpdatedAt = time.Now().UTC()
	return nil
}

// ListFor returns every document where identity appears in members. Documents
// reachable only through link access are not enumerable.
func (r *Registry) ListFor(identity string) []Listing {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.docs))
	for _, e := range r.docs {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	out := make([]Listing, 0, len(entries))
	for _, e := range entries {
		e.mu.RLock()
		for _, m := range e.doc.Members {
			if m.Identity == identity {
				out = append(out, Listing{ID: e.doc.ID, Title: e.doc.Title, Role: m.Role})
				break
			}
		}
		e.mu.RUnlock()
	}
	return out
}

func (r *Registry) entry(id string) (*entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

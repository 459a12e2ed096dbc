package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncpad/syncpad/internal/document"
)

func TestFindOrCreateSetsCreatorAdmin(t *testing.T) {
	r := New()
	doc := r.FindOrCreate("d1", "a@x.com")

	require.Equal(t, "d1", doc.ID)
	require.Equal(t, "a@x.com", doc.Owner)
	require.Equal(t, document.DefaultTitle, doc.Title)
	require.True(t, doc.IsPrivate)
	require.Equal(t, document.RoleNone, doc.LinkAccess)
	require.Len(t, doc.Members, 1)
	require.Equal(t, document.RoleAdmin, doc.Members[0].Role)
}

func TestFindOrCreateIsIdempotent(t *testing.T) {
	r := New()
	r.FindOrCreate("d1", "a@x.com")

	// a second caller does not overwrite the existing record
	doc := r.FindOrCreate("d1", "b@x.com")
	require.Equal(t, "a@x.com", doc.Owner)
	require.Len(t, doc.Members, 1)
}

func TestGetNotFound(t *testing.T) {
	r := New()
	_, err := r.Get("missing")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = r.Resolve("missing", "a@x.com")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestClonesDoNotLeakMutableState(t *testing.T) {
	r := New()
	doc := r.FindOrCreate("d1", "a@x.com")
	doc.Members[0].Role = document.RoleViewer
	doc.Data = "tampered"

	fresh, err := r.Get("d1")
	require.NoError(t, err)
	assert.Equal(t, document.RoleAdmin, fresh.Members[0].Role)
	assert.Equal(t, "", fresh.Data)
}

func TestUpdateMembershipUpsert(t *testing.T) {
	r := New()
	r.FindOrCreate("d1", "a@x.com")

	require.NoError(t, r.UpdateMembership("d1", "a@x.com", "b@x.com", document.RoleEditor))
	role, err := r.Resolve("d1", "b@x.com")
	require.NoError(t, err)
	require.Equal(t, document.RoleEditor, role)

	// overwrite on second upsert, no duplicate entry
	require.NoError(t, r.UpdateMembership("d1", "a@x.com", "b@x.com", document.RoleViewer))
	doc, err := r.Get("d1")
	require.NoError(t, err)
	require.Len(t, doc.Members, 2)
	role, _ = r.Resolve("d1", "b@x.com")
	require.Equal(t, document.RoleViewer, role)
}

func TestUpdateMembershipRequiresAdmin(t *testing.T) {
	r := New()
	r.FindOrCreate("d1", "a@x.com")
	r.UpdateMembership("d1", "a@x.com", "b@x.com", document.RoleEditor)

	err := r.UpdateMembership("d1", "b@x.com", "c@x.com", document.RoleEditor)
	require.ErrorIs(t, err, ErrAccessDenied)

	err = r.UpdateMembership("missing", "a@x.com", "b@x.com", document.RoleEditor)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateMembershipAllowsSelfDemotion(t *testing.T) {
	r := New()
	r.FindOrCreate("d1", "a@x.com")

	// no guard against a document ending with zero admins
	require.NoError(t, r.UpdateMembership("d1", "a@x.com", "a@x.com", document.RoleViewer))
	role, _ := r.Resolve("d1", "a@x.com")
	require.Equal(t, document.RoleViewer, role)
}

func TestUpdateMembershipFiresHook(t *testing.T) {
	r := New()
	var gotDoc, gotIdentity string
	var gotRole document.Role
	r.OnMembershipChange(func(docID, identity string, role document.Role) {
		gotDoc, gotIdentity, gotRole = docID, identity, role
	})
	r.FindOrCreate("d1", "a@x.com")

	require.NoError(t, r.UpdateMembership("d1", "a@x.com", "b@x.com", document.RoleViewer))
	assert.Equal(t, "d1", gotDoc)
	assert.Equal(t, "b@x.com", gotIdentity)
	assert.Equal(t, document.RoleViewer, gotRole)
}

func TestDeleteRequiresAdmin(t *testing.T) {
	r := New()
	r.FindOrCreate("d1", "a@x.com")
	r.UpdateMembership("d1", "a@x.com", "b@x.com", document.RoleEditor)

	err := r.Delete("d1", "b@x.com")
	require.ErrorIs(t, err, ErrAccessDenied)
	_, err = r.Get("d1")
	require.NoError(t, err, "denied delete must leave the document intact")

	err = r.Delete("missing", "a@x.com")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteRemovesAndSignals(t *testing.T) {
	r := New()
	var deleted string
	r.OnDelete(func(docID string) { deleted = docID })
	r.FindOrCreate("d1", "a@x.com")

	require.NoError(t, r.Delete("d1", "a@x.com"))
	require.Equal(t, "d1", deleted)
	_, err := r.Get("d1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSetDataLastWriteWins(t *testing.T) {
	r := New()
	r.FindOrCreate("d1", "a@x.com")

	require.NoError(t, r.SetData("d1", "first"))
	require.NoError(t, r.SetData("d1", "second"))
	doc, err := r.Get("d1")
	require.NoError(t, err)
	require.Equal(t, "second", doc.Data)
}

func TestSetSharing(t *testing.T) {
	r := New()
	r.FindOrCreate("d1", "a@x.com")

	require.ErrorIs(t, r.SetSharing("d1", "b@x.com", false, document.RoleNone), ErrAccessDenied)

	require.NoError(t, r.SetSharing("d1", "a@x.com", true, document.RoleViewer))
	role, _ := r.Resolve("d1", "stranger@x.com")
	require.Equal(t, document.RoleViewer, role)

	require.NoError(t, r.SetSharing("d1", "a@x.com", false, document.RoleNone))
	role, _ = r.Resolve("d1", "stranger@x.com")
	require.Equal(t, document.RoleEditor, role)
}

func TestListForMembersOnly(t *testing.T) {
	r := New()
	r.FindOrCreate("d1", "a@x.com")
	r.FindOrCreate("d2", "a@x.com")
	r.UpdateMembership("d2", "a@x.com", "b@x.com", document.RoleViewer)

	// d3 reachable for b only via link access: must not be listed
	r.FindOrCreate("d3", "c@x.com")
	r.SetSharing("d3", "c@x.com", true, document.RoleEditor)

	listA := r.ListFor("a@x.com")
	require.Len(t, listA, 2)

	listB := r.ListFor("b@x.com")
	require.Len(t, listB, 1)
	assert.Equal(t, "d2", listB[0].ID)
	assert.Equal(t, document.RoleViewer, listB[0].Role)

	require.Empty(t, r.ListFor("nobody@x.com"))
}

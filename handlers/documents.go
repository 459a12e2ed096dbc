package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/syncpad/syncpad/internal/document"
	"github.com/syncpad/syncpad/internal/registry"
	"github.com/syncpad/syncpad/pkg/metrics"
	"github.com/syncpad/syncpad/pkg/middleware"
)

// RegisterDocumentRoutes registers the administrative document API. All
// routes require the identity header; the value is trusted as supplied.
func RegisterDocumentRoutes(r *gin.Engine, reg *registry.Registry) {
	api := r.Group("/api", middleware.RequireIdentity())
	api.GET("/documents", listDocuments(reg))
	api.GET("/documents/:id", getDocument(reg))
	api.PATCH("/documents/:id", renameDocument(reg))
	api.POST("/documents/:id/invite", inviteMember(reg))
	api.POST("/documents/:id/sharing", updateSharing(reg))
	api.DELETE("/documents/:id", deleteDocument(reg))
}

// listDocuments returns every document the identity is a member of. Link
// access does not make a document enumerable.
func listDocuments(reg *registry.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, reg.ListFor(middleware.IdentityFrom(c)))
	}
}

// getDocument fetches one document, creating it when absent (find-or-create
// mirrors the realtime attach path, so a REST-first client sees the same
// semantics). The role is always resolved from the returned record: a
// concurrent create for the same id may hand back a document owned by
// someone else, and the caller's access follows that record, not the
// creation attempt.
func getDocument(reg *registry.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := middleware.IdentityFrom(c)

		doc := reg.FindOrCreate(c.Param("id"), identity)
		role := document.Resolve(doc, identity)
		if role == document.RoleNone {
			metrics.AccessDenied.WithLabelValues("rest").Inc()
			c.JSON(http.StatusForbidden, gin.H{"message": "Access Denied"})
			return
		}
		c.JSON(http.StatusOK, docResponse(doc, role))
	}
}

func renameDocument(reg *registry.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Title string `json:"title"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Title == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "title is required"})
			return
		}
		err := reg.SetTitle(c.Param("id"), middleware.IdentityFrom(c), req.Title)
		if handled(c, err, "Only editors can rename documents") {
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Document renamed"})
	}
}

// inviteMember upserts the target's role; admin only. There is no guard
// against an admin demoting itself.
func inviteMember(reg *registry.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			TargetEmail string        `json:"targetEmail"`
			Role        document.Role `json:"role"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.TargetEmail == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "targetEmail is required"})
			return
		}
		if !document.ValidMemberRole(req.Role) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "role must be admin, editor or viewer"})
			return
		}
		id := c.Param("id")
		err := reg.UpdateMembership(id, middleware.IdentityFrom(c), req.TargetEmail, req.Role)
		if handled(c, err, "Only admins can invite") {
			return
		}
		doc, _ := reg.Get(id)
		c.JSON(http.StatusOK, gin.H{"message": "User invited", "members": doc.Members})
	}
}

func updateSharing(reg *registry.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			IsPrivate  *bool         `json:"isPrivate"`
			LinkAccess document.Role `json:"linkAccess"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.IsPrivate == nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "isPrivate is required"})
			return
		}
		if req.LinkAccess == "" {
			req.LinkAccess = document.RoleNone
		}
		if !document.ValidLinkAccess(req.LinkAccess) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "linkAccess must be none, viewer or editor"})
			return
		}
		err := reg.SetSharing(c.Param("id"), middleware.IdentityFrom(c), *req.IsPrivate, req.LinkAccess)
		if handled(c, err, "Only admins can change sharing") {
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Sharing updated"})
	}
}

// deleteDocument removes the document and force-disconnects its room.
func deleteDocument(reg *registry.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := reg.Delete(c.Param("id"), middleware.IdentityFrom(c))
		if handled(c, err, "Only admins can delete documents") {
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Document deleted successfully"})
	}
}

// handled maps registry errors onto the API's error contract. Access denial
// is an explicit signal, distinct from not-found and from transient errors.
func handled(c *gin.Context, err error, deniedMsg string) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, registry.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Document not found"})
	case errors.Is(err, registry.ErrAccessDenied):
		metrics.AccessDenied.WithLabelValues("rest").Inc()
		c.JSON(http.StatusForbidden, gin.H{"message": deniedMsg})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
	}
	return true
}

func docResponse(doc *document.Document, role document.Role) gin.H {
	return gin.H{
		"id":              doc.ID,
		"data":            doc.Data,
		"title":           doc.Title,
		"owner":           doc.Owner,
		"members":         doc.Members,
		"isPrivate":       doc.IsPrivate,
		"linkAccess":      doc.LinkAccess,
		"createdAt":       doc.CreatedAt,
		"updatedAt":       doc.UpdatedAt,
		"currentUserRole": role,
	}
}

package dashboard

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/ribbonlog/internal/confirm"
	"github.com/zulandar/ribbonlog/internal/form"
	"github.com/zulandar/ribbonlog/internal/lot"
	"github.com/zulandar/ribbonlog/internal/models"
)

// attachmentWait bounds how long a request waits for an uploaded photo to be encoded.
const attachmentWait = 10 * time.Second

type handler struct {
	store     *lot.Store
	site      string
	maxUpload int64
	confirms  *confirm.Registry
}

// registerRoutes sets up all dashboard routes on the Gin router.
func registerRoutes(router *gin.Engine, h *handler) {
	// Embedded static assets (served from assets/ subdir of the embed.FS).
	staticFS, _ := fs.Sub(assetsFS, "assets")
	router.StaticFS("/static", http.FS(staticFS))

	// Pages.
	router.GET("/", h.handleIndex())
	router.GET("/lots/new", h.handleNew())
	router.POST("/lots", h.handleCreate())
	router.GET("/lots/:id", h.handleDetail())
	router.GET("/lots/:id/edit", h.handleEdit())
	router.POST("/lots/:id", h.handleUpdate())
	router.POST("/lots/:id/delete", h.handleDeleteRequest())
	router.GET("/lots/:id/delete", h.handleDeleteConfirmPage())
	router.POST("/lots/:id/delete/confirm", h.handleDeleteConfirm())
	router.POST("/lots/:id/delete/cancel", h.handleDeleteCancel())

	// JSON API.
	api := router.Group("/api")
	api.GET("/lots", h.apiList())
	api.POST("/lots", h.apiCreate())
	api.GET("/lots/:id", h.apiGet())
	api.PATCH("/lots/:id", h.apiUpdate())
	api.DELETE("/lots/:id", h.apiDelete())
	api.GET("/stats", h.apiStats())
	api.GET("/events", handleSSE(h.store, 3*time.Second))
}

// page returns the data every page template expects.
func (h *handler) page(c *gin.Context, name string) gin.H {
	return gin.H{
		"site":  h.site,
		"page":  name,
		"flash": takeFlash(c),
	}
}

func (h *handler) handleIndex() gin.HandlerFunc {
	return func(c *gin.Context) {
		all := h.store.List()
		query := c.Query("q")
		lots := lot.Filter(all, query)

		data := h.page(c, "index")
		data["query"] = query
		data["lots"] = lots
		data["count"] = len(lots)
		data["total"] = len(all)
		data["stats"] = lot.Summarize(all)
		c.HTML(http.StatusOK, "index.html", data)
	}
}

func (h *handler) handleDetail() gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, ok := h.store.Get(c.Param("id"))
		if !ok {
			h.notFound(c)
			return
		}
		data := h.page(c, "detail")
		data["lot"] = rec
		c.HTML(http.StatusOK, "detail.html", data)
	}
}

func (h *handler) handleNew() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.renderForm(c, http.StatusOK, form.NewCreate(), models.Record{})
	}
}

func (h *handler) handleEdit() gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, ok := h.store.Get(c.Param("id"))
		if !ok {
			h.notFound(c)
			return
		}
		h.renderForm(c, http.StatusOK, form.NewEdit(rec), rec)
	}
}

func (h *handler) handleCreate() gin.HandlerFunc {
	return func(c *gin.Context) {
		f := form.NewCreate()
		h.submit(c, f, models.Record{})
	}
}

func (h *handler) handleUpdate() gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, ok := h.store.Get(c.Param("id"))
		if !ok {
			h.notFound(c)
			return
		}
		h.submit(c, form.NewEdit(rec), rec)
	}
}

// submit binds the posted form, waits for any uploaded photo, and hands the
// result to the store. Invalid input re-renders the form with field errors.
func (h *handler) submit(c *gin.Context, f *form.Form, current models.Record) {
	var in form.Input
	if err := c.ShouldBind(&in); err != nil {
		c.String(http.StatusBadRequest, "invalid form: %v", err)
		return
	}
	f.Input = in

	photoDropped := false
	if fh, err := c.FormFile("photo"); err == nil && fh.Size > 0 {
		file, err := fh.Open()
		if err != nil {
			log.Printf("dashboard: open upload: %v", err)
			photoDropped = true
		} else {
			defer file.Close()
			ctx, cancel := context.WithTimeout(c.Request.Context(), attachmentWait)
			defer cancel()
			f.Attach(form.EncodeAttachment(ctx, file, h.maxUpload))
			if err := f.Settle(ctx); err != nil {
				log.Printf("dashboard: photo %q ignored: %v", fh.Filename, err)
				photoDropped = true
			}
		}
	}

	mode := f.Mode
	rec, ok, err := f.Submit(c.Request.Context(), h.store)
	switch {
	case errors.Is(err, form.ErrInvalid):
		h.renderForm(c, http.StatusUnprocessableEntity, f, current)
		return
	case !ok:
		h.notFound(c)
		return
	}

	msg := "Problema registrado com sucesso!"
	if mode == form.ModeEdit {
		msg = "Registro atualizado com sucesso!"
	}
	if photoDropped {
		msg += " A foto não pôde ser lida e foi ignorada."
	}
	if err != nil {
		msg += " Atenção: não foi possível gravar no armazenamento."
	}
	setFlash(c, msg)
	c.Redirect(http.StatusSeeOther, "/lots/"+rec.ID)
}

func (h *handler) renderForm(c *gin.Context, status int, f *form.Form, current models.Record) {
	data := h.page(c, "form")
	data["form"] = f
	data["editing"] = f.Mode == form.ModeEdit
	data["current"] = current
	data["shifts"] = models.Shifts
	data["statuses"] = models.Statuses
	c.HTML(status, "form.html", data)
}

// handleDeleteRequest moves the session's confirmation into the pending state
// for the lot and shows the confirmation page.
func (h *handler) handleDeleteRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if _, ok := h.store.Get(id); !ok {
			h.notFound(c)
			return
		}
		h.confirms.Do(sessionID(c), func(m *confirm.Machine) { m.Request(id) })
		c.Redirect(http.StatusSeeOther, "/lots/"+id+"/delete")
	}
}

func (h *handler) handleDeleteConfirmPage() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		var pending string
		h.confirms.Do(sessionID(c), func(m *confirm.Machine) { pending, _ = m.Pending() })
		rec, ok := h.store.Get(id)
		if !ok || pending != id {
			c.Redirect(http.StatusSeeOther, "/lots/"+id)
			return
		}
		data := h.page(c, "confirm")
		data["lot"] = rec
		c.HTML(http.StatusOK, "confirm.html", data)
	}
}

func (h *handler) handleDeleteConfirm() gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			id string
			ok bool
		)
		h.confirms.Do(sessionID(c), func(m *confirm.Machine) {
			// A confirm for another lot leaves the pending request alone.
			if pending, _ := m.Pending(); pending == c.Param("id") {
				id, ok = m.Confirm()
			}
		})
		if !ok {
			// Nothing pending for this lot; confirming does nothing.
			c.Redirect(http.StatusSeeOther, "/")
			return
		}
		removed, err := h.store.Delete(c.Request.Context(), id)
		switch {
		case !removed:
			setFlash(c, "Registro não encontrado.")
		case err != nil:
			setFlash(c, "Registro excluído. Atenção: não foi possível gravar no armazenamento.")
		default:
			setFlash(c, "Registro excluído com sucesso!")
		}
		c.Redirect(http.StatusSeeOther, "/")
	}
}

func (h *handler) handleDeleteCancel() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.confirms.Do(sessionID(c), func(m *confirm.Machine) { m.Cancel() })
		c.Redirect(http.StatusSeeOther, "/lots/"+c.Param("id"))
	}
}

func (h *handler) notFound(c *gin.Context) {
	data := h.page(c, "notfound")
	c.HTML(http.StatusNotFound, "notfound.html", data)
}

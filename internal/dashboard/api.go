package dashboard

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/ribbonlog/internal/form"
	"github.com/zulandar/ribbonlog/internal/lot"
	"github.com/zulandar/ribbonlog/internal/models"
)

// apiCreateRequest is the JSON body of POST /api/lots. Quantity accepts a
// number or a numeric string.
type apiCreateRequest struct {
	LotNumber   string      `json:"lotNumber"`
	Shift       string      `json:"shift"`
	RibbonModel string      `json:"ribbonModel"`
	Quantity    json.Number `json:"quantity"`
	Problem     string      `json:"problem"`
	Details     string      `json:"details"`
	Attachment  string      `json:"attachment"`
}

// apiPatchRequest is the JSON body of PATCH /api/lots/:id. Absent fields are
// left unchanged.
type apiPatchRequest struct {
	LotNumber   *string      `json:"lotNumber"`
	Shift       *string      `json:"shift"`
	RibbonModel *string      `json:"ribbonModel"`
	Quantity    *json.Number `json:"quantity"`
	Problem     *string      `json:"problem"`
	Details     *string      `json:"details"`
	Status      *string      `json:"status"`
	Attachment  *string      `json:"attachment"`
}

// storageWarning is attached to responses whose change is held in memory only.
const storageWarning = "change kept in memory; storage write failed"

func (h *handler) apiList() gin.HandlerFunc {
	return func(c *gin.Context) {
		lots := lot.Filter(h.store.List(), c.Query("q"))
		c.JSON(http.StatusOK, gin.H{"lots": lots, "count": len(lots)})
	}
}

func (h *handler) apiGet() gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, ok := h.store.Get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "lot not found"})
			return
		}
		c.JSON(http.StatusOK, rec)
	}
}

func (h *handler) apiStats() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, lot.Summarize(h.store.List()))
	}
}

func (h *handler) apiCreate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req apiCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		in := form.Input{
			LotNumber:   req.LotNumber,
			Shift:       req.Shift,
			RibbonModel: req.RibbonModel,
			Quantity:    req.Quantity.String(),
			Problem:     req.Problem,
			Details:     req.Details,
		}
		if fe := form.Validate(in); fe != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": fe.Error(), "fields": fe})
			return
		}
		p := in.Payload()
		if req.Attachment != "" {
			url, err := h.checkAttachment(c.Request.Context(), req.Attachment)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			p.Attachment = url
		}

		rec, err := h.store.Create(c.Request.Context(), p)
		body := gin.H{"lot": rec}
		if err != nil {
			body["warning"] = storageWarning
		}
		c.JSON(http.StatusCreated, body)
	}
}

func (h *handler) apiUpdate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req apiPatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		p, err := h.toPatch(c.Request.Context(), req)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		rec, ok, err := h.store.Update(c.Request.Context(), c.Param("id"), p)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "lot not found"})
			return
		}
		body := gin.H{"lot": rec}
		if err != nil {
			body["warning"] = storageWarning
		}
		c.JSON(http.StatusOK, body)
	}
}

// apiDelete removes a lot immediately. API clients do their own confirming.
func (h *handler) apiDelete() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := h.store.Delete(c.Request.Context(), c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "lot not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusOK, gin.H{"warning": storageWarning})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func (h *handler) toPatch(ctx context.Context, req apiPatchRequest) (lot.Patch, error) {
	var p lot.Patch
	p.LotNumber = trimmed(req.LotNumber)
	p.RibbonModel = trimmed(req.RibbonModel)
	p.Problem = trimmed(req.Problem)
	p.Details = trimmed(req.Details)
	for name, v := range map[string]*string{"lotNumber": p.LotNumber, "ribbonModel": p.RibbonModel, "problem": p.Problem} {
		if v != nil && *v == "" {
			return lot.Patch{}, errors.New(name + ": Campo obrigatório")
		}
	}
	if req.Shift != nil {
		s := models.ParseShift(*req.Shift)
		p.Shift = &s
	}
	if req.Quantity != nil {
		q := form.ParseQuantity(req.Quantity.String())
		p.Quantity = &q
	}
	if req.Status != nil {
		st := models.Status(*req.Status)
		if !st.Valid() {
			return lot.Patch{}, errors.New("status must be one of active, pending, resolved")
		}
		p.Status = &st
	}
	if req.Attachment != nil {
		url := ""
		if *req.Attachment != "" {
			var err error
			if url, err = h.checkAttachment(ctx, *req.Attachment); err != nil {
				return lot.Patch{}, err
			}
		}
		p.Attachment = &url
	}
	return p, nil
}

// checkAttachment decodes a base64 data URL and re-encodes it through the
// same sniffing path as uploaded photos.
func (h *handler) checkAttachment(ctx context.Context, dataURL string) (string, error) {
	_, payload, ok := strings.Cut(dataURL, ";base64,")
	if !ok || !strings.HasPrefix(dataURL, "data:") {
		return "", errors.New("attachment must be a base64 data URL")
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", errors.New("attachment is not valid base64")
	}
	return form.Await(ctx, form.EncodeAttachment(ctx, bytes.NewReader(raw), h.maxUpload))
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

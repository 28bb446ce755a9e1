package handlers

import (
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"unishare/internal/models"
	"unishare/internal/services"
	"unishare/internal/utils"
)

type ResourceHandler struct {
	resources      *services.ResourceService
	maxUploadBytes int64
}

func NewResourceHandler(resources *services.ResourceService, maxUploadBytes int64) *ResourceHandler {
	return &ResourceHandler{resources: resources, maxUploadBytes: maxUploadBytes}
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// formFile returns the uploaded "file" part, if any. The caller closes it.
func (h *ResourceHandler) formFile(c *gin.Context) (*services.Upload, multipart.File, bool) {
	header, err := c.FormFile("file")
	if err == http.ErrMissingFile {
		return nil, nil, true
	}
	if err != nil {
		badRequest(c, "could not read uploaded file")
		return nil, nil, false
	}
	if header.Size > h.maxUploadBytes {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file is too large"})
		return nil, nil, false
	}
	f, err := header.Open()
	if err != nil {
		badRequest(c, "could not read uploaded file")
		return nil, nil, false
	}
	return &services.Upload{
		Name:        header.Filename,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
		Body:        f,
	}, f, true
}

func parseDeadline(s string) (*time.Time, bool) {
	if s == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, false
	}
	return &t, true
}

// Create accepts either a multipart form (with an optional "file" part) or
// a JSON body for file-less assignments.
func (h *ResourceHandler) Create(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+1<<20)

	var in services.ResourceInput
	var upload *services.Upload
	if isMultipart(c) {
		unitID, ok := utils.ParseID(c.PostForm("unit_id"))
		if !ok {
			badRequest(c, "invalid unit_id")
			return
		}
		deadline, ok := parseDeadline(c.PostForm("deadline"))
		if !ok {
			badRequest(c, "deadline must be RFC 3339")
			return
		}
		in = services.ResourceInput{
			UnitID:      unitID,
			Type:        models.ResourceType(c.PostForm("type")),
			Title:       c.PostForm("title"),
			Description: c.PostForm("description"),
			Deadline:    deadline,
		}
		var f multipart.File
		if upload, f, ok = h.formFile(c); !ok {
			return
		}
		if f != nil {
			defer f.Close()
		}
	} else if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	resource, err := h.resources.Create(c.Request.Context(), sess, in, upload)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resource)
}

func (h *ResourceHandler) Get(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resource, err := h.resources.Get(c.Request.Context(), sess, id)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resource)
}

func optional(c *gin.Context, key string) *string {
	v, ok := c.GetPostForm(key)
	if !ok {
		return nil
	}
	return &v
}

func (h *ResourceHandler) Update(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+1<<20)

	var in services.ResourceUpdate
	var upload *services.Upload
	if isMultipart(c) {
		in.Title = optional(c, "title")
		in.Description = optional(c, "description")
		if d := c.PostForm("deadline"); d != "" {
			deadline, ok := parseDeadline(d)
			if !ok {
				badRequest(c, "deadline must be RFC 3339")
				return
			}
			in.Deadline = deadline
		}
		in.ClearDeadline = c.PostForm("clear_deadline") == "true"
		var f multipart.File
		if upload, f, ok = h.formFile(c); !ok {
			return
		}
		if f != nil {
			defer f.Close()
		}
	} else if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	resource, err := h.resources.Update(c.Request.Context(), sess, id, in, upload)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resource)
}

func (h *ResourceHandler) Delete(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.resources.Delete(c.Request.Context(), sess, id); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

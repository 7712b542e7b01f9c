package server

import (
	"bytes"
	"errors"
	"html/template"
	"io"
	"net/http"

	"rdm-dashboard/src/dispatcher"
	"rdm-dashboard/src/models"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// Page
// -----------------------------------------------------------------------------

type pageData struct {
	Title    string
	Sections map[string]template.HTML
	Loading  bool
	Notice   *models.MNotice
	Labels   pageLabels
}

type pageLabels struct {
	Refresh string
	Loading string
	Dismiss string
}

func (s *DashboardServer) getPage(c *gin.Context) {
	state := s.View.State()
	sections := make(map[string]template.HTML, len(state.Sections))
	for slot, html := range state.Sections {
		// Section markup comes from the html/template renderers
		sections[slot] = template.HTML(html)
	}

	data := pageData{
		Title:    s.Config.Name,
		Sections: sections,
		Loading:  state.Loading,
		Notice:   state.Notice,
		Labels: pageLabels{
			Refresh: s.Strings.Get("refresh"),
			Loading: s.Strings.Get("loading"),
			Dismiss: s.Strings.Get("dismiss"),
		},
	}

	var buf bytes.Buffer
	if err := s.page.Execute(&buf, data); err != nil {
		s.Logger.Error("Failed to render page: %v", err)
		c.String(http.StatusInternalServerError, "render failed")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// -----------------------------------------------------------------------------
// View
// -----------------------------------------------------------------------------

func (s *DashboardServer) getView(c *gin.Context) {
	c.JSON(http.StatusOK, s.View.State())
}

func (s *DashboardServer) postRefresh(c *gin.Context) {
	if err := s.Loop.Refresh(c.Request.Context()); err != nil {
		s.fail(c, http.StatusBadGateway, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": s.View.State()})
}

type dismissRequest struct {
	NoticeID uint64 `json:"notice_id"`
}

// postDismissNotice closes the notice. With a notice_id only that notice is
// closed, so a newer one is never dismissed unseen.
func (s *DashboardServer) postDismissNotice(c *gin.Context) {
	var req dismissRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "dismissed": s.View.DismissNotice(req.NoticeID)})
}

// -----------------------------------------------------------------------------
// Actions
// -----------------------------------------------------------------------------

func (s *DashboardServer) postAction(c *gin.Context) {
	var req models.MActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}

	p, err := s.Dispatcher.RequestAction(req.Kind, req.EntityID, req.Value, req.ControlID)
	if err != nil {
		s.fail(c, actionStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"confirmation_id": p.ID,
		"prompt":          p.Prompt,
	})
}

func (s *DashboardServer) getActions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"pending": s.Dispatcher.Pending()})
}

func (s *DashboardServer) postConfirm(c *gin.Context) {
	if err := s.Dispatcher.Confirm(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, actionStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *DashboardServer) postCancel(c *gin.Context) {
	if err := s.Dispatcher.Cancel(c.Param("id")); err != nil {
		s.fail(c, actionStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// actionStatus maps dispatcher errors to HTTP codes. Backend failures are 502.
func actionStatus(err error) int {
	switch {
	case errors.Is(err, dispatcher.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, dispatcher.ErrAlreadyResolved), errors.Is(err, dispatcher.ErrControlBusy):
		return http.StatusConflict
	case errors.Is(err, dispatcher.ErrUnknownAction), errors.Is(err, dispatcher.ErrInvalidRequest):
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

// -----------------------------------------------------------------------------
// History & Health
// -----------------------------------------------------------------------------

func (s *DashboardServer) getHistory(c *gin.Context) {
	if s.DB == nil {
		c.JSON(http.StatusServiceUnavailable, failureBody("audit store disabled"))
		return
	}
	limit := parseLimit(c.Query("limit"))

	fetches, err := s.DB.RecentFetches(limit)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	actions, err := s.DB.RecentActions(limit)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"fetches": emptyIfNil(fetches),
		"actions": emptyIfNil(actions),
	})
}

func (s *DashboardServer) getHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"connections":  s.connections.Load(),
		"view_version": s.snapshot("UPDATE").View.Version,
		"loop_state":   s.Loop.State().String(),
		"fetch_errors": s.Loop.ErrorHandler.ErrorCount.Load(),
	})
}

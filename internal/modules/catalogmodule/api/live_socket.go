package api

import (
	"github.com/gin-gonic/gin"
	"github.com/mantonx/catalog/internal/api"
	"github.com/mantonx/catalog/internal/modules/catalogmodule/core/live"
	"github.com/mantonx/catalog/internal/modules/catalogmodule/models"
	"github.com/mantonx/catalog/internal/types"
)

// StateFrame is the JSON shape of a view state
type StateFrame struct {
	Items   []*models.Item          `json:"items"`
	Visible []*models.Item          `json:"visible"`
	Filter  live.Filter             `json:"filter"`
	Counts  map[models.ItemType]int `json:"counts"`
	Error   *FrameError             `json:"error,omitempty"`
}

// FrameError reports a failure inside a frame
type FrameError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// liveRequest is what clients send on the live socket
type liveRequest struct {
	Filter string `json:"filter"`
}

func frameFromState(s live.State) StateFrame {
	frame := StateFrame{
		Items:   s.Items,
		Visible: s.Visible,
		Filter:  s.Filter,
		Counts:  s.Counts,
	}
	if frame.Items == nil {
		frame.Items = []*models.Item{}
	}
	if frame.Visible == nil {
		frame.Visible = []*models.Item{}
	}
	if frame.Counts == nil {
		frame.Counts = live.CountByType(nil)
	}
	if s.Err != nil {
		frame.Error = frameError(s.Err)
	}
	return frame
}

func frameError(err error) *FrameError {
	appErr := api.AsAppError(err)
	return &FrameError{Code: string(appErr.Code), Message: appErr.Message}
}

// LiveItems handles GET /api/items/live. Each connection owns one live view;
// every state change is pushed as a StateFrame and {"filter": ...} messages
// change the visible subset. A failed subscription sends one error frame and
// closes this socket.
func (h *Handler) LiveItems(c *gin.Context) {
	filter, err := live.ParseFilter(c.Query("filter"))
	if err != nil {
		api.RespondWithValidationError(c, "invalid filter", c.Query("filter"))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("live socket upgrade failed", "error", err)
		return
	}
	ws := api.NewWSConn(conn)
	defer ws.Close()

	view := h.service.NewLiveView()
	view.SetFilter(filter)
	view.OnChange(func(s live.State) {
		if err := ws.WriteJSON(frameFromState(s)); err != nil {
			h.logger.Debug("live frame not delivered", "error", err)
		}
		if s.Err != nil {
			_ = ws.Close()
		}
	})

	if err := view.Activate(c.Request.Context()); err != nil {
		state := view.State()
		state.Err = err
		_ = ws.WriteJSON(frameFromState(state))
		return
	}
	defer view.Deactivate()

	h.logger.Debug("live socket opened", "remote", c.ClientIP())

	for {
		var req liveRequest
		if err := ws.ReadJSON(&req); err != nil {
			h.logger.Debug("live socket closed", "remote", c.ClientIP(), "error", err)
			return
		}

		next, err := live.ParseFilter(req.Filter)
		if err != nil {
			_ = ws.WriteJSON(gin.H{"error": frameError(types.NewValidationError("invalid filter", req.Filter))})
			continue
		}
		view.SetFilter(next)
	}
}

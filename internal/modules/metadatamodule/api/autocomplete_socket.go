package api

import (
	"github.com/gin-gonic/gin"
	"github.com/mantonx/catalog/internal/api"
	"github.com/mantonx/catalog/internal/modules/metadatamodule/types"
)

// AutocompleteFrame is pushed for each settled search term
type AutocompleteFrame struct {
	Term    string        `json:"term"`
	Matches []types.Match `json:"matches"`
	Error   *FrameError   `json:"error,omitempty"`
}

// FrameError reports a failed lookup inside a frame
type FrameError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type autocompleteRequest struct {
	Term string `json:"term"`
}

// Autocomplete handles GET /api/metadata/autocomplete?type=. Clients send
// {"term": ...} on every keystroke; a search runs once typing has been
// quiet for the debounce window and its matches come back as one frame.
// Lookup failures are reported in the frame and the socket stays open.
func (h *Handler) Autocomplete(c *gin.Context) {
	itemType, ok := parseType(c)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("autocomplete upgrade failed", "error", err)
		return
	}
	ws := api.NewWSConn(conn)
	defer ws.Close()

	onResult := func(term string, matches []types.Match, err error) {
		frame := AutocompleteFrame{Term: term, Matches: matches}
		if frame.Matches == nil {
			frame.Matches = []types.Match{}
		}
		if err != nil {
			appErr := api.AsAppError(err)
			frame.Error = &FrameError{Code: string(appErr.Code), Message: appErr.Message}
		}
		if err := ws.WriteJSON(frame); err != nil {
			h.logger.Debug("autocomplete frame not delivered", "error", err)
		}
	}

	debouncer, err := h.service.NewAutocomplete(c.Request.Context(), itemType, onResult)
	if err != nil {
		appErr := api.AsAppError(err)
		_ = ws.WriteJSON(AutocompleteFrame{Matches: []types.Match{}, Error: &FrameError{Code: string(appErr.Code), Message: appErr.Message}})
		return
	}
	defer debouncer.Close()

	for {
		var req autocompleteRequest
		if err := ws.ReadJSON(&req); err != nil {
			h.logger.Debug("autocomplete socket closed", "remote", c.ClientIP(), "error", err)
			return
		}
		debouncer.Trigger(req.Term)
	}
}

package events

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/minimarket/pos-api/internal/common"
)

// Handler exposes the recorded event log for inspection.
type Handler struct {
	Log *Log
}

// List handles GET /api/v1/events with an optional topic filter.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var out []Event
	if topic := strings.TrimSpace(r.URL.Query().Get("topic")); topic != "" {
		if !knownTopic(topic) {
			common.WriteError(w, common.Invalid("topic",
				"unknown topic, expected one of: "+strings.Join(DefaultTopics(), ", "), nil))
			return
		}
		out = h.Log.ByTopic(topic)
	} else {
		out = h.Log.All()
	}
	page, perPage := common.ParsePagination(r, 50)
	w.Header().Set("X-Total-Count", strconv.Itoa(len(out)))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       common.PageSlice(out, page, perPage),
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: len(out)},
	})
}

func knownTopic(topic string) bool {
	for _, t := range DefaultTopics() {
		if t == topic {
			return true
		}
	}
	return false
}

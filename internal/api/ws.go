package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/drishti/drishti-viz/internal/graph"
	"github.com/drishti/drishti-viz/internal/layout"
	"github.com/drishti/drishti-viz/internal/view"
	"github.com/drishti/drishti-viz/internal/zoom"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRequest is the incoming WebSocket message format. Type selects the
// operation; the remaining fields are per-type.
type wsRequest struct {
	Type string `json:"type"` // set_zoom, set_mode, set_weights, refine, focus, hover, pan, zoom_viewport, tooltip, state

	ZoomLevel *int            `json:"zoom_level,omitempty"`
	Mode      layout.ViewMode `json:"view_mode,omitempty"`
	Weights   *zoom.Weights   `json:"weights,omitempty"`
	NodeID    string          `json:"node_id,omitempty"`

	Search string `json:"search_query,omitempty"`
	Folder string `json:"folder_filter,omitempty"`
	Kind   string `json:"type_filter,omitempty"`

	DX     float64 `json:"dx,omitempty"`
	DY     float64 `json:"dy,omitempty"`
	Factor float64 `json:"factor,omitempty"`
}

// wsResponse is the outgoing WebSocket message format.
type wsResponse struct {
	Type    string      `json:"type"` // "state", "tooltip", "ok", "error"
	Payload interface{} `json:"payload,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// handleWebSocket serves the bidirectional interaction channel of one
// repository view: parameter changes in, view states out.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	mgr, err := s.viewFor(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("api: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	// Initial state so a client renders without a round trip.
	sendWS(conn, wsResponse{Type: "state", Payload: mgr.State()})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("api: websocket read: %v", err)
			}
			return
		}

		var req wsRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			sendWS(conn, wsResponse{Type: "error", Error: "invalid message format"})
			continue
		}
		s.dispatchWS(conn, mgr, req)
	}
}

// dispatchWS runs one interaction request against the view manager.
func (s *Server) dispatchWS(conn *websocket.Conn, mgr *view.Manager, req wsRequest) {
	switch req.Type {
	case "set_zoom":
		if req.ZoomLevel == nil {
			sendWS(conn, wsResponse{Type: "error", Error: "zoom_level is required"})
			return
		}
		st, err := mgr.SetZoom(*req.ZoomLevel)
		sendState(conn, st, err)

	case "set_mode":
		st, err := mgr.SetMode(req.Mode)
		sendState(conn, st, err)

	case "set_weights":
		if req.Weights == nil {
			sendWS(conn, wsResponse{Type: "error", Error: "weights is required"})
			return
		}
		st, err := mgr.SetWeights(*req.Weights)
		sendState(conn, st, err)

	case "refine":
		p := mgr.Params()
		p.Search = req.Search
		p.Folder = req.Folder
		p.Type = graph.NodeType(req.Kind)
		st, err := mgr.Update(p)
		sendState(conn, st, err)

	case "focus":
		st, err := mgr.Focus(req.NodeID)
		sendState(conn, st, err)

	case "hover":
		if err := mgr.Hover(req.NodeID); err != nil {
			sendWS(conn, wsResponse{Type: "error", Error: err.Error()})
			return
		}
		sendWS(conn, wsResponse{Type: "ok"})

	case "tooltip":
		tip, err := mgr.Tooltip(req.NodeID)
		if err != nil {
			sendWS(conn, wsResponse{Type: "error", Error: err.Error()})
			return
		}
		sendWS(conn, wsResponse{Type: "tooltip", Payload: tip})

	case "pan":
		if err := mgr.Pan(req.DX, req.DY); err != nil {
			sendWS(conn, wsResponse{Type: "error", Error: err.Error()})
			return
		}
		sendWS(conn, wsResponse{Type: "ok"})

	case "zoom_viewport":
		if err := mgr.Zoom(req.Factor); err != nil {
			sendWS(conn, wsResponse{Type: "error", Error: err.Error()})
			return
		}
		sendWS(conn, wsResponse{Type: "ok"})

	case "state":
		sendWS(conn, wsResponse{Type: "state", Payload: mgr.State()})

	default:
		sendWS(conn, wsResponse{Type: "error", Error: "unknown message type: " + req.Type})
	}
}

func sendState(conn *websocket.Conn, state view.State, err error) {
	if err != nil {
		sendWS(conn, wsResponse{Type: "error", Error: err.Error()})
		return
	}
	sendWS(conn, wsResponse{Type: "state", Payload: state})
}

func sendWS(conn *websocket.Conn, resp wsResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		log.Printf("api: websocket write: %v", err)
	}
}

package httpserver

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"lv-markup/internal/auth"
	"lv-markup/internal/marketdata"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

// QuotesWSHandler streams the marked-up quotes of the caller's trading group.
type QuotesWSHandler struct {
	bus      *marketdata.Bus
	authSvc  *auth.Service
	upgrader websocket.Upgrader
}

func NewQuotesWSHandler(bus *marketdata.Bus, authSvc *auth.Service, origin string) *QuotesWSHandler {
	return &QuotesWSHandler{
		bus:     bus,
		authSvc: authSvc,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return allowOrigin(r, origin) },
		},
	}
}

type wsControlMessage struct {
	Type  string   `json:"type"`
	Pairs []string `json:"pairs,omitempty"`
}

// pairFilter is empty until the client narrows the stream with a subscribe
// message.
type pairFilter struct {
	mu    sync.RWMutex
	pairs map[string]struct{}
}

func (f *pairFilter) set(pairs []string) {
	next := make(map[string]struct{}, len(pairs))
	for _, p := range pairs {
		if p = strings.ToUpper(strings.TrimSpace(p)); p != "" {
			next[p] = struct{}{}
		}
	}
	f.mu.Lock()
	f.pairs = next
	f.mu.Unlock()
}

func (f *pairFilter) allows(pair string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if len(f.pairs) == 0 {
		return true
	}
	_, ok := f.pairs[pair]
	return ok
}

func allowOrigin(r *http.Request, origin string) bool {
	if origin == "*" {
		return true
	}
	reqOrigin := r.Header.Get("Origin")
	// localhost and 127.0.0.1 are interchangeable in development
	if strings.Contains(origin, "localhost") || strings.Contains(origin, "127.0.0.1") {
		if strings.Contains(reqOrigin, "localhost") || strings.Contains(reqOrigin, "127.0.0.1") {
			return true
		}
	}
	return strings.EqualFold(reqOrigin, origin)
}

func (h *QuotesWSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// browsers cannot set headers on websocket requests
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	claims, err := h.authSvc.ParseToken(token)
	if err != nil || claims.Role != auth.RoleClient {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	sub := h.bus.Subscribe(claims.Group)
	defer h.bus.Unsubscribe(sub)

	logger := log.With().Str("group", claims.Group).Str("subject", claims.Subject).Logger()
	logger.Debug().Msg("quote stream opened")
	defer logger.Debug().Msg("quote stream closed")

	var filter pairFilter
	if pairs := r.URL.Query().Get("pairs"); pairs != "" {
		filter.set(strings.Split(pairs, ","))
	}

	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var ctrl wsControlMessage
			if err := json.Unmarshal(payload, &ctrl); err != nil {
				continue
			}
			switch strings.ToLower(strings.TrimSpace(ctrl.Type)) {
			case "subscribe":
				filter.set(ctrl.Pairs)
			case "unsubscribe_all", "reset":
				filter.set(nil)
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()
	for {
		select {
		case evt, ok := <-sub:
			if !ok {
				return
			}
			if q, isQuote := evt.Data.(marketdata.Quote); isQuote && !filter.allows(q.Pair) {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

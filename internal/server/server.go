package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/patgov/audiomon/internal/classify"
	"github.com/patgov/audiomon/internal/device"
	"github.com/patgov/audiomon/internal/monitor"
	"github.com/patgov/audiomon/internal/trace"
)

// deviceView is the wire shape of an enumerated device.
type deviceView struct {
	UID        string  `json:"uid"`
	Name       string  `json:"name"`
	Channels   int     `json:"channels"`
	SampleRate float64 `json:"sampleRate"`
	IsDefault  bool    `json:"isDefault"`
	Family     string  `json:"family"`
}

func viewOf(d device.Device) deviceView {
	return deviceView{
		UID:        d.UID,
		Name:       d.Name,
		Channels:   d.ChannelCount,
		SampleRate: d.SampleRate,
		IsDefault:  d.IsDefault,
		Family:     classify.DetectFamily(d.Name).String(),
	}
}

// WebSocket message types.
type levelMessage struct {
	Type string `json:"type"`
	monitor.LevelSample
}

type devicesMessage struct {
	Type    string       `json:"type"`
	Devices []deviceView `json:"devices"`
}

type selectedMessage struct {
	Type   string     `json:"type"`
	None   bool       `json:"none"`
	Device deviceView `json:"device"`
}

type warningMessage struct {
	Type      string    `json:"type"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type statusMessage struct {
	Type   string         `json:"type"`
	Status monitor.Status `json:"status"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// rateLimiter tracks message timestamps using a sliding window.
type rateLimiter struct {
	mu         sync.Mutex
	timestamps []time.Time
}

// allow checks if a message is allowed and records the timestamp if so.
func (r *rateLimiter) allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-RateLimitWindow)

	valid := r.timestamps[:0]
	for _, t := range r.timestamps {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	r.timestamps = valid

	if len(r.timestamps) >= RateLimitMessages {
		return false
	}
	r.timestamps = append(r.timestamps, now)
	return true
}

// Server handles HTTP and WebSocket connections over one coordinator.
type Server struct {
	mon           *monitor.Coordinator
	levelInterval time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithLevelRateHz overrides the per-connection level message cap.
func WithLevelRateHz(hz int) Option {
	return func(s *Server) {
		if hz > 0 {
			s.levelInterval = time.Second / time.Duration(hz)
		}
	}
}

// New creates a server over mon.
func New(mon *monitor.Coordinator, opts ...Option) *Server {
	s := &Server{
		mon:           mon,
		levelInterval: time.Second / DefaultLevelRateHz,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/ws", s.handleWebSocket)

	mux.HandleFunc("GET /api/devices", s.handleDevices)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("POST /api/select", s.handleSelect)
	mux.HandleFunc("POST /api/start", s.handleStart)
	mux.HandleFunc("POST /api/stop", s.handleStop)

	return corsMiddleware(trace.Middleware(mux))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		trace.Logger(r.Context()).Error("websocket accept error", "error", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	log := trace.Logger(r.Context())
	log.Info("websocket connected", "remote", r.RemoteAddr)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	s.sendSnapshot(ctx, conn)
	go s.streamTo(ctx, conn)

	limiter := &rateLimiter{}
	for {
		var msg struct {
			Type string `json:"type"`
			UID  string `json:"uid"`
		}
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			log.Debug("websocket closed", "error", err)
			return
		}

		if !limiter.allow() {
			log.Warn("rate limit exceeded", "remote", r.RemoteAddr)
			s.write(ctx, conn, errorMessage{Type: "error", Message: "rate limit exceeded"})
			continue
		}

		switch msg.Type {
		case "select":
			dev, ok := s.findDevice(msg.UID)
			if !ok {
				s.write(ctx, conn, errorMessage{Type: "error", Message: "unknown device uid"})
				continue
			}
			s.mon.SelectDevice(dev)
		case "start":
			s.mon.Start()
		case "stop":
			s.mon.Stop()
		default:
			s.write(ctx, conn, errorMessage{Type: "error", Message: "unknown message type"})
		}
	}
}

// sendSnapshot brings a new connection up to date before the streams kick
// in.
func (s *Server) sendSnapshot(ctx context.Context, conn *websocket.Conn) {
	s.write(ctx, conn, devicesMessage{Type: "devices", Devices: s.deviceViews()})
	sel, ok := s.mon.Selected.Latest()
	s.write(ctx, conn, selectedMessage{Type: "selected", None: !ok || sel.IsNone(), Device: viewOf(sel)})
	s.write(ctx, conn, statusMessage{Type: "status", Status: s.mon.Status()})
}

// streamTo forwards the published streams to one connection, throttling
// levels to the configured rate by dropping intermediate samples.
func (s *Server) streamTo(ctx context.Context, conn *websocket.Conn) {
	levels, cancelLevels := s.mon.Levels.Subscribe(SubscriberBuffer)
	defer cancelLevels()
	devices, cancelDevices := s.mon.Devices.Subscribe(SubscriberBuffer)
	defer cancelDevices()
	selected, cancelSelected := s.mon.Selected.Subscribe(SubscriberBuffer)
	defer cancelSelected()
	warnings, cancelWarnings := s.mon.Warnings.Subscribe(SubscriberBuffer)
	defer cancelWarnings()

	var lastLevel time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case sample, ok := <-levels:
			if !ok {
				return
			}
			if time.Since(lastLevel) < s.levelInterval {
				continue
			}
			lastLevel = time.Now()
			s.write(ctx, conn, levelMessage{Type: "level", LevelSample: sample})
		case list, ok := <-devices:
			if !ok {
				return
			}
			views := make([]deviceView, 0, len(list))
			for _, d := range list {
				views = append(views, viewOf(d))
			}
			s.write(ctx, conn, devicesMessage{Type: "devices", Devices: views})
		case sel, ok := <-selected:
			if !ok {
				return
			}
			s.write(ctx, conn, selectedMessage{Type: "selected", None: sel.IsNone(), Device: viewOf(sel)})
		case warn, ok := <-warnings:
			if !ok {
				return
			}
			s.write(ctx, conn, warningMessage{Type: "warning", Text: warn.Text, Timestamp: warn.Timestamp})
		}
	}
}

func (s *Server) write(ctx context.Context, conn *websocket.Conn, msg any) {
	wctx, cancel := context.WithTimeout(ctx, WriteTimeout)
	defer cancel()
	_ = wsjson.Write(wctx, conn, msg)
}

func (s *Server) deviceViews() []deviceView {
	list, _ := s.mon.Devices.Latest()
	views := make([]deviceView, 0, len(list))
	for _, d := range list {
		views = append(views, viewOf(d))
	}
	return views
}

func (s *Server) findDevice(uid string) (device.Device, bool) {
	list, _ := s.mon.Devices.Latest()
	for _, d := range list {
		if d.UID == uid {
			return d, true
		}
	}
	return device.NoDevice, false
}

func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"devices": s.deviceViews()})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.mon.Status())
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	dev, ok := s.findDevice(req.UID)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown device uid"})
		return
	}

	trace.Logger(r.Context()).Info("select requested", "device", dev.Name)
	s.mon.SelectDevice(dev)
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "selecting", "device": viewOf(dev)})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	trace.Logger(r.Context()).Info("start requested")
	s.mon.Start()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "starting"})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	trace.Logger(r.Context()).Info("stop requested")
	s.mon.Stop()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "stopping"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

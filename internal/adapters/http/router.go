package httpadapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/attendee-presence/internal/core/domain"
	"github.com/kirillkom/attendee-presence/internal/core/ports"
	"github.com/kirillkom/attendee-presence/internal/core/token"
	"github.com/kirillkom/attendee-presence/internal/infrastructure/qrrender"
	"github.com/kirillkom/attendee-presence/internal/infrastructure/report"
)

// Observer receives API-level events; the Prometheus HTTP metrics satisfy it.
type Observer interface {
	RecordTokenDecode(kind, result string)
	RecordQRRender(kind string, err error)
	RecordThrottled(reason string)
}

type Options struct {
	RateLimitRPS   float64
	RateLimitBurst int
	MaxInFlight    int
	InFlightWait   time.Duration
	Metrics        http.Handler
	Instrument     func(http.Handler) http.Handler
	Observer       Observer
	Logger         *slog.Logger
}

type Router struct {
	status   ports.StatusService
	admin    ports.StatusAdmin
	matches  ports.MatchesReader
	codec    *token.Codec
	renderer *qrrender.Renderer
	opts     Options
	logger   *slog.Logger
}

func NewRouter(
	status ports.StatusService,
	admin ports.StatusAdmin,
	matches ports.MatchesReader,
	codec *token.Codec,
	renderer *qrrender.Renderer,
	opts Options,
) *Router {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Observer == nil {
		opts.Observer = noopObserver{}
	}
	return &Router{
		status:   status,
		admin:    admin,
		matches:  matches,
		codec:    codec,
		renderer: renderer,
		opts:     opts,
		logger:   logger,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.opts.Metrics != nil {
		mux.Handle("GET /metrics", rt.opts.Metrics)
	}

	api := http.NewServeMux()
	api.HandleFunc("GET /v1/events/{eventID}/attendees/status", rt.listStatus)
	api.HandleFunc("POST /v1/attendees/status", rt.updateStatus)
	api.HandleFunc("POST /v1/events/{eventID}/attendees/status/reset", rt.resetStatus)
	api.HandleFunc("GET /v1/events/{eventID}/attendees/{attendeeID}/qr.png", rt.attendeeQR)
	api.HandleFunc("GET /v1/events/{eventID}/matches", rt.listMatches)
	api.HandleFunc("GET /v1/events/{eventID}/attendance.xlsx", rt.attendanceExport)
	api.HandleFunc("GET /v1/tokens/decode", rt.decodeToken)

	var guarded http.Handler = api
	guarded = backpressureMiddleware(guarded, rt.opts.MaxInFlight, rt.opts.InFlightWait, rt.opts.Observer)
	guarded = rateLimitMiddleware(guarded, rt.opts.RateLimitRPS, rt.opts.RateLimitBurst, rt.opts.Observer)
	mux.Handle("/v1/", guarded)

	var handler http.Handler = mux
	if rt.opts.Instrument != nil {
		handler = rt.opts.Instrument(handler)
	}
	handler = accessLogMiddleware(handler, rt.logger)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) listStatus(w http.ResponseWriter, r *http.Request) {
	records, err := rt.status.List(r.Context(), r.PathValue("eventID"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if records == nil {
		records = []domain.PresenceRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records})
}

func (rt *Router) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AttendeeID string `json:"attendeeId"`
		Status     string `json:"status"`
		EventID    string `json:"eventId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	status, err := domain.ParsePresenceStatus(req.Status)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	record, err := rt.status.Update(r.Context(), req.AttendeeID, status, req.EventID)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"record": record})
}

func (rt *Router) resetStatus(w http.ResponseWriter, r *http.Request) {
	result, err := rt.admin.Reset(r.Context(), r.PathValue("eventID"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) attendeeQR(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	attendeeID := r.PathValue("attendeeID")
	kind, err := token.ParseKind(r.URL.Query().Get("kind"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	fields := domain.TokenFields{AttendeeID: attendeeID, EventID: eventID}
	if kind == token.KindCheckIn {
		record, err := rt.findRecord(r, eventID, attendeeID)
		if err != nil {
			rt.writeError(w, r, err)
			return
		}
		fields.DisplayName = record.DisplayName
	}

	payload, err := rt.codec.Encode(kind, fields)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	png, err := rt.renderer.PNG(payload)
	rt.opts.Observer.RecordQRRender(string(kind), err)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (rt *Router) findRecord(r *http.Request, eventID, attendeeID string) (domain.PresenceRecord, error) {
	records, err := rt.status.List(r.Context(), eventID)
	if err != nil {
		return domain.PresenceRecord{}, err
	}
	for _, rec := range records {
		if rec.AttendeeID == attendeeID {
			return rec, nil
		}
	}
	return domain.PresenceRecord{}, domain.WrapError(
		domain.ErrAttendeeNotFound, "find attendee", fmt.Errorf("attendee=%s event=%s", attendeeID, eventID),
	)
}

func (rt *Router) decodeToken(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	raw := strings.TrimSpace(query.Get("token"))
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "token is required"})
		return
	}
	kind, err := token.ParseKind(query.Get("kind"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	fields, matched, err := rt.codec.Decode(kind, raw)
	switch {
	case err != nil:
		rt.opts.Observer.RecordTokenDecode(string(kind), "invalid")
		rt.writeError(w, r, err)
		return
	case !matched:
		rt.opts.Observer.RecordTokenDecode(string(kind), "unmatched")
	default:
		rt.opts.Observer.RecordTokenDecode(string(kind), "matched")
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"kind":    kind,
		"matched": matched,
		"fields":  fields,
	})
}

func (rt *Router) listMatches(w http.ResponseWriter, r *http.Request) {
	if rt.matches == nil {
		rt.writeError(w, r, domain.WrapError(domain.ErrMatchesNotAvailable, "list matches", errors.New("no matches source configured")))
		return
	}
	view, err := rt.matches.Matches(r.Context(), r.PathValue("eventID"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (rt *Router) attendanceExport(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	records, err := rt.status.List(r.Context(), eventID)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteAttendance(&buf, eventID, records); err != nil {
		rt.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "attendance-"+eventID+".xlsx"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		rt.logger.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type noopObserver struct{}

func (noopObserver) RecordTokenDecode(string, string) {}
func (noopObserver) RecordQRRender(string, error)     {}
func (noopObserver) RecordThrottled(string)           {}

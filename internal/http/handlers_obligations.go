package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"

	"payble/internal/analytics"
	"payble/internal/core"
	applog "payble/internal/log"
)

type obligationsResponse struct {
	Obligations []core.Obligation `json:"obligations"`
	Count       int               `json:"count"`
}

// obligationView is a stored obligation with its display status at request time.
type obligationView struct {
	core.Obligation
	Status core.Status `json:"status"`
	Badge  string      `json:"badge,omitempty"`
}

type obligationListResponse struct {
	Obligations []obligationView `json:"obligations"`
	Count       int              `json:"count"`
}

// handleListObligations lists obligations with their status. ?day=YYYY-MM-DD
// narrows the list to bills due on that calendar day.
func (s *Server) handleListObligations(w http.ResponseWriter, r *http.Request) {
	day, err := parseDayParam(r.URL.Query(), s.loc)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	obs, err := s.store.ListObligations(ctx)
	if err != nil {
		respondError(w, r, applog.OpList, err)
		return
	}
	if !day.IsZero() {
		obs = analytics.OnDay(obs, day)
	}

	now := s.now().In(s.loc)
	views := make([]obligationView, len(obs))
	for i, o := range obs {
		views[i] = obligationView{Obligation: o, Status: core.StatusAt(o, now)}
		if !o.IsPaid && o.DueDate.Valid {
			views[i].Badge = core.DueBadge(o.DueDate.Time, now)
		}
	}
	writeJSON(w, r, http.StatusOK, obligationListResponse{Obligations: views, Count: len(views)})
}

// handleUpsertObligations accepts a JSON array of obligations from the
// upstream feed. The batch is rejected whole if any record is invalid.
func (s *Server) handleUpsertObligations(w http.ResponseWriter, r *http.Request) {
	var batch []core.Obligation
	if err := decodeJSON(r, &batch, false); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if len(batch) == 0 {
		writeError(w, r, http.StatusUnprocessableEntity, "no obligations in request")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	stored, err := s.store.UpsertObligations(ctx, batch)
	if err != nil {
		respondError(w, r, applog.OpUpsert, err)
		return
	}
	atomic.AddInt64(&s.appMetrics.obligationsUpserted, int64(len(stored)))
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Obligations upserted",
		applog.FieldOperation, applog.OpUpsert,
		applog.FieldCount, len(stored))
	writeJSON(w, r, http.StatusOK, obligationsResponse{Obligations: stored, Count: len(stored)})
}

type markPaidRequest struct {
	PaidAt string `json:"paid_at"`
}

func (s *Server) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, r, http.StatusBadRequest, "missing obligation id")
		return
	}

	var req markPaidRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	at := s.now()
	if req.PaidAt != "" {
		ts := core.ParseTimestamp(req.PaidAt, s.loc)
		if !ts.Valid {
			respondError(w, r, applog.OpMarkPaid, core.ErrInvalidDate)
			return
		}
		at = ts.Time
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	o, err := s.store.MarkPaid(ctx, id, at)
	if err != nil {
		respondError(w, r, applog.OpMarkPaid, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Obligation marked paid",
		applog.FieldObligationID, id)
	writeJSON(w, r, http.StatusOK, o)
}

type notificationView struct {
	core.Notification
	Key  string `json:"key"`
	Seen bool   `json:"seen"`
}

type notificationsResponse struct {
	Notifications []notificationView `json:"notifications"`
	Unseen        int                `json:"unseen"`
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	now := s.now().In(s.loc)
	all, err := s.notifications.List(ctx, now)
	if err != nil {
		respondError(w, r, applog.OpList, err)
		return
	}
	unseen, err := s.notifications.Unseen(ctx, now)
	if err != nil {
		respondError(w, r, applog.OpList, err)
		return
	}
	pending := make(map[string]struct{}, len(unseen))
	for _, n := range unseen {
		pending[n.Key()] = struct{}{}
	}

	views := make([]notificationView, len(all))
	for i, n := range all {
		_, isPending := pending[n.Key()]
		views[i] = notificationView{Notification: n, Key: n.Key(), Seen: !isPending}
	}
	writeJSON(w, r, http.StatusOK, notificationsResponse{Notifications: views, Unseen: len(unseen)})
}

type markSeenRequest struct {
	Keys []string `json:"keys"`
}

var errNoKeys = errors.New("keys must not be empty")

func (s *Server) handleMarkSeen(w http.ResponseWriter, r *http.Request) {
	var req markSeenRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	keys := req.Keys[:0]
	for _, k := range req.Keys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		writeError(w, r, http.StatusUnprocessableEntity, errNoKeys.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := s.notifications.MarkSeen(ctx, keys); err != nil {
		respondError(w, r, applog.OpUpsert, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}


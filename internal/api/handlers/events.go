package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gatherhall/server/internal/api/apierror"
	"github.com/gatherhall/server/internal/api/middleware"
	"github.com/gatherhall/server/internal/auth"
	"github.com/gatherhall/server/internal/domain/events"
	"github.com/gatherhall/server/internal/domain/ids"
	"github.com/gatherhall/server/internal/domain/registrations"
	"github.com/gatherhall/server/internal/metrics"
	"github.com/gatherhall/server/internal/uploads"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// maxMultipartMemory bounds how much of a multipart body is buffered in RAM.
const maxMultipartMemory = 10 << 20

type EventsHandler struct {
	Events        *events.Service
	Registrations *registrations.Service
	Images        *uploads.Store
	validate      *validator.Validate
}

func NewEventsHandler(eventsService *events.Service, registrationsService *registrations.Service, images *uploads.Store) *EventsHandler {
	return &EventsHandler{
		Events:        eventsService,
		Registrations: registrationsService,
		Images:        images,
		validate:      validator.New(),
	}
}

type eventPayload struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Location        string    `json:"location"`
	Date            time.Time `json:"date"`
	Capacity        int       `json:"capacity"`
	RegisteredCount int       `json:"registeredCount"`
	ImageURL        string    `json:"imageUrl,omitempty"`
	CreatedBy       string    `json:"createdBy"`
	CreatedAt       time.Time `json:"createdAt"`
}

func toEventPayload(event events.Event) eventPayload {
	return eventPayload{
		ID:              event.ID,
		Title:           event.Title,
		Description:     event.Description,
		Location:        event.Location,
		Date:            event.StartsAt,
		Capacity:        event.Capacity,
		RegisteredCount: event.RegisteredCount,
		ImageURL:        event.ImageURL,
		CreatedBy:       event.CreatedBy,
		CreatedAt:       event.CreatedAt,
	}
}

func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Events.List(r.Context())
	if err != nil {
		apierror.Internal(w, r, err)
		return
	}

	payload := make([]eventPayload, 0, len(list))
	for _, event := range list {
		payload = append(payload, toEventPayload(event))
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(pathParam(r, "id"))
	if !ids.IsValid(id) {
		apierror.NotFound(w, r, "event not found", nil)
		return
	}

	event, err := h.Events.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, events.ErrNotFound) {
			apierror.NotFound(w, r, "event not found", err)
			return
		}
		apierror.Internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventPayload(*event))
}

// Create accepts a multipart form so an image can ride along with the event
// fields. Only organisers and admins reach this handler; the router enforces
// the role.
func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		apierror.Unauthorized(w, r, "authentication required", nil)
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		apierror.BadRequest(w, r, "invalid multipart form", err)
		return
	}

	params := events.CreateParams{
		Title:       r.FormValue("title"),
		Description: r.FormValue("desc"),
		Location:    r.FormValue("loc"),
		CreatedBy:   claims.UserID(),
	}

	if raw := strings.TrimSpace(r.FormValue("cap")); raw != "" {
		capacity, err := strconv.Atoi(raw)
		if err != nil {
			apierror.BadRequest(w, r, "capacity must be a number", err)
			return
		}
		params.Capacity = capacity
	}

	if raw := strings.TrimSpace(r.FormValue("date")); raw != "" {
		startsAt, err := parseEventDate(raw)
		if err != nil {
			apierror.BadRequest(w, r, "date must be RFC 3339 or YYYY-MM-DD", err)
			return
		}
		params.StartsAt = startsAt
	}

	if file, header, err := r.FormFile("image"); err == nil {
		defer func() { _ = file.Close() }()
		url, err := h.Images.Save(file, header)
		if err != nil {
			apierror.BadRequest(w, r, err.Error(), err)
			return
		}
		params.ImageURL = url
	} else if !errors.Is(err, http.ErrMissingFile) {
		apierror.BadRequest(w, r, "invalid image upload", err)
		return
	}

	event, err := h.Events.Create(r.Context(), params)
	if err != nil {
		var validation events.ValidationError
		if errors.As(err, &validation) {
			apierror.BadRequest(w, r, validation.Error(), err)
			return
		}
		apierror.Internal(w, r, err)
		return
	}

	metrics.EventsCreatedTotal.Inc()
	writeJSON(w, http.StatusOK, toEventPayload(*event))
}

// Delete removes an event. Only the creator or an admin may do it; the
// event's registrations are removed with it.
func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		apierror.Unauthorized(w, r, "authentication required", nil)
		return
	}

	id := strings.TrimSpace(pathParam(r, "id"))
	if !ids.IsValid(id) {
		apierror.NotFound(w, r, "event not found", nil)
		return
	}

	event, err := h.Events.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, events.ErrNotFound) {
			apierror.NotFound(w, r, "event not found", err)
			return
		}
		apierror.Internal(w, r, err)
		return
	}

	if event.CreatedBy != claims.UserID() && !auth.IsAdmin(claims.Role) {
		apierror.Forbidden(w, r, "only the event creator may delete it", nil)
		return
	}

	if err := h.Events.Delete(r.Context(), id); err != nil {
		if errors.Is(err, events.ErrNotFound) {
			apierror.NotFound(w, r, "event not found", err)
			return
		}
		apierror.Internal(w, r, err)
		return
	}

	// Best-effort cleanup: the event row is already gone, so a stale image
	// never fails the delete.
	if event.ImageURL != "" && h.Images != nil {
		if err := h.Images.Remove(event.ImageURL); err != nil {
			zerolog.Ctx(r.Context()).Warn().
				Err(err).
				Str("event_id", id).
				Str("image_url", event.ImageURL).
				Msg("failed to remove event image")
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type registerForEventRequest struct {
	Phone    string `json:"phone" validate:"omitempty,max=32"`
	Details  string `json:"details" validate:"omitempty,max=2000"`
	USN      string `json:"usn" validate:"omitempty,max=64"`
	Branch   string `json:"branch" validate:"omitempty,max=120"`
	Semester string `json:"semester" validate:"omitempty,max=16"`
}

// RegisterForEvent signs the authenticated user up for an event.
func (h *EventsHandler) RegisterForEvent(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		apierror.Unauthorized(w, r, "authentication required", nil)
		return
	}

	id := strings.TrimSpace(pathParam(r, "id"))
	if !ids.IsValid(id) {
		apierror.NotFound(w, r, "event not found", nil)
		return
	}

	var req registerForEventRequest
	if err := decodeJSON(r, h.validate, &req); err != nil {
		apierror.BadRequest(w, r, err.Error(), err)
		return
	}

	registrant := registrations.Registrant{
		ID:    claims.UserID(),
		Email: claims.Email,
		Name:  claims.Name,
	}
	details := registrations.Details{
		Phone:    req.Phone,
		Notes:    req.Details,
		USN:      req.USN,
		Branch:   req.Branch,
		Semester: req.Semester,
	}

	if _, err := h.Registrations.Register(r.Context(), id, registrant, details); err != nil {
		switch {
		case errors.Is(err, events.ErrNotFound):
			metrics.RegistrationsTotal.WithLabelValues("error").Inc()
			apierror.NotFound(w, r, "event not found", err)
		case errors.Is(err, registrations.ErrAlreadyRegistered):
			metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
			apierror.BadRequest(w, r, "already registered", err)
		case errors.Is(err, registrations.ErrEventFull):
			metrics.RegistrationsTotal.WithLabelValues("full").Inc()
			apierror.BadRequest(w, r, "event full", err)
		default:
			metrics.RegistrationsTotal.WithLabelValues("error").Inc()
			apierror.Internal(w, r, err)
		}
		return
	}

	metrics.RegistrationsTotal.WithLabelValues("accepted").Inc()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func parseEventDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

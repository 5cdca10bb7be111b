package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hotelops/internal/handlers"
	"hotelops/internal/models"
	"hotelops/internal/observability"
	"hotelops/internal/repositories/memory"
	"hotelops/internal/services"
	"hotelops/internal/utils"
	"hotelops/pkg/events"
	"hotelops/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

const testSecret = "router-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Details map[string]string `json:"details"`
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	log := logger.NewNopLogger()
	return NewRouter(log, Options{JWTSecret: testSecret}, memoryHandlers(log))
}

// memoryHandlers wires every handler to fresh in-memory stores.
func memoryHandlers(log *logger.Logger) Handlers {
	requestRepo := memory.NewRideRequestRepository()
	tripRepo := memory.NewTripRepository()
	incidentRepo := memory.NewIncidentRepository()
	publisher := events.NewNopPublisher()

	return Handlers{
		RideRequests: handlers.NewRideRequestHandler(services.NewRideRequestService(requestRepo, tripRepo, publisher, log)),
		Trips:        handlers.NewTripHandler(services.NewTripService(tripRepo, requestRepo, nil, 0, publisher, log)),
		Incidents:    handlers.NewIncidentHandler(services.NewIncidentService(incidentRepo, tripRepo, publisher, log)),
	}
}

func token(t *testing.T, actor *models.Actor) string {
	t.Helper()
	signed, err := utils.GenerateAccessToken(actor, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

var (
	clientA = &models.Actor{UserID: 1, Role: models.RoleClient, ClientID: 10}
	clientB = &models.Actor{UserID: 2, Role: models.RoleClient, ClientID: 20}
	driverA = &models.Actor{UserID: 3, Role: models.RoleDriver, PersonnelID: 30}
	driverB = &models.Actor{UserID: 4, Role: models.RoleDriver, PersonnelID: 40}
	admin   = &models.Actor{UserID: 5, Role: models.RoleAdmin}
)

func perform(t *testing.T, router *gin.Engine, method, path string, actor *models.Actor, body interface{}) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		payload, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		req.Header.Set("Authorization", "Bearer "+token(t, actor))
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp envelope
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%s %s: decode response %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w.Code, resp
}

func expectStatus(t *testing.T, got, want int, resp envelope) {
	t.Helper()
	if got != want {
		t.Fatalf("expected status %d, got %d (%s: %s)", want, got, resp.Status, resp.Message)
	}
}

func createRideRequest(t *testing.T, router *gin.Engine, actor *models.Actor, pickup, dropoff string) models.RideRequest {
	t.Helper()
	code, resp := perform(t, router, http.MethodPost, "/api/demandes", actor, map[string]string{
		"lieu_depart":  pickup,
		"lieu_arrivee": dropoff,
	})
	expectStatus(t, code, http.StatusCreated, resp)

	var request models.RideRequest
	if err := json.Unmarshal(resp.Data, &request); err != nil {
		t.Fatalf("decode ride request: %v", err)
	}
	return request
}

func TestHealth(t *testing.T) {
	router := setupRouter(t)

	code, resp := perform(t, router, http.MethodGet, "/health", nil, nil)
	expectStatus(t, code, http.StatusOK, resp)
	if resp.Status != utils.StatusOK {
		t.Errorf("expected status %s, got %s", utils.StatusOK, resp.Status)
	}
}

func TestAuthentication(t *testing.T) {
	router := setupRouter(t)

	code, resp := perform(t, router, http.MethodGet, "/api/demandes/me", nil, nil)
	expectStatus(t, code, http.StatusUnauthorized, resp)
	if resp.Status != utils.StatusError {
		t.Errorf("expected error envelope, got %+v", resp)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/demandes/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for a bad token, got %d", w.Code)
	}
}

func TestRoleGuards(t *testing.T) {
	router := setupRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		actor  *models.Actor
		body   interface{}
	}{
		{"driver creates ride request", http.MethodPost, "/api/demandes", driverA, map[string]string{"lieu_depart": "A", "lieu_arrivee": "B"}},
		{"client lists pending", http.MethodGet, "/api/demandes/en-attente", clientA, nil},
		{"client creates trip", http.MethodPost, "/api/trajets", clientA, map[string]int{"id_demande_course": 1}},
		{"driver lists incidents", http.MethodGet, "/api/incidents", driverA, nil},
		{"admin reports incident", http.MethodPost, "/api/incidents", admin, map[string]string{"type": "autre"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := perform(t, router, tt.method, tt.path, tt.actor, tt.body)
			expectStatus(t, code, http.StatusForbidden, resp)
		})
	}
}

func TestRideRequestEndpoints(t *testing.T) {
	router := setupRouter(t)

	created := createRideRequest(t, router, clientA, "Gare", "Aéroport")
	if created.Status != models.RideRequestStatusPending || created.ClientID != clientA.ClientID {
		t.Fatalf("unexpected ride request %+v", created)
	}

	path := fmt.Sprintf("/api/demandes/%d", created.ID)
	code, resp := perform(t, router, http.MethodGet, path, clientA, nil)
	expectStatus(t, code, http.StatusOK, resp)

	code, resp = perform(t, router, http.MethodGet, path, clientB, nil)
	expectStatus(t, code, http.StatusForbidden, resp)

	code, resp = perform(t, router, http.MethodGet, "/api/demandes/abc", clientA, nil)
	expectStatus(t, code, http.StatusBadRequest, resp)

	code, resp = perform(t, router, http.MethodGet, "/api/demandes/999", clientA, nil)
	expectStatus(t, code, http.StatusNotFound, resp)

	code, resp = perform(t, router, http.MethodPost, "/api/demandes", clientA, "{not json")
	expectStatus(t, code, http.StatusBadRequest, resp)

	code, resp = perform(t, router, http.MethodPost, "/api/demandes", clientA, map[string]string{"lieu_depart": "Gare", "lieu_arrivee": "gare"})
	expectStatus(t, code, http.StatusBadRequest, resp)
	if len(resp.Details) == 0 {
		t.Error("expected validation details")
	}

	code, resp = perform(t, router, http.MethodPatch, path, clientA, map[string]string{"lieu_arrivee": "Port"})
	expectStatus(t, code, http.StatusOK, resp)

	code, resp = perform(t, router, http.MethodGet, "/api/demandes/me?statut=en_attente", clientA, nil)
	expectStatus(t, code, http.StatusOK, resp)
	var mine []models.RideRequest
	if err := json.Unmarshal(resp.Data, &mine); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(mine) != 1 || mine[0].Dropoff != "Port" {
		t.Fatalf("unexpected list %+v", mine)
	}

	code, resp = perform(t, router, http.MethodGet, "/api/demandes/me?dateMin=2030-01-02&dateMax=2030-01-01", clientA, nil)
	expectStatus(t, code, http.StatusBadRequest, resp)

	code, resp = perform(t, router, http.MethodGet, "/api/demandes/me?dateMin=yesterday", clientA, nil)
	expectStatus(t, code, http.StatusBadRequest, resp)

	code, resp = perform(t, router, http.MethodGet, "/api/demandes/me", clientB, nil)
	expectStatus(t, code, http.StatusNotFound, resp)

	code, resp = perform(t, router, http.MethodDelete, path, clientB, nil)
	expectStatus(t, code, http.StatusForbidden, resp)

	code, resp = perform(t, router, http.MethodDelete, path, clientA, nil)
	expectStatus(t, code, http.StatusOK, resp)
	if string(resp.Data) != "null" {
		t.Errorf("expected null data, got %s", resp.Data)
	}
}

func TestRideRequestStatusPolicy(t *testing.T) {
	router := setupRouter(t)

	request := createRideRequest(t, router, clientA, "A", "B")
	path := fmt.Sprintf("/api/demandes/%d/statut", request.ID)

	code, resp := perform(t, router, http.MethodPatch, path, clientA, map[string]string{"statut": "acceptee"})
	expectStatus(t, code, http.StatusForbidden, resp)

	code, resp = perform(t, router, http.MethodPatch, path, clientB, map[string]string{"statut": "annulee"})
	expectStatus(t, code, http.StatusForbidden, resp)

	code, resp = perform(t, router, http.MethodPatch, path, driverA, map[string]string{"statut": "bogus"})
	expectStatus(t, code, http.StatusBadRequest, resp)

	code, resp = perform(t, router, http.MethodPatch, path, clientA, map[string]string{"statut": "foo"})
	expectStatus(t, code, http.StatusBadRequest, resp)
	if _, ok := resp.Details["statut"]; !ok {
		t.Fatalf("expected a statut detail, got %+v", resp.Details)
	}

	code, resp = perform(t, router, http.MethodPatch, path, clientA, map[string]string{})
	expectStatus(t, code, http.StatusBadRequest, resp)

	code, resp = perform(t, router, http.MethodPatch, path, clientA, map[string]string{"statut": "annulee"})
	expectStatus(t, code, http.StatusOK, resp)

	code, resp = perform(t, router, http.MethodPatch, path, driverA, map[string]string{"statut": "acceptee"})
	expectStatus(t, code, http.StatusBadRequest, resp)
}

func TestTripScenario(t *testing.T) {
	router := setupRouter(t)

	request := createRideRequest(t, router, clientA, "A", "B")
	pickup := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	tripBody := map[string]interface{}{
		"id_demande_course":    request.ID,
		"date_prise_en_charge": pickup,
		"date_depose":          pickup.Add(40 * time.Minute),
	}

	code, resp := perform(t, router, http.MethodPost, "/api/trajets", driverA, tripBody)
	expectStatus(t, code, http.StatusConflict, resp)

	code, resp = perform(t, router, http.MethodPatch, fmt.Sprintf("/api/demandes/%d/statut", request.ID), driverA, map[string]string{"statut": "acceptee"})
	expectStatus(t, code, http.StatusOK, resp)

	code, resp = perform(t, router, http.MethodPost, "/api/trajets", driverA, tripBody)
	expectStatus(t, code, http.StatusCreated, resp)
	if resp.Status != utils.StatusCreated {
		t.Errorf("expected %s envelope, got %s", utils.StatusCreated, resp.Status)
	}
	var trip models.Trip
	if err := json.Unmarshal(resp.Data, &trip); err != nil {
		t.Fatalf("decode trip: %v", err)
	}
	if trip.Status != models.TripStatusPending || trip.DriverID != driverA.PersonnelID {
		t.Fatalf("unexpected trip %+v", trip)
	}

	code, resp = perform(t, router, http.MethodPost, "/api/trajets", driverB, tripBody)
	expectStatus(t, code, http.StatusConflict, resp)

	tripPath := fmt.Sprintf("/api/trajets/%d", trip.ID)
	code, resp = perform(t, router, http.MethodGet, tripPath, driverB, nil)
	expectStatus(t, code, http.StatusForbidden, resp)

	newPickup := pickup.Add(2 * time.Hour)
	schedule := map[string]interface{}{
		"date_prise_en_charge": newPickup,
		"date_depose":          newPickup.Add(time.Hour),
	}
	code, resp = perform(t, router, http.MethodPatch, tripPath+"/horaires", clientB, schedule)
	expectStatus(t, code, http.StatusForbidden, resp)
	code, resp = perform(t, router, http.MethodPatch, tripPath+"/horaires", clientA, schedule)
	expectStatus(t, code, http.StatusOK, resp)

	code, resp = perform(t, router, http.MethodPatch, tripPath+"/statut", driverA, map[string]string{"statut": "en_cours"})
	expectStatus(t, code, http.StatusOK, resp)

	code, resp = perform(t, router, http.MethodPatch, tripPath+"/statut", driverB, map[string]string{"statut": "termine"})
	expectStatus(t, code, http.StatusForbidden, resp)

	code, resp = perform(t, router, http.MethodPatch, tripPath+"/horaires", clientA, schedule)
	expectStatus(t, code, http.StatusConflict, resp)

	code, resp = perform(t, router, http.MethodGet, "/api/trajets/planning?dateMin=2026-09-01&dateMax=2026-09-01", driverA, nil)
	expectStatus(t, code, http.StatusOK, resp)
	var planning []models.DayPlanning
	if err := json.Unmarshal(resp.Data, &planning); err != nil {
		t.Fatalf("decode planning: %v", err)
	}
	if len(planning) != 1 || planning[0].Date != "2026-09-01" || len(planning[0].Trips) != 1 {
		t.Fatalf("unexpected planning %+v", planning)
	}

	code, resp = perform(t, router, http.MethodGet, "/api/trajets/planning", driverA, nil)
	expectStatus(t, code, http.StatusBadRequest, resp)

	code, resp = perform(t, router, http.MethodGet, "/api/trajets/me?statut=en_cours", driverA, nil)
	expectStatus(t, code, http.StatusOK, resp)
}

func TestIncidentEndpoints(t *testing.T) {
	router := setupRouter(t)

	code, resp := perform(t, router, http.MethodGet, "/api/incidents", admin, nil)
	expectStatus(t, code, http.StatusNotFound, resp)

	code, resp = perform(t, router, http.MethodPost, "/api/incidents", driverA, map[string]string{"type": "incendie"})
	expectStatus(t, code, http.StatusBadRequest, resp)

	code, resp = perform(t, router, http.MethodPost, "/api/incidents", driverA, map[string]interface{}{"type": "panne", "id_trajet": 77})
	expectStatus(t, code, http.StatusNotFound, resp)

	code, resp = perform(t, router, http.MethodPost, "/api/incidents", clientA, map[string]string{"type": "autre", "description": "Bagage oublié"})
	expectStatus(t, code, http.StatusCreated, resp)
	var incident models.Incident
	if err := json.Unmarshal(resp.Data, &incident); err != nil {
		t.Fatalf("decode incident: %v", err)
	}
	if incident.UserID != clientA.UserID || incident.Status != models.IncidentStatusOpen {
		t.Fatalf("unexpected incident %+v", incident)
	}

	path := fmt.Sprintf("/api/incidents/%d", incident.ID)
	code, resp = perform(t, router, http.MethodGet, path, admin, nil)
	expectStatus(t, code, http.StatusOK, resp)

	for i := 0; i < 2; i++ {
		code, resp = perform(t, router, http.MethodPatch, path+"/traite", admin, nil)
		expectStatus(t, code, http.StatusOK, resp)
	}

	code, resp = perform(t, router, http.MethodGet, "/api/incidents/trajet/5", admin, nil)
	expectStatus(t, code, http.StatusNotFound, resp)

	code, resp = perform(t, router, http.MethodGet, "/api/incidents/999", admin, nil)
	expectStatus(t, code, http.StatusNotFound, resp)
}

func TestUnknownRoute(t *testing.T) {
	router := setupRouter(t)

	code, resp := perform(t, router, http.MethodGet, "/nope", nil, nil)
	expectStatus(t, code, http.StatusNotFound, resp)
}

// brokenRideRequests fails listings with an error the stores could return.
type brokenRideRequests struct {
	services.RideRequestService
}

func (brokenRideRequests) GetByClient(context.Context, int64, services.RideRequestFilters) ([]*models.RideRequest, error) {
	return nil, errors.New("db exploded: dial tcp 10.0.0.5:5432")
}

func bufferedLogger(t *testing.T) (*logger.Logger, *bytes.Buffer) {
	t.Helper()
	log, err := logger.NewLogger(&logger.Config{Level: logger.InfoLevel, Format: "json"})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	var buf bytes.Buffer
	log.SetOutput(&buf)
	return log, &buf
}

// logEntries decodes the JSON lines written to buf.
func logEntries(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("decode log line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestUnexpectedErrorsAreHidden(t *testing.T) {
	log := logger.NewNopLogger()
	h := memoryHandlers(log)
	h.RideRequests = handlers.NewRideRequestHandler(brokenRideRequests{})
	router := NewRouter(log, Options{JWTSecret: testSecret}, h)

	req := httptest.NewRequest(http.MethodGet, "/api/demandes/me", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, clientA))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "exploded") || strings.Contains(w.Body.String(), "10.0.0.5") {
		t.Fatalf("raw error leaked to the client: %s", w.Body.String())
	}

	var resp envelope
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != utils.StatusError || resp.Message != utils.ErrInternalServer {
		t.Fatalf("unexpected envelope %+v", resp)
	}
}

func TestPanicsAreLoggedAndCounted(t *testing.T) {
	log, buf := bufferedLogger(t)
	router := NewRouter(log, Options{JWTSecret: testSecret}, memoryHandlers(log))
	router.GET("/boom", func(c *gin.Context) {
		panic("nil map write")
	})

	counter := observability.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/boom", "500")
	before := testutil.ToFloat64(counter)

	code, resp := perform(t, router, http.MethodGet, "/boom", nil, nil)
	expectStatus(t, code, http.StatusInternalServerError, resp)
	if resp.Status != utils.StatusError || resp.Message != utils.ErrInternalServer {
		t.Fatalf("unexpected envelope %+v", resp)
	}

	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Fatalf("expected the panic to be counted once, got %v", got)
	}

	var logged bool
	for _, entry := range logEntries(t, buf) {
		if entry["type"] == "api_request" && entry["endpoint"] == "/boom" && entry["status_code"] == float64(500) {
			logged = true
		}
	}
	if !logged {
		t.Fatalf("expected an access log line for the panic, got %s", buf.String())
	}
}

func TestInvalidTokenIsASecurityEvent(t *testing.T) {
	log, buf := bufferedLogger(t)
	router := NewRouter(log, Options{JWTSecret: testSecret}, memoryHandlers(log))

	req := httptest.NewRequest(http.MethodGet, "/api/demandes/me", nil)
	req.Header.Set("Authorization", "Bearer forged")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	var found bool
	for _, entry := range logEntries(t, buf) {
		if entry["type"] == "security_event" && entry["event_type"] == "invalid_token" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an invalid_token security event, got %s", buf.String())
	}
}

func TestHealthReportsWebSocketClients(t *testing.T) {
	log := logger.NewNopLogger()
	router := NewRouter(log, Options{JWTSecret: testSecret, Connections: func() int { return 3 }}, memoryHandlers(log))

	code, resp := perform(t, router, http.MethodGet, "/health", nil, nil)
	expectStatus(t, code, http.StatusOK, resp)

	var payload struct {
		Status  string `json:"status"`
		Clients int    `json:"websocket_clients"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Status != "up" || payload.Clients != 3 {
		t.Fatalf("unexpected health payload %+v", payload)
	}
}

package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"ar-navigation/algo"
	"ar-navigation/mapdata"
	"ar-navigation/model"
	"ar-navigation/navigation"
	"ar-navigation/positionfeed"
	"ar-navigation/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"
)

type memUsers struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func (m *memUsers) FindUser(username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (m *memUsers) CreateUser(u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = uint(len(m.users) + 1)
	m.users[u.Username] = u
	return nil
}

type memEvents struct{ events []model.NavigationEvent }

func (m *memEvents) RecentEvents(sessionID string, limit int) ([]model.NavigationEvent, error) {
	var out []model.NavigationEvent
	for _, ev := range m.events {
		if ev.SessionID == sessionID && len(out) < limit {
			out = append(out, ev)
		}
	}
	return out, nil
}

const campus = `{"type": "FeatureCollection", "features": [
  {"type": "Feature", "properties": {"name": "Clocktower"},
   "geometry": {"type": "Point", "coordinates": [170.5174, -45.8643]}},
  {"type": "Feature", "properties": {"name": "Central Library"},
   "geometry": {"type": "Point", "coordinates": [170.5180, -45.8650]}},
  {"type": "Feature", "properties": {},
   "geometry": {"type": "LineString", "coordinates": [[170.51731, -45.86438], [170.5174, -45.8643], [170.5180, -45.8650]]}}
]}`

func setup(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	proj, err := utils.NewProjector(model.GeodeticPoint{Latitude: -45.86438, Longitude: 170.51731}, 111139, 76600)
	if err != nil {
		t.Fatal(err)
	}
	b, err := algo.NewGraphBuilder(proj, algo.DefaultBuilderOptions())
	if err != nil {
		t.Fatal(err)
	}
	Graph = b.Ingest([]mapdata.RawCollection{{Source: "campus", Format: mapdata.FormatGeoJSON, Data: []byte(campus)}})
	Projector = proj

	route := []model.NavigationInstruction{
		{Position: model.LocalPoint{X: 0, Z: 0}, Direction: model.DirectionStraight, Text: "Go straight."},
		{Position: model.LocalPoint{X: 10, Z: 0}, Direction: model.DirectionGoal, Text: "Arrived."},
	}
	tr, err := navigation.NewTracker(route, navigation.DefaultSettings())
	if err != nil {
		t.Fatal(err)
	}
	Session, err = navigation.NewSession(tr)
	if err != nil {
		t.Fatal(err)
	}
	Feed = positionfeed.NewProvider()
	CurrentRoute = &model.Route{Name: "test", Tags: []string{"default"}}
	Users = &memUsers{users: map[string]*model.User{}}
	Events = &memEvents{}
	SetJWTSecret("test-secret", time.Hour)
	StreamInterval = 10 * time.Millisecond

	r := gin.New()
	SetupRoutes(r)
	return r
}

func do(r http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, r http.Handler) string {
	t.Helper()
	if w := do(r, http.MethodPost, "/api/register", `{"username": "walker", "password": "secret1"}`, ""); w.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", w.Code, w.Body)
	}
	w := do(r, http.MethodPost, "/api/login", `{"username": "walker", "password": "secret1"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("login: %d %s", w.Code, w.Body)
	}
	var resp LoginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Token == "" {
		t.Fatalf("login response %s: %v", w.Body, err)
	}
	return resp.Token
}

func TestPing(t *testing.T) {
	r := setup(t)
	if w := do(r, http.MethodGet, "/ping", "", ""); w.Code != http.StatusOK {
		t.Errorf("ping = %d", w.Code)
	}
}

func TestAuthFlow(t *testing.T) {
	r := setup(t)
	login(t, r)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"duplicate user", "/api/register", `{"username": "walker", "password": "secret1"}`, http.StatusConflict},
		{"short password", "/api/register", `{"username": "other", "password": "123"}`, http.StatusBadRequest},
		{"wrong password", "/api/login", `{"username": "walker", "password": "nope"}`, http.StatusUnauthorized},
		{"unknown user", "/api/login", `{"username": "ghost", "password": "secret1"}`, http.StatusUnauthorized},
		{"missing fields", "/api/login", `{}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := do(r, http.MethodPost, tt.path, tt.body, ""); w.Code != tt.status {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.status, w.Body)
			}
		})
	}
}

func TestProtectedEndpointsRequireToken(t *testing.T) {
	r := setup(t)
	for _, token := range []string{"", "garbage"} {
		if w := do(r, http.MethodPost, "/api/navigation/start", "", token); w.Code != http.StatusUnauthorized {
			t.Errorf("token %q: status = %d, want 401", token, w.Code)
		}
	}
}

func TestNavigationEndpoints(t *testing.T) {
	r := setup(t)
	token := login(t, r)

	w := do(r, http.MethodPost, "/api/navigation/start", "", token)
	if w.Code != http.StatusOK {
		t.Fatalf("start: %d %s", w.Code, w.Body)
	}
	var started struct {
		SessionID string           `json:"sessionId"`
		Progress  ProgressResponse `json:"progress"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &started); err != nil {
		t.Fatal(err)
	}
	if started.SessionID == "" || !started.Progress.Active || started.Progress.CurrentInstructionIndex != 0 {
		t.Errorf("start response = %+v", started)
	}

	w = do(r, http.MethodPost, "/api/navigation/start", `{"name": "Central Library"}`, token)
	if w.Code != http.StatusOK {
		t.Errorf("start with destination: %d", w.Code)
	}

	w = do(r, http.MethodGet, "/api/navigation/progress", "", "")
	var prog ProgressResponse
	if err := json.Unmarshal(w.Body.Bytes(), &prog); err != nil {
		t.Fatal(err)
	}
	if prog.FeedStatus != positionfeed.StatusInitializing || prog.HasFix {
		t.Errorf("progress = %+v", prog)
	}
	if prog.Current == nil || prog.Current.Direction != model.DirectionStraight {
		t.Errorf("current instruction = %+v", prog.Current)
	}

	w = do(r, http.MethodGet, "/api/navigation/route", "", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"GOAL"`) || !strings.Contains(w.Body.String(), `"test"`) {
		t.Errorf("route: %d %s", w.Code, w.Body)
	}

	if w := do(r, http.MethodGet, "/api/navigation/events?limit=0", "", ""); w.Code != http.StatusBadRequest {
		t.Errorf("events with limit 0: %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/api/navigation/events", "", ""); w.Code != http.StatusOK {
		t.Errorf("events: %d", w.Code)
	}
}

func TestPushPosition(t *testing.T) {
	r := setup(t)
	token := login(t, r)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"valid", `{"latitude": -45.8644, "longitude": 170.5173}`, http.StatusAccepted},
		{"out of range", `{"latitude": 95, "longitude": 170.5173}`, http.StatusUnprocessableEntity},
		{"malformed", `{"latitude": "north"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := do(r, http.MethodPost, "/api/position", tt.body, token); w.Code != tt.status {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.status, w.Body)
			}
		})
	}
	if geo, ok := Feed.Latest(); !ok || geo.Latitude != -45.8644 {
		t.Errorf("latest fix = %+v, %v", geo, ok)
	}
}

func TestGraphEndpoints(t *testing.T) {
	r := setup(t)

	w := do(r, http.MethodGet, "/api/nodes", "", "")
	var nodes struct {
		Count int        `json:"count"`
		Nodes []NodeView `json:"nodes"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &nodes); err != nil {
		t.Fatal(err)
	}
	if nodes.Count != 3 {
		t.Errorf("node count = %d, want 3", nodes.Count)
	}
	// the clocktower point sits on the middle of the path
	if len(nodes.Nodes) > 0 && len(nodes.Nodes[0].Neighbors) != 2 {
		t.Errorf("clocktower node neighbors = %v", nodes.Nodes[0].Neighbors)
	}

	tests := []struct {
		path   string
		status int
	}{
		{"/api/nodes/1", http.StatusOK},
		{"/api/nodes/99", http.StatusNotFound},
		{"/api/nodes/abc", http.StatusBadRequest},
		{"/api/nodes/nearest?x=0.1&z=0.1", http.StatusOK},
		{"/api/nodes/nearest?lat=-45.8643&lng=170.5174", http.StatusOK},
		{"/api/nodes/nearest", http.StatusBadRequest},
		{"/api/graph", http.StatusOK},
		{"/api/pois", http.StatusOK},
		{"/api/pois/search", http.StatusBadRequest},
	}
	for _, tt := range tests {
		if w := do(r, http.MethodGet, tt.path, "", ""); w.Code != tt.status {
			t.Errorf("GET %s = %d, want %d", tt.path, w.Code, tt.status)
		}
	}

	w = do(r, http.MethodGet, "/api/pois/search?q=library", "", "")
	var found struct {
		Count   int       `json:"count"`
		Results []POIView `json:"results"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &found); err != nil {
		t.Fatal(err)
	}
	if found.Count != 1 || found.Results[0].Name != "Central Library" || found.Results[0].Geodetic == nil {
		t.Errorf("search results = %+v", found)
	}
}

func TestGraphNotLoaded(t *testing.T) {
	r := setup(t)
	Graph = nil
	if w := do(r, http.MethodGet, "/api/nodes", "", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestSessionNotReady(t *testing.T) {
	r := setup(t)
	token := login(t, r)
	Session = nil

	tests := []struct {
		name   string
		method string
		path   string
		token  string
	}{
		{"progress", http.MethodGet, "/api/navigation/progress", ""},
		{"route", http.MethodGet, "/api/navigation/route", ""},
		{"events", http.MethodGet, "/api/navigation/events", ""},
		{"stream", http.MethodGet, "/api/navigation/stream", ""},
		{"start", http.MethodPost, "/api/navigation/start", token},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := do(r, tt.method, tt.path, "", tt.token); w.Code != http.StatusServiceUnavailable {
				t.Errorf("status = %d, want 503", w.Code)
			}
		})
	}

	// an explicit session id does not need the live session
	if w := do(r, http.MethodGet, "/api/navigation/events?session=abc", "", ""); w.Code != http.StatusOK {
		t.Errorf("events by id: status = %d, want 200", w.Code)
	}
}

func TestStreamProgress(t *testing.T) {
	r := setup(t)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/navigation/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var first ProgressResponse
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read first: %v", err)
	}
	if first.Active {
		t.Errorf("first snapshot = %+v, want inactive", first)
	}

	Session.Start(navigation.Destination{})
	var next ProgressResponse
	if err := conn.ReadJSON(&next); err != nil {
		t.Fatalf("read update: %v", err)
	}
	if !next.Active || next.SessionID == "" {
		t.Errorf("update = %+v, want an active session", next)
	}
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/hexworlds/internal/editor"
	"github.com/talgya/hexworlds/internal/engine"
	"github.com/talgya/hexworlds/internal/persistence"
)

type fixture struct {
	srv *Server
	ts  *httptest.Server
	db  *persistence.DB
}

func newFixture(t *testing.T, configure func(*Server)) *fixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	eng := engine.NewEngine(nil)
	done := make(chan struct{})
	go func() {
		eng.Run(ctx)
		close(done)
	}()

	db, err := persistence.Open(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatal(err)
	}
	notices := editor.NewNoticeBuffer(32, nil)
	sess := editor.New(eng, db, notices, nil, editor.Options{
		Width: 160, Height: 120, MinimapWidth: 80, MinimapHeight: 60,
		AutoSaveInterval: time.Hour,
	})
	if err := eng.Do(ctx, sess.Start); err != nil {
		t.Fatal(err)
	}

	srv := &Server{
		Session:   sess,
		Eng:       eng,
		DB:        db,
		Notices:   notices,
		PublicURL: "http://maps.test",
		Origins:   []string{"http://allowed.test"},
		RateLimit: 100,
	}
	if configure != nil {
		configure(srv)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.hub.Close()
		ts.Close()
		cancel()
		<-done
		db.Close()
	})
	return &fixture{srv: srv, ts: ts, db: db}
}

func (f *fixture) call(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, f.ts.URL+path, rd)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, data
}

func (f *fixture) mustCall(t *testing.T, method, path, body string, want int) []byte {
	t.Helper()
	resp, data := f.call(t, method, path, body)
	if resp.StatusCode != want {
		t.Fatalf("%s %s = %d (%s), want %d", method, path, resp.StatusCode, data, want)
	}
	return data
}

func TestStatusCodes(t *testing.T) {
	f := newFixture(t, nil)
	tests := []struct {
		method, path, body string
		want               int
	}{
		{"GET", "/api/v1/status", "", 200},
		{"PUT", "/api/v1/hex/0/0", `{"terrain": "forest"}`, 200},
		{"PUT", "/api/v1/hex/x/0", "", 400},
		{"PUT", "/api/v1/hex/1/0", `{"terrain": "lava"}`, 400},
		{"PATCH", "/api/v1/hex/9/9", `{"name": "Nowhere"}`, 404},
		{"PATCH", "/api/v1/hex/0/0", `{"name": "Glade"}`, 200},
		{"GET", "/api/v1/hex/0/0", "", 200},
		{"POST", "/api/v1/landmarks", `{"q": 0, "r": 0, "name": "Inn"}`, 201},
		{"POST", "/api/v1/landmarks", `{"q": 0, "r": 0, "name": "Second"}`, 409},
		{"POST", "/api/v1/landmarks", `{"q": 1, "r": 0, "style": "icon"}`, 400},
		{"POST", "/api/v1/tokens", `{"q": 0, "r": 0, "name": "Aria"}`, 201},
		{"POST", "/api/v1/tokens", `{"q": 0, "r": 0, "bogus": 1}`, 400},
		{"POST", "/api/v1/tokens/token_1/route", `{"q": 3, "r": 0}`, 422},
		{"PATCH", "/api/v1/tokens/token_1", `{"attributes": [1]}`, 400},
		{"PATCH", "/api/v1/tokens/token_1", `{"attributes": {"pathfinding": true}, "name": "Aria II"}`, 200},
		{"POST", "/api/v1/tokens/token_1/route", `{"q": 3, "r": 0}`, 422},
		{"GET", "/api/v1/tokens/token_9", "", 404},
		{"PATCH", "/api/v1/tokens/token_9", `{"name": "x"}`, 404},
		{"POST", "/api/v1/paths/path_9/split/1", "", 404},
		{"POST", "/api/v1/paths/path_9/split/one", "", 400},
		{"PUT", "/api/v1/map", `{"version": "1.2"}`, 400},
		{"PUT", "/api/v1/map", `{"hexes": [`, 400},
		{"PUT", "/api/v1/tool", `{"mode": "lasso"}`, 400},
		{"PUT", "/api/v1/tool", `{"mode": "path", "routing": "direct"}`, 200},
		{"POST", "/api/v1/viewport/zoom", `{"factor": 0}`, 400},
		{"GET", "/api/v1/share/not-a-uuid", "", 404},
	}
	for _, tt := range tests {
		resp, data := f.call(t, tt.method, tt.path, tt.body)
		if resp.StatusCode != tt.want {
			t.Errorf("%s %s = %d (%s), want %d", tt.method, tt.path, resp.StatusCode, data, tt.want)
			continue
		}
		if resp.StatusCode >= 400 {
			var body map[string]string
			if err := json.Unmarshal(data, &body); err != nil || body["error"] == "" {
				t.Errorf("%s %s: error body %q", tt.method, tt.path, data)
			}
		}
	}

	var notices struct {
		Notices []editor.Notice `json:"notices"`
	}
	json.Unmarshal(f.mustCall(t, "GET", "/api/v1/notices", "", 200), &notices)
	if len(notices.Notices) == 0 {
		t.Error("domain errors produced no notices")
	}
}

func TestRouteOverHTTP(t *testing.T) {
	f := newFixture(t, nil)
	f.mustCall(t, "PUT", "/api/v1/tool", `{"mode": "path", "routing": "direct"}`, 200)
	f.mustCall(t, "POST", "/api/v1/draft/points", `{"q": 0, "r": 0}`, 200)
	f.mustCall(t, "POST", "/api/v1/draft/points", `{"q": 3, "r": 0}`, 200)
	f.mustCall(t, "POST", "/api/v1/draft/finish", "", 201)
	f.mustCall(t, "POST", "/api/v1/tokens", `{"q": 0, "r": 0, "attributes": {"pathfinding": true}}`, 201)

	var tok tokenView
	json.Unmarshal(f.mustCall(t, "POST", "/api/v1/tokens/token_1/route", `{"q": 3, "r": 0}`, 200), &tok)
	if !tok.Routing || tok.Q != 1 || tok.Destination == nil || tok.Destination.Q != 3 {
		t.Fatalf("after start: %+v", tok)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		json.Unmarshal(f.mustCall(t, "GET", "/api/v1/tokens/token_1", "", 200), &tok)
		if !tok.Routing {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if tok.Routing || tok.Q != 3 {
		t.Errorf("token did not arrive: %+v", tok)
	}
}

func TestExportImportOverHTTP(t *testing.T) {
	f := newFixture(t, nil)
	f.mustCall(t, "PUT", "/api/v1/tool", `{"brush": 2}`, 200)
	f.mustCall(t, "PUT", "/api/v1/hex/0/0", `{"terrain": "desert"}`, 200)

	exported := f.mustCall(t, "GET", "/api/v1/map", "", 200)
	f.mustCall(t, "DELETE", "/api/v1/map", "", 204)

	var st editor.Status
	json.Unmarshal(f.mustCall(t, "GET", "/api/v1/status", "", 200), &st)
	if st.Counts.Hexes != 0 {
		t.Fatalf("clear left %d hexes", st.Counts.Hexes)
	}

	var imported struct {
		Counts struct {
			Hexes int `json:"hexes"`
		} `json:"counts"`
	}
	json.Unmarshal(f.mustCall(t, "PUT", "/api/v1/map", string(exported), 200), &imported)
	if imported.Counts.Hexes != 7 {
		t.Errorf("imported %d hexes, want 7", imported.Counts.Hexes)
	}

	var events struct {
		Events []persistence.Event `json:"events"`
	}
	json.Unmarshal(f.mustCall(t, "GET", "/api/v1/events", "", 200), &events)
	if len(events.Events) != 2 || events.Events[0].Kind != "import" || events.Events[1].Kind != "clear" {
		t.Errorf("events = %+v", events.Events)
	}
}

func TestRenderPNG(t *testing.T) {
	f := newFixture(t, nil)
	f.mustCall(t, "POST", "/api/v1/map/starter", `{"seed": 3}`, 200)

	for path, width := range map[string]int{"/api/v1/render/main.png": 160, "/api/v1/render/minimap.png": 80} {
		resp, data := f.call(t, "GET", path, "")
		if resp.StatusCode != 200 || resp.Header.Get("Content-Type") != "image/png" {
			t.Errorf("%s: %d %s", path, resp.StatusCode, resp.Header.Get("Content-Type"))
			continue
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			t.Errorf("%s: %v", path, err)
			continue
		}
		if got := img.Bounds().Dx(); got != width {
			t.Errorf("%s width = %d, want %d", path, got, width)
		}
	}
}

func TestShareAndRateLimit(t *testing.T) {
	f := newFixture(t, func(s *Server) { s.RateLimit = 2 })
	f.mustCall(t, "PUT", "/api/v1/hex/2/2", `{"terrain": "swamp"}`, 200)

	var share map[string]string
	json.Unmarshal(f.mustCall(t, "POST", "/api/v1/share", "", 201), &share)
	if !strings.HasPrefix(share["url"], "http://maps.test/api/v1/share/") {
		t.Errorf("url = %q", share["url"])
	}
	data := f.mustCall(t, "GET", "/api/v1/share/"+share["id"], "", 200)
	if !strings.Contains(string(data), `"terrain":"swamp"`) {
		t.Errorf("shared map = %s", data)
	}

	f.mustCall(t, "DELETE", "/api/v1/map", "", 204)
	f.mustCall(t, "POST", "/api/v1/share/"+share["id"]+"/load", "", 200)
	var st editor.Status
	json.Unmarshal(f.mustCall(t, "GET", "/api/v1/status", "", 200), &st)
	if st.Counts.Hexes != 1 {
		t.Errorf("loaded share has %d hexes", st.Counts.Hexes)
	}

	f.mustCall(t, "POST", "/api/v1/share", "", 201)
	resp, _ := f.call(t, "POST", "/api/v1/share", "")
	if resp.StatusCode != http.StatusTooManyRequests || resp.Header.Get("Retry-After") == "" {
		t.Errorf("third share = %d, Retry-After %q", resp.StatusCode, resp.Header.Get("Retry-After"))
	}
}

func TestWebsocketFeed(t *testing.T) {
	f := newFixture(t, nil)
	url := "ws" + strings.TrimPrefix(f.ts.URL, "http") + "/api/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	for f.srv.hub.Clients() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	f.mustCall(t, "PUT", "/api/v1/hex/0/0", `{"terrain": "tundra"}`, 200)

	conn.SetReadDeadline(deadline)
	for {
		var ev ChangeEvent
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("no update with the painted hex: %v", err)
		}
		if ev.Type == "status" && ev.Status.Counts.Hexes == 1 {
			return
		}
	}
}

func TestCORSAndAdminKey(t *testing.T) {
	f := newFixture(t, func(s *Server) { s.AdminKey = "secret" })

	for origin, want := range map[string]string{"http://allowed.test": "http://allowed.test", "http://evil.test": ""} {
		req, _ := http.NewRequest(http.MethodOptions, f.ts.URL+"/api/v1/status", nil)
		req.Header.Set("Origin", origin)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNoContent || resp.Header.Get("Access-Control-Allow-Origin") != want {
			t.Errorf("%s: %d allow-origin %q", origin, resp.StatusCode, resp.Header.Get("Access-Control-Allow-Origin"))
		}
	}

	f.mustCall(t, "GET", "/api/v1/status", "", 200)
	f.mustCall(t, "PUT", "/api/v1/hex/0/0", "", 401)

	req, _ := http.NewRequest(http.MethodPut, f.ts.URL+"/api/v1/hex/0/0", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("authorized paint = %d", resp.StatusCode)
	}
}

func TestRateLimiterWindow(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	allowed := func(ip string) bool {
		ok, _ := rl.Allow(ip)
		return ok
	}
	if !allowed("a") || !allowed("a") {
		t.Fatal("first two requests refused")
	}
	now = now.Add(15 * time.Second)
	ok, wait := rl.Allow("a")
	if ok {
		t.Fatal("limit of 2 not enforced")
	}
	if wait != 45*time.Second || retrySeconds(wait) != 46 {
		t.Errorf("wait = %v, Retry-After %d", wait, retrySeconds(wait))
	}
	if !allowed("b") {
		t.Error("limit shared across IPs")
	}
	now = now.Add(45 * time.Second)
	if !allowed("a") {
		t.Error("window did not reset")
	}
}

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"TickerCard/internal/model"
	"TickerCard/internal/store"
)

type fakeCards struct {
	mu   sync.Mutex
	card model.Card
}

func (f *fakeCards) Card() model.Card {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.card
}

type fakeRunner struct {
	busy bool
	res  *model.RefreshResult
	runs int
}

func (f *fakeRunner) RunNow(trigger model.TriggerType) (*model.RefreshResult, bool) {
	if f.busy {
		return nil, false
	}
	f.runs++
	res := *f.res
	res.Trigger = trigger
	return &res, true
}

func (f *fakeRunner) LastResult() *model.RefreshResult { return f.res }
func (f *fakeRunner) Running() bool                    { return f.busy }

type fakeSnapshots struct {
	snap model.Snapshot
	err  error
}

func (f *fakeSnapshots) Load() (model.Snapshot, error) { return f.snap, f.err }

type fakeHistory struct {
	counts map[model.RefreshStatus]int
	err    error
}

func (f fakeHistory) RefreshCounts(_ time.Time) (map[model.RefreshStatus]int, error) {
	return f.counts, f.err
}

func testCard() model.Card {
	return model.Card{
		Symbol: "GOOG",
		Indicator: model.IndicatorFigure{
			Value: 101, Reference: 100, DeltaPercent: 1, Polarity: model.PolarityIncreasing,
		},
		Line: model.LineFigure{
			Points:   []model.LinePoint{{Date: time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC), Rate: 100}},
			Fill:     model.FillToZeroY,
			Color:    model.ColorGreen,
			Polarity: model.PolarityIncreasing,
		},
		PriceLabel: model.PriceLabel{Text: "$101.00", Style: model.StyleUp, Recent: 101, Older: 100},
	}
}

func newTestServer(runner *fakeRunner, snaps *fakeSnapshots) (*Server, *fakeCards) {
	cards := &fakeCards{card: testCard()}
	if runner == nil {
		runner = &fakeRunner{res: &model.RefreshResult{ID: "r1", Status: model.RefreshOK, Rows: 20}}
	}
	if snaps == nil {
		snaps = &fakeSnapshots{}
	}
	history := fakeHistory{counts: map[model.RefreshStatus]int{model.RefreshOK: 7, model.RefreshSkipped: 1}}
	return New(":0", cards, runner, snaps, history), cards
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) (Response, json.RawMessage) {
	t.Helper()
	var raw struct {
		Response
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return raw.Response, raw.Data
}

func do(s *Server, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(nil, nil)
	rec := do(s, http.MethodGet, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
}

func TestCardAndViews(t *testing.T) {
	s, _ := newTestServer(nil, nil)

	rec := do(s, http.MethodGet, "/api/card")
	if rec.Code != http.StatusOK {
		t.Fatalf("card: %d", rec.Code)
	}
	resp, data := decode(t, rec)
	if !resp.Success {
		t.Fatal("expected success")
	}
	var card model.Card
	if err := json.Unmarshal(data, &card); err != nil {
		t.Fatal(err)
	}
	if card.Symbol != "GOOG" || card.PriceLabel.Text != "$101.00" {
		t.Errorf("unexpected card %+v", card)
	}

	tests := []struct {
		view string
		code int
		want string
	}{
		{"indicator", http.StatusOK, `"delta_percent"`},
		{"line", http.StatusOK, `"tozeroy"`},
		{"price", http.StatusOK, `"$101.00"`},
		{"volume", http.StatusNotFound, `"unknown view"`},
	}
	for _, tt := range tests {
		t.Run(tt.view, func(t *testing.T) {
			rec := do(s, http.MethodGet, "/api/views/"+tt.view)
			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.want) {
				t.Errorf("body %s does not contain %s", rec.Body.String(), tt.want)
			}
		})
	}
}

func TestSnapshotEndpoint(t *testing.T) {
	at := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	tests := []struct {
		name  string
		snaps *fakeSnapshots
		code  int
	}{
		{"ok", &fakeSnapshots{snap: model.Snapshot{{Indicator: model.IndicatorClose, Date: at, Rate: 1}}}, http.StatusOK},
		{"missing", &fakeSnapshots{err: store.ErrNoSnapshot}, http.StatusNotFound},
		{"corrupt", &fakeSnapshots{err: store.ErrCorrupt}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(nil, tt.snaps)
			rec := do(s, http.MethodGet, "/api/snapshot")
			if rec.Code != tt.code {
				t.Errorf("expected %d, got %d: %s", tt.code, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRefreshEndpoint(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		runner := &fakeRunner{res: &model.RefreshResult{ID: "r1", Status: model.RefreshOK, Rows: 20}}
		s, _ := newTestServer(runner, nil)
		rec := do(s, http.MethodPost, "/api/refresh")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		_, data := decode(t, rec)
		var v refreshView
		if err := json.Unmarshal(data, &v); err != nil {
			t.Fatal(err)
		}
		if v.Trigger != model.TriggerManual || v.Rows != 20 {
			t.Errorf("unexpected result %+v", v)
		}
	})

	t.Run("busy", func(t *testing.T) {
		runner := &fakeRunner{busy: true}
		s, _ := newTestServer(runner, nil)
		rec := do(s, http.MethodPost, "/api/refresh")
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})

	t.Run("provider failure", func(t *testing.T) {
		runner := &fakeRunner{res: &model.RefreshResult{ID: "r2", Status: model.RefreshRateLimited, Err: errors.New("rate limited")}}
		s, _ := newTestServer(runner, nil)
		rec := do(s, http.MethodPost, "/api/refresh")
		if rec.Code != http.StatusBadGateway {
			t.Fatalf("expected 502, got %d", rec.Code)
		}
		resp, _ := decode(t, rec)
		if resp.Success || resp.Message != string(model.RefreshRateLimited) {
			t.Errorf("unexpected response %+v", resp)
		}
	})

	t.Run("get not allowed", func(t *testing.T) {
		s, _ := newTestServer(nil, nil)
		rec := do(s, http.MethodGet, "/api/refresh")
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405, got %d", rec.Code)
		}
		resp, _ := decode(t, rec)
		if resp.Success || resp.Message != "method not allowed" {
			t.Errorf("unexpected response %+v", resp)
		}
	})
}

func TestStatusEndpoint(t *testing.T) {
	s, _ := newTestServer(nil, nil)
	rec := do(s, http.MethodGet, "/api/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	for _, want := range []string{`"running":false`, `"last_24h":{`, `"OK":7`, `"SKIPPED":1`} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("body %s does not contain %s", rec.Body.String(), want)
		}
	}
}

func TestStatusEndpoint_HistoryError(t *testing.T) {
	cards := &fakeCards{card: testCard()}
	runner := &fakeRunner{res: &model.RefreshResult{ID: "r1", Status: model.RefreshOK}}
	s := New(":0", cards, runner, &fakeSnapshots{}, fakeHistory{err: errors.New("db closed")})
	rec := do(s, http.MethodGet, "/api/status")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	s, _ := newTestServer(nil, nil)
	rec := do(s, http.MethodGet, "/api/nope")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if resp, _ := decode(t, rec); resp.Success {
		t.Error("expected failure envelope")
	}
}

func readCard(t *testing.T, conn *websocket.Conn) model.Card {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "card" {
		t.Fatalf("unexpected message type %q", msg.Type)
	}
	return msg.Card
}

func TestWebsocketPushesCards(t *testing.T) {
	s, _ := newTestServer(nil, nil)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()
	defer s.Hub().Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if got := readCard(t, conn); got.PriceLabel.Text != "$101.00" {
		t.Errorf("initial card = %+v", got.PriceLabel)
	}

	next := testCard()
	next.PriceLabel.Text = "$99.00"
	next.PriceLabel.Style = model.StyleDown
	s.Broadcast(testCard(), next)

	got := readCard(t, conn)
	if got.PriceLabel.Text != "$99.00" || got.PriceLabel.Style != model.StyleDown {
		t.Errorf("broadcast card = %+v", got.PriceLabel)
	}
	if n := s.Hub().Clients(); n != 1 {
		t.Errorf("expected 1 client, got %d", n)
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	h := NewHub()
	c := &client{id: "slow", send: make(chan []byte, 1)}
	if !h.add(c, nil) {
		t.Fatal("add failed")
	}
	h.Broadcast(testCard())
	h.Broadcast(testCard())
	if n := h.Clients(); n != 0 {
		t.Fatalf("expected slow client to be dropped, %d left", n)
	}
	<-c.send
	if _, ok := <-c.send; ok {
		t.Error("expected send channel to be closed")
	}

	h.Close()
	if h.add(&client{id: "late", send: make(chan []byte, 1)}, nil) {
		t.Error("closed hub accepted a client")
	}
}

func TestHubQueuesCurrentCardBeforeBroadcasts(t *testing.T) {
	h := NewHub()
	c := &client{id: "c1", send: make(chan []byte, 8)}
	initial := testCard()
	if !h.add(c, func() model.Card { return initial }) {
		t.Fatal("add failed")
	}
	next := testCard()
	next.PriceLabel.Text = "$99.00"
	h.Broadcast(next)

	var first, second Message
	if err := json.Unmarshal(<-c.send, &first); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(<-c.send, &second); err != nil {
		t.Fatal(err)
	}
	if first.Card.PriceLabel.Text != "$101.00" || second.Card.PriceLabel.Text != "$99.00" {
		t.Errorf("expected current card then broadcast, got %q then %q",
			first.Card.PriceLabel.Text, second.Card.PriceLabel.Text)
	}
	h.Close()
}

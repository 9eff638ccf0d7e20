package websocket

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rizkirmdhn/anydownloader/pkg/models"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_PublishReachesClient(t *testing.T) {
	hub := NewHub(testLogger())
	go hub.Run()
	defer hub.Stop()

	client := NewClient(hub)
	if !hub.Register(client) {
		t.Fatal("Register() = false on a running hub")
	}
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.Publish(models.DownloadEvent{Type: models.EventDownload, Status: models.EventStarted, URL: "https://example.com/v"})

	select {
	case msg := <-client.Send:
		var event models.DownloadEvent
		if err := json.Unmarshal(msg, &event); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if event.Status != models.EventStarted || event.URL != "https://example.com/v" {
			t.Errorf("event = %+v", event)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

func TestHub_ClientClose(t *testing.T) {
	hub := NewHub(testLogger())
	go hub.Run()
	defer hub.Stop()

	client := NewClient(hub)
	hub.Register(client)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	client.Close()
	client.Close()
	waitFor(t, func() bool { return hub.ClientCount() == 0 })

	if _, ok := <-client.Send; ok {
		t.Error("Send channel still open after Close")
	}
}

func TestHub_StopRejectsRegister(t *testing.T) {
	hub := NewHub(testLogger())
	go hub.Run()
	hub.Stop()

	if hub.Register(NewClient(hub)) {
		t.Error("Register() = true after Stop")
	}
}

func TestHub_BroadcastWithoutRunDoesNotBlock(t *testing.T) {
	hub := NewHub(testLogger())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 300; i++ {
			hub.Broadcast([]byte("x"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Broadcast blocked with a full queue")
	}
}

func TestWebSocketHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := testLogger()

	hub := NewHub(log)
	go hub.Run()
	defer hub.Stop()

	r := gin.New()
	r.GET("/ws", WebSocketHandler(hub, log))
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	waitFor(t, func() bool { return hub.ClientCount() == 1 })
	hub.Publish(models.DownloadEvent{Type: models.EventBatch, Status: models.EventReady, URL: "u"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}

	var event models.DownloadEvent
	if err := json.Unmarshal(msg, &event); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if event.Type != models.EventBatch || event.Status != models.EventReady {
		t.Errorf("event = %+v", event)
	}
}

// Package console implements the WebSocket upgrade bridge for
// interactive terminal, zlogin, and VNC sessions, per §4.8. Each
// upgraded connection is tracked in a process-wide {zone -> connection
// set} map so the last client leaving a zone can trigger a graced
// teardown of its backend session (§3 "at-most-one-active-session",
// §8 invariant 6).
package console

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os/exec"
	"regexp"
	"sync"
	"time"

	"github.com/creack/pty"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/omnizone/hostd/internal/model"
	"github.com/omnizone/hostd/internal/store"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// refererZone pulls the {zone} segment out of a Referer header whose
// path contains "/zones/{zone}/...", used by the bare /websockify
// fallback when no zone appears in the request path itself.
var refererZone = regexp.MustCompile(`/zones/([^/]+)/`)

// backend is whatever process or connection a session's PTY or VNC
// tunnel owns, torn down when the session's last client disconnects
// (after the grace window for VNC) or the inactivity sweep expires it.
type backend struct {
	cmd    *exec.Cmd
	tty    io.Closer
	vncCon *websocket.Conn
}

func (b *backend) close() {
	if b.tty != nil {
		b.tty.Close()
	}
	if b.cmd != nil && b.cmd.Process != nil {
		b.cmd.Process.Kill()
	}
	if b.vncCon != nil {
		b.vncCon.Close()
	}
}

// Bridge owns the connection tracker, the live backend registry, and
// the store used to resolve session metadata.
type Bridge struct {
	store *store.Store

	mu          sync.Mutex
	connsByKey  map[string]map[string]bool
	cleanupAt   map[string]*time.Timer
	backends    map[string]*backend // keyed by session id

	gracePeriod time.Duration
}

// New creates a Bridge. gracePeriod is the smart-cleanup window: how
// long a zone's VNC backend survives with zero live connections before
// it is torn down (§4.8, §8 invariant 6).
func New(s *store.Store, gracePeriod time.Duration) *Bridge {
	if gracePeriod <= 0 {
		gracePeriod = 10 * time.Second
	}
	return &Bridge{
		store:       s,
		connsByKey:  map[string]map[string]bool{},
		cleanupAt:   map[string]*time.Timer{},
		backends:    map[string]*backend{},
		gracePeriod: gracePeriod,
	}
}

// Routes registers the Console Bridge's upgrade endpoints onto r.
func (b *Bridge) Routes(r *mux.Router) {
	r.HandleFunc("/term/{uuid}", b.handleTerm)
	r.HandleFunc("/zlogin/{uuid}", b.handleZlogin)
	r.HandleFunc("/zones/{zone}/vnc/websockify", b.handleZoneVNC)
	r.HandleFunc("/websockify", b.handleBareWebsockify)
}

// handleTerm services a terminal session: the session must exist and
// be active, per §4.8.
func (b *Bridge) handleTerm(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["uuid"]
	sess, err := b.store.GetSession(id)
	if err != nil || sess == nil || sess.Status != "active" {
		http.NotFound(w, r)
		return
	}
	b.serveShellPTY(w, r, *sess, nil)
}

// handleZlogin services a zlogin session, additionally accepting a
// session still in "connecting" state (the zlogin child process may
// not have finished attaching yet).
func (b *Bridge) handleZlogin(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["uuid"]
	sess, err := b.store.GetSession(id)
	if err != nil || sess == nil || (sess.Status != "active" && sess.Status != "connecting") {
		http.NotFound(w, r)
		return
	}
	zone := sess.ZoneName
	b.serveShellPTY(w, r, *sess, []string{"zlogin", "-C", zone})
}

// serveShellPTY upgrades the connection, spawns argv (or a login shell
// when argv is nil) under a PTY, and pumps bytes bidirectionally until
// either side closes. The session's owning zone (falling back to its
// own id for zone-less terminal sessions) is the connection-tracking
// key. When this connection ends, its PTY process is killed and the
// session closed, whether or not other clients share the key —
// terminal/zlogin sessions have no grace window, unlike VNC (§4.8 only
// specifies smart-cleanup for the VNC tunnel).
func (b *Bridge) serveShellPTY(w http.ResponseWriter, r *http.Request, sess model.Session, argv []string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[console] upgrade %s: %v", sess.ID, err)
		return
	}
	defer conn.Close()

	var cmd *exec.Cmd
	if len(argv) > 0 {
		cmd = exec.Command(argv[0], argv[1:]...)
	} else {
		cmd = exec.Command("/bin/login", "-p")
	}

	tty, err := pty.Start(cmd)
	if err != nil {
		log.Printf("[console] pty start %s: %v", sess.ID, err)
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, err.Error()))
		return
	}
	defer tty.Close()

	pid := cmd.Process.Pid
	now := time.Now()
	if err := b.store.SetSessionActive(sess.ID, &pid, nil, now); err != nil {
		log.Printf("[console] activate session %s: %v", sess.ID, err)
	}

	key := sess.ZoneName
	if key == "" {
		key = sess.ID
	}
	connID := uuid.NewString()
	b.track(key, connID)
	b.registerBackend(sess.ID, &backend{cmd: cmd, tty: tty})

	done := make(chan struct{})
	var once sync.Once
	closeDone := func() { once.Do(func() { close(done) }) }

	go func() {
		buf := make([]byte, 32*1024)
		for {
			n, err := tty.Read(buf)
			if n > 0 {
				if werr := conn.WriteMessage(websocket.BinaryMessage, buf[:n]); werr != nil {
					closeDone()
					return
				}
			}
			if err != nil {
				closeDone()
				return
			}
		}
	}()

	go func() {
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				closeDone()
				return
			}
			if mt != websocket.BinaryMessage && mt != websocket.TextMessage {
				continue
			}
			_ = b.store.TouchSession(sess.ID, time.Now())
			if _, err := tty.Write(data); err != nil {
				closeDone()
				return
			}
		}
	}()

	<-done

	b.mu.Lock()
	delete(b.backends, sess.ID)
	b.mu.Unlock()
	cmd.Process.Kill()
	cmd.Wait()
	_ = b.store.CloseSession(sess.ID, time.Now())
	b.untrack(key, connID, func() {})
}

// handleZoneVNC resolves a zone name from the path, looks up its live
// VNC session (created out of band by the VM start flow — out of this
// component's scope per §1), and tunnels raw frames between the
// browser and the local websockify backend bound to that session's
// port.
func (b *Bridge) handleZoneVNC(w http.ResponseWriter, r *http.Request) {
	zone := mux.Vars(r)["zone"]
	b.bridgeZoneVNC(w, r, zone)
}

// handleBareWebsockify services `/websockify` requests that carry no
// zone in the path (some VNC clients only ever request this bare
// route). It resolves the Referer header's `/zones/{zone}/` fragment
// first; if that's absent or unparseable it falls back to the single
// currently-active VNC session for the host, and only when exactly one
// is active — otherwise the request is rejected as ambiguous rather
// than guessing (§9 Open Question 4).
func (b *Bridge) handleBareWebsockify(w http.ResponseWriter, r *http.Request) {
	if m := refererZone.FindStringSubmatch(r.Referer()); len(m) == 2 {
		b.bridgeZoneVNC(w, r, m[1])
		return
	}

	sessions, err := b.store.ListActiveSessionsByKind("vnc")
	if err != nil {
		http.Error(w, "lookup failed", http.StatusInternalServerError)
		return
	}
	if len(sessions) != 1 {
		http.Error(w, "ambiguous vnc session: specify /zones/{zone}/vnc/websockify", http.StatusConflict)
		return
	}
	b.bridgeZoneVNC(w, r, sessions[0].ZoneName)
}

// bridgeZoneVNC does the actual lookup-then-tunnel work shared by the
// zone-scoped and bare websockify handlers.
func (b *Bridge) bridgeZoneVNC(w http.ResponseWriter, r *http.Request, zone string) {
	sessions, err := b.store.ListActiveSessionsForZone(zone, "vnc")
	if err != nil || len(sessions) == 0 {
		http.NotFound(w, r)
		return
	}
	sess := sessions[0]
	if sess.Port == nil {
		http.NotFound(w, r)
		return
	}

	clientConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[console] vnc upgrade %s: %v", zone, err)
		return
	}
	defer clientConn.Close()

	backendURL := fmt.Sprintf("ws://127.0.0.1:%d/websockify", *sess.Port)
	dialer := websocket.Dialer{Subprotocols: []string{"binary"}}
	backendConn, _, err := dialer.Dial(backendURL, nil)
	if err != nil {
		log.Printf("[console] vnc backend dial %s: %v", zone, err)
		clientConn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "backend unavailable"))
		return
	}
	defer backendConn.Close()

	connID := uuid.NewString()
	b.track(zone, connID)
	b.registerBackend(sess.ID, &backend{vncCon: backendConn})

	done := make(chan struct{})
	var once sync.Once
	closeDone := func() { once.Do(func() { close(done) }) }

	go pumpWS(backendConn, clientConn, closeDone)
	go pumpWS(clientConn, backendConn, closeDone)

	<-done

	b.untrack(zone, connID, func() {
		b.teardownZoneVNC(zone, sess)
	})
}

// pumpWS copies every frame read from src onto dst until either side
// errors, signalling done exactly once regardless of which direction
// failed first.
func pumpWS(src, dst *websocket.Conn, done func()) {
	defer done()
	for {
		mt, data, err := src.ReadMessage()
		if err != nil {
			return
		}
		if err := dst.WriteMessage(mt, data); err != nil {
			return
		}
	}
}

// teardownZoneVNC closes the backend websocket and marks the session
// closed once the smart-cleanup grace window has elapsed with no
// reconnect (§4.8, §8 invariant 6).
func (b *Bridge) teardownZoneVNC(zone string, sess model.Session) {
	b.mu.Lock()
	bk, ok := b.backends[sess.ID]
	delete(b.backends, sess.ID)
	b.mu.Unlock()
	if ok {
		bk.close()
	}
	if err := b.store.CloseSession(sess.ID, time.Now()); err != nil {
		log.Printf("[console] close session %s: %v", sess.ID, err)
	}
}

func (b *Bridge) registerBackend(sessionID string, bk *backend) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.backends[sessionID] = bk
}

// track adds connID to key's live-connection set, cancelling any
// pending smart-cleanup timer for key — a reconnect during the grace
// window aborts teardown (§4.8, §8 invariant 6).
func (b *Bridge) track(key, connID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.connsByKey[key] == nil {
		b.connsByKey[key] = map[string]bool{}
	}
	b.connsByKey[key][connID] = true
	if t, ok := b.cleanupAt[key]; ok {
		t.Stop()
		delete(b.cleanupAt, key)
	}
}

// untrack removes connID from key's set. When the set becomes empty it
// arms a grace-window timer calling onExpire unless a new connection
// arrives for key before the timer fires.
func (b *Bridge) untrack(key, connID string, onExpire func()) {
	b.mu.Lock()
	if b.connsByKey[key] != nil {
		delete(b.connsByKey[key], connID)
	}
	empty := len(b.connsByKey[key]) == 0
	if empty {
		delete(b.connsByKey, key)
	}
	b.mu.Unlock()

	if !empty {
		return
	}

	timer := time.AfterFunc(b.gracePeriod, func() {
		b.mu.Lock()
		_, reconnected := b.connsByKey[key]
		delete(b.cleanupAt, key)
		b.mu.Unlock()
		if !reconnected {
			onExpire()
		}
	})
	b.mu.Lock()
	b.cleanupAt[key] = timer
	b.mu.Unlock()
}

// ConnectionCount reports the number of live connections tracked for
// key (a zone name, or a zone-less session's own id), for tests
// asserting §8 invariant 6's "cardinality of the connection set equals
// the number of live client WebSockets."
func (b *Bridge) ConnectionCount(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.connsByKey[key])
}

// RunInactivitySweep periodically closes sessions that have had no
// inbound frame for longer than threshold, even if their WebSocket
// somehow remains open (§5 "Interactive sessions have an inactivity
// cleanup running on a separate periodic timer").
func (b *Bridge) RunInactivitySweep(ctx context.Context, threshold time.Duration) {
	if threshold <= 0 {
		threshold = 30 * time.Minute
	}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.sweepInactive(threshold)
		}
	}
}

func (b *Bridge) sweepInactive(threshold time.Duration) {
	stale, err := b.store.InactiveSessionsOlderThan(time.Now().Add(-threshold))
	if err != nil {
		log.Printf("[console] inactivity sweep: %v", err)
		return
	}
	for _, sess := range stale {
		b.mu.Lock()
		bk, ok := b.backends[sess.ID]
		delete(b.backends, sess.ID)
		b.mu.Unlock()
		if ok {
			bk.close()
		}
		if err := b.store.CloseSession(sess.ID, time.Now()); err != nil {
			log.Printf("[console] close stale session %s: %v", sess.ID, err)
		}
	}
}

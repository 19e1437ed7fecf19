// Package debugview is the PPU's narrow debugger event-viewer contract: a
// ppu.FrameSink that streams completed frames to a single connected
// websocket client, deduplicating unchanged frames by hash and
// brotli-compressing the rest. Grounded on the teacher's multiplayer frame
// hub (pkg/display/web), trimmed to a single viewer and without the
// patch/cache bookkeeping a multi-client setup needs.
package debugview

import (
	"context"
	"encoding/binary"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/cespare/xxhash"
	"github.com/google/brotli/go/cbrotli"
	"github.com/gorilla/websocket"
	"golang.org/x/sys/unix"

	"github.com/kettlebyte/dotclock/pkg/log"
)

// Message tags sent over the wire; kept minimal compared to the teacher's
// multiplayer protocol since there is only ever one producer and one
// consumer.
const (
	tagStartFrame byte = 1
	tagFrame      byte = 2
	tagFrameSame  byte = 3
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// View streams PPU frames to at most one connected browser/debugger client
// at a time. It implements ppu.FrameSink.
type View struct {
	log log.Logger

	mu       sync.Mutex
	client   *websocket.Conn
	lastHash uint64

	compressionQuality int
}

// New returns a View with default compression quality 7, matching the
// teacher's default live-streaming setting (it uses 9 only for the
// one-shot full-state Sync).
func New(l log.Logger) *View {
	if l == nil {
		l = log.NewNullLogger()
	}
	return &View{log: l, compressionQuality: 7}
}

// Handler returns the http.HandlerFunc that upgrades an incoming request to
// a websocket connection and adopts it as the current client, dropping any
// previous one.
func (v *View) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			v.log.Errorf("debugview: upgrade: %v", err)
			return
		}
		v.mu.Lock()
		if v.client != nil {
			v.client.Close()
		}
		v.client = conn
		v.mu.Unlock()

		go v.readPump(conn)
	}
}

// ListenAndServe starts an HTTP server exposing the debug view at "/" until
// ctx is cancelled.
func (v *View) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", v.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (v *View) readPump(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			v.mu.Lock()
			if v.client == conn {
				v.client = nil
			}
			v.mu.Unlock()
			return
		}
	}
}

// StartFrame satisfies ppu.FrameSink.
func (v *View) StartFrame() {
	v.send(tagStartFrame, nil)
}

// DeliverFrame satisfies ppu.FrameSink. buf is only valid for the duration
// of the call, so it is serialized to wire bytes synchronously before
// returning.
func (v *View) DeliverFrame(buf *[256 * 240]uint16) {
	raw := make([]byte, len(buf)*2)
	for i, px := range buf {
		binary.LittleEndian.PutUint16(raw[i*2:], px)
	}

	hash := xxhash.Sum64(raw)
	if hash == v.lastHash {
		v.send(tagFrameSame, nil)
		return
	}
	v.lastHash = hash

	compressed, err := cbrotli.Encode(raw, cbrotli.WriterOptions{Quality: v.compressionQuality})
	if err != nil {
		v.log.Errorf("debugview: compress frame: %v", err)
		return
	}
	v.send(tagFrame, compressed)
}

// RTTMicros reports the connected client's TCP round-trip time in
// microseconds, for diagnosing whether a sluggish debug view is a slow
// PPU or a slow network path. Returns false if there is no client or its
// connection isn't a plain TCP socket (e.g. it's behind TLS).
func (v *View) RTTMicros() (uint32, bool) {
	v.mu.Lock()
	conn := v.client
	v.mu.Unlock()
	if conn == nil {
		return 0, false
	}
	tcpConn, ok := conn.UnderlyingConn().(*net.TCPConn)
	if !ok {
		return 0, false
	}
	info, err := tcpInfo(tcpConn)
	if err != nil {
		return 0, false
	}
	return info.Rtt, true
}

// tcpInfo reads kernel-level TCP_INFO for conn via getsockopt, grounded on
// the teacher's multiplayer hub latency probe.
func tcpInfo(conn *net.TCPConn) (*unix.TCPInfo, error) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return nil, err
	}

	var info *unix.TCPInfo
	var sockErr error
	ctrlErr := raw.Control(func(fd uintptr) {
		info, sockErr = unix.GetsockoptTCPInfo(int(fd), unix.IPPROTO_TCP, unix.TCP_INFO)
	})
	if ctrlErr != nil {
		return nil, ctrlErr
	}
	if sockErr != nil {
		return nil, sockErr
	}
	return info, nil
}

func (v *View) send(tag byte, payload []byte) {
	v.mu.Lock()
	conn := v.client
	v.mu.Unlock()
	if conn == nil {
		return
	}
	msg := append([]byte{tag}, payload...)
	if err := conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
		v.log.Debugf("debugview: write: %v", err)
	}
}

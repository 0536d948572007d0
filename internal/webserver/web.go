// Package webserver runs the device's background HTTP server. Files posted
// to /upload are handed to the network core for launch, and /status
// streams status events over a websocket.
package webserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"path"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/sidekick64/sidekicknet/common"
	"github.com/sidekick64/sidekicknet/internal/netman"
	"github.com/sidekick64/sidekicknet/pkg/logger"
	"github.com/sidekick64/sidekicknet/pkg/sktp"
	"golang.org/x/net/websocket"
)

// MaxUploadSize bounds a posted file to the size of the download buffer.
const MaxUploadSize = sktp.MaxBinaryResponse

// formOverhead allows for the multipart framing around the file.
const formOverhead = 64 << 10

var ErrAlreadyStarted = errors.New("webserver: already started")

// UploadSink receives uploads. *netman.Manager implements it.
type UploadSink interface {
	Submit(u netman.Upload) error
}

type WebServer struct {
	port   int
	log    logger.Logger
	sink   UploadSink
	hub    *Hub
	server *http.Server
	addr   net.Addr
	mu     sync.Mutex
}

func NewWebServer(l logger.Logger, sink UploadSink, hub *Hub, port int) *WebServer {
	if l == nil {
		l = logger.NewNopLogger()
	}
	if hub == nil {
		hub = NewHub(l)
	}
	return &WebServer{port: port, log: l, sink: sink, hub: hub}
}

// Hub returns the status hub.
func (s *WebServer) Hub() *Hub { return s.hub }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, common.ErrorResponse{Error: err.Error()})
}

func (s *WebServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize+formOverhead)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, err)
			return
		}
		writeError(w, http.StatusBadRequest, err)
		return
	}
	defer file.Close()

	ext, err := sktp.ParseExtension(path.Ext(header.Filename))
	if err != nil {
		writeError(w, http.StatusUnsupportedMediaType, err)
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, MaxUploadSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(data) > MaxUploadSize {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("file larger than %s", humanize.IBytes(MaxUploadSize)))
		return
	}

	id := uuid.NewString()
	if err := s.sink.Submit(netman.Upload{ID: id, Extension: ext, Data: data}); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	s.log.Info("upload %s: %s (%s)", id, header.Filename, humanize.Bytes(uint64(len(data))))
	writeJSON(w, http.StatusAccepted, common.UploadResponse{
		UploadId:  id,
		FileName:  header.Filename,
		Extension: string(ext),
		Size:      len(data),
	})
}

func (s *WebServer) handleStatus(conn *websocket.Conn) {
	defer conn.Close()
	s.hub.Register(conn)
	defer s.hub.Unregister(conn)
	// Subscribers only listen; reading detects the close.
	for {
		var msg []byte
		if err := websocket.Message.Receive(conn, &msg); err != nil {
			if err != io.EOF {
				s.log.Debug("status socket: %v", err)
			}
			return
		}
	}
}

func (s *WebServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/upload", s.handleUpload)
	mux.Handle("/status", websocket.Handler(s.handleStatus))
	return mux
}

// Start listens on the configured port and serves in the background.
func (s *WebServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server != nil {
		return ErrAlreadyStarted
	}
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return err
	}
	s.server = &http.Server{Handler: s.handler()}
	s.addr = ln.Addr()
	go func(srv *http.Server) {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Error("webserver: %v", err)
		}
	}(s.server)
	return nil
}

// Addr returns the listening address, nil before Start.
func (s *WebServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Shutdown gracefully stops the web server.
func (s *WebServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

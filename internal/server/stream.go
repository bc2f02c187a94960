package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/rajin-khan/meetminsgen/internal/audio"
	"github.com/rajin-khan/meetminsgen/internal/minutes"
)

const (
	// readTimeout bounds the wait for each client frame
	readTimeout  = 60 * time.Second
	writeTimeout = 10 * time.Second

	maxFrameBytes = 4 << 20
)

// Stream events
const (
	EventStart  = "start"
	EventStop   = "stop"
	EventStage  = "stage"
	EventResult = "result"
	EventError  = "error"
)

// StreamMessage is a text frame exchanged on /streams/minutes.
// Result fields are inlined on "result" events.
type StreamMessage struct {
	Event    string `json:"event"`
	Filename string `json:"filename,omitempty"`
	Stage    string `json:"stage,omitempty"`
	Error    string `json:"error,omitempty"`
	*minutes.Result
}

var errUploadTooLarge = errors.New("upload too large")

// streamSession receives one recording over a websocket
type streamSession struct {
	conn     *websocket.Conn
	path     string
	size     int64
	maxBytes int64
	logger   zerolog.Logger
}

// handleStream upgrades to a websocket, receives a recording as binary frames
// between start and stop events, then reports stages and the result
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	logger, ctx := s.requestLogger(w, r)

	origins := s.cfg.AllowedOrigins()
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(origins, r.Header.Get("Origin"))
		},
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client
		logger.Warn().Err(err).Msg("Failed to upgrade connection to WebSocket")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameBytes)

	session := &streamSession{
		conn:     conn,
		maxBytes: s.cfg.MaxUploadMB << 20,
		logger:   logger,
	}

	result, err := s.runStream(ctx, session)
	if err != nil {
		session.fail(err)
		return
	}

	session.send(StreamMessage{Event: EventResult, Result: result})
	session.close(websocket.CloseNormalClosure, "done")
}

// runStream buffers the upload to TEMP_DIR and processes it. Temp files are
// removed before it returns.
func (s *Server) runStream(ctx context.Context, session *streamSession) (*minutes.Result, error) {
	filename, err := session.awaitStart()
	if err != nil {
		return nil, err
	}
	if _, err := audio.CheckFormat(filename); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.cfg.TempDir, 0o755); err != nil {
		return nil, err
	}
	f, err := os.CreateTemp(s.cfg.TempDir, "stream-*"+extensionOf(filename))
	if err != nil {
		return nil, err
	}
	session.path = f.Name()
	defer s.cleanup(session.path)

	err = session.receive(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}

	session.logger.Info().
		Str("filename", filename).
		Int64("bytes", session.size).
		Msg("Stream received, processing")

	return s.pipeline.Process(ctx, session.path, func(stage string) {
		session.send(StreamMessage{Event: EventStage, Stage: stage})
	})
}

// awaitStart reads the start event and returns the announced filename
func (ss *streamSession) awaitStart() (string, error) {
	ss.conn.SetReadDeadline(time.Now().Add(readTimeout))
	msgType, data, err := ss.conn.ReadMessage()
	if err != nil {
		return "", fmt.Errorf("read start event: %w", err)
	}
	if msgType != websocket.TextMessage {
		return "", errors.New("expected start event before audio")
	}

	var msg StreamMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.Event != EventStart {
		return "", errors.New("expected start event before audio")
	}
	if msg.Filename == "" {
		return "", errors.New("start event requires a filename")
	}
	return msg.Filename, nil
}

// receive appends binary frames to f until the stop event
func (ss *streamSession) receive(f *os.File) error {
	for {
		ss.conn.SetReadDeadline(time.Now().Add(readTimeout))
		msgType, data, err := ss.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				ss.logger.Warn().Err(err).Msg("WebSocket read error")
			}
			return fmt.Errorf("stream ended before stop event: %w", err)
		}

		switch msgType {
		case websocket.BinaryMessage:
			ss.size += int64(len(data))
			if ss.maxBytes > 0 && ss.size > ss.maxBytes {
				return errUploadTooLarge
			}
			if _, err := f.Write(data); err != nil {
				return fmt.Errorf("failed to buffer audio: %w", err)
			}

		case websocket.TextMessage:
			var msg StreamMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				ss.logger.Error().Err(err).Msg("Failed to parse stream message")
				continue
			}
			if msg.Event == EventStop {
				return nil
			}
			ss.logger.Debug().Str("event", msg.Event).Msg("Ignoring stream event")
		}
	}
}

func (ss *streamSession) send(msg StreamMessage) {
	ss.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := ss.conn.WriteJSON(msg); err != nil {
		ss.logger.Warn().Err(err).Str("event", msg.Event).Msg("Failed to send stream event")
	}
}

// fail reports err as the terminal error event and closes the stream
func (ss *streamSession) fail(err error) {
	ss.logger.Error().Err(err).Msg("Stream failed")
	ss.send(StreamMessage{Event: EventError, Error: err.Error()})
	ss.close(websocket.CloseNormalClosure, "error")
}

func (ss *streamSession) close(code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	ss.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeTimeout))
}

func extensionOf(filename string) string {
	ext, err := audio.CheckFormat(filename)
	if err != nil {
		return ""
	}
	return "." + ext
}

package handlers

import (
	"io"
	"net/http"
	"time"

	"finance-advisor/api/logger"
	"finance-advisor/api/mongodb"
	"finance-advisor/api/sse"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StreamAnalysisSSE streams pipeline progress events for one user over
// server-sent events until the client disconnects.
func StreamAnalysisSSE(c *gin.Context) {
	userID, err := mongodb.ParseUserID(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ObjectID format"})
		return
	}

	stream := sse.Subscribe(userID.Hex())
	defer sse.Unsubscribe(userID.Hex(), stream)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case payload := <-stream.Messages:
			c.SSEvent("message", payload)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// StreamAnalysisWS streams the same progress events over a WebSocket.
func StreamAnalysisWS(c *gin.Context) {
	userID, err := mongodb.ParseUserID(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ObjectID format"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Get().Error("failed to upgrade connection",
			zap.String("user_id", userID.Hex()),
			zap.Error(err))
		return
	}
	defer conn.Close()

	stream := sse.Subscribe(userID.Hex())
	defer sse.Unsubscribe(userID.Hex(), stream)

	// Reader goroutine only detects the client closing.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	logger.Get().Info("progress socket established",
		zap.String("user_id", userID.Hex()),
		zap.String("remote", c.Request.RemoteAddr))

	for {
		select {
		case payload := <-stream.Messages:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
				logger.Get().Debug("progress socket write failed",
					zap.String("user_id", userID.Hex()),
					zap.Error(err))
				return
			}
		case <-closed:
			return
		case <-c.Request.Context().Done():
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

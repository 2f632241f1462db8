package worker

import (
	"github.com/gorilla/websocket"
)

// terminateMessage is posted when the connection goes away.
const terminateMessage = "close"

// Conn is the part of *websocket.Conn used by ServeWS.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
}

// ServeWS connects w to a websocket. Text frames from the peer are posted to
// w and every message of w is written back as a text frame. ServeWS returns
// once w has terminated or the connection failed; in both cases w is
// terminated.
func ServeWS(w *Worker, conn Conn) error {
	go func() {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				w.log.WithError(err).Debug("Websocket read ended")
				w.Post(terminateMessage)
				return
			}
			w.Post(string(msg))
		}
	}()

	for msg := range w.Messages() {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			w.Post(terminateMessage)
			return err
		}
	}

	closing := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteMessage(websocket.CloseMessage, closing); err != nil && err != websocket.ErrCloseSent {
		w.log.WithError(err).Debug("Could not send close frame")
	}
	return nil
}

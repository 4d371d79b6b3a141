package handlers

import (
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	datastar "github.com/starfederation/datastar-go/datastar"
	"github.com/yeqown/go-qrcode/v2"
	"github.com/yeqown/go-qrcode/writer/standard"

	"tuttifrutti/internal/game"
	"tuttifrutti/internal/peer"
)

// Stream is the single SSE connection the UI holds. Engine events become
// datastar signal patches; a one-second ticker keeps the local vote
// countdown flowing between events.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	log.Printf("bridge: SSE connection established")
	sse := datastar.NewSSE(w, r)

	// The rooms-listing watcher lives for the duration of the connection.
	stopListing := h.session.WatchRooms()
	defer stopListing()

	if err := h.pushRoomState(sse, h.session.CurrentRoom()); err != nil {
		log.Printf("bridge: initial state push failed: %v", err)
		return
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Printf("bridge: SSE connection closed")
			return

		case ev, ok := <-h.session.Events():
			if !ok {
				return
			}
			if err := h.pushEvent(sse, ev); err != nil {
				log.Printf("bridge: SSE push failed: %v", err)
				return
			}

		case <-ticker.C:
			clock := h.session.VoteClock()
			if !clock.Active {
				continue
			}
			if err := h.pushVoteClock(sse, clock); err != nil {
				log.Printf("bridge: SSE push failed: %v", err)
				return
			}
		}
	}
}

func (h *Handler) pushEvent(sse *datastar.ServerSentEventGenerator, ev peer.Event) error {
	switch ev.Type {
	case peer.EventRoomState:
		return h.pushRoomState(sse, ev.Room)

	case peer.EventRoomList:
		return sse.MarshalAndPatchSignals(map[string]interface{}{
			"roomList": ev.Rooms,
		})

	case peer.EventReturnToLobby:
		return sse.MarshalAndPatchSignals(map[string]interface{}{
			"screen": "home",
			"room":   nil,
			"inRoom": false,
			"isHost": false,
			"notice": ev.Reason,
		})
	}
	return nil
}

func (h *Handler) pushRoomState(sse *datastar.ServerSentEventGenerator, room *game.Room) error {
	signals := map[string]interface{}{
		"room":   room,
		"inRoom": room != nil,
		"isHost": h.session.IsHost(),
	}
	if room != nil {
		signals["screen"] = string(room.Status)
	}
	return sse.MarshalAndPatchSignals(signals)
}

func (h *Handler) pushVoteClock(sse *datastar.ServerSentEventGenerator, clock peer.VoteClock) error {
	return sse.MarshalAndPatchSignals(map[string]interface{}{
		"voteActive":    clock.Active,
		"voteCategory":  clock.CategoryIndex,
		"voteRemaining": int(clock.Remaining.Seconds()),
		"voteMax":       int(clock.Max.Seconds()),
		"voteExtended":  clock.Extended,
		"voteSubmitted": clock.Submitted,
	})
}

// RoomQR returns a QR code for joining the given room, as base64 PNG. The
// encoded URL points at the joiner's own bridge, which resolves the code
// against the shared store.
func (h *Handler) RoomQR(w http.ResponseWriter, r *http.Request) {
	room := h.session.CurrentRoom()
	if room == nil {
		respondJSON(w, http.StatusNotFound, map[string]string{"error": "not in a room"})
		return
	}

	url := fmt.Sprintf("%s/join/%s", getBaseURL(r), room.ID)
	encoded, err := generateQRCode(url)
	if err != nil {
		log.Printf("bridge: QR generation failed: %v", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"roomId": room.ID,
		"url":    url,
		"qrCode": encoded,
	})
}

// generateQRCode renders a join URL as a base64 encoded PNG. The writer
// only targets files, so it goes through a temp file.
func generateQRCode(url string) (string, error) {
	qrc, err := qrcode.NewWith(url,
		qrcode.WithErrorCorrectionLevel(qrcode.ErrorCorrectionMedium),
		qrcode.WithEncodingMode(qrcode.EncModeByte),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create QR code: %w", err)
	}

	tmpFile := fmt.Sprintf("%s/qr_%d.png", os.TempDir(), time.Now().UnixNano())
	qw, err := standard.New(tmpFile,
		standard.WithBuiltinImageEncoder(standard.PNG_FORMAT),
		standard.WithQRWidth(8),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create writer: %w", err)
	}
	if err := qrc.Save(qw); err != nil {
		return "", fmt.Errorf("failed to save QR code: %w", err)
	}

	data, err := os.ReadFile(tmpFile)
	if err != nil {
		return "", fmt.Errorf("failed to read QR code file: %w", err)
	}
	os.Remove(tmpFile)

	return base64.StdEncoding.EncodeToString(data), nil
}

// getBaseURL reconstructs the externally visible base URL, honoring the
// usual reverse-proxy headers.
func getBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	host := r.Host
	if forwardedHost := r.Header.Get("X-Forwarded-Host"); forwardedHost != "" {
		host = forwardedHost
	}
	return fmt.Sprintf("%s://%s", scheme, host)
}

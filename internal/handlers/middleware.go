package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
)

// allowedStreamParams whitelists query parameters on the SSE endpoint.
var allowedStreamParams = map[string]bool{
	"datastar": true, // datastar sends current client signals on connect
}

// allowedDatastarSignals whitelists the signal names a client may echo back.
var allowedDatastarSignals = map[string]bool{
	// Profile
	"theme":    true,
	"name":     true,
	"language": true,

	// Screen state
	"screen": true,
	"notice": true,
	"inRoom": true,
	"isHost": true,
	"room":   true,

	// Listing
	"roomList": true,

	// Vote countdown
	"voteActive":    true,
	"voteCategory":  true,
	"voteRemaining": true,
	"voteMax":       true,
	"voteExtended":  true,
	"voteSubmitted": true,
}

// ValidateStreamRequest rejects SSE requests with unexpected or oversized
// parameters before they reach the stream handler.
func ValidateStreamRequest(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(r.URL.RawQuery) > 10000 {
			http.Error(w, "Query string too large", http.StatusRequestURITooLong)
			return
		}

		params, err := url.ParseQuery(r.URL.RawQuery)
		if err != nil {
			http.Error(w, "Invalid query parameters", http.StatusBadRequest)
			return
		}

		for key, values := range params {
			if !allowedStreamParams[key] {
				http.Error(w, "Invalid parameter", http.StatusBadRequest)
				return
			}
			if key != "datastar" {
				continue
			}
			if len(values) != 1 {
				http.Error(w, "Invalid datastar parameter", http.StatusBadRequest)
				return
			}
			if len(values[0]) > 8192 {
				http.Error(w, "Datastar state too large", http.StatusBadRequest)
				return
			}
			if values[0] == "" {
				continue
			}
			var signals map[string]interface{}
			if err := json.Unmarshal([]byte(values[0]), &signals); err != nil {
				http.Error(w, "Invalid datastar JSON", http.StatusBadRequest)
				return
			}
			for name := range signals {
				if !allowedDatastarSignals[name] {
					http.Error(w, "Invalid signal in datastar", http.StatusBadRequest)
					return
				}
			}
		}

		next(w, r)
	}
}

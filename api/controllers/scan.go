package controllers

import (
	"net/http"

	"github.com/ekamauln/livo-mobile-order/api/responses"
	"github.com/ekamauln/livo-mobile-order/api/validators"
	"github.com/ekamauln/livo-mobile-order/pkg/logger"
)

// ScanBridge is the aggregator surface the wedge bridge drives.
type ScanBridge interface {
	OnRawDelta(text string)
	OnExplicitSubmit()
	SetListening(on bool)
	Listening() bool
}

type scanDeltaRequest struct {
	Text string `json:"text"`
}

type scanListeningRequest struct {
	Listening *bool `json:"listening" validate:"required"`
}

// ScanDelta accepts one raw buffer snapshot from the wedge. The text is
// the full token so far, not an increment. Wedge hardware emits noise;
// a malformed or empty delta is dropped, never an error.
func ScanDelta(bridge ScanBridge, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req scanDeltaRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil || req.Text == "" {
			if logg != nil {
				logg.Debug(r.Context(), "scan delta dropped")
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}

		bridge.OnRawDelta(req.Text)
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]bool{"accepted": true})
	}
}

// ScanSubmit flushes the buffer immediately, bypassing the quiet period.
func ScanSubmit(bridge ScanBridge, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bridge.OnExplicitSubmit()
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]bool{"accepted": true})
	}
}

// ScanListening toggles scan intake on or off.
func ScanListening(bridge ScanBridge, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req scanListeningRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bridge.SetListening(*req.Listening)
		responses.WriteSuccess(w, map[string]bool{"listening": bridge.Listening()})
	}
}

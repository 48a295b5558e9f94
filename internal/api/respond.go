package api

import (
	"net/http"

	"sensuapi/internal/jsoncodec"
	"sensuapi/internal/logger"
	"sensuapi/pkg/models"
)

// writeJSON encodes v as the response body with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	data, err := jsoncodec.Marshal(v)
	if err != nil {
		logger.Errorf("Failed to encode response: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(data)
}

// writeRaw sends an already-encoded JSON document.
func writeRaw(w http.ResponseWriter, body string) {
	_, _ = w.Write([]byte(body))
}

// halt ends the exchange with an empty body.
func halt(w http.ResponseWriter, status int) {
	w.WriteHeader(status)
}

func badRequest(w http.ResponseWriter)  { halt(w, http.StatusBadRequest) }
func notFound(w http.ResponseWriter)    { halt(w, http.StatusNotFound) }
func unavailable(w http.ResponseWriter) { halt(w, http.StatusServiceUnavailable) }
func noContent(w http.ResponseWriter)   { halt(w, http.StatusNoContent) }

// internalError logs err and answers with an empty 500.
func internalError(w http.ResponseWriter, r *http.Request, err error) {
	logger.ErrorFields("request failed", logger.Fields{
		"request_method": r.Method,
		"request_uri":    r.URL.RequestURI(),
		"error":          err.Error(),
	})
	halt(w, http.StatusInternalServerError)
}

func created(w http.ResponseWriter, v any) {
	data, err := jsoncodec.Marshal(v)
	if err != nil {
		logger.Errorf("Failed to encode response: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(data)
}

// issued acknowledges asynchronous work with 202 and the current time.
func (s *Server) issued(w http.ResponseWriter) {
	data, _ := jsoncodec.Marshal(models.Issued{Issued: s.now().Unix()})
	w.WriteHeader(http.StatusAccepted)
	_, _ = w.Write(data)
}

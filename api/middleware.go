package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

var allowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}

// cors allows any origin and answers preflight requests directly.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type internalError struct {
	Error     string `json:"error"`
	Details   string `json:"details"`
	Timestamp string `json:"timestamp"`
}

// recoverer turns a handler panic into a 500 with the usual error body.
func recoverer(logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.WithFields(logrus.Fields{
					"panic":  fmt.Sprint(rec),
					"method": r.Method,
					"path":   r.URL.Path,
				}).Error("HttpServer.recoverer.panic")

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(internalError{
					Error:     "Erro interno do servidor",
					Details:   "Tente novamente em alguns instantes",
					Timestamp: time.Now().UTC().Format(time.RFC3339),
				})
			}()
			next.ServeHTTP(w, r)
		})
	}
}

type methodNotAllowedBody struct {
	Error          string   `json:"error"`
	AllowedMethods []string `json:"allowedMethods"`
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Allow", "GET, POST, PUT, DELETE, OPTIONS")
	w.WriteHeader(http.StatusMethodNotAllowed)
	_ = json.NewEncoder(w).Encode(methodNotAllowedBody{
		Error:          fmt.Sprintf("Método %s não permitido", r.Method),
		AllowedMethods: allowedMethods,
	})
}

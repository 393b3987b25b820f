package controller

import (
	"encoding/json"
	"net/http"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/health-assistant-rag/model"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
)

// httpStatus maps an error code onto the status returned to HTTP callers.
func httpStatus(code codes.Code) int {
	switch code {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Canceled, codes.DeadlineExceeded:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
		// Note: Can't call http.Error here as headers may already be written
	}
}

func writeError(w http.ResponseWriter, code codes.Code, msg string) {
	writeJSON(w, httpStatus(code), model.ErrorResponse{Error: msg})
}

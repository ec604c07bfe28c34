package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
)

// logTailLines caps how much of the run log one request returns.
const logTailLines = 200

// LogsHandler serves the tail of the run log file.
type LogsHandler struct {
	logFile string
}

func NewLogsHandler(logFile string) *LogsHandler {
	return &LogsHandler{logFile: logFile}
}

// Tail returns the last lines of the log file as a JSON array. A missing
// file is an empty log, not an error.
func (h *LogsHandler) Tail(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	data, err := os.ReadFile(h.logFile)
	if err != nil {
		json.NewEncoder(w).Encode([]string{})
		return
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) > logTailLines {
		lines = lines[len(lines)-logTailLines:]
	}
	json.NewEncoder(w).Encode(lines)
}

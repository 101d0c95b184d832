package api

import (
    "encoding/json"
    "net/http"

    "lojabot/internal/discord"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(status)
    _ = json.NewEncoder(w).Encode(v)
}

// respond writes the single interaction response this request gets.
func respond(w http.ResponseWriter, typ int, data *discord.MessageData) {
    writeJSON(w, http.StatusOK, discord.Response{Type: typ, Data: data})
}

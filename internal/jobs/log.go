package jobs

import (
	"encoding/json"
	"log"
	"time"
)

func logJSON(loc *time.Location, data map[string]any) {
	data["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal job log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}

package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dandyworld/dandy-world-server/model"
)

// JSONLogger records one JSON document per room: the starting roster plus
// every broadcast event with a millisecond timestamp. Rooms run on their
// own goroutines, so the map is mutex guarded.
type JSONLogger struct {
	mu               sync.Mutex
	data             map[string]*JSONLog
	outputDir        string
	templateFilename string
}

type JSONLog struct {
	id       string
	filename string
	players  []any
	entries  []any
	floor    int
	reason   string
}

func NewJSONLogger(config model.Config) *JSONLogger {
	return &JSONLogger{
		data:             make(map[string]*JSONLog),
		outputDir:        config.JSONLogger.OutputDir,
		templateFilename: config.JSONLogger.Filename,
	}
}

func (j *JSONLogger) TrackStartRoom(id string, players []*model.RoomPlayer) {
	data := &JSONLog{
		id:      id,
		players: make([]any, 0, len(players)),
		entries: make([]any, 0),
		floor:   1,
	}
	names := make([]string, 0, len(players))
	for _, p := range players {
		data.players = append(data.players, map[string]any{
			"connection_id": p.ConnectionID,
			"name":          p.Name,
			"toon":          p.ToonID,
			"max_health":    p.MaxHealth,
		})
		names = append(names, p.Name)
	}
	filename := strings.ReplaceAll(j.templateFilename, "{room_id}", data.id)
	filename = strings.ReplaceAll(filename, "{timestamp}", fmt.Sprintf("%d", time.Now().Unix()))
	filename = strings.ReplaceAll(filename, "{players}", strings.Join(names, "_"))
	data.filename = filename

	j.mu.Lock()
	defer j.mu.Unlock()
	j.data[id] = data
}

func (j *JSONLogger) TrackEvent(id string, event model.Event) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if data, exists := j.data[id]; exists {
		entry := map[string]any{
			"timestamp": time.Now().UnixNano() / 1e6,
			"type":      event.Type,
		}
		if payload, err := json.Marshal(event.Data); err == nil {
			entry["data"] = string(payload)
		}
		data.entries = append(data.entries, entry)
	}
}

func (j *JSONLogger) TrackEndRoom(id string, floor int, reason string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if data, exists := j.data[id]; exists {
		data.floor = floor
		data.reason = reason
		j.saveRoomData(id)
		delete(j.data, id)
	}
}

func (j *JSONLogger) saveRoomData(id string) {
	if data, exists := j.data[id]; exists {
		room := map[string]any{
			"room_id": id,
			"floor":   data.floor,
			"reason":  data.reason,
			"players": data.players,
			"entries": data.entries,
		}
		jsonData, err := json.Marshal(room)
		if err != nil {
			return
		}
		if _, err := os.Stat(j.outputDir); os.IsNotExist(err) {
			os.Mkdir(j.outputDir, 0755)
		}
		filePath := filepath.Join(j.outputDir, fmt.Sprintf("%s.json", data.filename))
		file, err := os.Create(filePath)
		if err != nil {
			return
		}
		defer file.Close()
		file.Write(jsonData)
	}
}

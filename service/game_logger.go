package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dandyworld/dandy-world-server/model"
)

// GameLogger writes one plain-text line log per room, one line per gameplay
// event (fills, deaths, floor advances). Intended for replay and debugging.
// Rooms run on their own goroutines, so the map is mutex guarded.
type GameLogger struct {
	mu               sync.Mutex
	logsData         map[string]*GameLog
	outputDir        string
	templateFilename string
}

type GameLog struct {
	id       string
	filename string
	logs     []string
}

func NewGameLogger(config model.Config) *GameLogger {
	return &GameLogger{
		logsData:         make(map[string]*GameLog),
		outputDir:        config.GameLogger.OutputDir,
		templateFilename: config.GameLogger.Filename,
	}
}

func (g *GameLogger) TrackStartRoom(id string, players []*model.RoomPlayer) {
	logData := &GameLog{
		id:   id,
		logs: make([]string, 0),
	}
	names := make([]string, 0, len(players))
	for _, p := range players {
		names = append(names, p.Name)
	}
	filename := strings.ReplaceAll(g.templateFilename, "{room_id}", logData.id)
	filename = strings.ReplaceAll(filename, "{timestamp}", fmt.Sprintf("%d", time.Now().Unix()))
	filename = strings.ReplaceAll(filename, "{players}", strings.Join(names, "_"))
	logData.filename = filename

	g.mu.Lock()
	defer g.mu.Unlock()
	g.logsData[id] = logData
	for _, p := range players {
		logData.logs = append(logData.logs, fmt.Sprintf("1,join,%s,%s,%d", p.ConnectionID, p.ToonID, p.MaxHealth))
	}
	g.saveLog(id)
}

func (g *GameLogger) TrackEndRoom(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.logsData[id]; exists {
		g.saveLog(id)
		delete(g.logsData, id)
	}
}

func (g *GameLogger) AppendLog(id string, log string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if logData, exists := g.logsData[id]; exists {
		logData.logs = append(logData.logs, log)
		g.saveLog(id)
	}
}

func (g *GameLogger) saveLog(id string) {
	if logData, exists := g.logsData[id]; exists {
		str := strings.Join(logData.logs, "\n")
		if _, err := os.Stat(g.outputDir); os.IsNotExist(err) {
			os.MkdirAll(g.outputDir, 0755)
		}
		filePath := filepath.Join(g.outputDir, fmt.Sprintf("%s.log", logData.filename))
		file, err := os.Create(filePath)
		if err != nil {
			return
		}
		defer file.Close()
		file.WriteString(str)
	}
}

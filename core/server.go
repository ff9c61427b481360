package core

import (
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dandyworld/dandy-world-server/logic"
	"github.com/dandyworld/dandy-world-server/model"
	"github.com/dandyworld/dandy-world-server/service"
	"github.com/dandyworld/dandy-world-server/util"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type Server struct {
	config      model.Config
	upgrader    websocket.Upgrader
	broadcaster service.Broadcaster
	registry    *Registry
	lobby       *Lobby
	roomManager *logic.RoomManager
	signaled    bool
	gameLogger  *service.GameLogger
	jsonLogger  *service.JSONLogger
}

func NewServer(config model.Config) (*Server, error) {
	broadcaster := service.NewChannelBroadcaster()
	rng := util.NewRand()
	server := &Server{
		config: config,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		broadcaster: broadcaster,
		registry:    NewRegistry(),
		lobby:       NewLobby(&config, rng, broadcaster),
		roomManager: logic.NewRoomManager(&config, rng, broadcaster),
	}
	if config.GameLogger.Enable {
		server.gameLogger = service.NewGameLogger(config)
		server.roomManager.SetGameLogger(server.gameLogger)
	}
	if config.JSONLogger.Enable {
		server.jsonLogger = service.NewJSONLogger(config)
		server.roomManager.SetJSONLogger(server.jsonLogger)
	}
	server.lobby.SetOnFire(server.startGame)
	server.roomManager.SetOnDestroyed(server.roomDestroyed)
	return server, nil
}

func (s *Server) Run() {
	router := gin.Default()
	router.Use(func(c *gin.Context) {
		c.Header("Server", "dandy-world-server/"+Version.String()+" "+runtime.Version()+" ("+runtime.GOOS+"; "+runtime.GOARCH+")")

		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	router.GET("/ws", func(c *gin.Context) {
		s.handleConnections(c.Writer, c.Request)
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": s.roomManager.ActiveRooms(), "version": Version})
	})

	if s.config.Server.Static.Enable {
		router.Static("/app", s.config.Server.Static.Dir)
	}

	go func() {
		trap := make(chan os.Signal, 1)
		signal.Notify(trap, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGINT)
		sig := <-trap
		slog.Info("received signal", "signal", sig)
		s.signaled = true
		s.gracefullyShutdown()
		os.Exit(0)
	}()

	slog.Info("server started", "host", s.config.Server.WebSocket.Host, "port", s.config.Server.WebSocket.Port)
	err := router.Run(s.config.Server.WebSocket.Host + ":" + strconv.Itoa(s.config.Server.WebSocket.Port))
	if err != nil {
		slog.Error("failed to start server", "error", err)
		return
	}
}

func (s *Server) gracefullyShutdown() {
	for s.roomManager.ActiveRooms() > 0 {
		time.Sleep(15 * time.Second)
	}
	slog.Info("all rooms finished")
}

func (s *Server) handleConnections(w http.ResponseWriter, r *http.Request) {
	if s.signaled {
		slog.Warn("refusing new connection after shutdown signal")
		return
	}
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade client", "error", err)
		return
	}
	conn := model.NewConnection(ws)
	if s.config.Server.Authentication.Enable {
		token := r.URL.Query().Get("token")
		if token == "" {
			token = strings.ReplaceAll(r.Header.Get("Authorization"), "Bearer ", "")
		}
		playerName := r.URL.Query().Get("name")
		if !util.IsValidPlayerToken(s.config.Server.Authentication.Secret, token, playerName) {
			slog.Warn("invalid join token", "player_name", playerName)
			conn.Close()
			return
		}
	}
	s.registry.Register(conn)
	go s.readLoop(conn)
}

func (s *Server) readLoop(conn *model.Connection) {
	defer s.disconnect(conn)
	for {
		_, raw, err := conn.Conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Info("connection closed", "connection_id", conn.ID)
			} else {
				slog.Warn("failed to read message", "connection_id", conn.ID, "error", err)
			}
			return
		}
		event, err := model.ParseClientEvent(raw)
		if err != nil {
			slog.Debug("ignoring client event", "connection_id", conn.ID, "error", err)
			continue
		}
		s.dispatch(conn, event)
	}
}

// dispatch routes one decoded intent. Intents referencing missing rooms,
// machines or targets fall through as no-ops: the sender's stale state is
// expected, not a protocol violation.
func (s *Server) dispatch(conn *model.Connection, event model.ClientEvent) {
	switch e := event.(type) {
	case *model.JoinLobby:
		if _, inRoom := s.registry.RoomOf(conn.ID); inRoom {
			return
		}
		s.lobby.Join(conn, e.PlayerName, e.ToonID)
		s.registry.SetLobby(conn.ID)
	case *model.LobbyMove:
		s.lobby.Move(conn.ID, e.Position)
	case *model.EnterElevator:
		s.lobby.EnterElevator(conn.ID, e.ElevatorID)
	case *model.LeaveElevator:
		s.lobby.LeaveElevator(conn.ID)
	case *model.GameMove:
		if room, ok := s.roomManager.GetRoom(e.RoomID); ok {
			room.MovePlayer(conn.ID, e.Position)
		}
	case *model.MachineFilled:
		if room, ok := s.roomManager.GetRoom(e.RoomID); ok {
			room.FillMachine(e.MachineID)
		}
	case *model.ReachedElevator:
		if room, ok := s.roomManager.GetRoom(e.RoomID); ok {
			room.ReachedElevator(conn.ID)
		}
	case *model.PlayerDamaged:
		if room, ok := s.roomManager.GetRoom(e.RoomID); ok {
			room.DamagePlayer(conn.ID)
		}
	case *model.UseAbility:
		if room, ok := s.roomManager.GetRoom(e.RoomID); ok {
			room.UseAbility(conn.ID, e.AbilityType, e.TargetID)
		}
	case *model.ChooseReward:
		if room, ok := s.roomManager.GetRoom(e.RoomID); ok {
			room.ChooseReward(conn.ID, e.Choice)
		}
	}
}

func (s *Server) disconnect(conn *model.Connection) {
	if roomID, ok := s.registry.RoomOf(conn.ID); ok {
		if room, found := s.roomManager.GetRoom(roomID); found {
			room.HandleDisconnect(conn.ID)
		}
		s.broadcaster.LeaveChannel(roomID, conn.ID)
	} else if s.registry.InLobby(conn.ID) {
		s.lobby.Disconnect(conn.ID)
	}
	s.registry.Unregister(conn.ID)
	conn.Close()
}

func (s *Server) startGame(elevatorID int, occupants []logic.Occupant) {
	room := s.roomManager.StartGame(elevatorID, occupants)
	if room == nil {
		return
	}
	for _, occupant := range occupants {
		s.registry.SetRoom(occupant.Conn.ID, room.ID)
	}
}

// roomDestroyed clears the registry entries of a torn-down room so the
// connections can re-join the lobby.
func (s *Server) roomDestroyed(roomID string, connectionIDs []string) {
	for _, id := range connectionIDs {
		if current, ok := s.registry.RoomOf(id); ok && current == roomID {
			s.registry.ClearLocation(id)
		}
	}
}

package test

import (
	"math/rand"
	"net"
	"net/url"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/dandyworld/dandy-world-server/core"
	"github.com/dandyworld/dandy-world-server/model"
)

const WebSocketExternalHost = "0.0.0.0"

func launchAsyncServer(t *testing.T, config *model.Config) url.URL {
	if _, exists := os.LookupEnv("GITHUB_ACTIONS"); exists {
		config.Server.WebSocket.Host = WebSocketExternalHost
	}
	port := getAvailableTcpPort(config.Server.WebSocket.Host)
	config.Server.WebSocket.Port = port
	go func() {
		server, err := core.NewServer(*config)
		if err != nil {
			return
		}
		server.Run()
	}()
	t.Parallel()
	return url.URL{Scheme: "ws", Host: config.Server.WebSocket.Host + ":" + strconv.Itoa(config.Server.WebSocket.Port), Path: "/ws"}
}

func getAvailableTcpPort(host string) int {
	rand := rand.New(rand.NewSource(time.Now().UnixNano()))
	port := rand.Intn(65535-49152+1) + 49152
	for {
		listener, err := net.Listen("tcp", host+":"+strconv.Itoa(port))
		if err == nil {
			listener.Close()
			break
		}
		port = rand.Intn(65535-49152+1) + 49152
	}
	return port
}

package router

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"marketplace_service/internal/chat/app"
	"marketplace_service/internal/chat/domain"
	"marketplace_service/internal/chat/repository"
	"marketplace_service/pkg/database"
	"marketplace_service/pkg/logger"
	testtool "marketplace_service/pkg/test_tool"
	"marketplace_service/pkg/token"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const wsAddr = ":8082"

var (
	chatApp         *fiber.App
	testRoomRepo    repository.RoomRepository
	testChatService *app.ChatService
)

func TestMain(m *testing.M) {
	ctx := context.Background()
	logger.SetNewNop()

	mongoContainer, mongoHost, mongoPort, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "mongo:latest",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp"),
	})
	if err != nil {
		log.Fatalf("Failed to start MongoDB container: %v", err)
	}

	redisContainer, redisHost, redisPort, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "redis:latest",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp"),
	})
	if err != nil {
		log.Fatalf("Failed to start Redis container: %v", err)
	}

	pgContainer, pgHost, pgPort, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "chat",
			"POSTGRES_PASSWORD": "chat",
			"POSTGRES_DB":       "chat",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp"),
	})
	if err != nil {
		log.Fatalf("Failed to start Postgres container: %v", err)
	}

	mongo, err := database.NewMongoDB(ctx, database.Connection{
		ConnectStr:    fmt.Sprintf("mongodb://%s:%s", mongoHost, mongoPort),
		RetryCount:    5,
		RetryInterval: 5,
	}, "test_chat_db")
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%s", redisHost, redisPort),
		DB:   0,
	})

	pool, err := database.NewDatabaseConnection(database.Connection{
		ConnectStr:    fmt.Sprintf("postgres://chat:chat@%s:%s/chat", pgHost, pgPort),
		RetryCount:    10,
		RetryInterval: 2,
	})
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}

	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS accounts (
			id SERIAL PRIMARY KEY,
			user_id TEXT UNIQUE NOT NULL,
			name TEXT NOT NULL,
			email TEXT UNIQUE NOT NULL,
			password TEXT NOT NULL,
			avatar TEXT NOT NULL DEFAULT '',
			status INT NOT NULL DEFAULT 0
		)`); err != nil {
		log.Fatalf("Failed to create accounts table: %v", err)
	}
	for _, row := range [][2]string{{"alice-id", "Alice"}, {"bob-id", "Bob"}} {
		if _, err := pool.Exec(ctx,
			"INSERT INTO accounts(user_id, name, email, password) VALUES ($1, $2, $3, 'x') ON CONFLICT DO NOTHING",
			row[0], row[1], row[1]+"@example.com"); err != nil {
			log.Fatalf("Failed to seed accounts: %v", err)
		}
	}

	roomRepo := repository.NewMongoRoomRepository(mongo.Database)
	msgRepo := repository.NewMongoMessageRepository(mongo.Database)
	directory := repository.NewDirectoryRepository(pool, redisClient)
	notifier := repository.NewRedisNotifier(redisClient)

	chatService := app.NewChatService(roomRepo, msgRepo, directory, notifier, nil)
	testRoomRepo = roomRepo
	testChatService = chatService

	chatApp = fiber.New()
	RegisterRoutes(chatApp, app.NewChatWebsocketHandler(chatService, redisClient))

	go func() {
		if err := chatApp.Listen(wsAddr); err != nil {
			log.Fatalf("Failed to start WebSocket server: %v", err)
		}
	}()
	time.Sleep(3 * time.Second)

	code := m.Run()

	_ = chatApp.Shutdown()
	pool.Close()
	_ = mongo.Close(ctx)
	_ = redisClient.Close()
	_ = mongoContainer.Terminate(ctx)
	_ = redisContainer.Terminate(ctx)
	_ = pgContainer.Terminate(ctx)

	os.Exit(code)
}

func dialAs(t *testing.T, userID, userName string) *gws.Conn {
	t.Helper()
	tk, err := token.GenerateJWT(userID, userName, string(token.RoleUser), "chat_service")
	require.NoError(t, err)

	conn, _, err := gws.DefaultDialer.Dial("ws://127.0.0.1:8082/ws?auth="+tk, nil)
	require.NoError(t, err)
	return conn
}

// readUntil skip pushes until a frame with the wanted action arrives
func readUntil(t *testing.T, conn *gws.Conn, action string) domain.WSResponse {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	require.NoError(t, conn.SetReadDeadline(deadline))

	for {
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %q", action)

		var resp domain.WSResponse
		require.NoError(t, json.Unmarshal(raw, &resp))
		if resp.Action == action {
			return resp
		}
	}
}

func send(t *testing.T, conn *gws.Conn, req domain.WSRequest) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(req))
}

func TestWebsocket_InitialRoomListPush(t *testing.T) {
	conn := dialAs(t, "alice-id", "Alice")
	defer conn.Close()

	resp := readUntil(t, conn, string(domain.NotifyRoomList))
	assert.True(t, resp.Success)
}

func TestWebsocket_StartChatAndSend(t *testing.T) {
	alice := dialAs(t, "alice-id", "Alice")
	defer alice.Close()
	bob := dialAs(t, "bob-id", "Bob")
	defer bob.Close()

	readUntil(t, alice, string(domain.NotifyRoomList))
	readUntil(t, bob, string(domain.NotifyRoomList))

	// alice opens the private room with bob
	send(t, alice, domain.WSRequest{Action: string(domain.StartChat), PeerID: "bob-id"})
	started := readUntil(t, alice, string(domain.StartChat))
	require.True(t, started.Success)
	roomID, _ := started.Payload["room_id"].(string)
	require.NotEmpty(t, roomID)

	// both enter and get the message feed
	send(t, alice, domain.WSRequest{Action: string(domain.EnterRoom), RoomID: roomID})
	entered := readUntil(t, alice, string(domain.EnterRoom))
	require.True(t, entered.Success)

	send(t, bob, domain.WSRequest{Action: string(domain.EnterRoom), RoomID: roomID})
	require.True(t, readUntil(t, bob, string(domain.EnterRoom)).Success)

	// alice sends, bob's feed re-delivers the full message list
	send(t, alice, domain.WSRequest{Action: string(domain.SendMessage), Content: "hi bob"})
	require.True(t, readUntil(t, alice, string(domain.SendMessage)).Success)

	deadline := time.Now().Add(10 * time.Second)
	for {
		require.True(t, time.Now().Before(deadline), "bob never saw the message")
		feed := readUntil(t, bob, string(domain.NotifyMessageList))
		raw, _ := json.Marshal(feed.Payload["messages"])
		var messages []domain.ChatMessage
		require.NoError(t, json.Unmarshal(raw, &messages))
		if len(messages) == 1 && messages[0].Content == "hi bob" {
			break
		}
	}

	// the new room shows up on bob's room list with alice resolved
	list := readUntil(t, bob, string(domain.NotifyRoomList))
	assert.True(t, list.Success)
}

func TestWebsocket_EmptyMessageRejected(t *testing.T) {
	alice := dialAs(t, "alice-id", "Alice")
	defer alice.Close()

	readUntil(t, alice, string(domain.NotifyRoomList))

	send(t, alice, domain.WSRequest{Action: string(domain.StartChat), PeerID: "bob-id"})
	started := readUntil(t, alice, string(domain.StartChat))
	require.True(t, started.Success)
	roomID, _ := started.Payload["room_id"].(string)

	send(t, alice, domain.WSRequest{Action: string(domain.EnterRoom), RoomID: roomID})
	require.True(t, readUntil(t, alice, string(domain.EnterRoom)).Success)

	send(t, alice, domain.WSRequest{Action: string(domain.SendMessage), Content: "   "})
	resp := readUntil(t, alice, string(domain.SendMessage))
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
}

func TestFindOnePrivateRoom_SkipsGroupRooms(t *testing.T) {
	ctx := context.Background()

	// a group room containing the pair must not be reused as their private room
	group, err := testRoomRepo.InsertRoom(ctx, []string{"alice-id", "bob-id", "carol-id"})
	require.NoError(t, err)

	roomID, err := testChatService.FindOrCreatePrivateRoom(ctx, "alice-id", "bob-id")
	require.NoError(t, err)
	assert.NotEqual(t, group.ID, roomID)

	pair, err := testRoomRepo.FindOnePrivateRoom(ctx, "alice-id", "bob-id")
	require.NoError(t, err)
	assert.Equal(t, roomID, pair.ID)
	assert.Len(t, pair.Participants, 2)
}

func TestWebsocket_MissingTokenRejected(t *testing.T) {
	_, httpResp, err := gws.DefaultDialer.Dial("ws://127.0.0.1:8082/ws", nil)
	assert.Error(t, err)
	if httpResp != nil {
		assert.Equal(t, fiber.StatusUnauthorized, httpResp.StatusCode)
	}
}

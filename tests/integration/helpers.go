package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"crazyeights/wire"

	"github.com/heroiclabs/nakama-common/rtapi"
	"github.com/heroiclabs/nakama-go/v2"
)

const (
	ServerKey = "defaultkey"
	Host      = "127.0.0.1"
	Port      = 7350
)

type TestClient struct {
	Client  *nakama.Client
	Session *nakama.Session
	Socket  *nakama.Socket
	UserID  string
	Events  chan *rtapi.MatchData
}

func NewTestClient(t *testing.T) *TestClient {
	t.Helper()

	client := nakama.NewClient(ServerKey, Host, Port, false)

	// Create unique ID
	deviceID := fmt.Sprintf("test_device_%d", time.Now().UnixNano())

	session, err := client.AuthenticateDevice(context.Background(), deviceID, true, "")
	if err != nil {
		t.Fatalf("Failed to authenticate: %v", err)
	}

	socket := client.NewSocket()

	// Buffer every match message so assertions never race the socket.
	events := make(chan *rtapi.MatchData, 64)
	socket.OnMatchData = func(data *rtapi.MatchData) {
		select {
		case events <- data:
		default:
		}
	}

	if err := socket.Connect(context.Background(), session, true); err != nil {
		t.Fatalf("Failed to connect socket: %v", err)
	}

	return &TestClient{
		Client:  client,
		Session: session,
		Socket:  socket,
		UserID:  session.UserId,
		Events:  events,
	}
}

func (tc *TestClient) Close() {
	if tc.Socket != nil {
		tc.Socket.Close()
	}
}

// QuickMatch calls the quick_match RPC and joins the returned match.
func (tc *TestClient) QuickMatch(t *testing.T) string {
	t.Helper()

	rpc, err := tc.Client.RpcFunc(context.Background(), tc.Session, "quick_match", "")
	if err != nil {
		t.Fatalf("RPC quick_match failed: %v", err)
	}

	var resp wire.QuickMatchResponse
	if err := json.Unmarshal([]byte(rpc.Payload), &resp); err != nil {
		t.Fatalf("RPC quick_match returned invalid JSON %q: %v", rpc.Payload, err)
	}
	if resp.MatchID == "" {
		t.Fatal("RPC quick_match returned no match id")
	}

	if _, err := tc.Socket.JoinMatch(context.Background(), nil, resp.MatchID, nil); err != nil {
		t.Fatalf("Failed to join match %s: %v", resp.MatchID, err)
	}

	return resp.MatchID
}

// Send sends one opcode with an optional JSON payload to the match.
func (tc *TestClient) Send(t *testing.T, matchID string, opCode int64, payload interface{}) {
	t.Helper()

	var data []byte
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			t.Fatalf("Failed to marshal payload for opcode %d: %v", opCode, err)
		}
	}
	if _, err := tc.Socket.SendMatchState(context.Background(), matchID, opCode, data, nil); err != nil {
		t.Fatalf("Failed to send opcode %d: %v", opCode, err)
	}
}

// WaitForMatchState returns the next buffered message with the given opcode,
// discarding everything else that arrives before it.
func (tc *TestClient) WaitForMatchState(t *testing.T, opCode int64, timeout time.Duration) *rtapi.MatchData {
	t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case data := <-tc.Events:
			if data.OpCode == opCode {
				return data
			}
		case <-deadline:
			t.Fatalf("Timeout waiting for OpCode %d", opCode)
			return nil
		}
	}
}

// WaitForSeatAction returns the first play, draw or forfeit performed by the
// given seat. These are the three ways a turn can resolve.
func (tc *TestClient) WaitForSeatAction(t *testing.T, seat int, timeout time.Duration) *rtapi.MatchData {
	t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case data := <-tc.Events:
			switch data.OpCode {
			case wire.OpCardPlayed, wire.OpCardDrawn, wire.OpTurnForfeited:
				var actor struct {
					Seat int `json:"seat"`
				}
				if err := json.Unmarshal(data.Data, &actor); err != nil {
					t.Fatalf("Failed to unmarshal seat from opcode %d: %v", data.OpCode, err)
				}
				if actor.Seat == seat {
					return data
				}
			}
		case <-deadline:
			t.Fatalf("Timeout waiting for seat %d to act", seat)
			return nil
		}
	}
}

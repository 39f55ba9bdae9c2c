package protocol

import (
	"encoding/json"
	"fmt"
)

// Command types the client may transmit. Commands are fire-and-forget: the
// channel gives no delivery guarantee and every command is safe to drop.
const (
	CmdPing            = "ping"
	CmdTriggerAnalysis = "trigger_analysis"
	CmdSubscribeQuotes = "subscribe_quotes"
)

// Command is one client-originated frame.
type Command struct {
	Type    string   `json:"type"`
	Symbols []string `json:"symbols,omitempty"`
}

// Ping is the liveness probe sent on a fixed timer.
func Ping() Command {
	return Command{Type: CmdPing}
}

// TriggerAnalysis asks the backend to run a strategy analysis pass now.
func TriggerAnalysis() Command {
	return Command{Type: CmdTriggerAnalysis}
}

// SubscribeQuotes requests a quotes_update for the given symbols.
func SubscribeQuotes(symbols []string) Command {
	return Command{Type: CmdSubscribeQuotes, Symbols: symbols}
}

// Encode serializes the command for transmission.
func (c Command) Encode() ([]byte, error) {
	if c.Type == "" {
		return nil, fmt.Errorf("command missing type")
	}
	return json.Marshal(c)
}

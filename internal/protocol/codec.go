// Package protocol implements the JSON frame codec for the portfolio
// synchronization channel. Each inbound frame is an object with a required
// "type" discriminator; the payload shape is fully determined by the type.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/luminaquant/lumina-go/internal/portfolio"
)

// Kind identifies an inbound message kind. The set is closed except for
// KindUnknown, which absorbs any unrecognized discriminator for forward
// compatibility.
type Kind string

const (
	KindInitialState      Kind = "initial_state"
	KindPortfolioUpdate   Kind = "portfolio_update"
	KindQuotesUpdate      Kind = "quotes_update"
	KindAnalysisTriggered Kind = "analysis_triggered"
	KindPong              Kind = "pong"
	KindHeartbeat         Kind = "heartbeat"
	KindUnknown           Kind = "unknown"
)

// Message is one decoded inbound frame. Payload fields are populated
// according to Kind and are nil otherwise.
type Message struct {
	Kind Kind

	// RawType is the wire discriminator as received, kept for diagnostics
	// when Kind is KindUnknown.
	RawType string

	// Portfolio is set by initial_state and portfolio_update frames that
	// carried a portfolio payload.
	Portfolio *portfolio.Portfolio

	// PnLHistory is set only by initial_state frames that carried history.
	PnLHistory []portfolio.PnLRecord

	// Quotes is set by quotes_update frames.
	Quotes []portfolio.Quote

	// Note carries the human-readable text of an analysis_triggered ack.
	Note string
}

// PayloadAbsent reports whether a snapshot-bearing kind arrived without any
// usable payload. Such frames are no-ops by contract: the upstream sometimes
// omits sub-fields and the client must not treat that as an error. Callers
// count these separately from decode failures so schema drift stays visible.
func (m Message) PayloadAbsent() bool {
	switch m.Kind {
	case KindInitialState:
		return m.Portfolio == nil && m.PnLHistory == nil
	case KindPortfolioUpdate:
		return m.Portfolio == nil
	case KindQuotesUpdate:
		return len(m.Quotes) == 0
	}
	return false
}

type envelope struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Message   string          `json:"message"`
	Timestamp string          `json:"timestamp"`
}

type initialStatePayload struct {
	Portfolio  *portfolio.Portfolio  `json:"portfolio"`
	PnLHistory []portfolio.PnLRecord `json:"pnl_history"`
}

// Decode converts one wire frame into a Message.
//
// A frame that is not a JSON object, lacks the "type" discriminator, or whose
// declared kind's payload is present but does not match the expected shape is
// rejected with an error. Rejecting a frame never closes the channel; the
// caller discards it and keeps reading. An unrecognized "type" is not an
// error: it decodes to KindUnknown and mutates nothing.
func Decode(frame []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Message{}, fmt.Errorf("parse frame: %w", err)
	}
	if env.Type == "" {
		return Message{}, fmt.Errorf("frame missing type discriminator")
	}

	switch Kind(env.Type) {
	case KindInitialState:
		msg := Message{Kind: KindInitialState, RawType: env.Type}
		if !payloadPresent(env.Data) {
			return msg, nil
		}
		var p initialStatePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return Message{}, fmt.Errorf("initial_state payload: %w", err)
		}
		msg.Portfolio = p.Portfolio
		msg.PnLHistory = p.PnLHistory
		return msg, nil

	case KindPortfolioUpdate:
		msg := Message{Kind: KindPortfolioUpdate, RawType: env.Type}
		if !payloadPresent(env.Data) {
			return msg, nil
		}
		var p portfolio.Portfolio
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return Message{}, fmt.Errorf("portfolio_update payload: %w", err)
		}
		msg.Portfolio = &p
		return msg, nil

	case KindQuotesUpdate:
		msg := Message{Kind: KindQuotesUpdate, RawType: env.Type}
		if !payloadPresent(env.Data) {
			return msg, nil
		}
		var quotes []portfolio.Quote
		if err := json.Unmarshal(env.Data, &quotes); err != nil {
			return Message{}, fmt.Errorf("quotes_update payload: %w", err)
		}
		msg.Quotes = quotes
		return msg, nil

	case KindAnalysisTriggered:
		return Message{Kind: KindAnalysisTriggered, RawType: env.Type, Note: env.Message}, nil

	case KindPong:
		return Message{Kind: KindPong, RawType: env.Type}, nil

	case KindHeartbeat:
		return Message{Kind: KindHeartbeat, RawType: env.Type}, nil

	default:
		return Message{Kind: KindUnknown, RawType: env.Type}, nil
	}
}

// payloadPresent distinguishes an omitted/null "data" field from one that is
// present. Present-but-wrong-shape is a decode failure; absent is a no-op.
func payloadPresent(data json.RawMessage) bool {
	return len(data) > 0 && string(data) != "null"
}

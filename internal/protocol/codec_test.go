package protocol

import (
	"testing"
)

func TestDecodeKinds(t *testing.T) {
	tests := []struct {
		name     string
		frame    string
		wantKind Kind
		wantErr  bool
	}{
		{
			name:     "initial state with portfolio and history",
			frame:    `{"type":"initial_state","data":{"portfolio":{"portfolio_id":1,"total_value":105000},"pnl_history":[{"timestamp":"2025-01-02T00:00:00Z","total_value":105000}]}}`,
			wantKind: KindInitialState,
		},
		{
			name:     "initial state without data",
			frame:    `{"type":"initial_state"}`,
			wantKind: KindInitialState,
		},
		{
			name:     "initial state with null data",
			frame:    `{"type":"initial_state","data":null}`,
			wantKind: KindInitialState,
		},
		{
			name:    "initial state with malformed portfolio",
			frame:   `{"type":"initial_state","data":{"portfolio":"not an object"}}`,
			wantErr: true,
		},
		{
			name:     "portfolio update",
			frame:    `{"type":"portfolio_update","data":{"portfolio_id":1,"daily_pnl":-200}}`,
			wantKind: KindPortfolioUpdate,
		},
		{
			name:     "portfolio update without data",
			frame:    `{"type":"portfolio_update"}`,
			wantKind: KindPortfolioUpdate,
		},
		{
			name:    "portfolio update with array payload",
			frame:   `{"type":"portfolio_update","data":[1,2,3]}`,
			wantErr: true,
		},
		{
			name:     "quotes update",
			frame:    `{"type":"quotes_update","data":[{"symbol":"600519","price":1705.5}]}`,
			wantKind: KindQuotesUpdate,
		},
		{
			name:     "analysis triggered",
			frame:    `{"type":"analysis_triggered","message":"started"}`,
			wantKind: KindAnalysisTriggered,
		},
		{
			name:     "pong",
			frame:    `{"type":"pong"}`,
			wantKind: KindPong,
		},
		{
			name:     "heartbeat",
			frame:    `{"type":"heartbeat"}`,
			wantKind: KindHeartbeat,
		},
		{
			name:     "unrecognized type",
			frame:    `{"type":"quotes_v2","data":{}}`,
			wantKind: KindUnknown,
		},
		{
			name:    "not json",
			frame:   `{{{`,
			wantErr: true,
		},
		{
			name:    "json but not an object",
			frame:   `[1,2,3]`,
			wantErr: true,
		},
		{
			name:    "missing type discriminator",
			frame:   `{"data":{"portfolio_id":1}}`,
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			msg, err := Decode([]byte(tc.frame))
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected decode error, got kind %s", msg.Kind)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected decode error: %v", err)
			}
			if msg.Kind != tc.wantKind {
				t.Errorf("expected kind %s, got %s", tc.wantKind, msg.Kind)
			}
		})
	}
}

func TestDecodePayloads(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"initial_state","data":{"portfolio":{"portfolio_id":1,"total_value":105000,"positions":[{"symbol":"600519","quantity":20,"sellable":true}]},"pnl_history":[{"timestamp":"2025-01-02T00:00:00Z","total_value":105000}]}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Portfolio == nil || msg.Portfolio.TotalValue != 105000 {
		t.Fatalf("portfolio not decoded: %+v", msg.Portfolio)
	}
	if len(msg.Portfolio.Positions) != 1 || !msg.Portfolio.Positions[0].Sellable {
		t.Errorf("positions not decoded: %+v", msg.Portfolio.Positions)
	}
	if len(msg.PnLHistory) != 1 {
		t.Errorf("expected 1 history record, got %d", len(msg.PnLHistory))
	}
	if msg.PayloadAbsent() {
		t.Error("payload should not be reported absent")
	}

	// portfolio only: history stays nil, payload not absent
	msg, err = Decode([]byte(`{"type":"initial_state","data":{"portfolio":{"portfolio_id":1}}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Portfolio == nil || msg.PnLHistory != nil {
		t.Errorf("expected portfolio only, got %+v / %+v", msg.Portfolio, msg.PnLHistory)
	}
	if msg.PayloadAbsent() {
		t.Error("payload should not be reported absent")
	}

	// no data at all: a no-op frame
	msg, err = Decode([]byte(`{"type":"portfolio_update"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !msg.PayloadAbsent() {
		t.Error("expected payload reported absent")
	}

	msg, err = Decode([]byte(`{"type":"unrecognized_kind"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.RawType != "unrecognized_kind" {
		t.Errorf("raw type not preserved: %q", msg.RawType)
	}
}

func TestCommandEncode(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want string
	}{
		{"ping", Ping(), `{"type":"ping"}`},
		{"trigger analysis", TriggerAnalysis(), `{"type":"trigger_analysis"}`},
		{"subscribe quotes", SubscribeQuotes([]string{"600519", "000858"}), `{"type":"subscribe_quotes","symbols":["600519","000858"]}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data, err := tc.cmd.Encode()
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			if string(data) != tc.want {
				t.Errorf("expected %s, got %s", tc.want, data)
			}
		})
	}

	if _, err := (Command{}).Encode(); err == nil {
		t.Error("expected error for command without type")
	}
}

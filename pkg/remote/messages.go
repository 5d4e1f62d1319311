package remote

import (
	"encoding/json"

	"github.com/kestrel-dev/kestrel/pkg/output"
	"github.com/kestrel-dev/kestrel/pkg/types"
)

// Wire message types sent to every connected client. kestrel's remote
// surface is read-only, so these are the only shapes a client ever
// receives — there is no inbound message format to document.
const (
	msgTypeOutputLine  = "output_line"
	msgTypeBlockStatus = "block_status"
)

type outputLineMessage struct {
	Type    string          `json:"type"`
	Service types.ServiceId `json:"service"`
	Source  string          `json:"source"`
	Kind    string          `json:"kind"`
	Index   uint64          `json:"index"`
	Value   string          `json:"value"`
}

type blockStatusMessage struct {
	Type    string                `json:"type"`
	Service types.ServiceId       `json:"service"`
	Block   types.BlockId         `json:"block"`
	Status  types.BlockStatusKind `json:"status"`
}

func encodeOutputLine(event output.Event) ([]byte, error) {
	return json.Marshal(outputLineMessage{
		Type:    msgTypeOutputLine,
		Service: event.Key.Service,
		Source:  event.Key.SourceName,
		Kind:    string(event.Key.Kind),
		Index:   uint64(event.Line.Index),
		Value:   event.Line.Value,
	})
}

func encodeBlockStatus(service types.ServiceId, block types.BlockId, kind types.BlockStatusKind) ([]byte, error) {
	return json.Marshal(blockStatusMessage{
		Type:    msgTypeBlockStatus,
		Service: service,
		Block:   block,
		Status:  kind,
	})
}

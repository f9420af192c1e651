package wire

import (
	"encoding/json"
	"strconv"

	"github.com/cordbroker/cord-broker/internal/presence"
)

// Handshake builds the exact handshake body from §6: compact JSON with the
// client id carried as a decimal string, not a number.
func Handshake(clientID uint64) ([]byte, error) {
	return json.Marshal(struct {
		V        int    `json:"v"`
		ClientID string `json:"client_id"`
	}{V: 1, ClientID: strconv.FormatUint(clientID, 10)})
}

// activityWire mirrors the upstream activity object from §6 field-for-field;
// kept private because callers only ever produce it through ActivityPacket.
type activityWire struct {
	Type       int                  `json:"type"`
	Timestamps *presence.Timestamps `json:"timestamps,omitempty"`
	Details    string               `json:"details,omitempty"`
	State      string               `json:"state,omitempty"`
	Assets     *presence.Assets     `json:"assets,omitempty"`
	Buttons    []presence.Button    `json:"buttons,omitempty"`
}

// setActivityArgs preserves the §6-mandated key order (pid then activity)
// via Go struct field order, which encoding/json always honors.
type setActivityArgs struct {
	PID      uint32        `json:"pid"`
	Activity *activityWire `json:"activity,omitempty"`
}

type setActivityPacket struct {
	Cmd   string           `json:"cmd"`
	Args  setActivityArgs  `json:"args"`
	Nonce string           `json:"nonce"`
}

// ActivityPacket serializes a SET_ACTIVITY body. A nil activity produces the
// "clear" form: args.activity is entirely absent.
func ActivityPacket(pid uint32, a *presence.Activity) ([]byte, error) {
	packet := setActivityPacket{
		Cmd:   "SET_ACTIVITY",
		Args:  setActivityArgs{PID: pid},
		Nonce: "-",
	}
	if a != nil {
		packet.Args.Activity = &activityWire{
			Type:       0,
			Timestamps: a.Timestamps,
			Details:    a.Details,
			State:      a.State,
			Assets:     a.Assets,
			Buttons:    a.Buttons,
		}
	}
	return json.Marshal(packet)
}

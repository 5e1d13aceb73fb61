package agents

import (
	"encoding/json"
	"fmt"
)

// codecVersion is bumped whenever the serialized actor layout changes.
const codecVersion = 1

type actorEnvelope struct {
	Version int    `json:"v"`
	Actor   *Actor `json:"actor"`
}

// Serialize encodes an actor with its full cognition state. Restoring the
// result yields the same relationships, goals, and emotions.
func Serialize(a *Actor) ([]byte, error) {
	if a == nil {
		return nil, fmt.Errorf("serialize actor: nil actor")
	}
	a.ensure()
	data, err := json.Marshal(actorEnvelope{Version: codecVersion, Actor: a})
	if err != nil {
		return nil, fmt.Errorf("serialize actor %s: %w", a.ID, err)
	}
	return data, nil
}

// Deserialize restores an actor written by Serialize.
func Deserialize(data []byte) (*Actor, error) {
	var env actorEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("deserialize actor: %w", err)
	}
	if env.Version != codecVersion {
		return nil, fmt.Errorf("deserialize actor: unsupported version %d", env.Version)
	}
	if env.Actor == nil {
		return nil, fmt.Errorf("deserialize actor: missing actor")
	}
	env.Actor.Personality.Clamp()
	env.Actor.ensure()
	return env.Actor, nil
}

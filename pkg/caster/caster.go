package caster

import "encoding/json"

// Caster converts values to and from the payloads sent over the replay
// websocket.
type Caster[T any] interface {
	From([]byte) (T, error)
	To(T) ([]byte, error)
}

type JSONCaster[T any] struct{}

func (jc JSONCaster[T]) From(data []byte) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}

func (jc JSONCaster[T]) To(v T) ([]byte, error) {
	return json.Marshal(v)
}

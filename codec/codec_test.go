package codec_test

import (
	"testing"

	"github.com/renatoliveira/chainable/codec"
)

func TestGet_ByName(t *testing.T) {
	if got := codec.Get("msgpack").Name(); got != codec.NameMsgpack {
		t.Errorf("Get(msgpack).Name() = %q", got)
	}
	if got := codec.Get("json").Name(); got != codec.NameJSON {
		t.Errorf("Get(json).Name() = %q", got)
	}
	if got := codec.Get("").Name(); got != codec.NameJSON {
		t.Errorf("Get(empty).Name() = %q, want default json", got)
	}
	if got := codec.Get("protobuf").Name(); got != codec.NameJSON {
		t.Errorf("Get(unknown).Name() = %q, want default json", got)
	}
}

func TestCodecs_SnapshotRoundTrip(t *testing.T) {
	snapshot := map[string]any{
		"actor": "admin",
		"count": 42,
		"tags":  []any{"a", "b"},
	}

	for _, name := range []string{codec.NameJSON, codec.NameMsgpack} {
		c := codec.Get(name)

		data, err := c.Marshal(snapshot)
		if err != nil {
			t.Fatalf("%s marshal: %v", name, err)
		}

		var back map[string]any
		if err := c.Unmarshal(data, &back); err != nil {
			t.Fatalf("%s unmarshal: %v", name, err)
		}

		if len(back) != len(snapshot) {
			t.Errorf("%s: %d keys, want %d", name, len(back), len(snapshot))
		}
		if back["actor"] != "admin" {
			t.Errorf("%s: actor = %v, want admin", name, back["actor"])
		}
	}
}

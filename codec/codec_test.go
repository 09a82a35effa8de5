package codec

import (
	"errors"
	"strings"
	"testing"
	"time"
)

type entry struct {
	Value  string `json:"value" cbor:"value" msgpack:"value"`
	Expiry int64  `json:"expiry" cbor:"expiry" msgpack:"expiry"`
}

func TestForKnownNames(t *testing.T) {
	in := entry{Value: "chess-club", Expiry: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC).UnixMilli()}
	for _, name := range []string{"", NameJSON, NameCBOR, NameMsgpack} {
		c, err := For[entry](name, 0)
		if err != nil {
			t.Fatalf("For(%q): %v", name, err)
		}
		b, err := c.Encode(in)
		if err != nil {
			t.Fatalf("%q encode: %v", name, err)
		}
		out, err := c.Decode(b)
		if err != nil {
			t.Fatalf("%q decode: %v", name, err)
		}
		if out != in {
			t.Fatalf("%q got=%+v want=%+v", name, out, in)
		}
	}
}

func TestForUnknownName(t *testing.T) {
	if _, err := For[entry]("protobuf", 0); err == nil {
		t.Fatal("expected error for unknown codec")
	}
}

func TestJSONIsText(t *testing.T) {
	b, err := JSON[entry]{}.Encode(entry{Value: "x", Expiry: 42})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"value":"x","expiry":42}` {
		t.Fatalf("unexpected layout %s", b)
	}
}

func TestLimitCodecRejectsOversized(t *testing.T) {
	c, err := For[entry](NameJSON, 16)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := JSON[entry]{}.Encode(entry{Value: strings.Repeat("a", 64)})
	if _, err := c.Decode(b); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected size error, got %v", err)
	}
}

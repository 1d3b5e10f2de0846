package msgpack

import (
	"testing"

	vmsgpack "github.com/vmihailenco/msgpack/v5"

	"github.com/lassohost/lasso/cell"
	"github.com/lassohost/lasso/wire"
)

func TestDecodeCommandRoundTrip(t *testing.T) {
	payload, err := vmsgpack.Marshal([]any{uint8('V'), []any{int64(0), 3.25}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	cmd, err := Codec{}.DecodeCommand(payload)
	if err != nil {
		t.Fatalf("DecodeCommand: %v", err)
	}
	if cmd.Opcode != 'V' || len(cmd.Args) != 2 {
		t.Fatalf("cmd = %+v", cmd)
	}
	if v, ok := asInt64(cmd.Args[0].Any); !ok || v != 0 {
		t.Fatalf("arg0 = %v", cmd.Args[0].Any)
	}
}

func TestEncodeReply(t *testing.T) {
	r := wire.Reply{
		Opcode: 'n',
		Payload: []wire.Field{
			{Kind: cell.KindUint, Width: 1, Raw: []byte{2}},
		},
		Errno: 0,
	}
	dst := make([]byte, 32)
	n, err := Codec{}.EncodeReply(r, dst)
	if err != nil {
		t.Fatalf("EncodeReply: %v", err)
	}

	var got []any
	if err := vmsgpack.Unmarshal(dst[:n], &got); err != nil {
		t.Fatalf("unmarshal reply: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("reply array len = %d, want 3", len(got))
	}
}

func TestDecodeTypedRejects64Bit(t *testing.T) {
	if _, err := DecodeTyped(cell.KindUint, 8, make([]byte, 8)); err != wire.ErrNotSupported {
		t.Fatalf("err = %v, want ErrNotSupported", err)
	}
	if _, err := DecodeTyped(cell.KindFloat, 8, make([]byte, 8)); err != wire.ErrNotSupported {
		t.Fatalf("err = %v, want ErrNotSupported", err)
	}
}

func TestEncodeTypedRoundTrip(t *testing.T) {
	raw, err := EncodeTyped(cell.KindFloat, 4, 3.25)
	if err != nil {
		t.Fatalf("EncodeTyped: %v", err)
	}
	v, err := DecodeTyped(cell.KindFloat, 4, raw)
	if err != nil {
		t.Fatalf("DecodeTyped: %v", err)
	}
	f, ok := v.(float32)
	if !ok || f != 3.25 {
		t.Fatalf("got %v, want float32(3.25)", v)
	}
}

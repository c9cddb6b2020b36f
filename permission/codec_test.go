package permission

import (
	"errors"
	"testing"
)

func TestDecodeSetAcceptsLegacyArray(t *testing.T) {
	s, err := DecodeSet(`["READ_USER","MANAGE_ROLE"]`)
	if err != nil {
		t.Fatalf("decode legacy: %v", err)
	}
	if !s.Equal(NewSet(ReadUser, ManageRole)) {
		t.Fatalf("unexpected set %s", s)
	}
}

func TestEncodeSetWritesVersionedEnvelope(t *testing.T) {
	raw, err := EncodeSet(NewSet(ReadUser, ManageRole))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `{"v":1,"items":["MANAGE_ROLE","READ_USER"]}`
	if raw != want {
		t.Fatalf("encoded %s, want %s", raw, want)
	}

	back, err := DecodeSet(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !back.Equal(NewSet(ReadUser, ManageRole)) {
		t.Fatalf("unexpected decoded set %s", back)
	}
}

func TestEncodeEmptyRoles(t *testing.T) {
	raw, err := EncodeRoles(nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if raw != `{"v":1,"items":[]}` {
		t.Fatalf("unexpected encoding %s", raw)
	}
}

func TestDecodeRolesPreservesOrder(t *testing.T) {
	r, err := DecodeRoles(`{"v":1,"items":["operator","admin","auditor"]}`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := Roles{"operator", "admin", "auditor"}
	if len(r) != len(want) {
		t.Fatalf("got %v, want %v", r, want)
	}
	for i := range want {
		if r[i] != want[i] {
			t.Fatalf("role[%d] = %q, want %q", i, r[i], want[i])
		}
	}
}

func TestDecodeNullIsEmpty(t *testing.T) {
	s, err := DecodeSet("null")
	if err != nil {
		t.Fatalf("decode null: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty set, got %s", s)
	}
}

func TestDecodeRejectsBadInput(t *testing.T) {
	tests := []struct {
		raw  string
		want error
	}{
		{raw: "", want: ErrMalformed},
		{raw: "READ_USER", want: ErrMalformed},
		{raw: `["READ_USER"`, want: ErrMalformed},
		{raw: `[1,2]`, want: ErrMalformed},
		{raw: `{"v":2,"items":[]}`, want: ErrUnsupportedVersion},
		{raw: `{"items":["READ_USER"]}`, want: ErrUnsupportedVersion},
	}
	for _, tc := range tests {
		if _, err := DecodeSet(tc.raw); !errors.Is(err, tc.want) {
			t.Fatalf("DecodeSet(%q) error = %v, want %v", tc.raw, err, tc.want)
		}
	}
}

// FuzzDecodeSet exercises the decoder with arbitrary text.
// Goal: no panics; anything that decodes must re-encode and decode to the same set.
func FuzzDecodeSet(f *testing.F) {
	f.Add(`["READ_USER"]`)
	f.Add(`{"v":1,"items":["A","B"]}`)
	f.Add(`null`)
	f.Add(`{`)
	f.Add(``)

	f.Fuzz(func(t *testing.T, raw string) {
		s, err := DecodeSet(raw)
		if err != nil {
			return
		}
		encoded, err := EncodeSet(s)
		if err != nil {
			t.Fatalf("EncodeSet failed after successful DecodeSet: %v", err)
		}
		back, err := DecodeSet(encoded)
		if err != nil {
			t.Fatalf("DecodeSet roundtrip failed: %v", err)
		}
		if !back.Equal(s) {
			t.Fatalf("roundtrip mismatch: %s vs %s", s, back)
		}
	})
}

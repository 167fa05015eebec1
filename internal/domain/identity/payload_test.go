package identity

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		want      Payload
		targetErr error
	}{
		{
			name: "valid registered identity",
			raw:  `{"type":"identity:profile","profileId":"p-1","display_name":" Ana ","is_placeholder":false,"exp":1767225600}`,
			want: Payload{Type: TypeProfile, ProfileID: "p-1", DisplayName: "Ana", Exp: 1767225600},
		},
		{
			name: "valid guest identity",
			raw:  `{"type":"identity:profile","profileId":"g-1","display_name":"Guest 2","is_placeholder":true}`,
			want: Payload{Type: TypeProfile, ProfileID: "g-1", DisplayName: "Guest 2", IsPlaceholder: true},
		},
		{name: "wrong type", raw: `{"type":"identity:venue","profileId":"p-1"}`, targetErr: ErrInvalidPayload},
		{name: "missing type", raw: `{"profileId":"p-1"}`, targetErr: ErrInvalidPayload},
		{name: "missing profile id", raw: `{"type":"identity:profile","display_name":"Ana"}`, targetErr: ErrInvalidPayload},
		{name: "blank profile id", raw: `{"type":"identity:profile","profileId":"  "}`, targetErr: ErrInvalidPayload},
		{name: "not json", raw: `identity:profile`, targetErr: ErrInvalidPayload},
		{name: "empty", raw: ``, targetErr: ErrInvalidPayload},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse([]byte(tc.raw))
			if tc.targetErr != nil {
				if !errors.Is(err, tc.targetErr) {
					t.Fatalf("expected %v, got %v", tc.targetErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if got != tc.want {
				t.Fatalf("unexpected payload:\nwant: %+v\ngot:  %+v", tc.want, got)
			}
		})
	}
}

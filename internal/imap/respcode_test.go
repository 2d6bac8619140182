package imap

import "testing"

func TestParseRespCode(t *testing.T) {
	tests := []struct {
		name string
		wire string
		want func(t *testing.T, rc RespCode)
	}{
		{
			name: "ALERT",
			wire: "ALERT]",
			want: func(t *testing.T, rc RespCode) {
				if rc.Kind != RCAlert {
					t.Fatalf("kind = %v, want RCAlert", rc.Kind)
				}
			},
		},
		{
			name: "CAPABILITY",
			wire: "CAPABILITY IMAP4rev1 IDLE UIDPLUS]",
			want: func(t *testing.T, rc RespCode) {
				if rc.Kind != RCCapability {
					t.Fatalf("kind = %v", rc.Kind)
				}
				if len(rc.Capabilities) != 3 || rc.Capabilities[1] != "IDLE" {
					t.Fatalf("capabilities = %v", rc.Capabilities)
				}
			},
		},
		{
			name: "UIDNEXT",
			wire: "UIDNEXT 4392]",
			want: func(t *testing.T, rc RespCode) {
				if rc.Kind != RCUidNext || rc.UidNext != 4392 {
					t.Fatalf("got %+v", rc)
				}
			},
		},
		{
			name: "PERMANENTFLAGS",
			wire: "PERMANENTFLAGS (\\Seen \\Answered \\*)]",
			want: func(t *testing.T, rc RespCode) {
				if rc.Kind != RCPermanentFlags {
					t.Fatalf("kind = %v", rc.Kind)
				}
				if len(rc.PermanentFlags) != 3 || rc.PermanentFlags[2] != "\\*" {
					t.Fatalf("flags = %v", rc.PermanentFlags)
				}
			},
		},
		{
			name: "APPENDUID",
			wire: "APPENDUID 38505 3955]",
			want: func(t *testing.T, rc RespCode) {
				if rc.Kind != RCAppendUid || rc.AppendUidValidity != 38505 {
					t.Fatalf("got %+v", rc)
				}
				if rc.AppendUidSet.String() != "3955" {
					t.Fatalf("append uid set = %q", rc.AppendUidSet.String())
				}
			},
		},
		{
			name: "COPYUID",
			wire: "COPYUID 38505 304,319:320 3956:3958]",
			want: func(t *testing.T, rc RespCode) {
				if rc.Kind != RCCopyUid || rc.CopyUidValidity != 38505 {
					t.Fatalf("got %+v", rc)
				}
				if rc.CopySrc.String() != "304,319:320" {
					t.Fatalf("copy src = %q", rc.CopySrc.String())
				}
				if rc.CopyDst.String() != "3956:3958" {
					t.Fatalf("copy dst = %q", rc.CopyDst.String())
				}
			},
		},
		{
			name: "MODIFIED with open-ended uid set",
			wire: "MODIFIED 10:*]",
			want: func(t *testing.T, rc RespCode) {
				if rc.Kind != RCModified {
					t.Fatalf("kind = %v", rc.Kind)
				}
				if rc.Modified.String() != "10:*" {
					t.Fatalf("modified = %q", rc.Modified.String())
				}
			},
		},
		{
			name: "TRYCREATE",
			wire: "TRYCREATE]",
			want: func(t *testing.T, rc RespCode) {
				if rc.Kind != RCTryCreate {
					t.Fatalf("kind = %v", rc.Kind)
				}
			},
		},
		{
			name: "unknown vendor code is preserved, not an error",
			wire: "X-SOME-VENDOR-THING foo bar]",
			want: func(t *testing.T, rc RespCode) {
				if rc.Kind != RCUnknown || rc.Unknown != "X-SOME-VENDOR-THING" {
					t.Fatalf("got %+v", rc)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tz := newTestTokenizer(tt.wire)
			rc, err := parseRespCode(tz)
			if err != nil {
				t.Fatalf("parseRespCode: %v", err)
			}
			tt.want(t, rc)
		})
	}
}

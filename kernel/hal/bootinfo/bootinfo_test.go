package bootinfo

import "testing"

func TestCmdLine(t *testing.T) {
	defer SetInfo(Info{})

	SetInfo(Info{
		FramebufferAddr: 0xb8000,
		CmdLine:         "diagColor=12  heapDemo=off quiet bad=a=b",
	})

	if got := GetInfo().FramebufferAddr; got != 0xb8000 {
		t.Fatalf("expected framebuffer address 0xb8000; got 0x%x", got)
	}

	kv := CmdLine()
	specs := map[string]string{
		"diagColor": "12",
		"heapDemo":  "off",
		"quiet":     "quiet",
	}

	if len(kv) != len(specs) {
		t.Fatalf("expected %d parsed entries; got %d (%v)", len(specs), len(kv), kv)
	}

	for k, exp := range specs {
		if got := kv[k]; got != exp {
			t.Errorf("expected key %q to map to %q; got %q", k, exp, got)
		}
	}

	SetInfo(Info{CmdLine: "selfTest=off"})
	if kv = CmdLine(); len(kv) != 1 || kv["selfTest"] != "off" {
		t.Fatalf("expected SetInfo to invalidate the parsed command line; got %v", kv)
	}
}

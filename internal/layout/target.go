package layout

import "strings"

// Target describes the ABI target triple and its pointer properties.
type Target struct {
	Triple   string // e.g. "x86_64-linux-gnu"
	PtrSize  int    // bytes
	PtrAlign int    // bytes
}

func X86_64LinuxGNU() Target {
	return Target{
		Triple:   "x86_64-linux-gnu",
		PtrSize:  8,
		PtrAlign: 8,
	}
}

// ForTriple picks pointer properties from the architecture part of triple.
// Unknown architectures are treated as 64-bit.
func ForTriple(triple string) Target {
	if triple == "" {
		return X86_64LinuxGNU()
	}
	arch, _, _ := strings.Cut(triple, "-")
	switch arch {
	case "i386", "i686", "arm", "armv7", "wasm32", "riscv32":
		return Target{Triple: triple, PtrSize: 4, PtrAlign: 4}
	}
	return Target{Triple: triple, PtrSize: 8, PtrAlign: 8}
}

package codegen

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"daisyc/common"
	"daisyc/mir"
	"daisyc/types"
)

// Mangle produces the C symbol for a DAISY function.  It mangles every name,
// `main` included; callers keep `main` unmangled as the program entry point.
func Mangle(module, name string) string {
	safeModule := strings.ReplaceAll(module, ".", "__")
	safeName := strings.ReplaceAll(name, ".", "__")
	return "daisy_" + safeModule + "__" + safeName
}

// Manifest is the per-module ABI manifest written to `<module>.abi.json`.
// Two modules compose only when their ABI majors match.
type Manifest struct {
	Module     string            `json:"module"`
	AbiVersion int               `json:"abi_version"`
	SourceHash string            `json:"source_hash"`
	Functions  map[string]string `json:"functions"`
}

// BuildManifest collects the exported symbols of a lowered module under the
// compiler's ABI major.
func BuildManifest(m *mir.Module, sourceHash string) *Manifest {
	manifest := &Manifest{
		Module:     m.Name,
		AbiVersion: common.AbiMajor,
		SourceHash: sourceHash,
		Functions:  make(map[string]string, len(m.Funcs)),
	}

	for _, fn := range m.Funcs {
		symbol := Mangle(m.Name, fn.Name)
		if fn.Name == "main" {
			symbol = "main"
		}

		manifest.Functions[symbol] = signatureHash(fn)
	}

	return manifest
}

// Marshal renders the manifest as deterministic, indented JSON.
func (manifest *Manifest) Marshal() ([]byte, error) {
	return json.MarshalIndent(manifest, "", "  ")
}

// signatureHash digests a function signature so consumers can detect a
// changed signature without parsing types.
func signatureHash(fn *mir.Function) string {
	sb := strings.Builder{}
	for i, p := range fn.Params {
		if i != 0 {
			sb.WriteRune(',')
		}

		sb.WriteString(p.Type.Repr())
	}
	sb.WriteString("->")
	sb.WriteString(returnRepr(fn.ReturnType))

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])[:16]
}

func returnRepr(typ types.Type) string {
	if typ == nil {
		return "nothing"
	}

	return typ.Repr()
}

package cmd

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"daisyc/common"
	"daisyc/depm"
	"daisyc/report"
)

// cacheRecord is the persisted form of one module's build-cache entry.
type cacheRecord struct {
	Hash string `json:"hash"`
}

// flagsKey renders the cache-relevant build flags as a canonical string so
// that changing any of them invalidates cached artifacts.
func (c *Compiler) flagsKey() string {
	return "rt-checks=" + strconv.FormatBool(c.cfg.RTChecks) +
		";emit-ir=" + strconv.FormatBool(c.cfg.EmitIR) +
		";lto=" + strconv.FormatBool(c.cfg.LTO) +
		";sanitize=" + c.cfg.Sanitize
}

// moduleHashes computes the cache key of every module in the graph.  A
// module's base hash covers the ABI major, the compiler version, the build
// flags, and its canonical source text; the final key folds in the keys of
// its dependencies, sorted, so a change anywhere downstream invalidates every
// dependent.
func (c *Compiler) moduleHashes() map[string]string {
	flags := c.flagsKey()
	combined := make(map[string]string)

	var visit func(mod *depm.Module) string
	visit = func(mod *depm.Module) string {
		if hash, ok := combined[mod.Name]; ok {
			return hash
		}

		// Placeholder so the walk terminates on a dependency cycle.
		combined[mod.Name] = ""

		depHashes := make([]string, 0, len(mod.Deps))
		for _, dep := range mod.Deps {
			depHashes = append(depHashes, visit(dep))
		}
		sort.Strings(depHashes)

		h := sha256.New()
		fmt.Fprintf(h, "%d\n%s\n%s\n%s\n", common.AbiMajor, common.DaisyVersion, common.CacheRev, flags)
		for _, file := range mod.Files {
			h.Write([]byte(file.Contents))
			h.Write([]byte{0})
		}
		for _, depHash := range depHashes {
			h.Write([]byte(depHash))
		}

		hash := hex.EncodeToString(h.Sum(nil))
		combined[mod.Name] = hash
		return hash
	}

	visit(c.rootModule)
	return combined
}

// cacheDir returns the cache directory inside the build output directory.
func (c *Compiler) cacheDir() string {
	return filepath.Join(c.cfg.OutDir, common.CacheDirName)
}

// cacheHit reports whether a module's cached artifacts are still valid: the
// stored hash matches and the artifacts the cache vouches for are present.
func (c *Compiler) cacheHit(modName, hash string) bool {
	data, err := os.ReadFile(filepath.Join(c.cacheDir(), modName+".json"))
	if err != nil {
		return false
	}

	var record cacheRecord
	if err := json.Unmarshal(data, &record); err != nil || record.Hash != hash {
		return false
	}

	for _, name := range []string{modName + ".c", modName + ".abi.json"} {
		if _, err := os.Stat(filepath.Join(c.cfg.OutDir, name)); err != nil {
			return false
		}
	}

	return true
}

// writeCache records a module's cache entry after its artifacts have been
// written.
func (c *Compiler) writeCache(modName, hash string) {
	if err := os.MkdirAll(c.cacheDir(), 0777); err != nil {
		report.ReportFatal("failed to create cache directory: %s", err)
	}

	data, err := json.MarshalIndent(&cacheRecord{Hash: hash}, "", "  ")
	if err != nil {
		report.ReportFatal("failed to encode cache record: %s", err)
	}

	writeOutputFile(filepath.Join(c.cacheDir(), modName+".json"), string(data)+"\n")
}

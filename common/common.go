// Package common contains compiler-wide constants shared by all phases.
package common

// DaisyVersion is the current compiler version as a string.  It participates
// in build-cache keys so that compiler upgrades invalidate stale artifacts.
const DaisyVersion string = "0.3.0"

// AbiMajor is the ABI major version of this compiler.  Modules compose only
// when their declared ABI major matches this value.
const AbiMajor int = 1

// DaisyManifestFileName is the name for DAISY project manifest files.
const DaisyManifestFileName string = "daisy.toml"

// DaisyFileExt is the file extension for a DAISY source file.
const DaisyFileExt string = ".dsy"

// BuildDirName is the name of the build output directory.
const BuildDirName string = "build"

// CacheDirName is the compilation caching directory name inside the build
// directory.
const CacheDirName string = ".cache"

// CacheRev is bumped whenever the shape of cached artifacts changes in a way
// that is not captured by the compiler version alone.
const CacheRev string = "3"

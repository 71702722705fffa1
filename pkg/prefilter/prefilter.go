// Package prefilter holds the static rules that drop junk directories and files
// before any user or relevance pattern is consulted.
package prefilter

import (
	"path/filepath"
	"strings"
)

// JunkDirectories are never worth inspecting: VCS metadata, dependency caches and build output.
var JunkDirectories = map[string]bool{
	".git": true, ".hg": true, ".svn": true, ".bzr": true,
	"node_modules": true, "bower_components": true, "vendor": true, "jspm_packages": true,
	".venv": true, "venv": true, "__pycache__": true, ".mypy_cache": true, ".pytest_cache": true,
	".tox": true, ".ruff_cache": true, ".gradle": true, ".m2": true,
	".next": true, ".nuxt": true, ".svelte-kit": true, ".turbo": true, ".parcel-cache": true,
	".cache": true, ".idea": true, ".vscode": true,
	"target": true, "out": true, "bin": true, "obj": true,
	".terraform": true, ".serverless": true,
}

// TestDirectories are dropped unless test artifacts are explicitly allowed.
var TestDirectories = map[string]bool{
	"test": true, "tests": true, "__tests__": true, "__mocks__": true, "__snapshots__": true,
	"spec": true, "specs": true, "testdata": true, "fixtures": true, "e2e": true,
	"coverage": true, ".nyc_output": true, "htmlcov": true,
}

// NoiseFiles are OS droppings and files that commonly hold secrets.
var NoiseFiles = map[string]bool{
	".DS_Store": true, "Thumbs.db": true, "desktop.ini": true,
	".env": true, ".npmrc": true, ".pypirc": true, ".netrc": true,
	"id_rsa": true, "id_dsa": true, "id_ecdsa": true, "id_ed25519": true,
}

// LockFiles are generated dependency manifests.
var LockFiles = map[string]bool{
	"package-lock.json": true, "yarn.lock": true, "pnpm-lock.yaml": true, "bun.lockb": true,
	"npm-shrinkwrap.json": true, "composer.lock": true, "Gemfile.lock": true,
	"Cargo.lock": true, "poetry.lock": true, "Pipfile.lock": true, "uv.lock": true,
	"go.sum": true, "mix.lock": true, "pubspec.lock": true, "flake.lock": true,
}

// BinaryExtensions covers media, archives, compiled objects, fonts and key material.
var BinaryExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true, ".ico": true,
	".webp": true, ".tiff": true, ".svg": true, ".psd": true,
	".mp3": true, ".wav": true, ".ogg": true, ".flac": true, ".m4a": true,
	".mp4": true, ".m4v": true, ".mov": true, ".mkv": true, ".webm": true, ".avi": true,
	".zip": true, ".tar": true, ".gz": true, ".tgz": true, ".bz2": true, ".xz": true, ".7z": true, ".rar": true,
	".jar": true, ".war": true, ".class": true, ".pyc": true, ".pyo": true, ".o": true, ".a": true,
	".so": true, ".dll": true, ".dylib": true, ".exe": true, ".bin": true, ".wasm": true,
	".pdf": true, ".woff": true, ".woff2": true, ".ttf": true, ".otf": true, ".eot": true,
	".db": true, ".sqlite": true, ".sqlite3": true,
	".pem": true, ".key": true, ".p12": true, ".pfx": true, ".crt": true,
	".log": true, ".lock": true, ".map": true,
}

// testFileSuffixes and testFilePrefixes match the naming conventions of the common ecosystems.
var (
	testFileSuffixes = []string{
		"_test.go",
		".test.ts", ".test.tsx", ".test.js", ".test.jsx", ".test.mjs", ".test.cjs",
		".spec.ts", ".spec.tsx", ".spec.js", ".spec.jsx",
		"_test.py", "_spec.rb", "_test.rb", "_test.exs", "_test.dart",
		".snap",
	}
	// Matched against the original name; these conventions are case-sensitive.
	classTestSuffixes = []string{"Test.java", "Tests.java", "Test.kt", "Tests.cs", "Test.cs", "Tests.swift"}
	testFilePrefixes  = []string{"test_"}
)

// IsJunkDirectory reports whether a directory with this name should be skipped outright.
func IsJunkDirectory(name string, extraNames []string, allowTestArtifacts bool) bool {
	if JunkDirectories[name] {
		return true
	}
	for _, extra := range extraNames {
		if extra == name {
			return true
		}
	}
	if !allowTestArtifacts && TestDirectories[strings.ToLower(name)] {
		return true
	}
	return false
}

// IsJunkFile reports whether a file with this name should be skipped outright.
func IsJunkFile(name string, allowTestArtifacts bool) bool {
	if NoiseFiles[name] || LockFiles[name] {
		return true
	}
	if strings.HasPrefix(name, ".env.") {
		return true
	}

	lower := strings.ToLower(name)
	if BinaryExtensions[filepath.Ext(lower)] {
		return true
	}
	if strings.HasSuffix(lower, ".min.js") || strings.HasSuffix(lower, ".min.css") {
		return true
	}

	if !allowTestArtifacts && isTestFile(name, lower) {
		return true
	}
	return false
}

func isTestFile(name, lower string) bool {
	for _, suffix := range testFileSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	for _, suffix := range classTestSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	for _, prefix := range testFilePrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// Package config loads and persists the inlay configuration file.
//
// Configuration lives in a single JSON document under the user config
// directory. Fields are read with gjson paths so a partial file is fine;
// anything absent falls back to the compiled-in defaults. Saving patches
// the existing document with sjson rather than rewriting it, preserving
// keys this version does not know about.
//
// Environment variables override the file: INLAY_PROVIDER, INLAY_MODEL
// and INLAY_LOG_LEVEL take precedence when set.
package config

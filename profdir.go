// Package profdir scrapes university faculty directories into structured
// professor records. It crawls a directory page to discover profile links,
// crawls each profile for details via LLM extraction, validates and
// deduplicates the results, and upserts them into a store keyed by email.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, gemini/, rod/).
package profdir

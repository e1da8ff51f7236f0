// Package sanitizer normalizes free-text booking and staff input before
// validation and storage.
//
// All functions are idempotent and never fail: input that cannot be
// normalized comes back empty (phones) or unchanged in meaning (text).
//
// Normalization includes:
//   - Phone numbers: E.164 (+[country][number]), parsed against the service regions
//   - Strings: collapse internal whitespace, trim ends
//   - Slices: drop empty and duplicate entries after normalization
package sanitizer

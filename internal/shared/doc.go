// Package shared holds helpers used across packages that belong to no single
// layer. Today that is only the testutil subpackage, which provides a capturing
// slog handler and assessment record fixtures for tests.
package shared

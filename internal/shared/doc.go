// Package shared holds code used across package boundaries, currently the
// test utilities under testutil.
package shared

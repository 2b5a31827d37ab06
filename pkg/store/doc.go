// Package store persists the mapping from login name to TOTP secret.
//
// A Store is loaded fresh from a single file on every invocation, mutated in
// memory and written back as a whole. A missing file is an empty store.
//
//	s, err := store.Load(path)
//	if err != nil {
//	    return err
//	}
//	s.Add("alice", "JBSWY3DPEHPK3PXP")
//	if err := s.Save(path); err != nil {
//	    return err
//	}
//
// # File Format
//
// Files ending in .json are JSON; every other file is TOML. Both hold a
// table per login:
//
//	[alice]
//	secret = "JBSWY3DPEHPK3PXP"
//
// Older files that name the field "key" instead of "secret" are still read.
//
// # Concurrency
//
// Save replaces the file atomically, so a crash never leaves a truncated
// file behind. There is no locking between processes: when two invocations
// mutate the same file, the one that saves last wins and the other's change
// is lost.
package store

// Package persist provides durable storage for the inventory snapshot and
// the plain-text append logs.
//
// The snapshot contract is whole-document: the complete radio mapping,
// headset counter and audit trail are read in full at startup and written
// in full after every committed transition. Two backends implement it: a
// JSON document file replaced atomically, and a SQLite database rewritten
// in a single transaction. The append logs are independent of the
// snapshot, one comma-separated line per event, for external tooling and
// forensics.
package persist

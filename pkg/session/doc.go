/*
Package session serializes access to generation sessions.

A session carries the state that outlives a single run: which just_once blocks
are satisfied, the records they created, and the last id issued per object
type. The Manager pairs a ports.SessionStore with per-session locks (and an
optional ports.DistributedLocker for multi-replica servers) so that runs of the
same session never interleave.
*/
package session

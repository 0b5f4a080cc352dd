// Package drive provides a provider-agnostic API for object storage.
//
// Applications talk to a Disk, which validates and canonicalizes every
// caller-supplied key before delegating to a Driver. Drivers exist for the
// local filesystem (drive/local), S3-compatible services (drive/s3) and
// GCS-compatible services (drive/gcs); an in-memory driver for tests lives
// in drive/testutil. The Manager hands out named, cached Disk instances and
// can swap any of them for an isolated filesystem-backed fake during tests.
//
// # Backends
//
// Driver packages register themselves on import:
//
//	import _ "github.com/kbukum/drivekit/drive/local"
//
//	disk, err := drive.NewDisk(drive.Config{Driver: drive.DriverFS, Location: "/srv/uploads"}, log)
//
// # Keys
//
// A key is a POSIX-style relative path. Backslashes become forward slashes,
// repeated slashes collapse, and path traversal or disallowed characters are
// rejected before any disk or network call is made.
package drive

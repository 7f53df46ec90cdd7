// Package fs abstracts the local file operations used to persist line
// indexes, so tests can inject I/O failures.
//
//   - [LocalFS]: the os package
//   - [FaultyFS]: wraps another FileSystem and fails writes, syncs, closes
//     or renames of matching files
//
// Production code uses fs.Default:
//
//	f, err := fs.Default.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
//
// Operations take no context.Context. Local file calls are not
// interruptible; remote objects go through blobstore.Blob instead.
package fs

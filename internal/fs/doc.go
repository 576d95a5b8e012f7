// Package fs provides filesystem abstractions for testability and fault injection.
//
// The package defines two key interfaces:
//
//   - [File]: Represents an open file with read/write/sync capabilities
//   - [FileSystem]: Abstracts filesystem operations (open, remove, rename, etc.)
//
// # Implementations
//
//   - [LocalFS]: Production implementation using standard os package
//   - [FaultyFS]: Test utility for fault injection (simulate I/O errors)
//
// # Usage
//
// Production code should use fs.Default (which is [LocalFS]):
//
//	file, err := fs.Default.OpenFile(path, os.O_RDONLY, 0)
//
// Tests can inject [FaultyFS] to simulate a catalog whose storage fails
// part way through:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("catalog.bin", fs.Fault{FailAfterBytes: -1, FailReadAfterBytes: 4096})
//	store := blobstore.NewLocalStore(dir, blobstore.WithFileSystem(ffs))
package fs
